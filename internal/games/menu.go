package games

import "github.com/playperu/wildkids/internal/progress"

type LevelEntry struct {
	Level     int  `json:"level"`
	Completed bool `json:"completed"`
	HighScore int  `json:"highScore"`
}

type MenuEntry struct {
	progress.GameInfo
	Levels []LevelEntry `json:"levels"`
}

// Menu lists every game with its levels marked from stats.
func Menu(stats progress.Stats) []MenuEntry {
	out := make([]MenuEntry, 0, len(progress.Games()))
	for _, info := range progress.Games() {
		gp := stats.Game(info.ID)
		e := MenuEntry{GameInfo: info, Levels: make([]LevelEntry, 0, info.TotalLevels)}
		for lvl := 1; lvl <= info.TotalLevels; lvl++ {
			e.Levels = append(e.Levels, LevelEntry{
				Level:     lvl,
				Completed: gp.Completed(lvl),
				HighScore: gp.HighScores[lvl],
			})
		}
		out = append(out, e)
	}
	return out
}
