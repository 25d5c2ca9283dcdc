package content

import (
	"fmt"

	"github.com/playperu/wildkids/internal/progress"
)

type FindMeRound struct {
	Target     string   `yaml:"target" json:"target"`
	Others     []string `yaml:"others" json:"others"`
	TargetName string   `yaml:"target_name" json:"targetName"`
}

type FindMeLevel struct {
	Level  int           `yaml:"level" json:"level"`
	Rounds []FindMeRound `yaml:"rounds" json:"rounds"`
}

type FoodPair struct {
	Animal     string `yaml:"animal" json:"animal"`
	AnimalName string `yaml:"animal_name" json:"animalName"`
	Food       string `yaml:"food" json:"food"`
	FoodName   string `yaml:"food_name" json:"foodName"`
}

type WhoEatsLevel struct {
	Level int        `yaml:"level" json:"level"`
	Pairs []FoodPair `yaml:"pairs" json:"pairs"`
}

type PuzzleLevel struct {
	Level    int    `yaml:"level" json:"level"`
	Image    string `yaml:"image" json:"image"`
	Name     string `yaml:"name" json:"name"`
	GridSize int    `yaml:"grid_size" json:"gridSize"`
}

type Dweller struct {
	Emoji   string `yaml:"emoji" json:"emoji"`
	Name    string `yaml:"name" json:"name"`
	Habitat string `yaml:"habitat" json:"habitat"`
}

type Habitat struct {
	ID    string `yaml:"id" json:"id"`
	Emoji string `yaml:"emoji" json:"emoji"`
	Name  string `yaml:"name" json:"name"`
}

type WhoLivesLevel struct {
	Level    int       `yaml:"level" json:"level"`
	Animals  []Dweller `yaml:"animals" json:"animals"`
	Habitats []Habitat `yaml:"habitats" json:"habitats"`
}

type Statement struct {
	Statement string `yaml:"statement" json:"statement"`
	Answer    bool   `yaml:"answer" json:"answer"`
	Emoji     string `yaml:"emoji" json:"emoji"`
}

type TruthMythLevel struct {
	Level     int         `yaml:"level" json:"level"`
	Questions []Statement `yaml:"questions" json:"questions"`
}

// Levels holds the level data for every mini-game.
type Levels struct {
	FindMe    []FindMeLevel    `yaml:"find_me"`
	WhoEats   []WhoEatsLevel   `yaml:"who_eats"`
	Puzzle    []PuzzleLevel    `yaml:"puzzle"`
	WhoLives  []WhoLivesLevel  `yaml:"who_lives"`
	TruthMyth []TruthMythLevel `yaml:"truth_myth"`
}

func find[T any](levels []T, n int, level func(T) int) (T, bool) {
	for _, l := range levels {
		if level(l) == n {
			return l, true
		}
	}
	var zero T
	return zero, false
}

func (l *Levels) FindMeLevel(n int) (FindMeLevel, bool) {
	return find(l.FindMe, n, func(v FindMeLevel) int { return v.Level })
}

func (l *Levels) WhoEatsLevel(n int) (WhoEatsLevel, bool) {
	return find(l.WhoEats, n, func(v WhoEatsLevel) int { return v.Level })
}

func (l *Levels) PuzzleLevel(n int) (PuzzleLevel, bool) {
	return find(l.Puzzle, n, func(v PuzzleLevel) int { return v.Level })
}

func (l *Levels) WhoLivesLevel(n int) (WhoLivesLevel, bool) {
	return find(l.WhoLives, n, func(v WhoLivesLevel) int { return v.Level })
}

func (l *Levels) TruthMythLevel(n int) (TruthMythLevel, bool) {
	return find(l.TruthMyth, n, func(v TruthMythLevel) int { return v.Level })
}

// Count returns how many levels are defined for game.
func (l *Levels) Count(game progress.GameID) int {
	switch game {
	case progress.FindMe:
		return len(l.FindMe)
	case progress.WhoEats:
		return len(l.WhoEats)
	case progress.Puzzle:
		return len(l.Puzzle)
	case progress.WhoLives:
		return len(l.WhoLives)
	case progress.TruthMyth:
		return len(l.TruthMyth)
	}
	return 0
}

// validate checks the dataset agrees with the game catalog and that every
// level is playable.
func (l *Levels) validate() error {
	for _, g := range progress.Games() {
		if got := l.Count(g.ID); got != g.TotalLevels {
			return fmt.Errorf("%s: %d levels, want %d", g.ID, got, g.TotalLevels)
		}
	}
	for _, lv := range l.Puzzle {
		if lv.GridSize != 3 && lv.GridSize != 4 {
			return fmt.Errorf("puzzle level %d: grid size %d", lv.Level, lv.GridSize)
		}
	}
	for _, lv := range l.WhoLives {
		known := map[string]bool{}
		for _, h := range lv.Habitats {
			known[h.ID] = true
		}
		for _, a := range lv.Animals {
			if !known[a.Habitat] {
				return fmt.Errorf("who-lives level %d: %s has no habitat %q", lv.Level, a.Name, a.Habitat)
			}
		}
	}
	return nil
}
