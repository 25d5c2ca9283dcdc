// Package achievement evaluates the fixed achievement catalog against
// aggregate progress statistics.
package achievement

import (
	"slices"

	"github.com/playperu/wildkids/internal/progress"
)

// Definition is one catalog entry. Predicate must be a pure function of
// the stats it is given.
type Definition struct {
	ID          string                     `json:"id"`
	Name        string                     `json:"name"`
	Description string                     `json:"description"`
	Icon        string                     `json:"icon"`
	Predicate   func(progress.Stats) bool `json:"-"`
}

func completedAtLeast(game progress.GameID, n int) func(progress.Stats) bool {
	return func(s progress.Stats) bool {
		return len(s.Games[game].CompletedLevels) >= n
	}
}

var catalog = []Definition{
	{
		ID:          "first_game",
		Name:        "Первая игра",
		Description: "Сыграй в первую игру",
		Icon:        "🎮",
		Predicate:   func(s progress.Stats) bool { return s.GamesPlayed >= 1 },
	},
	{
		ID:          "five_levels",
		Name:        "Пять уровней",
		Description: "Пройди 5 уровней",
		Icon:        "⭐",
		Predicate:   func(s progress.Stats) bool { return s.LevelsCompleted >= 5 },
	},
	{
		ID:          "ten_levels",
		Name:        "Десять уровней",
		Description: "Пройди 10 уровней",
		Icon:        "🌟",
		Predicate:   func(s progress.Stats) bool { return s.LevelsCompleted >= 10 },
	},
	{
		ID:          "hundred_points",
		Name:        "Сто баллов",
		Description: "Набери 100 баллов",
		Icon:        "💯",
		Predicate:   func(s progress.Stats) bool { return s.TotalScore >= 100 },
	},
	{
		ID:          "five_hundred_points",
		Name:        "500 баллов",
		Description: "Набери 500 баллов",
		Icon:        "🏆",
		Predicate:   func(s progress.Stats) bool { return s.TotalScore >= 500 },
	},
	{
		ID:          "find_me_master",
		Name:        "Мастер поиска",
		Description: `Пройди все уровни "Найди меня"`,
		Icon:        "🔍",
		Predicate:   completedAtLeast(progress.FindMe, progress.FindMe.TotalLevels()),
	},
	{
		ID:          "puzzle_master",
		Name:        "Мастер пазлов",
		Description: `Пройди все уровни "Пазл"`,
		Icon:        "🧩",
		Predicate:   completedAtLeast(progress.Puzzle, progress.Puzzle.TotalLevels()),
	},
	{
		ID:          "truth_seeker",
		Name:        "Искатель правды",
		Description: `Пройди все уровни "Правда или миф"`,
		Icon:        "🔮",
		Predicate:   completedAtLeast(progress.TruthMyth, progress.TruthMyth.TotalLevels()),
	},
	{
		ID:          "animal_expert",
		Name:        "Знаток животных",
		Description: `Пройди все уровни "Кто что ест?" и "Кто где живёт?"`,
		Icon:        "🦊",
		Predicate: func(s progress.Stats) bool {
			return completedAtLeast(progress.WhoEats, progress.WhoEats.TotalLevels())(s) &&
				completedAtLeast(progress.WhoLives, progress.WhoLives.TotalLevels())(s)
		},
	},
	{
		ID:          "completionist",
		Name:        "Всё пройдено!",
		Description: "Пройди все игры",
		Icon:        "👑",
		Predicate:   func(s progress.Stats) bool { return s.LevelsCompleted >= progress.MaxLevels() },
	},
	{
		ID:          "speed_demon",
		Name:        "Скоростной демон",
		Description: "Набери 50 баллов в одной игре",
		Icon:        "⚡",
		Predicate: func(s progress.Stats) bool {
			for _, gp := range s.Games {
				for _, score := range gp.HighScores {
					if score >= 50 {
						return true
					}
				}
			}
			return false
		},
	},
	{
		ID:          "persistent_player",
		Name:        "Настойчивый игрок",
		Description: "Сыграй 10 раз",
		Icon:        "🎯",
		Predicate:   func(s progress.Stats) bool { return s.GamesPlayed >= 10 },
	},
}

// Catalog returns the achievement definitions in display order.
func Catalog() []Definition {
	return slices.Clone(catalog)
}

// Lookup returns the definition with the given id.
func Lookup(id string) (Definition, bool) {
	for _, d := range catalog {
		if d.ID == id {
			return d, true
		}
	}
	return Definition{}, false
}

// Evaluate returns the ids of every achievement whose predicate holds.
func Evaluate(stats progress.Stats) Set {
	set := NewSet()
	for _, d := range catalog {
		if d.Predicate(stats) {
			set.Add(d.ID)
		}
	}
	return set
}

// Result is the outcome of Check.
type Result struct {
	// NewlyUnlocked lists achievements unlocked now but absent from the
	// previous set, in catalog order.
	NewlyUnlocked []Definition
	// Updated is the current evaluation and replaces the previous set.
	Updated Set
}

// Check evaluates stats and diffs the result against previous. The previous
// set must be hydrated from storage first, otherwise every unlocked
// achievement counts as new.
func Check(stats progress.Stats, previous Set) Result {
	current := Evaluate(stats)
	res := Result{Updated: current}
	for _, d := range catalog {
		if current.Has(d.ID) && !previous.Has(d.ID) {
			res.NewlyUnlocked = append(res.NewlyUnlocked, d)
		}
	}
	return res
}

// Status pairs a definition with whether it is unlocked.
type Status struct {
	Definition
	Unlocked bool `json:"unlocked"`
}

// Statuses lists every achievement with its unlocked state for stats.
func Statuses(stats progress.Stats) []Status {
	out := make([]Status, 0, len(catalog))
	for _, d := range catalog {
		out = append(out, Status{Definition: d, Unlocked: d.Predicate(stats)})
	}
	return out
}
