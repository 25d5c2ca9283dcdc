// Package progress holds the per-game progress records and the aggregate
// statistics derived from them.
package progress

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"
)

var ErrInvalidCompletion = errors.New("invalid completion")

// GameProgress is the record kept for one game and one identity.
type GameProgress struct {
	CompletedLevels []int       `json:"completedLevels"`
	HighScores      map[int]int `json:"highScores"`
	LastPlayed      *time.Time  `json:"lastPlayed"`
}

// NewGameProgress returns an empty record with non-nil collections.
func NewGameProgress() GameProgress {
	return GameProgress{
		CompletedLevels: []int{},
		HighScores:      map[int]int{},
	}
}

// Normalize repairs a decoded record: missing collections become empty,
// duplicate and non-positive levels are dropped, negative scores are dropped.
func (p *GameProgress) Normalize() {
	levels := make([]int, 0, len(p.CompletedLevels))
	for _, l := range p.CompletedLevels {
		if l > 0 && !slices.Contains(levels, l) {
			levels = append(levels, l)
		}
	}
	p.CompletedLevels = levels

	scores := make(map[int]int, len(p.HighScores))
	for l, s := range p.HighScores {
		if l > 0 && s >= 0 {
			scores[l] = s
		}
	}
	p.HighScores = scores
}

// Clone returns a deep copy of p.
func (p GameProgress) Clone() GameProgress {
	c := GameProgress{
		CompletedLevels: slices.Clone(p.CompletedLevels),
		HighScores:      maps.Clone(p.HighScores),
	}
	if c.CompletedLevels == nil {
		c.CompletedLevels = []int{}
	}
	if c.HighScores == nil {
		c.HighScores = map[int]int{}
	}
	if p.LastPlayed != nil {
		t := *p.LastPlayed
		c.LastPlayed = &t
	}
	return c
}

// Completed reports whether level has been completed.
func (p GameProgress) Completed(level int) bool {
	return slices.Contains(p.CompletedLevels, level)
}

// Score is the sum of the best scores over every level.
func (p GameProgress) Score() int {
	total := 0
	for _, s := range p.HighScores {
		total += s
	}
	return total
}

// Completion is a single end-of-level report from a game.
type Completion struct {
	Game      GameID `json:"game"`
	Level     int    `json:"level"`
	Score     int    `json:"score"`
	Completed bool   `json:"completed"`
}

func (c Completion) Validate() error {
	info, ok := Info(c.Game)
	if !ok {
		return fmt.Errorf("%w: %w: %q", ErrInvalidCompletion, ErrUnknownGame, c.Game)
	}
	if c.Level < 1 || c.Level > info.TotalLevels {
		return fmt.Errorf("%w: level %d out of range 1..%d", ErrInvalidCompletion, c.Level, info.TotalLevels)
	}
	if c.Score < 0 {
		return fmt.Errorf("%w: negative score %d", ErrInvalidCompletion, c.Score)
	}
	return nil
}

// Apply folds c into p. Completed levels are never duplicated, high scores
// only grow, and LastPlayed is always set to now.
func (p *GameProgress) Apply(c Completion, now time.Time) {
	p.Normalize()

	if c.Completed && !p.Completed(c.Level) {
		p.CompletedLevels = append(p.CompletedLevels, c.Level)
	}
	if best, ok := p.HighScores[c.Level]; !ok || c.Score > best {
		p.HighScores[c.Level] = c.Score
	}

	t := now.UTC()
	p.LastPlayed = &t
}

// Merge combines two records for the same game: completed levels are
// unioned, high scores take the per-level maximum and LastPlayed the later
// of the two. Both progress fields are monotonic, so Merge never loses a
// completion regardless of argument order.
func (p GameProgress) Merge(other GameProgress) GameProgress {
	out := p.Clone()
	out.Normalize()

	for _, l := range other.CompletedLevels {
		if l > 0 && !out.Completed(l) {
			out.CompletedLevels = append(out.CompletedLevels, l)
		}
	}
	for l, s := range other.HighScores {
		if l <= 0 || s < 0 {
			continue
		}
		if best, ok := out.HighScores[l]; !ok || s > best {
			out.HighScores[l] = s
		}
	}
	if other.LastPlayed != nil && (out.LastPlayed == nil || other.LastPlayed.After(*out.LastPlayed)) {
		t := *other.LastPlayed
		out.LastPlayed = &t
	}
	return out
}

// Equal compares completed levels as a set and high scores as a mapping.
func (p GameProgress) Equal(other GameProgress) bool {
	if len(p.CompletedLevels) != len(other.CompletedLevels) {
		return false
	}
	for _, l := range p.CompletedLevels {
		if !other.Completed(l) {
			return false
		}
	}
	return maps.Equal(p.HighScores, other.HighScores)
}
