package progress

import (
	"errors"
	"fmt"
	"slices"
)

// GameID identifies one of the mini-games. Values match the keys used in
// persisted progress records.
type GameID string

const (
	FindMe    GameID = "findMe"
	WhoEats   GameID = "whoEats"
	Puzzle    GameID = "puzzle"
	WhoLives  GameID = "whoLives"
	TruthMyth GameID = "truthMyth"
)

var ErrUnknownGame = errors.New("unknown game")

// GameInfo is the static catalog entry for a mini-game.
type GameInfo struct {
	ID          GameID `json:"id"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	TotalLevels int    `json:"totalLevels"`
}

var catalog = []GameInfo{
	{ID: FindMe, Slug: "find-me", Name: "Найди меня", Icon: "🔍", TotalLevels: 2},
	{ID: WhoEats, Slug: "who-eats", Name: "Кто что ест?", Icon: "🍎", TotalLevels: 2},
	{ID: Puzzle, Slug: "puzzle", Name: "Пазл", Icon: "🧩", TotalLevels: 6},
	{ID: WhoLives, Slug: "who-lives", Name: "Кто где живёт?", Icon: "🏠", TotalLevels: 2},
	{ID: TruthMyth, Slug: "truth-myth", Name: "Правда или миф", Icon: "❓", TotalLevels: 2},
}

// Games returns the game catalog in menu order.
func Games() []GameInfo {
	return slices.Clone(catalog)
}

// Info returns the catalog entry for id.
func Info(id GameID) (GameInfo, bool) {
	for _, g := range catalog {
		if g.ID == id {
			return g, true
		}
	}
	return GameInfo{}, false
}

// ParseGameID accepts either a game id ("findMe") or its URL slug ("find-me").
func ParseGameID(s string) (GameID, error) {
	for _, g := range catalog {
		if string(g.ID) == s || g.Slug == s {
			return g.ID, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownGame, s)
}

func (id GameID) Valid() bool {
	_, ok := Info(id)
	return ok
}

func (id GameID) Slug() string {
	g, _ := Info(id)
	return g.Slug
}

// TotalLevels is the number of levels the game ships with, 0 for unknown ids.
func (id GameID) TotalLevels() int {
	g, _ := Info(id)
	return g.TotalLevels
}

// MaxLevels is the total number of levels across every game.
func MaxLevels() int {
	n := 0
	for _, g := range catalog {
		n += g.TotalLevels
	}
	return n
}
