// Package games runs the round logic of the five mini-games and the plays
// that the browser drives through the HTTP API.
package games

import (
	"errors"
	"math/rand/v2"
)

var (
	ErrPlayNotFound = errors.New("play not found")
	ErrUnknownLevel = errors.New("unknown level")
	ErrPlayFinished = errors.New("play finished")
	ErrInvalidMove  = errors.New("invalid move")
)

// pointsPerFirstTry is awarded for a round answered right on the first try.
const pointsPerFirstTry = 2

// Move is one input of the player. Each game reads only its own fields:
// find-me reads Option; truth-myth reads Answer; who-eats reads Food and
// Animal; puzzle reads Piece and Slot; who-lives reads Animal and Habitat.
type Move struct {
	Option  int    `json:"option,omitempty"`
	Answer  *bool  `json:"answer,omitempty"`
	Food    int    `json:"food,omitempty"`
	Animal  int    `json:"animal,omitempty"`
	Piece   int    `json:"piece,omitempty"`
	Slot    int    `json:"slot,omitempty"`
	Habitat string `json:"habitat,omitempty"`
}

// Feedback tells the child whether the move was right.
type Feedback struct {
	Correct bool   `json:"correct"`
	Message string `json:"message"`
}

// engine is the in-memory state of one level of one game.
type engine interface {
	move(m Move) (Feedback, error)
	// view is the JSON-encodable state the browser renders.
	view() any
	score() int
	won() bool
}

// shuffler has the signature of rand.Shuffle.
type shuffler func(n int, swap func(i, j int))

func defaultShuffle(n int, swap func(i, j int)) {
	rand.Shuffle(n, swap)
}

func shuffled[T any](shuffle shuffler, items []T) []T {
	out := append([]T(nil), items...)
	shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func inRange[T any](items []T, i int) bool {
	return i >= 0 && i < len(items)
}
