package games

import (
	"fmt"

	"github.com/playperu/wildkids/internal/content"
)

// puzzle splits a picture into gridSize² pieces; piece i belongs in slot i.
type puzzle struct {
	level content.PuzzleLevel
	slots []bool // slots[i] is true once piece i is placed
	tray  []int
}

type puzzleView struct {
	Image    string `json:"image"`
	Name     string `json:"name"`
	GridSize int    `json:"gridSize"`
	Placed   []bool `json:"placed"`
	Tray     []int  `json:"tray"`
}

func newPuzzle(level content.PuzzleLevel, shuffle shuffler) *puzzle {
	n := level.GridSize * level.GridSize
	pieces := make([]int, n)
	for i := range pieces {
		pieces[i] = i
	}
	return &puzzle{level: level, slots: make([]bool, n), tray: shuffled(shuffle, pieces)}
}

func (g *puzzle) move(m Move) (Feedback, error) {
	if !inRange(g.slots, m.Piece) || !inRange(g.slots, m.Slot) {
		return Feedback{}, fmt.Errorf("%w: piece %d, slot %d", ErrInvalidMove, m.Piece, m.Slot)
	}
	if g.slots[m.Piece] {
		return Feedback{}, fmt.Errorf("%w: piece %d already placed", ErrInvalidMove, m.Piece)
	}
	if m.Piece != m.Slot {
		return Feedback{Message: "Попробуй другой кусочек!"}, nil
	}
	g.slots[m.Piece] = true
	for i, p := range g.tray {
		if p == m.Piece {
			g.tray = append(g.tray[:i], g.tray[i+1:]...)
			break
		}
	}
	return Feedback{Correct: true}, nil
}

func (g *puzzle) view() any {
	return puzzleView{
		Image:    g.level.Image,
		Name:     g.level.Name,
		GridSize: g.level.GridSize,
		Placed:   g.slots,
		Tray:     g.tray,
	}
}

func (g *puzzle) score() int { return 0 }
func (g *puzzle) won() bool  { return len(g.tray) == 0 }
