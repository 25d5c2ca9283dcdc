package games

import (
	"fmt"

	"github.com/playperu/wildkids/internal/content"
)

// findMe asks the child to pick the named target among distractors.
type findMe struct {
	rounds  []content.FindMeRound
	shuffle shuffler

	round   int
	options []string
	first   bool
	points  int
}

type findMeView struct {
	Round       int      `json:"round"`
	Rounds      int      `json:"rounds"`
	Instruction string   `json:"instruction"`
	Options     []string `json:"options"`
	Score       int      `json:"score"`
}

func newFindMe(level content.FindMeLevel, shuffle shuffler) *findMe {
	g := &findMe{rounds: level.Rounds, shuffle: shuffle}
	g.deal()
	return g
}

func (g *findMe) deal() {
	g.first = true
	g.options = nil
	if g.round >= len(g.rounds) {
		return
	}
	r := g.rounds[g.round]
	g.options = shuffled(g.shuffle, append([]string{r.Target}, r.Others...))
}

func (g *findMe) move(m Move) (Feedback, error) {
	if !inRange(g.options, m.Option) {
		return Feedback{}, fmt.Errorf("%w: option %d", ErrInvalidMove, m.Option)
	}
	if g.options[m.Option] != g.rounds[g.round].Target {
		g.first = false
		return Feedback{Message: "Ой, попробуй ещё раз!"}, nil
	}
	if g.first {
		g.points += pointsPerFirstTry
	}
	g.round++
	g.deal()
	return Feedback{Correct: true, Message: "✓ Правильно!"}, nil
}

func (g *findMe) view() any {
	v := findMeView{Round: g.round + 1, Rounds: len(g.rounds), Options: g.options, Score: g.points}
	if g.round < len(g.rounds) {
		v.Instruction = "Найди " + g.rounds[g.round].TargetName
	} else {
		v.Round = len(g.rounds)
	}
	return v
}

func (g *findMe) score() int { return g.points }
func (g *findMe) won() bool  { return g.round >= len(g.rounds) }
