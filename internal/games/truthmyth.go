package games

import (
	"fmt"

	"github.com/playperu/wildkids/internal/content"
)

// truthMyth presents statements to be marked as truth or myth.
type truthMyth struct {
	questions []content.Statement

	current  int
	first    bool
	points   int
	answered []bool
}

type truthMythView struct {
	Question  int    `json:"question"`
	Questions int    `json:"questions"`
	Statement string `json:"statement,omitempty"`
	Emoji     string `json:"emoji,omitempty"`
	// Answered records, per finished question, whether it was right on
	// the first try.
	Answered []bool `json:"answered"`
	Score    int    `json:"score"`
}

func newTruthMyth(level content.TruthMythLevel) *truthMyth {
	return &truthMyth{questions: level.Questions, first: true, answered: []bool{}}
}

func (g *truthMyth) move(m Move) (Feedback, error) {
	if m.Answer == nil {
		return Feedback{}, fmt.Errorf("%w: answer required", ErrInvalidMove)
	}
	if *m.Answer != g.questions[g.current].Answer {
		g.first = false
		return Feedback{Message: "Не совсем так. Попробуй ещё раз!"}, nil
	}
	if g.first {
		g.points += pointsPerFirstTry
	}
	g.answered = append(g.answered, g.first)
	g.current++
	g.first = true
	return Feedback{Correct: true, Message: "✓ Правильно! Молодец!"}, nil
}

func (g *truthMyth) view() any {
	v := truthMythView{
		Question:  min(g.current+1, len(g.questions)),
		Questions: len(g.questions),
		Answered:  g.answered,
		Score:     g.points,
	}
	if g.current < len(g.questions) {
		q := g.questions[g.current]
		v.Statement, v.Emoji = q.Statement, q.Emoji
	}
	return v
}

func (g *truthMyth) score() int { return g.points }
func (g *truthMyth) won() bool  { return g.current >= len(g.questions) }
