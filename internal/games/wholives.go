package games

import (
	"fmt"

	"github.com/playperu/wildkids/internal/content"
)

type dweller struct {
	Emoji string `json:"emoji"`
	Name  string `json:"name"`
	// Home is the habitat id once the animal has been placed.
	Home string `json:"home,omitempty"`
}

// whoLives has the child move every animal to its habitat.
type whoLives struct {
	level   content.WhoLivesLevel
	animals []dweller
}

type whoLivesView struct {
	Animals  []dweller         `json:"animals"`
	Habitats []content.Habitat `json:"habitats"`
	Placed   int               `json:"placed"`
}

func newWhoLives(level content.WhoLivesLevel) *whoLives {
	g := &whoLives{level: level}
	for _, a := range level.Animals {
		g.animals = append(g.animals, dweller{Emoji: a.Emoji, Name: a.Name})
	}
	return g
}

func (g *whoLives) known(habitat string) bool {
	for _, h := range g.level.Habitats {
		if h.ID == habitat {
			return true
		}
	}
	return false
}

func (g *whoLives) move(m Move) (Feedback, error) {
	if !inRange(g.animals, m.Animal) || !g.known(m.Habitat) {
		return Feedback{}, fmt.Errorf("%w: animal %d, habitat %q", ErrInvalidMove, m.Animal, m.Habitat)
	}
	a := &g.animals[m.Animal]
	if a.Home != "" {
		return Feedback{}, fmt.Errorf("%w: animal %d already placed", ErrInvalidMove, m.Animal)
	}
	if g.level.Animals[m.Animal].Habitat != m.Habitat {
		return Feedback{Message: "Ой, это не его дом. Попробуй ещё раз!"}, nil
	}
	a.Home = m.Habitat
	return Feedback{Correct: true, Message: "🏠 Теперь зверёк дома!"}, nil
}

func (g *whoLives) placed() int {
	n := 0
	for _, a := range g.animals {
		if a.Home != "" {
			n++
		}
	}
	return n
}

func (g *whoLives) view() any {
	return whoLivesView{Animals: g.animals, Habitats: g.level.Habitats, Placed: g.placed()}
}

func (g *whoLives) score() int { return 0 }
func (g *whoLives) won() bool  { return g.placed() == len(g.animals) }
