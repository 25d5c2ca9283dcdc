package games

import (
	"fmt"

	"github.com/playperu/wildkids/internal/content"
)

type food struct {
	Emoji string `json:"emoji"`
	Name  string `json:"name"`
	Eaten bool   `json:"eaten"`
}

type hungryAnimal struct {
	Emoji string `json:"emoji"`
	Name  string `json:"name"`
	Fed   bool   `json:"fed"`
}

// whoEats has the child drag each food onto the animal that eats it. Every
// food item is consumed on its own, so two animals sharing a food need two
// items.
type whoEats struct {
	pairs   []content.FoodPair
	animals []hungryAnimal
	foods   []food
}

type whoEatsView struct {
	Animals []hungryAnimal `json:"animals"`
	Foods   []food         `json:"foods"`
	Fed     int            `json:"fed"`
}

func newWhoEats(level content.WhoEatsLevel, shuffle shuffler) *whoEats {
	g := &whoEats{pairs: level.Pairs}
	for _, p := range level.Pairs {
		g.animals = append(g.animals, hungryAnimal{Emoji: p.Animal, Name: p.AnimalName})
	}
	for _, p := range shuffled(shuffle, level.Pairs) {
		g.foods = append(g.foods, food{Emoji: p.Food, Name: p.FoodName})
	}
	return g
}

func (g *whoEats) move(m Move) (Feedback, error) {
	if !inRange(g.foods, m.Food) || !inRange(g.animals, m.Animal) {
		return Feedback{}, fmt.Errorf("%w: food %d, animal %d", ErrInvalidMove, m.Food, m.Animal)
	}
	f, a := &g.foods[m.Food], &g.animals[m.Animal]
	if f.Eaten || a.Fed {
		return Feedback{}, fmt.Errorf("%w: already used", ErrInvalidMove)
	}
	if f.Emoji != g.pairs[m.Animal].Food {
		return Feedback{Message: "Хм, это не его еда. Попробуй снова!"}, nil
	}
	f.Eaten = true
	a.Fed = true
	return Feedback{Correct: true, Message: "🍽️ Ням-ням! Вкусно!"}, nil
}

func (g *whoEats) fed() int {
	n := 0
	for _, a := range g.animals {
		if a.Fed {
			n++
		}
	}
	return n
}

func (g *whoEats) view() any {
	return whoEatsView{Animals: g.animals, Foods: g.foods, Fed: g.fed()}
}

func (g *whoEats) score() int { return 0 }
func (g *whoEats) won() bool  { return g.fed() == len(g.animals) }
