package progress

import (
	"time"
)

// Stats are the aggregate totals over every game of one identity. Build
// them with Aggregate; the totals are never updated independently of Games.
type Stats struct {
	TotalScore      int                     `json:"totalScore"`
	LevelsCompleted int                     `json:"levelsCompleted"`
	GamesPlayed     int                     `json:"gamesPlayed"`
	Games           map[GameID]GameProgress `json:"games"`
}

// Aggregate computes Stats from the per-game records. Records of unknown
// games are ignored.
func Aggregate(games map[GameID]GameProgress) Stats {
	s := Stats{Games: make(map[GameID]GameProgress, len(games))}
	for id, gp := range games {
		if !id.Valid() {
			continue
		}
		gp = gp.Clone()
		gp.Normalize()
		s.Games[id] = gp

		s.TotalScore += gp.Score()
		s.LevelsCompleted += len(gp.CompletedLevels)
		if len(gp.CompletedLevels) > 0 {
			s.GamesPlayed++
		}
	}
	return s
}

// Game returns the record for id, empty when the game was never played.
func (s Stats) Game(id GameID) GameProgress {
	if gp, ok := s.Games[id]; ok {
		return gp
	}
	return NewGameProgress()
}

// With returns a copy of s with gp stored for id and the totals recomputed.
func (s Stats) With(id GameID, gp GameProgress) Stats {
	games := make(map[GameID]GameProgress, len(s.Games)+1)
	for k, v := range s.Games {
		games[k] = v
	}
	games[id] = gp
	return Aggregate(games)
}

// Profile is the user-visible account information.
type Profile struct {
	DisplayName string    `json:"displayName"`
	Email       string    `json:"email"`
	CreatedAt   time.Time `json:"createdAt"`
	Avatar      string    `json:"avatar"`
}

// Record is the full per-user document held by the remote store.
type Record struct {
	Profile              *Profile `json:"profile,omitempty"`
	Progress             Stats    `json:"progress"`
	UnlockedAchievements []string `json:"unlockedAchievements"`
}

// NewRecord returns an empty record for a freshly created user.
func NewRecord() Record {
	return Record{
		Progress:             Aggregate(nil),
		UnlockedAchievements: []string{},
	}
}

// Normalize repairs missing collections and recomputes the totals.
func (r *Record) Normalize() {
	r.Progress = Aggregate(r.Progress.Games)
	if r.UnlockedAchievements == nil {
		r.UnlockedAchievements = []string{}
	}
}

// Card is one row of the per-game progress list on the profile page.
type Card struct {
	Game       GameInfo   `json:"game"`
	Completed  int        `json:"completed"`
	Total      int        `json:"total"`
	Percent    int        `json:"percent"`
	Score      int        `json:"score"`
	LastPlayed *time.Time `json:"lastPlayed,omitempty"`
}

// Cards returns a card per game in catalog order.
func Cards(s Stats) []Card {
	cards := make([]Card, 0, len(catalog))
	for _, info := range catalog {
		gp := s.Game(info.ID)
		done := min(len(gp.CompletedLevels), info.TotalLevels)
		cards = append(cards, Card{
			Game:       info,
			Completed:  done,
			Total:      info.TotalLevels,
			Percent:    done * 100 / info.TotalLevels,
			Score:      gp.Score(),
			LastPlayed: gp.LastPlayed,
		})
	}
	return cards
}
