package progress

import (
	"encoding/json"
	"strconv"
	"time"
)

// Records written by older clients or edited by hand can carry sub-fields
// of the wrong type. Decoding keeps every field that parses and treats the
// rest as empty, so one bad field never makes a whole record unreadable.

func (p *GameProgress) UnmarshalJSON(data []byte) error {
	*p = NewGameProgress()

	var raw struct {
		CompletedLevels json.RawMessage `json:"completedLevels"`
		HighScores      json.RawMessage `json:"highScores"`
		LastPlayed      json.RawMessage `json:"lastPlayed"`
	}
	if json.Unmarshal(data, &raw) != nil {
		return nil
	}

	p.CompletedLevels = decodeLevels(raw.CompletedLevels)
	p.HighScores = decodeScores(raw.HighScores)
	p.LastPlayed = decodeTime(raw.LastPlayed)
	return nil
}

func decodeLevels(data json.RawMessage) []int {
	levels := []int{}
	var items []json.RawMessage
	if json.Unmarshal(data, &items) != nil {
		return levels
	}
	for _, item := range items {
		var l int
		if json.Unmarshal(item, &l) == nil {
			levels = append(levels, l)
		}
	}
	return levels
}

// decodeScores accepts the object form {"1": 10} and the array form
// [null, 10] that sparse integer-keyed objects turn into in some JSON
// stores, where the index is the level.
func decodeScores(data json.RawMessage) map[int]int {
	scores := map[int]int{}

	var obj map[string]json.RawMessage
	if json.Unmarshal(data, &obj) == nil {
		for k, v := range obj {
			level, err := strconv.Atoi(k)
			if err != nil {
				continue
			}
			var s int
			if json.Unmarshal(v, &s) == nil {
				scores[level] = s
			}
		}
		return scores
	}

	var arr []json.RawMessage
	if json.Unmarshal(data, &arr) == nil {
		for level, v := range arr {
			var s *int
			if json.Unmarshal(v, &s) == nil && s != nil {
				scores[level] = *s
			}
		}
	}
	return scores
}

// decodeTime accepts an RFC 3339 string or Unix milliseconds.
func decodeTime(data json.RawMessage) *time.Time {
	var t time.Time
	if json.Unmarshal(data, &t) == nil && !t.IsZero() {
		return &t
	}
	var ms int64
	if json.Unmarshal(data, &ms) == nil && ms > 0 {
		t = time.UnixMilli(ms).UTC()
		return &t
	}
	return nil
}

// UnmarshalJSON decodes the per-game records and recomputes the totals
// from them. Stored totals are ignored.
func (s *Stats) UnmarshalJSON(data []byte) error {
	var raw struct {
		Games json.RawMessage `json:"games"`
	}
	games := map[GameID]GameProgress{}
	if json.Unmarshal(data, &raw) == nil {
		var byID map[string]json.RawMessage
		if json.Unmarshal(raw.Games, &byID) == nil {
			for id, v := range byID {
				var gp GameProgress
				_ = json.Unmarshal(v, &gp)
				games[GameID(id)] = gp
			}
		}
	}
	*s = Aggregate(games)
	return nil
}

func (r *Record) UnmarshalJSON(data []byte) error {
	*r = NewRecord()

	var raw struct {
		Profile              json.RawMessage `json:"profile"`
		Progress             json.RawMessage `json:"progress"`
		UnlockedAchievements json.RawMessage `json:"unlockedAchievements"`
	}
	if json.Unmarshal(data, &raw) != nil {
		return nil
	}

	var p *Profile
	if json.Unmarshal(raw.Profile, &p) == nil {
		r.Profile = p
	}
	_ = json.Unmarshal(raw.Progress, &r.Progress)

	var ids []json.RawMessage
	if json.Unmarshal(raw.UnlockedAchievements, &ids) == nil {
		for _, v := range ids {
			var id string
			if json.Unmarshal(v, &id) == nil && id != "" {
				r.UnlockedAchievements = append(r.UnlockedAchievements, id)
			}
		}
	}
	return nil
}
