package achievement

import (
	"encoding/json"
	"slices"
)

// Set is a set of achievement ids. The zero value is an empty, read-only
// set; use NewSet for one that can be added to.
type Set struct {
	ids map[string]struct{}
}

func NewSet(ids ...string) Set {
	s := Set{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return s
}

func (s Set) Add(id string) {
	s.ids[id] = struct{}{}
}

func (s Set) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

func (s Set) Len() int { return len(s.ids) }

// IDs returns catalog ids in catalog order followed by any unknown ids
// sorted lexically.
func (s Set) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for _, d := range catalog {
		if s.Has(d.ID) {
			out = append(out, d.ID)
		}
	}
	var extra []string
	for id := range s.ids {
		if _, ok := Lookup(id); !ok {
			extra = append(extra, id)
		}
	}
	slices.Sort(extra)
	return append(out, extra...)
}

func (s Set) Equal(other Set) bool {
	if s.Len() != other.Len() {
		return false
	}
	for id := range s.ids {
		if !other.Has(id) {
			return false
		}
	}
	return true
}

func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.IDs())
}

// UnmarshalJSON reads a list of ids. Entries that are not strings are
// skipped and anything but a list reads as the empty set.
func (s *Set) UnmarshalJSON(data []byte) error {
	*s = NewSet()
	var items []json.RawMessage
	if json.Unmarshal(data, &items) != nil {
		return nil
	}
	for _, item := range items {
		var id string
		if json.Unmarshal(item, &id) == nil && id != "" {
			s.Add(id)
		}
	}
	return nil
}
