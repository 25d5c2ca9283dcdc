// Package content serves the static datasets bundled with the site: the
// encyclopedia, the map of Belarus and the mini-game levels.
package content

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var dataFS embed.FS

var ErrNotFound = errors.New("not found")

// SuggestLimit caps the number of search suggestions.
const SuggestLimit = 5

// Entry is an encyclopedia card.
type Entry struct {
	ID          string   `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Emoji       string   `yaml:"emoji" json:"emoji"`
	Category    string   `yaml:"category" json:"category"`
	Type        string   `yaml:"type" json:"type"`
	Habitat     string   `yaml:"habitat" json:"habitat"`
	TypeName    string   `yaml:"type_name" json:"typeName"`
	HabitatName string   `yaml:"habitat_name" json:"habitatName"`
	Facts       []string `yaml:"facts" json:"facts"`
}

type Position struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

// Marker is a pin on the map. Position is in percent of the map image.
type Marker struct {
	ID       string   `yaml:"id" json:"id"`
	Emoji    string   `yaml:"emoji" json:"emoji"`
	Name     string   `yaml:"name" json:"name"`
	Type     string   `yaml:"type" json:"type"`
	Position Position `yaml:"position" json:"position"`
	Facts    []string `yaml:"facts" json:"facts"`
	Habitat  string   `yaml:"habitat" json:"habitat"`
}

// Filter narrows encyclopedia results. Empty fields and "all" match
// everything.
type Filter struct {
	Query    string
	Category string
	Type     string
	Habitat  string
}

// Library is the loaded, read-only content. It is safe for concurrent use.
type Library struct {
	entries []Entry
	markers []Marker
	levels  Levels
}

// Load parses the embedded datasets.
func Load() (*Library, error) {
	lib := &Library{}

	var enc struct {
		Entries []Entry `yaml:"entries"`
	}
	if err := decode("data/encyclopedia.yaml", &enc); err != nil {
		return nil, err
	}
	lib.entries = enc.Entries

	var mk struct {
		Markers []Marker `yaml:"markers"`
	}
	if err := decode("data/markers.yaml", &mk); err != nil {
		return nil, err
	}
	lib.markers = mk.Markers

	if err := decode("data/levels.yaml", &lib.levels); err != nil {
		return nil, err
	}
	if err := lib.levels.validate(); err != nil {
		return nil, fmt.Errorf("validating levels: %w", err)
	}
	return lib, nil
}

func decode(name string, v any) error {
	data, err := dataFS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("reading %s: %w", name, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", name, err)
	}
	return nil
}

func matches(want, got string) bool {
	return want == "" || want == "all" || want == got
}

// contains reports whether name contains query ignoring case. A Caser
// keeps state, so each call gets its own.
func contains(name, query string) bool {
	fold := cases.Fold()
	return strings.Contains(fold.String(name), fold.String(query))
}

// Search returns the entries matching f, in dataset order.
func (l *Library) Search(f Filter) []Entry {
	q := strings.TrimSpace(f.Query)
	out := []Entry{}
	for _, e := range l.entries {
		if q != "" && !contains(e.Name, q) {
			continue
		}
		if !matches(f.Category, e.Category) || !matches(f.Type, e.Type) || !matches(f.Habitat, e.Habitat) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Suggest returns up to SuggestLimit entries whose name contains query.
func (l *Library) Suggest(query string) []Entry {
	q := strings.TrimSpace(query)
	out := []Entry{}
	if q == "" {
		return out
	}
	for _, e := range l.entries {
		if contains(e.Name, q) {
			out = append(out, e)
			if len(out) == SuggestLimit {
				break
			}
		}
	}
	return out
}

func (l *Library) Entry(id string) (Entry, error) {
	for _, e := range l.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return Entry{}, fmt.Errorf("entry %q: %w", id, ErrNotFound)
}

// Markers returns the map markers of the given type ("animal", "plant"),
// or all of them for "" and "all".
func (l *Library) Markers(typ string) []Marker {
	out := []Marker{}
	for _, m := range l.markers {
		if matches(typ, m.Type) {
			out = append(out, m)
		}
	}
	return out
}

func (l *Library) Marker(id string) (Marker, error) {
	for _, m := range l.markers {
		if m.ID == id {
			return m, nil
		}
	}
	return Marker{}, fmt.Errorf("marker %q: %w", id, ErrNotFound)
}

// Levels returns the mini-game level data.
func (l *Library) Levels() *Levels {
	return &l.levels
}
