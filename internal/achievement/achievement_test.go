package achievement_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playperu/wildkids/internal/achievement"
	"github.com/playperu/wildkids/internal/progress"
)

func ids(defs []achievement.Definition) []string {
	out := make([]string, len(defs))
	for i, d := range defs {
		out[i] = d.ID
	}
	return out
}

func TestCatalog(t *testing.T) {
	cat := achievement.Catalog()
	assert.Equal(t, []string{
		"first_game", "five_levels", "ten_levels", "hundred_points",
		"five_hundred_points", "find_me_master", "puzzle_master", "truth_seeker",
		"animal_expert", "completionist", "speed_demon", "persistent_player",
	}, ids(cat))

	// Mutating the returned slice does not affect the catalog.
	cat[0].ID = "changed"
	assert.Equal(t, "first_game", achievement.Catalog()[0].ID)
}

func TestEvaluateScenarios(t *testing.T) {
	tests := []struct {
		name    string
		stats   progress.Stats
		want    []string
		notWant []string
	}{
		{
			name:  "first level only",
			stats: progress.Stats{TotalScore: 0, GamesPlayed: 1, LevelsCompleted: 1, Games: map[progress.GameID]progress.GameProgress{}},
			want:  []string{"first_game"},
		},
		{
			name:    "hundred points",
			stats:   progress.Stats{TotalScore: 120, GamesPlayed: 1, LevelsCompleted: 1},
			want:    []string{"first_game", "hundred_points"},
			notWant: []string{"five_hundred_points"},
		},
		{
			name:  "nothing yet",
			stats: progress.Stats{},
			want:  []string{},
		},
		{
			name: "single high score",
			stats: progress.Aggregate(map[progress.GameID]progress.GameProgress{
				progress.FindMe: {CompletedLevels: []int{1}, HighScores: map[int]int{1: 50}},
			}),
			want: []string{"first_game", "speed_demon"},
		},
		{
			name: "animal expert needs both games",
			stats: progress.Aggregate(map[progress.GameID]progress.GameProgress{
				progress.WhoEats:  {CompletedLevels: []int{1, 2}},
				progress.WhoLives: {CompletedLevels: []int{1, 2}},
			}),
			want: []string{"first_game", "animal_expert"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := achievement.Evaluate(tt.stats).IDs()
			if tt.notWant == nil {
				assert.Equal(t, tt.want, got)
				return
			}
			assert.Subset(t, got, tt.want)
			for _, id := range tt.notWant {
				assert.NotContains(t, got, id)
			}
		})
	}
}

func TestEvaluateEverything(t *testing.T) {
	games := map[progress.GameID]progress.GameProgress{}
	for _, g := range progress.Games() {
		gp := progress.NewGameProgress()
		for l := 1; l <= g.TotalLevels; l++ {
			gp.CompletedLevels = append(gp.CompletedLevels, l)
			gp.HighScores[l] = 60
		}
		games[g.ID] = gp
	}
	got := achievement.Evaluate(progress.Aggregate(games))

	// Everything but persistent_player: there are only five games.
	assert.Equal(t, 11, got.Len())
	assert.False(t, got.Has("persistent_player"))
}

func TestEvaluatePure(t *testing.T) {
	s := progress.Stats{TotalScore: 600, GamesPlayed: 3, LevelsCompleted: 7}
	a := achievement.Evaluate(s)
	b := achievement.Evaluate(s)
	assert.True(t, a.Equal(b))
	assert.Equal(t, a.IDs(), b.IDs())
}

func TestCheckNewlyUnlockedInCatalogOrder(t *testing.T) {
	// first_game, five_levels and hundred_points hold.
	s := progress.Stats{TotalScore: 150, GamesPlayed: 2, LevelsCompleted: 5}

	res := achievement.Check(s, achievement.NewSet())
	require.Len(t, res.NewlyUnlocked, 3)
	assert.Equal(t, []string{"first_game", "five_levels", "hundred_points"}, ids(res.NewlyUnlocked))
	assert.Equal(t, []string{"first_game", "five_levels", "hundred_points"}, res.Updated.IDs())
}

func TestCheckIdempotent(t *testing.T) {
	s := progress.Stats{TotalScore: 150, GamesPlayed: 2, LevelsCompleted: 5}

	first := achievement.Check(s, achievement.NewSet())
	second := achievement.Check(s, first.Updated)

	assert.Empty(t, second.NewlyUnlocked)
	assert.True(t, first.Updated.Equal(second.Updated))
}

func TestCheckOnlyDiffs(t *testing.T) {
	prev := achievement.NewSet("first_game")
	res := achievement.Check(progress.Stats{TotalScore: 100, GamesPlayed: 1, LevelsCompleted: 1}, prev)

	assert.Equal(t, []string{"hundred_points"}, ids(res.NewlyUnlocked))
	assert.Equal(t, []string{"first_game", "hundred_points"}, res.Updated.IDs())
}

func TestCheckZeroPrevious(t *testing.T) {
	var prev achievement.Set
	res := achievement.Check(progress.Stats{GamesPlayed: 1, LevelsCompleted: 1}, prev)
	assert.Equal(t, []string{"first_game"}, ids(res.NewlyUnlocked))
}

func TestStatuses(t *testing.T) {
	st := achievement.Statuses(progress.Stats{GamesPlayed: 1, LevelsCompleted: 1})
	require.Len(t, st, len(achievement.Catalog()))
	assert.True(t, st[0].Unlocked)
	for _, s := range st[1:] {
		assert.False(t, s.Unlocked, s.ID)
	}
}

func TestSetJSON(t *testing.T) {
	s := achievement.NewSet("hundred_points", "legacy_badge", "first_game")

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `["first_game","hundred_points","legacy_badge"]`, string(data))

	var back achievement.Set
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, s.Equal(back))

	empty, err := json.Marshal(achievement.Set{})
	require.NoError(t, err)
	assert.Equal(t, "[]", string(empty))

	var mixed achievement.Set
	require.NoError(t, json.Unmarshal([]byte(`["first_game", 3, null, ""]`), &mixed))
	assert.Equal(t, []string{"first_game"}, mixed.IDs())

	var notList achievement.Set
	require.NoError(t, json.Unmarshal([]byte(`{"first_game": true}`), &notList))
	assert.Equal(t, 0, notList.Len())
}
