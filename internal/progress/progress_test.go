package progress_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playperu/wildkids/internal/progress"
)

var t0 = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func TestParseGameID(t *testing.T) {
	tests := []struct {
		in   string
		want progress.GameID
	}{
		{"findMe", progress.FindMe},
		{"find-me", progress.FindMe},
		{"who-eats", progress.WhoEats},
		{"puzzle", progress.Puzzle},
		{"whoLives", progress.WhoLives},
		{"truth-myth", progress.TruthMyth},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := progress.ParseGameID(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := progress.ParseGameID("chess")
	assert.ErrorIs(t, err, progress.ErrUnknownGame)
}

func TestMaxLevels(t *testing.T) {
	assert.Equal(t, 14, progress.MaxLevels())
}

func TestApplyDoesNotDoubleCount(t *testing.T) {
	gp := progress.NewGameProgress()
	c := progress.Completion{Game: progress.FindMe, Level: 1, Score: 6, Completed: true}

	gp.Apply(c, t0)
	gp.Apply(c, t0.Add(time.Minute))

	assert.Equal(t, []int{1}, gp.CompletedLevels)
	assert.Equal(t, 6, gp.HighScores[1])
	require.NotNil(t, gp.LastPlayed)
	assert.Equal(t, t0.Add(time.Minute), *gp.LastPlayed)
}

func TestApplyHighScoreMonotonic(t *testing.T) {
	gp := progress.NewGameProgress()
	scores := []int{4, 10, 2, 10, 8, 12, 0}
	best := 0
	for i, s := range scores {
		gp.Apply(progress.Completion{Game: progress.TruthMyth, Level: 1, Score: s, Completed: true}, t0)
		best = max(best, s)
		assert.Equal(t, best, gp.HighScores[1], "after save %d", i)
	}
}

func TestApplyIncompleteKeepsLevelOpen(t *testing.T) {
	gp := progress.NewGameProgress()
	gp.Apply(progress.Completion{Game: progress.Puzzle, Level: 3, Score: 0, Completed: false}, t0)

	assert.Empty(t, gp.CompletedLevels)
	assert.Equal(t, 0, gp.HighScores[3])
	assert.NotNil(t, gp.LastPlayed)
}

func TestCompletionValidate(t *testing.T) {
	tests := []struct {
		name    string
		c       progress.Completion
		wantErr bool
	}{
		{"ok", progress.Completion{Game: progress.Puzzle, Level: 6, Score: 0}, false},
		{"unknown game", progress.Completion{Game: "chess", Level: 1}, true},
		{"level zero", progress.Completion{Game: progress.FindMe, Level: 0}, true},
		{"level past end", progress.Completion{Game: progress.FindMe, Level: 3}, true},
		{"negative score", progress.Completion{Game: progress.FindMe, Level: 1, Score: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.c.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, progress.ErrInvalidCompletion)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAggregate(t *testing.T) {
	games := map[progress.GameID]progress.GameProgress{}
	record := func(c progress.Completion) {
		gp, ok := games[c.Game]
		if !ok {
			gp = progress.NewGameProgress()
		}
		gp.Apply(c, t0)
		games[c.Game] = gp
	}

	record(progress.Completion{Game: progress.FindMe, Level: 1, Score: 10, Completed: true})
	record(progress.Completion{Game: progress.WhoEats, Level: 1, Score: 0, Completed: true})
	record(progress.Completion{Game: progress.FindMe, Level: 1, Score: 8, Completed: true})
	record(progress.Completion{Game: progress.Puzzle, Level: 1, Score: 0, Completed: false})

	s := progress.Aggregate(games)
	assert.Equal(t, 2, s.GamesPlayed)
	assert.Equal(t, 2, s.LevelsCompleted)
	assert.Equal(t, 10, s.TotalScore)
	assert.Len(t, s.Games, 3)
}

func TestAggregateToleratesMalformedRecords(t *testing.T) {
	var games map[progress.GameID]progress.GameProgress
	require.NoError(t, json.Unmarshal([]byte(`{
		"findMe": {"lastPlayed": null},
		"puzzle": {"completedLevels": [1, 1, 2], "highScores": null},
		"chess": {"completedLevels": [1]}
	}`), &games))

	s := progress.Aggregate(games)
	assert.Equal(t, 1, s.GamesPlayed)
	assert.Equal(t, 2, s.LevelsCompleted)
	assert.Equal(t, 0, s.TotalScore)
	assert.NotNil(t, s.Games[progress.FindMe].HighScores)
	assert.NotContains(t, s.Games, progress.GameID("chess"))
}

func TestDecodeWrongTypedFields(t *testing.T) {
	var rec progress.Record
	require.NoError(t, json.Unmarshal([]byte(`{
		"profile": {"displayName": "Маша", "avatar": "🦊"},
		"progress": {"totalScore": 999, "games": {
			"findMe":    {"completedLevels": [1], "highScores": [null, 10], "lastPlayed": 1740823200000},
			"puzzle":    {"completedLevels": {}, "highScores": {"1": 4, "x": 9, "2": "a"}},
			"whoLives":  {"completedLevels": [2, "3", null], "highScores": 7, "lastPlayed": "yesterday"},
			"truthMyth": "broken"
		}},
		"unlockedAchievements": ["first_game", 5, ""]
	}`), &rec))

	findMe := rec.Progress.Games[progress.FindMe]
	assert.Equal(t, []int{1}, findMe.CompletedLevels)
	assert.Equal(t, map[int]int{1: 10}, findMe.HighScores)
	require.NotNil(t, findMe.LastPlayed)
	assert.True(t, t0.Equal(*findMe.LastPlayed), "lastPlayed = %v", *findMe.LastPlayed)

	puzzle := rec.Progress.Games[progress.Puzzle]
	assert.Empty(t, puzzle.CompletedLevels)
	assert.Equal(t, map[int]int{1: 4}, puzzle.HighScores)

	whoLives := rec.Progress.Games[progress.WhoLives]
	assert.Equal(t, []int{2}, whoLives.CompletedLevels)
	assert.Empty(t, whoLives.HighScores)
	assert.Nil(t, whoLives.LastPlayed)

	assert.Empty(t, rec.Progress.Games[progress.TruthMyth].CompletedLevels)

	// Totals come from the games, never from the stored numbers.
	assert.Equal(t, 14, rec.Progress.TotalScore)
	assert.Equal(t, 2, rec.Progress.LevelsCompleted)
	assert.Equal(t, 2, rec.Progress.GamesPlayed)

	assert.Equal(t, []string{"first_game"}, rec.UnlockedAchievements)
	require.NotNil(t, rec.Profile)
	assert.Equal(t, "Маша", rec.Profile.DisplayName)
}

func TestDecodeNonObjectRecord(t *testing.T) {
	var rec progress.Record
	require.NoError(t, json.Unmarshal([]byte(`[1, 2]`), &rec))
	assert.Nil(t, rec.Profile)
	assert.NotNil(t, rec.UnlockedAchievements)
	assert.Equal(t, 0, rec.Progress.LevelsCompleted)
	assert.NotNil(t, rec.Progress.Games)
}

func TestMerge(t *testing.T) {
	later := t0.Add(time.Hour)
	a := progress.GameProgress{CompletedLevels: []int{1}, HighScores: map[int]int{1: 6, 2: 4}, LastPlayed: &t0}
	b := progress.GameProgress{CompletedLevels: []int{2, 1}, HighScores: map[int]int{1: 2, 2: 10}, LastPlayed: &later}

	for _, got := range []progress.GameProgress{a.Merge(b), b.Merge(a)} {
		assert.ElementsMatch(t, []int{1, 2}, got.CompletedLevels)
		assert.Equal(t, map[int]int{1: 6, 2: 10}, got.HighScores)
		require.NotNil(t, got.LastPlayed)
		assert.Equal(t, later, *got.LastPlayed)
	}

	// The inputs are untouched.
	assert.Equal(t, []int{1}, a.CompletedLevels)
	assert.Equal(t, 4, a.HighScores[2])
}

func TestRecordJSONShape(t *testing.T) {
	rec := progress.NewRecord()
	gp := progress.NewGameProgress()
	gp.Apply(progress.Completion{Game: progress.FindMe, Level: 2, Score: 8, Completed: true}, t0)
	rec.Progress = progress.Aggregate(map[progress.GameID]progress.GameProgress{progress.FindMe: gp})

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, []any{}, raw["unlockedAchievements"])

	p := raw["progress"].(map[string]any)
	assert.EqualValues(t, 8, p["totalScore"])
	assert.EqualValues(t, 1, p["gamesPlayed"])
	assert.EqualValues(t, 1, p["levelsCompleted"])

	findMe := p["games"].(map[string]any)["findMe"].(map[string]any)
	assert.Equal(t, []any{float64(2)}, findMe["completedLevels"])
	assert.Equal(t, map[string]any{"2": float64(8)}, findMe["highScores"])
	assert.Equal(t, "2025-03-01T10:00:00Z", findMe["lastPlayed"])
}

func TestCards(t *testing.T) {
	s := progress.Aggregate(map[progress.GameID]progress.GameProgress{
		progress.Puzzle: {CompletedLevels: []int{1, 2, 3}, HighScores: map[int]int{1: 0, 2: 0, 3: 0}},
		progress.FindMe: {CompletedLevels: []int{1}, HighScores: map[int]int{1: 10}},
	})

	cards := progress.Cards(s)
	require.Len(t, cards, 5)

	assert.Equal(t, progress.FindMe, cards[0].Game.ID)
	assert.Equal(t, 50, cards[0].Percent)
	assert.Equal(t, 10, cards[0].Score)

	assert.Equal(t, progress.Puzzle, cards[2].Game.ID)
	assert.Equal(t, 3, cards[2].Completed)
	assert.Equal(t, 6, cards[2].Total)
	assert.Equal(t, 50, cards[2].Percent)

	assert.Equal(t, 0, cards[4].Completed)
}
