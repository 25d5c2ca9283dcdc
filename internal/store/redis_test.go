package store_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playperu/wildkids/internal/achievement"
	"github.com/playperu/wildkids/internal/progress"
	"github.com/playperu/wildkids/internal/store"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *store.RedisRemote) {
	t.Helper()
	m := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return m, store.NewRedisRemote(rdb, "test", slog.Default())
}

func TestRedisUpdateCreatesAndLoads(t *testing.T) {
	ctx := context.Background()
	m, remote := newRedis(t)

	_, err := remote.Load(ctx, "u1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	rec, err := remote.Update(ctx, "u1", func(r *progress.Record) error {
		gp := r.Progress.Game(progress.FindMe)
		gp.Apply(done(progress.FindMe, 1, 10), time.Now())
		r.Progress = r.Progress.With(progress.FindMe, gp)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 10, rec.Progress.TotalScore)

	raw, err := m.Get("test:user:u1")
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	assert.Contains(t, doc, "progress")

	back, err := remote.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []int{1}, back.Progress.Games[progress.FindMe].CompletedLevels)
}

func TestRedisConcurrentUpdatesMerge(t *testing.T) {
	ctx := context.Background()
	_, remote := newRedis(t)

	var wg sync.WaitGroup
	errs := make(chan error, 6)
	for level := 1; level <= 6; level++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := remote.Update(ctx, "u1", func(r *progress.Record) error {
				gp := r.Progress.Game(progress.Puzzle)
				gp.Apply(done(progress.Puzzle, level, level*10), time.Now())
				r.Progress = r.Progress.With(progress.Puzzle, gp)
				return nil
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	rec, err := remote.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 6, rec.Progress.LevelsCompleted)
	assert.Equal(t, 210, rec.Progress.TotalScore)
	assert.ElementsMatch(t, []int{1, 2, 3, 4, 5, 6}, rec.Progress.Games[progress.Puzzle].CompletedLevels)
}

func TestRedisWrongTypedRecordStillSyncs(t *testing.T) {
	ctx := context.Background()
	m, remote := newRedis(t)
	require.NoError(t, m.Set("test:user:u1", `{
		"progress": {"games": {
			"findMe": {"completedLevels": [1], "highScores": [null, 10], "lastPlayed": null},
			"puzzle": {"completedLevels": {}, "highScores": "none"}
		}},
		"unlockedAchievements": {}
	}`))

	s := store.New(newLocal(t), remote, slog.Default(), time.Second)
	user := store.User("u1")

	stats, err := s.LoadAll(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.LevelsCompleted)
	assert.Equal(t, 10, stats.TotalScore)

	_, err = s.Save(ctx, user, done(progress.FindMe, 2, 5))
	require.NoError(t, err)

	rec, err := remote.Load(ctx, "u1")
	require.NoError(t, err)
	findMe := rec.Progress.Games[progress.FindMe]
	assert.ElementsMatch(t, []int{1, 2}, findMe.CompletedLevels)
	assert.Equal(t, map[int]int{1: 10, 2: 5}, findMe.HighScores)
	assert.Equal(t, []string{}, rec.UnlockedAchievements)
}

func TestRedisSaveUnlockedKeepsStoredIDs(t *testing.T) {
	ctx := context.Background()
	_, remote := newRedis(t)
	s := store.New(newLocal(t), remote, slog.Default(), time.Second)
	user := store.User("u1")

	require.NoError(t, s.SaveUnlocked(ctx, user, achievement.NewSet("first_game", "five_levels", "hundred_points")))
	// A second tab that loaded the set before hundred_points was stored.
	require.NoError(t, s.SaveUnlocked(ctx, user, achievement.NewSet("first_game", "five_levels")))

	set, err := s.Unlocked(ctx, user)
	require.NoError(t, err)
	assert.True(t, set.Equal(achievement.NewSet("first_game", "five_levels", "hundred_points")), "got %v", set.IDs())
}

func TestRedisSubscribe(t *testing.T) {
	ctx := context.Background()
	_, remote := newRedis(t)

	updates := make(chan progress.Stats, 8)
	sub, err := remote.Subscribe(ctx, "u1", func(s progress.Stats) { updates <- s })
	require.NoError(t, err)
	assert.True(t, sub.Active())

	next := func() progress.Stats {
		t.Helper()
		select {
		case s := <-updates:
			return s
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for stats")
			return progress.Stats{}
		}
	}

	assert.Equal(t, 0, next().LevelsCompleted, "initial stats")

	save := func(level int) {
		t.Helper()
		_, err := remote.Update(ctx, "u1", func(r *progress.Record) error {
			gp := r.Progress.Game(progress.WhoEats)
			gp.Apply(done(progress.WhoEats, level, 0), time.Now())
			r.Progress = r.Progress.With(progress.WhoEats, gp)
			return nil
		})
		require.NoError(t, err)
	}

	save(1)
	pushed := next()
	assert.Equal(t, 1, pushed.LevelsCompleted)
	assert.Equal(t, 1, pushed.GamesPlayed)

	sub.Cancel()
	sub.Cancel()
	assert.False(t, sub.Active())

	save(2)
	select {
	case s := <-updates:
		t.Fatalf("callback after cancel: %+v", s)
	case <-time.After(100 * time.Millisecond):
	}
}
