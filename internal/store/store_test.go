package store_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playperu/wildkids/internal/achievement"
	"github.com/playperu/wildkids/internal/database"
	"github.com/playperu/wildkids/internal/migrations"
	"github.com/playperu/wildkids/internal/progress"
	"github.com/playperu/wildkids/internal/store"
	"github.com/playperu/wildkids/internal/store/storetest"
)

func newLocal(t *testing.T) *store.Local {
	t.Helper()
	db, err := database.Open(context.Background(), database.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migrations.Run(db))
	return store.NewLocal(db)
}

func deadRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         "localhost:1",
		DialTimeout:  10 * time.Millisecond,
		ReadTimeout:  10 * time.Millisecond,
		WriteTimeout: 10 * time.Millisecond,
		MaxRetries:   0,
	})
}

func done(game progress.GameID, level, score int) progress.Completion {
	return progress.Completion{Game: game, Level: level, Score: score, Completed: true}
}

func TestLocalRoundTrip(t *testing.T) {
	ctx := context.Background()
	local := newLocal(t)

	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	want := progress.GameProgress{
		CompletedLevels: []int{2, 1},
		HighScores:      map[int]int{1: 10, 2: 8, 3: 0},
		LastPlayed:      &now,
	}
	require.NoError(t, local.Put(ctx, "", progress.FindMe, want))

	got, err := local.Get(ctx, "", progress.FindMe)
	require.NoError(t, err)
	assert.True(t, want.Equal(got), "got %+v", got)
	assert.ElementsMatch(t, want.CompletedLevels, got.CompletedLevels)
	require.NotNil(t, got.LastPlayed)
	assert.True(t, now.Equal(*got.LastPlayed))

	// Rows are scoped by owner.
	other, err := local.Get(ctx, "user-1", progress.FindMe)
	require.NoError(t, err)
	assert.Empty(t, other.CompletedLevels)
	assert.NotNil(t, other.HighScores)

	all, err := local.All(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestLocalUnlockedAndProfile(t *testing.T) {
	ctx := context.Background()
	local := newLocal(t)

	empty, err := local.Unlocked(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())

	require.NoError(t, local.PutUnlocked(ctx, "", achievement.NewSet("hundred_points", "first_game")))
	got, err := local.Unlocked(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"first_game", "hundred_points"}, got.IDs())

	_, ok, err := local.Profile(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)

	p := progress.Profile{DisplayName: "Маша", Email: "masha@example.com", Avatar: "🦊"}
	require.NoError(t, local.PutProfile(ctx, "u1", p))
	back, ok, err := local.Profile(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, p.DisplayName, back.DisplayName)
}

func TestGuestSave(t *testing.T) {
	ctx := context.Background()
	s := store.New(newLocal(t), nil, slog.Default(), 0)
	guest := store.Guest()

	for _, c := range []progress.Completion{
		done(progress.FindMe, 1, 6),
		done(progress.FindMe, 1, 10),
		done(progress.FindMe, 1, 4),
		done(progress.WhoEats, 1, 0),
	} {
		_, err := s.Save(ctx, guest, c)
		require.NoError(t, err)
	}

	stats, err := s.LoadAll(ctx, guest)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.GamesPlayed)
	assert.Equal(t, 2, stats.LevelsCompleted)
	assert.Equal(t, 10, stats.TotalScore)

	gp, err := s.Load(ctx, guest, progress.FindMe)
	require.NoError(t, err)
	assert.Equal(t, 10, gp.HighScores[1])

	_, err = s.Save(ctx, guest, progress.Completion{Game: progress.FindMe, Level: 9})
	assert.ErrorIs(t, err, progress.ErrInvalidCompletion)

	_, err = s.Subscribe(ctx, guest, func(progress.Stats) {})
	assert.ErrorIs(t, err, store.ErrGuest)
	_, err = s.Profile(ctx, guest)
	assert.ErrorIs(t, err, store.ErrGuest)
}

func TestSignedInSaveMirrorsToLocal(t *testing.T) {
	ctx := context.Background()
	local := newLocal(t)
	remote := storetest.NewRemote()
	s := store.New(local, remote, slog.Default(), time.Second)
	user := store.User("u1")

	_, err := s.Save(ctx, user, done(progress.Puzzle, 1, 0))
	require.NoError(t, err)

	rec, err := remote.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []int{1}, rec.Progress.Games[progress.Puzzle].CompletedLevels)
	assert.Equal(t, 1, rec.Progress.GamesPlayed)

	cached, err := local.Get(ctx, "u1", progress.Puzzle)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, cached.CompletedLevels)

	// The guest's rows are untouched.
	guest, err := local.All(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, guest)
}

func TestRemoteFailureFallsBackToLocal(t *testing.T) {
	ctx := context.Background()
	remote := storetest.NewRemote()
	s := store.New(newLocal(t), remote, slog.Default(), time.Second)
	user := store.User("u1")

	remote.SetErr(errors.New("connection refused"))

	gp, err := s.Save(ctx, user, done(progress.TruthMyth, 1, 10))
	assert.ErrorIs(t, err, store.ErrRemoteUnavailable)
	assert.Equal(t, []int{1}, gp.CompletedLevels)

	stats, err := s.LoadAll(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.LevelsCompleted)
	assert.Equal(t, 10, stats.TotalScore)

	err = s.SaveUnlocked(ctx, user, achievement.NewSet("first_game"))
	assert.ErrorIs(t, err, store.ErrRemoteUnavailable)
	set, err := s.Unlocked(ctx, user)
	require.NoError(t, err)
	assert.True(t, set.Has("first_game"))
}

func TestOfflineProgressMergedOnNextSave(t *testing.T) {
	ctx := context.Background()
	remote := storetest.NewRemote()
	s := store.New(newLocal(t), remote, slog.Default(), time.Second)
	user := store.User("u1")

	remote.SetErr(errors.New("offline"))
	_, err := s.Save(ctx, user, done(progress.FindMe, 1, 10))
	require.ErrorIs(t, err, store.ErrRemoteUnavailable)

	remote.SetErr(nil)
	_, err = s.Save(ctx, user, done(progress.Puzzle, 2, 0))
	require.NoError(t, err)

	rec, err := remote.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Progress.GamesPlayed)
	assert.Equal(t, 10, rec.Progress.TotalScore)
}

func TestDeadRedisFallsBackToLocal(t *testing.T) {
	ctx := context.Background()
	rdb := deadRedis()
	defer rdb.Close()

	s := store.New(newLocal(t), store.NewRedisRemote(rdb, "test", slog.Default()), slog.Default(), time.Second)
	user := store.User("u1")

	_, err := s.Save(ctx, user, done(progress.WhoLives, 2, 0))
	assert.ErrorIs(t, err, store.ErrRemoteUnavailable)

	stats, err := s.LoadAll(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.GamesPlayed)

	gp, err := s.Load(ctx, user, progress.WhoLives)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, gp.CompletedLevels)

	_, err = s.Subscribe(ctx, user, func(progress.Stats) {})
	assert.ErrorIs(t, err, store.ErrRemoteUnavailable)
}

func TestProfiles(t *testing.T) {
	ctx := context.Background()
	remote := storetest.NewRemote()
	s := store.New(newLocal(t), remote, slog.Default(), time.Second)
	user := store.User("u1")

	_, err := s.Profile(ctx, user)
	assert.ErrorIs(t, err, store.ErrNotFound)

	created := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.CreateProfile(ctx, "u1", progress.Profile{
		DisplayName: "Петя", Email: "petya@example.com", CreatedAt: created, Avatar: "🐻",
	}))

	p, err := s.UpdateProfile(ctx, user, func(p *progress.Profile) { p.Avatar = "🦉" })
	require.NoError(t, err)
	assert.Equal(t, "🦉", p.Avatar)
	assert.Equal(t, "Петя", p.DisplayName)

	// Remote down: the cached copy is served.
	remote.SetErr(errors.New("down"))
	p, err = s.Profile(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "🦉", p.Avatar)

	_, err = s.UpdateProfile(ctx, user, func(p *progress.Profile) {})
	assert.ErrorIs(t, err, store.ErrRemoteUnavailable)

	remote.SetErr(nil)
	_, err = s.UpdateProfile(ctx, store.User("nobody"), func(p *progress.Profile) {})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSubscribeDeliversUpdates(t *testing.T) {
	ctx := context.Background()
	remote := storetest.NewRemote()
	s := store.New(newLocal(t), remote, slog.Default(), time.Second)
	user := store.User("u1")

	var (
		mu  sync.Mutex
		got []progress.Stats
	)
	sub, err := s.Subscribe(ctx, user, func(st progress.Stats) {
		mu.Lock()
		got = append(got, st)
		mu.Unlock()
	})
	require.NoError(t, err)
	assert.True(t, sub.Active())

	_, err = s.Save(ctx, user, done(progress.FindMe, 1, 8))
	require.NoError(t, err)

	sub.Cancel()
	sub.Cancel()
	assert.False(t, sub.Active())
	assert.Equal(t, 0, remote.Listeners("u1"))

	_, err = s.Save(ctx, user, done(progress.FindMe, 2, 8))
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 2)
	assert.Equal(t, 0, got[0].LevelsCompleted)
	assert.Equal(t, 1, got[1].LevelsCompleted)
}

func TestSubscriptionCancel(t *testing.T) {
	var nilSub *store.Subscription
	nilSub.Cancel()
	assert.False(t, nilSub.Active())
	assert.False(t, nilSub.Deliver(func() { t.Fatal("delivered on nil subscription") }))

	stops := 0
	sub := store.NewSubscription(func() { stops++ })
	assert.True(t, sub.Deliver(func() {}))

	sub.Cancel()
	sub.Cancel()
	assert.Equal(t, 1, stops)
	assert.False(t, sub.Deliver(func() { t.Fatal("delivered after cancel") }))
}

func TestIdentity(t *testing.T) {
	assert.True(t, store.Guest().IsGuest())
	assert.Equal(t, "guest", store.Guest().Topic())
	assert.Equal(t, "", store.Guest().Owner())

	u := store.User("abc")
	assert.False(t, u.IsGuest())
	assert.Equal(t, "user:abc", u.Topic())
	assert.Equal(t, "abc", u.Owner())
}
