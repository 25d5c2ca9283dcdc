// Package tracker records level completions and drives the achievement flow:
// persist the completion, recompute stats, diff against the announced set,
// persist the new set and announce what was newly unlocked.
package tracker

import (
	"context"
	"errors"
	"log/slog"

	"github.com/playperu/wildkids/internal/achievement"
	"github.com/playperu/wildkids/internal/progress"
	"github.com/playperu/wildkids/internal/store"
)

// Store is the subset of *store.Store the tracker needs.
type Store interface {
	Save(ctx context.Context, id store.Identity, c progress.Completion) (progress.GameProgress, error)
	LoadAll(ctx context.Context, id store.Identity) (progress.Stats, error)
	Unlocked(ctx context.Context, id store.Identity) (achievement.Set, error)
	SaveUnlocked(ctx context.Context, id store.Identity, set achievement.Set) error
	Profile(ctx context.Context, id store.Identity) (progress.Profile, error)
}

// Announcer presents newly unlocked achievements to whoever watches topic.
type Announcer interface {
	Announce(topic string, defs []achievement.Definition)
}

// Outcome is the result of one recorded completion.
type Outcome struct {
	Game          progress.GameProgress    `json:"game"`
	Stats         progress.Stats           `json:"stats"`
	NewlyUnlocked []achievement.Definition `json:"newlyUnlocked"`
	// Synced is false when the completion only reached the on-device store.
	Synced bool `json:"synced"`
}

type Tracker struct {
	store     Store
	announcer Announcer
	logger    *slog.Logger
}

func New(st Store, announcer Announcer, logger *slog.Logger) *Tracker {
	return &Tracker{store: st, announcer: announcer, logger: logger}
}

// RecordCompletion saves c for id and runs the achievement check. Only an
// invalid completion or a failure of the on-device store is returned as an
// error; an unreachable remote store is reported through Outcome.Synced.
func (t *Tracker) RecordCompletion(ctx context.Context, id store.Identity, c progress.Completion) (Outcome, error) {
	if err := c.Validate(); err != nil {
		return Outcome{}, err
	}

	out := Outcome{Synced: true, NewlyUnlocked: []achievement.Definition{}}
	gp, err := t.store.Save(ctx, id, c)
	switch {
	case errors.Is(err, store.ErrRemoteUnavailable):
		out.Synced = false
	case err != nil:
		return Outcome{}, err
	}
	out.Game = gp
	out.Stats = t.Stats(ctx, id)

	// The announced set must be hydrated before evaluating, otherwise every
	// unlocked achievement would be announced again.
	prev, err := t.store.Unlocked(ctx, id)
	if err != nil {
		t.logger.Error("loading unlocked achievements failed, skipping check",
			"identity", id.String(), "error", err)
		return out, nil
	}

	res := achievement.Check(out.Stats, prev)
	if !res.Updated.Equal(prev) {
		if err := t.store.SaveUnlocked(ctx, id, res.Updated); err != nil && !errors.Is(err, store.ErrRemoteUnavailable) {
			t.logger.Error("saving unlocked achievements failed", "identity", id.String(), "error", err)
		}
	}
	if len(res.NewlyUnlocked) > 0 {
		out.NewlyUnlocked = res.NewlyUnlocked
		t.announcer.Announce(id.Topic(), res.NewlyUnlocked)
	}
	return out, nil
}

// Stats returns the aggregate stats of id, or empty stats when nothing can
// be read.
func (t *Tracker) Stats(ctx context.Context, id store.Identity) progress.Stats {
	stats, err := t.store.LoadAll(ctx, id)
	if err != nil {
		t.logger.Error("loading stats failed", "identity", id.String(), "error", err)
		return progress.Aggregate(nil)
	}
	return stats
}

// Achievements returns every achievement with its unlocked flag.
func (t *Tracker) Achievements(ctx context.Context, id store.Identity) []achievement.Status {
	return achievement.Statuses(t.Stats(ctx, id))
}

// ProfileView is everything the profile page renders.
type ProfileView struct {
	Profile      *progress.Profile    `json:"profile,omitempty"`
	Stats        progress.Stats       `json:"stats"`
	Cards        []progress.Card      `json:"cards"`
	Achievements []achievement.Status `json:"achievements"`
	Unlocked     int                  `json:"unlocked"`
	Total        int                  `json:"total"`
}

// Profile builds the profile page of id. Guests get stats without a profile.
func (t *Tracker) Profile(ctx context.Context, id store.Identity) (ProfileView, error) {
	var view ProfileView
	if !id.IsGuest() {
		p, err := t.store.Profile(ctx, id)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return ProfileView{}, err
		}
		if err == nil {
			view.Profile = &p
		}
	}

	view.Stats = t.Stats(ctx, id)
	view.Cards = progress.Cards(view.Stats)
	view.Achievements = achievement.Statuses(view.Stats)
	view.Total = len(view.Achievements)
	for _, s := range view.Achievements {
		if s.Unlocked {
			view.Unlocked++
		}
	}
	return view, nil
}
