// Package store persists game progress. Guests use the on-device store only;
// signed-in users use the remote store as the source of truth, with the
// on-device store as a cache and fallback.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/playperu/wildkids/internal/achievement"
	"github.com/playperu/wildkids/internal/progress"
)

var (
	// ErrRemoteUnavailable reports that a write went to the on-device store
	// only because the remote store could not be reached.
	ErrRemoteUnavailable = errors.New("remote store unavailable")
	// ErrGuest is returned for operations that need a signed-in user.
	ErrGuest = errors.New("not signed in")
)

type Store struct {
	local   *Local
	remote  Remote
	logger  *slog.Logger
	timeout time.Duration
	now     func() time.Time
}

// New returns a Store. remote may be nil, in which case every signed-in
// operation falls back to the on-device store. timeout bounds each remote
// call; zero means no bound beyond ctx.
func New(local *Local, remote Remote, logger *slog.Logger, timeout time.Duration) *Store {
	return &Store{
		local:   local,
		remote:  remote,
		logger:  logger,
		timeout: timeout,
		now:     time.Now,
	}
}

func (s *Store) remoteCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

var errNoRemote = errors.New("no remote store configured")

func (s *Store) update(ctx context.Context, userID string, fn func(*progress.Record) error) (progress.Record, error) {
	if s.remote == nil {
		return progress.Record{}, errNoRemote
	}
	rctx, cancel := s.remoteCtx(ctx)
	defer cancel()
	return s.remote.Update(rctx, userID, fn)
}

func (s *Store) load(ctx context.Context, userID string) (progress.Record, error) {
	if s.remote == nil {
		return progress.Record{}, errNoRemote
	}
	rctx, cancel := s.remoteCtx(ctx)
	defer cancel()
	rec, err := s.remote.Load(rctx, userID)
	if errors.Is(err, ErrNotFound) {
		return progress.NewRecord(), nil
	}
	return rec, err
}

// mirror copies a remote record into the on-device cache. Failures are
// logged only: the remote write already succeeded.
func (s *Store) mirror(ctx context.Context, userID string, rec progress.Record) {
	if err := s.local.Mirror(ctx, userID, rec); err != nil {
		s.logger.Warn("mirroring record to local store failed", "user_id", userID, "error", err)
	}
}

// Save records a completion. For signed-in users any progress or announced
// achievement that only exists in the on-device cache (saved while offline)
// is merged into the remote record in the same write. When the remote store is unreachable the
// completion is saved locally and ErrRemoteUnavailable is returned together
// with the locally saved record.
func (s *Store) Save(ctx context.Context, id Identity, c progress.Completion) (progress.GameProgress, error) {
	if err := c.Validate(); err != nil {
		return progress.GameProgress{}, err
	}
	now := s.now()

	if id.IsGuest() {
		return s.local.Apply(ctx, id.Owner(), c, now)
	}

	cached, err := s.local.All(ctx, id.Owner())
	if err != nil {
		s.logger.Warn("reading local cache before save failed", "user_id", id.UserID, "error", err)
		cached = nil
	}
	announced, err := s.local.Unlocked(ctx, id.Owner())
	if err != nil {
		announced = achievement.NewSet()
	}

	rec, err := s.update(ctx, id.UserID, func(r *progress.Record) error {
		for game, gp := range cached {
			r.Progress = r.Progress.With(game, r.Progress.Game(game).Merge(gp))
		}
		if announced.Len() > 0 {
			r.UnlockedAchievements = union(achievement.NewSet(r.UnlockedAchievements...), announced).IDs()
		}
		gp := r.Progress.Game(c.Game)
		gp.Apply(c, now)
		r.Progress = r.Progress.With(c.Game, gp)
		return nil
	})
	if err != nil {
		s.logger.Warn("remote save failed, saving locally",
			"user_id", id.UserID, "game", c.Game, "level", c.Level, "error", err)
		gp, lerr := s.local.Apply(ctx, id.Owner(), c, now)
		if lerr != nil {
			return progress.GameProgress{}, fmt.Errorf("saving locally after remote failure: %w", lerr)
		}
		return gp, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}

	s.mirror(ctx, id.UserID, rec)
	return rec.Progress.Game(c.Game), nil
}

// Load returns the record of one game. Remote read failures degrade to the
// on-device cache.
func (s *Store) Load(ctx context.Context, id Identity, game progress.GameID) (progress.GameProgress, error) {
	if !game.Valid() {
		return progress.GameProgress{}, fmt.Errorf("%w: %q", progress.ErrUnknownGame, game)
	}
	if !id.IsGuest() {
		rec, err := s.load(ctx, id.UserID)
		if err == nil {
			return rec.Progress.Game(game), nil
		}
		s.logger.Warn("remote load failed, using local cache", "user_id", id.UserID, "game", game, "error", err)
	}
	return s.local.Get(ctx, id.Owner(), game)
}

// LoadAll returns the aggregate stats of id. Remote read failures degrade to
// the on-device cache.
func (s *Store) LoadAll(ctx context.Context, id Identity) (progress.Stats, error) {
	if !id.IsGuest() {
		rec, err := s.load(ctx, id.UserID)
		if err == nil {
			return rec.Progress, nil
		}
		s.logger.Warn("remote load failed, using local cache", "user_id", id.UserID, "error", err)
	}
	games, err := s.local.All(ctx, id.Owner())
	if err != nil {
		return progress.Stats{}, err
	}
	return progress.Aggregate(games), nil
}

// Unlocked returns the set of achievements already announced to id.
func (s *Store) Unlocked(ctx context.Context, id Identity) (achievement.Set, error) {
	if !id.IsGuest() {
		rec, err := s.load(ctx, id.UserID)
		if err == nil {
			return achievement.NewSet(rec.UnlockedAchievements...), nil
		}
		s.logger.Warn("remote achievements load failed, using local cache", "user_id", id.UserID, "error", err)
	}
	return s.local.Unlocked(ctx, id.Owner())
}

// SaveUnlocked adds set to the announced achievements. Stored ids are never
// removed, so a writer holding a stale set cannot make an achievement be
// announced twice. Like Save it falls back to the on-device store and
// reports ErrRemoteUnavailable.
func (s *Store) SaveUnlocked(ctx context.Context, id Identity, set achievement.Set) error {
	if !id.IsGuest() {
		rec, err := s.update(ctx, id.UserID, func(r *progress.Record) error {
			r.UnlockedAchievements = union(achievement.NewSet(r.UnlockedAchievements...), set).IDs()
			return nil
		})
		if err == nil {
			s.mirror(ctx, id.UserID, rec)
			return nil
		}
		s.logger.Warn("remote achievements save failed, saving locally", "user_id", id.UserID, "error", err)
		if lerr := s.addLocalUnlocked(ctx, id.Owner(), set); lerr != nil {
			return lerr
		}
		return fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	return s.addLocalUnlocked(ctx, id.Owner(), set)
}

func (s *Store) addLocalUnlocked(ctx context.Context, owner string, set achievement.Set) error {
	stored, err := s.local.Unlocked(ctx, owner)
	if err != nil {
		return err
	}
	return s.local.PutUnlocked(ctx, owner, union(stored, set))
}

func union(a, b achievement.Set) achievement.Set {
	out := achievement.NewSet(a.IDs()...)
	for _, id := range b.IDs() {
		out.Add(id)
	}
	return out
}

// Profile returns the profile of a signed-in user. ErrNotFound means the
// user has no profile yet.
func (s *Store) Profile(ctx context.Context, id Identity) (progress.Profile, error) {
	if id.IsGuest() {
		return progress.Profile{}, ErrGuest
	}
	rec, err := s.load(ctx, id.UserID)
	if err == nil {
		if rec.Profile == nil {
			return progress.Profile{}, ErrNotFound
		}
		return *rec.Profile, nil
	}
	s.logger.Warn("remote profile load failed, using local cache", "user_id", id.UserID, "error", err)

	p, ok, lerr := s.local.Profile(ctx, id.Owner())
	if lerr != nil {
		return progress.Profile{}, lerr
	}
	if !ok {
		return progress.Profile{}, ErrNotFound
	}
	return p, nil
}

// CreateProfile stores the profile of a new user and starts it with empty
// progress.
func (s *Store) CreateProfile(ctx context.Context, userID string, p progress.Profile) error {
	rec, err := s.update(ctx, userID, func(r *progress.Record) error {
		*r = progress.NewRecord()
		r.Profile = &p
		return nil
	})
	if err != nil {
		return fmt.Errorf("creating profile: %w", err)
	}
	s.mirror(ctx, userID, rec)
	return nil
}

// UpdateProfile applies fn to the stored profile.
func (s *Store) UpdateProfile(ctx context.Context, id Identity, fn func(*progress.Profile)) (progress.Profile, error) {
	if id.IsGuest() {
		return progress.Profile{}, ErrGuest
	}
	rec, err := s.update(ctx, id.UserID, func(r *progress.Record) error {
		if r.Profile == nil {
			return ErrNotFound
		}
		fn(r.Profile)
		return nil
	})
	if errors.Is(err, ErrNotFound) {
		return progress.Profile{}, ErrNotFound
	}
	if err != nil {
		return progress.Profile{}, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	s.mirror(ctx, id.UserID, rec)
	return *rec.Profile, nil
}

// Subscribe registers fn for live stats of a signed-in user.
func (s *Store) Subscribe(ctx context.Context, id Identity, fn func(progress.Stats)) (*Subscription, error) {
	if id.IsGuest() {
		return nil, ErrGuest
	}
	if s.remote == nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, errNoRemote)
	}
	sub, err := s.remote.Subscribe(ctx, id.UserID, fn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	return sub, nil
}
