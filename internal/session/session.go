// Package session tracks the signed-in state of one browser connection and
// owns its live progress subscription.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/playperu/wildkids/internal/achievement"
	"github.com/playperu/wildkids/internal/progress"
	"github.com/playperu/wildkids/internal/store"
)

var (
	ErrAlreadySignedIn = errors.New("session already signed in")
	ErrClosed          = errors.New("session closed")
)

type State int

const (
	Anonymous State = iota
	AuthenticatedLoading
	AuthenticatedLive
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case AuthenticatedLoading:
		return "authenticated_loading"
	case AuthenticatedLive:
		return "authenticated_live"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Backend is the subset of *store.Store a session reads from.
type Backend interface {
	Profile(ctx context.Context, id store.Identity) (progress.Profile, error)
	Unlocked(ctx context.Context, id store.Identity) (achievement.Set, error)
	LoadAll(ctx context.Context, id store.Identity) (progress.Stats, error)
	Subscribe(ctx context.Context, id store.Identity, fn func(progress.Stats)) (*store.Subscription, error)
}

// Snapshot is what a session knows right after signing in.
type Snapshot struct {
	State    State             `json:"state"`
	UserID   string            `json:"userId"`
	Profile  *progress.Profile `json:"profile,omitempty"`
	Stats    progress.Stats    `json:"stats"`
	Unlocked achievement.Set   `json:"unlocked"`
}

// Session is single use: once signed out or closed it cannot sign in again.
type Session struct {
	backend  Backend
	logger   *slog.Logger
	onUpdate func(userID string, stats progress.Stats)

	mu     sync.Mutex
	state  State
	userID string
	sub    *store.Subscription
	closed bool
	done   chan struct{}

	// gen changes on every sign out; update callbacks of an older sign in
	// are dropped.
	gen atomic.Uint64
}

// New returns an anonymous session. onUpdate receives remote pushes while
// the session is signed in; it must not call back into the session.
func New(backend Backend, logger *slog.Logger, onUpdate func(userID string, stats progress.Stats)) *Session {
	return &Session{
		backend:  backend,
		logger:   logger,
		onUpdate: onUpdate,
		done:     make(chan struct{}),
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// Done is closed once the session is signed out or closed.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// SignIn loads the profile, the announced achievements and the stats of
// userID in parallel, then attaches the live subscription. When the
// subscription cannot be attached the session stays loading and the
// snapshot is still returned.
func (s *Session) SignIn(ctx context.Context, userID string) (Snapshot, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Snapshot{}, ErrClosed
	}
	if s.state != Anonymous {
		s.mu.Unlock()
		return Snapshot{}, ErrAlreadySignedIn
	}
	s.state = AuthenticatedLoading
	s.userID = userID
	gen := s.gen.Load()
	s.mu.Unlock()

	id := store.User(userID)
	snap := Snapshot{UserID: userID}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.backend.Profile(gctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("loading profile: %w", err)
		}
		snap.Profile = &p
		return nil
	})
	g.Go(func() error {
		set, err := s.backend.Unlocked(gctx, id)
		if err != nil {
			return fmt.Errorf("loading achievements: %w", err)
		}
		snap.Unlocked = set
		return nil
	})
	g.Go(func() error {
		stats, err := s.backend.LoadAll(gctx, id)
		if err != nil {
			return fmt.Errorf("loading stats: %w", err)
		}
		snap.Stats = stats
		return nil
	})
	if err := g.Wait(); err != nil {
		s.reset(gen)
		return Snapshot{}, err
	}

	sub, err := s.backend.Subscribe(ctx, id, func(stats progress.Stats) {
		if s.gen.Load() != gen {
			return
		}
		s.onUpdate(userID, stats)
	})
	if err != nil {
		s.logger.Warn("live subscription failed, session stays loading", "user_id", userID, "error", err)
	}

	s.mu.Lock()
	if s.closed || s.gen.Load() != gen {
		s.mu.Unlock()
		sub.Cancel()
		return Snapshot{}, ErrClosed
	}
	if sub != nil {
		s.sub = sub
		s.state = AuthenticatedLive
	}
	snap.State = s.state
	s.mu.Unlock()
	return snap, nil
}

// reset drops back to anonymous after a failed sign in.
func (s *Session) reset(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen.Load() == gen && !s.closed {
		s.state = Anonymous
		s.userID = ""
	}
}

// SignOut tears down the subscription, then drops the user. It is safe to
// call on a session that never signed in and safe to call repeatedly.
func (s *Session) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Cancel first: once it returns no update callback is running, so the
	// identity can be discarded.
	s.sub.Cancel()
	s.sub = nil
	s.gen.Add(1)
	s.state = Anonymous
	s.userID = ""
	if !s.closed {
		s.closed = true
		close(s.done)
	}
}

// Close is SignOut for the page unload path.
func (s *Session) Close() {
	s.SignOut()
}
