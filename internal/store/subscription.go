package store

import "sync"

// Subscription is the handle of a live-update registration. A nil
// *Subscription is valid and inactive.
type Subscription struct {
	mu     sync.Mutex
	closed bool
	stop   func()
}

// NewSubscription returns an active handle. stop runs once, on the first
// Cancel.
func NewSubscription(stop func()) *Subscription {
	return &Subscription{stop: stop}
}

// Cancel tears the subscription down. It is safe to call on a nil handle and
// more than once. Once Cancel returns no further callback runs.
func (s *Subscription) Cancel() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.stop != nil {
		s.stop()
	}
}

// Active reports whether Cancel has not been called yet.
func (s *Subscription) Active() bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

// Deliver runs fn unless the subscription is cancelled, and reports whether
// it ran. fn must not call Cancel.
func (s *Subscription) Deliver(fn func()) bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	fn()
	return true
}
