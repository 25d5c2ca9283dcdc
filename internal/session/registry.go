package session

import "sync"

// Registry indexes open sessions by user so that signing out on one
// connection ends the others.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]map[*Session]struct{}
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]map[*Session]struct{})}
}

func (r *Registry) Add(userID string, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.sessions[userID]
	if !ok {
		set = make(map[*Session]struct{})
		r.sessions[userID] = set
	}
	set[s] = struct{}{}
}

func (r *Registry) Remove(userID string, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := r.sessions[userID]
	delete(set, s)
	if len(set) == 0 {
		delete(r.sessions, userID)
	}
}

// Count returns the number of open sessions of userID.
func (r *Registry) Count(userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions[userID])
}

// SignOutAll signs out and forgets every session of userID.
func (r *Registry) SignOutAll(userID string) int {
	r.mu.Lock()
	set := r.sessions[userID]
	delete(r.sessions, userID)
	r.mu.Unlock()

	for s := range set {
		s.SignOut()
	}
	return len(set)
}
