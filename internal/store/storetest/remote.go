// Package storetest provides an in-memory store.Remote for tests.
package storetest

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/playperu/wildkids/internal/progress"
	"github.com/playperu/wildkids/internal/store"
)

type listener struct {
	sub *store.Subscription
	fn  func(progress.Stats)
}

// Remote keeps records in memory as JSON, the same way the Redis remote
// does, and delivers updates synchronously from Update.
type Remote struct {
	mu        sync.Mutex
	docs      map[string][]byte
	listeners map[string][]*listener
	err       error
	updates   int
}

func NewRemote() *Remote {
	return &Remote{
		docs:      map[string][]byte{},
		listeners: map[string][]*listener{},
	}
}

// SetErr makes every following call fail with err, or succeed again for nil.
func (r *Remote) SetErr(err error) {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
}

// Updates counts successful Update calls.
func (r *Remote) Updates() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updates
}

// Put stores rec as the record of userID without notifying listeners.
func (r *Remote) Put(userID string, rec progress.Record) {
	data, _ := json.Marshal(rec)
	r.mu.Lock()
	r.docs[userID] = data
	r.mu.Unlock()
}

// Listeners counts live subscriptions of userID.
func (r *Remote) Listeners(userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.listeners[userID])
}

func (r *Remote) get(userID string) (progress.Record, bool, error) {
	data, ok := r.docs[userID]
	if !ok {
		return progress.NewRecord(), false, nil
	}
	rec := progress.NewRecord()
	if err := json.Unmarshal(data, &rec); err != nil {
		return progress.Record{}, false, err
	}
	rec.Normalize()
	return rec, true, nil
}

func (r *Remote) Load(_ context.Context, userID string) (progress.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return progress.Record{}, r.err
	}
	rec, ok, err := r.get(userID)
	if err != nil {
		return progress.Record{}, err
	}
	if !ok {
		return progress.Record{}, store.ErrNotFound
	}
	return rec, nil
}

func (r *Remote) Update(_ context.Context, userID string, fn func(*progress.Record) error) (progress.Record, error) {
	r.mu.Lock()
	if r.err != nil {
		err := r.err
		r.mu.Unlock()
		return progress.Record{}, err
	}
	rec, _, err := r.get(userID)
	if err != nil {
		r.mu.Unlock()
		return progress.Record{}, err
	}
	if err := fn(&rec); err != nil {
		r.mu.Unlock()
		return progress.Record{}, err
	}
	rec.Normalize()
	data, err := json.Marshal(rec)
	if err != nil {
		r.mu.Unlock()
		return progress.Record{}, err
	}
	r.docs[userID] = data
	r.updates++
	ls := append([]*listener(nil), r.listeners[userID]...)
	r.mu.Unlock()

	for _, l := range ls {
		stats := rec.Progress
		l.sub.Deliver(func() { l.fn(stats) })
	}
	return rec, nil
}

func (r *Remote) Subscribe(_ context.Context, userID string, fn func(progress.Stats)) (*store.Subscription, error) {
	r.mu.Lock()
	if r.err != nil {
		err := r.err
		r.mu.Unlock()
		return nil, err
	}
	rec, _, err := r.get(userID)
	if err != nil {
		r.mu.Unlock()
		return nil, err
	}

	l := &listener{fn: fn}
	l.sub = store.NewSubscription(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		ls := r.listeners[userID]
		for i, x := range ls {
			if x == l {
				r.listeners[userID] = append(ls[:i], ls[i+1:]...)
				break
			}
		}
		if len(r.listeners[userID]) == 0 {
			delete(r.listeners, userID)
		}
	})
	r.listeners[userID] = append(r.listeners[userID], l)
	r.mu.Unlock()

	l.sub.Deliver(func() { fn(rec.Progress) })
	return l.sub, nil
}
