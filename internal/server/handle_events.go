package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/playperu/wildkids/internal/progress"
	"github.com/playperu/wildkids/internal/session"
	"github.com/playperu/wildkids/internal/store"
	"github.com/playperu/wildkids/internal/tracker"
)

// handleEvents streams stats and achievement events. Signed-in callers get
// a session: remote pushes arrive as stats, and signing out elsewhere ends
// the stream with a signed_out event.
func handleEvents(broker *Broker, t *tracker.Tracker, st *store.Store, sessions *session.Registry, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming not supported")
			return
		}
		id := identityFrom(r)

		ch := broker.Subscribe(id.Topic())
		defer broker.Unsubscribe(id.Topic(), ch)

		var (
			done <-chan struct{}
			live bool
		)
		if !id.IsGuest() {
			sess := session.New(st, logger, func(_ string, s progress.Stats) {
				data, err := json.Marshal(s)
				if err != nil {
					return
				}
				select {
				case ch <- SSEEvent{Type: "stats", Data: data}:
				default:
				}
			})
			defer sess.Close()
			snap, err := sess.SignIn(r.Context(), id.UserID)
			if err != nil {
				logger.Warn("event stream sign in failed", "user_id", id.UserID, "error", err)
				writeError(w, http.StatusServiceUnavailable, "progress store unavailable")
				return
			}
			sessions.Add(id.UserID, sess)
			defer sessions.Remove(id.UserID, sess)
			done = sess.Done()
			live = snap.State == session.AuthenticatedLive
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")

		// A live subscription has already queued the current stats on ch.
		if !live {
			initial, _ := json.Marshal(t.Stats(r.Context(), id))
			fmt.Fprintf(w, "event: stats\ndata: %s\n\n", initial)
		}
		flusher.Flush()

		ping := time.NewTicker(30 * time.Second)
		defer ping.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case <-done:
				fmt.Fprintf(w, "event: signed_out\ndata: {}\n\n")
				flusher.Flush()
				return
			case ev := <-ch:
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, ev.Data)
				flusher.Flush()
			case <-ping.C:
				fmt.Fprintf(w, ": ping\n\n")
				flusher.Flush()
			}
		}
	}
}
