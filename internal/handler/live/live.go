// Package live streams progress updates over a WebSocket.
package live

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"nhooyr.io/websocket"

	"github.com/playperu/wildkids/internal/progress"
	"github.com/playperu/wildkids/internal/session"
	"github.com/playperu/wildkids/internal/store"
)

// Identifier resolves the caller of a request.
type Identifier interface {
	Identify(r *http.Request) (store.Identity, error)
}

// StatsSource serves guest stats.
type StatsSource interface {
	Stats(ctx context.Context, id store.Identity) progress.Stats
}

// Message is one frame sent to the browser.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type Handler struct {
	logger   *slog.Logger
	ident    Identifier
	backend  session.Backend
	registry *session.Registry
	stats    StatsSource
	// maxAge bounds a single connection.
	maxAge time.Duration
}

func NewHandler(logger *slog.Logger, ident Identifier, backend session.Backend, registry *session.Registry, stats StatsSource) *Handler {
	return &Handler{
		logger:   logger,
		ident:    ident,
		backend:  backend,
		registry: registry,
		stats:    stats,
		maxAge:   time.Hour,
	}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.serve)
	return r
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request) {
	id, err := h.ident.Identify(r)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid token"})
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.logger.Error("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	ctx, cancel := context.WithTimeout(r.Context(), h.maxAge)
	defer cancel()
	// The browser never sends anything; CloseRead ends ctx when it goes away.
	ctx = conn.CloseRead(ctx)

	if id.IsGuest() {
		h.serveGuest(ctx, conn)
		return
	}
	h.serveUser(ctx, conn, id.UserID)
}

func (h *Handler) serveGuest(ctx context.Context, conn *websocket.Conn) {
	if err := write(ctx, conn, Message{Type: "stats", Data: h.stats.Stats(ctx, store.Guest())}); err != nil {
		h.logger.Debug("websocket write failed", "error", err)
		return
	}
	<-ctx.Done()
}

func (h *Handler) serveUser(ctx context.Context, conn *websocket.Conn, userID string) {
	updates := make(chan progress.Stats, 16)
	sess := session.New(h.backend, h.logger, func(_ string, s progress.Stats) {
		select {
		case updates <- s:
		default:
			// Drop if the connection is slow; the next push carries full stats.
		}
	})
	defer sess.Close()

	snap, err := sess.SignIn(ctx, userID)
	if err != nil {
		h.logger.Warn("live sign in failed", "user_id", userID, "error", err)
		conn.Close(websocket.StatusInternalError, "sign in failed")
		return
	}
	h.registry.Add(userID, sess)
	defer h.registry.Remove(userID, sess)

	if err := write(ctx, conn, Message{Type: "snapshot", Data: snap}); err != nil {
		h.logger.Debug("websocket write failed", "error", err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				conn.Close(websocket.StatusNormalClosure, "connection expired")
			}
			return
		case <-sess.Done():
			_ = write(ctx, conn, Message{Type: "signed_out"})
			conn.Close(websocket.StatusNormalClosure, "signed out")
			return
		case s := <-updates:
			if err := write(ctx, conn, Message{Type: "stats", Data: s}); err != nil {
				h.logger.Debug("websocket write failed", "error", err)
				return
			}
		}
	}
}

func write(ctx context.Context, conn *websocket.Conn, m Message) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, data)
}
