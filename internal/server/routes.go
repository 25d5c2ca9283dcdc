package server

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/playperu/wildkids/internal/auth"
	"github.com/playperu/wildkids/internal/content"
	"github.com/playperu/wildkids/internal/games"
	"github.com/playperu/wildkids/internal/session"
	"github.com/playperu/wildkids/internal/store"
	"github.com/playperu/wildkids/internal/tracker"
)

// Deps are the services behind the HTTP API.
type Deps struct {
	Store    *store.Store
	Tracker  *tracker.Tracker
	Recorder *Recorder
	Games    *games.Manager
	Content  *content.Library
	Accounts *auth.Accounts
	Tokens   *auth.Tokens
	Sessions *session.Registry
	Broker   *Broker
	SPADir   string
}

func addRoutes(r chi.Router, logger *slog.Logger, d Deps) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("WildKids API", "/openapi.json", "/docs"))

	r.Route("/api", func(r chi.Router) {
		r.Use(identityMiddleware(d.Tokens))

		r.Post("/auth/register", handleRegister(d.Accounts, d.Tokens, d.Store, logger))
		r.Post("/auth/login", handleLogin(d.Accounts, d.Tokens, d.Store, logger))
		r.With(requireUser).Post("/auth/logout", handleLogout(d.Tokens, d.Sessions, logger))
		r.With(requireUser).Get("/auth/me", handleMe(d.Store))

		r.Get("/profile", handleGetProfile(d.Tracker, logger))
		r.With(requireUser).Patch("/profile", handleUpdateProfile(d.Store, logger))

		r.Get("/progress", handleGetStats(d.Tracker))
		r.Get("/progress/{game}", handleGetGameProgress(d.Store, logger))
		r.Post("/progress", handleRecordCompletion(d.Recorder))
		r.Get("/achievements", handleAchievements(d.Tracker))
		r.Get("/events", handleEvents(d.Broker, d.Tracker, d.Store, d.Sessions, logger))

		r.Get("/games", handleGameMenu(d.Tracker))
		r.Post("/games/{game}/plays", handleStartPlay(d.Games))
		r.Route("/plays/{playID}", func(r chi.Router) {
			r.Get("/", handleGetPlay(d.Games))
			r.Delete("/", handleQuitPlay(d.Games))
			r.Post("/moves", handleMove(d.Games, logger))
			r.Post("/restart", handleRestartPlay(d.Games))
			r.Post("/next", handleNextPlay(d.Games))
		})

		r.Get("/encyclopedia", handleEncyclopedia(d.Content))
		r.Get("/encyclopedia/suggest", handleSuggest(d.Content))
		r.Get("/encyclopedia/{id}", handleEncyclopediaEntry(d.Content))
		r.Get("/map/markers", handleMarkers(d.Content))
		r.Get("/map/markers/{id}", handleMarker(d.Content))
	})

	if d.SPADir != "" {
		if info, err := os.Stat(d.SPADir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", d.SPADir)
			r.NotFound(handleSPA(d.SPADir))
		}
	}
}
