package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/wildkids/internal/games"
	"github.com/playperu/wildkids/internal/progress"
	"github.com/playperu/wildkids/internal/tracker"
)

type StartPlayRequest struct {
	Level int `json:"level,omitempty"`
}

func handleGameMenu(t *tracker.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, games.Menu(t.Stats(r.Context(), identityFrom(r))))
	}
}

// handleStartPlay starts a level; an empty body starts level 1.
func handleStartPlay(m *games.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		game, err := progress.ParseGameID(chi.URLParam(r, "game"))
		if err != nil {
			writeError(w, http.StatusNotFound, "game not found")
			return
		}

		var req StartPlayRequest
		if err := readJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Level == 0 {
			req.Level = 1
		}

		view, err := m.Start(identityFrom(r), game, req.Level)
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, view)
	}
}

func handleGetPlay(m *games.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := m.Get(identityFrom(r), chi.URLParam(r, "playID"))
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func handleMove(m *games.Manager, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var mv games.Move
		if err := readJSON(r, &mv); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		res, err := m.Move(r.Context(), identityFrom(r), chi.URLParam(r, "playID"), mv)
		if err != nil {
			if statusFor(err) == http.StatusInternalServerError {
				logger.Error("applying move", "play_id", chi.URLParam(r, "playID"), "error", err)
			}
			writeError(w, statusFor(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func handleRestartPlay(m *games.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := m.Restart(identityFrom(r), chi.URLParam(r, "playID"))
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func handleNextPlay(m *games.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := m.Next(identityFrom(r), chi.URLParam(r, "playID"))
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		status := http.StatusOK
		if res.Play != nil {
			status = http.StatusCreated
		}
		writeJSON(w, status, res)
	}
}

func handleQuitPlay(m *games.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := m.Quit(identityFrom(r), chi.URLParam(r, "playID")); err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
