package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/wildkids/internal/progress"
	"github.com/playperu/wildkids/internal/store"
	"github.com/playperu/wildkids/internal/tracker"
)

func handleGetStats(t *tracker.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, t.Stats(r.Context(), identityFrom(r)))
	}
}

// handleGetGameProgress answers with empty progress rather than an error
// when the stores cannot be read, the same as the aggregate stats.
func handleGetGameProgress(st *store.Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		game, err := progress.ParseGameID(chi.URLParam(r, "game"))
		if err != nil {
			writeError(w, http.StatusNotFound, "game not found")
			return
		}

		id := identityFrom(r)
		gp, err := st.Load(r.Context(), id, game)
		if err != nil {
			logger.Error("loading game progress", "identity", id.String(), "game", game, "error", err)
			gp = progress.NewGameProgress()
		}
		writeJSON(w, http.StatusOK, gp)
	}
}

func handleRecordCompletion(rec *Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req progress.Completion
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		out, err := rec.RecordCompletion(r.Context(), identityFrom(r), req)
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func handleAchievements(t *tracker.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, t.Achievements(r.Context(), identityFrom(r)))
	}
}
