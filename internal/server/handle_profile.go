package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/playperu/wildkids/internal/auth"
	"github.com/playperu/wildkids/internal/progress"
	"github.com/playperu/wildkids/internal/store"
	"github.com/playperu/wildkids/internal/tracker"
)

func handleGetProfile(t *tracker.Tracker, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := t.Profile(r.Context(), identityFrom(r))
		if err != nil {
			logger.Error("loading profile", "identity", identityFrom(r).String(), "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func handleUpdateProfile(st *store.Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.ProfileInput
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Normalize()
		if err := req.Validate(); err != nil {
			writeFormError(w, err)
			return
		}

		id := identityFrom(r)
		p, err := st.UpdateProfile(r.Context(), id, func(p *progress.Profile) {
			if req.DisplayName != nil {
				p.DisplayName = *req.DisplayName
			}
			if req.Avatar != nil {
				p.Avatar = *req.Avatar
			}
		})
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "profile not found")
			return
		}
		if err != nil {
			logger.Warn("updating profile failed", "user_id", id.UserID, "error", err)
			writeFormError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}
