package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/playperu/wildkids/internal/auth"
	"github.com/playperu/wildkids/internal/progress"
	"github.com/playperu/wildkids/internal/session"
	"github.com/playperu/wildkids/internal/store"
)

type AuthResponse struct {
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expiresAt"`
	UserID    string            `json:"userId"`
	Email     string            `json:"email"`
	Profile   *progress.Profile `json:"profile,omitempty"`
}

type MeResponse struct {
	UserID  string            `json:"userId"`
	Profile *progress.Profile `json:"profile,omitempty"`
}

type LogoutResponse struct {
	SignedOut int `json:"signedOut"`
}

func handleRegister(accounts *auth.Accounts, tokens *auth.Tokens, st *store.Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.RegisterInput
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Normalize()

		acc, err := accounts.Register(r.Context(), req)
		if err != nil {
			writeFormError(w, err)
			return
		}

		profile := progress.Profile{
			DisplayName: req.Name,
			Email:       acc.Email,
			CreatedAt:   acc.CreatedAt,
			Avatar:      auth.RandomAvatar(),
		}
		if err := st.CreateProfile(r.Context(), acc.ID, profile); err != nil {
			logger.Warn("creating profile failed, removing account", "user_id", acc.ID, "error", err)
			if err := accounts.Remove(r.Context(), acc.Email); err != nil {
				logger.Error("removing account failed", "user_id", acc.ID, "error", err)
			}
			writeFormError(w, auth.ErrUnavailable)
			return
		}

		token, exp, err := tokens.Issue(acc.ID)
		if err != nil {
			logger.Error("issuing token failed", "user_id", acc.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusCreated, AuthResponse{
			Token:     token,
			ExpiresAt: exp,
			UserID:    acc.ID,
			Email:     acc.Email,
			Profile:   &profile,
		})
	}
}

func handleLogin(accounts *auth.Accounts, tokens *auth.Tokens, st *store.Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.LoginInput
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		acc, err := accounts.Login(r.Context(), req)
		if err != nil {
			writeFormError(w, err)
			return
		}

		token, exp, err := tokens.Issue(acc.ID)
		if err != nil {
			logger.Error("issuing token failed", "user_id", acc.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		resp := AuthResponse{Token: token, ExpiresAt: exp, UserID: acc.ID, Email: acc.Email}
		p, err := st.Profile(r.Context(), store.User(acc.ID))
		switch {
		case err == nil:
			resp.Profile = &p
		case !errors.Is(err, store.ErrNotFound):
			logger.Warn("loading profile on login failed", "user_id", acc.ID, "error", err)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// handleLogout revokes the token and ends every live session of the user.
// Sessions end even when the revocation could not be stored.
func handleLogout(tokens *auth.Tokens, sessions *session.Registry, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFrom(r)
		if err := tokens.Revoke(r.Context(), claims); err != nil {
			logger.Warn("revoking token failed", "user_id", claims.UserID(), "error", err)
		}
		n := sessions.SignOutAll(claims.UserID())
		writeJSON(w, http.StatusOK, LogoutResponse{SignedOut: n})
	}
}

func handleMe(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := identityFrom(r)
		resp := MeResponse{UserID: id.UserID}

		p, err := st.Profile(r.Context(), id)
		switch {
		case err == nil:
			resp.Profile = &p
		case !errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusServiceUnavailable, auth.Message(auth.ErrUnavailable))
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
