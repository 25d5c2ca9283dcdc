package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/playperu/wildkids/internal/auth"
	"github.com/playperu/wildkids/internal/content"
	"github.com/playperu/wildkids/internal/games"
	"github.com/playperu/wildkids/internal/progress"
	"github.com/playperu/wildkids/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeFormError answers a failed auth or profile form with the message
// shown to the user, plus the offending field for inline errors.
func writeFormError(w http.ResponseWriter, err error) {
	var ve *auth.ValidationError
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: ve.Message, Field: ve.Field})
		return
	case errors.Is(err, auth.ErrEmailInUse):
		status = http.StatusConflict
	case errors.Is(err, auth.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, store.ErrRemoteUnavailable):
		err = auth.ErrUnavailable
		status = http.StatusServiceUnavailable
	case errors.Is(err, auth.ErrUnavailable):
		status = http.StatusServiceUnavailable
	}
	writeError(w, status, auth.Message(err))
}

// statusFor maps domain errors of the play and content handlers.
func statusFor(err error) int {
	switch {
	case errors.Is(err, games.ErrPlayNotFound), errors.Is(err, content.ErrNotFound), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, games.ErrPlayFinished):
		return http.StatusConflict
	case errors.Is(err, games.ErrInvalidMove), errors.Is(err, games.ErrUnknownLevel),
		errors.Is(err, progress.ErrInvalidCompletion), errors.Is(err, progress.ErrUnknownGame):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrRemoteUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
