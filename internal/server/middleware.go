package server

import (
	"context"
	"net/http"

	"github.com/playperu/wildkids/internal/auth"
	"github.com/playperu/wildkids/internal/store"
)

type ctxKey int

const (
	ctxKeyIdentity ctxKey = iota
	ctxKeyClaims
)

// Identifier resolves the caller of a request.
type Identifier interface {
	FromRequest(r *http.Request) (store.Identity, auth.Claims, error)
}

// identityMiddleware attaches the caller to the request. Requests without a
// token are guests; a bad or revoked token is rejected.
func identityMiddleware(ident Identifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, claims, err := ident.FromRequest(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid session token")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyIdentity, id)
			ctx = context.WithValue(ctx, ctxKeyClaims, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requireUser rejects guests.
func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if identityFrom(r).IsGuest() {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func identityFrom(r *http.Request) store.Identity {
	id, _ := r.Context().Value(ctxKeyIdentity).(store.Identity)
	return id
}

func claimsFrom(r *http.Request) auth.Claims {
	c, _ := r.Context().Value(ctxKeyClaims).(auth.Claims)
	return c
}
