package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/playperu/wildkids/internal/store"
)

// Claims identify a signed-in user.
type Claims struct {
	jwt.RegisteredClaims
}

func (c Claims) UserID() string { return c.Subject }

// Tokens issues and verifies HS256 session tokens. Revoked token ids are
// kept in Redis until the token would have expired anyway.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	rdb    *redis.Client
	prefix string
	logger *slog.Logger
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration, rdb *redis.Client, prefix string, logger *slog.Logger) *Tokens {
	return &Tokens{
		secret: []byte(secret),
		ttl:    ttl,
		rdb:    rdb,
		prefix: prefix,
		logger: logger,
		now:    time.Now,
	}
}

func (t *Tokens) revokedKey(jti string) string {
	return t.prefix + ":revoked:" + jti
}

// Issue returns a signed token for userID and its expiry.
func (t *Tokens) Issue(userID string) (string, time.Time, error) {
	now := t.now()
	exp := now.Add(t.ttl)
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token: %w", err)
	}
	return signed, exp, nil
}

// Parse checks the signature and expiry of raw.
func (t *Tokens) Parse(raw string) (Claims, error) {
	var claims Claims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	tok, err := parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	})
	if err != nil || !tok.Valid {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" || claims.ID == "" {
		return Claims{}, fmt.Errorf("%w: missing subject or id", ErrInvalidToken)
	}
	return claims, nil
}

// Verify parses raw and rejects revoked tokens. When Redis cannot be reached
// the revocation check is skipped and logged.
func (t *Tokens) Verify(ctx context.Context, raw string) (Claims, error) {
	claims, err := t.Parse(raw)
	if err != nil {
		return Claims{}, err
	}
	revoked, err := t.Revoked(ctx, claims.ID)
	if err != nil {
		t.logger.Warn("revocation check failed", "user_id", claims.Subject, "error", err)
		return claims, nil
	}
	if revoked {
		return Claims{}, fmt.Errorf("%w: revoked", ErrInvalidToken)
	}
	return claims, nil
}

// Revoked reports whether the token with id jti was revoked.
func (t *Tokens) Revoked(ctx context.Context, jti string) (bool, error) {
	n, err := t.rdb.Exists(ctx, t.revokedKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return n > 0, nil
}

// Revoke blocks the token until its expiry.
func (t *Tokens) Revoke(ctx context.Context, claims Claims) error {
	ttl := time.Minute
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Sub(t.now())
	}
	if ttl <= 0 {
		return nil
	}
	err := t.rdb.Set(ctx, t.revokedKey(claims.ID), claims.Subject, ttl).Err()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// FromRequest resolves the caller from an "Authorization: Bearer" header or,
// for streams opened by the browser, a token query parameter. A request
// without a token is a guest.
func (t *Tokens) FromRequest(r *http.Request) (store.Identity, Claims, error) {
	raw, ok := bearer(r)
	if !ok {
		return store.Guest(), Claims{}, nil
	}
	claims, err := t.Verify(r.Context(), raw)
	if err != nil {
		return store.Identity{}, Claims{}, err
	}
	return store.User(claims.UserID()), claims, nil
}

// Identify is FromRequest without the claims.
func (t *Tokens) Identify(r *http.Request) (store.Identity, error) {
	id, _, err := t.FromRequest(r)
	return id, err
}

func bearer(r *http.Request) (string, bool) {
	if tok, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); found && tok != "" {
		return tok, true
	}
	if tok := r.URL.Query().Get("token"); tok != "" {
		return tok, true
	}
	return "", false
}
