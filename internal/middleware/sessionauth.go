// Package middleware provides HTTP middlewares for authentication and logging.
package middleware

import (
	"context"
	"net/http"

	"github.com/atinyakov/NoteKeeper/internal/apperr"
	"github.com/atinyakov/NoteKeeper/internal/models"
	"github.com/atinyakov/NoteKeeper/internal/session"
)

type ctxKey string

const (
	principalKey ctxKey = "principal"
	claimsKey    ctxKey = "claims"
)

// SessionExtractor reads the session carried by a request.
type SessionExtractor interface {
	Extract(r *http.Request) (models.Principal, session.Claims, error)
}

// SessionAuth is a middleware that requires a valid session cookie.
//
// Requests without one are answered with 401. On success the principal and
// the session claims are stored in the request context for the handlers
// downstream.
func SessionAuth(sessions SessionExtractor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, claims, err := sessions.Extract(r)
			if err != nil {
				apperr.Write(w, apperr.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(withSession(r.Context(), p, claims)))
		})
	}
}

// OptionalSession stores the principal and claims of a valid session in the
// request context like SessionAuth, but lets requests without one through.
func OptionalSession(sessions SessionExtractor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p, claims, err := sessions.Extract(r); err == nil {
				r = r.WithContext(withSession(r.Context(), p, claims))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func withSession(ctx context.Context, p models.Principal, claims session.Claims) context.Context {
	return context.WithValue(WithPrincipal(ctx, p), claimsKey, claims)
}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p models.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// GetPrincipalFromContext extracts the authenticated principal from ctx.
// ok is false when the request did not pass SessionAuth.
func GetPrincipalFromContext(ctx context.Context) (models.Principal, bool) {
	p, ok := ctx.Value(principalKey).(models.Principal)
	return p, ok
}

// GetClaimsFromContext extracts the session claims stored by SessionAuth.
func GetClaimsFromContext(ctx context.Context) (session.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(session.Claims)
	return c, ok
}
