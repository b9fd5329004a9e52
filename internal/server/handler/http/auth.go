// Package http provides the HTTP handlers and routing of the NoteKeeper API.
package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/NoteKeeper/internal/apperr"
	"github.com/atinyakov/NoteKeeper/internal/middleware"
	"github.com/atinyakov/NoteKeeper/internal/models"
	"github.com/atinyakov/NoteKeeper/internal/session"
	"go.uber.org/zap"
)

// AuthService defines the authentication operations
// required by the HTTP handlers.
type AuthService interface {
	// Register stores a pending user and returns its invitation.
	Register(ctx context.Context, name, email, password string) (models.Invitation, error)
	// Confirm consumes an invitation and returns the activated principal.
	Confirm(ctx context.Context, invitationID, email, password string) (models.Principal, error)
	// Login checks the credentials of an active user.
	Login(ctx context.Context, email, password string) (models.Principal, error)
}

// SessionManager issues, reads and revokes session cookies.
type SessionManager interface {
	Issue(p models.Principal) (string, session.Claims, error)
	Revoke(ctx context.Context, claims session.Claims) error
	SetCookie(w http.ResponseWriter, token string)
	ClearCookie(w http.ResponseWriter)
}

// AuthHandler handles HTTP requests for registration, confirmation,
// login, logout and the current identity.
type AuthHandler struct {
	AuthService AuthService
	Sessions    SessionManager
	Log         *zap.Logger
}

// RegisterRequest represents the JSON payload for user registration.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// CredentialsRequest is the JSON payload of login and confirmation.
type CredentialsRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Register handles POST /api/auth/register and answers with the invitation.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}

	inv, err := h.AuthService.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// Confirm handles POST /api/auth/confirm/{id}. On success the user is
// activated and signed in.
func (h *AuthHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	var req CredentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}

	p, err := h.AuthService.Confirm(r.Context(), id, req.Email, req.Password)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	h.startSession(w, r, p)
}

// Login handles POST /api/auth/login and sets the session cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}

	p, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	h.startSession(w, r, p)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, p models.Principal) {
	token, _, err := h.Sessions.Issue(p)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	h.Sessions.SetCookie(w, token)
	writeJSON(w, http.StatusOK, p)
}

// Logout handles POST /api/auth/logout. It always succeeds: a session found
// by OptionalSession is revoked, and the cookie is cleared either way.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if claims, ok := middleware.GetClaimsFromContext(r.Context()); ok {
		if err := h.Sessions.Revoke(r.Context(), claims); err != nil && h.Log != nil {
			h.Log.Warn("revoke session", zap.Error(err))
		}
	}
	h.Sessions.ClearCookie(w)
	w.WriteHeader(http.StatusOK)
}

// Me handles GET /api/auth/me and returns the principal of the session.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, h.Log, apperr.ErrUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
