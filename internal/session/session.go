// Package session carries the authenticated principal in a signed and
// encrypted cookie.
//
// The token is an HS256 JWT holding the principal and a unique id (jti),
// sealed with AES-256-GCM. Signing and encryption keys are derived from the
// server secret with HKDF, so one configured secret serves both.
//
// Sessions are stateless unless a Revoker is configured, in which case logout
// puts the token id on a denylist until the token would have expired anyway.
package session

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/atinyakov/NoteKeeper/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"
)

const (
	// CookieName is the name of the session cookie.
	CookieName = "auth"
	// DefaultTTL is the lifetime of a session.
	DefaultTTL = 24 * time.Hour
)

var (
	// ErrNoSession is returned when the request carries no session cookie.
	ErrNoSession = errors.New("no session")
	// ErrInvalidSession is returned when the cookie fails decryption, signature,
	// expiry or revocation checks.
	ErrInvalidSession = errors.New("invalid session")
)

// Claims are the JWT claims of a session.
type Claims struct {
	UserID string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Principal returns the identity the claims describe.
func (c Claims) Principal() models.Principal {
	return models.Principal{ID: c.UserID, Name: c.Name, Email: c.Email}
}

// Revoker keeps a denylist of session ids.
type Revoker interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Manager issues, reads and revokes session cookies.
type Manager struct {
	signKey []byte
	aead    cipher.AEAD
	ttl     time.Duration
	secure  bool
	revoker Revoker
	now     func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithSecure sets the Secure attribute on issued cookies.
func WithSecure(secure bool) Option { return func(m *Manager) { m.secure = secure } }

// WithRevoker enables server-side revocation.
func WithRevoker(r Revoker) Option { return func(m *Manager) { m.revoker = r } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(m *Manager) { m.now = now } }

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option { return func(m *Manager) { m.ttl = ttl } }

func deriveKey(secret []byte, info string) ([]byte, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("derive %s key: %w", info, err)
	}
	return key, nil
}

// NewManager derives the session keys from secret.
func NewManager(secret []byte, opts ...Option) (*Manager, error) {
	if len(secret) == 0 {
		return nil, errors.New("empty session secret")
	}
	signKey, err := deriveKey(secret, "session-sign")
	if err != nil {
		return nil, err
	}
	encKey, err := deriveKey(secret, "session-encrypt")
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}

	m := &Manager{signKey: signKey, aead: aead, ttl: DefaultTTL, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Issue serializes p into a session token.
func (m *Manager) Issue(p models.Principal) (string, Claims, error) {
	now := m.now()
	claims := Claims{
		UserID: p.ID,
		Name:   p.Name,
		Email:  p.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.signKey)
	if err != nil {
		return "", Claims{}, fmt.Errorf("sign session: %w", err)
	}

	nonce := make([]byte, m.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", Claims{}, fmt.Errorf("read nonce: %w", err)
	}
	sealed := m.aead.Seal(nonce, nonce, []byte(signed), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), claims, nil
}

// Parse reverses Issue and checks expiry and revocation.
func (m *Manager) Parse(ctx context.Context, token string) (models.Principal, Claims, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || len(raw) < m.aead.NonceSize() {
		return models.Principal{}, Claims{}, ErrInvalidSession
	}
	nonce, sealed := raw[:m.aead.NonceSize()], raw[m.aead.NonceSize():]
	signed, err := m.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return models.Principal{}, Claims{}, ErrInvalidSession
	}

	claims := Claims{}
	_, err = jwt.ParseWithClaims(string(signed), &claims, func(*jwt.Token) (any, error) {
		return m.signKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || claims.UserID == "" {
		return models.Principal{}, Claims{}, ErrInvalidSession
	}

	if m.revoker != nil && claims.ID != "" {
		revoked, err := m.revoker.IsRevoked(ctx, claims.ID)
		if err != nil || revoked {
			return models.Principal{}, Claims{}, ErrInvalidSession
		}
	}
	return claims.Principal(), claims, nil
}

// Extract reads the session cookie of r.
func (m *Manager) Extract(r *http.Request) (models.Principal, Claims, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return models.Principal{}, Claims{}, ErrNoSession
	}
	return m.Parse(r.Context(), cookie.Value)
}

// SetCookie writes token as the session cookie.
func (m *Manager) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie instructs the client to drop the session cookie.
func (m *Manager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Revoke denylists the session described by claims until it expires.
// Without a Revoker it is a no-op and the token stays valid until expiry.
func (m *Manager) Revoke(ctx context.Context, claims Claims) error {
	if m.revoker == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	ttl := claims.ExpiresAt.Sub(m.now())
	if ttl <= 0 {
		return nil
	}
	return m.revoker.Revoke(ctx, claims.ID, ttl)
}
