package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/atinyakov/NoteKeeper/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRevoker struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
}

func newMemRevoker() *memRevoker { return &memRevoker{revoked: map[string]time.Duration{}} }

func (r *memRevoker) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked[jti] = ttl
	return nil
}

func (r *memRevoker) IsRevoked(_ context.Context, jti string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.revoked[jti]
	return ok, nil
}

var ann = models.Principal{ID: "u-ann", Name: "Ann", Email: "ann@x.com"}

func newManager(t *testing.T, opts ...Option) *Manager {
	t.Helper()
	m, err := NewManager([]byte(strings.Repeat("0123", 8)), opts...)
	require.NoError(t, err)
	return m
}

func TestIssueParse_RoundTrip(t *testing.T) {
	m := newManager(t)

	token, claims, err := m.Issue(ann)
	require.NoError(t, err)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, DefaultTTL, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
	assert.NotContains(t, token, "ann@x.com", "token must be encrypted")

	got, gotClaims, err := m.Parse(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, ann, got)
	assert.Equal(t, claims.ID, gotClaims.ID)
}

func TestParse_Rejects(t *testing.T) {
	m := newManager(t)
	token, _, err := m.Issue(ann)
	require.NoError(t, err)

	other := func() string {
		o, err := NewManager([]byte("another-secret-another-secret-xx"))
		require.NoError(t, err)
		tok, _, err := o.Issue(ann)
		require.NoError(t, err)
		return tok
	}()

	tampered := []byte(token)
	tampered[len(tampered)-3] ^= 0x01

	cases := map[string]string{
		"garbage":      "not-a-token",
		"empty":        "",
		"short":        "AAAA",
		"tampered":     string(tampered),
		"other secret": other,
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := m.Parse(context.Background(), tok)
			assert.ErrorIs(t, err, ErrInvalidSession)
		})
	}
}

func TestParse_Expired(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := now
	m := newManager(t, WithClock(func() time.Time { return clock }))

	token, _, err := m.Issue(ann)
	require.NoError(t, err)

	clock = now.Add(DefaultTTL - time.Minute)
	_, _, err = m.Parse(context.Background(), token)
	require.NoError(t, err)

	clock = now.Add(DefaultTTL + time.Minute)
	_, _, err = m.Parse(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestExtract_FromCookie(t *testing.T) {
	m := newManager(t, WithSecure(true))
	token, _, err := m.Issue(ann)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	m.SetCookie(rec, token)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, CookieName, c.Name)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, 86400, c.MaxAge)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(c)
	got, _, err := m.Extract(req)
	require.NoError(t, err)
	assert.Equal(t, ann, got)
}

func TestExtract_NoCookie(t *testing.T) {
	m := newManager(t)
	_, _, err := m.Extract(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestClearCookie(t *testing.T) {
	m := newManager(t)
	rec := httptest.NewRecorder()
	m.ClearCookie(rec)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.Equal(t, "", cookies[0].Value)
	assert.Less(t, cookies[0].MaxAge, 0)
	assert.False(t, cookies[0].Secure)
}

func TestRevoke_WithRevoker(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rev := newMemRevoker()
	m := newManager(t, WithRevoker(rev), WithClock(func() time.Time { return now }))

	token, claims, err := m.Issue(ann)
	require.NoError(t, err)

	require.NoError(t, m.Revoke(context.Background(), claims))
	assert.Equal(t, DefaultTTL, rev.revoked[claims.ID])

	_, _, err = m.Parse(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestRevoke_StatelessKeepsTokenValid(t *testing.T) {
	m := newManager(t)
	token, claims, err := m.Issue(ann)
	require.NoError(t, err)

	require.NoError(t, m.Revoke(context.Background(), claims))
	_, _, err = m.Parse(context.Background(), token)
	assert.NoError(t, err)
}

func TestRevocationStore_NilCacheNeverRevoked(t *testing.T) {
	s := NewRevocationStore(nil)
	require.NoError(t, s.Revoke(context.Background(), "jti", time.Hour))
	revoked, err := s.IsRevoked(context.Background(), "jti")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestNewManager_EmptySecret(t *testing.T) {
	_, err := NewManager(nil)
	assert.Error(t, err)
}
