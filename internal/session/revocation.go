package session

import (
	"context"
	"time"

	"github.com/atinyakov/NoteKeeper/internal/cache"
)

const revokedKeyPrefix = "session:revoked:"

// RevocationStore is a Revoker backed by the Redis cache. Because the cache
// fails safe, an unreachable Redis makes every session look unrevoked.
type RevocationStore struct {
	cache *cache.Client
}

var _ Revoker = (*RevocationStore)(nil)

// NewRevocationStore creates a RevocationStore on c.
func NewRevocationStore(c *cache.Client) *RevocationStore {
	return &RevocationStore{cache: c}
}

// Revoke denylists jti for ttl.
func (s *RevocationStore) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	return s.cache.Set(ctx, revokedKeyPrefix+jti, []byte("1"), ttl)
}

// IsRevoked reports whether jti is denylisted.
func (s *RevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	data, err := s.cache.Get(ctx, revokedKeyPrefix+jti)
	if err != nil {
		return false, err
	}
	return data != nil, nil
}
