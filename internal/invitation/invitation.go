// Package invitation issues time-boxed, single-use registration invitations.
//
// Issuing is pure; consuming an invitation is a compare-and-swap performed by
// the repository (see repository.PostgresAuthRepository.Activate), and the
// decision whether an invitation may be consumed belongs to the caller.
package invitation

import (
	"time"

	"github.com/atinyakov/NoteKeeper/internal/models"
	"github.com/google/uuid"
)

// TTL is how long an invitation stays confirmable.
const TTL = 24 * time.Hour

// Issue returns a fresh open invitation for email.
func Issue(email string, now time.Time) models.Invitation {
	return models.Invitation{
		ID:        uuid.NewString(),
		Email:     email,
		ExpiresAt: now.UTC().Add(TTL).Truncate(time.Second),
		Resolved:  0,
	}
}

// IssueFor returns a fresh open invitation keyed to u's email.
func IssueFor(u models.User, now time.Time) models.Invitation {
	return Issue(u.Email, now)
}

// IsOpen reports whether inv is unresolved and not yet expired at now.
func IsOpen(inv models.Invitation, now time.Time) bool {
	return inv.Resolved == 0 && inv.ExpiresAt.After(now)
}
