// Package access decides whether a principal may act on a note or a group.
//
// Decisions are pure: facts that need the store, such as group membership,
// are supplied by the caller through a MembershipLookup.
package access

import (
	"context"

	"github.com/atinyakov/NoteKeeper/internal/models"
)

// MembershipLookup reports whether userID holds a link into groupID.
type MembershipLookup func(ctx context.Context, userID, groupID string) (bool, error)

// CanReadNote reports whether p may read n: as its owner, because it is
// public, or through membership in the note's group. The lookup is only
// consulted when the first two rules do not already decide.
func CanReadNote(ctx context.Context, p models.Principal, n models.Note, isMember MembershipLookup) (bool, error) {
	if n.UserID == p.ID || n.Public == 1 {
		return true, nil
	}
	if n.GroupID == nil || *n.GroupID == "" || isMember == nil {
		return false, nil
	}
	return isMember(ctx, p.ID, *n.GroupID)
}

// CanMutateNote reports whether p may update or delete n. Group sharing is read-only.
func CanMutateNote(p models.Principal, n models.Note) bool {
	return n.UserID == p.ID
}

// CanDeleteGroup reports whether p created g.
func CanDeleteGroup(p models.Principal, g models.Group) bool {
	return g.CreatedBy == p.ID
}
