// Package models defines the core data structures for users, invitations,
// notes and groups.
package models

import "time"

// User represents an application user with credentials.
type User struct {
	// ID is the unique identifier for the user.
	ID string
	// Name is the display name chosen at registration.
	Name string
	// Email is the unique address the user registered with.
	Email string
	// Password is the encoded credential hash, never the plaintext.
	Password string
	// Active is 0 until the invitation is confirmed, 1 afterwards.
	Active int
}

// PublicUser is the projection of a User that is safe to hand to other users.
type PublicUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Public returns the public projection of u.
func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email}
}

// Principal is the authenticated identity carried by the session cookie.
type Principal struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// PrincipalFrom builds the session identity of u.
func PrincipalFrom(u User) Principal {
	return Principal{ID: u.ID, Name: u.Name, Email: u.Email}
}

// Invitation is a single-use capability to activate the user registered with Email.
type Invitation struct {
	// ID doubles as the confirmation token sent by email.
	ID string `json:"id"`
	// Email is the address of the pending user.
	Email string `json:"email"`
	// ExpiresAt is the moment after which the invitation can no longer be confirmed.
	ExpiresAt time.Time `json:"expires_at"`
	// Resolved is 0 while open and 1 once consumed.
	Resolved int `json:"resolved"`
}

// Note is a piece of text owned by a user and optionally shared with a group.
type Note struct {
	ID      string    `json:"id"`
	GroupID *string   `json:"group_id"`
	UserID  string    `json:"user_id"`
	Title   string    `json:"title"`
	DateTag Timestamp `json:"date_tag"`
	Body    string    `json:"body"`
	// Public is 1 when every user may read the note.
	Public int `json:"public"`
	// Pinned is a presentation flag with no access semantics.
	Pinned int `json:"pinned"`
}

// NewNote is the payload accepted when creating a note.
type NewNote struct {
	GroupID *string    `json:"group_id"`
	Title   string     `json:"title"`
	DateTag *Timestamp `json:"date_tag"`
	Body    string     `json:"body"`
	Public  int        `json:"public" validate:"oneof=0 1"`
	Pinned  int        `json:"pinned" validate:"oneof=0 1"`
}

// NotePatch carries the fields of a note to change; nil fields are left alone.
// The owner of a note is not patchable.
type NotePatch struct {
	GroupID *string    `json:"group_id"`
	Title   *string    `json:"title"`
	DateTag *Timestamp `json:"date_tag"`
	Body    *string    `json:"body"`
	Public  *int       `json:"public" validate:"omitempty,oneof=0 1"`
	Pinned  *int       `json:"pinned" validate:"omitempty,oneof=0 1"`
}

// Group is a named collection of users that notes can be shared with.
type Group struct {
	ID        string    `json:"id"`
	CreatedAt Timestamp `json:"created_at"`
	CreatedBy string    `json:"created_by"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
}

// NewGroup is the payload accepted when creating a group.
type NewGroup struct {
	Name  string `json:"name" validate:"required"`
	Color string `json:"color"`
}

// GroupLink is a membership edge between a user and a group.
type GroupLink struct {
	ID      string `json:"id"`
	GroupID string `json:"group_id"`
	UserID  string `json:"user_id"`
}
