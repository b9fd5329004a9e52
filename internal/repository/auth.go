// Package repository provides PostgreSQL persistence for users, invitations,
// notes and groups.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/atinyakov/NoteKeeper/internal/apperr"
	"github.com/atinyakov/NoteKeeper/internal/db"
	"github.com/atinyakov/NoteKeeper/internal/models"
	"github.com/lib/pq"
)

var (
	// ErrInvitationClosed is returned by Activate when the invitation was
	// already resolved, has expired, or its user is already active.
	ErrInvitationClosed = errors.New("invitation resolved or expired")
	// ErrDuplicateEmail is returned by CreatePending when the email is taken.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrUnknownGroup is returned when a note references a group that does not exist.
	ErrUnknownGroup = errors.New("unknown group")
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation
}

// PostgresAuthRepository stores users and their registration invitations.
type PostgresAuthRepository struct {
	// DB is the database handle for executing queries and transactions.
	DB *sql.DB
}

// NewPostgresAuthRepository creates a new PostgresAuthRepository with the given database connection.
func NewPostgresAuthRepository(db *sql.DB) *PostgresAuthRepository {
	return &PostgresAuthRepository{DB: db}
}

// CreatePending inserts an inactive user together with its invitation in one transaction.
func (r *PostgresAuthRepository) CreatePending(ctx context.Context, u models.User, inv models.Invitation) error {
	err := db.WithTx(ctx, r.DB, nil, func(ctx context.Context, tx db.DBTX) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO users (id, name, email, password, active) VALUES ($1, $2, $3, $4, $5)`,
			u.ID, u.Name, u.Email, u.Password, u.Active,
		); err != nil {
			return fmt.Errorf("insert user: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO invitations (id, email, expires_at, resolved) VALUES ($1, $2, $3, $4)`,
			inv.ID, inv.Email, inv.ExpiresAt, inv.Resolved,
		); err != nil {
			return fmt.Errorf("insert invitation: %w", err)
		}
		return nil
	})
	if isUniqueViolation(err) {
		return fmt.Errorf("CreatePending: %w", ErrDuplicateEmail)
	}
	if err != nil {
		return fmt.Errorf("CreatePending: %w", err)
	}
	return nil
}

const userColumns = `id, name, email, password, active`

func scanUser(s scanner) (models.User, error) {
	var u models.User
	err := s.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.Active)
	return u, err
}

// GetUserByEmail returns the user registered with email, or apperr.ErrNotFound.
func (r *PostgresAuthRepository) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, apperr.ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("GetUserByEmail: %w", err)
	}
	return u, nil
}

// GetUserByID returns the user with id, or apperr.ErrNotFound.
func (r *PostgresAuthRepository) GetUserByID(ctx context.Context, id string) (models.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, apperr.ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("GetUserByID: %w", err)
	}
	return u, nil
}

// GetInvitation returns the invitation with id, or apperr.ErrNotFound.
func (r *PostgresAuthRepository) GetInvitation(ctx context.Context, id string) (models.Invitation, error) {
	var inv models.Invitation
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, email, expires_at, resolved FROM invitations WHERE id = $1`, id,
	).Scan(&inv.ID, &inv.Email, &inv.ExpiresAt, &inv.Resolved)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Invitation{}, apperr.ErrNotFound
	}
	if err != nil {
		return models.Invitation{}, fmt.Errorf("GetInvitation: %w", err)
	}
	return inv, nil
}

// Activate resolves the invitation and activates the user atomically.
//
// The invitation update is a compare-and-swap on resolved = 0 and
// expires_at > now, so of several concurrent confirmations exactly one
// succeeds; the rest get ErrInvitationClosed and nothing is written.
func (r *PostgresAuthRepository) Activate(ctx context.Context, invitationID, userID string, now time.Time) error {
	err := db.WithTx(ctx, r.DB, nil, func(ctx context.Context, tx db.DBTX) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE invitations SET resolved = 1 WHERE id = $1 AND resolved = 0 AND expires_at > $2`,
			invitationID, now,
		)
		if err != nil {
			return fmt.Errorf("resolve invitation: %w", err)
		}
		if err := exactlyOne(res); err != nil {
			return err
		}

		res, err = tx.ExecContext(ctx,
			`UPDATE users SET active = 1 WHERE id = $1 AND active = 0`,
			userID,
		)
		if err != nil {
			return fmt.Errorf("activate user: %w", err)
		}
		return exactlyOne(res)
	})
	if errors.Is(err, ErrInvitationClosed) {
		return err
	}
	if err != nil {
		return fmt.Errorf("Activate: %w", err)
	}
	return nil
}

func exactlyOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n != 1 {
		return ErrInvitationClosed
	}
	return nil
}
