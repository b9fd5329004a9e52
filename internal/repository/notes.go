package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/NoteKeeper/internal/apperr"
	"github.com/atinyakov/NoteKeeper/internal/models"
)

// PostgresNoteRepository implements note persistence against a PostgreSQL database.
type PostgresNoteRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresNoteRepository creates a new PostgresNoteRepository using the provided *sql.DB.
func NewPostgresNoteRepository(db *sql.DB) *PostgresNoteRepository {
	return &PostgresNoteRepository{DB: db}
}

const noteColumns = `id, group_id, user_id, title, date_tag, body, public, pinned`

type scanner interface {
	Scan(dest ...any) error
}

func scanNote(s scanner) (models.Note, error) {
	var (
		n       models.Note
		groupID sql.NullString
	)
	if err := s.Scan(&n.ID, &groupID, &n.UserID, &n.Title, &n.DateTag.Time, &n.Body, &n.Public, &n.Pinned); err != nil {
		return models.Note{}, err
	}
	if groupID.Valid {
		n.GroupID = &groupID.String
	}
	return n, nil
}

func (r *PostgresNoteRepository) list(ctx context.Context, op, query string, args ...any) ([]models.Note, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	notes := make([]models.Note, 0)
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return notes, nil
}

// ListByUser returns every note owned by userID, pinned first.
func (r *PostgresNoteRepository) ListByUser(ctx context.Context, userID string) ([]models.Note, error) {
	return r.list(ctx, "ListByUser",
		`SELECT `+noteColumns+` FROM notes WHERE user_id = $1 ORDER BY pinned DESC, date_tag DESC`, userID)
}

// ListPublic returns every public note, newest first.
func (r *PostgresNoteRepository) ListPublic(ctx context.Context) ([]models.Note, error) {
	return r.list(ctx, "ListPublic",
		`SELECT `+noteColumns+` FROM notes WHERE public = 1 ORDER BY date_tag DESC`)
}

// GetByID returns the note with id, or apperr.ErrNotFound.
func (r *PostgresNoteRepository) GetByID(ctx context.Context, id string) (models.Note, error) {
	n, err := scanNote(r.DB.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Note{}, apperr.ErrNotFound
	}
	if err != nil {
		return models.Note{}, fmt.Errorf("GetByID: %w", err)
	}
	return n, nil
}

// Insert stores a new note. A GroupID naming no group yields ErrUnknownGroup.
func (r *PostgresNoteRepository) Insert(ctx context.Context, n models.Note) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO notes (`+noteColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		n.ID, n.GroupID, n.UserID, n.Title, n.DateTag.Time, n.Body, n.Public, n.Pinned,
	)
	if isForeignKeyViolation(err) {
		return ErrUnknownGroup
	}
	if err != nil {
		return fmt.Errorf("Insert: %w", err)
	}
	return nil
}

// Update applies the non-nil fields of p to the note with id and returns the
// stored result, or apperr.ErrNotFound. An empty GroupID unshares the note.
func (r *PostgresNoteRepository) Update(ctx context.Context, id string, p models.NotePatch) (models.Note, error) {
	var dateTag any
	if p.DateTag != nil {
		dateTag = p.DateTag.Time
	}
	n, err := scanNote(r.DB.QueryRowContext(ctx, `
		UPDATE notes SET
			group_id = CASE WHEN $2::text IS NULL THEN group_id ELSE NULLIF($2, '') END,
			title    = COALESCE($3, title),
			date_tag = COALESCE($4, date_tag),
			body     = COALESCE($5, body),
			public   = COALESCE($6, public),
			pinned   = COALESCE($7, pinned)
		WHERE id = $1
		RETURNING `+noteColumns,
		id, p.GroupID, p.Title, dateTag, p.Body, p.Public, p.Pinned,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Note{}, apperr.ErrNotFound
	}
	if isForeignKeyViolation(err) {
		return models.Note{}, ErrUnknownGroup
	}
	if err != nil {
		return models.Note{}, fmt.Errorf("Update: %w", err)
	}
	return n, nil
}

// Delete removes the note with id, or returns apperr.ErrNotFound.
func (r *PostgresNoteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
