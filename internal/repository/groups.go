package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/NoteKeeper/internal/apperr"
	"github.com/atinyakov/NoteKeeper/internal/db"
	"github.com/atinyakov/NoteKeeper/internal/models"
	"github.com/lib/pq"
)

// PostgresGroupRepository implements group and membership persistence.
type PostgresGroupRepository struct {
	// DB is the database handle for executing queries and transactions.
	DB *sql.DB
}

// NewPostgresGroupRepository creates a new PostgresGroupRepository using the provided *sql.DB.
func NewPostgresGroupRepository(db *sql.DB) *PostgresGroupRepository {
	return &PostgresGroupRepository{DB: db}
}

const groupColumns = `id, created_at, created_by, name, color`

func scanGroup(s scanner) (models.Group, error) {
	var g models.Group
	err := s.Scan(&g.ID, &g.CreatedAt.Time, &g.CreatedBy, &g.Name, &g.Color)
	return g, err
}

// ListByMember returns the groups userID holds a link into.
func (r *PostgresGroupRepository) ListByMember(ctx context.Context, userID string) ([]models.Group, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT group_id FROM group_links WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("ListByMember: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("ListByMember: scan: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByMember: %w", err)
	}

	groups := make([]models.Group, 0, len(ids))
	if len(ids) == 0 {
		return groups, nil
	}

	rows, err = r.DB.QueryContext(ctx,
		`SELECT `+groupColumns+` FROM groups WHERE id = ANY($1) ORDER BY created_at`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("ListByMember: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("ListByMember: scan: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByMember: %w", err)
	}
	return groups, nil
}

// GetByID returns the group with id, or apperr.ErrNotFound.
func (r *PostgresGroupRepository) GetByID(ctx context.Context, id string) (models.Group, error) {
	g, err := scanGroup(r.DB.QueryRowContext(ctx, `SELECT `+groupColumns+` FROM groups WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Group{}, apperr.ErrNotFound
	}
	if err != nil {
		return models.Group{}, fmt.Errorf("GetByID: %w", err)
	}
	return g, nil
}

// Insert stores a new group.
func (r *PostgresGroupRepository) Insert(ctx context.Context, g models.Group) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO groups (`+groupColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		g.ID, g.CreatedAt.Time, g.CreatedBy, g.Name, g.Color,
	)
	if err != nil {
		return fmt.Errorf("Insert: %w", err)
	}
	return nil
}

// IsMember checks whether userID holds a link into groupID.
func (r *PostgresGroupRepository) IsMember(ctx context.Context, userID, groupID string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM group_links WHERE user_id = $1 AND group_id = $2)`,
		userID, groupID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("IsMember: %w", err)
	}
	return exists, nil
}

// AddMember stores link. Joining a group twice keeps the first link.
func (r *PostgresGroupRepository) AddMember(ctx context.Context, link models.GroupLink) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO group_links (id, group_id, user_id) VALUES ($1, $2, $3) ON CONFLICT (group_id, user_id) DO NOTHING`,
		link.ID, link.GroupID, link.UserID,
	)
	if err != nil {
		return fmt.Errorf("AddMember: %w", err)
	}
	return nil
}

// RemoveMember deletes the link of userID into groupID, or returns apperr.ErrNotFound.
func (r *PostgresGroupRepository) RemoveMember(ctx context.Context, groupID, userID string) error {
	res, err := r.DB.ExecContext(ctx,
		`DELETE FROM group_links WHERE group_id = $1 AND user_id = $2`, groupID, userID)
	if err != nil {
		return fmt.Errorf("RemoveMember: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("RemoveMember: %w", err)
	} else if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// Delete removes a group in one transaction: notes shared with it become
// unshared, then its links are deleted, then the group itself.
func (r *PostgresGroupRepository) Delete(ctx context.Context, groupID string) error {
	err := db.WithTx(ctx, r.DB, nil, func(ctx context.Context, tx db.DBTX) error {
		if _, err := tx.ExecContext(ctx, `UPDATE notes SET group_id = NULL WHERE group_id = $1`, groupID); err != nil {
			return fmt.Errorf("unshare notes: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM group_links WHERE group_id = $1`, groupID); err != nil {
			return fmt.Errorf("delete links: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM groups WHERE id = $1`, groupID)
		if err != nil {
			return fmt.Errorf("delete group: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete group: %w", err)
		}
		if n == 0 {
			return apperr.ErrNotFound
		}
		return nil
	})
	if errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	return nil
}
