package db

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

// StartInvitationCleaner periodically deletes consumed invitations whose expiry
// is older than retention. Open invitations are never touched, expired or not.
// A non-positive interval disables the cleaner.
func StartInvitationCleaner(
	ctx context.Context,
	db *sql.DB,
	interval time.Duration,
	retention time.Duration,
	log *zap.Logger,
) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cutoff := time.Now().Add(-retention)
				res, err := db.ExecContext(ctx, `
                    DELETE FROM invitations
                     WHERE resolved = 1
                       AND expires_at < $1
                `, cutoff)
				if err != nil {
					log.Error("failed to clean consumed invitations", zap.Error(err))
					continue
				}
				if rows, _ := res.RowsAffected(); rows > 0 {
					log.Info("cleaned consumed invitations", zap.Int64("removed", rows))
				}
			}
		}
	}()
}
