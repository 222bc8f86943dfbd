package db

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

// StartContactPruner deletes stale recent-share contacts with interval
func StartContactPruner(
	ctx context.Context,
	db *sql.DB,
	interval time.Duration,
	retention time.Duration,
	log *zap.Logger,
) {
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
                    DELETE FROM shared_contacts
                     WHERE last_shared_at < $1
                `, cutoff)
				if err != nil {
					log.Error("failed to prune stale share contacts", zap.Error(err))
					continue
				}
				if rows, _ := res.RowsAffected(); rows > 0 {
					log.Info("pruned stale share contacts", zap.Int64("removed", rows))
				}
			}
		}
	}()
}
