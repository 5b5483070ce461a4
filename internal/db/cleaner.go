package db

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

// StartTokenCleaner deletes bearer tokens older than maxAge with interval
func StartTokenCleaner(
	ctx context.Context,
	conn *sql.DB,
	interval time.Duration,
	maxAge time.Duration,
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
				cutoff := time.Now().UTC().Add(-maxAge).Format(time.RFC3339)
				res, err := conn.ExecContext(ctx, `
                    DELETE FROM tokens
                     WHERE created_at < ?
                `, cutoff)
				if err != nil {
					log.Error("failed to clean expired tokens", zap.Error(err))
					continue
				}
				if rows, _ := res.RowsAffected(); rows > 0 {
					log.Info("cleaned expired tokens", zap.Int64("removed", rows))
				}
			}
		}
	}()
}
