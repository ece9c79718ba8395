// Package maintenance runs periodic housekeeping jobs.
package maintenance

import (
	"context"
	"log/slog"
	"time"
)

// DefaultSweepInterval is how often expired unlocks are purged.
const DefaultSweepInterval = 5 * time.Minute

// ExpiredUnlockDeleter removes unlocks that expired at or before now.
type ExpiredUnlockDeleter interface {
	DeleteExpiredUnlocks(ctx context.Context, now time.Time) (int64, error)
}

// StartUnlockSweeper runs a background goroutine that periodically deletes
// expired unlocks until ctx is cancelled. The returned channel is closed when
// the goroutine exits.
func StartUnlockSweeper(ctx context.Context, store ExpiredUnlockDeleter, interval time.Duration, logger *slog.Logger) <-chan struct{} {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if logger == nil {
		logger = slog.Default()
	}

	done := make(chan struct{})
	ticker := time.NewTicker(interval)
	go func() {
		defer close(done)
		defer ticker.Stop()
		logger.Info("Unlock sweeper started", "interval", interval)

		for {
			select {
			case <-ticker.C:
				SweepUnlocks(ctx, store, time.Now(), logger)
			case <-ctx.Done():
				logger.Info("Unlock sweeper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
	return done
}

// SweepUnlocks performs one purge pass and returns the number of deleted unlocks.
func SweepUnlocks(ctx context.Context, store ExpiredUnlockDeleter, now time.Time, logger *slog.Logger) int64 {
	deleted, err := store.DeleteExpiredUnlocks(ctx, now)
	if err != nil {
		if ctx.Err() != nil {
			logger.Debug("Unlock sweep interrupted", "error", err)
			return 0
		}
		logger.Error("Unlock sweeper failed to delete expired unlocks", "error", err)
		return 0
	}
	if deleted > 0 {
		logger.Info("Unlock sweeper removed expired unlocks", "count", deleted)
	}
	return deleted
}
