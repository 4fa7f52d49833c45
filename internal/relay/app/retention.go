package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/vasu241267/s-panel/internal/relay/repository"
)

// RetentionSweeper periodically removes history rows older than the
// retention window. OTPs lose their value in minutes; keeping a week
// of history covers the bot layer's "past OTPs" view without letting
// the table grow forever.
type RetentionSweeper struct {
	store     repository.OTPRepository
	retention time.Duration
	interval  time.Duration
	clock     Clock
	logger    *slog.Logger
}

// NewRetentionSweeper builds a sweeper.
func NewRetentionSweeper(store repository.OTPRepository, retention, interval time.Duration, clock Clock, logger *slog.Logger) *RetentionSweeper {
	return &RetentionSweeper{
		store:     store,
		retention: retention,
		interval:  interval,
		clock:     clock,
		logger:    logger.With("component", "retention"),
	}
}

// Run sweeps on the configured interval until ctx is cancelled. A
// failed sweep logs and waits for the next tick.
func (s *RetentionSweeper) Run(ctx context.Context) error {
	for {
		s.clock.Sleep(ctx, s.interval)
		if err := ctx.Err(); err != nil {
			return err
		}

		removed, err := s.store.PurgeOlderThan(ctx, s.retention)
		if err != nil {
			s.logger.ErrorContext(ctx, "retention sweep failed", "error", err)
			continue
		}
		retentionPurgedCounter.Add(float64(removed))
		if removed > 0 {
			s.logger.InfoContext(ctx, "retention sweep complete", "rows_removed", removed)
		}
	}
}
