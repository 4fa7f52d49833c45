// Package repository defines the storage ports of the relay pipeline.
// Implementations live in the postgres and redis subpackages.
package repository

import (
	"context"
	"time"

	"github.com/vasu241267/s-panel/internal/relay/domain"
)

// OTPRepository is the durable history of accepted OTP messages.
// Append and QueryByNumber must be safe to call concurrently; readers
// never observe a half-written row.
type OTPRepository interface {
	// Append inserts one record. Rows are immutable after insert.
	Append(ctx context.Context, rec *domain.DeliveryRecord) error

	// QueryByNumber returns up to limit records for the normalized
	// number, most recent first.
	QueryByNumber(ctx context.Context, number string, limit int) ([]domain.DeliveryRecord, error)

	// PurgeOlderThan deletes records older than the retention window
	// and reports how many rows were removed.
	PurgeOlderThan(ctx context.Context, retention time.Duration) (int64, error)
}

// LeaseRepository resolves which subscriber currently holds a number.
// CurrentLeaseholder returns (nil, nil) when no lease is active. The
// relay only reads leases; the bot layer owns their lifecycle.
type LeaseRepository interface {
	CurrentLeaseholder(ctx context.Context, number string) (*domain.LeaseAssignment, error)
}

// StatsRepository records delivery-success side effects. Increments
// are fire-and-forget from the pipeline's point of view.
type StatsRepository interface {
	// RecordDelivery bumps the subscriber's OTP tally and last-OTP
	// timestamp, creating the stats row when absent.
	RecordDelivery(ctx context.Context, subscriberID int64) error
}
