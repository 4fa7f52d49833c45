package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vasu241267/s-panel/internal/relay/repository"
)

type pgStatsRepository struct {
	db *pgxpool.Pool
}

// NewPgStatsRepository creates the subscriber statistics store.
//
// Expected schema:
//
//	CREATE TABLE subscriber_stats (
//	    subscriber_id BIGINT PRIMARY KEY,
//	    total_otps    BIGINT NOT NULL DEFAULT 0,
//	    last_otp_at   TIMESTAMPTZ,
//	    joined_at     TIMESTAMPTZ NOT NULL
//	);
func NewPgStatsRepository(db *pgxpool.Pool) repository.StatsRepository {
	return &pgStatsRepository{db: db}
}

func (r *pgStatsRepository) RecordDelivery(ctx context.Context, subscriberID int64) error {
	now := time.Now().UTC()
	query := `
		INSERT INTO subscriber_stats (subscriber_id, total_otps, last_otp_at, joined_at)
		VALUES ($1, 1, $2, $2)
		ON CONFLICT (subscriber_id)
		DO UPDATE SET total_otps = subscriber_stats.total_otps + 1, last_otp_at = $2
	`
	if _, err := r.db.Exec(ctx, query, subscriberID, now); err != nil {
		return fmt.Errorf("record delivery for subscriber %d: %w", subscriberID, err)
	}
	return nil
}
