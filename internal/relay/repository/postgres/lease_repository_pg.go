package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vasu241267/s-panel/internal/relay/domain"
	"github.com/vasu241267/s-panel/internal/relay/repository"
)

type pgLeaseRepository struct {
	db *pgxpool.Pool
}

// NewPgLeaseRepository reads the lease table owned by the bot layer.
//
// Expected schema:
//
//	CREATE TABLE number_leases (
//	    number        TEXT PRIMARY KEY,
//	    subscriber_id BIGINT NOT NULL,
//	    leased_at     TIMESTAMPTZ NOT NULL
//	);
func NewPgLeaseRepository(db *pgxpool.Pool) repository.LeaseRepository {
	return &pgLeaseRepository{db: db}
}

func (r *pgLeaseRepository) CurrentLeaseholder(ctx context.Context, number string) (*domain.LeaseAssignment, error) {
	lease := &domain.LeaseAssignment{}
	query := `
		SELECT number, subscriber_id, leased_at
		FROM number_leases
		WHERE number = $1
	`
	err := r.db.QueryRow(ctx, query, number).Scan(&lease.Number, &lease.SubscriberID, &lease.LeasedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("lookup lease for %s: %w", number, err)
	}
	return lease, nil
}
