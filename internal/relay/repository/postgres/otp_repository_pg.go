package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vasu241267/s-panel/internal/relay/domain"
	"github.com/vasu241267/s-panel/internal/relay/repository"
)

type pgOTPRepository struct {
	db *pgxpool.Pool
}

// NewPgOTPRepository creates the PostgreSQL-backed OTP history store.
//
// Expected schema:
//
//	CREATE TABLE otp_records (
//	    id          UUID PRIMARY KEY,
//	    number      TEXT NOT NULL,
//	    sender      TEXT NOT NULL DEFAULT '',
//	    message     TEXT NOT NULL,
//	    otp         TEXT NOT NULL DEFAULT '',
//	    country     TEXT NOT NULL DEFAULT '',
//	    received_at TIMESTAMPTZ NOT NULL,
//	    inserted_at TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX idx_otp_records_number ON otp_records (number, received_at DESC);
//	CREATE INDEX idx_otp_records_inserted_at ON otp_records (inserted_at);
func NewPgOTPRepository(db *pgxpool.Pool) repository.OTPRepository {
	return &pgOTPRepository{db: db}
}

func (r *pgOTPRepository) Append(ctx context.Context, rec *domain.DeliveryRecord) error {
	rec.InsertedAt = time.Now().UTC()

	query := `
		INSERT INTO otp_records (id, number, sender, message, otp, country, received_at, inserted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		rec.ID, rec.Number, rec.Sender, rec.Message, rec.OTP, rec.Country, rec.ReceivedAt, rec.InsertedAt,
	)
	if err != nil {
		return fmt.Errorf("append otp record: %w", err)
	}
	return nil
}

func (r *pgOTPRepository) QueryByNumber(ctx context.Context, number string, limit int) ([]domain.DeliveryRecord, error) {
	query := `
		SELECT id, number, sender, message, otp, country, received_at, inserted_at
		FROM otp_records
		WHERE number = $1
		ORDER BY received_at DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, number, limit)
	if err != nil {
		return nil, fmt.Errorf("query otp records: %w", err)
	}
	defer rows.Close()

	var records []domain.DeliveryRecord
	for rows.Next() {
		var rec domain.DeliveryRecord
		if err := rows.Scan(
			&rec.ID, &rec.Number, &rec.Sender, &rec.Message, &rec.OTP, &rec.Country, &rec.ReceivedAt, &rec.InsertedAt,
		); err != nil {
			return nil, fmt.Errorf("scan otp record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate otp records: %w", err)
	}
	return records, nil
}

func (r *pgOTPRepository) PurgeOlderThan(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention)
	tag, err := r.db.Exec(ctx, `DELETE FROM otp_records WHERE inserted_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge otp records: %w", err)
	}
	return tag.RowsAffected(), nil
}
