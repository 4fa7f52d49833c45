package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

// RawRecord is one upstream message exactly as the panel reported it.
// The number is still in provider format; NormalizeNumber produces the
// canonical key. Records are ephemeral: produced once per poll cycle
// and consumed immediately.
type RawRecord struct {
	ReceivedAt    time.Time `validate:"required"`
	Number        string    `validate:"required"`
	Sender        string
	Text          string `validate:"required"`
	SourceCountry string
}

// Fingerprint identifies one upstream delivery for duplicate
// detection. It is derived, never persisted, and meaningful only
// within the dedup recency window.
type Fingerprint [32]byte

// NewFingerprint hashes (receivedAt, number, text[:textLen]). The text
// truncation is intentionally lossy; textLen is configurable so
// operators worried about near-identical long bodies can widen it.
func NewFingerprint(r RawRecord, textLen int) Fingerprint {
	text := r.Text
	if textLen > 0 && len(text) > textLen {
		text = text[:textLen]
	}
	payload := fmt.Sprintf("%d|%s|%s", r.ReceivedAt.Unix(), r.Number, text)
	return blake2b.Sum256([]byte(payload))
}

// NormalizeNumber strips the plus sign, leading zeros and surrounding
// whitespace, yielding the canonical lookup/storage key. It is
// idempotent: NormalizeNumber(NormalizeNumber(x)) == NormalizeNumber(x).
func NormalizeNumber(number string) string {
	n := strings.TrimSpace(number)
	n = strings.TrimLeft(n, "+")
	n = strings.TrimLeft(n, "0")
	return n
}

// DeliveryRecord is the persisted history row for one accepted
// (non-duplicate) upstream message. Rows are append-only; only the
// retention sweep or an explicit purge removes them.
type DeliveryRecord struct {
	ID         uuid.UUID
	Number     string
	Sender     string
	Message    string
	OTP        string
	Country    string
	ReceivedAt time.Time
	InsertedAt time.Time
}

// NewDeliveryRecord builds a record for the normalized number with a
// fresh ID. InsertedAt is set by the repository on write.
func NewDeliveryRecord(number, sender, message, otp, country string, receivedAt time.Time) *DeliveryRecord {
	return &DeliveryRecord{
		ID:         uuid.New(),
		Number:     number,
		Sender:     sender,
		Message:    message,
		OTP:        otp,
		Country:    country,
		ReceivedAt: receivedAt,
	}
}
