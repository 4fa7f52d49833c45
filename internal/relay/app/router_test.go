package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vasu241267/s-panel/internal/relay/domain"
)

func sampleRecord() domain.RawRecord {
	return domain.RawRecord{
		ReceivedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Number:     "628123456789",
		Sender:     "WhatsApp",
		Text:       "Your OTP is 4821, valid 5 min",
	}
}

func TestRouteBroadcastOnlyWithoutLease(t *testing.T) {
	leases := new(MockLeaseRepository)
	leases.On("CurrentLeaseholder", mock.Anything, "628123456789").Return(nil, nil)

	r := NewRouter(leases, "-100777", 300, testLogger())
	otp := domain.ExtractedOTP{Code: "4821", Confidence: domain.ConfidenceKeyword}

	targets := r.Route(context.Background(), sampleRecord(), "628123456789", otp)
	require.Len(t, targets, 1)
	assert.Equal(t, domain.ClassBroadcast, targets[0].Class)
	assert.Equal(t, "-100777", targets[0].ChatID)

	// Public payload carries the masked number, never the full one.
	assert.Contains(t, targets[0].Payload, domain.MaskNumber("628123456789"))
	assert.NotContains(t, targets[0].Payload, "628123456789")
	assert.Contains(t, targets[0].Payload, "4821")
	leases.AssertExpectations(t)
}

func TestRouteBroadcastAndPrivateWithLease(t *testing.T) {
	leases := new(MockLeaseRepository)
	leases.On("CurrentLeaseholder", mock.Anything, "628123456789").Return(
		&domain.LeaseAssignment{Number: "628123456789", SubscriberID: 9001, LeasedAt: time.Now()}, nil)

	r := NewRouter(leases, "-100777", 300, testLogger())
	otp := domain.ExtractedOTP{Code: "4821", Confidence: domain.ConfidenceKeyword}

	targets := r.Route(context.Background(), sampleRecord(), "628123456789", otp)
	require.Len(t, targets, 2)

	broadcast, private := targets[0], targets[1]
	assert.Equal(t, domain.ClassBroadcast, broadcast.Class)
	assert.Equal(t, domain.ClassPrivate, private.Class)
	assert.Equal(t, "9001", private.ChatID)
	assert.Equal(t, int64(9001), private.SubscriberID)

	// Private payload shows the unmasked number and full text.
	assert.Contains(t, private.Payload, "628123456789")
	assert.Contains(t, private.Payload, "Your OTP is 4821, valid 5 min")

	// Broadcast stays masked.
	assert.NotContains(t, broadcast.Payload, "628123456789")
}

func TestRoutePrivateOnlyWhenBroadcastDisabled(t *testing.T) {
	leases := new(MockLeaseRepository)
	leases.On("CurrentLeaseholder", mock.Anything, "628123456789").Return(
		&domain.LeaseAssignment{Number: "628123456789", SubscriberID: 7, LeasedAt: time.Now()}, nil)

	r := NewRouter(leases, "", 300, testLogger())
	targets := r.Route(context.Background(), sampleRecord(), "628123456789", domain.ExtractedOTP{})
	require.Len(t, targets, 1)
	assert.Equal(t, domain.ClassPrivate, targets[0].Class)
}

func TestRouteLeaseLookupFailureDegradesToBroadcast(t *testing.T) {
	leases := new(MockLeaseRepository)
	leases.On("CurrentLeaseholder", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))

	r := NewRouter(leases, "-100777", 300, testLogger())
	targets := r.Route(context.Background(), sampleRecord(), "628123456789", domain.ExtractedOTP{})
	require.Len(t, targets, 1)
	assert.Equal(t, domain.ClassBroadcast, targets[0].Class)
}

func TestRouteBroadcastTruncatesPreview(t *testing.T) {
	leases := new(MockLeaseRepository)
	leases.On("CurrentLeaseholder", mock.Anything, mock.Anything).Return(nil, nil)

	rec := sampleRecord()
	long := make([]byte, 0, 400)
	for i := 0; i < 400; i++ {
		long = append(long, 'x')
	}
	rec.Text = string(long)

	r := NewRouter(leases, "-100777", 300, testLogger())
	targets := r.Route(context.Background(), rec, "628123456789", domain.ExtractedOTP{})
	require.Len(t, targets, 1)

	// 301 consecutive x's would mean the preview was not truncated.
	assert.NotContains(t, targets[0].Payload, string(long[:301]))
	assert.Contains(t, targets[0].Payload, string(long[:300]))
}

func TestRouteOmitsOTPLineWhenNotFound(t *testing.T) {
	leases := new(MockLeaseRepository)
	leases.On("CurrentLeaseholder", mock.Anything, mock.Anything).Return(nil, nil)

	r := NewRouter(leases, "-100777", 300, testLogger())
	targets := r.Route(context.Background(), sampleRecord(), "628123456789", domain.ExtractedOTP{Confidence: domain.ConfidenceNone})
	require.Len(t, targets, 1)
	assert.NotContains(t, targets[0].Payload, "<b>OTP:</b>")
}
