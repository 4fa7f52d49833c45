package app

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/vasu241267/s-panel/internal/relay/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- Mocks ---

type MockLeaseRepository struct {
	mock.Mock
}

func (m *MockLeaseRepository) CurrentLeaseholder(ctx context.Context, number string) (*domain.LeaseAssignment, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LeaseAssignment), args.Error(1)
}

type MockStatsRepository struct {
	mock.Mock
}

func (m *MockStatsRepository) RecordDelivery(ctx context.Context, subscriberID int64) error {
	args := m.Called(ctx, subscriberID)
	return args.Error(0)
}

type MockOTPRepository struct {
	mock.Mock
}

func (m *MockOTPRepository) Append(ctx context.Context, rec *domain.DeliveryRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockOTPRepository) QueryByNumber(ctx context.Context, number string, limit int) ([]domain.DeliveryRecord, error) {
	args := m.Called(ctx, number, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DeliveryRecord), args.Error(1)
}

func (m *MockOTPRepository) PurgeOlderThan(ctx context.Context, retention time.Duration) (int64, error) {
	args := m.Called(ctx, retention)
	return args.Get(0).(int64), args.Error(1)
}

type MockUpstreamSource struct {
	mock.Mock
}

func (m *MockUpstreamSource) FetchRecent(ctx context.Context, limit int) ([]domain.RawRecord, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RawRecord), args.Error(1)
}

func (m *MockUpstreamSource) Reauthenticate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// --- Fakes ---

// fakeClock advances a fixed instant and records sleeps instead of
// waiting them out.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
}

func (c *fakeClock) recorded() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]time.Duration, len(c.sleeps))
	copy(out, c.sleeps)
	return out
}

// scriptedSender returns pre-programmed send results in order,
// repeating the final one once the script runs out.
type scriptedSender struct {
	mu       sync.Mutex
	script   []error
	calls    []string
	payloads []string
}

func (s *scriptedSender) Send(ctx context.Context, chatID, payload string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, chatID)
	s.payloads = append(s.payloads, payload)

	idx := len(s.calls) - 1
	if idx >= len(s.script) {
		idx = len(s.script) - 1
	}
	return s.script[idx]
}

func (s *scriptedSender) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func noopEvents(clock Clock) *EventPublisher {
	return NewEventPublisher(nil, clock, testLogger())
}
