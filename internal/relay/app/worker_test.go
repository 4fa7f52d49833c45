package app

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vasu241267/s-panel/internal/relay/domain"
)

func privateItem(clock Clock) domain.QueueItem {
	return domain.NewQueueItem(domain.DeliveryTarget{
		Class:        domain.ClassPrivate,
		ChatID:       "9001",
		Payload:      "<b>New OTP Received!</b>",
		Number:       "628123456789",
		SubscriberID: 9001,
	}, clock.Now())
}

func TestWorkerSuccessRecordsStatsAndPaces(t *testing.T) {
	clock := newFakeClock()
	queue := NewQueue(domain.ClassPrivate, 10)
	sender := &scriptedSender{script: []error{nil}}
	stats := new(MockStatsRepository)
	stats.On("RecordDelivery", mock.Anything, int64(9001)).Return(nil)

	w := NewWorker(queue, sender, stats, noopEvents(clock), clock, time.Second, 200*time.Millisecond, testLogger())
	w.process(context.Background(), privateItem(clock))

	assert.Equal(t, 1, sender.callCount())
	stats.AssertExpectations(t)
	require.Len(t, clock.recorded(), 1)
	assert.Equal(t, 200*time.Millisecond, clock.recorded()[0])
	assert.Equal(t, 0, queue.Depth(), "successful item must not be re-enqueued")
}

func TestWorkerBroadcastSuccessSkipsStats(t *testing.T) {
	clock := newFakeClock()
	queue := NewQueue(domain.ClassBroadcast, 10)
	sender := &scriptedSender{script: []error{nil}}
	stats := new(MockStatsRepository)

	item := domain.NewQueueItem(domain.DeliveryTarget{
		Class:   domain.ClassBroadcast,
		ChatID:  "-100777",
		Payload: "broadcast",
		Number:  "628123456789",
	}, clock.Now())

	w := NewWorker(queue, sender, stats, noopEvents(clock), clock, time.Second, 500*time.Millisecond, testLogger())
	w.process(context.Background(), item)

	stats.AssertNotCalled(t, "RecordDelivery", mock.Anything, mock.Anything)
}

func TestWorkerRateLimitedReenqueues(t *testing.T) {
	clock := newFakeClock()
	queue := NewQueue(domain.ClassPrivate, 10)
	sender := &scriptedSender{script: []error{
		&domain.RateLimitedError{RetryAfter: 2 * time.Second},
	}}
	stats := new(MockStatsRepository)

	w := NewWorker(queue, sender, stats, noopEvents(clock), clock, time.Second, 0, testLogger())
	w.process(context.Background(), privateItem(clock))

	// The item must be back at the end of its queue, not dropped.
	require.Equal(t, 1, queue.Depth())
	requeued := <-queue.Items()
	assert.Equal(t, 1, requeued.Attempts)

	// The provider-supplied delay was honored before re-enqueueing.
	require.Len(t, clock.recorded(), 1)
	assert.Equal(t, 2*time.Second, clock.recorded()[0])
	stats.AssertNotCalled(t, "RecordDelivery", mock.Anything, mock.Anything)
}

func TestWorkerRateLimitedThenEventualSuccess(t *testing.T) {
	clock := newFakeClock()
	queue := NewQueue(domain.ClassPrivate, 10)
	sender := &scriptedSender{script: []error{
		&domain.RateLimitedError{RetryAfter: time.Second},
		&domain.RateLimitedError{RetryAfter: time.Second},
		nil,
	}}
	stats := new(MockStatsRepository)
	stats.On("RecordDelivery", mock.Anything, int64(9001)).Return(nil)

	w := NewWorker(queue, sender, stats, noopEvents(clock), clock, time.Second, 0, testLogger())

	require.True(t, queue.Offer(privateItem(clock)))
	// Drain the queue the way Run does until the item stops coming
	// back.
	for i := 0; i < 5 && queue.Depth() > 0; i++ {
		w.process(context.Background(), <-queue.Items())
	}

	assert.Equal(t, 3, sender.callCount(), "two throttled attempts then one success")
	assert.Equal(t, 0, queue.Depth())
	stats.AssertExpectations(t)
}

func TestWorkerPermanentFailureDrops(t *testing.T) {
	clock := newFakeClock()
	queue := NewQueue(domain.ClassPrivate, 10)
	sender := &scriptedSender{script: []error{
		fmt.Errorf("%w: Forbidden: bot was blocked by the user", domain.ErrSendFailed),
	}}
	stats := new(MockStatsRepository)

	w := NewWorker(queue, sender, stats, noopEvents(clock), clock, time.Second, 0, testLogger())
	w.process(context.Background(), privateItem(clock))

	assert.Equal(t, 0, queue.Depth(), "permanently failed item must be dropped")
	assert.Empty(t, clock.recorded(), "no retry sleep for permanent failures")
	stats.AssertNotCalled(t, "RecordDelivery", mock.Anything, mock.Anything)
}

func TestWorkerRateLimitedDropsWhenQueueFull(t *testing.T) {
	clock := newFakeClock()
	queue := NewQueue(domain.ClassPrivate, 1)
	// Fill the queue so the re-enqueue has nowhere to go.
	require.True(t, queue.Offer(privateItem(clock)))

	sender := &scriptedSender{script: []error{
		&domain.RateLimitedError{RetryAfter: time.Second},
	}}
	w := NewWorker(queue, sender, new(MockStatsRepository), noopEvents(clock), clock, time.Second, 0, testLogger())
	w.process(context.Background(), privateItem(clock))

	assert.Equal(t, 1, queue.Depth(), "queue keeps only the pre-existing item")
}

func TestWorkerRunStopsOnCancel(t *testing.T) {
	clock := newFakeClock()
	queue := NewQueue(domain.ClassPrivate, 1)
	w := NewWorker(queue, &scriptedSender{script: []error{nil}},
		new(MockStatsRepository), noopEvents(clock), clock, time.Second, 0, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop on context cancellation")
	}
}
