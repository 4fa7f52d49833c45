package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/vasu241267/s-panel/internal/relay/domain"
	"github.com/vasu241267/s-panel/internal/relay/repository"
)

// MessageSender is the slice of the messenger client workers need;
// tests substitute a scripted implementation. A nil error is a
// confirmed delivery, *domain.RateLimitedError a throttle, anything
// else a permanent failure.
type MessageSender interface {
	Send(ctx context.Context, chatID, payload string) error
}

// Worker drains one delivery queue. Several workers may share a queue;
// each paces its own sends so the pool as a whole stays inside the
// messaging API's global limits.
//
// Outcome policy: success records side effects and moves on;
// rate-limiting sleeps the provider-supplied delay and re-enqueues the
// same item at the back of its own queue (at-least-once delivery);
// any other failure drops the item so a permanently broken destination
// cannot start a retry storm.
type Worker struct {
	queue       *Queue
	sender      MessageSender
	stats       repository.StatsRepository
	events      *EventPublisher
	clock       Clock
	sendTimeout time.Duration
	pace        time.Duration
	logger      *slog.Logger
}

// NewWorker wires one worker to its queue. stats and events may be
// shared across workers; both are safe for concurrent use.
func NewWorker(queue *Queue, sender MessageSender, stats repository.StatsRepository, events *EventPublisher, clock Clock, sendTimeout, pace time.Duration, logger *slog.Logger) *Worker {
	return &Worker{
		queue:       queue,
		sender:      sender,
		stats:       stats,
		events:      events,
		clock:       clock,
		sendTimeout: sendTimeout,
		pace:        pace,
		logger:      logger.With("component", "worker", "class", string(queue.Class())),
	}
}

// Run drains the queue until ctx is cancelled. The in-flight send is
// allowed to finish or time out; items still queued at shutdown are
// abandoned, which is acceptable for time-sensitive OTPs.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case item := <-w.queue.Items():
			queueDepthGauge.WithLabelValues(string(w.queue.Class())).Set(float64(w.queue.Depth()))
			w.process(ctx, item)
		}
	}
}

func (w *Worker) process(ctx context.Context, item domain.QueueItem) {
	class := string(item.Target.Class)
	item.Attempts++

	sendCtx, cancel := context.WithTimeout(ctx, w.sendTimeout)
	err := w.sender.Send(sendCtx, item.Target.ChatID, item.Target.Payload)
	cancel()

	if err == nil {
		deliveredCounter.WithLabelValues(class).Inc()
		if item.Target.Class == domain.ClassPrivate && item.Target.SubscriberID != 0 {
			if statsErr := w.stats.RecordDelivery(ctx, item.Target.SubscriberID); statsErr != nil {
				w.logger.WarnContext(ctx, "stats update failed", "subscriber_id", item.Target.SubscriberID, "error", statsErr)
			}
		}
		w.events.Delivered(ctx, item)
		w.clock.Sleep(ctx, w.pace)
		return
	}

	if rl, ok := domain.IsRateLimited(err); ok {
		rateLimitedCounter.WithLabelValues(class).Inc()
		w.logger.InfoContext(ctx, "rate limited", "retry_after", rl.RetryAfter, "item_id", item.ID)
		w.clock.Sleep(ctx, rl.RetryAfter)
		if ctx.Err() != nil {
			return
		}
		if !w.queue.Offer(item) {
			w.logger.WarnContext(ctx, "queue full on re-enqueue, dropping item", "item_id", item.ID)
			w.events.Dropped(ctx, item, "queue_full")
		}
		return
	}

	sendFailuresCounter.WithLabelValues(class).Inc()
	w.logger.ErrorContext(ctx, "send failed, dropping item",
		"item_id", item.ID,
		"chat_id", item.Target.ChatID,
		"error", err,
	)
	w.events.Dropped(ctx, item, "send_failed")
}
