package domain

import (
	"time"

	"github.com/google/uuid"
)

// TargetClass separates the two delivery queues. Broadcast and private
// deliveries fail and retry independently; cross-class ordering is not
// guaranteed.
type TargetClass string

const (
	ClassBroadcast TargetClass = "broadcast"
	ClassPrivate   TargetClass = "private"
)

// DeliveryTarget is one destination with its fully rendered payload.
// The router builds payloads; workers only transmit them.
type DeliveryTarget struct {
	Class        TargetClass
	ChatID       string
	Payload      string
	Number       string
	SubscriberID int64
}

// QueueItem wraps a target while it sits in a delivery queue.
// Ownership moves from router to worker on dequeue; the item is gone
// after a successful send or once its retry policy is exhausted.
type QueueItem struct {
	ID         uuid.UUID
	Target     DeliveryTarget
	EnqueuedAt time.Time
	Attempts   int
}

// NewQueueItem stamps a target for enqueueing.
func NewQueueItem(target DeliveryTarget, now time.Time) QueueItem {
	return QueueItem{ID: uuid.New(), Target: target, EnqueuedAt: now}
}
