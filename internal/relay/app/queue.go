package app

import (
	"github.com/vasu241267/s-panel/internal/relay/domain"
)

// Queue is a bounded delivery queue for one destination class. It is
// a thin wrapper over a buffered channel: multi-producer, multi-
// consumer, and never blocking on the producer side. When the buffer
// is full, Offer drops the item and counts the drop; ingestion must
// not stall because delivery is behind.
type Queue struct {
	class domain.TargetClass
	items chan domain.QueueItem
}

// NewQueue creates a queue for class holding at most capacity items.
func NewQueue(class domain.TargetClass, capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{
		class: class,
		items: make(chan domain.QueueItem, capacity),
	}
}

// Offer attempts a non-blocking enqueue. The drop path is observable
// through the queue_dropped_total counter and the caller's logs.
func (q *Queue) Offer(item domain.QueueItem) bool {
	select {
	case q.items <- item:
		enqueuedCounter.WithLabelValues(string(q.class)).Inc()
		queueDepthGauge.WithLabelValues(string(q.class)).Set(float64(len(q.items)))
		return true
	default:
		queueDroppedCounter.WithLabelValues(string(q.class)).Inc()
		return false
	}
}

// Items exposes the receive side for workers. Receiving transfers
// ownership of the item to the worker.
func (q *Queue) Items() <-chan domain.QueueItem {
	return q.items
}

// Depth reports the current number of queued items.
func (q *Queue) Depth() int {
	return len(q.items)
}

// Class identifies the destination class this queue serves.
func (q *Queue) Class() domain.TargetClass {
	return q.class
}
