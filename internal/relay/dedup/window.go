// Package dedup provides the fixed-capacity recency window the poller
// uses to recognize upstream re-deliveries. Eviction is strictly FIFO:
// the oldest insertion goes first regardless of how recently it was
// looked up, which bounds memory at the cost of re-admitting very old
// duplicates. Upstream retention is far shorter than the window, so
// that trade-off is acceptable.
package dedup

import (
	"sync"

	"github.com/vasu241267/s-panel/internal/relay/domain"
)

// Window is a concurrency-safe insertion-ordered fingerprint set.
type Window struct {
	mu       sync.Mutex
	capacity int
	present  map[domain.Fingerprint]struct{}
	order    []domain.Fingerprint
	head     int
}

// NewWindow creates a window holding at most capacity fingerprints.
// Capacities below 1 are clamped to 1.
func NewWindow(capacity int) *Window {
	if capacity < 1 {
		capacity = 1
	}
	return &Window{
		capacity: capacity,
		present:  make(map[domain.Fingerprint]struct{}, capacity),
		order:    make([]domain.Fingerprint, capacity),
	}
}

// Seen atomically checks membership and inserts fp when absent. It
// returns true when fp was already in the window (a duplicate at call
// time). When insertion overflows capacity, the oldest fingerprint is
// evicted.
func (w *Window) Seen(fp domain.Fingerprint) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.present[fp]; ok {
		return true
	}

	if len(w.present) == w.capacity {
		oldest := w.order[w.head]
		delete(w.present, oldest)
	}
	w.order[w.head] = fp
	w.head = (w.head + 1) % w.capacity
	w.present[fp] = struct{}{}
	return false
}

// Len reports the current number of tracked fingerprints.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.present)
}
