package app

import (
	"context"
	"time"
)

// Clock abstracts time for the poller and workers so tests can run the
// pacing and backoff logic without wall-clock sleeps.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is cancelled, whichever is first.
	Sleep(ctx context.Context, d time.Duration)
}

type realClock struct{}

// NewClock returns the wall-clock implementation.
func NewClock() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now().UTC() }

func (realClock) Sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
