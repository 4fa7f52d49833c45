package dedup

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasu241267/s-panel/internal/relay/domain"
)

func fingerprintFor(i int) domain.Fingerprint {
	return domain.NewFingerprint(domain.RawRecord{
		ReceivedAt: time.Unix(int64(i), 0),
		Number:     fmt.Sprintf("62812%06d", i),
		Text:       fmt.Sprintf("your code is %06d", i),
	}, 50)
}

func TestSeenFirstThenDuplicate(t *testing.T) {
	w := NewWindow(100)
	fp := fingerprintFor(1)

	assert.False(t, w.Seen(fp), "first call must report not-a-duplicate")
	assert.True(t, w.Seen(fp), "second call must report duplicate")
	assert.True(t, w.Seen(fp))
	assert.Equal(t, 1, w.Len())
}

func TestWindowCapacityAndFIFOEviction(t *testing.T) {
	const capacity = 8
	w := NewWindow(capacity)

	for i := 0; i < capacity; i++ {
		require.False(t, w.Seen(fingerprintFor(i)))
	}
	require.Equal(t, capacity, w.Len())

	// One more insertion evicts the earliest fingerprint, not the
	// least recently looked up.
	require.False(t, w.Seen(fingerprintFor(capacity)))
	assert.Equal(t, capacity, w.Len(), "window must never exceed capacity")

	assert.False(t, w.Seen(fingerprintFor(0)), "oldest entry must have been evicted")

	// Entry 1 is now the oldest; re-inserting 0 evicted it.
	assert.False(t, w.Seen(fingerprintFor(1)))
}

func TestWindowConcurrentSeen(t *testing.T) {
	const goroutines = 16
	w := NewWindow(10000)
	fp := fingerprintFor(42)

	var wg sync.WaitGroup
	notDuplicate := make(chan bool, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !w.Seen(fp) {
				notDuplicate <- true
			}
		}()
	}
	wg.Wait()
	close(notDuplicate)

	assert.Len(t, notDuplicate, 1, "exactly one caller may win the insert")
}

func TestWindowConcurrentDistinct(t *testing.T) {
	const n = 2000
	w := NewWindow(n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w.Seen(fingerprintFor(i))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, n, w.Len())
	for i := 0; i < n; i++ {
		assert.True(t, w.Seen(fingerprintFor(i)))
	}
}

func TestWindowClampsCapacity(t *testing.T) {
	w := NewWindow(0)
	assert.False(t, w.Seen(fingerprintFor(1)))
	assert.Equal(t, 1, w.Len())
}
