package loginlimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock advances only when told to, so window boundaries are exact.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestThreshold(t *testing.T) {
	clock := newFakeClock()
	l := New(3, time.Minute, clock.Now)

	l.RecordFailure("alice:1.2.3.4")
	assert.False(t, l.IsBlocked("alice:1.2.3.4"))
	l.RecordFailure("alice:1.2.3.4")
	assert.False(t, l.IsBlocked("alice:1.2.3.4"))
	l.RecordFailure("alice:1.2.3.4")
	assert.True(t, l.IsBlocked("alice:1.2.3.4"))
}

func TestUnknownKeyIsNotBlocked(t *testing.T) {
	l := New(1, time.Minute, newFakeClock().Now)
	assert.False(t, l.IsBlocked("nobody"))
}

func TestWindowExpiry_RemovesEntry(t *testing.T) {
	clock := newFakeClock()
	l := New(2, time.Second, clock.Now)

	l.RecordFailure("k")
	l.RecordFailure("k")
	assert.True(t, l.IsBlocked("k"))

	clock.Advance(2 * time.Second)
	assert.False(t, l.IsBlocked("k"))

	// The stale entry was deleted, so the next failure starts a fresh window.
	l.RecordFailure("k")
	assert.False(t, l.IsBlocked("k"))
}

func TestWindowDoesNotSlide(t *testing.T) {
	clock := newFakeClock()
	l := New(2, 10*time.Second, clock.Now)

	l.RecordFailure("k")
	clock.Advance(9 * time.Second)
	// A later failure does not move the anchor.
	l.RecordFailure("k")
	assert.True(t, l.IsBlocked("k"))

	// 11s past the *first* failure the window is stale, even though the
	// second failure was only 2s ago.
	clock.Advance(2 * time.Second)
	assert.False(t, l.IsBlocked("k"))
}

func TestExactWindowBoundaryStillActive(t *testing.T) {
	clock := newFakeClock()
	l := New(1, time.Second, clock.Now)

	l.RecordFailure("k")
	clock.Advance(time.Second) // exactly windowMs: not yet stale
	assert.True(t, l.IsBlocked("k"))
}

func TestReset(t *testing.T) {
	clock := newFakeClock()
	l := New(2, time.Minute, clock.Now)

	l.RecordFailure("k")
	l.Reset("k")
	assert.False(t, l.IsBlocked("k"))

	// A fresh failure after reset starts a new count, not a continuation.
	l.RecordFailure("k")
	assert.False(t, l.IsBlocked("k"))
	l.RecordFailure("k")
	assert.True(t, l.IsBlocked("k"))
}

func TestKeysAreIndependent(t *testing.T) {
	clock := newFakeClock()
	l := New(1, time.Minute, clock.Now)

	l.RecordFailure("a")
	assert.True(t, l.IsBlocked("a"))
	assert.False(t, l.IsBlocked("b"))
}

func TestConcurrentAccess(t *testing.T) {
	l := New(1000, time.Minute, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				l.RecordFailure("shared")
				l.IsBlocked("shared")
			}
		}()
	}
	wg.Wait()
	assert.True(t, l.IsBlocked("shared"))
}
