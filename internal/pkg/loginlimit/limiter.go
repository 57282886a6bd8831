// Package loginlimit blocks repeated authentication failures per key.
//
// The window is fixed, anchored at the first failure — it does not slide
// with each new failure. State is in-memory only: the limiter is best-effort
// brute-force protection, not a durable audit trail, and deliberately does
// not survive a restart.
package loginlimit

import (
	"sync"
	"time"
)

type attempt struct {
	count          int
	firstFailureAt time.Time
}

// Limiter counts login failures per key (e.g. "email:ip") and reports when a
// key has exceeded maxAttempts inside the window. Stale entries are removed
// lazily when next observed; there is no background sweep.
type Limiter struct {
	mu       sync.Mutex
	attempts map[string]*attempt

	maxAttempts int
	window      time.Duration
	now         func() time.Time
}

// New creates a Limiter. now may be nil, in which case time.Now is used;
// tests inject a fake clock to pin window boundaries.
func New(maxAttempts int, window time.Duration, now func() time.Time) *Limiter {
	if now == nil {
		now = time.Now
	}
	return &Limiter{
		attempts:    make(map[string]*attempt),
		maxAttempts: maxAttempts,
		window:      window,
		now:         now,
	}
}

// IsBlocked reports whether key has reached the failure threshold inside the
// active window. A stale entry (window elapsed since the first failure) is
// deleted, not merely ignored.
func (l *Limiter) IsBlocked(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.attempts[key]
	if !ok {
		return false
	}
	if l.now().Sub(a.firstFailureAt) > l.window {
		delete(l.attempts, key)
		return false
	}
	return a.count >= l.maxAttempts
}

// RecordFailure counts one failed attempt for key. The first failure in a
// window (including the first after a stale entry) anchors the window.
func (l *Limiter) RecordFailure(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.attempts[key]
	if !ok || l.now().Sub(a.firstFailureAt) > l.window {
		l.attempts[key] = &attempt{count: 1, firstFailureAt: l.now()}
		return
	}
	a.count++
}

// Reset clears all recorded failures for key. Called on successful login.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.attempts, key)
}
