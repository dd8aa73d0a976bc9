package capability

import (
	"sync"
	"time"
)

// Limiter allows a fixed number of attempts per key inside a sliding window.
type Limiter struct {
	mu       sync.Mutex
	max      int
	window   time.Duration
	attempts map[string][]time.Time
	now      func() time.Time
}

// NewLimiter creates a limiter allowing max attempts per window.
func NewLimiter(max int, window time.Duration) *Limiter {
	return &Limiter{
		max:      max,
		window:   window,
		attempts: make(map[string][]time.Time),
		now:      time.Now,
	}
}

// Allow records an attempt for key and reports whether it is within the limit.
// Rejected attempts are not recorded.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	kept := l.attempts[key][:0]
	for _, at := range l.attempts[key] {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}

	if len(kept) >= l.max {
		l.attempts[key] = kept
		return false
	}
	l.attempts[key] = append(kept, now)

	// Drop idle keys.
	for k, ts := range l.attempts {
		if k != key && len(ts) > 0 && !ts[len(ts)-1].After(cutoff) {
			delete(l.attempts, k)
		}
	}
	return true
}
