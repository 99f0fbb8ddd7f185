package llm

import (
	"context"
	"sync"
	"time"
)

// RateLimiter enforces a minimum spacing between outbound generation calls.
// A single limiter is shared by every caller in the process; callers arriving
// before the interval has elapsed block until their reserved slot arrives.
type RateLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	// next is the earliest time the next call may go out.
	next time.Time
}

// NewRateLimiter creates a limiter allowing one call per interval. A zero or
// negative interval disables limiting.
func NewRateLimiter(interval time.Duration) *RateLimiter {
	return &RateLimiter{interval: interval}
}

// Wait blocks until the caller's slot arrives or ctx is done. Slots are
// reserved under the mutex so concurrent callers are serialized without
// holding the lock while sleeping.
func (l *RateLimiter) Wait(ctx context.Context) error {
	if l == nil || l.interval <= 0 {
		return nil
	}

	l.mu.Lock()
	now := time.Now()
	slot := l.next
	if slot.Before(now) {
		slot = now
	}
	l.next = slot.Add(l.interval)
	l.mu.Unlock()

	wait := time.Until(slot)
	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
