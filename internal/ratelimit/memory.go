package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter implements Limiter with an in-process map. It matches the
// Redis semantics but shares nothing across instances; used for tests and
// for running without Redis configured.
type MemoryLimiter struct {
	mu     sync.Mutex
	events map[string][]time.Time
	now    func() time.Time
}

// NewMemoryLimiter constructs an in-process limiter.
func NewMemoryLimiter(now func() time.Time) *MemoryLimiter {
	if now == nil {
		now = time.Now
	}
	return &MemoryLimiter{
		events: make(map[string][]time.Time),
		now:    now,
	}
}

// CheckAndRecord counts events inside the trailing window and records a new
// one when under maxCount.
func (l *MemoryLimiter) CheckAndRecord(ctx context.Context, userID, operation string, maxCount int, window time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return true, err
	}
	key := operation + "|" + userID
	now := l.now()
	cutoff := now.Add(-window)

	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.events[key][:0]
	for _, ts := range l.events[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	l.events[key] = kept

	if len(kept) >= maxCount {
		return false, nil
	}
	l.events[key] = append(kept, now)
	return true, nil
}

var _ Limiter = (*MemoryLimiter)(nil)
