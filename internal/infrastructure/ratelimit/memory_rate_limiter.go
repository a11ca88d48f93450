package ratelimit

import (
	"context"
	"sync"
	"time"

	domainErrors "github.com/Conava/Fortalis-Auth/internal/domain/errors"
	domainService "github.com/Conava/Fortalis-Auth/internal/domain/service"
)

// bucket is one fixed-window counter. Each bucket has its own mutex so
// contention on one key never blocks another.
type bucket struct {
	mu      sync.Mutex
	count   int
	resetAt time.Time
}

// MemoryRateLimiter is an in-process fixed-window limiter. Buckets are
// created lazily per key and evaluated against the wall clock at access
// time; no background timers are involved.
type MemoryRateLimiter struct {
	mu      sync.RWMutex
	buckets map[string]*bucket
	now     func() time.Time
}

// NewMemoryRateLimiter creates an empty limiter.
func NewMemoryRateLimiter() *MemoryRateLimiter {
	return &MemoryRateLimiter{
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

// CheckAndConsume consumes one attempt for key within a fixed window.
func (l *MemoryRateLimiter) CheckAndConsume(_ context.Context, key string, maxAttempts int, window time.Duration) error {
	b := l.bucketFor(key)

	b.mu.Lock()
	defer b.mu.Unlock()

	now := l.now()
	if !now.Before(b.resetAt) {
		b.count = 0
		b.resetAt = now.Add(window)
	}
	if b.count >= maxAttempts {
		return &domainErrors.RateLimitError{Key: key, RetryAfter: b.resetAt.Sub(now)}
	}
	b.count++
	return nil
}

// Clear removes the bucket for key unconditionally.
func (l *MemoryRateLimiter) Clear(_ context.Context, key string) error {
	l.mu.Lock()
	delete(l.buckets, key)
	l.mu.Unlock()
	return nil
}

func (l *MemoryRateLimiter) bucketFor(key string) *bucket {
	l.mu.RLock()
	b, ok := l.buckets[key]
	l.mu.RUnlock()
	if ok {
		return b
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok = l.buckets[key]; ok {
		return b
	}
	b = &bucket{}
	l.buckets[key] = b
	return b
}

var _ domainService.RateLimiter = (*MemoryRateLimiter)(nil)
