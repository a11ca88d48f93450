package service

import (
	"context"
	"time"
)

// RateLimiter defines the interface for a fixed-window attempt limiter keyed
// by an arbitrary string (IP, principal, login ticket).
type RateLimiter interface {
	// CheckAndConsume consumes one attempt for key. When the budget for the
	// current window is exhausted it returns *errors.RateLimitError carrying
	// the time until the window resets, without consuming a slot.
	// maxAttempts of 0 always fails.
	CheckAndConsume(ctx context.Context, key string, maxAttempts int, window time.Duration) error

	// Clear removes all state for key, forgiving prior failed attempts.
	// Clearing an unknown key is a no-op.
	Clear(ctx context.Context, key string) error
}
