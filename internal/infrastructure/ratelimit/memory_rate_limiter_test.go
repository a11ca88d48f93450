package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/Conava/Fortalis-Auth/internal/domain/errors"
)

func TestMemoryRateLimiter_AllowsUpToLimit(t *testing.T) {
	l := NewMemoryRateLimiter()
	ctx := context.Background()

	require.NoError(t, l.CheckAndConsume(ctx, "login:alice", 2, time.Minute))
	require.NoError(t, l.CheckAndConsume(ctx, "login:alice", 2, time.Minute))

	err := l.CheckAndConsume(ctx, "login:alice", 2, time.Minute)
	require.Error(t, err)
	assert.True(t, domainErrors.IsRateLimited(err))

	var rl *domainErrors.RateLimitError
	require.ErrorAs(t, err, &rl)
	assert.Equal(t, "login:alice", rl.Key)
	assert.Greater(t, rl.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, rl.RetryAfter, time.Minute)
}

func TestMemoryRateLimiter_IndependentKeys(t *testing.T) {
	l := NewMemoryRateLimiter()
	ctx := context.Background()

	require.NoError(t, l.CheckAndConsume(ctx, "ip:10.0.0.1", 1, time.Minute))
	require.Error(t, l.CheckAndConsume(ctx, "ip:10.0.0.1", 1, time.Minute))

	assert.NoError(t, l.CheckAndConsume(ctx, "ip:10.0.0.2", 1, time.Minute))
}

func TestMemoryRateLimiter_WindowReset(t *testing.T) {
	l := NewMemoryRateLimiter()
	current := time.Unix(1_700_000_000, 0)
	l.now = func() time.Time { return current }
	ctx := context.Background()

	require.NoError(t, l.CheckAndConsume(ctx, "k", 1, time.Minute))
	require.Error(t, l.CheckAndConsume(ctx, "k", 1, time.Minute))

	// Still inside the window.
	current = current.Add(59 * time.Second)
	require.Error(t, l.CheckAndConsume(ctx, "k", 1, time.Minute))

	// Window boundary reached; the counter starts over.
	current = current.Add(time.Second)
	assert.NoError(t, l.CheckAndConsume(ctx, "k", 1, time.Minute))
}

func TestMemoryRateLimiter_ZeroLimitAlwaysFails(t *testing.T) {
	l := NewMemoryRateLimiter()

	err := l.CheckAndConsume(context.Background(), "k", 0, time.Minute)
	require.Error(t, err)
	assert.True(t, domainErrors.IsRateLimited(err))
}

func TestMemoryRateLimiter_Clear(t *testing.T) {
	l := NewMemoryRateLimiter()
	ctx := context.Background()

	require.NoError(t, l.CheckAndConsume(ctx, "k", 1, time.Minute))
	require.Error(t, l.CheckAndConsume(ctx, "k", 1, time.Minute))

	require.NoError(t, l.Clear(ctx, "k"))
	assert.NoError(t, l.CheckAndConsume(ctx, "k", 1, time.Minute))

	// Clearing an unknown key is a no-op.
	assert.NoError(t, l.Clear(ctx, "never-seen"))
}

func TestMemoryRateLimiter_RejectedAttemptDoesNotConsume(t *testing.T) {
	l := NewMemoryRateLimiter()
	current := time.Unix(1_700_000_000, 0)
	l.now = func() time.Time { return current }
	ctx := context.Background()

	require.NoError(t, l.CheckAndConsume(ctx, "k", 1, time.Minute))
	for i := 0; i < 10; i++ {
		require.Error(t, l.CheckAndConsume(ctx, "k", 1, time.Minute))
	}

	// Rejections above must not have extended or refilled the window.
	current = current.Add(time.Minute)
	assert.NoError(t, l.CheckAndConsume(ctx, "k", 1, time.Minute))
}
