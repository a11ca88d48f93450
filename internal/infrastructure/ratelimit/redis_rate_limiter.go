package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	domainErrors "github.com/Conava/Fortalis-Auth/internal/domain/errors"
	domainService "github.com/Conava/Fortalis-Auth/internal/domain/service"
)

// RedisRateLimiter is a fixed-window limiter backed by redis, for
// deployments running more than one auth instance. Windows are INCR
// counters with a TTL equal to the window.
type RedisRateLimiter struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisRateLimiter creates a limiter on an existing redis client.
func NewRedisRateLimiter(client *redis.Client, logger *zap.Logger) *RedisRateLimiter {
	return &RedisRateLimiter{client: client, logger: logger}
}

// CheckAndConsume consumes one attempt for key within a fixed window.
func (l *RedisRateLimiter) CheckAndConsume(ctx context.Context, key string, maxAttempts int, window time.Duration) error {
	redisKey := "rate:" + key

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return fmt.Errorf("failed to increment rate limit counter: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, window).Err(); err != nil {
			l.logger.Error("failed to set rate limit window expiry",
				zap.Error(err), zap.String("key", key))
		}
	}

	if maxAttempts <= 0 || count > int64(maxAttempts) {
		retryAfter := window
		if ttl, err := l.client.TTL(ctx, redisKey).Result(); err == nil && ttl > 0 {
			retryAfter = ttl
		}
		return &domainErrors.RateLimitError{Key: key, RetryAfter: retryAfter}
	}
	return nil
}

// Clear removes the counter for key.
func (l *RedisRateLimiter) Clear(ctx context.Context, key string) error {
	return l.client.Del(ctx, "rate:"+key).Err()
}

var _ domainService.RateLimiter = (*RedisRateLimiter)(nil)
