package lock

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultTTL      = 30 * time.Second
	retryInterval   = 50 * time.Millisecond
	maxLockAttempts = 20
)

// RedisLocker serialises across API instances. Failing to lock is logged and
// the caller proceeds under the database row lock.
type RedisLocker struct {
	client *redislock.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisLocker(client redis.UniversalClient, logger *zap.Logger) *RedisLocker {
	return &RedisLocker{
		client: redislock.New(client),
		ttl:    defaultTTL,
		logger: logger,
	}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) Unlock {
	lockKey := "stock-lock:" + key
	lock, err := l.client.Obtain(ctx, lockKey, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(retryInterval), maxLockAttempts),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		l.logger.Warn("Could not obtain stock lock, continuing under row lock", zap.String("key", lockKey))
		return func() {}
	} else if err != nil {
		l.logger.Warn("Error obtaining stock lock, continuing under row lock", zap.String("key", lockKey), zap.Error(err))
		return func() {}
	}

	return func() {
		// the caller's ctx may already be cancelled
		if err := lock.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.logger.Warn("Failed to release stock lock", zap.String("key", lockKey), zap.Error(err))
		}
	}
}
