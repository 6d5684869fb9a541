package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

const defaultRetryInterval = 100 * time.Millisecond

// RedisLocker serializes work across API instances through Redis.
type RedisLocker struct {
	client *redislock.Client
	ttl    time.Duration
}

func NewRedisLocker(rdb redis.UniversalClient, ttl time.Duration) *RedisLocker {
	return &RedisLocker{client: redislock.New(rdb), ttl: ttl}
}

func (l *RedisLocker) Obtain(ctx context.Context, key string) (Lock, error) {
	lock, err := l.client.Obtain(ctx, key, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(defaultRetryInterval),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrNotObtained
	}
	if err != nil {
		// Obtain surfaces ctx expiry while retrying as the ctx error.
		if ctx.Err() != nil {
			return nil, ErrNotObtained
		}
		return nil, fmt.Errorf("obtain redis lock %s: %w", key, err)
	}
	return lock, nil
}
