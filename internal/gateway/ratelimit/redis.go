package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces limiter keys so the gateway can share a Redis
// instance with other consumers.
const keyPrefix = "ratelimit:client:"

// RedisStore is a Store backed by Redis, for deployments running more than
// one gateway instance behind a load balancer. The fixed window maps onto a
// counter with a TTL: INCR starts the window on first touch and the key's
// expiry marks the window end, so atomicity per key comes from Redis itself.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore creates a RedisStore and verifies connectivity.
func NewRedisStore(ctx context.Context, client redis.UniversalClient) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

// Incr implements Store.
func (s *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	redisKey := keyPrefix + key

	count, err := s.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to increment counter: %w", err)
	}

	if count == 1 {
		// First request of a fresh window: the key's TTL defines the window.
		if err := s.client.PExpire(ctx, redisKey, window).Err(); err != nil {
			return count, window, fmt.Errorf("failed to set window expiry: %w", err)
		}
		return count, window, nil
	}

	remaining, err := s.client.PTTL(ctx, redisKey).Result()
	if err != nil {
		return count, 0, fmt.Errorf("failed to read window expiry: %w", err)
	}
	if remaining < 0 {
		// The key lost its TTL (e.g. the PExpire after the first INCR failed
		// mid-flight). Re-arm it rather than leaving an immortal counter.
		if err := s.client.PExpire(ctx, redisKey, window).Err(); err != nil {
			return count, window, fmt.Errorf("failed to re-arm window expiry: %w", err)
		}
		remaining = window
	}

	return count, remaining, nil
}

// Close closes the underlying Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
