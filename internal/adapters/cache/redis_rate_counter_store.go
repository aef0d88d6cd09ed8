package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const ratePrefix = "auth:rate:"

// RedisRateCounterStore keeps fixed-window attempt counters in Redis so the
// limiter stays correct across replicas.
type RedisRateCounterStore struct {
	client *redis.Client
}

func NewRedisRateCounterStore(client *redis.Client) *RedisRateCounterStore {
	return &RedisRateCounterStore{client: client}
}

// Incr bumps the counter and starts the window on first increment. The
// returned remaining duration comes from the key's TTL so retry-after hints
// reflect the actual window state.
func (s *RedisRateCounterStore) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	redisKey := ratePrefix + key

	count, err := s.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return 0, 0, err
	}
	if count == 1 {
		if err := s.client.Expire(ctx, redisKey, window).Err(); err != nil {
			return count, window, err
		}
		return count, window, nil
	}

	ttl, err := s.client.PTTL(ctx, redisKey).Result()
	if err != nil || ttl <= 0 {
		// A key without TTL would throttle forever; re-arm the window.
		_ = s.client.Expire(ctx, redisKey, window).Err()
		ttl = window
	}
	return count, ttl, nil
}

func (s *RedisRateCounterStore) Count(ctx context.Context, key string) (int64, error) {
	count, err := s.client.Get(ctx, ratePrefix+key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	return count, nil
}

func (s *RedisRateCounterStore) Reset(ctx context.Context, key string) error {
	return s.client.Del(ctx, ratePrefix+key).Err()
}
