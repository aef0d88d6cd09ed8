package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/venuescout/auth-service/internal/ports"
)

// RedisOAuthStateStore holds OAuth anti-CSRF state between the start of the
// flow and the provider callback.
type RedisOAuthStateStore struct {
	client *redis.Client
}

func NewRedisOAuthStateStore(client *redis.Client) *RedisOAuthStateStore {
	return &RedisOAuthStateStore{client: client}
}

func (s *RedisOAuthStateStore) Put(ctx context.Context, state string, value ports.OAuthState, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, "auth:oauth:state:"+state, raw, ttl).Err()
}

func (s *RedisOAuthStateStore) Get(ctx context.Context, state string) (*ports.OAuthState, error) {
	raw, err := s.client.Get(ctx, "auth:oauth:state:"+state).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var out ports.OAuthState
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *RedisOAuthStateStore) Delete(ctx context.Context, state string) error {
	return s.client.Del(ctx, "auth:oauth:state:"+state).Err()
}
