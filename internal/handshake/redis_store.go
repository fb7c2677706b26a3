package handshake

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a Redis-backed consumption guard, the right
// choice when more than one gateway instance shares the handshake.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "oauth_state:",
	}
}

func (r *RedisStore) key(id string) string {
	return r.prefix + id
}

func (r *RedisStore) Consume(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	if id == "" {
		return false, fmt.Errorf("handshake: missing state id")
	}
	if ttl <= 0 {
		ttl = time.Minute
	}

	ok, err := r.client.SetNX(ctx, r.key(id), 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("handshake: consume state: %w", err)
	}

	return ok, nil
}
