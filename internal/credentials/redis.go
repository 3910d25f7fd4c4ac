package credentials

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps values in Redis under "<prefix>:<namespace>:<key>".
// The web frontend scopes it to a browser session id so the access token
// stays on the server.
type RedisStore struct {
	client    redis.Cmdable
	prefix    string
	namespace string
	ttl       time.Duration
}

// NewRedisStore creates a RedisStore. A zero ttl stores keys without expiry.
func NewRedisStore(client redis.Cmdable, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

// Scoped returns a copy of the store whose keys live under namespace.
func (s *RedisStore) Scoped(namespace string) *RedisStore {
	cp := *s
	cp.namespace = namespace
	return &cp
}

func (s *RedisStore) key(k string) string {
	if s.namespace == "" {
		return s.prefix + ":" + k
	}
	return s.prefix + ":" + s.namespace + ":" + k
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get %q: %w", key, err)
	}
	return v, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.key(key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Remove(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %q: %w", key, err)
	}
	return nil
}
