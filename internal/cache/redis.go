package cache

import (
	"context"
	"errors"
	"runtime"
	"time"

	"github.com/redis/go-redis/v9"

	"curius-feed/internal/config"
)

// RedisStore backs the gateway with a Redis instance. Values are stored as
// plain strings with SET EX; batch reads use MGET.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis using the configured URL. The pool is
// sized as a multiple of available parallelism because graph expansion and
// miss-fetch fan-out each hold one connection per concurrent branch.
func NewRedisStore(cfg config.CacheConfig) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	opts.PoolSize = cfg.PoolMultiplier * runtime.GOMAXPROCS(0)
	opts.MinIdleConns = runtime.GOMAXPROCS(0)
	opts.DialTimeout = cfg.DialTimeout

	return &RedisStore{client: redis.NewClient(opts)}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s *RedisStore) MGet(ctx context.Context, keys []string) ([][]byte, error) {
	raw, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	values := make([][]byte, len(keys))
	for i, v := range raw {
		// MGET yields nil for missing keys and strings otherwise.
		if str, ok := v.(string); ok {
			values[i] = []byte(str)
		}
	}
	return values, nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
