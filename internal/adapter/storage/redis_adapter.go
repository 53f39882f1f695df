package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "cartengine:"

// RedisStore is a KVStore on Redis. Every key is namespaced with a prefix so
// the engine can share a Redis with the storefront backend.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client, prefix: defaultKeyPrefix}
}

// WithPrefix returns a copy of the store writing under another namespace.
func (r *RedisStore) WithPrefix(prefix string) *RedisStore {
	return &RedisStore{client: r.client, prefix: prefix}
}

func (r *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.client.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, true, nil
}

func (r *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *RedisStore) Remove(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// NewRedisClient accepts either a bare host:port or a redis:// URL.
func NewRedisClient(dsn string) (*redis.Client, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("redis address is empty")
	}
	if !strings.Contains(dsn, "://") {
		return redis.NewClient(&redis.Options{Addr: dsn, PoolSize: 20}), nil
	}

	opts, err := redis.ParseURL(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}
