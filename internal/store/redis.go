package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/stellarlinkco/anova/internal/config"
)

const redisKeyPrefix = "anova:doc:"

// RedisStore is the redis-backed document store, for deployments where the
// chat application already runs against a shared redis.
type RedisStore struct {
	client *redis.Client
}

func OpenRedis(cfg config.StoreConfig) (*RedisStore, error) {
	if cfg.RedisAddr == "" {
		return nil, fmt.Errorf("redis store requires an address")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return &RedisStore{client: client}, nil
}

func (r *RedisStore) Get(ctx context.Context, path string) ([]byte, error) {
	data, err := r.client.Get(ctx, redisKeyPrefix+path).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return data, nil
}

func (r *RedisStore) Set(ctx context.Context, path string, data []byte) error {
	if err := r.client.Set(ctx, redisKeyPrefix+path, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
