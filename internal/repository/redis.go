package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nikolayk812/cartstate/internal/port"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps snapshots as plain string values. A zero TTL means no expiry.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ port.SnapshotStore = (*RedisStore)(nil)

func NewRedis(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
	}
}

func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, fmt.Errorf("key is empty")
	}

	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, port.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	return data, nil
}

func (r *RedisStore) Set(ctx context.Context, key string, blob []byte) error {
	if key == "" {
		return fmt.Errorf("key is empty")
	}

	if err := r.client.Set(ctx, key, blob, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	return nil
}
