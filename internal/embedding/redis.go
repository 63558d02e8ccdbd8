package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hyperjump/frontdesk/internal/vector"
	"github.com/redis/go-redis/v9"
)

// RemoteCache is a query-embedding cache shared between processes.
type RemoteCache interface {
	Get(ctx context.Context, key string) ([]float32, bool, error)
	Set(ctx context.Context, key string, value []float32) error
}

// RedisCache stores query embeddings in Redis as packed float32 values.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache connects to addr and verifies the connection with a ping.
func NewRedisCache(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &RedisCache{client: client, prefix: "frontdesk:qemb:", ttl: ttl}, nil
}

// Get returns the embedding stored under key. A miss is (nil, false, nil).
func (c *RedisCache) Get(ctx context.Context, key string) ([]float32, bool, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	v, err := vector.Decode(val)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// Set stores value under key with the cache TTL (0 keeps it forever).
func (c *RedisCache) Set(ctx context.Context, key string, value []float32) error {
	if err := c.client.Set(ctx, c.prefix+key, vector.Encode(value), c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
