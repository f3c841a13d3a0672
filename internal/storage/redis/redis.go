package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dtg-lucifer/sahotsava-be/internal/storage"
)

// TokenCache is the ephemeral store for refresh-token sessions and pending
// email verifications. It is the single source of truth for "is this token
// still outstanding": a correctly signed token with no cache entry is dead.
type TokenCache struct {
	client *redis.Client
}

func New(ctx context.Context, addr, pass string, db int) (*TokenCache, error) {
	const op = "storage.redis.New"

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     pass,
		DB:           db,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &TokenCache{client: client}, nil
}

// NewWithClient wraps an existing client. Used by tests.
func NewWithClient(client *redis.Client) *TokenCache {
	return &TokenCache{client: client}
}

func (c *TokenCache) Get(ctx context.Context, key string) (string, error) {
	const op = "storage.redis.Get"

	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", storage.ErrCacheMiss
		}

		return "", fmt.Errorf("%s: %w", op, err)
	}

	return val, nil
}

func (c *TokenCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	const op = "storage.redis.Set"

	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Delete is idempotent: removing an absent key is not an error.
func (c *TokenCache) Delete(ctx context.Context, key string) error {
	const op = "storage.redis.Delete"

	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (c *TokenCache) Close() {
	c.client.Close()
}
