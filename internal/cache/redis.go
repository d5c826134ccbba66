package cache

import (
	"context"
	"errors"
	"time"

	"github.com/cradoe/onboard/internal/progress"
	"github.com/redis/go-redis/v9"
)

// Cache is a Redis-backed storage medium for the progress store.
type Cache struct {
	client     *redis.Client
	expiration time.Duration
}

// New connects to redisAddr. A zero expiration keeps values until they are
// overwritten or deleted.
func New(redisAddr string, db int, expiration time.Duration) *Cache {
	client := redis.NewClient(&redis.Options{
		Addr: redisAddr,
		DB:   db,
	})

	return NewWithClient(client, expiration)
}

func NewWithClient(client *redis.Client, expiration time.Duration) *Cache {
	return &Cache{
		client:     client,
		expiration: expiration,
	}
}

// Set stores a key-value pair with the configured expiration time
func (c *Cache) Set(ctx context.Context, key string, value []byte) error {
	return c.client.Set(ctx, key, value, c.expiration).Err()
}

// Get retrieves a value by key
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, progress.ErrMissing
	}
	return value, err
}

// Delete removes a key from the cache
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// Exists checks if a key exists in cache
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	count, err := c.client.Exists(ctx, key).Result()
	return count > 0, err
}

// Ping checks the connection is usable.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	return c.client.Close()
}
