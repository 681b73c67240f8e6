package rediswr

import (
	"context"
	"errors"
	"time"

	"github.com/code19m/errx"
	"github.com/redis/go-redis/v9"
)

// Cache stores query results in Redis. It satisfies the Cache contract of
// the query cache behavior.
type Cache struct {
	client redis.Cmdable
	prefix string
}

// NewCache creates a Cache writing keys under prefix.
func NewCache(client redis.Cmdable, prefix string) *Cache {
	return &Cache{client: client, prefix: prefix}
}

// Get returns the value stored under key. A missing key is reported with
// found=false and no error.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errx.Wrap(err, errx.WithDetails(errx.D{"key": c.prefix + key}))
	}
	return data, true, nil
}

// Set stores value under key for ttl. A non-positive ttl keeps the key
// without expiration.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	err := c.client.Set(ctx, c.prefix+key, value, ttl).Err()
	if err != nil {
		return errx.Wrap(err, errx.WithDetails(errx.D{"key": c.prefix + key}))
	}
	return nil
}

// Delete removes keys, e.g. to invalidate cached query results after a
// command changed the underlying data.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = c.prefix + k
	}

	if err := c.client.Del(ctx, prefixed...).Err(); err != nil {
		return errx.Wrap(err)
	}
	return nil
}
