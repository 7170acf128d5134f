package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/circleapp/go-circle/env"
)

// Cache is a namespaced wrapper around a redis client
type Cache struct {
	client *redis.Client
	prefix string
}

// NewCache connects to the configured redis instance under the given key prefix
func NewCache(prefix string) *Cache {
	client := redis.NewClient(&redis.Options{
		Addr:     env.GetString("REDIS_URL"),
		Password: env.GetString("REDIS_PASS"),
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		panic(err)
	}

	return &Cache{client: client, prefix: prefix}
}

// Client returns the underlying redis client
func (c *Cache) Client() *redis.Client {
	return c.client
}

// Set sets a value in the redis cache
func (c *Cache) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	return c.client.Set(ctx, c.getPrefixedKey(key), value, expiration).Err()
}

// Get gets a value from the redis cache
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	bs, err := c.client.Get(ctx, c.getPrefixedKey(key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrKeyNotFound{Key: key}
		}
		return nil, err
	}
	return bs, nil
}

// Delete deletes a value from the redis cache
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.getPrefixedKey(key)).Err()
}

// Close closes the underlying redis client
func (c *Cache) Close() error {
	return c.client.Close()
}

func (c *Cache) getPrefixedKey(key string) string {
	if c.prefix == "" {
		return key
	}
	return fmt.Sprintf("%s:%s", c.prefix, key)
}

// ErrKeyNotFound is returned when a key is not found in the cache
type ErrKeyNotFound struct {
	Key string
}

func (e ErrKeyNotFound) Error() string {
	return fmt.Sprintf("key %s not found in cache", e.Key)
}

// LazyCache implements a lazy loading cache that stores data only when it is
// requested: a miss runs CalcFunc and stores the result for TTL
type LazyCache struct {
	Cache    *Cache
	Key      string
	TTL      time.Duration
	CalcFunc func(context.Context) ([]byte, error)
}

func (l LazyCache) Load(ctx context.Context) ([]byte, error) {
	// A nil cache disables storage and always computes
	if l.Cache == nil {
		return l.CalcFunc(ctx)
	}

	b, err := l.Cache.Get(ctx, l.Key)
	if err == nil {
		return b, nil
	}

	if _, ok := err.(ErrKeyNotFound); !ok {
		return nil, err
	}

	b, err = l.CalcFunc(ctx)
	if err != nil {
		return nil, err
	}

	if err := l.Cache.Set(ctx, l.Key, b, l.TTL); err != nil {
		return nil, err
	}

	return b, nil
}
