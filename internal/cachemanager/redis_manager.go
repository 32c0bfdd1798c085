package cachemanager

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/clientflow/clientflow/internal/log"
)

// RedisCacheManager stores JSON encoded values under prefix+key so several
// processes can share lookups.
type RedisCacheManager[K ~string, V any] struct {
	useCase string
	prefix  string
	cli     redis.UniversalClient
}

var _ CacheManager[string, int] = (*RedisCacheManager[string, int])(nil)

// NewRedisCacheManager wraps an existing client. prefix namespaces every key.
func NewRedisCacheManager[K ~string, V any](useCase, prefix string, cli redis.UniversalClient) *RedisCacheManager[K, V] {
	return &RedisCacheManager[K, V]{useCase: useCase, prefix: prefix, cli: cli}
}

func (c *RedisCacheManager[K, V]) key(k K) string {
	return c.prefix + string(k)
}

func (c *RedisCacheManager[K, V]) Get(ctx context.Context, key K) (V, bool) {
	var zero V

	raw, err := c.cli.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.ErrorErr(log.CatCache, "Redis get failed, treating as miss", err, "cache", c.useCase, "key", key)
		}
		return zero, false
	}

	var v V
	if err := json.Unmarshal(raw, &v); err != nil {
		log.ErrorErr(log.CatCache, "Cached value is not valid JSON", err, "cache", c.useCase, "key", key)
		return zero, false
	}

	log.Debug(log.CatCache, "Cache hit", "cache", c.useCase, "key", key)
	return v, true
}

func (c *RedisCacheManager[K, V]) GetMultiple(ctx context.Context, keys []K) (map[K]V, bool) {
	if len(keys) == 0 {
		return nil, false
	}

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}
	raw, err := c.cli.MGet(ctx, full...).Result()
	if err != nil {
		log.ErrorErr(log.CatCache, "Redis mget failed, treating as miss", err, "cache", c.useCase)
		return nil, false
	}

	values := make(map[K]V, len(keys))
	for i, r := range raw {
		s, ok := r.(string)
		if !ok {
			continue
		}
		var v V
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			continue
		}
		values[keys[i]] = v
	}
	if len(values) == 0 {
		return nil, false
	}
	return values, true
}

func (c *RedisCacheManager[K, V]) GetWithRefresh(ctx context.Context, key K, ttl time.Duration) (V, bool) {
	value, found := c.Get(ctx, key)
	if !found {
		return value, false
	}
	if err := c.cli.Expire(ctx, c.key(key), ttl).Err(); err != nil {
		log.ErrorErr(log.CatCache, "Redis expire failed", err, "cache", c.useCase, "key", key)
	}
	return value, true
}

func (c *RedisCacheManager[K, V]) Set(ctx context.Context, key K, value V, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		log.ErrorErr(log.CatCache, "Encoding cache value failed", err, "cache", c.useCase, "key", key)
		return
	}
	if err := c.cli.Set(ctx, c.key(key), data, ttl).Err(); err != nil {
		log.ErrorErr(log.CatCache, "Redis set failed", err, "cache", c.useCase, "key", key)
	}
}

func (c *RedisCacheManager[K, V]) Delete(ctx context.Context, keys ...K) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}
	return c.cli.Del(ctx, full...).Err()
}

// Flush removes only the keys under this manager's prefix.
func (c *RedisCacheManager[K, V]) Flush(ctx context.Context) error {
	iter := c.cli.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) == 0 {
		return nil
	}
	return c.cli.Del(ctx, batch...).Err()
}
