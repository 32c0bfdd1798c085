package cachemanager

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// unreachableRedis points at a port nothing listens on so every command fails fast.
func unreachableRedis(t *testing.T) *redis.Client {
	t.Helper()
	cli := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = cli.Close() })
	return cli
}

func TestRedisCacheManager_BackendErrorsAreMisses(t *testing.T) {
	cache := NewRedisCacheManager[postalKey, cachedAddress]("postal", "clientflow:cep:", unreachableRedis(t))
	ctx := context.Background()

	require.NotPanics(t, func() {
		cache.Set(ctx, "01310930", cachedAddress{City: "São Paulo"}, time.Minute)
	})

	_, ok := cache.Get(ctx, "01310930")
	require.False(t, ok)

	_, ok = cache.GetWithRefresh(ctx, "01310930", time.Minute)
	require.False(t, ok)

	got, ok := cache.GetMultiple(ctx, []postalKey{"a", "b"})
	require.False(t, ok)
	require.Nil(t, got)

	got, ok = cache.GetMultiple(ctx, nil)
	require.False(t, ok)
	require.Nil(t, got)

	require.NoError(t, cache.Delete(ctx))
	require.Error(t, cache.Delete(ctx, "a"))
	require.Error(t, cache.Flush(ctx))
}

func TestRedisCacheManager_KeyIsPrefixed(t *testing.T) {
	cache := NewRedisCacheManager[postalKey, cachedAddress]("postal", "clientflow:cep:", nil)
	require.Equal(t, "clientflow:cep:01310930", cache.key("01310930"))
}

func TestReadThroughCache_RedisOutageFallsBackToLoader(t *testing.T) {
	cache := NewRedisCacheManager[postalKey, cachedAddress]("postal", "clientflow:cep:", unreachableRedis(t))
	calls := 0
	rtc := NewReadThroughCache[postalKey, cachedAddress, lookupInput](cache, countingLoader(&calls, nil), false)

	got, hit, err := rtc.Get(context.Background(), "01310930", lookupInput{Code: "01310930"}, time.Minute)
	require.NoError(t, err)
	require.False(t, hit)
	require.Equal(t, "street 01310930", got.Street)
	require.Equal(t, 1, calls)
}
