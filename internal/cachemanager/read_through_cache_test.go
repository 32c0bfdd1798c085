package cachemanager

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCacheManager is a testify mock of CacheManager.
type MockCacheManager[K ~string, V any] struct {
	mock.Mock
}

func (m *MockCacheManager[K, V]) Get(ctx context.Context, key K) (V, bool) {
	args := m.Called(ctx, key)
	return args.Get(0).(V), args.Bool(1)
}

func (m *MockCacheManager[K, V]) GetMultiple(ctx context.Context, keys []K) (map[K]V, bool) {
	args := m.Called(ctx, keys)
	return args.Get(0).(map[K]V), args.Bool(1)
}

func (m *MockCacheManager[K, V]) GetWithRefresh(ctx context.Context, key K, ttl time.Duration) (V, bool) {
	args := m.Called(ctx, key, ttl)
	return args.Get(0).(V), args.Bool(1)
}

func (m *MockCacheManager[K, V]) Set(ctx context.Context, key K, value V, ttl time.Duration) {
	m.Called(ctx, key, value, ttl)
}

func (m *MockCacheManager[K, V]) Delete(ctx context.Context, keys ...K) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

func (m *MockCacheManager[K, V]) Flush(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type lookupInput struct {
	Code string
}

func countingLoader(calls *int, err error) func(context.Context, lookupInput) (cachedAddress, error) {
	return func(_ context.Context, in lookupInput) (cachedAddress, error) {
		*calls++
		if err != nil {
			return cachedAddress{}, err
		}
		return cachedAddress{Street: "street " + in.Code}, nil
	}
}

func TestReadThroughCache_SkipCacheAlwaysLoads(t *testing.T) {
	managerMock := new(MockCacheManager[postalKey, cachedAddress])
	calls := 0
	rtc := NewReadThroughCache[postalKey, cachedAddress, lookupInput](managerMock, countingLoader(&calls, nil), true)

	for i := 0; i < 2; i++ {
		got, hit, err := rtc.Get(context.Background(), "k", lookupInput{Code: "1"}, time.Minute)
		require.NoError(t, err)
		require.False(t, hit)
		require.Equal(t, "street 1", got.Street)
	}
	require.Equal(t, 2, calls)
	managerMock.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestReadThroughCache_HitSkipsLoader(t *testing.T) {
	managerMock := new(MockCacheManager[postalKey, cachedAddress])
	managerMock.On("Get", mock.Anything, postalKey("k")).Return(cachedAddress{Street: "cached"}, true).Once()
	calls := 0
	rtc := NewReadThroughCache[postalKey, cachedAddress, lookupInput](managerMock, countingLoader(&calls, nil), false)

	got, hit, err := rtc.Get(context.Background(), "k", lookupInput{Code: "1"}, time.Minute)
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, "cached", got.Street)
	require.Zero(t, calls)
	managerMock.AssertExpectations(t)
}

func TestReadThroughCache_MissLoadsAndStores(t *testing.T) {
	managerMock := new(MockCacheManager[postalKey, cachedAddress])
	managerMock.On("Get", mock.Anything, postalKey("k")).Return(cachedAddress{}, false).Once()
	managerMock.On("Set", mock.Anything, postalKey("k"), cachedAddress{Street: "street 1"}, time.Minute).Once()
	calls := 0
	rtc := NewReadThroughCache[postalKey, cachedAddress, lookupInput](managerMock, countingLoader(&calls, nil), false)

	got, hit, err := rtc.Get(context.Background(), "k", lookupInput{Code: "1"}, time.Minute)
	require.NoError(t, err)
	require.False(t, hit)
	require.Equal(t, "street 1", got.Street)
	require.Equal(t, 1, calls)
	managerMock.AssertExpectations(t)
}

func TestReadThroughCache_ErrorsAreNotStored(t *testing.T) {
	managerMock := new(MockCacheManager[postalKey, cachedAddress])
	managerMock.On("GetWithRefresh", mock.Anything, postalKey("k"), time.Minute).Return(cachedAddress{}, false).Once()
	calls := 0
	boom := errors.New("boom")
	rtc := NewReadThroughCache[postalKey, cachedAddress, lookupInput](managerMock, countingLoader(&calls, boom), false)

	_, _, err := rtc.GetWithRefresh(context.Background(), "k", lookupInput{Code: "1"}, time.Minute)
	require.ErrorIs(t, err, boom)
	managerMock.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReadThroughCache_CancelledCallerDoesNotStore(t *testing.T) {
	cache := newTestCache()
	ctx, cancel := context.WithCancel(context.Background())
	loader := func(context.Context, lookupInput) (cachedAddress, error) {
		cancel()
		return cachedAddress{Street: "late"}, nil
	}
	rtc := NewReadThroughCache[postalKey, cachedAddress, lookupInput](cache, loader, false)

	_, _, err := rtc.Get(ctx, "k", lookupInput{}, time.Minute)
	require.NoError(t, err)

	_, ok := cache.Get(context.Background(), "k")
	require.False(t, ok)
}

func TestReadThroughCache_NilCacheLoadsDirectly(t *testing.T) {
	calls := 0
	rtc := NewReadThroughCache[postalKey, cachedAddress, lookupInput](nil, countingLoader(&calls, nil), false)

	_, hit, err := rtc.Get(context.Background(), "k", lookupInput{Code: "1"}, time.Minute)
	require.NoError(t, err)
	require.False(t, hit)
	require.Equal(t, 1, calls)
}
