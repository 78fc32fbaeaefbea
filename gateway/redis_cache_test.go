// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"axonflow/insights/gateway/store"
)

func testRedisCache(t *testing.T, ttl time.Duration) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	cache, err := NewRedisCache(context.Background(), "redis://"+mr.Addr(), ttl)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return cache, mr
}

func TestRedisCacheRoundTrip(t *testing.T) {
	cache, _ := testRedisCache(t, time.Minute)
	ctx := context.Background()

	docs := []store.Document{{"name": "Carla", "G3": float64(14)}}
	cache.Set(ctx, "k1", docs)

	got, ok := cache.Get(ctx, "k1")
	require.True(t, ok)
	assert.Equal(t, docs, got)

	_, ok = cache.Get(ctx, "missing")
	assert.False(t, ok)
}

func TestRedisCacheTTL(t *testing.T) {
	cache, mr := testRedisCache(t, 60*time.Second)
	ctx := context.Background()

	cache.Set(ctx, "k1", []store.Document{{"name": "Carla"}})

	mr.FastForward(59 * time.Second)
	_, ok := cache.Get(ctx, "k1")
	assert.True(t, ok)

	mr.FastForward(2 * time.Second)
	_, ok = cache.Get(ctx, "k1")
	assert.False(t, ok)
}

func TestRedisCacheCorruptEntryIsAMiss(t *testing.T) {
	cache, mr := testRedisCache(t, time.Minute)

	require.NoError(t, mr.Set("insights:gateway:k1", "not json"))

	_, ok := cache.Get(context.Background(), "k1")
	assert.False(t, ok)
}

func TestRedisCacheDownIsAMiss(t *testing.T) {
	cache, mr := testRedisCache(t, time.Minute)
	ctx := context.Background()

	cache.Set(ctx, "k1", []store.Document{{"name": "Carla"}})
	mr.Close()

	_, ok := cache.Get(ctx, "k1")
	assert.False(t, ok)
}

func TestNewRedisCacheBadURL(t *testing.T) {
	_, err := NewRedisCache(context.Background(), "not-a-url", time.Minute)
	assert.Error(t, err)
}
