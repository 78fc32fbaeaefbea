// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"axonflow/insights/gateway/store"
	"axonflow/insights/gateway/store/fixture"
)

const carlaID = "689cef602490264c7f2dd235"

// countingStore wraps a store and counts upstream calls.
type countingStore struct {
	inner    store.Store
	findOne  int
	findMany int
}

func (c *countingStore) FindOne(ctx context.Context, id string, fields []string) (store.Document, error) {
	c.findOne++
	return c.inner.FindOne(ctx, id, fields)
}

func (c *countingStore) FindMany(ctx context.Context, limit int, fields []string) ([]store.Document, error) {
	c.findMany++
	return c.inner.FindMany(ctx, limit, fields)
}

func (c *countingStore) Name() string { return c.inner.Name() }

// brokenStore fails every call.
type brokenStore struct{}

func (brokenStore) FindOne(ctx context.Context, id string, fields []string) (store.Document, error) {
	return nil, errors.New("connection reset")
}

func (brokenStore) FindMany(ctx context.Context, limit int, fields []string) ([]store.Document, error) {
	return nil, errors.New("connection reset")
}

func (brokenStore) Name() string { return "broken" }

// notFoundStore answers every lookup with a clean not-found.
type notFoundStore struct{}

func (notFoundStore) FindOne(ctx context.Context, id string, fields []string) (store.Document, error) {
	return nil, store.ErrNotFound
}

func (notFoundStore) FindMany(ctx context.Context, limit int, fields []string) ([]store.Document, error) {
	return []store.Document{}, nil
}

func (notFoundStore) Name() string { return "empty" }

// leakyStore ignores the projection and returns extra fields every time.
type leakyStore struct{}

func (leakyStore) FindOne(ctx context.Context, id string, fields []string) (store.Document, error) {
	return store.Document{"name": "Carla", "password": "hunter2", "_id": id}, nil
}

func (leakyStore) FindMany(ctx context.Context, limit int, fields []string) ([]store.Document, error) {
	return []store.Document{{"name": "Carla", "password": "hunter2", "_id": "x"}}, nil
}

func (leakyStore) Name() string { return "leaky" }

func TestFetchOneProjection(t *testing.T) {
	fx := fixture.New()
	gw := New(fx, fx, NewMemoryCache(time.Minute, 10), DefaultAllowList(), time.Second)

	doc, err := gw.FetchOne(context.Background(), carlaID, []string{"name", "G3", "password", "_id"})

	require.NoError(t, err)
	assert.Equal(t, "Carla", doc["name"])
	assert.Contains(t, doc, "G3")
	assert.NotContains(t, doc, "password")
	assert.NotContains(t, doc, "_id")
	assert.NotContains(t, doc, "absences")
}

func TestAllowListEnforcement(t *testing.T) {
	ctx := context.Background()

	t.Run("all requested fields outside the allow-list is an error", func(t *testing.T) {
		fx := fixture.New()
		gw := New(fx, fx, NewMemoryCache(time.Minute, 10), DefaultAllowList(), time.Second)

		_, err := gw.FetchOne(ctx, carlaID, []string{"password", "ssn"})
		assert.ErrorIs(t, err, ErrEmptyProjection)

		_, err = gw.FetchClass(ctx, 10, []string{"password"})
		assert.ErrorIs(t, err, ErrEmptyProjection)
	})

	t.Run("extra store fields never leave the gateway", func(t *testing.T) {
		gw := New(leakyStore{}, leakyStore{}, NewMemoryCache(time.Minute, 10), DefaultAllowList(), time.Second)

		doc, err := gw.FetchOne(ctx, carlaID, []string{"name"})
		require.NoError(t, err)
		assert.Equal(t, "Carla", doc["name"])
		assert.NotContains(t, doc, "password")
		assert.NotContains(t, doc, "_id")

		docs, err := gw.FetchClass(ctx, 10, nil)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.NotContains(t, docs[0], "password")
		assert.NotContains(t, docs[0], "_id")
	})
}

func TestFetchOneCaching(t *testing.T) {
	counting := &countingStore{inner: fixture.New()}
	cache := NewMemoryCache(60*time.Second, 10)
	current := time.Unix(1000, 0)
	cache.now = func() time.Time { return current }

	gw := New(counting, fixture.New(), cache, DefaultAllowList(), time.Second)
	ctx := context.Background()
	fields := []string{"name", "G1", "G2", "G3"}

	first, err := gw.FetchOne(ctx, carlaID, fields)
	require.NoError(t, err)
	require.Equal(t, 1, counting.findOne)

	t.Run("second identical fetch inside TTL skips the store", func(t *testing.T) {
		second, err := gw.FetchOne(ctx, carlaID, fields)
		require.NoError(t, err)
		assert.Equal(t, 1, counting.findOne)
		assert.Equal(t, first, second)
	})

	t.Run("permuted field order shares the entry", func(t *testing.T) {
		_, err := gw.FetchOne(ctx, carlaID, []string{"G3", "G2", "G1", "name"})
		require.NoError(t, err)
		assert.Equal(t, 1, counting.findOne)
	})

	t.Run("fetch after TTL hits the store again", func(t *testing.T) {
		current = current.Add(61 * time.Second)
		_, err := gw.FetchOne(ctx, carlaID, fields)
		require.NoError(t, err)
		assert.Equal(t, 2, counting.findOne)
	})
}

func TestFetchOneFallback(t *testing.T) {
	t.Run("store failure degrades to fixture data", func(t *testing.T) {
		gw := New(brokenStore{}, fixture.New(), NewMemoryCache(time.Minute, 10), DefaultAllowList(), time.Second)

		doc, err := gw.FetchOne(context.Background(), carlaID, []string{"name"})
		require.NoError(t, err)
		assert.Equal(t, "Carla", doc["name"])
	})

	t.Run("not-found from the primary store is authoritative", func(t *testing.T) {
		fallback := &countingStore{inner: fixture.New()}
		gw := New(notFoundStore{}, fallback, NewMemoryCache(time.Minute, 10), DefaultAllowList(), time.Second)

		_, err := gw.FetchOne(context.Background(), carlaID, []string{"name"})
		assert.ErrorIs(t, err, store.ErrNotFound)
		assert.Zero(t, fallback.findOne)
	})

	t.Run("unknown id missing from fixture too is not-found", func(t *testing.T) {
		gw := New(brokenStore{}, fixture.New(), NewMemoryCache(time.Minute, 10), DefaultAllowList(), time.Second)

		_, err := gw.FetchOne(context.Background(), "ffffffffffffffffffffffff", []string{"name"})
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("both stores failing is a gateway error", func(t *testing.T) {
		gw := New(brokenStore{}, brokenStore{}, NewMemoryCache(time.Minute, 10), DefaultAllowList(), time.Second)

		_, err := gw.FetchOne(context.Background(), carlaID, []string{"name"})
		var gErr *Error
		require.ErrorAs(t, err, &gErr)
		assert.Equal(t, "FetchOne", gErr.Op)
	})
}

func TestFetchClass(t *testing.T) {
	fx := fixture.New()

	t.Run("returns dataset order up to limit", func(t *testing.T) {
		gw := New(fx, fx, NewMemoryCache(time.Minute, 10), DefaultAllowList(), time.Second)

		docs, err := gw.FetchClass(context.Background(), 3, []string{"name", "G3"})
		require.NoError(t, err)
		require.Len(t, docs, 3)
		assert.Equal(t, "Alice", docs[0]["name"])
		for _, doc := range docs {
			assert.NotContains(t, doc, "_id")
			assert.NotContains(t, doc, "absences")
		}
	})

	t.Run("large limit returns the whole dataset", func(t *testing.T) {
		gw := New(fx, fx, NewMemoryCache(time.Minute, 10), DefaultAllowList(), time.Second)

		docs, err := gw.FetchClass(context.Background(), 500, []string{"name"})
		require.NoError(t, err)
		assert.Len(t, docs, fx.Size())
	})

	t.Run("caches by limit and fields", func(t *testing.T) {
		counting := &countingStore{inner: fixture.New()}
		gw := New(counting, fixture.New(), NewMemoryCache(time.Minute, 10), DefaultAllowList(), time.Second)
		ctx := context.Background()

		_, err := gw.FetchClass(ctx, 5, []string{"name"})
		require.NoError(t, err)
		_, err = gw.FetchClass(ctx, 5, []string{"name"})
		require.NoError(t, err)
		assert.Equal(t, 1, counting.findMany)

		_, err = gw.FetchClass(ctx, 6, []string{"name"})
		require.NoError(t, err)
		assert.Equal(t, 2, counting.findMany)
	})

	t.Run("store failure degrades to the fixture dataset", func(t *testing.T) {
		gw := New(brokenStore{}, fixture.New(), NewMemoryCache(time.Minute, 10), DefaultAllowList(), time.Second)

		docs, err := gw.FetchClass(context.Background(), 500, []string{"name", "G3"})
		require.NoError(t, err)
		assert.Len(t, docs, fixture.New().Size())
	})
}
