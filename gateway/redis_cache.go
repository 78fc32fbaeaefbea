// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"axonflow/insights/gateway/store"
)

// RedisCache is the shared-cache backend for multi-replica deployments.
// Entries expire via Redis TTL; the capacity bound is delegated to the
// server's maxmemory policy rather than tracked client-side.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisCache connects to Redis using a redis:// URL and verifies the
// connection with a ping.
func NewRedisCache(ctx context.Context, redisURL string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{
		client: client,
		ttl:    ttl,
		prefix: "insights:gateway:",
	}, nil
}

// Name identifies the backend
func (c *RedisCache) Name() string {
	return "redis"
}

// Close releases the underlying client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Get fetches and decodes the cached documents. Any Redis or decode error is
// treated as a miss; the gateway will simply re-fetch from the store.
func (c *RedisCache) Get(ctx context.Context, key string) ([]store.Document, bool) {
	val, err := c.client.Get(ctx, c.prefix+key).Result()
	if err != nil {
		return nil, false
	}

	var docs []store.Document
	if err := json.Unmarshal([]byte(val), &docs); err != nil {
		return nil, false
	}
	return docs, true
}

// Set stores the documents with the configured TTL. Write failures are
// swallowed: a cold cache is a performance problem, never a correctness one.
func (c *RedisCache) Set(ctx context.Context, key string, docs []store.Document) {
	payload, err := json.Marshal(docs)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, c.prefix+key, payload, c.ttl).Err()
}
