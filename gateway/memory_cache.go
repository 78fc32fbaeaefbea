// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package gateway

import (
	"context"
	"sync"
	"time"

	"axonflow/insights/gateway/store"
)

// MemoryCache is a bounded, time-expiring in-process cache. A single mutex
// guards the map; inserts past capacity evict the entry with the smallest
// created_at timestamp.
type MemoryCache struct {
	mu       sync.Mutex
	entries  map[string]memoryEntry
	ttl      time.Duration
	capacity int
	now      func() time.Time
}

type memoryEntry struct {
	docs      []store.Document
	createdAt time.Time
}

// NewMemoryCache creates a memory cache with the given TTL and capacity.
func NewMemoryCache(ttl time.Duration, capacity int) *MemoryCache {
	return &MemoryCache{
		entries:  make(map[string]memoryEntry, capacity),
		ttl:      ttl,
		capacity: capacity,
		now:      time.Now,
	}
}

// Name identifies the backend
func (c *MemoryCache) Name() string {
	return "memory"
}

// Get returns a copy of the cached documents, or ok=false when the key is
// absent or the entry has outlived the TTL. Expired entries are removed on
// sight.
func (c *MemoryCache) Get(_ context.Context, key string) ([]store.Document, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.createdAt) >= c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return copyDocuments(entry.docs), true
}

// Set stores a copy of the documents under key. When the cache is full and
// the key is new, the oldest entry is evicted first so the live entry count
// never exceeds capacity.
func (c *MemoryCache) Set(_ context.Context, key string, docs []store.Document) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.capacity {
		c.evictOldestLocked()
	}

	c.entries[key] = memoryEntry{
		docs:      copyDocuments(docs),
		createdAt: c.now(),
	}
}

// Len returns the number of physically present entries, expired or not.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// evictOldestLocked removes the entry with the smallest created_at. Caller
// holds the mutex.
func (c *MemoryCache) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	first := true
	for key, entry := range c.entries {
		if first || entry.createdAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.createdAt
			first = false
		}
	}
	if !first {
		delete(c.entries, oldestKey)
	}
}
