// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package gateway

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"axonflow/insights/gateway/store"
)

// Cache is the document cache the gateway consults before touching the
// record store. Implementations must be safe for concurrent use. Writes are
// last-writer-wins; concurrent misses for the same key may each hit the
// store independently (no single-flight de-duplication).
type Cache interface {
	// Get returns the cached documents for key, or ok=false on a miss or an
	// expired entry.
	Get(ctx context.Context, key string) ([]store.Document, bool)

	// Set stores the documents under key, replacing any existing entry.
	Set(ctx context.Context, key string, docs []store.Document)

	// Name identifies the backend in logs and health output.
	Name() string
}

// singleKey derives the cache key for a fetch-one lookup. Fields are sorted
// so that permutations of the same request share one entry.
func singleKey(subjectID string, fields []string) string {
	sorted := append([]string(nil), fields...)
	sort.Strings(sorted)
	return "one:" + subjectID + ":" + strings.Join(sorted, ",")
}

// classKey derives the cache key for a class fetch.
func classKey(limit int, fields []string) string {
	sorted := append([]string(nil), fields...)
	sort.Strings(sorted)
	return "class:" + strconv.Itoa(limit) + ":" + strings.Join(sorted, ",")
}

// copyDocuments returns a shallow per-document copy so cached entries never
// alias documents handed to callers.
func copyDocuments(docs []store.Document) []store.Document {
	out := make([]store.Document, len(docs))
	for i, doc := range docs {
		copied := make(store.Document, len(doc))
		for k, v := range doc {
			copied[k] = v
		}
		out[i] = copied
	}
	return out
}
