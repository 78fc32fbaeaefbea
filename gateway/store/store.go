// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

// Package store defines the read-only record store interface the data
// gateway consumes, together with the error values shared by its
// implementations. Two implementations exist: a MongoDB-backed store
// (store/mongo) and a deterministic in-memory fixture store (store/fixture).
// The gateway selects one at startup and never branches on the choice inside
// request logic.
package store

import (
	"context"
	"errors"
	"time"
)

// Document is a single record as returned by a store: field name to value.
// The store's identity field ("_id") never appears in a returned Document.
type Document map[string]interface{}

// ErrNotFound is returned when no record matches the requested id.
var ErrNotFound = errors.New("record not found")

// Store is the read-only surface the gateway queries. Implementations must
// honor the context deadline and must only return the requested fields.
type Store interface {
	// FindOne returns the record with the given 24-hex id, projected to the
	// requested fields. Returns ErrNotFound when no record matches.
	FindOne(ctx context.Context, id string, fields []string) (Document, error)

	// FindMany returns up to limit records projected to the requested
	// fields, in the underlying query's insertion order. An empty result is
	// a valid answer, not an error.
	FindMany(ctx context.Context, limit int, fields []string) ([]Document, error)

	// Name identifies the implementation in logs and health output.
	Name() string
}

// HealthStatus reports the result of a store health probe.
type HealthStatus struct {
	Healthy   bool
	Latency   time.Duration
	Error     string
	Timestamp time.Time
}

// HealthChecker is implemented by stores that can probe their backend.
type HealthChecker interface {
	HealthCheck(ctx context.Context) (*HealthStatus, error)
}
