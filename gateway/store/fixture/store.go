// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

// Package fixture implements the record store over a fixed in-memory dataset
// keyed by the same 24-hex id space as the real store. It serves two roles:
// the startup-selected store when MongoDB is not configured, and the
// gateway's degradation target when the real store is unreachable.
package fixture

import (
	"context"

	"axonflow/insights/gateway/store"
)

// Store is a deterministic, read-only record store.
type Store struct {
	order   []string
	records map[string]store.Document
}

// New returns a store populated with the built-in dataset.
func New() *Store {
	return &Store{order: datasetOrder, records: dataset}
}

// Name identifies the implementation
func (s *Store) Name() string {
	return "fixture"
}

// Size returns the number of records in the dataset.
func (s *Store) Size() int {
	return len(s.order)
}

// FindOne returns the record with the given id projected to the requested
// fields, or store.ErrNotFound.
func (s *Store) FindOne(ctx context.Context, id string, fields []string) (store.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	record, ok := s.records[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return project(record, fields), nil
}

// FindMany returns up to limit records in dataset order.
func (s *Store) FindMany(ctx context.Context, limit int, fields []string) ([]store.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n := len(s.order)
	if limit > 0 && limit < n {
		n = limit
	}

	results := make([]store.Document, 0, n)
	for _, id := range s.order[:n] {
		results = append(results, project(s.records[id], fields))
	}
	return results, nil
}

// project copies the intersection of the record and the requested fields.
// An empty field list returns a full copy (minus _id, which the dataset
// never carries).
func project(record store.Document, fields []string) store.Document {
	if len(fields) == 0 {
		out := make(store.Document, len(record))
		for k, v := range record {
			out[k] = v
		}
		return out
	}

	out := make(store.Document, len(fields))
	for _, f := range fields {
		if v, ok := record[f]; ok {
			out[f] = v
		}
	}
	return out
}
