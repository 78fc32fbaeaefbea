// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

// Package gateway implements the read-only data-access gateway: the only
// component allowed to query the record store. It enforces the field
// allow-list, consults a shared cache, bounds every store call with a
// timeout, and degrades to the fixture dataset when the store is
// unreachable.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"axonflow/insights/gateway/store"
	"axonflow/insights/shared/logger"
)

// Prometheus metrics
var (
	promCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insights_gateway_cache_lookups_total",
			Help: "Cache lookups by outcome (hit/miss)",
		},
		[]string{"outcome"},
	)
	promStoreCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insights_gateway_store_calls_total",
			Help: "Record store calls by outcome (success/not_found/fallback/error)",
		},
		[]string{"outcome"},
	)
	promStoreLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "insights_gateway_store_latency_milliseconds",
			Help:    "Record store call latency in milliseconds",
			Buckets: []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 30000},
		},
	)
)

func init() {
	prometheus.MustRegister(promCacheLookups)
	prometheus.MustRegister(promStoreCalls)
	prometheus.MustRegister(promStoreLatency)
}

// ErrEmptyProjection is returned when every requested field falls outside
// the allow-list. Serving such a request would require widening the
// projection past what the caller asked for.
var ErrEmptyProjection = errors.New("requested fields are all outside the allow-list")

// Error represents a gateway operation failure that survived the fixture
// fallback, i.e. a genuine terminal condition rather than a degradation.
type Error struct {
	Op    string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return "gateway." + e.Op + ": " + e.Cause.Error()
	}
	return "gateway." + e.Op + " failed"
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Gateway mediates all record store access. It is safe for concurrent use:
// per-request state stays on the stack, and the cache and allow-list are the
// only shared resources.
type Gateway struct {
	store    store.Store
	fallback store.Store
	cache    Cache
	allow    *AllowList
	timeout  time.Duration
	log      *logger.Logger
}

// New assembles a gateway. The fallback store must be deterministic and
// dependency-free; pass the fixture store. When primary and fallback are the
// same store the degradation path is a no-op by construction.
func New(primary, fallback store.Store, cache Cache, allow *AllowList, timeout time.Duration) *Gateway {
	return &Gateway{
		store:    primary,
		fallback: fallback,
		cache:    cache,
		allow:    allow,
		timeout:  timeout,
		log:      logger.New("gateway"),
	}
}

// AllowList exposes the gateway's allow-list for validation purposes.
func (g *Gateway) AllowList() *AllowList {
	return g.allow
}

// StoreName reports which record store implementation is active.
func (g *Gateway) StoreName() string {
	return g.store.Name()
}

// CacheName reports which cache backend is active.
func (g *Gateway) CacheName() string {
	return g.cache.Name()
}

// FetchOne returns a single projected document for the given subject id.
// The projection is the intersection of the requested fields and the
// allow-list; the identity field never appears. Results are served from the
// cache when a live entry exists, otherwise fetched, cached and returned.
func (g *Gateway) FetchOne(ctx context.Context, subjectID string, fields []string) (store.Document, error) {
	projected := g.allow.Filter(fields)
	if len(fields) > 0 && len(projected) == 0 {
		return nil, ErrEmptyProjection
	}
	key := singleKey(subjectID, projected)

	if docs, ok := g.cache.Get(ctx, key); ok && len(docs) == 1 {
		promCacheLookups.WithLabelValues("hit").Inc()
		g.log.Debug("", "cache hit", map[string]interface{}{"key": key})
		return docs[0], nil
	}
	promCacheLookups.WithLabelValues("miss").Inc()

	doc, err := g.fetchOneUpstream(ctx, subjectID, projected)
	if err != nil {
		return nil, err
	}

	g.cache.Set(ctx, key, []store.Document{doc})
	return doc, nil
}

// FetchClass returns up to limit projected documents in the underlying
// query's order. Caching, timeout and fallback follow the same policy as
// FetchOne, keyed by the limit and field tuple.
func (g *Gateway) FetchClass(ctx context.Context, limit int, fields []string) ([]store.Document, error) {
	projected := g.allow.Filter(fields)
	if len(fields) > 0 && len(projected) == 0 {
		return nil, ErrEmptyProjection
	}
	key := classKey(limit, projected)

	if docs, ok := g.cache.Get(ctx, key); ok {
		promCacheLookups.WithLabelValues("hit").Inc()
		return docs, nil
	}
	promCacheLookups.WithLabelValues("miss").Inc()

	docs, err := g.fetchClassUpstream(ctx, limit, projected)
	if err != nil {
		return nil, err
	}

	g.cache.Set(ctx, key, docs)
	return docs, nil
}

// fetchOneUpstream queries the primary store under the gateway timeout and
// degrades to the fallback store on any failure other than a clean
// not-found. Not-found from the primary is authoritative.
func (g *Gateway) fetchOneUpstream(ctx context.Context, subjectID string, fields []string) (store.Document, error) {
	storeCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	doc, err := g.store.FindOne(storeCtx, subjectID, fields)
	promStoreLatency.Observe(float64(time.Since(start).Milliseconds()))

	if err == nil {
		promStoreCalls.WithLabelValues("success").Inc()
		return g.restrict(doc), nil
	}
	if errors.Is(err, store.ErrNotFound) {
		promStoreCalls.WithLabelValues("not_found").Inc()
		return nil, fmt.Errorf("subject %s: %w", subjectID, store.ErrNotFound)
	}

	// Store unreachable or timed out. Designed degradation, not an error.
	promStoreCalls.WithLabelValues("fallback").Inc()
	g.log.Warn("", "record store unavailable, serving fixture data", map[string]interface{}{
		"store": g.store.Name(),
		"error": err.Error(),
	})

	doc, fbErr := g.fallback.FindOne(ctx, subjectID, fields)
	if fbErr != nil {
		if errors.Is(fbErr, store.ErrNotFound) {
			return nil, fmt.Errorf("subject %s: %w", subjectID, store.ErrNotFound)
		}
		promStoreCalls.WithLabelValues("error").Inc()
		return nil, &Error{Op: "FetchOne", Cause: fbErr}
	}
	return g.restrict(doc), nil
}

func (g *Gateway) fetchClassUpstream(ctx context.Context, limit int, fields []string) ([]store.Document, error) {
	storeCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	docs, err := g.store.FindMany(storeCtx, limit, fields)
	promStoreLatency.Observe(float64(time.Since(start).Milliseconds()))

	if err == nil {
		promStoreCalls.WithLabelValues("success").Inc()
		return g.restrictAll(docs), nil
	}

	promStoreCalls.WithLabelValues("fallback").Inc()
	g.log.Warn("", "record store unavailable, serving fixture data", map[string]interface{}{
		"store": g.store.Name(),
		"error": err.Error(),
	})

	docs, fbErr := g.fallback.FindMany(ctx, limit, fields)
	if fbErr != nil {
		promStoreCalls.WithLabelValues("error").Inc()
		return nil, &Error{Op: "FetchClass", Cause: fbErr}
	}
	return g.restrictAll(docs), nil
}

// restrict drops every field outside the allow-list, the store identity
// field included. No field outside the allow-list may leave the gateway,
// even if a store implementation returns extras.
func (g *Gateway) restrict(doc store.Document) store.Document {
	for field := range doc {
		if !g.allow.Contains(field) {
			delete(doc, field)
		}
	}
	return doc
}

func (g *Gateway) restrictAll(docs []store.Document) []store.Document {
	for _, doc := range docs {
		g.restrict(doc)
	}
	return docs
}
