// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package pipeline

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus metrics
var (
	promRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insights_pipeline_requests_total",
			Help: "Total number of requests processed by the pipeline",
		},
		[]string{"status"},
	)
	promRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "insights_pipeline_request_duration_milliseconds",
			Help:    "Request duration in milliseconds",
			Buckets: []float64{1, 2, 5, 10, 20, 50, 100, 200, 500, 1000, 5000},
		},
		[]string{"kind"},
	)
	promHeuristicFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "insights_pipeline_heuristic_fallbacks_total",
			Help: "Requests resolved by the heuristic parser instead of the classifier",
		},
	)
)

func init() {
	prometheus.MustRegister(promRequestsTotal)
	prometheus.MustRegister(promRequestDuration)
	prometheus.MustRegister(promHeuristicFallbacks)
}

const latencyWindow = 1000

// Metrics tracks pipeline performance for the JSON metrics endpoint.
type Metrics struct {
	mu sync.RWMutex

	totalRequests   int64
	successRequests int64
	failedRequests  int64

	// Last latencyWindow request latencies in milliseconds.
	latencies []int64

	// Per query kind request counts.
	kindCounters map[string]int64

	startTime time.Time
}

// NewMetrics creates an empty collector.
func NewMetrics() *Metrics {
	return &Metrics{
		latencies:    make([]int64, 0, latencyWindow),
		kindCounters: make(map[string]int64),
		startTime:    time.Now(),
	}
}

// RecordRequest tracks one finished request.
func (m *Metrics) RecordRequest(kind string, latencyMS int64, success bool) {
	atomic.AddInt64(&m.totalRequests, 1)
	status := "success"
	if success {
		atomic.AddInt64(&m.successRequests, 1)
	} else {
		atomic.AddInt64(&m.failedRequests, 1)
		status = "error"
	}

	promRequestsTotal.WithLabelValues(status).Inc()
	promRequestDuration.WithLabelValues(kind).Observe(float64(latencyMS))

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.latencies) >= latencyWindow {
		m.latencies = m.latencies[1:]
	}
	m.latencies = append(m.latencies, latencyMS)
	m.kindCounters[kind]++
}

// RecordHeuristicFallback tracks a request the classifier could not parse.
func (m *Metrics) RecordHeuristicFallback() {
	promHeuristicFallbacks.Inc()
}

// Snapshot is the JSON shape of the metrics endpoint.
type Snapshot struct {
	UptimeSeconds     float64          `json:"uptime_seconds"`
	TotalRequests     int64            `json:"total_requests"`
	SuccessRequests   int64            `json:"success_requests"`
	FailedRequests    int64            `json:"failed_requests"`
	SuccessRatePct    float64          `json:"success_rate_pct"`
	RequestsPerSecond float64          `json:"requests_per_second"`
	LatencyAvgMS      float64          `json:"latency_avg_ms"`
	LatencyP50MS      int64            `json:"latency_p50_ms"`
	LatencyP95MS      int64            `json:"latency_p95_ms"`
	LatencyP99MS      int64            `json:"latency_p99_ms"`
	RequestsByKind    map[string]int64 `json:"requests_by_kind"`
	Timestamp         time.Time        `json:"timestamp"`
}

// Snapshot computes the current metrics view.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	total := atomic.LoadInt64(&m.totalRequests)
	success := atomic.LoadInt64(&m.successRequests)
	failed := atomic.LoadInt64(&m.failedRequests)

	uptime := time.Since(m.startTime).Seconds()
	rps := float64(0)
	if uptime > 0 {
		rps = float64(total) / uptime
	}
	successRate := float64(100)
	if total > 0 {
		successRate = float64(success) * 100 / float64(total)
	}

	byKind := make(map[string]int64, len(m.kindCounters))
	for k, v := range m.kindCounters {
		byKind[k] = v
	}

	return Snapshot{
		UptimeSeconds:     uptime,
		TotalRequests:     total,
		SuccessRequests:   success,
		FailedRequests:    failed,
		SuccessRatePct:    successRate,
		RequestsPerSecond: rps,
		LatencyAvgMS:      calculateAverage(m.latencies),
		LatencyP50MS:      calculatePercentile(m.latencies, 50),
		LatencyP95MS:      calculatePercentile(m.latencies, 95),
		LatencyP99MS:      calculatePercentile(m.latencies, 99),
		RequestsByKind:    byKind,
		Timestamp:         time.Now().UTC(),
	}
}

func calculatePercentile(latencies []int64, percentile int) int64 {
	if len(latencies) == 0 {
		return 0
	}
	sorted := make([]int64, len(latencies))
	copy(sorted, latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	idx := len(sorted) * percentile / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func calculateAverage(latencies []int64) float64 {
	if len(latencies) == 0 {
		return 0
	}
	var sum int64
	for _, l := range latencies {
		sum += l
	}
	return float64(sum) / float64(len(latencies))
}
