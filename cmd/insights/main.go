// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

// Package main is the entry point for the Insights service.
//
// Insights answers questions about student performance:
// - Resolves free-form questions into structured queries
// - Reads projected records through an allow-listed gateway
// - Computes summary, trend and risk analytics
// - Serves the results over a JSON HTTP API
//
// Usage:
//
//	./insights
//
// Environment Variables:
//
//	PORT - HTTP server port (default: 8080)
//	MONGO_URI, MONGO_DB, MONGO_COLLECTION - record store; unset serves fixture data
//	GROQ_API_KEY - classifier key; unset forces heuristic-only parsing
//	CACHE_BACKEND - "memory" (default) or "redis" (requires REDIS_URL)
//	CACHE_TTL, CACHE_CAPACITY, STORE_TIMEOUT, MAX_ATTEMPTS - pipeline tuning
package main

import (
	"log"

	"axonflow/insights/pipeline"
)

func main() {
	if err := pipeline.Run(); err != nil {
		log.Fatalf("insights service failed: %v", err)
	}
}
