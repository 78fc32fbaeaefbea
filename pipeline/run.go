// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"axonflow/insights/gateway"
	"axonflow/insights/gateway/store"
	"axonflow/insights/gateway/store/fixture"
	mongostore "axonflow/insights/gateway/store/mongo"
	"axonflow/insights/pipeline/intent"
	"axonflow/insights/pipeline/intent/groq"
	"axonflow/insights/shared/config"
	"axonflow/insights/shared/logger"
)

// Run is the exported entry point for the insights service. It loads
// configuration, selects the store, cache and classifier implementations
// once, and serves HTTP until the process exits.
func Run() error {
	log := logger.New("insights")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	fallback := fixture.New()

	var primary store.Store = fallback
	if cfg.UseMongoStore() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		mongoStore, err := mongostore.Connect(ctx, mongostore.Config{
			URI:        cfg.MongoURI,
			Database:   cfg.MongoDatabase,
			Collection: cfg.MongoCollection,
			AppName:    "insights",
		})
		cancel()
		if err != nil {
			// The fixture fallback keeps the service answering; the store
			// may come back on a later deploy.
			log.ErrorWithErr("", "record store unreachable at startup, serving fixture data", err, nil)
		} else {
			primary = mongoStore
			defer func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				_ = mongoStore.Close(shutdownCtx)
			}()
			log.Info("", "record store connected", map[string]interface{}{
				"database":   cfg.MongoDatabase,
				"collection": cfg.MongoCollection,
			})
		}
	} else {
		log.Info("", "record store not configured, serving fixture data", map[string]interface{}{
			"records": fallback.Size(),
		})
	}

	var cache gateway.Cache
	if cfg.CacheBackend == "redis" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisCache, err := gateway.NewRedisCache(ctx, cfg.RedisURL, cfg.CacheTTL)
		cancel()
		if err != nil {
			log.Warn("", "redis unavailable, using in-memory cache", map[string]interface{}{
				"error": err.Error(),
			})
			cache = gateway.NewMemoryCache(cfg.CacheTTL, cfg.CacheCapacity)
		} else {
			cache = redisCache
			defer func() { _ = redisCache.Close() }()
		}
	} else {
		cache = gateway.NewMemoryCache(cfg.CacheTTL, cfg.CacheCapacity)
	}

	allow := gateway.DefaultAllowList()
	gw := gateway.New(primary, fallback, cache, allow, cfg.StoreTimeout)

	var classifier intent.Classifier
	if cfg.ClassifierEnabled() {
		provider, err := groq.NewProvider(groq.Config{
			APIKey:  cfg.GroqAPIKey,
			BaseURL: cfg.GroqEndpoint,
			Model:   cfg.GroqModel,
			Timeout: cfg.ClassifierTimeout,
		})
		if err != nil {
			return fmt.Errorf("failed to create classifier: %w", err)
		}
		classifier = provider
		log.Info("", "classifier enabled", map[string]interface{}{"provider": provider.Name()})
	} else {
		log.Info("", "classifier key not set, heuristic-only parsing", nil)
	}

	resolver := intent.NewResolver(classifier, cfg.ClassifierTimeout)
	orch := NewOrchestrator(resolver, gw, cfg.MaxAttempts)
	server := NewServer(orch, NewMetrics())

	router := mux.NewRouter()
	server.RegisterRoutes(router)
	router.Handle("/prometheus", promhttp.Handler()).Methods("GET")

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	})

	log.Info("", "insights service listening", map[string]interface{}{
		"port":  cfg.Port,
		"store": gw.StoreName(),
		"cache": gw.CacheName(),
	})
	return http.ListenAndServe(":"+cfg.Port, corsHandler.Handler(router))
}
