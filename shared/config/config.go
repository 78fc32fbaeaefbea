// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

// Package config loads service configuration from environment variables with
// an optional YAML file override. Environment variables always provide the
// baseline; a file named by INSIGHTS_CONFIG_FILE can replace individual
// settings and may reference environment variables with ${VAR} syntax.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults for tunable settings. Each maps to exactly one environment
// variable and has no hidden coupling to any other value.
const (
	DefaultPort              = "8080"
	DefaultCacheTTL          = 60 * time.Second
	DefaultCacheCapacity     = 200
	DefaultStoreTimeout      = 30 * time.Second
	DefaultClassifierTimeout = 10 * time.Second
	DefaultMaxAttempts       = 2
	DefaultCacheBackend      = "memory"
)

// Config holds every runtime setting for the insights service.
type Config struct {
	Port string

	// Record store. All three must be set to select the MongoDB store;
	// otherwise the deterministic fixture store is used.
	MongoURI        string
	MongoDatabase   string
	MongoCollection string

	// Classifier. An empty key disables classifier calls entirely and the
	// resolver runs heuristic-only. That is a supported mode, not an error.
	GroqAPIKey   string
	GroqModel    string
	GroqEndpoint string

	// Cache. Backend is "memory" (default) or "redis".
	CacheBackend  string
	RedisURL      string
	CacheTTL      time.Duration
	CacheCapacity int

	StoreTimeout      time.Duration
	ClassifierTimeout time.Duration
	MaxAttempts       int
}

// Load builds the configuration from the environment, then applies the
// optional config file on top.
func Load() (*Config, error) {
	cfg := &Config{
		Port:              getEnv("PORT", DefaultPort),
		MongoURI:          os.Getenv("MONGO_URI"),
		MongoDatabase:     os.Getenv("MONGO_DB"),
		MongoCollection:   os.Getenv("MONGO_COLLECTION"),
		GroqAPIKey:        os.Getenv("GROQ_API_KEY"),
		GroqModel:         os.Getenv("GROQ_MODEL"),
		GroqEndpoint:      os.Getenv("GROQ_ENDPOINT"),
		CacheBackend:      getEnv("CACHE_BACKEND", DefaultCacheBackend),
		RedisURL:          os.Getenv("REDIS_URL"),
		CacheTTL:          getEnvDuration("CACHE_TTL", DefaultCacheTTL),
		CacheCapacity:     getEnvInt("CACHE_CAPACITY", DefaultCacheCapacity),
		StoreTimeout:      getEnvDuration("STORE_TIMEOUT", DefaultStoreTimeout),
		ClassifierTimeout: getEnvDuration("CLASSIFIER_TIMEOUT", DefaultClassifierTimeout),
		MaxAttempts:       getEnvInt("MAX_ATTEMPTS", DefaultMaxAttempts),
	}

	if filePath := os.Getenv("INSIGHTS_CONFIG_FILE"); filePath != "" {
		if err := cfg.applyFile(filePath); err != nil {
			return nil, err
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// UseMongoStore reports whether the real record store is fully configured.
func (c *Config) UseMongoStore() bool {
	return c.MongoURI != "" && c.MongoDatabase != "" && c.MongoCollection != ""
}

// ClassifierEnabled reports whether classifier calls are possible.
func (c *Config) ClassifierEnabled() bool {
	return c.GroqAPIKey != ""
}

func (c *Config) validate() error {
	switch c.CacheBackend {
	case "memory":
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("CACHE_BACKEND=redis requires REDIS_URL")
		}
	default:
		return fmt.Errorf("unknown cache backend %q (want memory or redis)", c.CacheBackend)
	}
	if c.CacheCapacity <= 0 {
		return fmt.Errorf("cache capacity must be positive, got %d", c.CacheCapacity)
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("max attempts must be positive, got %d", c.MaxAttempts)
	}
	return nil
}

// fileConfig mirrors Config for the YAML overlay. Durations are strings in
// the file ("60s", "1m") and parsed with time.ParseDuration.
type fileConfig struct {
	Port              string `yaml:"port"`
	MongoURI          string `yaml:"mongo_uri"`
	MongoDatabase     string `yaml:"mongo_database"`
	MongoCollection   string `yaml:"mongo_collection"`
	GroqAPIKey        string `yaml:"groq_api_key"`
	GroqModel         string `yaml:"groq_model"`
	GroqEndpoint      string `yaml:"groq_endpoint"`
	CacheBackend      string `yaml:"cache_backend"`
	RedisURL          string `yaml:"redis_url"`
	CacheTTL          string `yaml:"cache_ttl"`
	CacheCapacity     int    `yaml:"cache_capacity"`
	StoreTimeout      string `yaml:"store_timeout"`
	ClassifierTimeout string `yaml:"classifier_timeout"`
	MaxAttempts       int    `yaml:"max_attempts"`
}

// applyFile overlays settings from a YAML file. The file wins over the
// environment for any key it sets.
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expanded := expandEnvVars(string(data))

	var overlay fileConfig
	if err := yaml.Unmarshal([]byte(expanded), &overlay); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if overlay.Port != "" {
		c.Port = overlay.Port
	}
	if overlay.MongoURI != "" {
		c.MongoURI = overlay.MongoURI
	}
	if overlay.MongoDatabase != "" {
		c.MongoDatabase = overlay.MongoDatabase
	}
	if overlay.MongoCollection != "" {
		c.MongoCollection = overlay.MongoCollection
	}
	if overlay.GroqAPIKey != "" {
		c.GroqAPIKey = overlay.GroqAPIKey
	}
	if overlay.GroqModel != "" {
		c.GroqModel = overlay.GroqModel
	}
	if overlay.GroqEndpoint != "" {
		c.GroqEndpoint = overlay.GroqEndpoint
	}
	if overlay.CacheBackend != "" {
		c.CacheBackend = overlay.CacheBackend
	}
	if overlay.RedisURL != "" {
		c.RedisURL = overlay.RedisURL
	}
	if overlay.CacheTTL != "" {
		d, err := time.ParseDuration(overlay.CacheTTL)
		if err != nil {
			return fmt.Errorf("invalid cache_ttl %q: %w", overlay.CacheTTL, err)
		}
		c.CacheTTL = d
	}
	if overlay.CacheCapacity != 0 {
		c.CacheCapacity = overlay.CacheCapacity
	}
	if overlay.StoreTimeout != "" {
		d, err := time.ParseDuration(overlay.StoreTimeout)
		if err != nil {
			return fmt.Errorf("invalid store_timeout %q: %w", overlay.StoreTimeout, err)
		}
		c.StoreTimeout = d
	}
	if overlay.ClassifierTimeout != "" {
		d, err := time.ParseDuration(overlay.ClassifierTimeout)
		if err != nil {
			return fmt.Errorf("invalid classifier_timeout %q: %w", overlay.ClassifierTimeout, err)
		}
		c.ClassifierTimeout = d
	}
	if overlay.MaxAttempts != 0 {
		c.MaxAttempts = overlay.MaxAttempts
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// envVarRegex matches ${VAR_NAME} or $VAR_NAME patterns
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// expandEnvVars expands environment variable references in the string.
// Supports ${VAR_NAME}, $VAR_NAME and ${VAR_NAME:-default} syntax.
func expandEnvVars(content string) string {
	return envVarRegex.ReplaceAllStringFunc(content, func(match string) string {
		var varName string
		if strings.HasPrefix(match, "${") {
			varName = match[2 : len(match)-1]
		} else {
			varName = match[1:]
		}

		defaultVal := ""
		if idx := strings.Index(varName, ":-"); idx != -1 {
			defaultVal = varName[idx+2:]
			varName = varName[:idx]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultVal
	})
}
