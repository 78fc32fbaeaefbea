// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

// Package mongo implements the record store on top of a MongoDB collection.
// Access is strictly read-only: only FindOne and Find with a field projection
// are ever issued, and the _id field is excluded from every projection.
package mongo

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"axonflow/insights/gateway/store"
)

const (
	// DefaultConnectTimeout is the default connection timeout
	DefaultConnectTimeout = 10 * time.Second
	// DefaultMaxPoolSize is the default maximum connection pool size
	DefaultMaxPoolSize = 100
	// DefaultMinPoolSize is the default minimum connection pool size
	DefaultMinPoolSize = 10
)

// Config contains connection settings for the MongoDB record store.
type Config struct {
	URI        string // Required: mongodb:// connection string
	Database   string // Required: database name
	Collection string // Required: collection holding student records
	AppName    string // Optional: app name for server-side monitoring
}

// Store is a read-only MongoDB record store.
type Store struct {
	client     *mongo.Client
	collection *mongo.Collection
	logger     *log.Logger
	dbName     string
}

// Connect establishes a pooled connection to MongoDB and verifies it with a
// ping before returning the store.
func Connect(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URI == "" || cfg.Database == "" || cfg.Collection == "" {
		return nil, fmt.Errorf("mongo store requires URI, database and collection")
	}

	appName := cfg.AppName
	if appName == "" {
		appName = "Insights-RecordStore"
	}

	clientOpts := options.Client().
		ApplyURI(cfg.URI).
		SetMaxPoolSize(DefaultMaxPoolSize).
		SetMinPoolSize(DefaultMinPoolSize).
		SetConnectTimeout(DefaultConnectTimeout).
		SetAppName(appName).
		SetRetryReads(true)

	connectCtx, cancel := context.WithTimeout(ctx, DefaultConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	s := &Store{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		logger:     log.New(os.Stdout, "[STORE_MONGO] ", log.LstdFlags),
		dbName:     cfg.Database,
	}

	s.logger.Printf("Connected to MongoDB record store (database=%s, collection=%s, max_pool=%d)",
		cfg.Database, cfg.Collection, DefaultMaxPoolSize)

	return s, nil
}

// Name identifies the implementation
func (s *Store) Name() string {
	return "mongodb"
}

// Close disconnects the underlying client
func (s *Store) Close(ctx context.Context) error {
	disconnectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.client.Disconnect(disconnectCtx)
}

// FindOne looks up a single record by its 24-hex id with a field projection.
// The _id field is always excluded from the projection.
func (s *Store) FindOne(ctx context.Context, id string, fields []string) (store.Document, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid object id %q: %w", id, err)
	}

	opts := options.FindOne().SetProjection(projection(fields))

	var doc bson.M
	err = s.collection.FindOne(ctx, bson.M{"_id": objectID}, opts).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo findOne failed: %w", err)
	}

	return bsonToDocument(doc), nil
}

// FindMany returns up to limit records with a field projection, in cursor
// order. The _id field is excluded.
func (s *Store) FindMany(ctx context.Context, limit int, fields []string) ([]store.Document, error) {
	opts := options.Find().SetProjection(projection(fields))
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := s.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo find failed: %w", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	var results []store.Document
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("mongo cursor decode failed: %w", err)
		}
		results = append(results, bsonToDocument(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("mongo cursor failed: %w", err)
	}

	return results, nil
}

// HealthCheck pings the server and reports latency
func (s *Store) HealthCheck(ctx context.Context) (*store.HealthStatus, error) {
	start := time.Now()
	err := s.client.Ping(ctx, readpref.Primary())
	latency := time.Since(start)

	if err != nil {
		return &store.HealthStatus{
			Healthy:   false,
			Latency:   latency,
			Error:     err.Error(),
			Timestamp: time.Now(),
		}, nil
	}

	return &store.HealthStatus{
		Healthy:   true,
		Latency:   latency,
		Timestamp: time.Now(),
	}, nil
}

// projection builds an inclusion projection for the requested fields with
// _id explicitly suppressed.
func projection(fields []string) bson.M {
	proj := bson.M{"_id": 0}
	for _, f := range fields {
		proj[f] = 1
	}
	return proj
}

// bsonToDocument converts a decoded BSON document into a plain Document with
// JSON-serializable values.
func bsonToDocument(doc bson.M) store.Document {
	result := make(store.Document, len(doc))
	for k, v := range doc {
		result[k] = convertFromBSON(v)
	}
	return result
}

func convertFromBSON(v interface{}) interface{} {
	switch val := v.(type) {
	case primitive.ObjectID:
		return val.Hex()
	case primitive.DateTime:
		return val.Time()
	case bson.M:
		converted := make(map[string]interface{}, len(val))
		for k, item := range val {
			converted[k] = convertFromBSON(item)
		}
		return converted
	case bson.A:
		converted := make([]interface{}, len(val))
		for i, item := range val {
			converted[i] = convertFromBSON(item)
		}
		return converted
	case primitive.D:
		converted := make(map[string]interface{}, len(val))
		for _, elem := range val {
			converted[elem.Key] = convertFromBSON(elem.Value)
		}
		return converted
	default:
		return val
	}
}
