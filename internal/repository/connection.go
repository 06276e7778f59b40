package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultMongoMaxPool        = 50
	defaultMongoConnectTimeout = 10 * time.Second
	mongoSelectionTimeout      = 5 * time.Second
)

// MongoConfig locates the order database. Zero values take the storefront defaults.
type MongoConfig struct {
	URI            string
	Database       string
	MaxPoolSize    uint64
	MinPoolSize    uint64
	ConnectTimeout time.Duration
}

func mongoClientOptions(cfg MongoConfig) *options.ClientOptions {
	maxPool := cfg.MaxPoolSize
	if maxPool == 0 {
		maxPool = defaultMongoMaxPool
	}
	minPool := min(cfg.MinPoolSize, maxPool)
	connectTimeout := cfg.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = defaultMongoConnectTimeout
	}

	return options.Client().
		ApplyURI(cfg.URI).
		SetAppName("storefront").
		SetConnectTimeout(connectTimeout).
		SetServerSelectionTimeout(mongoSelectionTimeout).
		SetMaxPoolSize(maxPool).
		SetMinPoolSize(minPool)
}

// ConnectMongoDB dials and pings the server before handing out the database.
func ConnectMongoDB(ctx context.Context, cfg MongoConfig) (*mongo.Database, error) {
	client, err := mongo.Connect(ctx, mongoClientOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("connect order database %s: %w", cfg.Database, err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping order database %s: %w", cfg.Database, err)
	}

	return client.Database(cfg.Database), nil
}
