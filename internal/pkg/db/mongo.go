package db

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"

	"aqua-waifu-bot/internal/config"
	"aqua-waifu-bot/internal/pkg/retry"
)

// DefaultMongoDatabase is used when neither DATABASE_NAME nor the URI path
// names a database.
const DefaultMongoDatabase = "waifu_bot"

// Mongo wraps a connected client and the bot's database.
type Mongo struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// MongoDatabaseName resolves the database to use: an explicit name wins,
// then the database in the URI path, then DefaultMongoDatabase.
func MongoDatabaseName(uri, name string) string {
	if name != "" {
		return name
	}
	cs, err := connstring.ParseAndValidate(uri)
	if err == nil && cs.Database != "" {
		return cs.Database
	}
	return DefaultMongoDatabase
}

// NewMongo connects to MongoDB using cfg.URI and selects the database
// resolved by MongoDatabaseName.
func NewMongo(ctx context.Context, cfg *config.DatabaseConfig) (*Mongo, error) {
	name := MongoDatabaseName(cfg.URI, cfg.Name)

	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.PoolSize > 0 {
		opts.SetMaxPoolSize(uint64(cfg.PoolSize))
	}
	if cfg.ConnectTimeout > 0 {
		opts.SetConnectTimeout(cfg.ConnectTimeout)
		opts.SetServerSelectionTimeout(cfg.ConnectTimeout)
	}
	if cfg.MaxConnIdleTime > 0 {
		opts.SetMaxConnIdleTime(cfg.MaxConnIdleTime)
	}

	log.Info().
		Str("database", name).
		Int("pool_size", cfg.PoolSize).
		Msg("Connecting to MongoDB")

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client: %w", err)
	}

	err = retry.Do(ctx, time.Second, cfg.ConnectRetries, func() error {
		return client.Ping(ctx, readpref.Primary())
	}, func(err error, wait time.Duration) {
		log.Warn().Err(err).Dur("retry_in", wait).Msg("MongoDB not reachable yet")
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Msg("Successfully connected to MongoDB")

	return &Mongo{Client: client, Database: client.Database(name)}, nil
}

// Ping checks that the primary is reachable.
func (m *Mongo) Ping(ctx context.Context) error {
	return m.Client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (m *Mongo) Close(ctx context.Context) error {
	if err := m.Client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect mongo client: %w", err)
	}
	log.Info().Msg("MongoDB connection closed")
	return nil
}
