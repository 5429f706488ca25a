// Package mongorepo implements the repositories on MongoDB.
package mongorepo

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"aqua-waifu-bot/internal/pkg/db"
	"aqua-waifu-bot/internal/repository"
)

// Collection names.
const (
	UsersCollection       = "users"
	WaifusCollection      = "waifus"
	HaremsCollection      = "harems"
	DailyClaimsCollection = "daily_claims"
)

// New ensures the indexes exist and returns a Store backed by m.
func New(ctx context.Context, m *db.Mongo) (*repository.Store, error) {
	if err := EnsureIndexes(ctx, m.Database); err != nil {
		return nil, err
	}
	return repository.NewStore(
		db.BackendMongo,
		m,
		NewUserRepository(m.Database),
		NewWaifuRepository(m.Database),
		NewHaremRepository(m.Database),
		NewClaimRepository(m.Database),
	), nil
}

// EnsureIndexes creates the unique indexes the repositories rely on.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		UsersCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		WaifusCollection: {
			{Keys: bson.D{{Key: "waifu_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		HaremsCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "waifu_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		DailyClaimsCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "day", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}

	for name, models := range indexes {
		if _, err := database.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
		log.Debug().Str("collection", name).Msg("Indexes ensured")
	}
	return nil
}
