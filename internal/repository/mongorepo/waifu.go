package mongorepo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"aqua-waifu-bot/internal/model"
	"aqua-waifu-bot/internal/repository"
)

// WaifuRepository reads the waifus collection.
type WaifuRepository struct {
	coll *mongo.Collection
}

// NewWaifuRepository creates a new WaifuRepository instance.
func NewWaifuRepository(database *mongo.Database) *WaifuRepository {
	return &WaifuRepository{coll: database.Collection(WaifusCollection)}
}

// Count returns the catalog size.
func (r *WaifuRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("failed to count waifus: %w", err)
	}
	return n, nil
}

// GetByOffset returns the waifu at offset in waifu_id order.
func (r *WaifuRepository) GetByOffset(ctx context.Context, offset int64) (*model.Waifu, error) {
	opts := options.FindOne().
		SetSort(bson.D{{Key: "waifu_id", Value: 1}}).
		SetSkip(offset)

	var w model.Waifu
	if err := r.coll.FindOne(ctx, bson.D{}, opts).Decode(&w); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrWaifuNotFound
		}
		return nil, fmt.Errorf("failed to get waifu at offset %d: %w", offset, err)
	}
	return &w, nil
}

// Insert adds catalog entries. The bot never calls it; catalog seeding and
// tests do.
func (r *WaifuRepository) Insert(ctx context.Context, waifus ...model.Waifu) error {
	if len(waifus) == 0 {
		return nil
	}
	docs := make([]interface{}, len(waifus))
	for i := range waifus {
		docs[i] = waifus[i]
	}
	if _, err := r.coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert waifus: %w", err)
	}
	return nil
}
