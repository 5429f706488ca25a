package mongorepo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"aqua-waifu-bot/internal/model"
)

// HaremRepository stores harem entries, unique on (user_id, waifu_id).
type HaremRepository struct {
	coll *mongo.Collection
}

// NewHaremRepository creates a new HaremRepository instance.
func NewHaremRepository(database *mongo.Database) *HaremRepository {
	return &HaremRepository{coll: database.Collection(HaremsCollection)}
}

// AddIfAbsent inserts the entry; a duplicate key means the user already
// holds the waifu.
func (r *HaremRepository) AddIfAbsent(ctx context.Context, entry model.HaremEntry) (bool, error) {
	entry.ObtainedAt = entry.ObtainedAt.UTC()
	if _, err := r.coll.InsertOne(ctx, entry); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to add harem entry: %w", err)
	}
	return true, nil
}

// CountByUser returns the number of distinct waifus the user obtained.
func (r *HaremRepository) CountByUser(ctx context.Context, userID int64) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, fmt.Errorf("failed to count harem entries: %w", err)
	}
	return n, nil
}
