package mongorepo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"aqua-waifu-bot/internal/model"
	"aqua-waifu-bot/internal/repository"
)

// ClaimRepository stores daily claim keys, unique on (user_id, day).
type ClaimRepository struct {
	coll *mongo.Collection
}

// NewClaimRepository creates a new ClaimRepository instance.
func NewClaimRepository(database *mongo.Database) *ClaimRepository {
	return &ClaimRepository{coll: database.Collection(DailyClaimsCollection)}
}

// Reserve inserts the claim key.
func (r *ClaimRepository) Reserve(ctx context.Context, claim model.DailyClaim) error {
	claim.ClaimedAt = claim.ClaimedAt.UTC()
	if _, err := r.coll.InsertOne(ctx, claim); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrClaimExists
		}
		return fmt.Errorf("failed to reserve daily claim: %w", err)
	}
	return nil
}

// Release deletes the claim key.
func (r *ClaimRepository) Release(ctx context.Context, userID int64, day string) error {
	if _, err := r.coll.DeleteOne(ctx, bson.M{"user_id": userID, "day": day}); err != nil {
		return fmt.Errorf("failed to release daily claim: %w", err)
	}
	return nil
}
