package mongorepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"aqua-waifu-bot/internal/model"
	"aqua-waifu-bot/internal/repository"
)

// UserRepository stores users in the users collection.
type UserRepository struct {
	coll *mongo.Collection
}

// NewUserRepository creates a new UserRepository instance.
func NewUserRepository(database *mongo.Database) *UserRepository {
	return &UserRepository{coll: database.Collection(UsersCollection)}
}

// GetByID retrieves a user by their Telegram ID.
// Returns repository.ErrUserNotFound if the user does not exist.
func (r *UserRepository) GetByID(ctx context.Context, userID int64) (*model.User, error) {
	var user model.User
	err := r.coll.FindOne(ctx, bson.M{"user_id": userID}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetOrCreate upserts u with $setOnInsert so concurrent first interactions
// create exactly one document.
func (r *UserRepository) GetOrCreate(ctx context.Context, u *model.User) (*model.User, bool, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"user_id": u.UserID},
		bson.M{"$setOnInsert": u},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		// Two upserts racing on the unique index: the loser reads the winner's document
		if !mongo.IsDuplicateKeyError(err) {
			return nil, false, fmt.Errorf("failed to create user: %w", err)
		}
		res = &mongo.UpdateResult{}
	}

	user, err := r.GetByID(ctx, u.UserID)
	if err != nil {
		return nil, false, err
	}
	return user, res.UpsertedCount == 1, nil
}

// UpdateProfile refreshes the handle and first name.
func (r *UserRepository) UpdateProfile(ctx context.Context, userID int64, username, firstName string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{"$set": bson.M{"username": username, "first_name": firstName}},
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrUserNotFound
	}
	return nil
}

// ApplyDailyClaim applies the claim effects with a single atomic update.
func (r *UserRepository) ApplyDailyClaim(ctx context.Context, userID int64, reward int64, claimedAt time.Time) (*model.User, error) {
	var user model.User
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"user_id": userID},
		bson.M{
			"$inc": bson.M{"berries": reward, "daily_streak": 1},
			"$set": bson.M{"last_daily_claim": claimedAt.UTC()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to apply daily claim: %w", err)
	}
	return &user, nil
}
