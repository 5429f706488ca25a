package pgrepo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"aqua-waifu-bot/internal/model"
	"aqua-waifu-bot/internal/repository"
)

// ClaimRepository handles the daily_claims table.
type ClaimRepository struct {
	pool *pgxpool.Pool
}

// NewClaimRepository creates a new ClaimRepository instance.
func NewClaimRepository(pool *pgxpool.Pool) *ClaimRepository {
	return &ClaimRepository{pool: pool}
}

// Reserve inserts the claim key. Zero affected rows means the key exists.
func (r *ClaimRepository) Reserve(ctx context.Context, claim model.DailyClaim) error {
	const query = `
		INSERT INTO daily_claims (user_id, day, claimed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, day) DO NOTHING
	`

	tag, err := r.pool.Exec(ctx, query, claim.UserID, claim.Day, claim.ClaimedAt)
	if err != nil {
		return fmt.Errorf("failed to reserve daily claim: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrClaimExists
	}
	return nil
}

// Release deletes the claim key.
func (r *ClaimRepository) Release(ctx context.Context, userID int64, day string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM daily_claims WHERE user_id = $1 AND day = $2`, userID, day); err != nil {
		return fmt.Errorf("failed to release daily claim: %w", err)
	}
	return nil
}
