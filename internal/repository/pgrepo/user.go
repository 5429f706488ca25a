package pgrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"aqua-waifu-bot/internal/model"
	"aqua-waifu-bot/internal/repository"
)

const userColumns = `user_id, username, first_name, berries, daily_streak, weekly_streak,
	last_daily_claim, favorite_waifu_id, joined_at`

// UserRepository handles user data persistence.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository instance.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.UserID,
		&user.Username,
		&user.FirstName,
		&user.Berries,
		&user.DailyStreak,
		&user.WeeklyStreak,
		&user.LastDailyClaim,
		&user.FavoriteWaifuID,
		&user.JoinedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByID retrieves a user by their Telegram ID.
// Returns repository.ErrUserNotFound if the user does not exist.
func (r *UserRepository) GetByID(ctx context.Context, userID int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetOrCreate inserts u unless the id exists, then reads the stored row.
// ON CONFLICT DO NOTHING makes concurrent first interactions safe.
func (r *UserRepository) GetOrCreate(ctx context.Context, u *model.User) (*model.User, bool, error) {
	const query = `
		INSERT INTO users (user_id, username, first_name, berries, daily_streak, weekly_streak, joined_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO NOTHING
	`

	tag, err := r.pool.Exec(ctx, query,
		u.UserID, u.Username, u.FirstName, u.Berries, u.DailyStreak, u.WeeklyStreak, u.JoinedAt)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create user: %w", err)
	}

	user, err := r.GetByID(ctx, u.UserID)
	if err != nil {
		return nil, false, err
	}
	return user, tag.RowsAffected() == 1, nil
}

// UpdateProfile updates a user's handle and first name.
func (r *UserRepository) UpdateProfile(ctx context.Context, userID int64, username, firstName string) error {
	const query = `UPDATE users SET username = $2, first_name = $3 WHERE user_id = $1`

	result, err := r.pool.Exec(ctx, query, userID, username, firstName)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if result.RowsAffected() == 0 {
		return repository.ErrUserNotFound
	}
	return nil
}

// ApplyDailyClaim credits the reward and records the claim in one statement.
func (r *UserRepository) ApplyDailyClaim(ctx context.Context, userID int64, reward int64, claimedAt time.Time) (*model.User, error) {
	query := `
		UPDATE users
		SET berries = berries + $2, daily_streak = daily_streak + 1, last_daily_claim = $3
		WHERE user_id = $1
		RETURNING ` + userColumns

	user, err := scanUser(r.pool.QueryRow(ctx, query, userID, reward, claimedAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to apply daily claim: %w", err)
	}
	return user, nil
}
