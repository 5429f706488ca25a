package pgrepo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"aqua-waifu-bot/internal/model"
)

// HaremRepository handles the harems table.
type HaremRepository struct {
	pool *pgxpool.Pool
}

// NewHaremRepository creates a new HaremRepository instance.
func NewHaremRepository(pool *pgxpool.Pool) *HaremRepository {
	return &HaremRepository{pool: pool}
}

// AddIfAbsent inserts the entry unless the primary key exists.
func (r *HaremRepository) AddIfAbsent(ctx context.Context, entry model.HaremEntry) (bool, error) {
	const query = `
		INSERT INTO harems (user_id, waifu_id, obtained_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, waifu_id) DO NOTHING
	`

	tag, err := r.pool.Exec(ctx, query, entry.UserID, entry.WaifuID, entry.ObtainedAt)
	if err != nil {
		return false, fmt.Errorf("failed to add harem entry: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// CountByUser returns the number of distinct waifus the user obtained.
func (r *HaremRepository) CountByUser(ctx context.Context, userID int64) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM harems WHERE user_id = $1`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count harem entries: %w", err)
	}
	return n, nil
}
