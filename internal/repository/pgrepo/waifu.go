package pgrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"aqua-waifu-bot/internal/model"
	"aqua-waifu-bot/internal/repository"
)

// WaifuRepository reads the waifus table.
type WaifuRepository struct {
	pool *pgxpool.Pool
}

// NewWaifuRepository creates a new WaifuRepository instance.
func NewWaifuRepository(pool *pgxpool.Pool) *WaifuRepository {
	return &WaifuRepository{pool: pool}
}

// Count returns the catalog size.
func (r *WaifuRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM waifus`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count waifus: %w", err)
	}
	return n, nil
}

// GetByOffset returns the waifu at offset in waifu_id order.
func (r *WaifuRepository) GetByOffset(ctx context.Context, offset int64) (*model.Waifu, error) {
	const query = `
		SELECT waifu_id, name, rarity, anime, image_url
		FROM waifus
		ORDER BY waifu_id
		OFFSET $1 LIMIT 1
	`
	return r.get(ctx, query, offset)
}

func (r *WaifuRepository) get(ctx context.Context, query string, arg int64) (*model.Waifu, error) {
	var w model.Waifu
	err := r.pool.QueryRow(ctx, query, arg).Scan(&w.WaifuID, &w.Name, &w.Rarity, &w.Anime, &w.ImageURL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrWaifuNotFound
		}
		return nil, fmt.Errorf("failed to get waifu: %w", err)
	}
	return &w, nil
}

// Insert adds catalog entries in one batch.
func (r *WaifuRepository) Insert(ctx context.Context, waifus ...model.Waifu) error {
	const query = `
		INSERT INTO waifus (waifu_id, name, rarity, anime, image_url)
		VALUES ($1, $2, $3, $4, $5)
	`

	batch := &pgx.Batch{}
	for _, w := range waifus {
		batch.Queue(query, w.WaifuID, w.Name, w.Rarity, w.Anime, w.ImageURL)
	}
	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert waifus: %w", err)
	}
	return nil
}
