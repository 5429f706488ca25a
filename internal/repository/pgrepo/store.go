// Package pgrepo implements the repositories on PostgreSQL.
package pgrepo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"aqua-waifu-bot/internal/pkg/db"
	"aqua-waifu-bot/internal/repository"
)

// schema is applied on startup. Every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_id BIGINT PRIMARY KEY,
		username VARCHAR(255) NOT NULL DEFAULT '',
		first_name VARCHAR(255) NOT NULL DEFAULT '',
		berries BIGINT NOT NULL DEFAULT 1000,
		daily_streak INTEGER NOT NULL DEFAULT 0,
		weekly_streak INTEGER NOT NULL DEFAULT 0,
		last_daily_claim TIMESTAMPTZ,
		favorite_waifu_id BIGINT,
		joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS waifus (
		waifu_id BIGINT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		rarity VARCHAR(64) NOT NULL,
		anime VARCHAR(255) NOT NULL,
		image_url TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS harems (
		user_id BIGINT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
		waifu_id BIGINT NOT NULL,
		obtained_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (user_id, waifu_id)
	)`,
	`CREATE TABLE IF NOT EXISTS daily_claims (
		user_id BIGINT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
		day VARCHAR(10) NOT NULL,
		claimed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (user_id, day)
	)`,
}

// Migrate applies the schema.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	log.Debug().Int("statements", len(schema)).Msg("PostgreSQL schema applied")
	return nil
}

// New migrates the schema and returns a Store backed by p.
func New(ctx context.Context, p *db.Pool) (*repository.Store, error) {
	if err := Migrate(ctx, p.Pool); err != nil {
		return nil, err
	}
	return repository.NewStore(
		db.BackendPostgres,
		p,
		NewUserRepository(p.Pool),
		NewWaifuRepository(p.Pool),
		NewHaremRepository(p.Pool),
		NewClaimRepository(p.Pool),
	), nil
}
