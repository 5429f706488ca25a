// Package repository defines the storage contracts shared by the Mongo,
// Postgres and in-memory backends.
package repository

import (
	"context"
	"errors"
	"time"

	"aqua-waifu-bot/internal/model"
)

// Common errors for repository operations.
var (
	ErrUserNotFound  = errors.New("user not found")
	ErrWaifuNotFound = errors.New("waifu not found")
	ErrClaimExists   = errors.New("daily claim already exists")
)

// UserRepository handles user persistence.
type UserRepository interface {
	// GetByID returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, userID int64) (*model.User, error)

	// GetOrCreate returns the stored user or atomically inserts u.
	// The bool reports whether the record was created by this call.
	GetOrCreate(ctx context.Context, u *model.User) (*model.User, bool, error)

	// UpdateProfile refreshes the handle and first name.
	UpdateProfile(ctx context.Context, userID int64, username, firstName string) error

	// ApplyDailyClaim adds reward to the balance, increments the daily
	// streak and stores claimedAt as the last claim, in one update.
	ApplyDailyClaim(ctx context.Context, userID int64, reward int64, claimedAt time.Time) (*model.User, error)
}

// WaifuRepository reads the catalog. The catalog is read-only to the bot.
type WaifuRepository interface {
	Count(ctx context.Context) (int64, error)

	// GetByOffset returns the waifu at offset in catalog id order,
	// or ErrWaifuNotFound when the catalog shrank underneath the caller.
	GetByOffset(ctx context.Context, offset int64) (*model.Waifu, error)
}

// HaremRepository handles the user/waifu join records.
type HaremRepository interface {
	// AddIfAbsent inserts the entry unless the (user, waifu) pair exists.
	// It reports whether a new entry was created.
	AddIfAbsent(ctx context.Context, entry model.HaremEntry) (bool, error)

	CountByUser(ctx context.Context, userID int64) (int64, error)
}

// ClaimRepository guards the once-per-day claim at the storage layer.
type ClaimRepository interface {
	// Reserve records the claim key, returning ErrClaimExists if the user
	// already claimed on that day.
	Reserve(ctx context.Context, claim model.DailyClaim) error

	// Release removes a reservation whose claim could not be completed.
	Release(ctx context.Context, userID int64, day string) error
}

// Conn is the underlying connection of a backend.
type Conn interface {
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Store bundles the repositories of one backend.
type Store struct {
	Backend string
	Users   UserRepository
	Waifus  WaifuRepository
	Harems  HaremRepository
	Claims  ClaimRepository

	conn Conn
}

// NewStore assembles a Store.
func NewStore(backend string, conn Conn, users UserRepository, waifus WaifuRepository, harems HaremRepository, claims ClaimRepository) *Store {
	return &Store{
		Backend: backend,
		Users:   users,
		Waifus:  waifus,
		Harems:  harems,
		Claims:  claims,
		conn:    conn,
	}
}

// Ping reports whether the backend connection is usable.
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}

// Close releases the backend connection.
func (s *Store) Close(ctx context.Context) error {
	return s.conn.Close(ctx)
}
