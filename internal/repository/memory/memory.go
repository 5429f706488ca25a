// Package memory implements the repositories in process memory. It backs
// the memory:// database URI for local runs and the service and handler
// tests. It enforces the same uniqueness rules as the real backends.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"aqua-waifu-bot/internal/model"
	"aqua-waifu-bot/internal/pkg/db"
	"aqua-waifu-bot/internal/repository"
)

type pairKey struct {
	userID int64
	other  int64
}

type claimKey struct {
	userID int64
	day    string
}

// DB holds all collections behind one mutex.
type DB struct {
	mu      sync.RWMutex
	users   map[int64]model.User
	waifus  []model.Waifu // sorted by WaifuID
	harems  map[pairKey]model.HaremEntry
	claims  map[claimKey]model.DailyClaim
	pingErr error
}

// New creates an empty DB.
func New() *DB {
	return &DB{
		users:  make(map[int64]model.User),
		harems: make(map[pairKey]model.HaremEntry),
		claims: make(map[claimKey]model.DailyClaim),
	}
}

// Store returns the repositories backed by d.
func (d *DB) Store() *repository.Store {
	return repository.NewStore(
		db.BackendMemory,
		d,
		&UserRepository{db: d},
		&WaifuRepository{db: d},
		&HaremRepository{db: d},
		&ClaimRepository{db: d},
	)
}

// Ping returns the error set with SetPingError.
func (d *DB) Ping(_ context.Context) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.pingErr
}

// Close is a no-op.
func (d *DB) Close(_ context.Context) error { return nil }

// SetPingError makes Ping fail with err, or succeed again when err is nil.
func (d *DB) SetPingError(err error) {
	d.mu.Lock()
	d.pingErr = err
	d.mu.Unlock()
}

// AddWaifus seeds the catalog, replacing entries with the same id.
func (d *DB) AddWaifus(waifus ...model.Waifu) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, w := range waifus {
		i := sort.Search(len(d.waifus), func(i int) bool { return d.waifus[i].WaifuID >= w.WaifuID })
		if i < len(d.waifus) && d.waifus[i].WaifuID == w.WaifuID {
			d.waifus[i] = w
			continue
		}
		d.waifus = append(d.waifus, model.Waifu{})
		copy(d.waifus[i+1:], d.waifus[i:])
		d.waifus[i] = w
	}
}

// RemoveWaifu deletes a catalog entry.
func (d *DB) RemoveWaifu(waifuID int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, w := range d.waifus {
		if w.WaifuID == waifuID {
			d.waifus = append(d.waifus[:i], d.waifus[i+1:]...)
			return
		}
	}
}

// PutUser stores u as is, overwriting any existing record.
func (d *DB) PutUser(u model.User) {
	d.mu.Lock()
	d.users[u.UserID] = u
	d.mu.Unlock()
}

// UserRepository is the in-memory users collection.
type UserRepository struct {
	db *DB
}

func (r *UserRepository) GetByID(_ context.Context, userID int64) (*model.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	u, ok := r.db.users[userID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &u, nil
}

func (r *UserRepository) GetOrCreate(_ context.Context, u *model.User) (*model.User, bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if existing, ok := r.db.users[u.UserID]; ok {
		return &existing, false, nil
	}
	stored := *u
	r.db.users[u.UserID] = stored
	return &stored, true, nil
}

func (r *UserRepository) UpdateProfile(_ context.Context, userID int64, username, firstName string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.Username = username
	u.FirstName = firstName
	r.db.users[userID] = u
	return nil
}

func (r *UserRepository) ApplyDailyClaim(_ context.Context, userID int64, reward int64, claimedAt time.Time) (*model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[userID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	u.Berries += reward
	u.DailyStreak++
	at := claimedAt
	u.LastDailyClaim = &at
	r.db.users[userID] = u
	return &u, nil
}

// WaifuRepository is the in-memory catalog.
type WaifuRepository struct {
	db *DB
}

func (r *WaifuRepository) Count(_ context.Context) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return int64(len(r.db.waifus)), nil
}

func (r *WaifuRepository) GetByOffset(_ context.Context, offset int64) (*model.Waifu, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	if offset < 0 || offset >= int64(len(r.db.waifus)) {
		return nil, repository.ErrWaifuNotFound
	}
	w := r.db.waifus[offset]
	return &w, nil
}

// HaremRepository is the in-memory harem ledger.
type HaremRepository struct {
	db *DB
}

func (r *HaremRepository) AddIfAbsent(_ context.Context, entry model.HaremEntry) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	key := pairKey{entry.UserID, entry.WaifuID}
	if _, ok := r.db.harems[key]; ok {
		return false, nil
	}
	r.db.harems[key] = entry
	return true, nil
}

func (r *HaremRepository) CountByUser(_ context.Context, userID int64) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var n int64
	for key := range r.db.harems {
		if key.userID == userID {
			n++
		}
	}
	return n, nil
}

// ClaimRepository is the in-memory daily claim ledger.
type ClaimRepository struct {
	db *DB
}

func (r *ClaimRepository) Reserve(_ context.Context, claim model.DailyClaim) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	key := claimKey{claim.UserID, claim.Day}
	if _, ok := r.db.claims[key]; ok {
		return repository.ErrClaimExists
	}
	r.db.claims[key] = claim
	return nil
}

func (r *ClaimRepository) Release(_ context.Context, userID int64, day string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.claims, claimKey{userID, day})
	return nil
}
