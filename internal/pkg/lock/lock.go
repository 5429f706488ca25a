// Package lock provides per-user locks that serialize commands of the same
// user within one process.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"
)

// userMutex is a one-slot semaphore so acquisition can be abandoned when the
// context ends. refs counts holders and waiters; the entry is dropped at zero.
type userMutex struct {
	sem  chan struct{}
	refs int
}

// UserLock provides per-user locking.
type UserLock struct {
	mu    sync.Mutex
	locks map[int64]*userMutex
}

// NewUserLock creates a new UserLock instance.
func NewUserLock() *UserLock {
	return &UserLock{locks: make(map[int64]*userMutex)}
}

// ref retrieves or creates the mutex for userID and takes a reference.
func (ul *UserLock) ref(userID int64) *userMutex {
	ul.mu.Lock()
	defer ul.mu.Unlock()
	m, ok := ul.locks[userID]
	if !ok {
		m = &userMutex{sem: make(chan struct{}, 1)}
		ul.locks[userID] = m
	}
	m.refs++
	return m
}

func (ul *UserLock) unref(userID int64, m *userMutex) {
	ul.mu.Lock()
	defer ul.mu.Unlock()
	m.refs--
	if m.refs == 0 {
		delete(ul.locks, userID)
	}
}

// LockContext acquires the lock for a user or returns ctx.Err().
func (ul *UserLock) LockContext(ctx context.Context, userID int64) error {
	m := ul.ref(userID)
	select {
	case m.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		ul.unref(userID, m)
		return ctx.Err()
	}
}

// Unlock releases the lock for a user. Unlocking a user that is not locked
// is a no-op.
func (ul *UserLock) Unlock(userID int64) {
	ul.mu.Lock()
	m, ok := ul.locks[userID]
	ul.mu.Unlock()
	if !ok {
		return
	}
	select {
	case <-m.sem:
		ul.unref(userID, m)
	default:
	}
}

// WithLockTimeout executes fn while holding the user's lock. It returns
// ErrLockTimeout if the lock is not acquired within timeout, or the context
// error if ctx ends first.
func (ul *UserLock) WithLockTimeout(ctx context.Context, userID int64, timeout time.Duration, fn func() error) error {
	lockCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := ul.LockContext(lockCtx, userID); err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return ErrLockTimeout
		}
		return err
	}
	defer ul.Unlock(userID)
	return fn()
}
