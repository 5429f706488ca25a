package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// tracked returns the number of users with a held or awaited lock.
func tracked(ul *UserLock) int {
	ul.mu.Lock()
	defer ul.mu.Unlock()
	return len(ul.locks)
}

// TestConcurrentBalanceSafetyProperty checks that concurrent read-modify-write
// operations on the same user end with the same balance as sequential ones.
func TestConcurrentBalanceSafetyProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		initialBalance := rapid.Int64Range(1000, 100000).Draw(t, "initialBalance")
		numOps := rapid.IntRange(2, 20).Draw(t, "numOps")

		amounts := make([]int64, numOps)
		expected := initialBalance
		for i := range amounts {
			amounts[i] = rapid.Int64Range(25, 75).Draw(t, "amount")
			expected += amounts[i]
		}

		userID := rapid.Int64Range(1, 1000000).Draw(t, "userID")
		ul := NewUserLock()
		balance := initialBalance

		var wg sync.WaitGroup
		wg.Add(numOps)
		for _, amount := range amounts {
			go func(amount int64) {
				defer wg.Done()
				if err := ul.LockContext(context.Background(), userID); err != nil {
					return
				}
				defer ul.Unlock(userID)
				balance += amount
			}(amount)
		}
		wg.Wait()

		if balance != expected {
			t.Fatalf("Balance mismatch with locking: expected %d, got %d", expected, balance)
		}
		if n := tracked(ul); n != 0 {
			t.Fatalf("expected no tracked users after release, got %d", n)
		}
	})
}

// TestWithLockTimeoutSerializesProperty tests that WithLockTimeout never runs
// two functions of the same user at once.
func TestWithLockTimeoutSerializesProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		numOps := rapid.IntRange(5, 30).Draw(t, "numOps")
		userID := rapid.Int64Range(1, 1000000).Draw(t, "userID")

		ul := NewUserLock()
		claims := 0
		var holders, maxHolders atomic.Int32

		var wg sync.WaitGroup
		wg.Add(numOps)
		for i := 0; i < numOps; i++ {
			go func() {
				defer wg.Done()
				_ = ul.WithLockTimeout(context.Background(), userID, 5*time.Second, func() error {
					n := holders.Add(1)
					for {
						old := maxHolders.Load()
						if n <= old || maxHolders.CompareAndSwap(old, n) {
							break
						}
					}
					// check-then-act, only safe when serialized
					if claims == 0 {
						claims++
					}
					holders.Add(-1)
					return nil
				})
			}()
		}
		wg.Wait()

		if claims != 1 {
			t.Fatalf("expected exactly one claim, got %d", claims)
		}
		if maxHolders.Load() > 1 {
			t.Fatalf("lock held by %d goroutines at once", maxHolders.Load())
		}
		if n := tracked(ul); n != 0 {
			t.Fatalf("expected no tracked users, got %d", n)
		}
	})
}

// TestMultipleUsersIndependentLocksProperty tests that locks for different
// users don't block each other.
func TestMultipleUsersIndependentLocksProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		numUsers := rapid.IntRange(2, 10).Draw(t, "numUsers")

		ul := NewUserLock()
		for i := 1; i <= numUsers; i++ {
			if err := ul.LockContext(context.Background(), int64(i)); err != nil {
				t.Fatalf("lock user %d: %v", i, err)
			}
		}
		if n := tracked(ul); n != numUsers {
			t.Fatalf("expected %d tracked users, got %d", numUsers, n)
		}

		err := ul.WithLockTimeout(context.Background(), int64(numUsers+1), 50*time.Millisecond, func() error { return nil })
		if err != nil {
			t.Fatalf("an unrelated user must not be blocked: %v", err)
		}

		for i := 1; i <= numUsers; i++ {
			ul.Unlock(int64(i))
		}
		if n := tracked(ul); n != 0 {
			t.Fatalf("expected no tracked users, got %d", n)
		}
	})
}

// TestLockUnlockSymmetryProperty tests that symmetric lock/unlock cycles
// leave the lock free.
func TestLockUnlockSymmetryProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		userID := rapid.Int64Range(1, 1000000).Draw(t, "userID")
		numCycles := rapid.IntRange(1, 50).Draw(t, "numCycles")

		ul := NewUserLock()
		for i := 0; i < numCycles; i++ {
			if err := ul.LockContext(context.Background(), userID); err != nil {
				t.Fatalf("cycle %d: %v", i, err)
			}
			ul.Unlock(userID)
		}

		err := ul.WithLockTimeout(context.Background(), userID, 50*time.Millisecond, func() error { return nil })
		if err != nil {
			t.Fatalf("Lock should be available after symmetric lock/unlock cycles: %v", err)
		}
	})
}

func TestWithLockTimeout(t *testing.T) {
	ul := NewUserLock()
	require.NoError(t, ul.LockContext(context.Background(), 1))

	called := false
	err := ul.WithLockTimeout(context.Background(), 1, 20*time.Millisecond, func() error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrLockTimeout)
	assert.False(t, called)
	assert.Equal(t, 1, tracked(ul))

	ul.Unlock(1)
	err = ul.WithLockTimeout(context.Background(), 1, 20*time.Millisecond, func() error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, 0, tracked(ul))
}

func TestWithLockTimeout_ContextCancelled(t *testing.T) {
	ul := NewUserLock()
	require.NoError(t, ul.LockContext(context.Background(), 1))
	defer ul.Unlock(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := ul.WithLockTimeout(ctx, 1, time.Second, func() error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUnlock_NotLocked(t *testing.T) {
	ul := NewUserLock()
	ul.Unlock(42)
	assert.Equal(t, 0, tracked(ul))
}
