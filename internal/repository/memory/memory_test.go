package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"aqua-waifu-bot/internal/model"
	"aqua-waifu-bot/internal/repository"
)

func TestUserRepository_GetOrCreate(t *testing.T) {
	store := New().Store()
	ctx := context.Background()

	u, created, err := store.Users.GetOrCreate(ctx, model.NewUser(1, "aqua", "Aqua", time.Now()))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, model.StartingBerries, u.Berries)

	u, created, err = store.Users.GetOrCreate(ctx, model.NewUser(1, "x", "X", time.Now()))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "Aqua", u.FirstName)

	_, err = store.Users.GetByID(ctx, 2)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestUserRepository_ReturnsCopies(t *testing.T) {
	store := New().Store()
	ctx := context.Background()

	u, _, err := store.Users.GetOrCreate(ctx, model.NewUser(1, "", "Aqua", time.Now()))
	require.NoError(t, err)
	u.Berries = 0

	stored, err := store.Users.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.StartingBerries, stored.Berries)
}

func TestUserRepository_ConcurrentCreate(t *testing.T) {
	store := New().Store()
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := store.Users.GetOrCreate(ctx, model.NewUser(5, "", "Five", time.Now()))
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, created)
}

func TestWaifuRepository_OffsetOrder(t *testing.T) {
	d := New()
	store := d.Store()
	ctx := context.Background()

	d.AddWaifus(
		model.Waifu{WaifuID: 30, Name: "C"},
		model.Waifu{WaifuID: 10, Name: "A"},
		model.Waifu{WaifuID: 20, Name: "B"},
	)

	for i, want := range []string{"A", "B", "C"} {
		w, err := store.Waifus.GetByOffset(ctx, int64(i))
		require.NoError(t, err)
		assert.Equal(t, want, w.Name)
	}

	d.RemoveWaifu(20)
	n, err := store.Waifus.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = store.Waifus.GetByOffset(ctx, 2)
	assert.ErrorIs(t, err, repository.ErrWaifuNotFound)
}

// Property: the harem holds at most one entry per (user, waifu) pair no
// matter how many times the pair is added.
func TestHaremRepository_UniquePairProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		store := New().Store()
		ctx := context.Background()

		adds := rapid.SliceOfN(rapid.Int64Range(1, 5), 1, 30).Draw(t, "waifu_ids")
		distinct := make(map[int64]bool)
		for _, id := range adds {
			created, err := store.Harems.AddIfAbsent(ctx, model.HaremEntry{UserID: 1, WaifuID: id})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if created == distinct[id] {
				t.Fatalf("created=%v for waifu %d, already held=%v", created, id, distinct[id])
			}
			distinct[id] = true
		}

		n, _ := store.Harems.CountByUser(ctx, 1)
		if n != int64(len(distinct)) {
			t.Fatalf("expected %d entries, got %d", len(distinct), n)
		}
	})
}

func TestClaimRepository_Reserve(t *testing.T) {
	store := New().Store()
	ctx := context.Background()
	claim := model.DailyClaim{UserID: 1, Day: "2024-05-01"}

	require.NoError(t, store.Claims.Reserve(ctx, claim))
	assert.ErrorIs(t, store.Claims.Reserve(ctx, claim), repository.ErrClaimExists)
	require.NoError(t, store.Claims.Release(ctx, 1, "2024-05-01"))
	assert.NoError(t, store.Claims.Reserve(ctx, claim))
}

func TestDB_Ping(t *testing.T) {
	d := New()
	store := d.Store()

	assert.NoError(t, store.Ping(context.Background()))
	d.SetPingError(errors.New("down"))
	assert.EqualError(t, store.Ping(context.Background()), "down")
	assert.Equal(t, "memory", store.Backend)
}
