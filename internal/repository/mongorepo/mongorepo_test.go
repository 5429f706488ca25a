package mongorepo

import (
	"context"
	"os/exec"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"aqua-waifu-bot/internal/model"
	"aqua-waifu-bot/internal/repository"
)

// checkDockerAvailable checks if Docker is available and running
func checkDockerAvailable() bool {
	cmd := exec.Command("docker", "info")
	err := cmd.Run()
	return err == nil
}

// setupTestDB starts a MongoDB container and returns a database with the
// indexes in place. Skips the test if Docker is not available.
func setupTestDB(t *testing.T) (*mongo.Database, func()) {
	if !checkDockerAvailable() {
		t.Skip("Docker is not available, skipping integration test")
	}

	ctx := context.Background()

	container, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)

	database := client.Database("waifu_bot_test")
	require.NoError(t, EnsureIndexes(ctx, database))

	cleanup := func() {
		_ = client.Disconnect(ctx)
		_ = container.Terminate(ctx)
	}
	return database, cleanup
}

func TestUserRepository_GetOrCreate(t *testing.T) {
	database, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewUserRepository(database)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	user, created, err := repo.GetOrCreate(ctx, model.NewUser(12345, "aqua", "Aqua", now))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(12345), user.UserID)
	assert.Equal(t, model.StartingBerries, user.Berries)
	assert.Nil(t, user.LastDailyClaim)

	// Second call is a no-op and does not overwrite the stored record
	user, created, err = repo.GetOrCreate(ctx, model.NewUser(12345, "other", "Other", now.Add(time.Hour)))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "Aqua", user.FirstName)
	assert.True(t, user.JoinedAt.Equal(now))
}

func TestUserRepository_GetOrCreate_Concurrent(t *testing.T) {
	database, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewUserRepository(database)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	createdCount := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, created, err := repo.GetOrCreate(ctx, model.NewUser(7, "", "Seven", time.Now()))
			assert.NoError(t, err)
			if created {
				mu.Lock()
				createdCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, createdCount)
	n, err := database.Collection(UsersCollection).CountDocuments(ctx, bson.M{"user_id": int64(7)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	database, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := NewUserRepository(database).GetByID(context.Background(), 99999)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestUserRepository_ApplyDailyClaim(t *testing.T) {
	database, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewUserRepository(database)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	_, _, err := repo.GetOrCreate(ctx, model.NewUser(1, "", "One", now))
	require.NoError(t, err)

	user, err := repo.ApplyDailyClaim(ctx, 1, 50, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1050), user.Berries)
	assert.Equal(t, 1, user.DailyStreak)
	require.NotNil(t, user.LastDailyClaim)
	assert.True(t, user.LastDailyClaim.Equal(now))

	_, err = repo.ApplyDailyClaim(ctx, 2, 50, now)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestUserRepository_UpdateProfile(t *testing.T) {
	database, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewUserRepository(database)
	ctx := context.Background()

	_, _, err := repo.GetOrCreate(ctx, model.NewUser(1, "old", "Old", time.Now()))
	require.NoError(t, err)

	require.NoError(t, repo.UpdateProfile(ctx, 1, "new", "New"))
	user, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "new", user.Username)
	assert.Equal(t, "New", user.FirstName)

	assert.ErrorIs(t, repo.UpdateProfile(ctx, 2, "x", "X"), repository.ErrUserNotFound)
}

func TestWaifuRepository_CountAndOffset(t *testing.T) {
	database, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewWaifuRepository(database)
	ctx := context.Background()

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	require.NoError(t, repo.Insert(ctx,
		model.Waifu{WaifuID: 3, Name: "Megumin", Rarity: "Epic", Anime: "Konosuba"},
		model.Waifu{WaifuID: 1, Name: "Aqua", Rarity: "Legendary", Anime: "Konosuba"},
		model.Waifu{WaifuID: 2, Name: "Darkness", Rarity: "Rare", Anime: "Konosuba"},
	))

	n, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	w, err := repo.GetByOffset(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "Aqua", w.Name)

	w, err = repo.GetByOffset(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Megumin", w.Name)

	_, err = repo.GetByOffset(ctx, 3)
	assert.ErrorIs(t, err, repository.ErrWaifuNotFound)

	w, err = repo.GetByOffset(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Darkness", w.Name)
}

func TestHaremRepository_AddIfAbsent(t *testing.T) {
	database, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewHaremRepository(database)
	ctx := context.Background()
	entry := model.HaremEntry{UserID: 1, WaifuID: 10, ObtainedAt: time.Now()}

	created, err := repo.AddIfAbsent(ctx, entry)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.AddIfAbsent(ctx, entry)
	require.NoError(t, err)
	assert.False(t, created)

	n, err := repo.CountByUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestClaimRepository_ReserveRelease(t *testing.T) {
	database, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewClaimRepository(database)
	ctx := context.Background()
	claim := model.DailyClaim{UserID: 1, Day: "2024-05-01", ClaimedAt: time.Now()}

	require.NoError(t, repo.Reserve(ctx, claim))
	assert.ErrorIs(t, repo.Reserve(ctx, claim), repository.ErrClaimExists)

	// Another day is a separate key
	require.NoError(t, repo.Reserve(ctx, model.DailyClaim{UserID: 1, Day: "2024-05-02", ClaimedAt: time.Now()}))

	require.NoError(t, repo.Release(ctx, 1, "2024-05-01"))
	require.NoError(t, repo.Reserve(ctx, claim))
}
