package drafts

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/pubimport/internal/entities"
)

func setupTestDB(t *testing.T) *Repository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "drafts.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.Draft{}))

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return NewRepository(db)
}

func TestRepository_PutAndGet(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	savedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Put(ctx, "s1:bibtex", `{"state":"preview_ready"}`, savedAt))

	draft, err := repo.Get(ctx, "s1:bibtex")
	require.NoError(t, err)
	require.NotNil(t, draft)
	assert.Equal(t, `{"state":"preview_ready"}`, draft.Payload)
	assert.True(t, draft.SavedAt.Equal(savedAt))

	t.Run("put replaces", func(t *testing.T) {
		later := savedAt.Add(time.Hour)
		require.NoError(t, repo.Put(ctx, "s1:bibtex", `{"state":"idle"}`, later))

		draft, err := repo.Get(ctx, "s1:bibtex")
		require.NoError(t, err)
		assert.Equal(t, `{"state":"idle"}`, draft.Payload)
		assert.True(t, draft.SavedAt.Equal(later))
	})
}

func TestRepository_GetMissing(t *testing.T) {
	repo := setupTestDB(t)

	draft, err := repo.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, draft)
}

func TestRepository_Delete(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, "k", "{}", time.Now()))
	require.NoError(t, repo.Delete(ctx, "k"))
	require.NoError(t, repo.Delete(ctx, "k"))

	draft, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, draft)
}

func TestRepository_DeleteOlderThan(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Put(ctx, "old", "{}", now.Add(-48*time.Hour)))
	require.NoError(t, repo.Put(ctx, "stale", "{}", now.Add(-25*time.Hour)))
	require.NoError(t, repo.Put(ctx, "fresh", "{}", now.Add(-time.Hour)))

	deleted, err := repo.DeleteOlderThan(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	draft, err := repo.Get(ctx, "fresh")
	require.NoError(t, err)
	assert.NotNil(t, draft)
}
