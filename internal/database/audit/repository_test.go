package audit

import (
	"fmt"
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

func newTestRepository(t *testing.T) *Repository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "audit.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.AuditEvent{}))
	return NewRepository(db)
}

// seed stores n events of one kind, the i-th created i hours ago.
func seed(t *testing.T, repo *Repository, n int, proto entities.AuditEvent) {
	t.Helper()
	now := time.Now()
	for i := 0; i < n; i++ {
		ev := proto
		ev.Action = fmt.Sprintf("%s-%d", proto.Action, i)
		ev.CreatedAt = now.Add(-time.Duration(i) * time.Hour)
		require.NoError(t, repo.LogEvent(&ev))
	}
}

func TestRepository_LogEventStampsTime(t *testing.T) {
	repo := newTestRepository(t)

	ev := &entities.AuditEvent{
		EventType: entities.AuditEventImport,
		Action:    "bibtex_import",
		BatchID:   "3f2a3c1e-0000-4000-8000-000000000001",
		Status:    entities.AuditStatusSuccess,
	}
	require.NoError(t, repo.LogEvent(ev))

	assert.NotZero(t, ev.ID)
	assert.WithinDuration(t, time.Now(), ev.CreatedAt, time.Minute)
}

func TestRepository_GetEvents(t *testing.T) {
	repo := newTestRepository(t)

	seed(t, repo, 12, entities.AuditEvent{
		EventType: entities.AuditEventImport,
		Action:    "endnote_import",
		Status:    entities.AuditStatusSuccess,
	})
	seed(t, repo, 4, entities.AuditEvent{
		EventType: entities.AuditEventSync,
		Action:    "zotero_sync",
		Status:    entities.AuditStatusFailed,
		ErrorMsg:  "failed to fetch Zotero items: Bad Gateway",
	})
	seed(t, repo, 1, entities.AuditEvent{
		EventType: entities.AuditEventImport,
		Action:    "ris_import",
		BatchID:   "batch-ris",
		Status:    entities.AuditStatusSuccess,
	})

	tests := []struct {
		name   string
		filter Filter
		total  int64
	}{
		{"everything", Filter{}, 17},
		{"by type", Filter{EventType: entities.AuditEventImport}, 13},
		{"by status", Filter{Status: entities.AuditStatusFailed}, 4},
		{"by batch", Filter{BatchID: "batch-ris"}, 1},
		{"type and status", Filter{EventType: entities.AuditEventSync, Status: entities.AuditStatusSuccess}, 0},
		// the last three hours of each seed: 3 endnote, 3 sync, 1 ris
		{"since", Filter{Since: time.Now().Add(-150 * time.Minute)}, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, total, err := repo.GetEvents(tt.filter, 100, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.total, total)
			assert.Len(t, events, int(tt.total))
		})
	}

	t.Run("pages newest first", func(t *testing.T) {
		filter := Filter{EventType: entities.AuditEventImport}

		first, total, err := repo.GetEvents(filter, 5, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(13), total)
		require.Len(t, first, 5)

		last, _, err := repo.GetEvents(filter, 5, 10)
		require.NoError(t, err)
		require.Len(t, last, 3)

		assert.False(t, first[4].CreatedAt.Before(last[0].CreatedAt))
		for i := 1; i < len(first); i++ {
			assert.False(t, first[i].CreatedAt.After(first[i-1].CreatedAt))
		}
	})

	t.Run("non-positive limit uses the default page", func(t *testing.T) {
		events, _, err := repo.GetEvents(Filter{}, 0, -3)
		require.NoError(t, err)
		assert.Len(t, events, 17)
	})
}

func TestRepository_DeleteOldEvents(t *testing.T) {
	repo := newTestRepository(t)

	seed(t, repo, 3, entities.AuditEvent{
		EventType: entities.AuditEventSettings,
		Action:    "zotero_credentials_saved",
		Status:    entities.AuditStatusSuccess,
	})

	// events at now, -1h and -2h; the last one is past the cutoff
	deleted, err := repo.DeleteOldEvents(time.Now().Add(-90 * time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, total, err := repo.GetEvents(Filter{}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestRepository_GetEventByID(t *testing.T) {
	repo := newTestRepository(t)

	ev := &entities.AuditEvent{
		EventType: entities.AuditEventImport,
		Action:    "zotero_import",
		Status:    entities.AuditStatusSuccess,
	}
	require.NoError(t, repo.LogEvent(ev))

	found, err := repo.GetEventByID(ev.ID)
	require.NoError(t, err)
	assert.Equal(t, "zotero_import", found.Action)

	_, err = repo.GetEventByID(ev.ID + 100)
	assert.ErrorIs(t, err, ErrEventNotFound)
}
