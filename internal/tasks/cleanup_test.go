package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDraftPruner struct {
	cutoff time.Time
	err    error
}

func (s *stubDraftPruner) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.cutoff = cutoff
	return 2, s.err
}

func TestDraftCleanupProcessor(t *testing.T) {
	t.Run("default ttl", func(t *testing.T) {
		pruner := &stubDraftPruner{}
		require.NoError(t, DraftCleanupProcessor(pruner)(context.Background(), DraftCleanupTask{}))
		assert.WithinDuration(t, time.Now().Add(-24*time.Hour), pruner.cutoff, time.Minute)
	})

	t.Run("custom ttl", func(t *testing.T) {
		pruner := &stubDraftPruner{}
		require.NoError(t, DraftCleanupProcessor(pruner)(context.Background(), DraftCleanupTask{TTLHours: 2}))
		assert.WithinDuration(t, time.Now().Add(-2*time.Hour), pruner.cutoff, time.Minute)
	})

	t.Run("errors", func(t *testing.T) {
		assert.Error(t, DraftCleanupProcessor(nil)(context.Background(), DraftCleanupTask{}))

		pruner := &stubDraftPruner{err: errors.New("disk I/O error")}
		assert.ErrorContains(t, DraftCleanupProcessor(pruner)(context.Background(), DraftCleanupTask{}), "cleanup drafts")
	})
}

type stubAuditCleaner struct {
	retention time.Duration
}

func (s *stubAuditCleaner) DeleteOldEvents(retention time.Duration) (int64, error) {
	s.retention = retention
	return 5, nil
}

type stubFilePruner struct {
	cutoff time.Time
}

func (s *stubFilePruner) PruneFiles(cutoff time.Time) (int, error) {
	s.cutoff = cutoff
	return 1, nil
}

func TestCleanupAuditEventsProcessor(t *testing.T) {
	t.Run("events and files", func(t *testing.T) {
		cleaner := &stubAuditCleaner{}
		files := &stubFilePruner{}

		err := CleanupAuditEventsProcessor(cleaner, files)(context.Background(), CleanupAuditEventsTask{RetentionDays: 7})
		require.NoError(t, err)
		assert.Equal(t, 7*24*time.Hour, cleaner.retention)
		assert.WithinDuration(t, time.Now().Add(-7*24*time.Hour), files.cutoff, time.Minute)
	})

	t.Run("default retention without files", func(t *testing.T) {
		cleaner := &stubAuditCleaner{}

		require.NoError(t, CleanupAuditEventsProcessor(cleaner, nil)(context.Background(), CleanupAuditEventsTask{}))
		assert.Equal(t, 30*24*time.Hour, cleaner.retention)
	})

	t.Run("nil cleaner", func(t *testing.T) {
		assert.Error(t, CleanupAuditEventsProcessor(nil, nil)(context.Background(), CleanupAuditEventsTask{}))
	})
}
