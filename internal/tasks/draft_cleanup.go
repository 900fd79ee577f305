package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/pubimport/internal/review"
)

// DraftPruner deletes drafts saved before a cutoff.
type DraftPruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// DraftCleanupTask removes review drafts older than their TTL.
type DraftCleanupTask struct {
	TTLHours int `json:"ttl_hours"`
}

// Config returns the queue configuration for draft cleanup tasks.
func (t DraftCleanupTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "draft_cleanup",
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   time.Hour,
			OnlyFailed: true,
		},
	}
}

func (t DraftCleanupTask) ttl() time.Duration {
	if t.TTLHours <= 0 {
		return review.DefaultDraftTTL
	}
	return time.Duration(t.TTLHours) * time.Hour
}

// DraftCleanupProcessor creates a processor function for DraftCleanupTask.
func DraftCleanupProcessor(pruner DraftPruner) backlite.QueueProcessor[DraftCleanupTask] {
	return func(ctx context.Context, task DraftCleanupTask) error {
		if pruner == nil {
			return fmt.Errorf("draft store not configured")
		}

		deleted, err := pruner.DeleteOlderThan(ctx, time.Now().Add(-task.ttl()))
		if err != nil {
			return fmt.Errorf("cleanup drafts: %w", err)
		}

		if deleted > 0 {
			log.Printf("[tasks] Removed %d expired drafts", deleted)
		}
		return nil
	}
}

// NewDraftCleanupQueue creates a backlite queue for draft cleanup tasks.
func NewDraftCleanupQueue(pruner DraftPruner) backlite.Queue {
	return backlite.NewQueue(DraftCleanupProcessor(pruner))
}
