package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

const defaultAuditRetentionDays = 30

type AuditEventCleaner interface {
	DeleteOldEvents(retention time.Duration) (int64, error)
}

// AuditFilePruner removes saved import payloads.
type AuditFilePruner interface {
	PruneFiles(cutoff time.Time) (int, error)
}

// CleanupAuditEventsTask drops audit rows and payload files past retention.
type CleanupAuditEventsTask struct {
	RetentionDays int `json:"retention_days"`
}

func (t CleanupAuditEventsTask) retention() (int, time.Duration) {
	days := t.RetentionDays
	if days <= 0 {
		days = defaultAuditRetentionDays
	}
	return days, time.Duration(days) * 24 * time.Hour
}

func (CleanupAuditEventsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "cleanup_audit_events",
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration: 24 * time.Hour,
			Data:     &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// CleanupAuditEventsProcessor returns the queue processor. files may be nil
// when payload archiving is disabled.
func CleanupAuditEventsProcessor(cleaner AuditEventCleaner, files AuditFilePruner) backlite.QueueProcessor[CleanupAuditEventsTask] {
	return func(ctx context.Context, task CleanupAuditEventsTask) error {
		if cleaner == nil {
			return errors.New("audit event cleaner not configured")
		}
		days, retention := task.retention()

		deleted, err := cleaner.DeleteOldEvents(retention)
		if err != nil {
			return fmt.Errorf("cleanup audit events: %w", err)
		}

		var pruned int
		if files != nil {
			pruned, err = files.PruneFiles(time.Now().Add(-retention))
			if err != nil {
				return fmt.Errorf("cleanup audit files: %w", err)
			}
		}

		log.Printf("[tasks] Audit cleanup (%dd): %d events, %d payload files removed", days, deleted, pruned)
		return nil
	}
}

func NewCleanupAuditEventsQueue(cleaner AuditEventCleaner, files AuditFilePruner) backlite.Queue {
	return backlite.NewQueue(CleanupAuditEventsProcessor(cleaner, files))
}
