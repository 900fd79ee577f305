package http

import (
	"context"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/pubimport/internal/entities"
	"github.com/mrlokans/pubimport/internal/review"
)

// PublicationService persists and lists publications.
// services.ImportService satisfies it.
type PublicationService interface {
	review.Submitter
	ListPublications(ctx context.Context, offset, limit int) ([]entities.StoredPublication, int64, error)
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping() error
}

// TaskStatusReader looks up queued tasks.
type TaskStatusReader interface {
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}

// SyncRunner triggers and reschedules the Zotero sync.
// scheduler.ZoteroSyncScheduler satisfies it.
type SyncRunner interface {
	RunNow(ctx context.Context) (string, error)
	Reschedule(ctx context.Context) error
	IsRunning() bool
	GetNextRunTime() *time.Time
}
