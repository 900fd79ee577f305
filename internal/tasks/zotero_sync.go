package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/pubimport/internal/entities"
	"github.com/mrlokans/pubimport/internal/review"
)

const (
	SyncStatusSuccess = "success"
	SyncStatusFailed  = "failed"

	TriggerSchedule = "schedule"
	TriggerManual   = "manual"
)

// ZoteroSyncTask imports a Zotero collection with the stored credentials.
type ZoteroSyncTask struct {
	CollectionKey string `json:"collection_key"` // "" imports from the whole library
	Limit         int    `json:"limit"`
	Trigger       string `json:"trigger"`
}

// Config returns the queue configuration. Network calls to Zotero are not
// retried, so a failed run stays failed until the next trigger.
func (t ZoteroSyncTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "zotero_sync",
		MaxAttempts: 1,
		Timeout:     5 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ZoteroSyncStore provides credentials and records the run outcome.
type ZoteroSyncStore interface {
	review.CredentialStore
	SetZoteroSyncStatus(status, message string, imported int) error
}

// SyncAuditor records sync runs in the audit trail.
type SyncAuditor interface {
	LogSync(action, description string, err error)
}

// ZoteroSyncer runs one Zotero import: resume the stored connection, fetch,
// select everything and submit.
type ZoteroSyncer struct {
	api      review.ZoteroAPI
	store    ZoteroSyncStore
	importer review.Submitter
	auditor  SyncAuditor

	// Timeout bounds a single run when positive.
	Timeout time.Duration
}

func NewZoteroSyncer(api review.ZoteroAPI, store ZoteroSyncStore, importer review.Submitter, auditor SyncAuditor) *ZoteroSyncer {
	return &ZoteroSyncer{api: api, store: store, importer: importer, auditor: auditor}
}

// Sync performs the import and returns the persistence response. A
// collection without items is a successful run that imports nothing.
func (s *ZoteroSyncer) Sync(ctx context.Context, task ZoteroSyncTask) (*entities.ImportResponse, error) {
	conn := review.NewZoteroConnection(s.api, s.store)
	if err := conn.Resume(ctx); err != nil {
		return nil, s.fail(fmt.Errorf("zotero sync: %w", err))
	}

	result, err := conn.FetchPublications(ctx, task.CollectionKey, task.Limit)
	if err != nil {
		return nil, s.fail(fmt.Errorf("zotero sync: %w", err))
	}

	session := review.NewSession(entities.ImportMethodZotero)
	if err := session.Load(result); err != nil {
		return nil, s.fail(err)
	}
	if len(session.Records) == 0 {
		s.record(SyncStatusSuccess, session.Message, 0, nil)
		return &entities.ImportResponse{Success: true}, nil
	}

	resp, err := session.Submit(ctx, s.importer)
	if err != nil {
		return resp, s.fail(fmt.Errorf("zotero sync: %w", err))
	}

	s.record(SyncStatusSuccess, session.Message, resp.Imported, nil)
	return resp, nil
}

func (s *ZoteroSyncer) fail(err error) error {
	s.record(SyncStatusFailed, err.Error(), 0, err)
	return err
}

func (s *ZoteroSyncer) record(status, message string, imported int, err error) {
	if serr := s.store.SetZoteroSyncStatus(status, message, imported); serr != nil {
		log.Printf("[tasks] Failed to record zotero sync status: %v", serr)
	}
	if s.auditor != nil {
		s.auditor.LogSync("zotero_sync", message, err)
	}
}

// ZoteroSyncProcessor creates a processor function for ZoteroSyncTask.
func ZoteroSyncProcessor(syncer *ZoteroSyncer) backlite.QueueProcessor[ZoteroSyncTask] {
	return func(ctx context.Context, task ZoteroSyncTask) error {
		if syncer == nil {
			return fmt.Errorf("zotero syncer not configured")
		}

		if syncer.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, syncer.Timeout)
			defer cancel()
		}

		resp, err := syncer.Sync(ctx, task)
		if err != nil {
			log.Printf("[tasks] Zotero sync (%s) failed: %v", task.Trigger, err)
			return err
		}

		log.Printf("[tasks] Zotero sync (%s): imported %d of %d publications", task.Trigger, resp.Imported, resp.Total)
		return nil
	}
}

// NewZoteroSyncQueue creates a backlite queue for Zotero sync tasks.
func NewZoteroSyncQueue(syncer *ZoteroSyncer) backlite.Queue {
	return backlite.NewQueue(ZoteroSyncProcessor(syncer))
}
