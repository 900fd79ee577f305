package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/pubimport/internal/settingsstore"
	"github.com/mrlokans/pubimport/internal/tasks"
)

// SyncConfigSource returns the effective sync configuration.
type SyncConfigSource interface {
	GetZoteroSyncConfig() settingsstore.ZoteroSyncConfig
}

// ZoteroSyncScheduler enqueues zotero_sync tasks on the configured schedule.
type ZoteroSyncScheduler struct {
	settings SyncConfigSource
	queue    Enqueuer

	cron      *cron.Cron
	entryID   cron.EntryID
	schedule  string
	mu        sync.RWMutex
	isRunning bool
	stopWatch context.CancelFunc
}

func NewZoteroSyncScheduler(settings SyncConfigSource, queue Enqueuer) *ZoteroSyncScheduler {
	return &ZoteroSyncScheduler{
		settings: settings,
		queue:    queue,
		cron:     newCron(),
	}
}

// Start begins the scheduler if sync is enabled. It stops when ctx is done.
func (s *ZoteroSyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	cfg := s.settings.GetZoteroSyncConfig()
	if !cfg.Enabled {
		log.Printf("[zotero] Sync scheduler disabled")
		return nil
	}

	if err := settingsstore.ValidateCronSchedule(cfg.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", cfg.Schedule, err)
	}

	entryID, err := s.cron.AddFunc(cfg.Schedule, func() {
		if _, err := s.enqueue(context.Background(), tasks.TriggerSchedule); err != nil {
			log.Printf("[zotero] Failed to enqueue scheduled sync: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule sync job: %w", err)
	}
	s.entryID = entryID
	s.schedule = cfg.Schedule

	s.cron.Start()
	s.isRunning = true

	nextRun, _ := settingsstore.GetNextRunTime(cfg.Schedule)
	log.Printf("[zotero] Sync scheduler started with schedule '%s' (%s). Next run: %v",
		cfg.Schedule, settingsstore.GetCronDescription(cfg.Schedule), nextRun)

	watchCtx, cancel := context.WithCancel(ctx)
	s.stopWatch = cancel
	go func() {
		<-watchCtx.Done()
		if ctx.Err() != nil {
			s.Stop()
		}
	}()

	return nil
}

// Stop waits for a running enqueue and removes the job.
func (s *ZoteroSyncScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	<-s.cron.Stop().Done()
	s.cron.Remove(s.entryID)
	if s.stopWatch != nil {
		s.stopWatch()
		s.stopWatch = nil
	}
	s.isRunning = false
	s.schedule = ""

	log.Printf("[zotero] Sync scheduler stopped")
}

// Reschedule re-reads the settings; call after they change.
func (s *ZoteroSyncScheduler) Reschedule(ctx context.Context) error {
	s.Stop()
	return s.Start(ctx)
}

// RunNow enqueues a sync immediately, whether or not the schedule is enabled.
func (s *ZoteroSyncScheduler) RunNow(ctx context.Context) (string, error) {
	return s.enqueue(ctx, tasks.TriggerManual)
}

// IsRunning returns whether the scheduler is active
func (s *ZoteroSyncScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Schedule returns the active cron expression, empty when stopped.
func (s *ZoteroSyncScheduler) Schedule() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.schedule
}

// GetNextRunTime returns when the next sync will occur
func (s *ZoteroSyncScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	entry := s.cron.Entry(s.entryID)
	if !entry.Valid() {
		return nil
	}
	t := entry.Next
	return &t
}

func (s *ZoteroSyncScheduler) enqueue(ctx context.Context, trigger string) (string, error) {
	cfg := s.settings.GetZoteroSyncConfig()
	id, err := s.queue.Enqueue(ctx, tasks.ZoteroSyncTask{
		CollectionKey: cfg.Collection,
		Limit:         cfg.Limit,
		Trigger:       trigger,
	})
	if err != nil {
		return "", err
	}
	log.Printf("[zotero] Enqueued %s sync %s", trigger, id)
	return id, nil
}
