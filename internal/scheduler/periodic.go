package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"

	"github.com/mrlokans/pubimport/internal/tasks"
)

const (
	DraftCleanupSchedule = "0 * * * *"
	AuditCleanupSchedule = "30 3 * * *"
)

// Periodic enqueues the same task on a fixed schedule.
type Periodic struct {
	name     string
	schedule string
	task     backlite.Task
	queue    Enqueuer

	cron      *cron.Cron
	mu        sync.Mutex
	isRunning bool
}

func NewPeriodic(name, schedule string, task backlite.Task, queue Enqueuer) *Periodic {
	return &Periodic{name: name, schedule: schedule, task: task, queue: queue, cron: newCron()}
}

// NewDraftCleanup enqueues draft_cleanup every hour.
func NewDraftCleanup(queue Enqueuer, ttl time.Duration) *Periodic {
	return NewPeriodic("draft cleanup", DraftCleanupSchedule,
		tasks.DraftCleanupTask{TTLHours: int(ttl / time.Hour)}, queue)
}

// NewAuditCleanup enqueues cleanup_audit_events once a day.
func NewAuditCleanup(queue Enqueuer, retentionDays int) *Periodic {
	return NewPeriodic("audit cleanup", AuditCleanupSchedule,
		tasks.CleanupAuditEventsTask{RetentionDays: retentionDays}, queue)
}

func (p *Periodic) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isRunning {
		return nil
	}
	if _, err := p.cron.AddFunc(p.schedule, p.run); err != nil {
		return fmt.Errorf("failed to schedule %s: %w", p.name, err)
	}
	p.cron.Start()
	p.isRunning = true
	log.Printf("[tasks] Scheduled %s (%s)", p.name, p.schedule)
	return nil
}

func (p *Periodic) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.isRunning {
		return
	}
	<-p.cron.Stop().Done()
	for _, e := range p.cron.Entries() {
		p.cron.Remove(e.ID)
	}
	p.isRunning = false
}

func (p *Periodic) run() {
	if _, err := p.queue.Enqueue(context.Background(), p.task); err != nil {
		log.Printf("[tasks] Failed to enqueue %s: %v", p.name, err)
	}
}
