// Package scheduler enqueues background tasks on cron schedules.
package scheduler

import (
	"context"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"
)

// Enqueuer is the part of tasks.Client the schedulers need.
type Enqueuer interface {
	Enqueue(ctx context.Context, task backlite.Task) (string, error)
}

func newCron() *cron.Cron {
	return cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)))
}
