package tasks

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikestefanello/backlite"
)

// Client runs the zotero_sync and cleanup queues on a backlite database of
// its own, so long imports never hold locks on the main database.
type Client struct {
	backlite *backlite.Client
	db       *sql.DB
	workers  int
	queues   []string
	started  atomic.Bool
}

// TasksDBPath returns the sibling task database path for mainDBPath:
// "data/pubimport.db" becomes "data/pubimport-tasks.db".
func TasksDBPath(mainDBPath string) string {
	ext := filepath.Ext(mainDBPath)
	return strings.TrimSuffix(mainDBPath, ext) + "-tasks" + ext
}

func tasksDSN(mainDBPath string) string {
	return TasksDBPath(mainDBPath) + "?_journal=WAL&_timeout=5000&_busy_timeout=5000"
}

// NewClient opens the task database next to mainDBPath and installs the
// backlite schema.
func NewClient(mainDBPath string, cfg Config) (*Client, error) {
	cfg = cfg.withDefaults()

	db, err := sql.Open("sqlite3", tasksDSN(mainDBPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open tasks database: %w", err)
	}
	db.SetMaxOpenConns(cfg.Workers + 5)
	db.SetMaxIdleConns(cfg.Workers + 2)
	db.SetConnMaxLifetime(time.Hour)

	bl, err := backlite.NewClient(backlite.ClientConfig{
		DB:              db,
		NumWorkers:      cfg.Workers,
		ReleaseAfter:    cfg.ReleaseAfter,
		CleanupInterval: cfg.CleanupInterval,
		Logger:          logAdapter{},
	})
	if err == nil {
		err = bl.Install()
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set up task queue: %w", err)
	}

	return &Client{backlite: bl, db: db, workers: cfg.Workers}, nil
}

// Register adds queues. Must be called before Start.
func (c *Client) Register(queues ...backlite.Queue) {
	for _, q := range queues {
		c.backlite.Register(q)
		c.queues = append(c.queues, q.Config().Name)
	}
}

// Queues lists the registered queue names in registration order.
func (c *Client) Queues() []string {
	return append([]string(nil), c.queues...)
}

// Start processes tasks until ctx is done or Stop is called. It does not
// block; a second call is a no-op.
func (c *Client) Start(ctx context.Context) {
	if !c.started.CompareAndSwap(false, true) {
		return
	}
	log.Printf("[tasks] Queue started with %d workers: %s", c.workers, strings.Join(c.queues, ", "))
	c.backlite.Start(ctx)
}

// Stop waits for running tasks. It returns false when ctx expired first.
func (c *Client) Stop(ctx context.Context) bool {
	if !c.started.Load() {
		return true
	}

	log.Println("[tasks] Stopping queue...")
	if !c.backlite.Stop(ctx) {
		log.Println("[tasks] Queue stop timed out, a running import may be cut short")
		return false
	}
	log.Println("[tasks] Queue stopped")
	return true
}

// Close releases the task database. Call it after Stop.
func (c *Client) Close() error {
	return c.db.Close()
}

// Enqueue adds a single task and returns its ID.
func (c *Client) Enqueue(ctx context.Context, task backlite.Task) (string, error) {
	ids, err := c.backlite.Add(task).Ctx(ctx).Save()
	if err != nil {
		return "", fmt.Errorf("enqueue %s: %w", task.Config().Name, err)
	}
	return ids[0], nil
}

// Started reports whether Start has been called.
func (c *Client) Started() bool {
	return c.started.Load()
}

// Status returns the status of a task by ID.
func (c *Client) Status(ctx context.Context, taskID string) (backlite.TaskStatus, error) {
	return c.backlite.Status(ctx, taskID)
}

// logAdapter routes backlite's key/value logging to the standard logger.
type logAdapter struct{}

func (logAdapter) Info(message string, params ...any) {
	log.Println(append([]any{"[tasks]", message}, params...)...)
}

func (logAdapter) Error(message string, params ...any) {
	log.Println(append([]any{"[tasks] ERROR", message}, params...)...)
}
