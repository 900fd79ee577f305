package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"
)

const taskStatusTimeout = 5 * time.Second

// TaskTypeInfo describes a queue users can observe. Only zotero_sync can
// be triggered over HTTP; the cleanups run on their own schedule.
type TaskTypeInfo struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Manual      bool   `json:"manual"`
}

var taskTypes = []TaskTypeInfo{
	{Type: "zotero_sync", Description: "Import a Zotero collection with the stored credentials", Manual: true},
	{Type: "draft_cleanup", Description: "Delete review drafts older than the draft TTL"},
	{Type: "cleanup_audit_events", Description: "Delete audit events and saved payloads past retention"},
}

var taskStatusNames = map[backlite.TaskStatus]string{
	backlite.TaskStatusPending:  "pending",
	backlite.TaskStatusRunning:  "running",
	backlite.TaskStatusSuccess:  "success",
	backlite.TaskStatusFailure:  "failure",
	backlite.TaskStatusNotFound: "not_found",
}

func taskStatusToString(status backlite.TaskStatus) string {
	if name, ok := taskStatusNames[status]; ok {
		return name
	}
	return "unknown"
}

type TasksController struct {
	tasks  TaskStatusReader
	runner SyncRunner
}

func NewTasksController(tasks TaskStatusReader, runner SyncRunner) *TasksController {
	return &TasksController{tasks: tasks, runner: runner}
}

func respondQueueUnavailable(c *gin.Context) {
	respondErrorCode(c, http.StatusServiceUnavailable, "task queue not available", "", nil)
}

// ListTaskTypes handles GET /api/tasks/types
func (tc *TasksController) ListTaskTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"task_types": taskTypes})
}

// RunZoteroSync handles POST /api/tasks/zotero-sync. The task reads the
// stored sync settings and credentials when it runs.
func (tc *TasksController) RunZoteroSync(c *gin.Context) {
	if tc.runner == nil {
		respondQueueUnavailable(c)
		return
	}

	id, err := tc.runner.RunNow(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "enqueue zotero sync")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"task_id": id,
		"type":    "zotero_sync",
		"message": "task enqueued",
	})
}

// GetTaskStatus handles GET /api/tasks/:id
func (tc *TasksController) GetTaskStatus(c *gin.Context) {
	if tc.tasks == nil {
		respondQueueUnavailable(c)
		return
	}
	taskID := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), taskStatusTimeout)
	defer cancel()

	status, err := tc.tasks.Status(ctx, taskID)
	if err != nil {
		respondInternalError(c, err, "task status")
		return
	}

	code := http.StatusOK
	if status == backlite.TaskStatusNotFound {
		code = http.StatusNotFound
	}
	c.JSON(code, gin.H{"id": taskID, "status": taskStatusToString(status)})
}
