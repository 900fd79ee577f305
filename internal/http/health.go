package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

// HealthController answers /health. Only a failing database makes the
// service unhealthy; the sync scheduler state is informational.
type HealthController struct {
	db      Pinger
	sync    SyncRunner
	version string
}

func NewHealthController(db Pinger, sync SyncRunner, version string) *HealthController {
	return &HealthController{db: db, sync: sync, version: version}
}

func (h *HealthController) Status(c *gin.Context) {
	resp := HealthResponse{
		Status:  statusHealthy,
		Time:    time.Now().UTC().Format(time.RFC3339),
		Version: h.version,
		Checks: map[string]string{
			"zotero_sync": syncState(h.sync),
		},
	}

	if h.db == nil {
		resp.Checks["database"] = "not configured"
	} else if err := h.db.Ping(); err != nil {
		resp.Checks["database"] = "error: " + err.Error()
		resp.Status = statusUnhealthy
	} else {
		resp.Checks["database"] = "ok"
	}

	code := http.StatusOK
	if resp.Status != statusHealthy {
		code = http.StatusServiceUnavailable
	}
	c.IndentedJSON(code, resp)
}

func syncState(r SyncRunner) string {
	if r == nil {
		return "disabled"
	}
	if !r.IsRunning() {
		return "stopped"
	}
	if next := r.GetNextRunTime(); next != nil {
		return "next run " + next.UTC().Format(time.RFC3339)
	}
	return "running"
}
