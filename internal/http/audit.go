package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/pubimport/internal/audit"
	dbaudit "github.com/mrlokans/pubimport/internal/database/audit"
	"github.com/mrlokans/pubimport/internal/entities"
)

// AuditController exposes the import/sync/settings trail read-only.
type AuditController struct {
	events *audit.Service
}

func NewAuditController(events *audit.Service) *AuditController {
	return &AuditController{events: events}
}

func auditFilter(c *gin.Context) (dbaudit.Filter, bool) {
	filter := dbaudit.Filter{
		EventType: entities.AuditEventType(c.Query("type")),
		Status:    entities.AuditStatus(c.Query("status")),
		BatchID:   c.Query("batch"),
	}
	if since := c.Query("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			respondBadRequest(c, "since must be an RFC 3339 timestamp")
			return filter, false
		}
		filter.Since = t
	}
	return filter, true
}

// GetAuditEvents handles GET /api/audit?type=&status=&batch=&since=&offset=&limit=
func (ac *AuditController) GetAuditEvents(c *gin.Context) {
	offset, limit, ok := parsePagination(c, 25, 100)
	if !ok {
		return
	}
	filter, ok := auditFilter(c)
	if !ok {
		return
	}

	events, total, err := ac.events.GetEvents(filter, limit, offset)
	if err != nil {
		respondDomainError(c, err, "audit events", nil)
		return
	}

	c.JSON(http.StatusOK, PaginatedResponse{
		Data:    events,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: int64(offset+len(events)) < total,
	})
}

// GetAuditEvent handles GET /api/audit/:id
func (ac *AuditController) GetAuditEvent(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 0)
	if err != nil {
		respondBadRequest(c, "invalid event id")
		return
	}

	event, err := ac.events.GetEvent(uint(id))
	if err != nil {
		respondDomainError(c, err, "audit event", nil)
		return
	}
	c.JSON(http.StatusOK, event)
}
