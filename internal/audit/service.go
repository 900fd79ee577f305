package audit

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mrlokans/pubimport/internal/database/audit"
	"github.com/mrlokans/pubimport/internal/entities"
)

const maxErrorLen = 500

// Service writes the audit trail of imports, syncs and settings changes.
// Writes triggered by requests happen in the background; call Wait before
// closing the database.
type Service struct {
	repo    *audit.Repository
	pending sync.WaitGroup
}

func NewService(repo *audit.Repository) *Service {
	return &Service{repo: repo}
}

// Record stores event synchronously.
func (s *Service) Record(event *entities.AuditEvent) error {
	return s.repo.LogEvent(event)
}

func (s *Service) recordAsync(event *entities.AuditEvent) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.repo.LogEvent(event); err != nil {
			log.Printf("[audit] Failed to record %s/%s: %v", event.EventType, event.Action, err)
		}
	}()
}

// Wait blocks until background writes issued so far are done.
func (s *Service) Wait() {
	s.pending.Wait()
}

func newEvent(kind entities.AuditEventType, action, description string, err error) *entities.AuditEvent {
	event := &entities.AuditEvent{
		EventType:   kind,
		Action:      action,
		Description: description,
		Status:      entities.AuditStatusSuccess,
	}
	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), maxErrorLen)
	}
	return event
}

// ImportRecord describes one call to the import endpoint.
type ImportRecord struct {
	Method      entities.ImportMethod
	Total       int
	Imported    int
	BatchID     string
	PayloadFile string
	Warnings    []string
}

func (rec ImportRecord) metadata() string {
	md := map[string]any{
		"total":    rec.Total,
		"imported": rec.Imported,
		"warnings": len(rec.Warnings),
	}
	if rec.PayloadFile != "" {
		md["payload_file"] = rec.PayloadFile
	}
	b, err := json.Marshal(md)
	if err != nil {
		return ""
	}
	return string(b)
}

func (s *Service) LogImport(rec ImportRecord, err error) {
	description := fmt.Sprintf("Imported %d of %d publications via %s", rec.Imported, rec.Total, rec.Method)
	event := newEvent(entities.AuditEventImport, string(rec.Method)+"_import", description, err)
	event.BatchID = rec.BatchID
	event.Metadata = rec.metadata()
	s.recordAsync(event)
}

func (s *Service) LogSettings(action, description string) {
	s.recordAsync(newEvent(entities.AuditEventSettings, action, description, nil))
}

func (s *Service) LogSync(action, description string, err error) {
	s.recordAsync(newEvent(entities.AuditEventSync, action, description, err))
}

// GetEvents returns one page of events matching filter, newest first, and
// the total match count.
func (s *Service) GetEvents(filter audit.Filter, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEvents(filter, limit, offset)
}

// DeleteOldEvents removes events older than retention.
func (s *Service) DeleteOldEvents(retention time.Duration) (int64, error) {
	return s.repo.DeleteOldEvents(time.Now().Add(-retention))
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// GetEvent returns a single event or audit.ErrEventNotFound.
func (s *Service) GetEvent(id uint) (*entities.AuditEvent, error) {
	return s.repo.GetEventByID(id)
}
