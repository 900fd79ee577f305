package audit

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/pubimport/internal/database"
	"github.com/mrlokans/pubimport/internal/entities"
)

const defaultPageSize = 50

var ErrEventNotFound = errors.New("audit event not found")

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Filter narrows GetEvents. Zero values match everything.
type Filter struct {
	EventType entities.AuditEventType
	Status    entities.AuditStatus
	BatchID   string
	Since     time.Time
}

func (f Filter) scope(db *gorm.DB) *gorm.DB {
	for column, value := range map[string]string{
		"event_type": string(f.EventType),
		"status":     string(f.Status),
		"batch_id":   f.BatchID,
	} {
		if value != "" {
			db = db.Where(column+" = ?", value)
		}
	}
	if !f.Since.IsZero() {
		db = db.Where("created_at > ?", f.Since)
	}
	return db
}

// LogEvent inserts event, stamping CreatedAt when unset.
func (r *Repository) LogEvent(event *entities.AuditEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	return database.Classify(r.db.Create(event).Error)
}

// GetEvents returns a page of matching events, newest first, plus the
// number of matches overall.
func (r *Repository) GetEvents(filter Filter, limit, offset int) ([]entities.AuditEvent, int64, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	offset = max(offset, 0)

	query := r.db.Model(&entities.AuditEvent{}).Scopes(filter.scope)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, database.Classify(err)
	}

	var events []entities.AuditEvent
	err := query.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&events).Error
	return events, total, database.Classify(err)
}

// DeleteOldEvents removes events created before olderThan.
func (r *Repository) DeleteOldEvents(olderThan time.Time) (int64, error) {
	result := r.db.Where("created_at < ?", olderThan).Delete(&entities.AuditEvent{})
	return result.RowsAffected, database.Classify(result.Error)
}

func (r *Repository) GetEventByID(id uint) (*entities.AuditEvent, error) {
	var event entities.AuditEvent
	err := r.db.First(&event, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, database.Classify(err)
	}
	return &event, nil
}
