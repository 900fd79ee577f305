// Package drafts stores serialized review sessions keyed by owner and method.
package drafts

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/pubimport/internal/database"
	"github.com/mrlokans/pubimport/internal/entities"
	"github.com/mrlokans/pubimport/internal/review"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

var _ review.DraftStore = (*Repository)(nil)

// Put inserts or replaces the draft stored under key.
func (r *Repository) Put(ctx context.Context, key, payload string, savedAt time.Time) error {
	draft := entities.Draft{Key: key, Payload: payload, SavedAt: savedAt}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "saved_at", "updated_at"}),
	}).Create(&draft).Error
	return database.Classify(err)
}

// Get returns the draft stored under key, or nil when there is none.
func (r *Repository) Get(ctx context.Context, key string) (*entities.Draft, error) {
	var draft entities.Draft
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&draft).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, database.Classify(err)
	}
	return &draft, nil
}

// Delete removes the draft stored under key. Missing keys are ignored.
func (r *Repository) Delete(ctx context.Context, key string) error {
	return database.Classify(r.db.WithContext(ctx).Where("key = ?", key).Delete(&entities.Draft{}).Error)
}

// DeleteOlderThan removes drafts saved before cutoff and returns how many
// were deleted.
func (r *Repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("saved_at < ?", cutoff).Delete(&entities.Draft{})
	return result.RowsAffected, database.Classify(result.Error)
}
