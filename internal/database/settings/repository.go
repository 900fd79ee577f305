// Package settings provides database operations for application settings.
//
// # Usage
//
//	repo := settings.NewRepository(db)
//	value, ok, err := repo.GetValue(entities.SettingKeyZoteroUserID)
package settings

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/pubimport/internal/database"
	"github.com/mrlokans/pubimport/internal/entities"
)

// Repository handles all settings database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new settings repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetSetting retrieves a setting by key. A missing key returns
// gorm.ErrRecordNotFound; a missing table returns database.ErrTableNotFound.
func (r *Repository) GetSetting(key string) (*entities.Setting, error) {
	var setting entities.Setting
	err := r.db.Where("key = ?", key).First(&setting).Error
	if err != nil {
		return nil, database.Classify(err)
	}
	return &setting, nil
}

// GetValue returns the value for key and whether it was set.
func (r *Repository) GetValue(key string) (string, bool, error) {
	setting, err := r.GetSetting(key)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return setting.Value, true, nil
}

// SetSetting creates or updates a setting.
func (r *Repository) SetSetting(key, value string) error {
	setting := entities.Setting{Key: key, Value: value}
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&setting).Error
	return database.Classify(err)
}

// SetSettings writes several settings in one transaction.
func (r *Repository) SetSettings(values map[string]string) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		txRepo := NewRepository(tx)
		for key, value := range values {
			if err := txRepo.SetSetting(key, value); err != nil {
				return err
			}
		}
		return nil
	})
	return database.Classify(err)
}

// DeleteSetting removes a setting by key. Deleting a missing key is not an error.
func (r *Repository) DeleteSetting(key string) error {
	return database.Classify(r.db.Where("key = ?", key).Delete(&entities.Setting{}).Error)
}

// DeleteSettings removes several keys at once.
func (r *Repository) DeleteSettings(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return database.Classify(r.db.Where("key IN ?", keys).Delete(&entities.Setting{}).Error)
}
