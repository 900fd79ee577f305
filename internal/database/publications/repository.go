// Package publications persists reviewed publications.
//
// Every call to ImportPublications creates one ImportBatch and inserts the
// accepted records in a single transaction. Records already present, by
// DOI or by fingerprint, are skipped with a warning rather than updated.
package publications

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/mrlokans/pubimport/internal/database"
	"github.com/mrlokans/pubimport/internal/entities"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
	insertBatchSize = 100
)

// ErrEmptyRequest is the error text for an import without publications.
var ErrEmptyRequest = errors.New("no publications provided")

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// NormalizeDOI lowercases a DOI and strips resolver and scheme prefixes.
func NormalizeDOI(doi string) string {
	d := strings.ToLower(strings.TrimSpace(doi))
	for _, prefix := range []string{"https://doi.org/", "http://doi.org/", "https://dx.doi.org/", "http://dx.doi.org/", "doi:"} {
		d = strings.TrimPrefix(d, prefix)
	}
	return strings.TrimSpace(d)
}

// Fingerprint identifies a publication without a DOI:
// sha1(lower(title) | year | lower(first author)).
func Fingerprint(p entities.Publication) string {
	first := ""
	if len(p.Authors) > 0 {
		first = strings.ToLower(strings.TrimSpace(p.Authors[0]))
	}
	key := strings.ToLower(strings.TrimSpace(p.Title)) + "|" + strconv.Itoa(p.Year) + "|" + first
	sum := sha1.Sum([]byte(key))
	return hex.EncodeToString(sum[:])
}

// ImportPublications stores the records of req. The response counts what
// was inserted; skipped and rejected records are listed in Warnings. An
// empty request is answered with success:false and no error.
func (r *Repository) ImportPublications(ctx context.Context, req entities.ImportRequest) (*entities.ImportResponse, error) {
	total := len(req.Publications)
	if total == 0 {
		return &entities.ImportResponse{Success: false, Total: 0, Error: ErrEmptyRequest.Error()}, nil
	}

	batch := entities.ImportBatch{
		ID:     uuid.NewString(),
		Method: req.Method,
		Total:  total,
	}
	warnings := []string{}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seenDOI := map[string]bool{}
		seenFingerprint := map[string]bool{}
		rows := make([]entities.StoredPublication, 0, total)

		for _, p := range req.Publications {
			label := p.ID
			if label == "" {
				label = p.SourceKey
			}

			if strings.TrimSpace(p.Title) == "" {
				warnings = append(warnings, fmt.Sprintf("%s: rejected, missing title", label))
				continue
			}

			doi := NormalizeDOI(entities.Deref(p.DOI))
			fp := Fingerprint(p)

			if doi != "" {
				if seenDOI[doi] {
					warnings = append(warnings, fmt.Sprintf("%s: skipped, duplicate DOI %s", label, doi))
					continue
				}
				exists, err := rowExists(tx, "doi = ?", doi)
				if err != nil {
					return err
				}
				if exists {
					warnings = append(warnings, fmt.Sprintf("%s: skipped, DOI %s already imported", label, doi))
					continue
				}
			}

			if seenFingerprint[fp] {
				warnings = append(warnings, fmt.Sprintf("%s: skipped, duplicate of another record in this batch", label))
				continue
			}
			exists, err := rowExists(tx, "fingerprint = ?", fp)
			if err != nil {
				return err
			}
			if exists {
				warnings = append(warnings, fmt.Sprintf("%s: skipped, already imported", label))
				continue
			}

			if doi != "" {
				seenDOI[doi] = true
			}
			seenFingerprint[fp] = true

			row, err := toStored(p, doi, fp, batch.ID)
			if err != nil {
				return err
			}
			rows = append(rows, row)
		}

		batch.Imported = len(rows)
		batch.Skipped = total - len(rows)

		if len(rows) > 0 {
			if err := tx.CreateInBatches(rows, insertBatchSize).Error; err != nil {
				return fmt.Errorf("failed to insert publications: %w", err)
			}
		}
		if err := tx.Create(&batch).Error; err != nil {
			return fmt.Errorf("failed to record import batch: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, database.Classify(err)
	}

	return &entities.ImportResponse{
		Success:  true,
		Imported: batch.Imported,
		Total:    total,
		Warnings: warnings,
		BatchID:  batch.ID,
	}, nil
}

// List returns stored publications newest first, with the total count.
func (r *Repository) List(ctx context.Context, offset, limit int) ([]entities.StoredPublication, int64, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	var total int64
	query := r.db.WithContext(ctx).Model(&entities.StoredPublication{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, database.Classify(err)
	}

	var rows []entities.StoredPublication
	err := query.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&rows).Error
	if err != nil {
		return nil, 0, database.Classify(err)
	}
	return rows, total, nil
}

// Count returns the number of stored publications.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&entities.StoredPublication{}).Count(&total).Error
	return total, database.Classify(err)
}

// GetBatch returns one import batch by ID.
func (r *Repository) GetBatch(ctx context.Context, id string) (*entities.ImportBatch, error) {
	var batch entities.ImportBatch
	if err := r.db.WithContext(ctx).First(&batch, "id = ?", id).Error; err != nil {
		return nil, database.Classify(err)
	}
	return &batch, nil
}

func rowExists(tx *gorm.DB, where string, arg any) (bool, error) {
	var count int64
	if err := tx.Model(&entities.StoredPublication{}).Where(where, arg).Limit(1).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func toStored(p entities.Publication, doi, fp, batchID string) (entities.StoredPublication, error) {
	authors, err := json.Marshal(nonNil(p.Authors))
	if err != nil {
		return entities.StoredPublication{}, fmt.Errorf("failed to encode authors: %w", err)
	}
	keywords, err := json.Marshal(nonNil(p.Keywords))
	if err != nil {
		return entities.StoredPublication{}, fmt.Errorf("failed to encode keywords: %w", err)
	}

	return entities.StoredPublication{
		Fingerprint:   fp,
		DOI:           doi,
		Title:         strings.TrimSpace(p.Title),
		Type:          p.Type,
		Authors:       datatypes.JSON(authors),
		Journal:       p.Journal,
		Year:          p.Year,
		URL:           entities.Deref(p.URL),
		Abstract:      p.Abstract,
		Keywords:      datatypes.JSON(keywords),
		Volume:        entities.Deref(p.Volume),
		Number:        entities.Deref(p.Number),
		Pages:         entities.Deref(p.Pages),
		Publisher:     entities.Deref(p.Publisher),
		ISBN:          entities.Deref(p.ISBN),
		ISSN:          entities.Deref(p.ISSN),
		Source:        p.Source,
		SourceKey:     p.SourceKey,
		SourceType:    p.SourceType,
		ImportBatchID: batchID,
	}, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
