// Package services holds the import path shared by the HTTP persistence
// endpoint, the in-process review routes and the Zotero sync task.
package services

import (
	"context"
	"errors"
	"log"

	"github.com/mrlokans/pubimport/internal/audit"
	"github.com/mrlokans/pubimport/internal/entities"
	"github.com/mrlokans/pubimport/internal/review"
)

var ErrEmptyRequest = errors.New("no publications in request")

var _ review.Submitter = (*ImportService)(nil)

// ImportService persists batches, archives their payload and records an
// audit event per call. The archiver and logger are optional.
type ImportService struct {
	store    PublicationStore
	archiver PayloadArchiver
	events   ImportLogger
}

// NewImportService creates a new ImportService.
func NewImportService(store PublicationStore, archiver PayloadArchiver, events ImportLogger) *ImportService {
	return &ImportService{
		store:    store,
		archiver: archiver,
		events:   events,
	}
}

// ImportPublications persists req. An empty batch is answered with a
// failed response and ErrEmptyRequest without touching the store.
func (s *ImportService) ImportPublications(ctx context.Context, req entities.ImportRequest) (*entities.ImportResponse, error) {
	if len(req.Publications) == 0 {
		return &entities.ImportResponse{Success: false, Error: ErrEmptyRequest.Error()}, ErrEmptyRequest
	}

	rec := audit.ImportRecord{
		Method: req.Method,
		Total:  len(req.Publications),
	}

	if s.archiver != nil {
		name, err := s.archiver.SaveImport(string(req.Method), req)
		if err != nil {
			log.Printf("Failed to archive %s import payload: %v", req.Method, err)
		}
		rec.PayloadFile = name
	}

	resp, err := s.store.ImportPublications(ctx, req)
	if resp != nil {
		rec.Imported = resp.Imported
		rec.BatchID = resp.BatchID
		rec.Warnings = resp.Warnings
	}
	if s.events != nil {
		s.events.LogImport(rec, err)
	}
	return resp, err
}

// ListPublications returns one page of stored publications.
func (s *ImportService) ListPublications(ctx context.Context, offset, limit int) ([]entities.StoredPublication, int64, error) {
	return s.store.List(ctx, offset, limit)
}
