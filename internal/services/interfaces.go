package services

import (
	"context"

	"github.com/mrlokans/pubimport/internal/audit"
	"github.com/mrlokans/pubimport/internal/entities"
)

// PublicationStore persists import batches and lists stored publications.
// The publications repository satisfies it.
type PublicationStore interface {
	ImportPublications(ctx context.Context, req entities.ImportRequest) (*entities.ImportResponse, error)
	List(ctx context.Context, offset, limit int) ([]entities.StoredPublication, int64, error)
}

// PayloadArchiver writes raw request payloads to disk.
type PayloadArchiver interface {
	SaveImport(method string, data any) (string, error)
}

// ImportLogger records import events.
type ImportLogger interface {
	LogImport(rec audit.ImportRecord, err error)
}
