package entities

import (
	"time"

	"gorm.io/datatypes"
)

// ImportRequest is the body of POST /api/publications/import.
type ImportRequest struct {
	Publications []Publication `json:"publications"`
	Method       ImportMethod  `json:"method"`
}

// ImportResponse reports how many records of a batch were persisted.
type ImportResponse struct {
	Success  bool     `json:"success"`
	Imported int      `json:"imported"`
	Total    int      `json:"total"`
	Warnings []string `json:"warnings,omitempty"`
	Error    string   `json:"error,omitempty"`
	BatchID  string   `json:"batchID,omitempty"`
}

// StoredPublication is the persisted form of a Publication.
type StoredPublication struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Fingerprint   string          `gorm:"uniqueIndex;size:40" json:"fingerprint"`
	DOI           string          `gorm:"index;size:255" json:"doi,omitempty"`
	Title         string          `gorm:"type:text;not null" json:"title"`
	Type          PublicationType `gorm:"size:32;index" json:"type"`
	Authors       datatypes.JSON  `json:"authors"`
	Journal       string          `gorm:"size:500" json:"journal"`
	Year          int             `gorm:"index" json:"year"`
	URL           string          `gorm:"type:text" json:"url,omitempty"`
	Abstract      string          `gorm:"type:text" json:"abstract,omitempty"`
	Keywords      datatypes.JSON  `json:"keywords"`
	Volume        string          `gorm:"size:50" json:"volume,omitempty"`
	Number        string          `gorm:"size:50" json:"number,omitempty"`
	Pages         string          `gorm:"size:50" json:"pages,omitempty"`
	Publisher     string          `gorm:"size:255" json:"publisher,omitempty"`
	ISBN          string          `gorm:"size:32" json:"isbn,omitempty"`
	ISSN          string          `gorm:"size:32" json:"issn,omitempty"`
	Source        RecordSource    `gorm:"size:20" json:"source"`
	SourceKey     string          `gorm:"size:255;index" json:"source_key,omitempty"`
	SourceType    string          `gorm:"size:64" json:"source_type,omitempty"`
	ImportBatchID string          `gorm:"size:36;index" json:"import_batch_id"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (StoredPublication) TableName() string {
	return "publications"
}

// ImportBatch records one call to the import endpoint.
type ImportBatch struct {
	ID        string       `gorm:"primaryKey;size:36" json:"id"`
	Method    ImportMethod `gorm:"size:20" json:"method"`
	Total     int          `json:"total"`
	Imported  int          `json:"imported"`
	Skipped   int          `json:"skipped"`
	CreatedAt time.Time    `json:"created_at"`
}

func (ImportBatch) TableName() string {
	return "import_batches"
}

// Draft is a saved review session that can be restored later.
type Draft struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"uniqueIndex;size:100" json:"key"`
	Payload   string    `gorm:"type:text" json:"payload"`
	SavedAt   time.Time `gorm:"index" json:"saved_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Draft) TableName() string {
	return "import_drafts"
}
