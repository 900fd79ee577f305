package entities

import (
	"fmt"
	"strings"
)

type PublicationType string

const (
	PublicationTypeArticle      PublicationType = "article"
	PublicationTypeBook         PublicationType = "book"
	PublicationTypeBookChapter  PublicationType = "book-chapter"
	PublicationTypeConference   PublicationType = "conference"
	PublicationTypeThesis       PublicationType = "thesis"
	PublicationTypeReport       PublicationType = "report"
	PublicationTypePreprint     PublicationType = "preprint"
	PublicationTypePresentation PublicationType = "presentation"
	PublicationTypeSoftware     PublicationType = "software"
	PublicationTypeOther        PublicationType = "other"
)

// RecordSource tags which adapter produced a record.
type RecordSource string

const (
	SourceBibTeX  RecordSource = "BibTeX"
	SourceEndNote RecordSource = "EndNote"
	SourceZotero  RecordSource = "Zotero"
)

// ImportMethod identifies the import flow a batch came through.
type ImportMethod string

const (
	ImportMethodBibTeX  ImportMethod = "bibtex"
	ImportMethodEndNote ImportMethod = "endnote"
	ImportMethodZotero  ImportMethod = "zotero"
)

// ParseImportMethod validates a method name coming from a URL or flag.
func ParseImportMethod(s string) (ImportMethod, error) {
	switch m := ImportMethod(strings.ToLower(strings.TrimSpace(s))); m {
	case ImportMethodBibTeX, ImportMethodEndNote, ImportMethodZotero:
		return m, nil
	}
	return "", fmt.Errorf("unknown import method %q", s)
}

// Publication is the normalized record every source adapter produces.
// Records are never modified after an adapter returns them.
type Publication struct {
	ID         string          `json:"id" yaml:"id"`
	Title      string          `json:"title" yaml:"title"`
	Type       PublicationType `json:"type" yaml:"type"`
	Authors    []string        `json:"authors" yaml:"authors"`
	Journal    string          `json:"journal" yaml:"journal"`
	Year       int             `json:"year" yaml:"year"`
	DOI        *string         `json:"doi,omitempty" yaml:"doi,omitempty"`
	URL        *string         `json:"url,omitempty" yaml:"url,omitempty"`
	Abstract   string          `json:"abstract" yaml:"abstract"`
	Keywords   []string        `json:"keywords" yaml:"keywords"`
	Volume     *string         `json:"volume,omitempty" yaml:"volume,omitempty"`
	Number     *string         `json:"number,omitempty" yaml:"number,omitempty"`
	Pages      *string         `json:"pages,omitempty" yaml:"pages,omitempty"`
	Publisher  *string         `json:"publisher,omitempty" yaml:"publisher,omitempty"`
	ISBN       *string         `json:"isbn,omitempty" yaml:"isbn,omitempty"`
	ISSN       *string         `json:"issn,omitempty" yaml:"issn,omitempty"`
	Source     RecordSource    `json:"source" yaml:"source"`
	SourceKey  string          `json:"sourceKey" yaml:"sourceKey"`
	SourceType string          `json:"sourceType" yaml:"sourceType"`
}

// Placeholders used when a source omits a required field.
const (
	PlaceholderTitle   = "Untitled"
	PlaceholderAuthor  = "Unknown Author"
	PlaceholderJournal = "Unknown Journal"
)

// HasPlaceholderTitle reports whether the title was defaulted.
func (p Publication) HasPlaceholderTitle() bool {
	t := strings.TrimSpace(p.Title)
	return t == "" || t == PlaceholderTitle
}

// Optional returns nil for an empty string so absent fields are omitted.
func Optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
