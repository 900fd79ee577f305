package importers

import (
	"fmt"

	"github.com/mrlokans/pubimport/internal/entities"
)

// ParseResult is what a Parser hands to the review stage.
type ParseResult struct {
	Publications []entities.Publication `json:"publications" yaml:"publications"`
	Errors       []string               `json:"errors" yaml:"errors"`
}

// From returns a copy whose messages are prefixed with the source file name.
func (r ParseResult) From(filename string) ParseResult {
	if filename == "" {
		return r
	}
	errs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = filename + ": " + e
	}
	r.Errors = errs
	return r
}

// Parser converts raw text of one format into publications.
//
// Implementations:
//   - BibTeXParser (bibtex.go)
//   - EndNoteParser (endnote.go), RIS and EndNote XML
type Parser interface {
	Parse(raw string) (ParseResult, error)
}

var (
	_ Parser = (*BibTeXParser)(nil)
	_ Parser = (*EndNoteParser)(nil)
)

// ParserFor returns the text parser for a method. Zotero has no text form.
func ParserFor(method entities.ImportMethod) (Parser, error) {
	switch method {
	case entities.ImportMethodBibTeX:
		return NewBibTeXParser(), nil
	case entities.ImportMethodEndNote:
		return NewEndNoteParser(), nil
	default:
		return nil, fmt.Errorf("no text parser for import method %q", method)
	}
}

// ValidatePublications flags defaulted titles and empty author lists without
// changing the records.
func ValidatePublications(pubs []entities.Publication) []string {
	warnings := []string{}
	for _, p := range pubs {
		label := p.SourceKey
		if label == "" {
			label = p.ID
		}
		if p.HasPlaceholderTitle() {
			warnings = append(warnings, fmt.Sprintf("record %q: missing title", label))
		}
		if len(p.Authors) == 0 {
			warnings = append(warnings, fmt.Sprintf("record %q: no authors", label))
		}
	}
	return warnings
}
