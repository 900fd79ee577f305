package importers

import (
	"strings"

	"github.com/mrlokans/pubimport/internal/entities"
)

// EndNoteParser reads RIS text or EndNote XML exports.
type EndNoteParser struct {
	// Types maps RIS TY values. The XML path always yields articles.
	Types TypeMapper
}

func NewEndNoteParser() *EndNoteParser {
	return &EndNoteParser{Types: RISTypes}
}

// ParseEndNote auto-detects the format and parses raw with the default tables.
func ParseEndNote(raw string) ([]entities.Publication, error) {
	return NewEndNoteParser().ParseRecords(raw)
}

// IsEndNoteXML reports whether raw should go through the XML parser.
func IsEndNoteXML(raw string) bool {
	return strings.HasPrefix(strings.TrimSpace(raw), "<?xml") || strings.Contains(raw, "<xml>")
}

// ParseRecords dispatches to the XML or RIS parser. Only malformed XML
// returns an error; RIS input always parses, possibly to zero records.
func (p *EndNoteParser) ParseRecords(raw string) ([]entities.Publication, error) {
	if IsEndNoteXML(raw) {
		return parseEndNoteXML(raw)
	}
	types := p.Types
	if types == nil {
		types = RISTypes
	}
	return parseRIS(raw, types), nil
}

// Parse implements Parser. Placeholder titles, missing authors and an empty
// result are reported as warnings.
func (p *EndNoteParser) Parse(raw string) (ParseResult, error) {
	pubs, err := p.ParseRecords(raw)
	if err != nil {
		return ParseResult{}, err
	}
	warnings := ValidatePublications(pubs)
	if len(pubs) == 0 {
		warnings = append(warnings, "no EndNote records found")
	}
	return ParseResult{Publications: pubs, Errors: warnings}, nil
}
