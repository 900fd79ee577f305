package importers

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mrlokans/pubimport/internal/entities"
)

var (
	bibEntryStart   = regexp.MustCompile(`@([A-Za-z]+)\s*\{`)
	bibEntryClose   = regexp.MustCompile(`\n[ \t]*\}`)
	bibField        = regexp.MustCompile(`([A-Za-z][\w-]*)\s*=\s*(\{(?:[^{}]|\{[^{}]*\})*\}|"[^"]*"|[^,\n}]+)`)
	authorSeparator = regexp.MustCompile(`(?i)\s+and\s+`)
	bibKeywordSep   = regexp.MustCompile(`[,;]`)
)

// Blocks that are valid BibTeX but never describe a publication.
var bibIgnoredTypes = map[string]bool{
	"comment":  true,
	"preamble": true,
	"string":   true,
}

// BibTeXResult holds every entry that could be read plus the problems found.
type BibTeXResult struct {
	Entries []entities.Publication `json:"entries"`
	Errors  []string               `json:"errors"`
}

// BibTeXParser reads .bib text. Entries are delimited by a closing brace at
// the start of a line; field values are tolerated up to one nested brace level.
type BibTeXParser struct {
	Types TypeMapper
}

func NewBibTeXParser() *BibTeXParser {
	return &BibTeXParser{Types: BibTeXTypes}
}

// ParseBibTeX parses raw with the default type table.
func ParseBibTeX(raw string) BibTeXResult {
	return NewBibTeXParser().ParseEntries(raw)
}

// ParseEntries returns every entry it could read. Problems with individual
// entries are reported in Errors and never stop the scan.
func (p *BibTeXParser) ParseEntries(raw string) BibTeXResult {
	result := BibTeXResult{
		Entries: []entities.Publication{},
		Errors:  []string{},
	}

	starts := bibEntryStart.FindAllStringSubmatchIndex(raw, -1)
	for i, loc := range starts {
		entryType := raw[loc[2]:loc[3]]
		if bibIgnoredTypes[strings.ToLower(entryType)] {
			continue
		}

		end := len(raw)
		if i+1 < len(starts) {
			end = starts[i+1][0]
		}
		span := raw[loc[1]:end]

		comma := strings.IndexByte(span, ',')
		key := ""
		if comma >= 0 {
			key = strings.TrimSpace(span[:comma])
		}
		if comma < 0 || strings.ContainsAny(key, "= \t\r\n{}\"") {
			result.Errors = append(result.Errors, fmt.Sprintf("entry %d (@%s): missing cite key", i+1, entryType))
			continue
		}

		body, ok := bibEntryBody(span[comma+1:])
		if !ok {
			result.Errors = append(result.Errors, fmt.Sprintf("entry %q: missing closing brace", key))
			continue
		}

		pub := p.toPublication(len(result.Entries)+1, entryType, key, bibFields(body))
		if pub.HasPlaceholderTitle() {
			result.Errors = append(result.Errors, fmt.Sprintf("entry %q: missing title", key))
		}
		result.Entries = append(result.Entries, pub)
	}

	if len(result.Entries) == 0 {
		result.Errors = append(result.Errors, "no valid BibTeX entries found")
	}

	return result
}

// Parse implements Parser.
func (p *BibTeXParser) Parse(raw string) (ParseResult, error) {
	r := p.ParseEntries(raw)
	return ParseResult{Publications: r.Entries, Errors: r.Errors}, nil
}

// bibEntryBody cuts the field body at the first line-leading "}". When the
// entry closes on its last field line instead, the final "}" of the span
// closes it.
func bibEntryBody(rest string) (string, bool) {
	if loc := bibEntryClose.FindStringIndex(rest); loc != nil {
		return rest[:loc[0]], true
	}
	if i := strings.LastIndexByte(rest, '}'); i >= 0 {
		return rest[:i], true
	}
	return "", false
}

func bibFields(body string) map[string]string {
	fields := make(map[string]string)
	for _, m := range bibField.FindAllStringSubmatch(body, -1) {
		fields[strings.ToLower(m[1])] = stripBibDelimiters(m[2])
	}
	return fields
}

func stripBibDelimiters(v string) string {
	v = strings.TrimSpace(v)
	if strings.HasPrefix(v, "{") || strings.HasPrefix(v, `"`) {
		v = v[1:]
	}
	if strings.HasSuffix(v, "}") || strings.HasSuffix(v, `"`) {
		v = v[:len(v)-1]
	}
	return clean(v)
}

func (p *BibTeXParser) toPublication(n int, entryType, key string, f map[string]string) entities.Publication {
	title := f["title"]
	if title == "" {
		title = entities.PlaceholderTitle
	}

	authors := splitClean(f["author"], authorSeparator)
	if len(authors) == 0 {
		authors = []string{entities.PlaceholderAuthor}
	}

	types := p.Types
	if types == nil {
		types = BibTeXTypes
	}

	return entities.Publication{
		ID:         fmt.Sprintf("bibtex-%d", n),
		Title:      title,
		Type:       types.MapType(entryType),
		Authors:    authors,
		Journal:    firstNonEmpty(f["journal"], f["booktitle"], entities.PlaceholderJournal),
		Year:       parseYear(f["year"]),
		DOI:        entities.Optional(f["doi"]),
		URL:        entities.Optional(f["url"]),
		Abstract:   f["abstract"],
		Keywords:   splitClean(f["keywords"], bibKeywordSep),
		Volume:     entities.Optional(f["volume"]),
		Number:     entities.Optional(f["number"]),
		Pages:      entities.Optional(f["pages"]),
		Publisher:  entities.Optional(f["publisher"]),
		ISBN:       entities.Optional(f["isbn"]),
		ISSN:       entities.Optional(f["issn"]),
		Source:     entities.SourceBibTeX,
		SourceKey:  key,
		SourceType: entryType,
	}
}
