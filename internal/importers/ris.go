package importers

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mrlokans/pubimport/internal/entities"
)

var risLine = regexp.MustCompile(`^([A-Z][A-Z0-9]) {1,2}- ?(.*)$`)

// risEntry accumulates tags between two TY lines.
type risEntry struct {
	fields   int
	typ      string
	id       string
	title    string
	authors  []string
	year     string
	journal  string
	abstract string
	doi      string
	url      string
	volume   string
	number   string
	pages    string
	pub      string
	keywords []string
	isbn     string
	issn     string
}

func (e *risEntry) empty() bool {
	return e.fields == 0
}

func (e *risEntry) set(tag, value string) {
	switch tag {
	case "TY":
		e.typ = value
	case "ID":
		e.id = value
	case "TI":
		e.title = value
	case "T1":
		e.title = firstNonEmpty(e.title, value)
	case "AU", "A1":
		if value != "" {
			e.authors = append(e.authors, value)
		}
	case "PY":
		e.year = value
	case "Y1":
		e.year = firstNonEmpty(e.year, value)
	case "JO", "JF":
		e.journal = value
	case "T2", "JA":
		e.journal = firstNonEmpty(e.journal, value)
	case "AB":
		e.abstract = value
	case "N2":
		e.abstract = firstNonEmpty(e.abstract, value)
	case "DO":
		e.doi = value
	case "UR":
		e.url = value
	case "VL":
		e.volume = value
	case "IS":
		e.number = value
	case "SP":
		if e.pages == "" {
			e.pages = value
		} else {
			e.pages = value + "-" + e.pages
		}
	case "EP":
		if e.pages == "" {
			e.pages = value
		} else {
			e.pages = e.pages + "-" + value
		}
	case "PB":
		e.pub = value
	case "KW":
		if value != "" {
			e.keywords = append(e.keywords, value)
		}
	case "SN":
		if strings.Contains(value, "-") {
			e.isbn = value
		} else {
			e.issn = value
		}
	default:
		return
	}
	e.fields++
}

func (e *risEntry) publication(n int, types TypeMapper) entities.Publication {
	title := e.title
	if title == "" {
		title = entities.PlaceholderTitle
	}
	authors := e.authors
	if authors == nil {
		authors = []string{}
	}
	keywords := e.keywords
	if keywords == nil {
		keywords = []string{}
	}

	return entities.Publication{
		ID:         fmt.Sprintf("ris-%d", n),
		Title:      title,
		Type:       types.MapType(e.typ),
		Authors:    authors,
		Journal:    firstNonEmpty(e.journal, entities.PlaceholderJournal),
		Year:       parseYear(e.year),
		DOI:        entities.Optional(e.doi),
		URL:        entities.Optional(e.url),
		Abstract:   e.abstract,
		Keywords:   keywords,
		Volume:     entities.Optional(e.volume),
		Number:     entities.Optional(e.number),
		Pages:      entities.Optional(e.pages),
		Publisher:  entities.Optional(e.pub),
		ISBN:       entities.Optional(e.isbn),
		ISSN:       entities.Optional(e.issn),
		Source:     entities.SourceEndNote,
		SourceKey:  e.id,
		SourceType: e.typ,
	}
}

// parseRIS runs the line-tag state machine. TY is the only entry delimiter;
// ER lines are ignored and the last entry is flushed after the loop.
func parseRIS(raw string, types TypeMapper) []entities.Publication {
	out := []entities.Publication{}
	current := &risEntry{}

	flush := func() {
		if !current.empty() {
			out = append(out, current.publication(len(out)+1, types))
		}
		current = &risEntry{}
	}

	for _, line := range strings.Split(raw, "\n") {
		m := risLine.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}
		tag, value := m[1], clean(m[2])
		if tag == "TY" {
			flush()
		}
		current.set(tag, value)
	}
	flush()

	return out
}
