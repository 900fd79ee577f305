package importers

import (
	"strings"

	"github.com/mrlokans/pubimport/internal/entities"
)

// TypeMapper resolves a source-specific type string to the unified enum.
type TypeMapper interface {
	MapType(sourceType string) entities.PublicationType
}

// TypeTable is a lookup-table TypeMapper. Keys are matched case-insensitively
// unless the table was built with NewExactTypeTable.
type TypeTable struct {
	entries  map[string]entities.PublicationType
	fallback entities.PublicationType
	fold     bool
}

// NewTypeTable builds a case-insensitive table.
func NewTypeTable(fallback entities.PublicationType, entries map[string]entities.PublicationType) *TypeTable {
	folded := make(map[string]entities.PublicationType, len(entries))
	for k, v := range entries {
		folded[strings.ToLower(k)] = v
	}
	return &TypeTable{entries: folded, fallback: fallback, fold: true}
}

// NewExactTypeTable builds a table whose keys must match exactly.
func NewExactTypeTable(fallback entities.PublicationType, entries map[string]entities.PublicationType) *TypeTable {
	return &TypeTable{entries: entries, fallback: fallback}
}

func (t *TypeTable) MapType(sourceType string) entities.PublicationType {
	key := strings.TrimSpace(sourceType)
	if t.fold {
		key = strings.ToLower(key)
	}
	if pt, ok := t.entries[key]; ok {
		return pt
	}
	return t.fallback
}

var _ TypeMapper = (*TypeTable)(nil)

// BibTeXTypes maps BibTeX entry types; unknown types become "other".
var BibTeXTypes = NewTypeTable(entities.PublicationTypeOther, map[string]entities.PublicationType{
	"article":       entities.PublicationTypeArticle,
	"inproceedings": entities.PublicationTypeConference,
	"book":          entities.PublicationTypeBook,
	"incollection":  entities.PublicationTypeBookChapter,
	"phdthesis":     entities.PublicationTypeThesis,
	"mastersthesis": entities.PublicationTypeThesis,
	"techreport":    entities.PublicationTypeReport,
	"misc":          entities.PublicationTypeOther,
})

// RISTypes maps RIS TY values; unknown values become "article".
var RISTypes = NewTypeTable(entities.PublicationTypeArticle, map[string]entities.PublicationType{
	"JOUR": entities.PublicationTypeArticle,
	"BOOK": entities.PublicationTypeBook,
	"CHAP": entities.PublicationTypeBookChapter,
	"CONF": entities.PublicationTypeConference,
	"THES": entities.PublicationTypeThesis,
	"RPRT": entities.PublicationTypeReport,
	"GEN":  entities.PublicationTypeOther,
})

// ZoteroTypes maps Zotero itemType values, which are camelCase and matched exactly.
var ZoteroTypes = NewExactTypeTable(entities.PublicationTypeOther, map[string]entities.PublicationType{
	"journalArticle":   entities.PublicationTypeArticle,
	"bookSection":      entities.PublicationTypeBookChapter,
	"book":             entities.PublicationTypeBook,
	"thesis":           entities.PublicationTypeThesis,
	"conferencePaper":  entities.PublicationTypeConference,
	"report":           entities.PublicationTypeReport,
	"preprint":         entities.PublicationTypePreprint,
	"presentation":     entities.PublicationTypePresentation,
	"software":         entities.PublicationTypeSoftware,
	"computerProgram":  entities.PublicationTypeSoftware,
	"magazineArticle":  entities.PublicationTypeArticle,
	"newspaperArticle": entities.PublicationTypeArticle,
	"webpage":          entities.PublicationTypeOther,
	"blogPost":         entities.PublicationTypeOther,
	"patent":           entities.PublicationTypeOther,
	"videoRecording":   entities.PublicationTypeOther,
	"podcast":          entities.PublicationTypeOther,
})
