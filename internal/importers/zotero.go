package importers

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/mrlokans/pubimport/internal/entities"
	"github.com/mrlokans/pubimport/internal/zotero"
)

var fourDigitYear = regexp.MustCompile(`\d{4}`)

// Layouts tried when a Zotero date has no four-digit run.
var zoteroDateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"01/02/06",
}

// TransformZoteroItems maps Zotero items with the default type table.
func TransformZoteroItems(items []zotero.Item) []entities.Publication {
	return TransformZoteroItemsWith(items, ZoteroTypes)
}

// TransformZoteroItemsWith maps Zotero items without any I/O.
func TransformZoteroItemsWith(items []zotero.Item, types TypeMapper) []entities.Publication {
	out := make([]entities.Publication, 0, len(items))
	for i, item := range items {
		d := item.Data
		key := firstNonEmpty(item.Key, d.Key)
		id := "zotero-" + key
		if key == "" {
			id = fmt.Sprintf("zotero-item-%d", i+1)
		}

		title := clean(d.Title)
		if title == "" {
			title = entities.PlaceholderTitle
		}

		keywords := []string{}
		for _, t := range d.Tags {
			if tag := clean(t.Tag); tag != "" {
				keywords = append(keywords, tag)
			}
		}

		out = append(out, entities.Publication{
			ID:         id,
			Title:      title,
			Type:       types.MapType(d.ItemType),
			Authors:    zoteroAuthors(d.Creators),
			Journal:    firstNonEmpty(d.PublicationTitle, d.JournalAbbreviation, "Unknown"),
			Year:       zoteroYear(d.Date),
			DOI:        entities.Optional(d.DOI),
			URL:        entities.Optional(d.URL),
			Abstract:   clean(d.AbstractNote),
			Keywords:   keywords,
			Volume:     entities.Optional(d.Volume),
			Number:     entities.Optional(d.Issue),
			Pages:      entities.Optional(d.Pages),
			Publisher:  entities.Optional(d.Publisher),
			ISBN:       entities.Optional(d.ISBN),
			ISSN:       entities.Optional(d.ISSN),
			Source:     entities.SourceZotero,
			SourceKey:  key,
			SourceType: d.ItemType,
		})
	}
	return out
}

// zoteroAuthors keeps creators of type "author" only.
func zoteroAuthors(creators []zotero.Creator) []string {
	authors := []string{}
	for _, c := range creators {
		if c.CreatorType != "author" {
			continue
		}
		name := clean(c.Name)
		if name == "" {
			name = clean(c.FirstName + " " + c.LastName)
		}
		if name != "" {
			authors = append(authors, name)
		}
	}
	return authors
}

func zoteroYear(date string) int {
	date = strings.TrimSpace(date)
	if y := fourDigitYear.FindString(date); y != "" {
		return parseYear(y)
	}
	for _, layout := range zoteroDateLayouts {
		if t, err := time.Parse(layout, date); err == nil {
			return t.Year()
		}
	}
	return currentYear()
}
