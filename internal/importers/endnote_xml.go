package importers

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/htmlindex"

	"github.com/mrlokans/pubimport/internal/entities"
)

// ErrInvalidEndNoteXML is returned for any XML input that fails to parse.
var ErrInvalidEndNoteXML = errors.New("failed to parse EndNote XML")

// xmlNode is a minimal element tree. text holds the flattened text content
// of the element and all of its descendants, in document order.
type xmlNode struct {
	name     string
	attrs    []xml.Attr
	children []*xmlNode
	text     strings.Builder
}

func (n *xmlNode) find(name string) *xmlNode {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
		if found := c.find(name); found != nil {
			return found
		}
	}
	return nil
}

func (n *xmlNode) findAll(name string, out []*xmlNode) []*xmlNode {
	for _, c := range n.children {
		if c.name == name {
			out = append(out, c)
		}
		out = c.findAll(name, out)
	}
	return out
}

func (n *xmlNode) textOf(names ...string) string {
	for _, name := range names {
		if el := n.find(name); el != nil {
			if v := clean(el.text.String()); v != "" {
				return v
			}
		}
	}
	return ""
}

func (n *xmlNode) attr(name string) string {
	for _, a := range n.attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func parseXMLTree(raw string) (*xmlNode, error) {
	d := xml.NewDecoder(strings.NewReader(raw))
	d.Entity = xml.HTMLEntity
	// Text from DecodeText is already UTF-8 whatever the declaration says.
	// Only raw bytes in another charset are decoded here.
	decoded := utf8.ValidString(raw)
	d.CharsetReader = func(label string, input io.Reader) (io.Reader, error) {
		if decoded {
			return input, nil
		}
		enc, err := htmlindex.Get(label)
		if err != nil {
			return nil, err
		}
		return enc.NewDecoder().Reader(input), nil
	}

	root := &xmlNode{name: "#document"}
	stack := []*xmlNode{root}
	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &xmlNode{name: t.Name.Local, attrs: t.Attr}
			parent := stack[len(stack)-1]
			parent.children = append(parent.children, n)
			stack = append(stack, n)
		case xml.EndElement:
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			stack[len(stack)-1].text.WriteString(n.text.String())
		case xml.CharData:
			stack[len(stack)-1].text.Write(t)
		}
	}
	if len(stack) != 1 || len(root.children) == 0 {
		return nil, fmt.Errorf("incomplete document")
	}
	return root, nil
}

// parseEndNoteXML reads every <record> element. Records without a title are
// dropped and every record is typed as an article.
func parseEndNoteXML(raw string) ([]entities.Publication, error) {
	root, err := parseXMLTree(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEndNoteXML, err)
	}

	out := []entities.Publication{}
	for _, rec := range root.findAll("record", nil) {
		title := rec.textOf("title")
		if title == "" {
			continue
		}

		authors := []string{}
		for _, a := range rec.findAll("author", nil) {
			if name := clean(a.text.String()); name != "" {
				authors = append(authors, name)
			}
		}
		keywords := []string{}
		for _, k := range rec.findAll("keyword", nil) {
			if kw := clean(k.text.String()); kw != "" {
				keywords = append(keywords, kw)
			}
		}

		sourceType := ""
		if rt := rec.find("ref-type"); rt != nil {
			sourceType = rt.attr("name")
		}

		out = append(out, entities.Publication{
			ID:         fmt.Sprintf("xml-%d", len(out)+1),
			Title:      title,
			Type:       entities.PublicationTypeArticle,
			Authors:    authors,
			Journal:    firstNonEmpty(rec.textOf("journal", "secondary-title"), entities.PlaceholderJournal),
			Year:       parseYear(rec.textOf("year")),
			DOI:        entities.Optional(rec.textOf("doi", "electronic-resource-num")),
			URL:        entities.Optional(rec.textOf("url")),
			Abstract:   rec.textOf("abstract"),
			Keywords:   keywords,
			Volume:     entities.Optional(rec.textOf("volume")),
			Number:     entities.Optional(rec.textOf("number")),
			Pages:      entities.Optional(rec.textOf("pages")),
			Publisher:  entities.Optional(rec.textOf("publisher")),
			ISBN:       entities.Optional(rec.textOf("isbn")),
			Source:     entities.SourceEndNote,
			SourceKey:  rec.textOf("rec-number"),
			SourceType: sourceType,
		})
	}
	return out, nil
}
