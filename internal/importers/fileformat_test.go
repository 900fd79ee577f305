package importers

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/mrlokans/pubimport/internal/entities"
)

func TestValidateUpload(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		contentType string
		method      entities.ImportMethod
		wantErr     bool
	}{
		{"bib file", "refs.bib", "application/octet-stream", entities.ImportMethodBibTeX, false},
		{"uppercase extension", "REFS.BIBTEX", "", entities.ImportMethodBibTeX, false},
		{"ris for bibtex", "refs.ris", "", entities.ImportMethodBibTeX, true},
		{"ris for endnote", "library.ris", "", entities.ImportMethodEndNote, false},
		{"xml for endnote", "library.xml", "application/xml", entities.ImportMethodEndNote, false},
		{"enw for endnote", "library.enw", "", entities.ImportMethodEndNote, false},
		{"pdf rejected", "paper.pdf", "application/pdf", entities.ImportMethodEndNote, true},
		{"no extension text", "export", "text/plain", entities.ImportMethodEndNote, false},
		{"no extension xml", "export", "application/xml", entities.ImportMethodEndNote, false},
		{"no extension binary", "export", "application/octet-stream", entities.ImportMethodBibTeX, true},
		{"zotero takes no files", "refs.bib", "", entities.ImportMethodZotero, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUpload(tt.filename, tt.contentType, tt.method)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFile)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDecodeText(t *testing.T) {
	t.Run("plain utf-8", func(t *testing.T) {
		s, err := DecodeText([]byte("Müller"))
		require.NoError(t, err)
		assert.Equal(t, "Müller", s)
	})

	t.Run("utf-8 bom is stripped", func(t *testing.T) {
		s, err := DecodeText([]byte("\xef\xbb\xbf@article{x}"))
		require.NoError(t, err)
		assert.Equal(t, "@article{x}", s)
	})

	t.Run("utf-16 little endian", func(t *testing.T) {
		s, err := DecodeText([]byte{0xff, 0xfe, 'T', 0, 'Y', 0})
		require.NoError(t, err)
		assert.Equal(t, "TY", s)
	})

	t.Run("utf-16 big endian", func(t *testing.T) {
		s, err := DecodeText([]byte{0xfe, 0xff, 0, 'T', 0, 'Y'})
		require.NoError(t, err)
		assert.Equal(t, "TY", s)
	})

	t.Run("windows-1252 fallback", func(t *testing.T) {
		s, err := DecodeText([]byte("Caf\xe9"))
		require.NoError(t, err)
		assert.Equal(t, "Café", s)
	})

	t.Run("utf-8 bom before windows-1252 bytes", func(t *testing.T) {
		s, err := DecodeText([]byte("\xef\xbb\xbfCaf\xe9"))
		require.NoError(t, err)
		assert.Equal(t, "Café", s)
	})
}

func TestDecodeText_EndNoteXMLUploads(t *testing.T) {
	const doc = `<?xml version="1.0" encoding="%s"?><xml><records><record><titles><title>Café au lait</title></titles></record></records></xml>`

	latin1, err := charmap.ISO8859_1.NewEncoder().String(fmt.Sprintf(doc, "ISO-8859-1"))
	require.NoError(t, err)
	utf16le, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().String(fmt.Sprintf(doc, "UTF-16"))
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
	}{
		{"latin-1 declaration", []byte(latin1)},
		{"utf-16 with bom", []byte(utf16le)},
		{"utf-8 with bom", append([]byte{0xef, 0xbb, 0xbf}, fmt.Sprintf(doc, "UTF-8")...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := DecodeText(tt.data)
			require.NoError(t, err)

			pubs, err := ParseEndNote(text)
			require.NoError(t, err)
			require.Len(t, pubs, 1)
			assert.Equal(t, "Café au lait", pubs[0].Title)
		})
	}
}

func TestParseResult_From(t *testing.T) {
	r := ParseResult{Errors: []string{"a", "b"}}

	named := r.From("refs.ris")
	assert.Equal(t, []string{"refs.ris: a", "refs.ris: b"}, named.Errors)
	assert.Equal(t, []string{"a", "b"}, r.Errors, "the original is untouched")
	assert.Equal(t, r, r.From(""))
}
