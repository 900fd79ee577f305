package importers

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/mrlokans/pubimport/internal/entities"
)

// ErrUnsupportedFile is returned for uploads outside the allow-list.
var ErrUnsupportedFile = errors.New("unsupported file type")

var allowedExtensions = map[entities.ImportMethod][]string{
	entities.ImportMethodBibTeX:  {".bib", ".bibtex", ".txt"},
	entities.ImportMethodEndNote: {".ris", ".enw", ".xml", ".txt", ".bib", ".ref"},
}

// AllowedExtensions lists the accepted file extensions for a method.
func AllowedExtensions(method entities.ImportMethod) []string {
	return allowedExtensions[method]
}

// ValidateUpload checks a file name against the method's allow-list. Files
// without an extension pass when their content type is text or XML.
func ValidateUpload(filename, contentType string, method entities.ImportMethod) error {
	allowed, ok := allowedExtensions[method]
	if !ok {
		return fmt.Errorf("%w: %s does not accept file uploads", ErrUnsupportedFile, method)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ct := strings.ToLower(contentType)
		if strings.HasPrefix(ct, "text/") || strings.Contains(ct, "xml") {
			return nil
		}
		return fmt.Errorf("%w: %s has no extension and content type %q", ErrUnsupportedFile, filename, contentType)
	}

	for _, a := range allowed {
		if ext == a {
			return nil
		}
	}
	return fmt.Errorf("%w: %s (expected one of %s)", ErrUnsupportedFile, filename, strings.Join(allowed, ", "))
}

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// DecodeText converts an uploaded file to a UTF-8 string without a byte
// order mark. A UTF-16 BOM selects UTF-16; otherwise invalid UTF-8 is read
// as Windows-1252. The result is always UTF-8, so an XML encoding
// declaration left in the text no longer applies.
func DecodeText(data []byte) (string, error) {
	if bytes.HasPrefix(data, bomUTF16LE) || bytes.HasPrefix(data, bomUTF16BE) {
		dec := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder()
		out, _, err := transform.Bytes(dec, data)
		if err != nil {
			return "", fmt.Errorf("decode text as utf-16: %w", err)
		}
		return string(out), nil
	}

	data = bytes.TrimPrefix(data, bomUTF8)
	if utf8.Valid(data) {
		return string(data), nil
	}

	out, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode text as windows-1252: %w", err)
	}
	return string(out), nil
}
