package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mrlokans/pubimport/internal/config"
	"github.com/mrlokans/pubimport/internal/entities"
	"github.com/mrlokans/pubimport/internal/importers"
)

const sampleBibTeX = `@article{smith2023,
  title = {Deep Learning for Citation Parsing},
  author = {Smith, John and Doe, Jane},
  journal = {Journal of Parsing},
  year = {2023}
}

@book{wilson2022,
  title = {Data Science},
  author = {Wilson, Emma},
  publisher = {Tech Press},
  year = {2022}
}

@misc{notitle,
  author = {Nobody, A.},
  year = {2020}
}
`

// fakeServer records import requests and serves stored Zotero credentials.
type fakeServer struct {
	*httptest.Server
	imports []entities.ImportRequest
	creds   entities.ZoteroCredentials
	token   string
}

func newFakeServer(t *testing.T) *fakeServer {
	fs := &fakeServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/publications/import", func(w http.ResponseWriter, r *http.Request) {
		if fs.token != "" && r.Header.Get("Authorization") != "Token "+fs.token {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid or missing API token","code":"UNAUTHORIZED"}`))
			return
		}
		var req entities.ImportRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		fs.imports = append(fs.imports, req)
		_ = json.NewEncoder(w).Encode(entities.ImportResponse{
			Success:  true,
			Imported: len(req.Publications),
			Total:    len(req.Publications),
			BatchID:  "batch-1",
		})
	})
	mux.HandleFunc("/api/settings/zotero", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(fs.creds)
		case http.MethodPost:
			var creds entities.ZoteroCredentials
			require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
			creds.IsConfigured = true
			fs.creds = creds
			_ = json.NewEncoder(w).Encode(map[string]any{"isConfigured": true})
		}
	})
	fs.Server = httptest.NewServer(mux)
	t.Cleanup(fs.Close)
	return fs
}

func newZoteroServer(t *testing.T, validKey string) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/users/12345/collections", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != validKey {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = w.Write([]byte(`[{"key":"COLL1","meta":{"numItems":2},"data":{"key":"COLL1","name":"Thesis"}}]`))
	})
	mux.HandleFunc("/users/12345/collections/COLL1/items", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"key":"ITEM1","data":{"key":"ITEM1","itemType":"journalArticle","title":"Graph Methods","creators":[{"creatorType":"author","firstName":"Ada","lastName":"Lovelace"}],"publicationTitle":"Computing","date":"2021"}},
			{"key":"ITEM2","data":{"key":"ITEM2","itemType":"book","title":"Compilers","creators":[{"creatorType":"author","name":"Aho"}],"date":"1986"}}
		]`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand(cfg, "test")
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestResolveMethod(t *testing.T) {
	tests := []struct {
		format, path string
		want         entities.ImportMethod
		wantErr      bool
	}{
		{"", "refs.bib", entities.ImportMethodBibTeX, false},
		{"", "refs.RIS", entities.ImportMethodEndNote, false},
		{"", "library.xml", entities.ImportMethodEndNote, false},
		{"endnote", "export.txt", entities.ImportMethodEndNote, false},
		{"", "export.txt", "", true},
		{"zotero", "refs.bib", "", true},
		{"mendeley", "refs.bib", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.format+"/"+tt.path, func(t *testing.T) {
			got, err := resolveMethod(tt.format, tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCommand(t *testing.T) {
	path := writeFile(t, "refs.bib", sampleBibTeX)

	t.Run("json", func(t *testing.T) {
		out, err := run(t, &config.Config{}, "parse", path)
		require.NoError(t, err)

		var result importers.ParseResult
		require.NoError(t, json.Unmarshal([]byte(out), &result))
		assert.Len(t, result.Publications, 3)
		assert.Equal(t, "Deep Learning for Citation Parsing", result.Publications[0].Title)
		require.NotEmpty(t, result.Errors, "the untitled entry is flagged")
		assert.True(t, strings.HasPrefix(result.Errors[0], path+": "), result.Errors[0])
	})

	t.Run("yaml", func(t *testing.T) {
		out, err := run(t, &config.Config{}, "parse", path, "--output", "yaml")
		require.NoError(t, err)

		var result importers.ParseResult
		require.NoError(t, yaml.Unmarshal([]byte(out), &result))
		assert.Len(t, result.Publications, 3)
		assert.Equal(t, 2022, result.Publications[1].Year)
	})

	t.Run("unknown output", func(t *testing.T) {
		_, err := run(t, &config.Config{}, "parse", path, "--output", "xml")
		assert.ErrorContains(t, err, "unknown output format")
	})

	t.Run("rejected extension", func(t *testing.T) {
		pdf := writeFile(t, "paper.pdf", "%PDF-1.4")
		_, err := run(t, &config.Config{}, "parse", pdf, "--format", "bibtex")
		assert.ErrorIs(t, err, importers.ErrUnsupportedFile)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := run(t, &config.Config{}, "parse", filepath.Join(t.TempDir(), "none.bib"))
		assert.ErrorContains(t, err, "reading file")
	})
}

func TestSubmitCommand(t *testing.T) {
	srv := newFakeServer(t)
	cfg := &config.Config{Client: config.Client{BaseURL: srv.URL}}
	path := writeFile(t, "refs.bib", sampleBibTeX)

	out, err := run(t, cfg, "submit", path, "--exclude", "bibtex-3")
	require.NoError(t, err)
	assert.Contains(t, out, "Submitting 2 of 3 publications")
	assert.Contains(t, out, "Imported 2 of 2 publications")
	assert.Contains(t, out, "Batch: batch-1")

	require.Len(t, srv.imports, 1)
	assert.Equal(t, entities.ImportMethodBibTeX, srv.imports[0].Method)
	assert.Len(t, srv.imports[0].Publications, 2)

	t.Run("exclude listed twice", func(t *testing.T) {
		_, err := run(t, cfg, "submit", path, "--exclude", "bibtex-1", "--exclude", "bibtex-1")
		require.NoError(t, err)
		assert.Len(t, srv.imports[len(srv.imports)-1].Publications, 2)
	})

	t.Run("unknown exclude", func(t *testing.T) {
		_, err := run(t, cfg, "submit", path, "--exclude", "bibtex-9")
		assert.ErrorContains(t, err, "--exclude bibtex-9")
	})

	t.Run("everything excluded", func(t *testing.T) {
		_, err := run(t, cfg, "submit", path, "--exclude", "bibtex-1", "--exclude", "bibtex-2", "--exclude", "bibtex-3")
		assert.Error(t, err)
	})
}

func TestSubmitCommand_Token(t *testing.T) {
	srv := newFakeServer(t)
	srv.token = "s3cret"
	path := writeFile(t, "refs.bib", sampleBibTeX)

	_, err := run(t, &config.Config{Client: config.Client{BaseURL: srv.URL}}, "submit", path)
	assert.Error(t, err)
	assert.Empty(t, srv.imports)

	_, err = run(t, &config.Config{Client: config.Client{BaseURL: srv.URL}}, "submit", path, "--token", "s3cret")
	require.NoError(t, err)
	assert.Len(t, srv.imports, 1)
}

func TestZoteroCommands(t *testing.T) {
	srv := newFakeServer(t)
	zsrv := newZoteroServer(t, "goodkey")
	cfg := &config.Config{
		Client: config.Client{BaseURL: srv.URL},
		Zotero: config.Zotero{APIURL: zsrv.URL},
	}

	t.Run("no stored credentials", func(t *testing.T) {
		_, err := run(t, cfg, "zotero", "collections")
		assert.ErrorContains(t, err, "pass --user and --key")
	})

	t.Run("explicit credentials are remembered", func(t *testing.T) {
		out, err := run(t, cfg, "zotero", "collections", "--user", "12345", "--key", "goodkey", "--remember")
		require.NoError(t, err)
		assert.Contains(t, out, "Thesis")
		assert.Contains(t, out, "COLL1")
		assert.Equal(t, "goodkey", srv.creds.APIKey)
	})

	t.Run("stored credentials are reused", func(t *testing.T) {
		out, err := run(t, cfg, "zotero", "import", "--collection", "COLL1", "--exclude", "zotero-ITEM2")
		require.NoError(t, err)
		assert.Contains(t, out, "Submitting 1 of 2 publications")

		last := srv.imports[len(srv.imports)-1]
		assert.Equal(t, entities.ImportMethodZotero, last.Method)
		require.Len(t, last.Publications, 1)
		assert.Equal(t, "Graph Methods", last.Publications[0].Title)
	})

	t.Run("invalid key", func(t *testing.T) {
		_, err := run(t, cfg, "zotero", "collections", "--user", "12345", "--key", "wrong")
		require.Error(t, err)
		assert.True(t, strings.Contains(err.Error(), "invalid"), err.Error())
	})
}
