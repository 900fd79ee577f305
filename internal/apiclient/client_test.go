package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/pubimport/internal/entities"
	"github.com/mrlokans/pubimport/internal/importers"
	"github.com/mrlokans/pubimport/internal/review"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) string {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv.URL
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestImportPublications(t *testing.T) {
	req := entities.ImportRequest{
		Method:       entities.ImportMethodBibTeX,
		Publications: []entities.Publication{{ID: "bibtex-1", Title: "A"}},
	}

	t.Run("success with token", func(t *testing.T) {
		url := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/api/publications/import", r.URL.Path)
			assert.Equal(t, "Token s3cret", r.Header.Get("Authorization"))

			var got entities.ImportRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			assert.Equal(t, entities.ImportMethodBibTeX, got.Method)
			assert.Len(t, got.Publications, 1)

			writeJSON(w, http.StatusOK, entities.ImportResponse{Success: true, Imported: 1, Total: 1})
		})

		resp, err := NewClient(url, WithToken("s3cret")).ImportPublications(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, 1, resp.Imported)
	})

	t.Run("no token header by default", func(t *testing.T) {
		url := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Empty(t, r.Header.Get("Authorization"))
			writeJSON(w, http.StatusOK, entities.ImportResponse{Success: true})
		})

		_, err := NewClient(url).ImportPublications(context.Background(), req)
		require.NoError(t, err)
	})

	t.Run("non-2xx carries server message", func(t *testing.T) {
		url := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Database unavailable"})
		})

		_, err := NewClient(url).ImportPublications(context.Background(), req)
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
		assert.Equal(t, "Database unavailable", apiErr.ServerMessage())
	})

	t.Run("success false", func(t *testing.T) {
		url := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, entities.ImportResponse{Success: false, Error: "no valid publications"})
		})

		resp, err := NewClient(url).ImportPublications(context.Background(), req)
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, "no valid publications", apiErr.Message)
		require.NotNil(t, resp)
		assert.False(t, resp.Success)
	})

	t.Run("feeds review submit errors", func(t *testing.T) {
		url := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": "upstream down"})
		})

		s := review.NewSession(entities.ImportMethodBibTeX)
		require.NoError(t, s.Load(importResult()))
		_, err := s.Submit(context.Background(), NewClient(url))

		var submitErr *review.SubmitError
		require.True(t, errors.As(err, &submitErr))
		assert.Equal(t, "upstream down", submitErr.Message)
	})
}

func TestLoadZoteroCredentials(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    any
		wantErr error
	}{
		{"unauthorized", http.StatusUnauthorized, map[string]string{"error": "unauthorized"}, review.ErrNotConfigured},
		{"table missing", http.StatusServiceUnavailable, map[string]string{"error": "settings table not found", "code": "TABLE_NOT_FOUND"}, review.ErrDatabaseSetupRequired},
		{"not configured", http.StatusOK, entities.ZoteroCredentials{IsConfigured: false}, review.ErrNotConfigured},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})

			_, err := NewClient(url).LoadZoteroCredentials(context.Background())
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("other 503 is an api error", func(t *testing.T) {
		url := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "maintenance"})
		})

		_, err := NewClient(url).LoadZoteroCredentials(context.Background())
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, "maintenance", apiErr.Message)
	})

	t.Run("configured", func(t *testing.T) {
		url := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			writeJSON(w, http.StatusOK, entities.ZoteroCredentials{UserID: "42", APIKey: "k", IsConfigured: true})
		})

		creds, err := NewClient(url).LoadZoteroCredentials(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "42", creds.UserID)
		assert.Equal(t, "k", creds.APIKey)
	})
}

func TestSaveAndClearZoteroCredentials(t *testing.T) {
	var methods []string
	url := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method)
		if r.Method == http.MethodPost {
			var creds entities.ZoteroCredentials
			require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
			assert.Equal(t, "42", creds.UserID)
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	})

	client := NewClient(url + "/")
	require.NoError(t, client.SaveZoteroCredentials(context.Background(), entities.ZoteroCredentials{UserID: "42", APIKey: "k"}))
	require.NoError(t, client.ClearZoteroCredentials(context.Background()))
	assert.Equal(t, []string{http.MethodPost, http.MethodDelete}, methods)
}

func importResult() importers.ParseResult {
	return importers.ParseResult{Publications: []entities.Publication{{ID: "x", Title: "X"}}}
}
