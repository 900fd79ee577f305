package http

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/pubimport/internal/entities"
)

func publicationFixture(n int) []entities.Publication {
	pubs := make([]entities.Publication, 0, n)
	for i := 0; i < n; i++ {
		pubs = append(pubs, entities.Publication{
			ID:      fmt.Sprintf("pub-%d", i),
			Title:   fmt.Sprintf("Paper number %d", i),
			Type:    entities.PublicationTypeArticle,
			Authors: []string{"Doe, Jane"},
			Journal: "Journal of Tests",
			Year:    2020 + i,
		})
	}
	return pubs
}

func TestPublications_Import(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do("POST", "/api/publications/import", entities.ImportRequest{
		Publications: publicationFixture(3),
		Method:       entities.ImportMethodBibTeX,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[entities.ImportResponse](t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, 3, resp.Imported)
	assert.Equal(t, 3, resp.Total)
	assert.NotEmpty(t, resp.BatchID)

	t.Run("same batch again is skipped", func(t *testing.T) {
		w := env.do("POST", "/api/publications/import", entities.ImportRequest{
			Publications: publicationFixture(3),
			Method:       entities.ImportMethodBibTeX,
		})
		require.Equal(t, http.StatusOK, w.Code)
		resp := decode[entities.ImportResponse](t, w)
		assert.Zero(t, resp.Imported)
		assert.Len(t, resp.Warnings, 3)
	})
}

func TestPublications_ImportValidation(t *testing.T) {
	env := newTestEnv(t, nil)

	t.Run("empty request", func(t *testing.T) {
		w := env.do("POST", "/api/publications/import", entities.ImportRequest{Method: entities.ImportMethodBibTeX})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decode[entities.ImportResponse](t, w)
		assert.False(t, resp.Success)
		assert.NotEmpty(t, resp.Error)
	})

	t.Run("unknown method", func(t *testing.T) {
		w := env.do("POST", "/api/publications/import", map[string]any{
			"publications": publicationFixture(1),
			"method":       "mendeley",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "unknown import method")
	})

	t.Run("malformed body", func(t *testing.T) {
		w := env.do("POST", "/api/publications/import", "not an object")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestPublications_TokenAuth(t *testing.T) {
	env := newTestEnv(t, func(cfg *RouterConfig) {
		cfg.APIToken = "s3cret"
	})
	req := entities.ImportRequest{Publications: publicationFixture(1), Method: entities.ImportMethodEndNote}

	w := env.do("POST", "/api/publications/import", req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do("POST", "/api/publications/import", req, "Authorization", "Token wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do("POST", "/api/publications/import", req, "Authorization", "Token s3cret")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPublications_List(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do("POST", "/api/publications/import", entities.ImportRequest{
		Publications: publicationFixture(5),
		Method:       entities.ImportMethodBibTeX,
	})
	require.Equal(t, http.StatusOK, w.Code)

	type page struct {
		Data    []entities.StoredPublication `json:"data"`
		Total   int64                        `json:"total"`
		Limit   int                          `json:"limit"`
		Offset  int                          `json:"offset"`
		HasMore bool                         `json:"has_more"`
	}

	w = env.do("GET", "/api/publications?limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	first := decode[page](t, w)
	assert.Len(t, first.Data, 2)
	assert.Equal(t, int64(5), first.Total)
	assert.True(t, first.HasMore)

	w = env.do("GET", "/api/publications?offset=4&limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	last := decode[page](t, w)
	assert.Len(t, last.Data, 1)
	assert.False(t, last.HasMore)

	w = env.do("GET", "/api/publications?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
