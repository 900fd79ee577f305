package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/pubimport/internal/entities"
	"github.com/mrlokans/pubimport/internal/services"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// PublicationsController serves the persistence endpoint used by the
// review stage and the CLI.
type PublicationsController struct {
	service PublicationService
	token   string
}

func NewPublicationsController(service PublicationService, token string) *PublicationsController {
	return &PublicationsController{service: service, token: token}
}

// Import handles POST /api/publications/import
func (pc *PublicationsController) Import(c *gin.Context) {
	if !requireToken(c, pc.token) {
		return
	}

	var req entities.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if req.Method != "" {
		method, err := entities.ParseImportMethod(string(req.Method))
		if err != nil {
			respondBadRequest(c, err.Error())
			return
		}
		req.Method = method
	}

	resp, err := pc.service.ImportPublications(c.Request.Context(), req)
	if errors.Is(err, services.ErrEmptyRequest) {
		c.JSON(http.StatusBadRequest, resp)
		return
	}
	if err != nil {
		respondDomainError(c, err, "import publications", nil)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List handles GET /api/publications?offset=&limit=
func (pc *PublicationsController) List(c *gin.Context) {
	offset, limit, ok := parsePagination(c, defaultPageSize, maxPageSize)
	if !ok {
		return
	}

	pubs, total, err := pc.service.ListPublications(c.Request.Context(), offset, limit)
	if err != nil {
		respondDomainError(c, err, "list publications", nil)
		return
	}

	c.JSON(http.StatusOK, PaginatedResponse{
		Data:    pubs,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: int64(offset+len(pubs)) < total,
	})
}
