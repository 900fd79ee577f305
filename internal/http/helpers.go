package http

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/pubimport/internal/database"
	dbaudit "github.com/mrlokans/pubimport/internal/database/audit"
	"github.com/mrlokans/pubimport/internal/importers"
	"github.com/mrlokans/pubimport/internal/review"
	"github.com/mrlokans/pubimport/internal/services"
	"github.com/mrlokans/pubimport/internal/settingsstore"
	"github.com/mrlokans/pubimport/internal/websession"
	"github.com/mrlokans/pubimport/internal/zotero"
)

// Machine-readable error codes.
const (
	CodeTableNotFound      = "TABLE_NOT_FOUND"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeNotConfigured      = "NOT_CONFIGURED"
	CodeNotConnected       = "NOT_CONNECTED"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeZoteroError        = "ZOTERO_ERROR"
	CodeUnsupportedFile    = "UNSUPPORTED_FILE"
	CodeParseFailed        = "PARSE_FAILED"
	CodeNoRecords          = "NO_RECORDS"
	CodeUnknownRecord      = "UNKNOWN_RECORD"
	CodeNotReady           = "NOT_READY"
	CodeNothingSelected    = "NOTHING_SELECTED"
	CodeSubmitFailed       = "SUBMIT_FAILED"
	CodeDraftNotFound      = "DRAFT_NOT_FOUND"
	CodeDraftExpired       = "DRAFT_EXPIRED"
	CodeValidation         = "VALIDATION_FAILED"
	CodeEventNotFound      = "EVENT_NOT_FOUND"
)

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`    // machine-readable error code
	Details any    `json:"details,omitempty"` // additional context (session state, etc.)
}

// SuccessResponse is a standard success response with optional data.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// PaginatedResponse wraps paginated data with metadata.
type PaginatedResponse struct {
	Data    any   `json:"data"`
	Total   int64 `json:"total"`
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	HasMore bool  `json:"has_more"`
}

// --- Error Response Helpers ---

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

// respondInternalError logs the error and sends a 500 Internal Server Error response.
// The actual error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, err error, context string) {
	log.Printf("Internal error (%s): %v", context, err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

func respondErrorCode(c *gin.Context, status int, message, code string, details any) {
	c.JSON(status, ErrorResponse{Error: message, Code: code, Details: details})
}

func respondSuccess(c *gin.Context, message string) {
	c.JSON(http.StatusOK, SuccessResponse{Message: message})
}

// respondDomainError maps errors from the review, zotero and settings
// layers to a status and code. Unknown errors become a logged 500.
func respondDomainError(c *gin.Context, err error, context string, details any) {
	status, code, message := classifyError(err)
	if status == http.StatusInternalServerError && code == "" {
		log.Printf("Internal error (%s): %v", context, err)
	}
	respondErrorCode(c, status, message, code, details)
}

func classifyError(err error) (status int, code, message string) {
	var submitErr *review.SubmitError
	var authErr *zotero.AuthError
	var fetchErr *zotero.FetchError

	switch {
	case errors.Is(err, review.ErrDatabaseSetupRequired), errors.Is(err, database.ErrTableNotFound):
		return http.StatusServiceUnavailable, CodeTableNotFound, review.ErrDatabaseSetupRequired.Error()
	case errors.As(err, &submitErr):
		return http.StatusInternalServerError, CodeSubmitFailed, submitErr.Message
	case errors.Is(err, review.ErrNotConfigured):
		return http.StatusUnauthorized, CodeNotConfigured, err.Error()
	case errors.Is(err, review.ErrNotConnected):
		return http.StatusUnauthorized, CodeNotConnected, err.Error()
	case errors.Is(err, zotero.ErrInvalidAPIKey):
		return http.StatusUnauthorized, CodeInvalidCredentials, err.Error()
	case errors.Is(err, zotero.ErrUserNotFound):
		return http.StatusNotFound, CodeUserNotFound, err.Error()
	case errors.As(err, &authErr), errors.As(err, &fetchErr):
		return http.StatusBadGateway, CodeZoteroError, err.Error()
	case errors.Is(err, zotero.ErrMissingCredentials), errors.Is(err, settingsstore.ErrIncompleteCredentials):
		return http.StatusBadRequest, CodeValidation, err.Error()
	case errors.Is(err, importers.ErrUnsupportedFile):
		return http.StatusUnsupportedMediaType, CodeUnsupportedFile, err.Error()
	case errors.Is(err, review.ErrNoRecords):
		return http.StatusUnprocessableEntity, CodeNoRecords, "No publications found"
	case errors.Is(err, review.ErrUnknownRecord):
		return http.StatusNotFound, CodeUnknownRecord, err.Error()
	case errors.Is(err, review.ErrNotReady):
		return http.StatusConflict, CodeNotReady, err.Error()
	case errors.Is(err, review.ErrNothingSelected), errors.Is(err, services.ErrEmptyRequest):
		return http.StatusBadRequest, CodeNothingSelected, err.Error()
	case errors.Is(err, review.ErrDraftNotFound):
		return http.StatusNotFound, CodeDraftNotFound, err.Error()
	case errors.Is(err, review.ErrDraftExpired):
		return http.StatusGone, CodeDraftExpired, err.Error()
	case errors.Is(err, dbaudit.ErrEventNotFound):
		return http.StatusNotFound, CodeEventNotFound, err.Error()
	}
	return http.StatusInternalServerError, "", "internal server error"
}

// --- Token Auth ---

// requireToken enforces "Authorization: Token <token>" when token is set.
// It responds with 401 and returns false on mismatch.
func requireToken(c *gin.Context, token string) bool {
	if token == "" || websession.HasTokenAuth(c, token) {
		return true
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized", Code: CodeUnauthorized})
	return false
}

// --- Parameter Parsing ---

// parsePagination reads offset and limit query parameters. Limit defaults
// to defLimit and is capped at maxLimit.
func parsePagination(c *gin.Context, defLimit, maxLimit int) (offset, limit int, ok bool) {
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		respondBadRequest(c, "invalid offset")
		return 0, 0, false
	}
	limit, err = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defLimit)))
	if err != nil || limit < 1 {
		respondBadRequest(c, "invalid limit")
		return 0, 0, false
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return offset, limit, true
}
