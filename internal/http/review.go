package http

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/pubimport/internal/entities"
	"github.com/mrlokans/pubimport/internal/importers"
	"github.com/mrlokans/pubimport/internal/review"
	"github.com/mrlokans/pubimport/internal/websession"
)

const defaultMaxUploadBytes = 10 << 20

// ReviewController drives the parse, select and submit flow for one import
// method. Session state lives in the visitor's scs session.
type ReviewController struct {
	sessions  *websession.SessionManager
	drafts    *review.Drafts
	submitter review.Submitter
	maxUpload int64
}

func NewReviewController(sessions *websession.SessionManager, drafts *review.Drafts, submitter review.Submitter, maxUpload int64) *ReviewController {
	if maxUpload <= 0 {
		maxUpload = defaultMaxUploadBytes
	}
	return &ReviewController{
		sessions:  sessions,
		drafts:    drafts,
		submitter: submitter,
		maxUpload: maxUpload,
	}
}

// ParseRequest is the JSON body of POST /api/import/:method/parse.
type ParseRequest struct {
	Content string `json:"content"`
}

// ToggleRequest is the body of POST /api/import/:method/toggle.
type ToggleRequest struct {
	ID string `json:"id" binding:"required"`
}

// SubmitResponse reports a successful submit and the cleared session.
type SubmitResponse struct {
	Result  *entities.ImportResponse `json:"result"`
	Session review.Snapshot          `json:"session"`
}

// Parse handles POST /api/import/:method/parse
// Accepts JSON {"content": "..."} or a multipart upload in the "file" field.
func (rc *ReviewController) Parse(c *gin.Context) {
	method, ok := reviewMethod(c)
	if !ok {
		return
	}
	parser, err := importers.ParserFor(method)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	content, filename, ok := rc.readContent(c, method)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	sess := review.NewSession(method)
	parseErr := sess.ParseFile(parser, filename, content)
	if err := rc.sessions.SaveReviewSession(ctx, sess); err != nil {
		respondInternalError(c, err, "save review session")
		return
	}

	if parseErr != nil {
		if errors.Is(parseErr, review.ErrNoRecords) {
			respondDomainError(c, parseErr, "parse", sess.Snapshot())
			return
		}
		respondErrorCode(c, http.StatusUnprocessableEntity, sess.Message, CodeParseFailed, sess.Snapshot())
		return
	}
	c.JSON(http.StatusOK, sess.Snapshot())
}

func (rc *ReviewController) readContent(c *gin.Context, method entities.ImportMethod) (content, filename string, ok bool) {
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, rc.maxUpload)
		header, err := c.FormFile("file")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				respondErrorCode(c, http.StatusRequestEntityTooLarge, "file too large", "", nil)
				return "", "", false
			}
			respondBadRequest(c, "file is required")
			return "", "", false
		}
		if err := importers.ValidateUpload(header.Filename, header.Header.Get("Content-Type"), method); err != nil {
			respondDomainError(c, err, "validate upload", nil)
			return "", "", false
		}

		f, err := header.Open()
		if err != nil {
			respondInternalError(c, err, "open upload")
			return "", "", false
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			respondInternalError(c, err, "read upload")
			return "", "", false
		}
		text, err := importers.DecodeText(data)
		if err != nil {
			respondBadRequest(c, err.Error())
			return "", "", false
		}
		return text, header.Filename, true
	}

	var req ParseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return "", "", false
	}
	if strings.TrimSpace(req.Content) == "" {
		respondBadRequest(c, "content is required")
		return "", "", false
	}
	return req.Content, "", true
}

// Get handles GET /api/import/:method
func (rc *ReviewController) Get(c *gin.Context) {
	sess, ok := rc.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess.Snapshot())
}

// Toggle handles POST /api/import/:method/toggle
func (rc *ReviewController) Toggle(c *gin.Context) {
	var req ToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "id is required")
		return
	}

	sess, ok := rc.load(c)
	if !ok {
		return
	}
	if err := sess.Toggle(req.ID); err != nil {
		respondDomainError(c, err, "toggle", nil)
		return
	}
	rc.saveAndRespond(c, sess)
}

// ToggleAll handles POST /api/import/:method/toggle-all
func (rc *ReviewController) ToggleAll(c *gin.Context) {
	sess, ok := rc.load(c)
	if !ok {
		return
	}
	sess.ToggleAll()
	rc.saveAndRespond(c, sess)
}

// Submit handles POST /api/import/:method/submit
func (rc *ReviewController) Submit(c *gin.Context) {
	sess, ok := rc.load(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	resp, submitErr := sess.Submit(ctx, rc.submitter)
	if err := rc.sessions.SaveReviewSession(ctx, sess); err != nil {
		respondInternalError(c, err, "save review session")
		return
	}
	if submitErr != nil {
		respondDomainError(c, submitErr, "submit", sess.Snapshot())
		return
	}

	if rc.drafts != nil {
		if err := rc.drafts.Discard(ctx, rc.sessions.DraftKey(ctx, sess.Method)); err != nil {
			log.Printf("Failed to discard %s draft after submit: %v", sess.Method, err)
		}
	}
	c.JSON(http.StatusOK, SubmitResponse{Result: resp, Session: sess.Snapshot()})
}

// Clear handles DELETE /api/import/:method
func (rc *ReviewController) Clear(c *gin.Context) {
	method, ok := reviewMethod(c)
	if !ok {
		return
	}
	rc.sessions.ClearReviewSession(c.Request.Context(), method)
	c.JSON(http.StatusOK, review.NewSession(method).Snapshot())
}

// SaveDraft handles POST /api/import/:method/draft
func (rc *ReviewController) SaveDraft(c *gin.Context) {
	sess, ok := rc.load(c)
	if !ok {
		return
	}
	if sess.State != review.StatePreviewReady {
		respondDomainError(c, review.ErrNotReady, "save draft", nil)
		return
	}

	ctx := c.Request.Context()
	if err := rc.drafts.Save(ctx, rc.sessions.DraftKey(ctx, sess.Method), sess); err != nil {
		respondInternalError(c, err, "save draft")
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Draft saved",
		Data:    gin.H{"expires_in_hours": int(rc.drafts.TTL().Hours())},
	})
}

// LoadDraft handles GET /api/import/:method/draft
// An expired draft is deleted and answered with 410.
func (rc *ReviewController) LoadDraft(c *gin.Context) {
	method, ok := reviewMethod(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	sess, err := rc.drafts.Load(ctx, rc.sessions.DraftKey(ctx, method))
	if err != nil {
		respondDomainError(c, err, "load draft", nil)
		return
	}
	sess.Method = method
	rc.saveAndRespond(c, sess)
}

// DiscardDraft handles DELETE /api/import/:method/draft
func (rc *ReviewController) DiscardDraft(c *gin.Context) {
	method, ok := reviewMethod(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := rc.drafts.Discard(ctx, rc.sessions.DraftKey(ctx, method)); err != nil {
		respondInternalError(c, err, "discard draft")
		return
	}
	respondSuccess(c, "Draft discarded")
}

func (rc *ReviewController) load(c *gin.Context) (*review.Session, bool) {
	method, ok := reviewMethod(c)
	if !ok {
		return nil, false
	}
	sess, err := rc.sessions.ReviewSession(c.Request.Context(), method)
	if err != nil {
		respondInternalError(c, err, "load review session")
		return nil, false
	}
	return sess, true
}

func (rc *ReviewController) saveAndRespond(c *gin.Context, sess *review.Session) {
	if err := rc.sessions.SaveReviewSession(c.Request.Context(), sess); err != nil {
		respondInternalError(c, err, "save review session")
		return
	}
	c.JSON(http.StatusOK, sess.Snapshot())
}

func reviewMethod(c *gin.Context) (entities.ImportMethod, bool) {
	method, err := entities.ParseImportMethod(c.Param("method"))
	if err != nil {
		respondBadRequest(c, err.Error())
		return "", false
	}
	return method, true
}
