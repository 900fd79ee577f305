package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/pubimport/internal/entities"
	"github.com/mrlokans/pubimport/internal/review"
	"github.com/mrlokans/pubimport/internal/websession"
	"github.com/mrlokans/pubimport/internal/zotero"
)

// ZoteroController connects a browser session to Zotero and loads
// collection items into the zotero review session.
type ZoteroController struct {
	api      review.ZoteroAPI
	store    review.CredentialStore
	sessions *websession.SessionManager
}

func NewZoteroController(api review.ZoteroAPI, store review.CredentialStore, sessions *websession.SessionManager) *ZoteroController {
	return &ZoteroController{api: api, store: store, sessions: sessions}
}

// ConnectRequest is the body of POST /api/zotero/connect.
type ConnectRequest struct {
	UserID   string `json:"userID"`
	APIKey   string `json:"apiKey"`
	Remember bool   `json:"remember"`
}

// ItemsRequest is the body of POST /api/zotero/items.
type ItemsRequest struct {
	CollectionKey string `json:"collectionKey"`
	Limit         int    `json:"limit"`
}

// ConnectionResponse describes the Zotero connection of the session.
type ConnectionResponse struct {
	State       review.ConnState    `json:"state"`
	UserID      string              `json:"userID,omitempty"`
	Collections []zotero.Collection `json:"collections"`
	Warning     string              `json:"warning,omitempty"`
}

// Connect handles POST /api/zotero/connect
func (zc *ZoteroController) Connect(c *gin.Context) {
	var req ConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	conn := review.NewZoteroConnection(zc.api, zc.store)
	creds := entities.ZoteroCredentials{UserID: req.UserID, APIKey: req.APIKey}
	if _, err := conn.Connect(ctx, creds, req.Remember); err != nil {
		respondDomainError(c, err, "zotero connect", ConnectionResponse{State: conn.State, Collections: conn.Collections})
		return
	}

	if !zc.keep(c, conn) {
		return
	}
	c.JSON(http.StatusOK, connectionResponse(conn))
}

// Collections handles GET /api/zotero/collections
// Without credentials in the browser session the stored credentials are
// tried silently; 401 NOT_CONFIGURED means the user has to enter them.
func (zc *ZoteroController) Collections(c *gin.Context) {
	ctx := c.Request.Context()
	conn := review.NewZoteroConnection(zc.api, zc.store)

	var err error
	if creds, ok := zc.sessions.ZoteroCredentials(ctx); ok {
		_, err = conn.Connect(ctx, creds, false)
	} else {
		err = conn.Resume(ctx)
	}
	if err != nil {
		zc.sessions.ClearZoteroCredentials(ctx)
		respondDomainError(c, err, "zotero collections", connectionResponse(conn))
		return
	}

	if !zc.keep(c, conn) {
		return
	}
	c.JSON(http.StatusOK, connectionResponse(conn))
}

// Items handles POST /api/zotero/items
// The fetched items replace the zotero review session.
func (zc *ZoteroController) Items(c *gin.Context) {
	var req ItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	conn := review.NewZoteroConnection(zc.api, zc.store)
	if creds, ok := zc.sessions.ZoteroCredentials(ctx); ok {
		conn.Restore(creds)
	} else if err := conn.Resume(ctx); err != nil {
		respondDomainError(c, err, "zotero items", connectionResponse(conn))
		return
	} else if !zc.keep(c, conn) {
		return
	}

	result, err := conn.FetchPublications(ctx, req.CollectionKey, zotero.ClampLimit(req.Limit))
	if err != nil {
		if errors.Is(err, zotero.ErrInvalidAPIKey) {
			zc.sessions.ClearZoteroCredentials(ctx)
		}
		respondDomainError(c, err, "zotero items", nil)
		return
	}

	sess := review.NewSession(entities.ImportMethodZotero)
	loadErr := sess.Load(result)
	if err := zc.sessions.SaveReviewSession(ctx, sess); err != nil {
		respondInternalError(c, err, "save review session")
		return
	}
	if loadErr != nil {
		respondDomainError(c, loadErr, "zotero items", sess.Snapshot())
		return
	}
	c.JSON(http.StatusOK, sess.Snapshot())
}

// Disconnect handles DELETE /api/zotero/connect
// Both the session and the stored credentials are forgotten.
func (zc *ZoteroController) Disconnect(c *gin.Context) {
	ctx := c.Request.Context()
	zc.sessions.ClearZoteroCredentials(ctx)

	conn := review.NewZoteroConnection(zc.api, zc.store)
	if err := conn.Disconnect(ctx); err != nil {
		respondDomainError(c, err, "zotero disconnect", nil)
		return
	}
	c.JSON(http.StatusOK, connectionResponse(conn))
}

// keep stores the credentials of a connected conn in the browser session.
func (zc *ZoteroController) keep(c *gin.Context, conn *review.ZoteroConnection) bool {
	creds, ok := conn.Credentials()
	if !ok {
		return true
	}
	if err := zc.sessions.PutZoteroCredentials(c.Request.Context(), creds); err != nil {
		respondInternalError(c, err, "store zotero session")
		return false
	}
	return true
}

func connectionResponse(conn *review.ZoteroConnection) ConnectionResponse {
	resp := ConnectionResponse{
		State:       conn.State,
		Collections: conn.Collections,
		Warning:     conn.Warning,
	}
	if creds, ok := conn.Credentials(); ok {
		resp.UserID = creds.UserID
	}
	return resp
}
