package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/pubimport/internal/websession"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies; routes whose
// dependencies are nil are not registered.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Apply security headers to all responses
	router.Use(websession.SecurityHeadersMiddleware())
	if cfg.SecureCookies {
		router.Use(websession.StrictTransportSecurityMiddleware())
	}

	// Session runs before CSRF; the CSRF request replacement keeps the
	// session context because it derives from it.
	if cfg.Sessions != nil {
		router.Use(cfg.Sessions.SessionLoadSave())
	}

	var events SettingsEventLogger
	if cfg.AuditService != nil {
		events = cfg.AuditService
	}

	health := NewHealthController(cfg.Database, cfg.SyncRunner, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Persistence endpoints (token auth, no CSRF)
	if cfg.Publications != nil {
		publications := NewPublicationsController(cfg.Publications, cfg.APIToken)
		router.POST("/api/publications/import", publications.Import)
		router.GET("/api/publications", publications.List)
	}

	if cfg.Settings != nil {
		settings := NewZoteroSettingsController(cfg.Settings, cfg.SyncRunner, events, cfg.APIToken)
		router.GET("/api/settings/zotero", settings.GetCredentials)
		router.POST("/api/settings/zotero", settings.SaveCredentials)
		router.DELETE("/api/settings/zotero", settings.ClearCredentials)
		router.GET("/api/settings/zotero/sync", settings.GetSyncSettings)
		router.POST("/api/settings/zotero/sync", settings.UpdateSyncSettings)
		router.DELETE("/api/settings/zotero/sync", settings.ResetSyncSettings)
	}

	if cfg.AuditService != nil {
		auditController := NewAuditController(cfg.AuditService)
		router.GET("/api/audit", auditController.GetAuditEvents)
		router.GET("/api/audit/:id", auditController.GetAuditEvent)
	}

	// Browser routes: scs session state and CSRF protection. Callers that
	// present the API token skip CSRF.
	browser := router.Group("/api")
	if len(cfg.CSRFSecret) > 0 {
		browser.Use(websession.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies, func(c *gin.Context) bool {
			return websession.HasTokenAuth(c, cfg.APIToken)
		}))
	}

	if cfg.Sessions != nil && cfg.Publications != nil {
		reviewController := NewReviewController(cfg.Sessions, cfg.Drafts, cfg.Publications, cfg.MaxUploadBytes)
		imports := browser.Group("/import/:method")
		imports.GET("", reviewController.Get)
		imports.DELETE("", reviewController.Clear)
		imports.POST("/parse", reviewController.Parse)
		imports.POST("/toggle", reviewController.Toggle)
		imports.POST("/toggle-all", reviewController.ToggleAll)
		imports.POST("/submit", reviewController.Submit)
		if cfg.Drafts != nil {
			imports.POST("/draft", reviewController.SaveDraft)
			imports.GET("/draft", reviewController.LoadDraft)
			imports.DELETE("/draft", reviewController.DiscardDraft)
		}
	}

	if cfg.Sessions != nil && cfg.Zotero != nil && cfg.Settings != nil {
		zoteroController := NewZoteroController(cfg.Zotero, cfg.Settings, cfg.Sessions)
		browser.POST("/zotero/connect", zoteroController.Connect)
		browser.DELETE("/zotero/connect", zoteroController.Disconnect)
		browser.GET("/zotero/collections", zoteroController.Collections)
		browser.POST("/zotero/items", zoteroController.Items)
	}

	tasksController := NewTasksController(cfg.Tasks, cfg.SyncRunner)
	browser.GET("/tasks/types", tasksController.ListTaskTypes)
	browser.POST("/tasks/zotero-sync", tasksController.RunZoteroSync)
	browser.GET("/tasks/:id", tasksController.GetTaskStatus)

	return router
}
