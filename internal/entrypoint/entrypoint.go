package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/pubimport/internal/audit"
	"github.com/mrlokans/pubimport/internal/config"
	"github.com/mrlokans/pubimport/internal/crypto"
	"github.com/mrlokans/pubimport/internal/database"
	dbaudit "github.com/mrlokans/pubimport/internal/database/audit"
	"github.com/mrlokans/pubimport/internal/database/drafts"
	"github.com/mrlokans/pubimport/internal/database/publications"
	"github.com/mrlokans/pubimport/internal/database/settings"
	http_controllers "github.com/mrlokans/pubimport/internal/http"
	"github.com/mrlokans/pubimport/internal/review"
	"github.com/mrlokans/pubimport/internal/scheduler"
	"github.com/mrlokans/pubimport/internal/services"
	"github.com/mrlokans/pubimport/internal/settingsstore"
	"github.com/mrlokans/pubimport/internal/tasks"
	"github.com/mrlokans/pubimport/internal/websession"
	"github.com/mrlokans/pubimport/internal/zotero"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// SIGKILL cannot be caught, so only INT and TERM trigger a graceful stop.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop schedulers and the task queue before the listener.
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting pubimport v%s", version)

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	// Raw import payloads go to disk, events to the audit table.
	auditor := audit.NewAuditor(cfg.Audit.Dir)
	auditService := audit.NewService(dbaudit.NewRepository(db.DB))
	defer auditService.Wait()

	store := settingsstore.New(settings.NewRepository(db.DB), cfg)
	if cfg.Import.SettingsSecret != "" {
		enc, err := crypto.NewEncryptorFromSecret(cfg.Import.SettingsSecret)
		if err != nil {
			log.Fatalf("Failed to initialize settings encryption: %v", err)
		}
		store.WithEncryptor(enc)
		log.Printf("Stored Zotero API keys are encrypted")
	} else {
		log.Printf("WARNING: SETTINGS_SECRET is not set. Stored Zotero API keys are kept in plain text.")
	}

	zoteroClient := zotero.NewClient(
		zotero.WithBaseURL(cfg.Zotero.APIURL),
		zotero.WithRateLimit(cfg.Zotero.RequestsPerSecond),
	)

	importService := services.NewImportService(publications.NewRepository(db.DB), auditor, auditService)
	draftRepo := drafts.NewRepository(db.DB)
	draftStore := review.NewDrafts(draftRepo, cfg.Import.DraftTTL)

	if cfg.Import.APIToken == "" {
		log.Printf("WARNING: IMPORT_API_TOKEN is not set. The import and settings endpoints accept any caller.")
	}

	// Task queue and schedulers are optional; the HTTP routes that need
	// them answer 503 when they are missing.
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	var syncScheduler *scheduler.ZoteroSyncScheduler
	var periodic []*scheduler.Periodic
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.ConfigFrom(cfg.Tasks))
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		syncer := tasks.NewZoteroSyncer(zoteroClient, store, importService, auditService)
		taskClient.Register(
			tasks.NewZoteroSyncQueue(syncer),
			tasks.NewDraftCleanupQueue(draftRepo),
			tasks.NewCleanupAuditEventsQueue(auditService, auditor),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		syncScheduler = scheduler.NewZoteroSyncScheduler(store, taskClient)
		if err := syncScheduler.Start(taskCtx); err != nil {
			log.Printf("WARNING: Zotero sync scheduler not started: %v", err)
		}

		periodic = append(periodic,
			scheduler.NewDraftCleanup(taskClient, cfg.Import.DraftTTL),
			scheduler.NewAuditCleanup(taskClient, cfg.Audit.RetentionDays),
		)
		for _, p := range periodic {
			if err := p.Start(); err != nil {
				log.Printf("WARNING: %v", err)
			}
		}
	} else {
		log.Printf("Task queue disabled: scheduled Zotero sync and cleanup will not run")
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatalf("Failed to get SQL DB for sessions: %v", err)
	}
	sessionManager, err := websession.NewSessionManager(sqlDB, cfg.Session)
	if err != nil {
		log.Fatalf("Failed to initialize session manager: %v", err)
	}

	csrfSecret, generated, err := websession.CSRFSecret(cfg.Session.Secret)
	if err != nil {
		log.Fatalf("Failed to generate CSRF secret: %v", err)
	}
	if generated {
		log.Printf("Generated session secret (set SESSION_SECRET to persist)")
	}

	routerCfg := http_controllers.RouterConfig{
		Database:       db,
		Publications:   importService,
		AuditService:   auditService,
		Settings:       store,
		Zotero:         zoteroClient,
		Sessions:       sessionManager,
		Drafts:         draftStore,
		APIToken:       cfg.Import.APIToken,
		CSRFSecret:     csrfSecret,
		SecureCookies:  cfg.Session.SecureCookies,
		MaxUploadBytes: cfg.HTTP.MaxUploadBytes(),
		Version:        version,
	}
	// Assigned only when present so the interfaces stay nil otherwise.
	if taskClient != nil {
		routerCfg.Tasks = taskClient
	}
	if syncScheduler != nil {
		routerCfg.SyncRunner = syncScheduler
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		for _, p := range periodic {
			p.Stop()
		}
		if syncScheduler != nil {
			syncScheduler.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}
