package websession

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/pubimport/internal/config"
	"github.com/mrlokans/pubimport/internal/entities"
	"github.com/mrlokans/pubimport/internal/importers"
	"github.com/mrlokans/pubimport/internal/review"
)

func setupSessionManager(t *testing.T) *SessionManager {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "sessions.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get SQL DB: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	sm, err := NewSessionManager(sqlDB, config.Session{Lifetime: 24 * time.Hour})
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}
	return sm
}

func TestNewSessionManager(t *testing.T) {
	sm := setupSessionManager(t)

	if sm.Cookie.Name != "pubimport_session" {
		t.Errorf("Expected cookie name 'pubimport_session', got '%s'", sm.Cookie.Name)
	}
	if !sm.Cookie.HttpOnly {
		t.Error("Cookie should be HttpOnly")
	}
	if sm.Cookie.Secure {
		t.Error("Cookie should not be Secure when SecureCookies is false")
	}
	if sm.Lifetime != 24*time.Hour || sm.IdleTimeout != 12*time.Hour {
		t.Errorf("unexpected lifetime %v / idle %v", sm.Lifetime, sm.IdleTimeout)
	}
}

func TestSessionManager_ReviewSession(t *testing.T) {
	sm := setupSessionManager(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()

	handler := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		sess, err := sm.ReviewSession(ctx, entities.ImportMethodBibTeX)
		if err != nil {
			t.Fatalf("ReviewSession: %v", err)
		}
		if sess.State != review.StateIdle {
			t.Errorf("Expected a new session to be idle, got %s", sess.State)
		}

		err = sess.Load(importers.ParseResult{Publications: []entities.Publication{
			{ID: "bibtex-1", Title: "First"},
			{ID: "bibtex-2", Title: "Second"},
		}})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if err := sess.Toggle("bibtex-2"); err != nil {
			t.Fatalf("Toggle: %v", err)
		}
		if err := sm.SaveReviewSession(ctx, sess); err != nil {
			t.Fatalf("SaveReviewSession: %v", err)
		}

		restored, err := sm.ReviewSession(ctx, entities.ImportMethodBibTeX)
		if err != nil {
			t.Fatalf("ReviewSession: %v", err)
		}
		if restored.State != review.StatePreviewReady {
			t.Errorf("Expected preview_ready, got %s", restored.State)
		}
		if restored.SelectedCount() != 1 || !restored.IsSelected("bibtex-1") {
			t.Errorf("selection was not restored: %d selected", restored.SelectedCount())
		}

		other, _ := sm.ReviewSession(ctx, entities.ImportMethodEndNote)
		if len(other.Records) != 0 {
			t.Error("sessions of different methods must not share records")
		}

		sm.ClearReviewSession(ctx, entities.ImportMethodBibTeX)
		cleared, _ := sm.ReviewSession(ctx, entities.ImportMethodBibTeX)
		if cleared.State != review.StateIdle {
			t.Errorf("Expected idle after clear, got %s", cleared.State)
		}

		w.WriteHeader(http.StatusOK)
	}))

	handler.ServeHTTP(rr, req)
}

func TestSessionManager_Owner(t *testing.T) {
	sm := setupSessionManager(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()

	handler := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner := sm.Owner(r.Context())
		if owner == "" {
			t.Fatal("owner should be generated")
		}
		if again := sm.Owner(r.Context()); again != owner {
			t.Errorf("owner should be stable, got %s then %s", owner, again)
		}
		if key := sm.DraftKey(r.Context(), entities.ImportMethodEndNote); key != owner+":endnote" {
			t.Errorf("unexpected draft key %s", key)
		}
		w.WriteHeader(http.StatusOK)
	}))

	handler.ServeHTTP(rr, req)
}

func TestSessionManager_ZoteroCredentials(t *testing.T) {
	sm := setupSessionManager(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()

	handler := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if _, ok := sm.ZoteroCredentials(ctx); ok {
			t.Error("no credentials expected before connect")
		}

		creds := entities.ZoteroCredentials{UserID: "12345", APIKey: "key", IsConfigured: true}
		if err := sm.PutZoteroCredentials(ctx, creds); err != nil {
			t.Fatalf("PutZoteroCredentials: %v", err)
		}
		got, ok := sm.ZoteroCredentials(ctx)
		if !ok || got != creds {
			t.Errorf("Expected %+v, got %+v (%v)", creds, got, ok)
		}

		sm.ClearZoteroCredentials(ctx)
		if _, ok := sm.ZoteroCredentials(ctx); ok {
			t.Error("credentials should be cleared")
		}
		w.WriteHeader(http.StatusOK)
	}))

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rr.Code)
	}
}
