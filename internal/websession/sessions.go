package websession

import (
	"context"
	"database/sql"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"

	"github.com/mrlokans/pubimport/internal/config"
	"github.com/mrlokans/pubimport/internal/entities"
	"github.com/mrlokans/pubimport/internal/review"
)

// Session data keys
const (
	SessionKeyOwner  = "owner"
	SessionKeyZotero = "zotero_credentials"

	reviewKeyPrefix = "review:"
)

func init() {
	gob.Register(entities.ZoteroCredentials{})
}

// SessionManager wraps scs.SessionManager with review-specific accessors.
type SessionManager struct {
	*scs.SessionManager
}

// NewSessionManager creates a configured session manager.
// The sqlDB parameter should be the underlying *sql.DB from GORM.
func NewSessionManager(sqlDB *sql.DB, cfg config.Session) (*SessionManager, error) {
	_, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		expiry REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`)
	if err != nil {
		return nil, fmt.Errorf("failed to create sessions table: %w", err)
	}

	sm := scs.New()
	sm.Store = sqlite3store.New(sqlDB)

	if cfg.Lifetime > 0 {
		sm.Lifetime = cfg.Lifetime
		sm.IdleTimeout = cfg.Lifetime / 2
	}

	sm.Cookie.Name = "pubimport_session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = cfg.SecureCookies
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"

	return &SessionManager{SessionManager: sm}, nil
}

// Owner returns a stable random ID for the browser session, creating it on
// first use. Drafts are keyed by it.
func (sm *SessionManager) Owner(ctx context.Context) string {
	owner := sm.GetString(ctx, SessionKeyOwner)
	if owner == "" {
		owner = uuid.NewString()
		sm.Put(ctx, SessionKeyOwner, owner)
	}
	return owner
}

// DraftKey identifies the saved draft of method for this browser.
func (sm *SessionManager) DraftKey(ctx context.Context, method entities.ImportMethod) string {
	return sm.Owner(ctx) + ":" + string(method)
}

// ReviewSession returns the review session for method, or a new idle one.
func (sm *SessionManager) ReviewSession(ctx context.Context, method entities.ImportMethod) (*review.Session, error) {
	data := sm.GetBytes(ctx, reviewKeyPrefix+string(method))
	if len(data) == 0 {
		return review.NewSession(method), nil
	}

	sess := review.NewSession(method)
	if err := json.Unmarshal(data, sess); err != nil {
		return nil, fmt.Errorf("failed to restore %s review session: %w", method, err)
	}
	sess.Method = method
	return sess, nil
}

// SaveReviewSession stores sess under its method.
func (sm *SessionManager) SaveReviewSession(ctx context.Context, sess *review.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to store %s review session: %w", sess.Method, err)
	}
	sm.Put(ctx, reviewKeyPrefix+string(sess.Method), data)
	return nil
}

// ClearReviewSession drops the review session for method.
func (sm *SessionManager) ClearReviewSession(ctx context.Context, method entities.ImportMethod) {
	sm.Remove(ctx, reviewKeyPrefix+string(method))
}

// ZoteroCredentials returns the credentials of a connected Zotero session.
func (sm *SessionManager) ZoteroCredentials(ctx context.Context) (entities.ZoteroCredentials, bool) {
	creds, ok := sm.Get(ctx, SessionKeyZotero).(entities.ZoteroCredentials)
	return creds, ok && creds.Complete()
}

func (sm *SessionManager) PutZoteroCredentials(ctx context.Context, creds entities.ZoteroCredentials) error {
	if err := sm.RenewToken(ctx); err != nil {
		return err
	}
	sm.Put(ctx, SessionKeyZotero, creds)
	return nil
}

func (sm *SessionManager) ClearZoteroCredentials(ctx context.Context) {
	sm.Remove(ctx, SessionKeyZotero)
}
