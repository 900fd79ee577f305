package http

import (
	"github.com/mrlokans/pubimport/internal/audit"
	"github.com/mrlokans/pubimport/internal/review"
	"github.com/mrlokans/pubimport/internal/settingsstore"
	"github.com/mrlokans/pubimport/internal/websession"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router. Optional dependencies left nil disable the
// routes that need them.
type RouterConfig struct {
	// Core dependencies
	Database     Pinger
	Publications PublicationService
	AuditService *audit.Service

	// Settings and Zotero
	Settings *settingsstore.SettingsStore
	Zotero   review.ZoteroAPI

	// Browser review state
	Sessions *websession.SessionManager
	Drafts   *review.Drafts

	// Task queue (optional)
	Tasks      TaskStatusReader
	SyncRunner SyncRunner

	// APIToken guards the persistence and settings endpoints when set.
	APIToken string

	CSRFSecret    []byte
	SecureCookies bool

	// MaxUploadBytes caps multipart uploads on the parse route.
	MaxUploadBytes int64

	// Application info
	Version string
}
