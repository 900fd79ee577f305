package config

// Default paths for databases
const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./pubimport.db"

	// DefaultAuditDir holds the raw import payloads.
	DefaultAuditDir = "./audit"
)

const (
	DefaultZoteroAPIURL       = "https://api.zotero.org/"
	DefaultZoteroSyncSchedule = "0 */6 * * *"
	DefaultZoteroSyncLimit    = 50
	DefaultAPIURL             = "http://localhost:8190"
)
