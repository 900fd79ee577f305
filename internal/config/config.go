package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Database
		Audit
		Global
		Import
		Session
		Zotero
		ZoteroSync
		Tasks
		Client
	}

	HTTP struct {
		Port            int32
		Host            string
		MaxUploadSizeMB int
	}
	Database struct {
		Path string
	}
	Audit struct {
		Dir           string
		RetentionDays int // Days to keep audit events (default: 30)
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Import struct {
		APIToken       string // Required as "Authorization: Token ..." on the import endpoint when set
		SettingsSecret string // Seals stored Zotero API keys when set
		DraftTTL       time.Duration
	}
	Session struct {
		Secret        string
		Lifetime      time.Duration
		SecureCookies bool // Set to false for local dev without HTTPS
	}
	Zotero struct {
		APIURL            string
		UserID            string
		APIKey            string
		RequestsPerSecond float64
	}
	ZoteroSync struct {
		Enabled    bool
		Schedule   string // Cron format: "0 */6 * * *" = every 6 hours
		Collection string // Empty syncs the whole library
		Limit      int
	}
	Tasks struct {
		Enabled           bool
		Workers           int
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
	Client struct {
		BaseURL string // Server URL used by the CLI
		Token   string
	}
)

// Upload size limit in bytes.
func (h HTTP) MaxUploadBytes() int64 {
	return int64(h.MaxUploadSizeMB) << 20
}

// NewConfig loads an optional .env file and reads the environment.
func NewConfig() *Config {
	_ = godotenv.Load()
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8190)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("max_upload_size_mb", 10)
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("audit_dir", DefaultAuditDir)
	v.SetDefault("audit_retention_days", 30)

	v.SetDefault("import_api_token", "")
	v.SetDefault("settings_secret", "")
	v.SetDefault("draft_ttl_hours", 24)

	v.SetDefault("session_secret", "")
	v.SetDefault("session_lifetime_hours", 24)
	v.SetDefault("secure_cookies", true)

	v.SetDefault("zotero_api_url", DefaultZoteroAPIURL)
	v.SetDefault("zotero_requests_per_second", 1.0)
	v.SetDefault("zotero_sync_enabled", false)
	v.SetDefault("zotero_sync_schedule", DefaultZoteroSyncSchedule)
	v.SetDefault("zotero_sync_collection", "")
	v.SetDefault("zotero_sync_limit", DefaultZoteroSyncLimit)

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("tasks_workers", 2)
	v.SetDefault("task_timeout", "5m")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	v.SetDefault("api_url", DefaultAPIURL)
	v.SetDefault("api_token", "")
	return v
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		HTTP: HTTP{
			Port:            v.GetInt32("PORT"),
			Host:            v.GetString("HOST"),
			MaxUploadSizeMB: v.GetInt("MAX_UPLOAD_SIZE_MB"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Audit: Audit{
			Dir:           v.GetString("AUDIT_DIR"),
			RetentionDays: v.GetInt("AUDIT_RETENTION_DAYS"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Import: Import{
			APIToken:       v.GetString("IMPORT_API_TOKEN"),
			SettingsSecret: v.GetString("SETTINGS_SECRET"),
			DraftTTL:       time.Duration(v.GetInt("DRAFT_TTL_HOURS")) * time.Hour,
		},
		Session: Session{
			Secret:        v.GetString("SESSION_SECRET"),
			Lifetime:      time.Duration(v.GetInt("SESSION_LIFETIME_HOURS")) * time.Hour,
			SecureCookies: v.GetBool("SECURE_COOKIES"),
		},
		Zotero: Zotero{
			APIURL:            v.GetString("ZOTERO_API_URL"),
			UserID:            v.GetString("ZOTERO_USER_ID"),
			APIKey:            v.GetString("ZOTERO_API_KEY"),
			RequestsPerSecond: v.GetFloat64("ZOTERO_REQUESTS_PER_SECOND"),
		},
		ZoteroSync: ZoteroSync{
			Enabled:    v.GetBool("ZOTERO_SYNC_ENABLED"),
			Schedule:   v.GetString("ZOTERO_SYNC_SCHEDULE"),
			Collection: v.GetString("ZOTERO_SYNC_COLLECTION"),
			Limit:      v.GetInt("ZOTERO_SYNC_LIMIT"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASKS_WORKERS"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
		Client: Client{
			BaseURL: v.GetString("API_URL"),
			Token:   v.GetString("API_TOKEN"),
		},
	}
}
