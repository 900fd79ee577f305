package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := FromViper(newViper())

	assert.Equal(t, int32(8190), cfg.HTTP.Port)
	assert.Equal(t, "0.0.0.0", cfg.HTTP.Host)
	assert.Equal(t, int64(10<<20), cfg.HTTP.MaxUploadBytes())
	assert.Equal(t, DefaultDatabasePath, cfg.Database.Path)
	assert.Equal(t, 24*time.Hour, cfg.Import.DraftTTL)
	assert.Equal(t, 24*time.Hour, cfg.Session.Lifetime)
	assert.True(t, cfg.Session.SecureCookies)
	assert.Equal(t, DefaultZoteroAPIURL, cfg.Zotero.APIURL)
	assert.Equal(t, 1.0, cfg.Zotero.RequestsPerSecond)
	assert.False(t, cfg.ZoteroSync.Enabled)
	assert.Equal(t, DefaultZoteroSyncSchedule, cfg.ZoteroSync.Schedule)
	assert.Equal(t, DefaultZoteroSyncLimit, cfg.ZoteroSync.Limit)
	assert.Equal(t, 2, cfg.Tasks.Workers)
	assert.Equal(t, 5*time.Minute, cfg.Tasks.TaskTimeout)
	assert.Equal(t, DefaultAPIURL, cfg.Client.BaseURL)
}

func TestNewConfig_Environment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DRAFT_TTL_HOURS", "2")
	t.Setenv("ZOTERO_USER_ID", "12345")
	t.Setenv("ZOTERO_SYNC_ENABLED", "true")
	t.Setenv("ZOTERO_SYNC_LIMIT", "25")
	t.Setenv("IMPORT_API_TOKEN", "s3cret")
	t.Setenv("SECURE_COOKIES", "false")
	t.Setenv("TASK_TIMEOUT", "30s")

	cfg := FromViper(newViper())

	assert.Equal(t, int32(9000), cfg.HTTP.Port)
	assert.Equal(t, 2*time.Hour, cfg.Import.DraftTTL)
	assert.Equal(t, "12345", cfg.Zotero.UserID)
	assert.True(t, cfg.ZoteroSync.Enabled)
	assert.Equal(t, 25, cfg.ZoteroSync.Limit)
	assert.Equal(t, "s3cret", cfg.Import.APIToken)
	assert.False(t, cfg.Session.SecureCookies)
	assert.Equal(t, 30*time.Second, cfg.Tasks.TaskTimeout)
}
