package entities

import (
	"time"
)

type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"uniqueIndex;size:100" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Setting) TableName() string {
	return "settings"
}

// Known setting keys
const (
	// Zotero credentials
	SettingKeyZoteroUserID = "zotero_user_id"
	SettingKeyZoteroAPIKey = "zotero_api_key"

	// Zotero sync settings
	SettingKeyZoteroSyncEnabled      = "zotero_sync_enabled"
	SettingKeyZoteroSyncSchedule     = "zotero_sync_schedule"
	SettingKeyZoteroSyncCollection   = "zotero_sync_collection"
	SettingKeyZoteroSyncLimit        = "zotero_sync_limit"
	SettingKeyZoteroSyncLastAt       = "zotero_sync_last_at"
	SettingKeyZoteroSyncLastStatus   = "zotero_sync_last_status"
	SettingKeyZoteroSyncLastMessage  = "zotero_sync_last_message"
	SettingKeyZoteroSyncLastImported = "zotero_sync_last_imported"
)

// ZoteroCredentials is the wire body of /api/settings/zotero.
type ZoteroCredentials struct {
	UserID       string `json:"userID"`
	APIKey       string `json:"apiKey"`
	IsConfigured bool   `json:"isConfigured"`
}

// Complete reports whether both halves of the credentials are present.
func (c ZoteroCredentials) Complete() bool {
	return c.UserID != "" && c.APIKey != ""
}
