package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/pubimport/internal/entities"
	"github.com/mrlokans/pubimport/internal/settingsstore"
	"github.com/mrlokans/pubimport/internal/websession"
)

// SettingsEventLogger records settings changes.
type SettingsEventLogger interface {
	LogSettings(action, description string)
}

// ZoteroSettingsController handles stored Zotero credentials and the
// scheduled sync options.
type ZoteroSettingsController struct {
	store  *settingsstore.SettingsStore
	runner SyncRunner
	events SettingsEventLogger
	token  string
}

func NewZoteroSettingsController(store *settingsstore.SettingsStore, runner SyncRunner, events SettingsEventLogger, token string) *ZoteroSettingsController {
	return &ZoteroSettingsController{
		store:  store,
		runner: runner,
		events: events,
		token:  token,
	}
}

// GetCredentials handles GET /api/settings/zotero
// The API key is returned in full only to token-authenticated callers, or
// to everyone when no API token is configured.
func (sc *ZoteroSettingsController) GetCredentials(c *gin.Context) {
	if c.GetHeader("Authorization") != "" && !requireToken(c, sc.token) {
		return
	}

	ctx := c.Request.Context()
	info, err := sc.store.GetZoteroCredentialsInfo(ctx)
	if err != nil {
		respondDomainError(c, err, "load zotero credentials", nil)
		return
	}

	if sc.token == "" || websession.HasTokenAuth(c, sc.token) {
		creds, err := sc.store.LoadZoteroCredentials(ctx)
		if err != nil {
			respondDomainError(c, err, "load zotero credentials", nil)
			return
		}
		info.APIKey = creds.APIKey
	}
	c.JSON(http.StatusOK, info)
}

// SaveCredentials handles POST /api/settings/zotero
func (sc *ZoteroSettingsController) SaveCredentials(c *gin.Context) {
	if !requireToken(c, sc.token) {
		return
	}

	var req entities.ZoteroCredentials
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	if err := sc.store.SaveZoteroCredentials(ctx, req); err != nil {
		respondDomainError(c, err, "save zotero credentials", nil)
		return
	}
	sc.logSettings("zotero_credentials_saved", fmt.Sprintf("Saved Zotero credentials for user %s", req.UserID))

	info, err := sc.store.GetZoteroCredentialsInfo(ctx)
	if err != nil {
		respondDomainError(c, err, "load zotero credentials", nil)
		return
	}
	c.JSON(http.StatusOK, info)
}

// ClearCredentials handles DELETE /api/settings/zotero
func (sc *ZoteroSettingsController) ClearCredentials(c *gin.Context) {
	if !requireToken(c, sc.token) {
		return
	}

	if err := sc.store.ClearZoteroCredentials(c.Request.Context()); err != nil {
		respondDomainError(c, err, "clear zotero credentials", nil)
		return
	}
	sc.logSettings("zotero_credentials_cleared", "Cleared stored Zotero credentials")
	respondSuccess(c, "Zotero credentials cleared")
}

// SchedulePreset is a suggested cron schedule.
type SchedulePreset struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

var schedulePresets = []SchedulePreset{
	{Label: "Every hour", Value: "0 * * * *"},
	{Label: "Every 6 hours", Value: "0 */6 * * *"},
	{Label: "Daily at midnight", Value: "0 0 * * *"},
	{Label: "Weekly on Sunday", Value: "0 0 * * 0"},
}

// ZoteroSyncSettingsResponse is the response for GET /api/settings/zotero/sync
type ZoteroSyncSettingsResponse struct {
	Config    settingsstore.ZoteroSyncConfigInfo `json:"config"`
	Status    settingsstore.ZoteroSyncStatus     `json:"status"`
	NextRun   *time.Time                         `json:"next_run,omitempty"`
	IsRunning bool                               `json:"is_running"`
	Presets   []SchedulePreset                   `json:"presets"`
}

// GetSyncSettings handles GET /api/settings/zotero/sync
func (sc *ZoteroSettingsController) GetSyncSettings(c *gin.Context) {
	c.JSON(http.StatusOK, sc.syncSettings())
}

// UpdateSyncSettingsRequest is the body of POST /api/settings/zotero/sync.
// Omitted fields keep their current value.
type UpdateSyncSettingsRequest struct {
	Enabled    *bool   `json:"enabled"`
	Schedule   *string `json:"schedule"`
	Collection *string `json:"collection"`
	Limit      *int    `json:"limit"`
}

// UpdateSyncSettings handles POST /api/settings/zotero/sync
func (sc *ZoteroSettingsController) UpdateSyncSettings(c *gin.Context) {
	if !requireToken(c, sc.token) {
		return
	}

	var req UpdateSyncSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	cfg := sc.store.GetZoteroSyncConfig()
	if req.Enabled != nil {
		cfg.Enabled = *req.Enabled
	}
	if req.Schedule != nil {
		if err := settingsstore.ValidateCronSchedule(*req.Schedule); err != nil {
			respondErrorCode(c, http.StatusBadRequest, "Invalid cron schedule: "+err.Error(), CodeValidation, nil)
			return
		}
		cfg.Schedule = *req.Schedule
	}
	if req.Collection != nil {
		cfg.Collection = *req.Collection
	}
	if req.Limit != nil {
		cfg.Limit = *req.Limit
	}

	if err := sc.store.SetZoteroSyncConfig(cfg); err != nil {
		respondDomainError(c, err, "save zotero sync settings", nil)
		return
	}
	sc.logSettings("zotero_sync_updated", fmt.Sprintf("Zotero sync enabled=%t schedule=%q", cfg.Enabled, cfg.Schedule))

	if sc.runner != nil {
		if err := sc.runner.Reschedule(c.Request.Context()); err != nil {
			respondErrorCode(c, http.StatusInternalServerError, "Settings saved but failed to reschedule: "+err.Error(), "", nil)
			return
		}
	}
	c.JSON(http.StatusOK, sc.syncSettings())
}

// ResetSyncSettings handles DELETE /api/settings/zotero/sync
// Database overrides are removed so environment values and defaults apply.
func (sc *ZoteroSettingsController) ResetSyncSettings(c *gin.Context) {
	if !requireToken(c, sc.token) {
		return
	}

	if err := sc.store.ClearZoteroSyncSettings(); err != nil {
		respondDomainError(c, err, "reset zotero sync settings", nil)
		return
	}
	sc.logSettings("zotero_sync_reset", "Reset Zotero sync settings to defaults")

	if sc.runner != nil {
		_ = sc.runner.Reschedule(c.Request.Context())
	}
	c.JSON(http.StatusOK, sc.syncSettings())
}

func (sc *ZoteroSettingsController) syncSettings() ZoteroSyncSettingsResponse {
	resp := ZoteroSyncSettingsResponse{
		Config:  sc.store.GetZoteroSyncConfigInfo(),
		Status:  sc.store.GetZoteroSyncStatus(),
		Presets: schedulePresets,
	}
	if sc.runner != nil {
		resp.NextRun = sc.runner.GetNextRunTime()
		resp.IsRunning = sc.runner.IsRunning()
	}
	return resp
}

func (sc *ZoteroSettingsController) logSettings(action, description string) {
	if sc.events != nil {
		sc.events.LogSettings(action, description)
	}
}
