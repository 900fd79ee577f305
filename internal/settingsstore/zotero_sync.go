package settingsstore

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/pubimport/internal/config"
	"github.com/mrlokans/pubimport/internal/entities"
	"github.com/mrlokans/pubimport/internal/zotero"
)

// ZoteroSyncConfig is the effective configuration of the scheduled Zotero import.
type ZoteroSyncConfig struct {
	Enabled    bool   `json:"enabled"`
	Schedule   string `json:"schedule"`
	Collection string `json:"collection"`
	Limit      int    `json:"limit"`
}

// ZoteroSyncConfigInfo includes source information for each field
type ZoteroSyncConfigInfo struct {
	ZoteroSyncConfig
	EnabledSource    string     `json:"enabled_source"`
	ScheduleSource   string     `json:"schedule_source"`
	CollectionSource string     `json:"collection_source"`
	LimitSource      string     `json:"limit_source"`
	Description      string     `json:"description"`
	NextRunAt        *time.Time `json:"next_run_at,omitempty"`
}

// ZoteroSyncStatus represents the last sync run.
type ZoteroSyncStatus struct {
	LastSyncAt *time.Time `json:"last_sync_at,omitempty"`
	Status     string     `json:"status,omitempty"` // "success", "failed", ""
	Message    string     `json:"message,omitempty"`
	Imported   int        `json:"imported,omitempty"`
}

func (s *SettingsStore) GetZoteroSyncEnabled() (bool, string) {
	v, src := s.value(entities.SettingKeyZoteroSyncEnabled, boolEnv(s.cfg.ZoteroSync.Enabled), "false")
	return parseBool(v), src
}

func (s *SettingsStore) SetZoteroSyncEnabled(enabled bool) error {
	return s.repo.SetSetting(entities.SettingKeyZoteroSyncEnabled, strconv.FormatBool(enabled))
}

func (s *SettingsStore) GetZoteroSyncSchedule() (string, string) {
	return s.value(entities.SettingKeyZoteroSyncSchedule, s.cfg.ZoteroSync.Schedule, config.DefaultZoteroSyncSchedule)
}

// SetZoteroSyncSchedule validates and saves the cron schedule.
func (s *SettingsStore) SetZoteroSyncSchedule(schedule string) error {
	schedule = strings.TrimSpace(schedule)
	if err := ValidateCronSchedule(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}
	return s.repo.SetSetting(entities.SettingKeyZoteroSyncSchedule, schedule)
}

// GetZoteroSyncCollection returns the collection key; empty means the whole library.
func (s *SettingsStore) GetZoteroSyncCollection() (string, string) {
	return s.value(entities.SettingKeyZoteroSyncCollection, s.cfg.ZoteroSync.Collection, "")
}

func (s *SettingsStore) SetZoteroSyncCollection(key string) error {
	return s.repo.SetSetting(entities.SettingKeyZoteroSyncCollection, strings.TrimSpace(key))
}

// GetZoteroSyncLimit returns the per-run item limit clamped to the API maximum.
func (s *SettingsStore) GetZoteroSyncLimit() (int, string) {
	env := ""
	if s.cfg.ZoteroSync.Limit > 0 {
		env = strconv.Itoa(s.cfg.ZoteroSync.Limit)
	}
	v, src := s.value(entities.SettingKeyZoteroSyncLimit, env, strconv.Itoa(config.DefaultZoteroSyncLimit))
	n, err := strconv.Atoi(v)
	if err != nil {
		return config.DefaultZoteroSyncLimit, SourceDefault
	}
	return zotero.ClampLimit(n), src
}

func (s *SettingsStore) SetZoteroSyncLimit(limit int) error {
	return s.repo.SetSetting(entities.SettingKeyZoteroSyncLimit, strconv.Itoa(zotero.ClampLimit(limit)))
}

// GetZoteroSyncConfig returns the effective configuration
func (s *SettingsStore) GetZoteroSyncConfig() ZoteroSyncConfig {
	enabled, _ := s.GetZoteroSyncEnabled()
	schedule, _ := s.GetZoteroSyncSchedule()
	collection, _ := s.GetZoteroSyncCollection()
	limit, _ := s.GetZoteroSyncLimit()
	return ZoteroSyncConfig{Enabled: enabled, Schedule: schedule, Collection: collection, Limit: limit}
}

// GetZoteroSyncConfigInfo returns the configuration with source information
func (s *SettingsStore) GetZoteroSyncConfigInfo() ZoteroSyncConfigInfo {
	info := ZoteroSyncConfigInfo{}
	info.Enabled, info.EnabledSource = s.GetZoteroSyncEnabled()
	info.Schedule, info.ScheduleSource = s.GetZoteroSyncSchedule()
	info.Collection, info.CollectionSource = s.GetZoteroSyncCollection()
	info.Limit, info.LimitSource = s.GetZoteroSyncLimit()
	info.Description = GetCronDescription(info.Schedule)
	if info.Enabled {
		if next, err := GetNextRunTime(info.Schedule); err == nil {
			info.NextRunAt = next
		}
	}
	return info
}

// SetZoteroSyncConfig saves all sync options at once after validating the schedule.
func (s *SettingsStore) SetZoteroSyncConfig(cfg ZoteroSyncConfig) error {
	schedule := strings.TrimSpace(cfg.Schedule)
	if err := ValidateCronSchedule(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}
	return s.repo.SetSettings(map[string]string{
		entities.SettingKeyZoteroSyncEnabled:    strconv.FormatBool(cfg.Enabled),
		entities.SettingKeyZoteroSyncSchedule:   schedule,
		entities.SettingKeyZoteroSyncCollection: strings.TrimSpace(cfg.Collection),
		entities.SettingKeyZoteroSyncLimit:      strconv.Itoa(zotero.ClampLimit(cfg.Limit)),
	})
}

// GetZoteroSyncStatus returns the last sync status
func (s *SettingsStore) GetZoteroSyncStatus() ZoteroSyncStatus {
	status := ZoteroSyncStatus{}

	if v, ok, _ := s.repo.GetValue(entities.SettingKeyZoteroSyncLastAt); ok && v != "" {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			status.LastSyncAt = &ts
		}
	}
	status.Status, _, _ = s.repo.GetValue(entities.SettingKeyZoteroSyncLastStatus)
	status.Message, _, _ = s.repo.GetValue(entities.SettingKeyZoteroSyncLastMessage)
	if v, ok, _ := s.repo.GetValue(entities.SettingKeyZoteroSyncLastImported); ok {
		status.Imported, _ = strconv.Atoi(v)
	}
	return status
}

// SetZoteroSyncStatus records the outcome of a sync run.
func (s *SettingsStore) SetZoteroSyncStatus(status, message string, imported int) error {
	return s.repo.SetSettings(map[string]string{
		entities.SettingKeyZoteroSyncLastAt:       time.Now().UTC().Format(time.RFC3339),
		entities.SettingKeyZoteroSyncLastStatus:   status,
		entities.SettingKeyZoteroSyncLastMessage:  message,
		entities.SettingKeyZoteroSyncLastImported: strconv.Itoa(imported),
	})
}

// ClearZoteroSyncSettings clears all database overrides, reverting to env/default
func (s *SettingsStore) ClearZoteroSyncSettings() error {
	return s.repo.DeleteSettings(
		entities.SettingKeyZoteroSyncEnabled,
		entities.SettingKeyZoteroSyncSchedule,
		entities.SettingKeyZoteroSyncCollection,
		entities.SettingKeyZoteroSyncLimit,
	)
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateCronSchedule validates a five-field cron schedule string
func ValidateCronSchedule(schedule string) error {
	_, err := cronParser.Parse(schedule)
	return err
}

// GetCronDescription returns a human-readable description of a cron schedule
func GetCronDescription(schedule string) string {
	switch schedule {
	case "0 * * * *":
		return "Every hour at :00"
	case "*/30 * * * *":
		return "Every 30 minutes"
	case "0 */6 * * *":
		return "Every 6 hours"
	case "0 */12 * * *":
		return "Every 12 hours"
	case "0 0 * * *":
		return "Daily at midnight"
	case "0 0 * * 0":
		return "Weekly on Sunday at midnight"
	default:
		return "Custom schedule: " + schedule
	}
}

// GetNextRunTime calculates when the next sync will run based on the schedule
func GetNextRunTime(schedule string) (*time.Time, error) {
	sched, err := cronParser.Parse(schedule)
	if err != nil {
		return nil, err
	}
	next := sched.Next(time.Now())
	return &next, nil
}

func parseBool(v string) bool {
	return v == "true" || v == "1"
}

func boolEnv(b bool) string {
	if b {
		return "true"
	}
	return ""
}
