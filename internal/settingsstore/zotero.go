package settingsstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mrlokans/pubimport/internal/database"
	"github.com/mrlokans/pubimport/internal/entities"
	"github.com/mrlokans/pubimport/internal/review"
)

var ErrIncompleteCredentials = errors.New("both userID and apiKey are required")

var _ review.CredentialStore = (*SettingsStore)(nil)

// ZoteroCredentialsInfo describes where the effective credentials come from.
// APIKey is masked.
type ZoteroCredentialsInfo struct {
	UserID       string `json:"userID"`
	UserIDSource string `json:"userIDSource"`
	APIKey       string `json:"apiKey"`
	APIKeySource string `json:"apiKeySource"`
	HasAPIKey    bool   `json:"hasApiKey"`
	IsConfigured bool   `json:"isConfigured"`
	Encrypted    bool   `json:"encrypted"`
}

// LoadZoteroCredentials returns the effective credentials. Incomplete
// credentials are not an error; IsConfigured is false for them.
func (s *SettingsStore) LoadZoteroCredentials(ctx context.Context) (entities.ZoteroCredentials, error) {
	creds, _, _, err := s.zoteroCredentials()
	return creds, err
}

func (s *SettingsStore) zoteroCredentials() (creds entities.ZoteroCredentials, userSrc, keySrc string, err error) {
	userID, userSrc, err := s.lookup(entities.SettingKeyZoteroUserID, s.cfg.Zotero.UserID, "")
	if err != nil {
		return creds, "", "", setupError(err)
	}
	apiKey, keySrc, err := s.lookup(entities.SettingKeyZoteroAPIKey, s.cfg.Zotero.APIKey, "")
	if err != nil {
		return creds, "", "", setupError(err)
	}
	if keySrc == SourceDatabase {
		if apiKey, err = s.open(apiKey); err != nil {
			return creds, "", "", fmt.Errorf("failed to read stored Zotero API key: %w", err)
		}
	}

	creds = entities.ZoteroCredentials{UserID: userID, APIKey: apiKey}
	creds.IsConfigured = creds.Complete()
	return creds, userSrc, keySrc, nil
}

// SaveZoteroCredentials stores both halves together, sealing the key when
// an encryptor is configured.
func (s *SettingsStore) SaveZoteroCredentials(ctx context.Context, creds entities.ZoteroCredentials) error {
	creds.UserID = strings.TrimSpace(creds.UserID)
	creds.APIKey = strings.TrimSpace(creds.APIKey)
	if !creds.Complete() {
		return ErrIncompleteCredentials
	}

	apiKey, err := s.seal(creds.APIKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt Zotero API key: %w", err)
	}

	err = s.repo.SetSettings(map[string]string{
		entities.SettingKeyZoteroUserID: creds.UserID,
		entities.SettingKeyZoteroAPIKey: apiKey,
	})
	return setupError(err)
}

// ClearZoteroCredentials removes stored credentials; environment values
// still apply afterwards.
func (s *SettingsStore) ClearZoteroCredentials(ctx context.Context) error {
	return setupError(s.repo.DeleteSettings(entities.SettingKeyZoteroUserID, entities.SettingKeyZoteroAPIKey))
}

// GetZoteroCredentialsInfo returns the credentials for display.
func (s *SettingsStore) GetZoteroCredentialsInfo(ctx context.Context) (ZoteroCredentialsInfo, error) {
	creds, userSrc, keySrc, err := s.zoteroCredentials()
	if err != nil {
		return ZoteroCredentialsInfo{}, err
	}
	return ZoteroCredentialsInfo{
		UserID:       creds.UserID,
		UserIDSource: userSrc,
		APIKey:       maskToken(creds.APIKey),
		APIKeySource: keySrc,
		HasAPIKey:    creds.APIKey != "",
		IsConfigured: creds.IsConfigured,
		Encrypted:    s.Encrypted(),
	}, nil
}

// MaskedCredentials returns creds with the API key masked.
func MaskedCredentials(creds entities.ZoteroCredentials) entities.ZoteroCredentials {
	creds.APIKey = maskToken(creds.APIKey)
	return creds
}

func setupError(err error) error {
	if errors.Is(err, database.ErrTableNotFound) {
		return fmt.Errorf("%w: %v", review.ErrDatabaseSetupRequired, err)
	}
	return err
}
