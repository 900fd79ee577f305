// Package settingsstore resolves effective settings from the settings table
// with the process configuration as fallback.
//
// Priority: database > environment > default
package settingsstore

import (
	"errors"
	"log"

	"github.com/mrlokans/pubimport/internal/config"
	"github.com/mrlokans/pubimport/internal/crypto"
	"github.com/mrlokans/pubimport/internal/database"
	"github.com/mrlokans/pubimport/internal/database/settings"
)

const (
	SourceDatabase    = "database"
	SourceEnvironment = "environment"
	SourceDefault     = "default"
)

// ErrSecretRequired is returned when a stored value is encrypted but no
// settings secret is configured.
var ErrSecretRequired = errors.New("stored value is encrypted but SETTINGS_SECRET is not set")

type SettingsStore struct {
	repo *settings.Repository
	cfg  *config.Config
	enc  *crypto.Encryptor
}

func New(repo *settings.Repository, cfg *config.Config) *SettingsStore {
	if cfg == nil {
		cfg = &config.Config{}
	}
	return &SettingsStore{repo: repo, cfg: cfg}
}

// WithEncryptor seals secrets written from now on and opens sealed ones.
func (s *SettingsStore) WithEncryptor(enc *crypto.Encryptor) *SettingsStore {
	s.enc = enc
	return s
}

// Encrypted reports whether secrets are sealed at rest.
func (s *SettingsStore) Encrypted() bool {
	return s.enc != nil
}

// lookup returns the stored value for key, falling back to env and then def.
// Read errors other than a missing table degrade to the fallback.
func (s *SettingsStore) lookup(key, env, def string) (value, source string, err error) {
	stored, ok, err := s.repo.GetValue(key)
	if err != nil {
		if errors.Is(err, database.ErrTableNotFound) {
			return "", "", err
		}
		log.Printf("[settings] failed to read %s: %v", key, err)
	}
	if ok && stored != "" {
		return stored, SourceDatabase, nil
	}
	if env != "" {
		return env, SourceEnvironment, nil
	}
	return def, SourceDefault, nil
}

// value is lookup without the error, for options that always have a usable fallback.
func (s *SettingsStore) value(key, env, def string) (string, string) {
	v, src, err := s.lookup(key, env, def)
	if err != nil {
		if env != "" {
			return env, SourceEnvironment
		}
		return def, SourceDefault
	}
	return v, src
}

func (s *SettingsStore) seal(plaintext string) (string, error) {
	if s.enc == nil {
		return plaintext, nil
	}
	return s.enc.Encrypt(plaintext)
}

func (s *SettingsStore) open(stored string) (string, error) {
	if !crypto.IsEncrypted(stored) {
		return stored, nil
	}
	if s.enc == nil {
		return "", ErrSecretRequired
	}
	return s.enc.Decrypt(stored)
}

// maskToken returns a masked version of the token for display
func maskToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "****" + token[len(token)-4:]
}
