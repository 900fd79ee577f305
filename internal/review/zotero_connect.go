package review

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/mrlokans/pubimport/internal/entities"
	"github.com/mrlokans/pubimport/internal/importers"
	"github.com/mrlokans/pubimport/internal/zotero"
)

// ConnState is the credential state of a ZoteroConnection.
type ConnState string

const (
	ConnNeedsCredentials ConnState = "needs_credentials"
	ConnConnected        ConnState = "connected"
)

var (
	// ErrNotConfigured means no stored Zotero credentials exist.
	ErrNotConfigured = errors.New("zotero credentials not configured")
	// ErrDatabaseSetupRequired means the settings table is missing.
	ErrDatabaseSetupRequired = errors.New("database setup required: settings table not found")
	ErrNotConnected          = errors.New("not connected to zotero")
)

// CredentialStore keeps Zotero credentials between sessions.
type CredentialStore interface {
	LoadZoteroCredentials(ctx context.Context) (entities.ZoteroCredentials, error)
	SaveZoteroCredentials(ctx context.Context, creds entities.ZoteroCredentials) error
	ClearZoteroCredentials(ctx context.Context) error
}

// ZoteroAPI is the subset of zotero.Client used here.
type ZoteroAPI interface {
	AuthenticateAndFetchCollections(ctx context.Context, userID, apiKey string) ([]zotero.Collection, error)
	FetchItems(ctx context.Context, userID, apiKey, collectionKey string, limit int) ([]zotero.Item, error)
}

var _ ZoteroAPI = (*zotero.Client)(nil)

// ZoteroConnection tracks whether usable credentials are at hand and caches
// the collection list fetched while testing them.
type ZoteroConnection struct {
	api   ZoteroAPI
	store CredentialStore

	State       ConnState
	Collections []zotero.Collection
	// LastError is the failure that put the connection back into
	// needs_credentials, if any.
	LastError error
	// Warning is set when credentials worked but could not be remembered.
	Warning string

	creds entities.ZoteroCredentials
}

func NewZoteroConnection(api ZoteroAPI, store CredentialStore) *ZoteroConnection {
	return &ZoteroConnection{
		api:         api,
		store:       store,
		State:       ConnNeedsCredentials,
		Collections: []zotero.Collection{},
	}
}

// Resume tests stored credentials without user input. Missing credentials
// return ErrNotConfigured; other failures are returned and kept in LastError.
func (c *ZoteroConnection) Resume(ctx context.Context) error {
	creds, err := c.store.LoadZoteroCredentials(ctx)
	if err != nil {
		return c.fail(err)
	}
	if !creds.Complete() {
		return c.fail(ErrNotConfigured)
	}
	if _, err := c.test(ctx, creds); err != nil {
		return err
	}
	return nil
}

// Connect tests creds and, when remember is set, stores them. A failure to
// store is reported through Warning and does not disconnect.
func (c *ZoteroConnection) Connect(ctx context.Context, creds entities.ZoteroCredentials, remember bool) ([]zotero.Collection, error) {
	if !creds.Complete() {
		return nil, c.fail(zotero.ErrMissingCredentials)
	}
	collections, err := c.test(ctx, creds)
	if err != nil {
		return nil, err
	}

	if remember {
		if err := c.store.SaveZoteroCredentials(ctx, creds); err != nil {
			log.Printf("[zotero] Failed to remember credentials: %v", err)
			c.Warning = "Connected, but credentials could not be saved: " + err.Error()
		}
	}
	return collections, nil
}

// Restore marks creds as connected without testing them again. Use it for
// credentials that already passed Connect or Resume in the same browser
// session.
func (c *ZoteroConnection) Restore(creds entities.ZoteroCredentials) bool {
	if !creds.Complete() {
		return false
	}
	c.creds = creds
	c.creds.IsConfigured = true
	c.State = ConnConnected
	c.LastError = nil
	return true
}

// Disconnect forgets the in-memory and stored credentials.
func (c *ZoteroConnection) Disconnect(ctx context.Context) error {
	c.creds = entities.ZoteroCredentials{}
	c.Collections = []zotero.Collection{}
	c.State = ConnNeedsCredentials
	c.LastError = nil
	if err := c.store.ClearZoteroCredentials(ctx); err != nil {
		return fmt.Errorf("failed to clear zotero credentials: %w", err)
	}
	return nil
}

// Credentials returns the credentials of a connected session.
func (c *ZoteroConnection) Credentials() (entities.ZoteroCredentials, bool) {
	return c.creds, c.State == ConnConnected
}

// FetchPublications loads up to limit items from a collection ("" for the
// whole library) and maps them to publications with validation warnings.
func (c *ZoteroConnection) FetchPublications(ctx context.Context, collectionKey string, limit int) (importers.ParseResult, error) {
	if c.State != ConnConnected {
		return importers.ParseResult{}, ErrNotConnected
	}
	items, err := c.api.FetchItems(ctx, c.creds.UserID, c.creds.APIKey, collectionKey, limit)
	if err != nil {
		return importers.ParseResult{}, err
	}
	pubs := importers.TransformZoteroItems(items)
	warnings := importers.ValidatePublications(pubs)
	if len(pubs) == 0 {
		warnings = append(warnings, "no Zotero items found")
	}
	return importers.ParseResult{Publications: pubs, Errors: warnings}, nil
}

func (c *ZoteroConnection) test(ctx context.Context, creds entities.ZoteroCredentials) ([]zotero.Collection, error) {
	collections, err := c.api.AuthenticateAndFetchCollections(ctx, creds.UserID, creds.APIKey)
	if err != nil {
		return nil, c.fail(err)
	}
	c.creds = creds
	c.creds.IsConfigured = true
	c.Collections = collections
	c.State = ConnConnected
	c.LastError = nil
	return collections, nil
}

func (c *ZoteroConnection) fail(err error) error {
	c.State = ConnNeedsCredentials
	c.creds = entities.ZoteroCredentials{}
	c.Collections = []zotero.Collection{}
	c.LastError = err
	return err
}
