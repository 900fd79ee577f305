package review

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/pubimport/internal/entities"
	"github.com/mrlokans/pubimport/internal/zotero"
)

type fakeZotero struct {
	authErr     error
	collections []zotero.Collection
	items       []zotero.Item
	authCalls   int
	lastLimit   int
}

func (f *fakeZotero) AuthenticateAndFetchCollections(_ context.Context, userID, apiKey string) ([]zotero.Collection, error) {
	f.authCalls++
	if f.authErr != nil {
		return nil, f.authErr
	}
	return f.collections, nil
}

func (f *fakeZotero) FetchItems(_ context.Context, userID, apiKey, collectionKey string, limit int) ([]zotero.Item, error) {
	f.lastLimit = limit
	return f.items, nil
}

type fakeCredStore struct {
	creds   entities.ZoteroCredentials
	loadErr error
	saveErr error
	saved   *entities.ZoteroCredentials
	cleared bool
}

func (f *fakeCredStore) LoadZoteroCredentials(context.Context) (entities.ZoteroCredentials, error) {
	return f.creds, f.loadErr
}

func (f *fakeCredStore) SaveZoteroCredentials(_ context.Context, creds entities.ZoteroCredentials) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = &creds
	return nil
}

func (f *fakeCredStore) ClearZoteroCredentials(context.Context) error {
	f.cleared = true
	return nil
}

var testCollections = []zotero.Collection{zotero.AllItems, {Key: "C1", Name: "Thesis"}}

func TestZoteroConnection_Resume(t *testing.T) {
	t.Run("stored credentials connect silently", func(t *testing.T) {
		api := &fakeZotero{collections: testCollections}
		store := &fakeCredStore{creds: entities.ZoteroCredentials{UserID: "1", APIKey: "k", IsConfigured: true}}
		conn := NewZoteroConnection(api, store)

		require.NoError(t, conn.Resume(context.Background()))
		assert.Equal(t, ConnConnected, conn.State)
		assert.Equal(t, testCollections, conn.Collections)
		creds, ok := conn.Credentials()
		assert.True(t, ok)
		assert.Equal(t, "1", creds.UserID)
	})

	t.Run("not configured", func(t *testing.T) {
		api := &fakeZotero{}
		conn := NewZoteroConnection(api, &fakeCredStore{loadErr: ErrNotConfigured})

		err := conn.Resume(context.Background())
		assert.ErrorIs(t, err, ErrNotConfigured)
		assert.Equal(t, ConnNeedsCredentials, conn.State)
		assert.Zero(t, api.authCalls)
	})

	t.Run("incomplete stored credentials", func(t *testing.T) {
		conn := NewZoteroConnection(&fakeZotero{}, &fakeCredStore{creds: entities.ZoteroCredentials{UserID: "1"}})

		assert.ErrorIs(t, conn.Resume(context.Background()), ErrNotConfigured)
	})

	t.Run("failed test surfaces the error", func(t *testing.T) {
		api := &fakeZotero{authErr: zotero.ErrInvalidAPIKey}
		store := &fakeCredStore{creds: entities.ZoteroCredentials{UserID: "1", APIKey: "old"}}
		conn := NewZoteroConnection(api, store)

		err := conn.Resume(context.Background())
		assert.ErrorIs(t, err, zotero.ErrInvalidAPIKey)
		assert.Equal(t, ConnNeedsCredentials, conn.State)
		assert.ErrorIs(t, conn.LastError, zotero.ErrInvalidAPIKey)
		_, ok := conn.Credentials()
		assert.False(t, ok)
	})

	t.Run("database setup required", func(t *testing.T) {
		conn := NewZoteroConnection(&fakeZotero{}, &fakeCredStore{loadErr: ErrDatabaseSetupRequired})

		assert.ErrorIs(t, conn.Resume(context.Background()), ErrDatabaseSetupRequired)
	})
}

func TestZoteroConnection_Connect(t *testing.T) {
	creds := entities.ZoteroCredentials{UserID: "42", APIKey: "secret"}

	t.Run("remember stores credentials", func(t *testing.T) {
		store := &fakeCredStore{}
		conn := NewZoteroConnection(&fakeZotero{collections: testCollections}, store)

		collections, err := conn.Connect(context.Background(), creds, true)
		require.NoError(t, err)
		assert.Len(t, collections, 2)
		require.NotNil(t, store.saved)
		assert.Equal(t, "42", store.saved.UserID)
	})

	t.Run("without remember nothing is stored", func(t *testing.T) {
		store := &fakeCredStore{}
		conn := NewZoteroConnection(&fakeZotero{collections: testCollections}, store)

		_, err := conn.Connect(context.Background(), creds, false)
		require.NoError(t, err)
		assert.Nil(t, store.saved)
		assert.Equal(t, ConnConnected, conn.State)
	})

	t.Run("save failure is a warning", func(t *testing.T) {
		store := &fakeCredStore{saveErr: ErrDatabaseSetupRequired}
		conn := NewZoteroConnection(&fakeZotero{collections: testCollections}, store)

		_, err := conn.Connect(context.Background(), creds, true)
		require.NoError(t, err)
		assert.Equal(t, ConnConnected, conn.State)
		assert.Contains(t, conn.Warning, "could not be saved")
	})

	t.Run("bad key", func(t *testing.T) {
		store := &fakeCredStore{}
		conn := NewZoteroConnection(&fakeZotero{authErr: zotero.ErrInvalidAPIKey}, store)

		_, err := conn.Connect(context.Background(), creds, true)
		assert.True(t, errors.Is(err, zotero.ErrInvalidAPIKey))
		assert.Nil(t, store.saved)
		assert.Equal(t, ConnNeedsCredentials, conn.State)
	})

	t.Run("missing fields", func(t *testing.T) {
		api := &fakeZotero{}
		conn := NewZoteroConnection(api, &fakeCredStore{})

		_, err := conn.Connect(context.Background(), entities.ZoteroCredentials{UserID: "42"}, false)
		assert.ErrorIs(t, err, zotero.ErrMissingCredentials)
		assert.Zero(t, api.authCalls)
	})
}

func TestZoteroConnection_FetchAndDisconnect(t *testing.T) {
	api := &fakeZotero{
		collections: testCollections,
		items: []zotero.Item{
			{Key: "I1", Data: zotero.ItemData{ItemType: "journalArticle", Title: "One", Date: "2020"}},
		},
	}
	store := &fakeCredStore{}
	conn := NewZoteroConnection(api, store)

	_, err := conn.FetchPublications(context.Background(), "", 10)
	assert.ErrorIs(t, err, ErrNotConnected)

	_, err = conn.Connect(context.Background(), entities.ZoteroCredentials{UserID: "1", APIKey: "k"}, false)
	require.NoError(t, err)

	result, err := conn.FetchPublications(context.Background(), "C1", 10)
	require.NoError(t, err)
	require.Len(t, result.Publications, 1)
	assert.Equal(t, "zotero-I1", result.Publications[0].ID)
	assert.Equal(t, []string{`record "I1": no authors`}, result.Errors)
	assert.Equal(t, 10, api.lastLimit)

	api.items = nil
	result, err = conn.FetchPublications(context.Background(), "EMPTY", 10)
	require.NoError(t, err)
	assert.Empty(t, result.Publications)
	assert.Equal(t, []string{"no Zotero items found"}, result.Errors)

	require.NoError(t, conn.Disconnect(context.Background()))
	assert.True(t, store.cleared)
	assert.Equal(t, ConnNeedsCredentials, conn.State)
}

func TestZoteroConnection_Restore(t *testing.T) {
	api := &fakeZotero{items: []zotero.Item{{Key: "I1", Data: zotero.ItemData{ItemType: "book", Title: "One"}}}}
	conn := NewZoteroConnection(api, &fakeCredStore{})

	assert.False(t, conn.Restore(entities.ZoteroCredentials{UserID: "1"}))
	assert.Equal(t, ConnNeedsCredentials, conn.State)

	require.True(t, conn.Restore(entities.ZoteroCredentials{UserID: "1", APIKey: "k"}))
	assert.Zero(t, api.authCalls)

	creds, ok := conn.Credentials()
	assert.True(t, ok)
	assert.True(t, creds.IsConfigured)

	result, err := conn.FetchPublications(context.Background(), "", 5)
	require.NoError(t, err)
	assert.Len(t, result.Publications, 1)
}
