package review

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mrlokans/pubimport/internal/entities"
)

// DefaultDraftTTL is how long a saved draft stays loadable.
const DefaultDraftTTL = 24 * time.Hour

var (
	ErrDraftNotFound = errors.New("draft not found")
	ErrDraftExpired  = errors.New("draft expired")
)

// DraftStore persists serialized sessions. Get returns nil, nil when no
// draft exists for key.
type DraftStore interface {
	Put(ctx context.Context, key, payload string, savedAt time.Time) error
	Get(ctx context.Context, key string) (*entities.Draft, error)
	Delete(ctx context.Context, key string) error
}

// Drafts saves and restores sessions with an expiry.
type Drafts struct {
	store DraftStore
	ttl   time.Duration
	clock func() time.Time
}

// NewDrafts returns a Drafts using ttl, or DefaultDraftTTL when ttl <= 0.
func NewDrafts(store DraftStore, ttl time.Duration) *Drafts {
	if ttl <= 0 {
		ttl = DefaultDraftTTL
	}
	return &Drafts{store: store, ttl: ttl, clock: time.Now}
}

// TTL returns the configured expiry.
func (d *Drafts) TTL() time.Duration {
	return d.ttl
}

// Save stores the session under key, replacing any previous draft.
func (d *Drafts) Save(ctx context.Context, key string, s *Session) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode draft: %w", err)
	}
	if err := d.store.Put(ctx, key, string(payload), d.clock()); err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	return nil
}

// Load restores the draft saved under key. Expired drafts are deleted.
func (d *Drafts) Load(ctx context.Context, key string) (*Session, error) {
	draft, err := d.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load draft: %w", err)
	}
	if draft == nil {
		return nil, ErrDraftNotFound
	}

	if d.clock().Sub(draft.SavedAt) > d.ttl {
		if err := d.store.Delete(ctx, key); err != nil {
			return nil, fmt.Errorf("failed to delete expired draft: %w", err)
		}
		return nil, ErrDraftExpired
	}

	var s Session
	if err := json.Unmarshal([]byte(draft.Payload), &s); err != nil {
		return nil, fmt.Errorf("failed to decode draft: %w", err)
	}
	return &s, nil
}

// Discard removes the draft saved under key, if any.
func (d *Drafts) Discard(ctx context.Context, key string) error {
	return d.store.Delete(ctx, key)
}
