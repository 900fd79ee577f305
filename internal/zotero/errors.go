package zotero

import (
	"errors"
	"fmt"
)

// ErrInvalidAPIKey indicates a 403 from the collections endpoint.
var ErrInvalidAPIKey = errors.New("invalid Zotero API key or insufficient permissions")

// ErrUserNotFound indicates a 404 from the collections endpoint.
var ErrUserNotFound = errors.New("zotero user not found")

// ErrMissingCredentials is returned before any request is made.
var ErrMissingCredentials = errors.New("zotero user ID and API key are required")

// AuthError is any other non-2xx answer while authenticating.
type AuthError struct {
	StatusCode int
	Status     string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("zotero authentication failed: %s", e.Status)
}

// FetchError is a non-2xx answer from an items endpoint.
type FetchError struct {
	StatusCode int
	Status     string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch Zotero items: %s", e.Status)
}
