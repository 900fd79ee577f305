// Package zotero is a small client for the Zotero Web API v3.
//
// Only the read endpoints needed for importing are covered: listing a
// user's collections and fetching items from the library or a collection.
// Requests are never retried; failures are returned to the caller as-is.
package zotero

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// BaseURL is the public Zotero Web API.
	BaseURL = "https://api.zotero.org"

	// APIVersion is sent in the Zotero-API-Version header.
	APIVersion = "3"

	DefaultTimeout = 30 * time.Second

	// DefaultRequestsPerSecond keeps well under Zotero's throttling threshold.
	DefaultRequestsPerSecond = 5.0

	DefaultItemLimit = 25
	// MaxItemLimit is the largest page size the API accepts.
	MaxItemLimit = 100
)

// Client talks to the Zotero Web API.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithRateLimit sets the client-side request rate. Zero or less disables it.
func WithRateLimit(perSecond float64) ClientOption {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// NewClient creates a Zotero client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRequestsPerSecond), 1),
		baseURL:    BaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AuthenticateAndFetchCollections checks the credentials by listing the
// user's collections. The result always starts with AllItems.
func (c *Client) AuthenticateAndFetchCollections(ctx context.Context, userID, apiKey string) ([]Collection, error) {
	if userID == "" || apiKey == "" {
		return nil, ErrMissingCredentials
	}

	resp, err := c.get(ctx, "/users/"+url.PathEscape(userID)+"/collections", url.Values{"key": {apiKey}})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden:
		return nil, ErrInvalidAPIKey
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrUserNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &AuthError{StatusCode: resp.StatusCode, Status: statusText(resp)}
	}

	var raw []apiCollection
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode collections: %w", err)
	}

	collections := make([]Collection, 0, len(raw)+1)
	collections = append(collections, AllItems)
	for _, rc := range raw {
		key := rc.Data.Key
		if key == "" {
			key = rc.Key
		}
		collections = append(collections, Collection{
			Key:      key,
			Name:     rc.Data.Name,
			NumItems: rc.Meta.NumItems,
		})
	}
	return collections, nil
}

// FetchItems returns up to limit top-level items, newest modification first.
// An empty collectionKey fetches from the whole library.
func (c *Client) FetchItems(ctx context.Context, userID, apiKey, collectionKey string, limit int) ([]Item, error) {
	if userID == "" || apiKey == "" {
		return nil, ErrMissingCredentials
	}

	path := "/users/" + url.PathEscape(userID) + "/items"
	if collectionKey != "" {
		path = "/users/" + url.PathEscape(userID) + "/collections/" + url.PathEscape(collectionKey) + "/items"
	}

	query := url.Values{
		"key":       {apiKey},
		"format":    {"json"},
		"include":   {"data,meta"},
		"itemType":  {"-attachment,-note"},
		"limit":     {strconv.Itoa(ClampLimit(limit))},
		"sort":      {"dateModified"},
		"direction": {"desc"},
	}

	resp, err := c.get(ctx, path, query)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{StatusCode: resp.StatusCode, Status: statusText(resp)}
	}

	var items []Item
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("failed to decode items: %w", err)
	}
	return items, nil
}

// ClampLimit applies the default and maximum page sizes.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultItemLimit
	}
	if limit > MaxItemLimit {
		return MaxItemLimit
	}
	return limit
}

func (c *Client) get(ctx context.Context, path string, query url.Values) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Zotero-API-Version", APIVersion)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// statusText returns the reason phrase of a response, e.g. "Bad Gateway".
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	if text == "" {
		text = "HTTP " + strconv.Itoa(resp.StatusCode)
	}
	return text
}
