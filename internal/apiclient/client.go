// Package apiclient talks to a running pubimport server over HTTP. The CLI
// uses it to submit reviewed publications and to reuse the Zotero
// credentials stored on the server.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mrlokans/pubimport/internal/entities"
	"github.com/mrlokans/pubimport/internal/review"
)

const (
	DefaultBaseURL = "http://localhost:8190"

	defaultTimeout = 30 * time.Second

	importPath         = "/api/publications/import"
	zoteroSettingsPath = "/api/settings/zotero"

	codeTableNotFound = "TABLE_NOT_FOUND"
)

// Client is a pubimport API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithToken sends "Authorization: Token <token>" on every request.
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = token
	}
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var (
	_ review.Submitter       = (*Client)(nil)
	_ review.CredentialStore = (*Client)(nil)
)

// errorBody is the server's ErrorResponse.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// ImportPublications posts a batch to the persistence endpoint.
func (c *Client) ImportPublications(ctx context.Context, req entities.ImportRequest) (*entities.ImportResponse, error) {
	resp, err := c.do(ctx, http.MethodPost, importPath, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, readAPIError(resp)
	}

	var out entities.ImportResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode import response: %w", err)
	}
	if !out.Success {
		return &out, &APIError{StatusCode: resp.StatusCode, Message: out.Error}
	}
	return &out, nil
}

// LoadZoteroCredentials returns the credentials stored on the server.
func (c *Client) LoadZoteroCredentials(ctx context.Context) (entities.ZoteroCredentials, error) {
	resp, err := c.do(ctx, http.MethodGet, zoteroSettingsPath, nil)
	if err != nil {
		return entities.ZoteroCredentials{}, err
	}
	defer resp.Body.Close()

	if err := settingsError(resp); err != nil {
		return entities.ZoteroCredentials{}, err
	}

	var creds entities.ZoteroCredentials
	if err := json.NewDecoder(resp.Body).Decode(&creds); err != nil {
		return entities.ZoteroCredentials{}, fmt.Errorf("failed to decode credentials: %w", err)
	}
	if !creds.IsConfigured {
		return entities.ZoteroCredentials{}, review.ErrNotConfigured
	}
	return creds, nil
}

// SaveZoteroCredentials stores credentials on the server.
func (c *Client) SaveZoteroCredentials(ctx context.Context, creds entities.ZoteroCredentials) error {
	resp, err := c.do(ctx, http.MethodPost, zoteroSettingsPath, creds)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return settingsError(resp)
}

// ClearZoteroCredentials removes stored credentials from the server.
func (c *Client) ClearZoteroCredentials(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodDelete, zoteroSettingsPath, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return settingsError(resp)
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Token "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// settingsError maps the settings endpoint's failure modes.
func settingsError(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return nil
	}
	apiErr := readAPIError(resp)
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return review.ErrNotConfigured
	case resp.StatusCode == http.StatusServiceUnavailable && apiErr.Code == codeTableNotFound:
		return review.ErrDatabaseSetupRequired
	}
	return apiErr
}

func readAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var body errorBody
	if err := json.Unmarshal(data, &body); err == nil {
		apiErr.Message = body.Error
		apiErr.Code = body.Code
	} else {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	return apiErr
}
