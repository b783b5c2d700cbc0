package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/chuongle2003/chorus-cli/internal/shared"
)

// Client provides methods for calling the Chorus REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     *TokenStore
	logger     *log.Logger
}

// NewClient creates a new API client for the given base URL.
func NewClient(baseURL string, httpClient *http.Client, tokens *TokenStore, logger *log.Logger) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8000/api/v1"
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		tokens:     tokens,
		logger:     logger,
	}
}

// Tokens exposes the underlying token store.
func (c *Client) Tokens() *TokenStore {
	return c.tokens
}

// do performs an authenticated JSON request.
//
// On a 401 response it refreshes the token once and retries; a second 401
// resolves to [shared.ErrNotAuthenticated]. Responses outside 2xx wrap
// [shared.ErrAPIRequest] with the status and body for the caller to surface.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	resp, raw, err := c.roundTrip(ctx, method, path, body)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		if err := c.Refresh(ctx); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrNotAuthenticated, err)
		}
		if resp, raw, err = c.roundTrip(ctx, method, path, body); err != nil {
			return err
		}
		if resp.StatusCode == http.StatusUnauthorized {
			return c.forceLogout()
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d: %s", shared.ErrAPIRequest, resp.StatusCode, truncate(raw, 200))
	}

	if result != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// roundTrip executes one HTTP request with the current bearer token attached.
func (c *Client) roundTrip(ctx context.Context, method, path string, body any) (*http.Response, []byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response: %w", err)
	}

	return resp, raw, nil
}

// forceLogout discards the stored session after a refresh failed to
// clear a 401. The user has to sign in again.
func (c *Client) forceLogout() error {
	if c.tokens != nil {
		if err := c.tokens.Clear(); err != nil {
			c.logger.Warn("failed to clear session", "error", err)
		}
	}
	return shared.ErrNotAuthenticated
}

// authorize attaches the current access token, if any. Unauthenticated
// requests (login) are allowed through without a header.
func (c *Client) authorize(req *http.Request) {
	if c.tokens == nil {
		return
	}
	if tok, err := c.tokens.AccessToken(); err == nil {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
}

// truncate shortens response bodies embedded in error strings.
func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
