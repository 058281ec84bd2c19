package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/quadapp/quad/internal/domain"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "Quad/1.0"
)

// Client talks to the hosted backend's REST, RPC, auth, and storage
// endpoints. It implements domain.EventRepository, domain.ClubRepository,
// domain.FeedRepository, domain.ProfileRepository, and domain.ImageStore.
type Client struct {
	baseURL    string
	apiKey     string // public anon key, always sent
	bucket     string
	httpClient *http.Client
	logger     *slog.Logger

	mu    sync.RWMutex
	token string // current user access token, empty when signed out
}

// NewClient creates a new backend API client
func NewClient(baseURL, apiKey, bucket string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		bucket:  bucket,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
}

// SetAccessToken sets the bearer token used for authenticated requests.
// Pass the empty string to fall back to the anon key.
func (c *Client) SetAccessToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.token != "" {
		return c.token
	}
	return c.apiKey
}

// doRequest performs an authenticated request and decodes the JSON response
// into dest (skipped when dest is nil). Connection failures map to
// ErrServerOffline and auth rejections to ErrAuthFailed.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, payload, dest interface{}) error {
	reqURL := fmt.Sprintf("%s%s", c.baseURL, path)
	if query != nil {
		reqURL = fmt.Sprintf("%s?%s", reqURL, query.Encode())
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.bearer())
	req.Header.Set("User-Agent", userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Prefer", "return=minimal")
	}

	c.logger.Debug("backend request", "method", method, "url", reqURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("backend request failed", "error", err)
		return domain.ErrServerOffline
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return domain.ErrAuthFailed
	case resp.StatusCode == http.StatusNotFound:
		return domain.ErrNotFound
	case resp.StatusCode >= 400:
		c.logger.Error("backend request error", "status", resp.StatusCode, "body", string(respBody))
		return fmt.Errorf("backend returned status %d", resp.StatusCode)
	}

	if dest == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, dest); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
