// Package push implements the device-registration and incoming-notification
// side of the hosted push gateway. Notifications are delivered on a channel
// so the synchronizer can treat them as one inbound message stream.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/quadapp/quad/internal/domain"
)

const (
	pollTimeout        = 60 * time.Second
	initialBackoff     = time.Second
	maxBackoff         = time.Minute
	notificationBuffer = 16
)

// Client implements domain.PushProvider over the push gateway's HTTP API
type Client struct {
	baseURL     string
	apiKey      string
	deviceToken string
	httpClient  *http.Client
	logger      *slog.Logger

	notifications chan domain.Notification
}

// NewClient creates a push client with a freshly generated device token
func NewClient(baseURL, apiKey string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:     baseURL,
		apiKey:      apiKey,
		deviceToken: uuid.NewString(),
		httpClient: &http.Client{
			Timeout: pollTimeout + 10*time.Second,
		},
		logger:        logger,
		notifications: make(chan domain.Notification, notificationBuffer),
	}
}

// DeviceToken returns the device token used for registration
func (c *Client) DeviceToken() string {
	return c.deviceToken
}

// Notifications is the inbound push message stream
func (c *Client) Notifications() <-chan domain.Notification {
	return c.notifications
}

// Register associates this device with the user
func (c *Client) Register(ctx context.Context, userID string) error {
	payload, err := json.Marshal(map[string]string{
		"user_id":      userID,
		"device_token": c.deviceToken,
		"platform":     "cli",
	})
	if err != nil {
		return fmt.Errorf("failed to encode registration: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/push/v1/devices", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.ErrServerOffline
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("push registration returned status %d", resp.StatusCode)
	}

	c.logger.Info("push device registered", "user_id", userID)
	return nil
}

// notificationRow is the wire shape of a delivered notification
type notificationRow struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	EventID   string    `json:"event_id"`
	ClubID    string    `json:"club_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Listen long-polls the gateway and delivers notifications on the channel
// until ctx is cancelled. Poll failures back off exponentially; the backoff
// resets after a successful poll. The channel is closed on return.
func (c *Client) Listen(ctx context.Context) {
	defer close(c.notifications)

	cursor := ""
	backoff := initialBackoff

	for {
		rows, next, err := c.poll(ctx, cursor)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Warn("push poll failed", "error", err, "backoff", backoff)

			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}
		backoff = initialBackoff
		cursor = next

		for _, row := range rows {
			n := domain.Notification{
				ID:        row.ID,
				Title:     row.Title,
				Body:      row.Body,
				EventID:   row.EventID,
				ClubID:    row.ClubID,
				CreatedAt: row.CreatedAt,
			}
			select {
			case c.notifications <- n:
			case <-ctx.Done():
				return
			}
		}
	}
}

// poll performs one long-poll request and returns delivered rows plus the
// next cursor
func (c *Client) poll(ctx context.Context, cursor string) ([]notificationRow, string, error) {
	query := url.Values{}
	query.Set("device_token", c.deviceToken)
	query.Set("timeout", fmt.Sprintf("%d", int(pollTimeout.Seconds())))
	if cursor != "" {
		query.Set("cursor", cursor)
	}

	reqURL := fmt.Sprintf("%s/push/v1/poll?%s", c.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", domain.ErrServerOffline
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, "", fmt.Errorf("push poll returned status %d", resp.StatusCode)
	}

	var body struct {
		Notifications []notificationRow `json:"notifications"`
		Cursor        string            `json:"cursor"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, "", fmt.Errorf("failed to decode poll response: %w", err)
	}
	return body.Notifications, body.Cursor, nil
}
