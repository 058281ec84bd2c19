package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/quadapp/quad/internal/domain"
)

// UploadImage stores data under path in the configured bucket and returns
// the public URL
func (c *Client) UploadImage(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	reqURL := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.baseURL, c.bucket, path)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.bearer())
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug("storage upload", "path", path, "bytes", len(data))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("storage upload failed", "error", err)
		return "", domain.ErrServerOffline
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", domain.ErrAuthFailed
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		c.logger.Error("storage upload error", "status", resp.StatusCode, "body", string(body))
		return "", fmt.Errorf("storage returned status %d", resp.StatusCode)
	}

	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", c.baseURL, c.bucket, path), nil
}
