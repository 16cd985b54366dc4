// Package content implements the content service API client.
// The content service owns learning material and per-user progress; the
// reward calculators consume its data as read-only snapshots.
package content

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/learnpath-hub/reward-service/internal/domain/reward"
	"github.com/learnpath-hub/reward-service/internal/domain/shared"
	"github.com/learnpath-hub/reward-service/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the content service client.
type ClientConfig struct {
	// BaseURL is the content service base URL
	BaseURL string

	// APIKey is the API key for authentication (if applicable)
	APIKey string

	// Timeout is the HTTP request timeout
	Timeout time.Duration

	// Logger for structured logging
	Logger *slog.Logger
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(baseURL string) ClientConfig {
	return ClientConfig{
		BaseURL: baseURL,
		Timeout: 30 * time.Second,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client talks to the content service over HTTP with bounded retries.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	retrier    *retry.Retrier
	mapper     *Mapper
	logger     *slog.Logger
}

// NewClient creates a new content service client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		retrier: retry.ServiceClientRetrier(),
		mapper:  NewMapper(),
		logger:  config.Logger,
	}
}

// ContentsWithProgress fetches the user's content snapshot across the given
// chapters, including per-content progress logs.
func (c *Client) ContentsWithProgress(ctx context.Context, userID uuid.UUID, chapterIDs []uuid.UUID) ([]reward.ContentSnapshot, error) {
	if len(chapterIDs) == 0 {
		return nil, nil
	}

	chapters := make([]string, 0, len(chapterIDs))
	for _, id := range chapterIDs {
		chapters = append(chapters, id.String())
	}

	params := url.Values{}
	params.Set("user_id", userID.String())
	params.Set("chapter_ids", strings.Join(chapters, ","))
	path := "/contents/with-progress?" + params.Encode()

	var response contentsResponseDTO
	if err := c.doRequest(ctx, path, &response); err != nil {
		return nil, shared.WrapError("content", "ContentsWithProgress", shared.ErrExternalService,
			fmt.Sprintf("could not fetch contents for user %s", userID), err)
	}

	snapshots, err := c.mapper.SnapshotsFromDTO(response.Contents)
	if err != nil {
		return nil, shared.WrapError("content", "ContentsWithProgress", shared.ErrExternalService,
			"malformed content payload", err)
	}
	return snapshots, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// HTTP helpers
// ─────────────────────────────────────────────────────────────────────────────

func (c *Client) doRequest(ctx context.Context, path string, result interface{}) error {
	return c.retrier.Do(ctx, func(ctx context.Context) error {
		return c.doSingleRequest(ctx, path, result)
	})
}

func (c *Client) doSingleRequest(ctx context.Context, path string, result interface{}) error {
	fullURL := c.config.BaseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return retry.Permanent(fmt.Errorf("create request: %w", err))
	}

	req.Header.Set("Accept", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return retry.Permanent(fmt.Errorf("%w: %s", shared.ErrNotFound, path))
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("content service error: status %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		return retry.Permanent(fmt.Errorf("content service rejected request: status %d", resp.StatusCode))
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return retry.Permanent(fmt.Errorf("unmarshal response: %w", err))
	}
	return nil
}
