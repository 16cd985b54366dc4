// Package course implements the course service API client.
// The reward service depends on the course service for course structure:
// which chapters a course has, and which course a content item belongs to.
package course

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/learnpath-hub/reward-service/internal/domain/shared"
	"github.com/learnpath-hub/reward-service/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the course service client.
type ClientConfig struct {
	// BaseURL is the course service base URL
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

// Client talks to the course service over HTTP. Transient failures are
// retried with exponential backoff before being surfaced as external
// service errors.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	retrier    *retry.Retrier
	logger     *slog.Logger
}

// NewClient creates a new course service client.
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
		logger:  config.Logger,
	}
}

// ChapterIDsOf fetches the chapter ids of a course.
func (c *Client) ChapterIDsOf(ctx context.Context, courseID uuid.UUID) ([]uuid.UUID, error) {
	path := fmt.Sprintf("/courses/%s/chapters", url.PathEscape(courseID.String()))

	var response chaptersResponseDTO
	if err := c.doRequest(ctx, path, &response); err != nil {
		return nil, shared.WrapError("course", "ChapterIDsOf", shared.ErrExternalService,
			fmt.Sprintf("could not fetch chapters of course %s", courseID), err)
	}

	ids := make([]uuid.UUID, 0, len(response.Chapters))
	for _, chapter := range response.Chapters {
		id, err := uuid.Parse(chapter.ID)
		if err != nil {
			return nil, shared.WrapError("course", "ChapterIDsOf", shared.ErrExternalService,
				fmt.Sprintf("malformed chapter id %q", chapter.ID), err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// CourseIDForContent resolves which course a content item belongs to.
func (c *Client) CourseIDForContent(ctx context.Context, contentID uuid.UUID) (uuid.UUID, error) {
	path := fmt.Sprintf("/contents/%s/course", url.PathEscape(contentID.String()))

	var response courseRefDTO
	if err := c.doRequest(ctx, path, &response); err != nil {
		return uuid.Nil, shared.WrapError("course", "CourseIDForContent", shared.ErrExternalService,
			fmt.Sprintf("could not resolve course for content %s", contentID), err)
	}

	courseID, err := uuid.Parse(response.CourseID)
	if err != nil {
		return uuid.Nil, shared.WrapError("course", "CourseIDForContent", shared.ErrExternalService,
			fmt.Sprintf("malformed course id %q", response.CourseID), err)
	}
	return courseID, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// HTTP helpers
// ─────────────────────────────────────────────────────────────────────────────

// doRequest performs a GET request with retries and decodes the JSON body.
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
		return fmt.Errorf("course service error: status %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		return retry.Permanent(fmt.Errorf("course service rejected request: status %d", resp.StatusCode))
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return retry.Permanent(fmt.Errorf("unmarshal response: %w", err))
	}
	return nil
}
