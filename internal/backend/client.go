// Package backend delivers time logs: to the remote API over HTTP, and
// to the local journal that records what happened to each submission.
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
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sadopc/jobtimer/internal/worktimer"
)

// DefaultTimeout bounds one submission when Config.Timeout is zero.
const DefaultTimeout = 15 * time.Second

// maxErrorBody caps how much of an error response is kept.
const maxErrorBody = 4 << 10

// Config holds the settings for a Client.
type Config struct {
	// BaseURL is the API root, e.g. "https://api.example.com".
	BaseURL string

	// Token is sent as a bearer token. Empty sends no Authorization
	// header.
	Token string

	// Timeout bounds each request. Defaults to DefaultTimeout.
	Timeout time.Duration

	// HTTPClient defaults to a client with Timeout set.
	HTTPClient *http.Client

	// Logger defaults to a discarding logger.
	Logger *slog.Logger
}

// Client posts time logs to the backend API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
	newKey     func() string
}

// NewClient validates cfg and returns a Client.
func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("backend: base URL is required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("backend: invalid base URL %q", cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		baseURL:    baseURL,
		token:      cfg.Token,
		httpClient: httpClient,
		logger:     logger,
		newKey:     func() string { return uuid.NewString() },
	}, nil
}

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("backend: status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend: status %d: %s", e.StatusCode, e.Body)
}

// Path returns the time-log endpoint for a work item of a parent context.
func Path(parentContextID, workItemID string) string {
	return "/api/projects/" + url.PathEscape(parentContextID) +
		"/work-items/" + url.PathEscape(workItemID) + "/time-logs"
}

// Submit posts record once. Every call carries a fresh Idempotency-Key.
func (c *Client) Submit(ctx context.Context, record worktimer.TimeLogRecord) error {
	if record.ParentContextID == "" {
		return fmt.Errorf("backend: time log for %q has no parent context", record.WorkItemID)
	}

	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("backend: encode time log: %w", err)
	}

	endpoint := c.baseURL + Path(record.ParentContextID, record.WorkItemID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("backend: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Idempotency-Key", c.newKey())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend: post time log: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	io.Copy(io.Discard, resp.Body)

	c.logger.Debug("time log posted",
		"work_item", record.WorkItemID,
		"parent", record.ParentContextID,
		"status", resp.StatusCode,
	)
	return nil
}
