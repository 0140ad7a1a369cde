// Package genservice implements the HTTP client for the external generation
// service: draft listing, preview generation, review decisions, and media
// upload for drafted flashcards.
//
// The service's response shapes are only loosely contractual (generated
// content drifts between revisions), so payloads are decoded into maps and
// read through domain.RawRecord accessors instead of rigid structs.
package genservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lingoforge/reviewdesk/internal/config"
)

// Client talks to the generation service REST API.
//
// Two underlying HTTP clients are used: a short-timeout one for plain reads
// and review decisions, and a long-timeout one for generation endpoints,
// whose AI work is itself slow (on the order of minutes).
type Client struct {
	baseURL    string
	readClient *http.Client
	genClient  *http.Client
	log        *slog.Logger
}

// New creates a Client from GenerationConfig.
func New(cfg config.GenerationConfig, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		readClient: &http.Client{Timeout: cfg.ReadTimeout},
		genClient:  &http.Client{Timeout: cfg.GenerateTimeout},
		log:        logger.With("adapter", "genservice"),
	}
}

// NewWithURL creates a Client with default timeouts against a custom base URL
// (for testing).
func NewWithURL(baseURL string, logger *slog.Logger) *Client {
	return New(config.GenerationConfig{
		BaseURL:         baseURL,
		ReadTimeout:     30 * time.Second,
		GenerateTimeout: 10 * time.Minute,
	}, logger)
}

// Ping checks reachability of the generation service. Any HTTP response
// counts as up; only transport failures are errors.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/ai/drafts", nil)
	if err != nil {
		return fmt.Errorf("genservice: create request: %w", err)
	}
	resp, err := c.readClient.Do(req)
	if err != nil {
		return fmt.Errorf("genservice: ping: %w", err)
	}
	resp.Body.Close()
	return nil
}

// envelope is the common response wrapper: { success, message, payload }.
// Payload keys vary per endpoint and are inspected defensively.
type envelope struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Payload map[string]any `json:"payload"`
}

// getJSON issues a GET with a single retry on 5xx or network errors and
// decodes the response envelope.
func (c *Client) getJSON(ctx context.Context, path string) (*envelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("genservice: create request: %w", err)
	}

	resp, err := c.doWithRetry(ctx, req)
	if err != nil {
		c.log.ErrorContext(ctx, "genservice request failed",
			slog.String("path", path), slog.String("error", err.Error()))
		return nil, fmt.Errorf("genservice: GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	return c.decodeEnvelope(ctx, resp, path)
}

// postJSON issues a POST with a JSON body and decodes the response envelope.
// Writes are never retried.
func (c *Client) postJSON(ctx context.Context, httpClient *http.Client, path string, body any) (*envelope, error) {
	return c.sendJSON(ctx, httpClient, http.MethodPost, path, body)
}

// putJSON issues a PUT with a JSON body and decodes the response envelope.
func (c *Client) putJSON(ctx context.Context, httpClient *http.Client, path string, body any) (*envelope, error) {
	return c.sendJSON(ctx, httpClient, http.MethodPut, path, body)
}

func (c *Client) sendJSON(ctx context.Context, httpClient *http.Client, method, path string, body any) (*envelope, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("genservice: encode body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("genservice: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		c.log.ErrorContext(ctx, "genservice request failed",
			slog.String("path", path), slog.String("error", err.Error()))
		return nil, fmt.Errorf("genservice: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	return c.decodeEnvelope(ctx, resp, path)
}

// doWithRetry executes a read request with a single retry on 5xx or network
// errors.
func (c *Client) doWithRetry(ctx context.Context, req *http.Request) (*http.Response, error) {
	resp, err := c.readClient.Do(req)

	shouldRetry := err != nil || (resp != nil && resp.StatusCode >= 500)
	if !shouldRetry {
		return resp, err
	}

	// Don't retry if context is already cancelled.
	if ctx.Err() != nil {
		return resp, err
	}

	reason := "network error"
	if err == nil && resp != nil {
		reason = fmt.Sprintf("status %d", resp.StatusCode)
	}
	c.log.WarnContext(ctx, "genservice retry",
		slog.String("path", req.URL.Path), slog.String("reason", reason))

	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	time.Sleep(500 * time.Millisecond)

	return c.readClient.Do(req)
}

// decodeEnvelope reads and parses the response body. Non-2xx statuses are
// errors; a body that is not valid JSON is an error; a missing payload is
// tolerated (callers inspect Payload defensively).
func (c *Client) decodeEnvelope(ctx context.Context, resp *http.Response, path string) (*envelope, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("genservice: read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("genservice: %s: unexpected status %d", path, resp.StatusCode)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("genservice: decode json: %w", err)
	}

	c.log.DebugContext(ctx, "genservice response",
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Bool("success", env.Success),
	)

	return &env, nil
}
