// Package api is the REST side of the CRM backend. Client implements the
// ticket, message and profile repositories the application layer consumes.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"leadsync/internal/shared/errors"
	"leadsync/internal/shared/logger"
	"leadsync/internal/shared/utils/logutil"
)

const (
	defaultTimeout = 30 * time.Second
	maxLoggedBody  = 200
)

// TokenSource supplies the bearer token for every request.
type TokenSource interface {
	Token() (string, bool)
}

type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
	logger     logger.Interface
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

func NewClient(baseURL string, tokens TokenSource, log logger.Interface, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		tokens:     tokens,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     log.Named("api"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// doRequest sends one call and decodes the raw response body into result.
func (c *Client) doRequest(ctx context.Context, method, path string, body any, result any) error {
	token, ok := c.tokens.Token()
	if !ok {
		return errors.NewUnauthorizedError("not signed in")
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Warnw("request failed", "method", method, "path", path, "error", err)
		return errors.NewRequestError(0, "Server is unreachable, please try again")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	c.logger.Debugw("request done",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(started),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warnw("request rejected",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
			"body", logutil.TruncateForLog(string(respBody), maxLoggedBody),
		)
		return errors.FromStatus(resp.StatusCode, serverMessage(resp.StatusCode, respBody))
	}

	if result == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

// serverMessage picks the human readable text out of an error body.
func serverMessage(status int, body []byte) string {
	var payload map[string]json.RawMessage
	if json.Unmarshal(body, &payload) == nil {
		for _, key := range []string{"message", "error", "detail"} {
			var s string
			if raw, ok := payload[key]; ok && json.Unmarshal(raw, &s) == nil && s != "" {
				return s
			}
		}
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("request failed with status %d", status)
}

// pick decodes the first present key of an envelope into out. The backend
// wraps lists as tickets, messages or data depending on the route.
func pick(envelope map[string]json.RawMessage, out any, keys ...string) (bool, error) {
	for _, key := range keys {
		raw, ok := envelope[key]
		if !ok || bytes.Equal(raw, []byte("null")) {
			continue
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return false, fmt.Errorf("decode %s: %w", key, err)
		}
		return true, nil
	}
	return false, nil
}
