// Package api is the HTTP client for the TracerX REST API. It owns the
// request/response plumbing and the tolerant decoding of the API's
// loosely shaped payloads into model types.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nhle/tracerx/internal/logging"
)

// TokenSource supplies the bearer token for each request. An empty token
// means the request is sent without an Authorization header.
type TokenSource interface {
	Token() string
}

// StaticToken is a TokenSource that always returns the same token.
type StaticToken string

// Token implements TokenSource.
func (s StaticToken) Token() string { return string(s) }

// Client is a thin HTTP client for the TracerX API. It handles bearer
// authentication, JSON marshaling and error mapping. It never retries.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
	logger     *logging.Logger
}

// NewClient creates a new API client rooted at baseURL
// (e.g. https://tracerx.example.com/api).
func NewClient(
	baseURL string,
	tokens TokenSource,
	timeout time.Duration,
	logger *logging.Logger,
) *Client {
	if tokens == nil {
		tokens = StaticToken("")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logging.OrDiscard(logger).WithComponent(logging.ComponentAPI),
	}
}

// BaseURL returns the root URL the client was created with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get performs an HTTP GET and returns the raw response body.
func (c *Client) Get(ctx context.Context, path string) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodGet, path, nil)
}

// Post performs an HTTP POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodPost, path, body)
}

// Put performs an HTTP PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodPut, path, body)
}

// Patch performs an HTTP PATCH with an optional JSON body.
func (c *Client) Patch(ctx context.Context, path string, body interface{}) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodPatch, path, body)
}

// Delete performs an HTTP DELETE.
func (c *Client) Delete(ctx context.Context, path string) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodDelete, path, nil)
}

// Do builds and executes a request and maps non-2xx responses to
// *APIError. The returned body is raw; callers decode it with the
// endpoint-specific decoders. An empty body yields nil.
func (c *Client) Do(
	ctx context.Context,
	method string,
	path string,
	body interface{},
) (json.RawMessage, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return c.send(req, method, path)
}

// send executes req with the bearer token attached and reads the body.
func (c *Client) send(req *http.Request, method, path string) (json.RawMessage, error) {
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed",
			logging.FieldMethod, method,
			logging.FieldPath, path,
			logging.FieldError, err,
		)
		return nil, fmt.Errorf("executing request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	c.logger.Debug("request",
		logging.FieldMethod, method,
		logging.FieldPath, path,
		logging.FieldStatus, resp.StatusCode,
		logging.FieldDuration, time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{
			Status:  resp.StatusCode,
			Message: errorMessage(respBody),
			Method:  method,
			Path:    path,
		}
		c.logger.Warn("request rejected",
			logging.FieldStatus, resp.StatusCode,
			logging.FieldError, apiErr.Detail(),
		)
		return nil, apiErr
	}

	if resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(respBody)) == 0 {
		return nil, nil
	}
	return respBody, nil
}

// errorMessage extracts the user-facing message from an error body.
// Unparseable bodies map to "Network error"; parseable bodies without a
// message leave it empty so APIError falls back to "Request failed".
func errorMessage(body []byte) string {
	var payload struct {
		Message flexString      `json:"message"`
		Error   json.RawMessage `json:"error"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return msgNetworkError
	}
	if payload.Message != "" {
		return string(payload.Message)
	}
	var nested struct {
		Message flexString `json:"message"`
	}
	if len(payload.Data) > 0 && json.Unmarshal(payload.Data, &nested) == nil && nested.Message != "" {
		return string(nested.Message)
	}
	var errText string
	if len(payload.Error) > 0 && json.Unmarshal(payload.Error, &errText) == nil {
		return errText
	}
	return ""
}

// withQuery appends non-empty query values to path.
func withQuery(path string, q url.Values) string {
	if encoded := q.Encode(); encoded != "" {
		return path + "?" + encoded
	}
	return path
}

// escape encodes an ID for use as a single path segment.
func escape(id string) string {
	return url.PathEscape(id)
}
