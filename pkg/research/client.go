package research

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// Client calls the remote research service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient returns a client for the service rooted at baseURL, e.g.
// "http://localhost:8000/api". The default http.Client has no timeout.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the service root the client posts to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Send posts topic and format to {baseURL}/research and returns the result
// text. Any failure is reported as a *RequestFailedError. The topic is sent
// as given; validating it is up to the caller.
func (c *Client) Send(ctx context.Context, topic, format string) (string, error) {
	endpoint := c.baseURL + "/research"
	c.logger.Debug("Sending research request", "url", endpoint, "topic", topic, "format", format)

	body, err := json.Marshal(Request{Topic: topic, Format: format})
	if err != nil {
		return "", transportFailed(0, "failed to encode research request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", transportFailed(0, "failed to create research request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Research request failed", "url", endpoint, "error", err)
		return "", transportFailed(0, "research request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", transportFailed(resp.StatusCode, "failed to read research response: %v", err)
	}

	var envelope Response
	decodeErr := json.Unmarshal(raw, &envelope)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("Research service returned non-2xx status", "status", resp.StatusCode, "body", string(raw))
		// An unparsable error body still yields the generic message.
		return "", requestFailed(resp.StatusCode, envelope.Error, msgHTTPFailed)
	}

	if decodeErr != nil {
		c.logger.Warn("Research response is not valid JSON", "status", resp.StatusCode, "error", decodeErr)
		return "", transportFailed(resp.StatusCode, "invalid research response: %v", decodeErr)
	}

	if !envelope.Success {
		c.logger.Warn("Research operation failed", "error", envelope.Error)
		return "", requestFailed(resp.StatusCode, envelope.Error, msgOperationFailed)
	}

	c.logger.Debug("Research request succeeded", "status", resp.StatusCode, "size", len(envelope.Result))
	return envelope.Result, nil
}
