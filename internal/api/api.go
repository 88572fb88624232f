package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"llm-crypto-trader/internal/logger"
	"llm-crypto-trader/internal/types"
)

// Client represents an HTTP client with common configuration and utilities
type Client struct {
	rc         *resty.Client
	useLogging bool
}

// ClientOption configures the API client
type ClientOption func(*Client)

// WithTimeout sets the HTTP client timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.rc.SetTimeout(timeout)
	}
}

// WithBaseURL sets the base URL for all requests
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.rc.SetBaseURL(baseURL)
	}
}

// WithHeader sets a default header for all requests
func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.rc.SetHeader(key, value)
	}
}

// WithLogging enables request/response debug logging
func WithLogging(enabled bool) ClientOption {
	return func(c *Client) {
		c.useLogging = enabled
	}
}

// WithRetry retries transport failures and 429/5xx responses with backoff.
func WithRetry(attempts int, initialWait, maxWait time.Duration) ClientOption {
	return func(c *Client) {
		c.rc.SetRetryCount(attempts).
			SetRetryWaitTime(initialWait).
			SetRetryMaxWaitTime(maxWait).
			AddRetryCondition(func(r *resty.Response, err error) bool {
				if err != nil {
					return true
				}
				return r.StatusCode() == 429 || r.StatusCode() >= 500
			})
	}
}

// NewClient creates a new API client with the given options
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		rc: resty.New().
			SetTimeout(30*time.Second).
			SetHeader("Accept", "application/json"),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.rc.OnAfterResponse(func(_ *resty.Client, r *resty.Response) error {
		if c.useLogging {
			logger.Debug(r.Request.Context(), "HTTP Response",
				"method", r.Request.Method,
				"url", r.Request.URL,
				"status", r.StatusCode(),
				"duration", r.Time(),
				"bodySize", len(r.Body()))
		}
		return nil
	})
	return c
}

// R starts a request bound to ctx.
func (c *Client) R(ctx context.Context) *resty.Request {
	return c.rc.R().SetContext(ctx)
}

// Check folds a resty result into the error taxonomy: network failures and
// HTTP error statuses both become types.ErrTransport.
func Check(resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrTransport, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: HTTP %d: %s", types.ErrTransport, resp.StatusCode(), truncate(resp.String(), 256))
	}
	return nil
}

// DecodeJSON checks resp and unmarshals its body into v. A body that does not
// decode is types.ErrMalformedResponse.
func DecodeJSON(resp *resty.Response, err error, v any) error {
	if err := Check(resp, err); err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body(), v); err != nil {
		return fmt.Errorf("%w: %v", types.ErrMalformedResponse, err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
