// Package api is the console's transport to the clone-detection backend.
// Every call goes through FetchJSON or PostJSON, which normalise the outcome
// into a Result; typed endpoint methods sit on top of those two.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/CosmoTheDev/cgconsole/internal/config"
	"github.com/CosmoTheDev/cgconsole/internal/metrics"
	"github.com/go-resty/resty/v2"
)

// Result is the normalised outcome of one request. Success is true only when
// the call completed with a 2xx status, the body is JSON and, for POST, the
// payload carries no embedded error. Callers test Err for presence only.
type Result struct {
	Data    json.RawMessage
	Success bool
	Err     error
}

// Client talks to the backend's versioned REST API.
type Client struct {
	http    *resty.Client
	baseURL string
	metrics *metrics.Metrics
}

// Option customises a Client.
type Option func(*Client)

// WithMetrics records request outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// New returns a Client for cfg. Requests are never retried.
func New(cfg config.BackendConfig, opts ...Option) *Client {
	base := cfg.BaseURL()
	rc := resty.New().
		SetBaseURL(base).
		SetTimeout(cfg.RequestTimeout()).
		SetRetryCount(0).
		SetHeader("Accept", "application/json").
		SetLogger(newSlogAdapter(slog.Default()))

	c := &Client{http: rc, baseURL: base}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the origin plus API prefix the client targets.
func (c *Client) BaseURL() string { return c.baseURL }

// FetchJSON issues GET endpoint with the given query parameters.
func (c *Client) FetchJSON(ctx context.Context, endpoint string, query map[string]string) Result {
	c.trace(http.MethodGet, endpoint)
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(query).
		Get(endpoint)
	res := c.result(resp, err, false)
	c.metrics.ObserveRequest(endpoint, res.Success)
	return res
}

// PostJSON issues POST endpoint with body encoded as JSON.
func (c *Client) PostJSON(ctx context.Context, endpoint string, body any) Result {
	c.trace(http.MethodPost, endpoint)
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(endpoint)
	res := c.result(resp, err, true)
	c.metrics.ObserveRequest(endpoint, res.Success)
	return res
}

func (c *Client) trace(method, endpoint string) {
	slog.Debug("api: request", "method", method, "url", c.baseURL+endpoint)
}

func (c *Client) result(resp *resty.Response, err error, checkEmbedded bool) Result {
	if err != nil {
		return Result{Err: fmt.Errorf("%w: %v", ErrRequestFailed, err)}
	}
	body := resp.Body()
	if !resp.IsSuccess() {
		return Result{Err: errorFromBody(resp.StatusCode(), body)}
	}
	if !json.Valid(body) {
		return Result{Err: fmt.Errorf("%w: response from %s is not JSON", ErrRequestFailed, resp.Request.URL)}
	}
	if checkEmbedded {
		if apiErr := embeddedError(body); apiErr != nil {
			apiErr.StatusCode = resp.StatusCode()
			return Result{Data: body, Err: apiErr}
		}
	}
	return Result{Data: body, Success: true}
}

// failure turns an unsuccessful Result into an error value.
func (r Result) failure() error {
	if r.Err != nil {
		return r.Err
	}
	return ErrRequestFailed
}

func errorFromBody(status int, body []byte) error {
	if apiErr := embeddedError(body); apiErr != nil {
		apiErr.StatusCode = status
		return apiErr
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return &Error{StatusCode: status, Message: msg}
}
