// Package osv looks up published advisories for a bug on OSV.dev so the
// operator can see which upstream commits fixed it before searching a
// project for clones of that fix.
package osv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultBaseURL is the public OSV API. It is free and unauthenticated.
const DefaultBaseURL = "https://api.osv.dev/v1"

// ErrNotFound is returned when OSV has no record for the identifier.
var ErrNotFound = errors.New("osv: advisory not found")

// Client is an HTTP client for the OSV.dev API.
type Client struct {
	http *resty.Client
}

// Option customises a Client.
type Option func(*Client)

// WithBaseURL points the client at another OSV-compatible API.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.http.SetBaseURL(u) }
}

// New returns a Client with a 15-second timeout.
func New(opts ...Option) *Client {
	c := &Client{
		http: resty.New().
			SetBaseURL(DefaultBaseURL).
			SetTimeout(15 * time.Second).
			SetHeader("Accept", "application/json"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get fetches the advisory for id (GET /v1/vulns/{id}). CVE identifiers are
// accepted directly; OSV resolves them to their own record.
func (c *Client) Get(ctx context.Context, id string) (Vuln, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get("/vulns/" + url.PathEscape(id))
	if err != nil {
		return Vuln{}, fmt.Errorf("osv: get %s: %w", id, err)
	}
	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return Vuln{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	case !resp.IsSuccess():
		body := resp.Body()
		if len(body) > 512 {
			body = body[:512]
		}
		return Vuln{}, fmt.Errorf("osv: get %s HTTP %d: %s", id, resp.StatusCode(), string(body))
	}
	// The body is decoded here rather than through SetResult, which skips
	// responses without a JSON Content-Type.
	var v Vuln
	if err := json.Unmarshal(resp.Body(), &v); err != nil {
		return Vuln{}, fmt.Errorf("osv: decode %s: %w", id, err)
	}
	return v, nil
}
