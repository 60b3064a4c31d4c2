// Package notify tells operators about vulnerable clones found by a
// detection run, over Slack, a signed webhook, email or Telegram.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Event types.
const (
	EventVulnerableClone  = "vulnerable_clone"
	EventSubmissionFailed = "submission_failed"
)

// Event is one notification.
type Event struct {
	Type       string
	Title      string
	Body       string
	BugID      string
	Project    string
	Location   string
	Confidence float64
}

// Channel is implemented by each notification provider.
type Channel interface {
	Name() string
	IsConfigured() bool
	Send(ctx context.Context, evt Event) error
}

func newHTTPClient() *resty.Client {
	return resty.New().SetTimeout(5 * time.Second).SetRetryCount(0)
}

// postJSON posts payload to url and fails on any non-2xx answer.
func postJSON(ctx context.Context, client *resty.Client, name, url string, payload []byte, headers map[string]string) error {
	resp, err := client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeaders(headers).
		SetBody(payload).
		Post(url)
	if err != nil {
		return err
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("%s returned %d", name, resp.StatusCode())
	}
	return nil
}

// confidenceColor maps a confidence to a Slack attachment colour. CHG
// patches score up to 2.0, so anything at or above 1 is strongest.
func confidenceColor(c float64) string {
	switch {
	case c >= 1:
		return "#FF0000"
	case c >= 0.75:
		return "#FF6600"
	case c >= 0.5:
		return "#FFAA00"
	case c > 0:
		return "#0099FF"
	default:
		return "#888888"
	}
}
