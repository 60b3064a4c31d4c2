package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/CosmoTheDev/cgconsole/internal/metrics"
	"github.com/CosmoTheDev/cgconsole/models"
)

// Form is what the operator filled in before submitting. Patch is raw text.
type Form struct {
	BugID   string
	Project string
	Commit  string
	Patch   string
	Method  string
	Date    string
}

// Outcome is the result of a transmitted submission. View is always
// ViewMonitoring; Err carries the backend's failure, if any, so the caller
// can show it without blocking navigation.
type Outcome struct {
	View    View
	Request models.DetectionJobRequest
	Err     error
}

// Executor submits detection jobs.
type Executor interface {
	Execute(ctx context.Context, req models.DetectionJobRequest) error
}

// Journal records every transmitted submission.
type Journal interface {
	Record(ctx context.Context, req models.DetectionJobRequest, source string, sendErr error) (string, error)
}

// Launcher validates forms and submits detection jobs.
type Launcher struct {
	exec    Executor
	strict  bool
	source  string
	journal Journal
	metrics *metrics.Metrics
}

// LauncherOption customises a Launcher.
type LauncherOption func(*Launcher)

// WithPassThrough forwards unknown methods to the backend unchanged.
func WithPassThrough() LauncherOption {
	return func(l *Launcher) { l.strict = false }
}

// WithJournal records submissions under source ("ui", "cli", "schedule").
func WithJournal(j Journal, source string) LauncherOption {
	return func(l *Launcher) {
		l.journal = j
		l.source = source
	}
}

func WithLauncherMetrics(m *metrics.Metrics) LauncherOption {
	return func(l *Launcher) { l.metrics = m }
}

// NewLauncher returns a Launcher that rejects unknown methods unless
// WithPassThrough is given.
func NewLauncher(exec Executor, opts ...LauncherOption) *Launcher {
	l := &Launcher{exec: exec, strict: true, source: "cli"}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Build validates form and turns it into a request. The date is normalized
// to YYYY-MM-DD.
func (l *Launcher) Build(form Form) (models.DetectionJobRequest, error) {
	method := models.Method(strings.TrimSpace(form.Method))
	if l.strict && !method.Known() {
		return models.DetectionJobRequest{}, fmt.Errorf("%w: %q (want one of %v)", ErrUnknownMethod, form.Method, models.Methods)
	}
	date, err := NormalizeDate(form.Date)
	if err != nil {
		return models.DetectionJobRequest{}, err
	}
	return models.DetectionJobRequest{
		BugID:       form.BugID,
		ProjectName: form.Project,
		Commit:      form.Commit,
		Patch:       form.Patch,
		Method:      method,
		Date:        date,
	}, nil
}

// Submit validates and transmits form. A validation failure is returned as
// the error and nothing is sent. Once the request is sent the outcome always
// leads to the monitoring view; a backend failure lands in Outcome.Err.
func (l *Launcher) Submit(ctx context.Context, form Form) (Outcome, error) {
	req, err := l.Build(form)
	if err != nil {
		return Outcome{View: ViewPrepare}, err
	}

	sendErr := l.exec.Execute(ctx, req)
	l.metrics.ObserveSubmission(l.source, sendErr == nil)
	if sendErr != nil {
		slog.Warn("workflow: detection submission failed", "bug", req.BugID, "project", req.ProjectName, "error", sendErr)
		sendErr = fmt.Errorf("submit detection for %s: %w", req.BugID, sendErr)
	} else {
		slog.Info("workflow: detection submitted", "bug", req.BugID, "project", req.ProjectName, "commit", req.Commit, "method", req.Method)
	}

	if l.journal != nil {
		if _, err := l.journal.Record(ctx, req, l.source, sendErr); err != nil {
			slog.Warn("workflow: journal write failed", "error", err)
		}
	}
	return Outcome{View: ViewMonitoring, Request: req, Err: sendErr}, nil
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006/01/02",
	"02.01.2006",
}

// NormalizeDate renders s as YYYY-MM-DD. Empty input means "no cutoff" and
// stays empty.
func NormalizeDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDate, s)
}
