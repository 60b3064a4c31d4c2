package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/CosmoTheDev/cgconsole/internal/config"
	"github.com/CosmoTheDev/cgconsole/internal/metrics"
	"github.com/CosmoTheDev/cgconsole/models"
)

// Dispatcher fans out events to all configured channels.
type Dispatcher struct {
	channels      []Channel
	minConfidence float64
	metrics       *metrics.Metrics
}

// NewDispatcher keeps only the channels whose IsConfigured is true.
func NewDispatcher(cfg config.NotifyConfig, m *metrics.Metrics) *Dispatcher {
	return newDispatcher(cfg.MinConfidence, m,
		NewSlack(cfg.Slack),
		NewTelegram(cfg.Telegram),
		NewEmail(cfg.Email),
		NewWebhook(cfg.Webhook),
	)
}

func newDispatcher(minConfidence float64, m *metrics.Metrics, channels ...Channel) *Dispatcher {
	d := &Dispatcher{minConfidence: minConfidence, metrics: m}
	for _, ch := range channels {
		if ch.IsConfigured() {
			d.channels = append(d.channels, ch)
		}
	}
	return d
}

// IsAnyConfigured reports whether at least one channel is ready to send.
func (d *Dispatcher) IsAnyConfigured() bool {
	return len(d.channels) > 0
}

// Channels lists the active channel names.
func (d *Dispatcher) Channels() []string {
	names := make([]string, 0, len(d.channels))
	for _, ch := range d.channels {
		names = append(names, ch.Name())
	}
	return names
}

// Notify sends evt to all configured channels. Errors are logged but never returned.
func (d *Dispatcher) Notify(ctx context.Context, evt Event) {
	if evt.Type == EventVulnerableClone && evt.Confidence < d.minConfidence {
		return
	}
	for _, ch := range d.channels {
		err := ch.Send(ctx, evt)
		d.metrics.ObserveNotification(ch.Name(), err == nil)
		if err != nil {
			slog.Warn("notify: channel send failed", "channel", ch.Name(), "event", evt.Type, "error", err)
		}
	}
}

// Seen records rows that have already been announced.
type Seen interface {
	MarkNotified(ctx context.Context, row models.DetectionResultRow) (bool, error)
}

// memorySeen is the Seen used when no journal is available.
type memorySeen struct {
	mu   sync.Mutex
	keys map[string]bool
}

func (m *memorySeen) MarkNotified(_ context.Context, row models.DetectionResultRow) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.keys[row.Key()] {
		return false, nil
	}
	m.keys[row.Key()] = true
	return true, nil
}

// Watcher turns status snapshots into one event per newly vulnerable row.
// A row is identified by project and location, so a confidence change on
// the same row does not notify again.
type Watcher struct {
	dispatcher *Dispatcher
	seen       Seen
	bugID      string
}

// NewWatcher announces through d. A nil seen keeps state in memory.
func NewWatcher(d *Dispatcher, seen Seen, bugID string) *Watcher {
	if seen == nil {
		seen = &memorySeen{keys: map[string]bool{}}
	}
	return &Watcher{dispatcher: d, seen: seen, bugID: bugID}
}

// Observe inspects st and returns how many rows were announced.
func (w *Watcher) Observe(ctx context.Context, st models.DetectionStatus) int {
	announced := 0
	for _, row := range st.Results {
		if !row.Vulnerable {
			continue
		}
		fresh, err := w.seen.MarkNotified(ctx, row)
		if err != nil {
			slog.Warn("notify: recording row failed", "row", row.Key(), "error", err)
			continue
		}
		if !fresh {
			continue
		}
		w.dispatcher.Notify(ctx, w.event(row))
		announced++
	}
	return announced
}

func (w *Watcher) event(row models.DetectionResultRow) Event {
	title := fmt.Sprintf("Vulnerable clone in %s", row.ProjectName)
	if w.bugID != "" {
		title = fmt.Sprintf("Vulnerable clone of %s in %s", w.bugID, row.ProjectName)
	}
	return Event{
		Type:       EventVulnerableClone,
		Title:      title,
		Body:       fmt.Sprintf("%s at %s (confidence %.2f)", row.ProjectName, row.Location, row.Confidence),
		BugID:      w.bugID,
		Project:    row.ProjectName,
		Location:   row.Location,
		Confidence: row.Confidence,
	}
}
