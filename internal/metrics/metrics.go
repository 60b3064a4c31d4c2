// Package metrics provides Prometheus metrics for backend requests, status
// polling and notifications. A nil *Metrics is valid and records nothing.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains the console's Prometheus collectors.
type Metrics struct {
	RequestsTotal      *prometheus.CounterVec // requests by endpoint and outcome
	PollsTotal         *prometheus.CounterVec // status polls by outcome
	ResultRows         prometheus.Gauge       // rows in the latest snapshot
	VulnerableRows     prometheus.Gauge       // vulnerable rows in the latest snapshot
	NotificationsTotal *prometheus.CounterVec // deliveries by channel and outcome
	SubmissionsTotal   *prometheus.CounterVec // detection submissions by source and outcome
}

// New creates the collectors and registers them on registry.
func New(registry prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cgconsole_backend_requests_total",
				Help: "Backend requests by endpoint and outcome",
			},
			[]string{"endpoint", "outcome"},
		),
		PollsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cgconsole_status_polls_total",
				Help: "Detection status polls by outcome",
			},
			[]string{"outcome"},
		),
		ResultRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cgconsole_detection_result_rows",
			Help: "Rows in the most recent detection status snapshot",
		}),
		VulnerableRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cgconsole_detection_vulnerable_rows",
			Help: "Vulnerable rows in the most recent detection status snapshot",
		}),
		NotificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cgconsole_notifications_total",
				Help: "Notification deliveries by channel and outcome",
			},
			[]string{"channel", "outcome"},
		),
		SubmissionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cgconsole_submissions_total",
				Help: "Detection job submissions by source and outcome",
			},
			[]string{"source", "outcome"},
		),
	}
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	return m, nil
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.RequestsTotal.Describe(ch)
	m.PollsTotal.Describe(ch)
	m.ResultRows.Describe(ch)
	m.VulnerableRows.Describe(ch)
	m.NotificationsTotal.Describe(ch)
	m.SubmissionsTotal.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.RequestsTotal.Collect(ch)
	m.PollsTotal.Collect(ch)
	m.ResultRows.Collect(ch)
	m.VulnerableRows.Collect(ch)
	m.NotificationsTotal.Collect(ch)
	m.SubmissionsTotal.Collect(ch)
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "error"
}

func (m *Metrics) ObserveRequest(endpoint string, ok bool) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(endpoint, outcome(ok)).Inc()
}

func (m *Metrics) ObservePoll(ok bool) {
	if m == nil {
		return
	}
	m.PollsTotal.WithLabelValues(outcome(ok)).Inc()
}

// ObserveSnapshot records the size of the latest status snapshot.
func (m *Metrics) ObserveSnapshot(rows, vulnerable int) {
	if m == nil {
		return
	}
	m.ResultRows.Set(float64(rows))
	m.VulnerableRows.Set(float64(vulnerable))
}

func (m *Metrics) ObserveNotification(channel string, ok bool) {
	if m == nil {
		return
	}
	m.NotificationsTotal.WithLabelValues(channel, outcome(ok)).Inc()
}

func (m *Metrics) ObserveSubmission(source string, ok bool) {
	if m == nil {
		return
	}
	m.SubmissionsTotal.WithLabelValues(source, outcome(ok)).Inc()
}
