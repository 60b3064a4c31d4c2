package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/CosmoTheDev/cgconsole/internal/metrics"
	"github.com/CosmoTheDev/cgconsole/models"
	"k8s.io/utils/clock"
)

// DefaultPollInterval is used when NewPoller is given a non-positive interval.
const DefaultPollInterval = 5 * time.Second

// StatusFetcher returns the backend's current detection snapshot.
type StatusFetcher interface {
	Status(ctx context.Context) (models.DetectionStatus, error)
}

// PollerState is Idle or Polling.
type PollerState int

const (
	Idle PollerState = iota
	Polling
)

func (s PollerState) String() string {
	if s == Polling {
		return "polling"
	}
	return "idle"
}

// Poller periodically fetches the detection status while a Subscription is
// live. Each tick's fetch runs on its own goroutine, so a slow response does
// not delay the next one.
type Poller struct {
	fetcher  StatusFetcher
	interval time.Duration
	clock    clock.WithTicker
	metrics  *metrics.Metrics

	mu  sync.Mutex
	sub *Subscription
}

// PollerOption customises a Poller.
type PollerOption func(*Poller)

// WithClock replaces the real clock, for tests.
func WithClock(c clock.WithTicker) PollerOption {
	return func(p *Poller) { p.clock = c }
}

func WithPollerMetrics(m *metrics.Metrics) PollerOption {
	return func(p *Poller) { p.metrics = m }
}

func NewPoller(fetcher StatusFetcher, interval time.Duration, opts ...PollerOption) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	p := &Poller{fetcher: fetcher, interval: interval, clock: clock.RealClock{}}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// State reports whether a subscription is live.
func (p *Poller) State() PollerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sub != nil {
		return Polling
	}
	return Idle
}

// Start moves the poller to Polling, fetches once immediately and then once
// per interval until the subscription is stopped or ctx is cancelled.
func (p *Poller) Start(ctx context.Context) (*Subscription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sub != nil {
		return nil, ErrAlreadyPolling
	}

	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		poller:    p,
		cancel:    cancel,
		snapshots: make(chan models.DetectionStatus, 1),
		done:      make(chan struct{}),
	}
	p.sub = sub

	ticker := p.clock.NewTicker(p.interval)
	go sub.loop(ctx, ticker)
	slog.Debug("poller: started", "interval", p.interval)
	return sub, nil
}

func (p *Poller) release(sub *Subscription) {
	p.mu.Lock()
	if p.sub == sub {
		p.sub = nil
	}
	p.mu.Unlock()
}

// Subscription is one Polling period. Snapshots are delivered in the order
// responses arrive; each replaces the previous one wholesale.
type Subscription struct {
	poller    *Poller
	cancel    context.CancelFunc
	snapshots chan models.DetectionStatus
	done      chan struct{}
	fetches   sync.WaitGroup
	stopOnce  sync.Once
}

// Snapshots is closed once the subscription has fully stopped.
func (s *Subscription) Snapshots() <-chan models.DetectionStatus {
	return s.snapshots
}

// Stop cancels the timer and waits for the loop and in-flight fetches to
// finish. It is safe to call more than once.
func (s *Subscription) Stop() {
	s.stopOnce.Do(s.cancel)
	<-s.done
}

// Done is closed once the subscription has fully stopped.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

func (s *Subscription) loop(ctx context.Context, ticker clock.Ticker) {
	defer close(s.done)
	defer s.poller.release(s)
	defer close(s.snapshots)
	defer s.fetches.Wait()
	defer ticker.Stop()

	s.fetch(ctx)
	for {
		select {
		case <-ctx.Done():
			slog.Debug("poller: stopped")
			return
		case <-ticker.C():
			s.fetch(ctx)
		}
	}
}

func (s *Subscription) fetch(ctx context.Context) {
	s.fetches.Add(1)
	go func() {
		defer s.fetches.Done()
		st, err := s.poller.fetcher.Status(ctx)
		s.poller.metrics.ObservePoll(err == nil)
		if err != nil {
			slog.Debug("poller: fetch failed", "error", err)
			return
		}
		if ctx.Err() != nil {
			return
		}
		vulnerable := 0
		for _, row := range st.Results {
			if row.Vulnerable {
				vulnerable++
			}
		}
		s.poller.metrics.ObserveSnapshot(len(st.Results), vulnerable)
		select {
		case s.snapshots <- st:
		case <-ctx.Done():
		}
	}()
}
