// Package scheduler submits detection runs on cron expressions taken from
// the configuration file.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/CosmoTheDev/cgconsole/internal/config"
	"github.com/robfig/cron/v3"
)

// RunFunc performs one scheduled detection run.
type RunFunc func(ctx context.Context, sched config.ScheduleConfig) error

// Scheduler registers schedules with robfig/cron and calls run when one fires.
type Scheduler struct {
	cron *cron.Cron
	run  RunFunc

	mu        sync.Mutex
	ctx       context.Context
	schedules map[string]config.ScheduleConfig
	entries   map[string]cron.EntryID // schedule name → cron entry id
}

func New(run RunFunc) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		run:       run,
		ctx:       context.Background(),
		schedules: make(map[string]config.ScheduleConfig),
		entries:   make(map[string]cron.EntryID),
	}
}

// Validate checks that expr is parseable by robfig/cron without adding it
// permanently to any runner.
func Validate(expr string) error {
	tmp := cron.New()
	id, err := tmp.AddFunc(expr, func() {})
	if err != nil {
		return err
	}
	tmp.Remove(id)
	return nil
}

// Load registers every enabled schedule. Schedules with an invalid
// expression, a missing name or a duplicate name are skipped with a warning.
// It returns the number registered.
func (s *Scheduler) Load(schedules []config.ScheduleConfig) int {
	loaded := 0
	for _, sched := range schedules {
		if !sched.Enabled {
			continue
		}
		if err := s.register(sched); err != nil {
			slog.Warn("scheduler: skipping schedule",
				"name", sched.Name, "expr", sched.Expr, "error", err)
			continue
		}
		loaded++
	}
	return loaded
}

func (s *Scheduler) register(sched config.ScheduleConfig) error {
	if sched.Name == "" {
		return fmt.Errorf("schedule has no name")
	}
	if sched.BugID == "" || sched.Project == "" {
		return fmt.Errorf("schedule %q needs bug_id and project", sched.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.schedules[sched.Name]; dup {
		return fmt.Errorf("duplicate schedule name %q", sched.Name)
	}
	entryID, err := s.cron.AddFunc(sched.Expr, func() { s.fire(sched) })
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", sched.Expr, err)
	}
	s.schedules[sched.Name] = sched
	s.entries[sched.Name] = entryID
	return nil
}

func (s *Scheduler) fire(sched config.ScheduleConfig) {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	slog.Info("scheduler: schedule fired", "name", sched.Name, "bug", sched.BugID, "project", sched.Project)
	if err := s.run(ctx, sched); err != nil {
		slog.Warn("scheduler: run failed", "name", sched.Name, "error", err)
	}
}

// Start runs the cron loop until Stop is called. Runs fired by cron use ctx.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	n := len(s.entries)
	s.mu.Unlock()
	s.cron.Start()
	slog.Info("scheduler started", "schedules_loaded", n)
}

// Stop halts the cron runner and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Names lists the registered schedules in order.
func (s *Scheduler) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.schedules))
	for name := range s.schedules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TriggerNow runs the named schedule immediately, regardless of its expression.
func (s *Scheduler) TriggerNow(ctx context.Context, name string) error {
	s.mu.Lock()
	sched, ok := s.schedules[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown schedule %q", name)
	}
	return s.run(ctx, sched)
}
