package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/CosmoTheDev/cgconsole/internal/api"
	"github.com/CosmoTheDev/cgconsole/internal/config"
	"github.com/CosmoTheDev/cgconsole/internal/database"
	"github.com/CosmoTheDev/cgconsole/internal/journal"
	"github.com/CosmoTheDev/cgconsole/internal/metrics"
	"github.com/CosmoTheDev/cgconsole/internal/workflow"
	"github.com/charmbracelet/lipgloss"
)

var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#14B8A6")).
	MarginBottom(1)

var successStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#10B981"))

var warnStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#F59E0B"))

var dimStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#6B7280"))

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// env is what most commands need: configuration and a backend client.
type env struct {
	cfg     *config.Config
	backend *api.Client
	metrics *metrics.Metrics
}

func loadEnv(m *metrics.Metrics) (*env, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &env{
		cfg:     cfg,
		backend: api.New(cfg.Backend, api.WithMetrics(m)),
		metrics: m,
	}, nil
}

// openJournal opens and migrates the local submission journal.
func (e *env) openJournal(ctx context.Context) (*journal.Journal, database.DB, error) {
	db, err := database.New(e.cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}
	return journal.New(db), db, nil
}

// launcher builds a Launcher that journals under source. A nil journal
// skips journaling.
func (e *env) launcher(j *journal.Journal, source string) *workflow.Launcher {
	opts := []workflow.LauncherOption{workflow.WithLauncherMetrics(e.metrics)}
	if !e.cfg.Detection.StrictMethods {
		opts = append(opts, workflow.WithPassThrough())
	}
	if j != nil {
		opts = append(opts, workflow.WithJournal(j, source))
	}
	return workflow.NewLauncher(e.backend, opts...)
}

func (e *env) poller() *workflow.Poller {
	return workflow.NewPoller(e.backend, e.cfg.Detection.Interval(), workflow.WithPollerMetrics(e.metrics))
}

// setupFileLogger sends slog output to path, and also to stdout when tee is
// set. The returned func closes the file.
func setupFileLogger(path string, tee bool) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log dir %s: %w", filepath.Dir(path), err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	var w io.Writer = f
	if tee {
		w = io.MultiWriter(os.Stdout, f)
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: verbose,
	})
	slog.SetDefault(slog.New(handler))

	return func() { _ = f.Close() }, nil
}

func readPatchFile(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading patch from stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading patch file: %w", err)
	}
	return string(data), nil
}
