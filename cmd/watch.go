package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/CosmoTheDev/cgconsole/internal/metrics"
	"github.com/CosmoTheDev/cgconsole/internal/notify"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var (
	watchMetricsAddr string
	watchLogDir      string
	watchBug         string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow detection status headlessly and notify on vulnerable clones",
	Long: `Polls the backend's detection status until interrupted. Every vulnerable
row seen for the first time is announced on the configured notification
channels (notify.slack, notify.webhook, notify.email, notify.telegram).
Announced rows are remembered in the local journal, so restarting the
watcher does not repeat them.

With --metrics-addr, Prometheus metrics are served at /metrics.`,
	Example: `  cgconsole watch --bug CVE-2014-0160 --metrics-addr 127.0.0.1:9464`,
	RunE:    runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	watchCmd.Flags().StringVar(&watchLogDir, "log-dir", "logs", "directory to write watcher logs to")
	watchCmd.Flags().StringVar(&watchBug, "bug", "", "bug the running detection is for, used in notifications")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	closeLog, err := setupFileLogger(filepath.Join(watchLogDir, "watch.log"), true)
	if err != nil {
		return fmt.Errorf("initialising watcher logger: %w", err)
	}
	defer closeLog()

	registry := prometheus.NewRegistry()
	m, err := metrics.New(registry)
	if err != nil {
		return err
	}

	e, err := loadEnv(m)
	if err != nil {
		return err
	}
	j, db, err := e.openJournal(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	dispatcher := notify.NewDispatcher(e.cfg.Notify, m)
	watcher := notify.NewWatcher(dispatcher, j, watchBug)

	if watchMetricsAddr != "" {
		stop := serveMetrics(ctx, watchMetricsAddr, registry)
		defer stop()
	}

	fmt.Printf("cgconsole watch starting\n")
	fmt.Printf("  Backend    : %s\n", e.backend.BaseURL())
	fmt.Printf("  Interval   : %s\n", e.cfg.Detection.Interval())
	if dispatcher.IsAnyConfigured() {
		fmt.Printf("  Notify     : %v\n", dispatcher.Channels())
	} else {
		fmt.Println(warnStyle.Render("  Notify     : no channels configured"))
	}
	if watchMetricsAddr != "" {
		fmt.Printf("  Metrics    : http://%s/metrics\n", watchMetricsAddr)
	}
	fmt.Println()
	fmt.Println("Press Ctrl+C to stop.")

	sub, err := e.poller().Start(ctx)
	if err != nil {
		return err
	}
	defer sub.Stop()

	for st := range sub.Snapshots() {
		vulnerable := 0
		for _, row := range st.Results {
			if row.Vulnerable {
				vulnerable++
			}
		}
		announced := watcher.Observe(ctx, st)
		slog.Info("watch: status", "rows", len(st.Results), "vulnerable", vulnerable, "announced", announced)
	}
	slog.Info("watch: stopped")
	return nil
}

// serveMetrics serves registry on addr until ctx is done. The returned func
// shuts the server down.
func serveMetrics(ctx context.Context, addr string, registry *prometheus.Registry) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.HTTPErrorOnError,
	}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", "addr", addr, "error", err)
		}
	}()
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
}
