package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/humbal1/pierce-doc-links-scrapper/api"
	"github.com/humbal1/pierce-doc-links-scrapper/api/handler"
	"github.com/humbal1/pierce-doc-links-scrapper/cache"
	"github.com/humbal1/pierce-doc-links-scrapper/config"
	"github.com/humbal1/pierce-doc-links-scrapper/models"
	"github.com/humbal1/pierce-doc-links-scrapper/proxy"
	"github.com/humbal1/pierce-doc-links-scrapper/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP job API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("piercedocs starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"base_url", cfg.Crawler.BaseURL,
		"results_format", cfg.Results.Format,
	)

	if cfg.Jobs.SyncSchedule != "" {
		if err := scheduler.Validate(cfg.Jobs.SyncSchedule); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 3. Wire components ──────────────────────────────────────────
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	var queue handler.SheetQueue
	if a.sheets != nil {
		queue = a.sheets
	}

	// ── 4. Scheduled work-queue sync ────────────────────────────────
	var sched *scheduler.Scheduler
	if cfg.Jobs.SyncSchedule != "" {
		if queue == nil {
			slog.Warn("sync schedule ignored: no spreadsheet configured")
		} else {
			sched = scheduler.New(scheduler.SyncerFunc(func(ctx context.Context) ([]models.StartedJob, error) {
				return a.manager.SyncQueue(ctx, queue)
			}), slog.Default())
			if err := sched.Start(cfg.Jobs.SyncSchedule); err != nil {
				return err
			}
		}
	}

	// ── 5. Setup router ─────────────────────────────────────────────
	router, limiter := api.NewRouter(api.Deps{
		Jobs:      a.manager,
		Queue:     queue,
		Catalog:   cache.NewCatalog(a.crawler, cfg.Crawler.CatalogTTL),
		Results:   a.results,
		Proxy:     proxy.New(cfg.Proxy, a.sessions, proxy.WithUserAgent(cfg.Browser.UserAgent), proxy.WithLogger(slog.Default())),
		Sessions:  a.sessions,
		StartTime: time.Now(),
	}, cfg)
	defer limiter.Close()

	// ── 6. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// ── 7. Graceful shutdown ────────────────────────────────────────
	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	}

	if sched != nil {
		sched.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	waitForJobs(a, cfg.Server.ShutdownTimeout)
	slog.Info("piercedocs stopped")
	return nil
}

// waitForJobs lets running crawls finish, up to timeout.
func waitForJobs(a *app, timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		a.manager.Wait()
		if a.notifier != nil {
			a.notifier.Wait()
		}
		close(done)
	}()

	select {
	case <-done:
		slog.Info("all jobs finished")
	case <-time.After(timeout):
		stats := a.manager.Stats()
		slog.Warn("shutdown timeout reached with jobs still running", "running", stats.Running)
	}
}
