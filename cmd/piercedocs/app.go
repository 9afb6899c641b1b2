package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/humbal1/pierce-doc-links-scrapper/config"
	"github.com/humbal1/pierce-doc-links-scrapper/crawler"
	"github.com/humbal1/pierce-doc-links-scrapper/jobs"
	"github.com/humbal1/pierce-doc-links-scrapper/results"
	"github.com/humbal1/pierce-doc-links-scrapper/scraper"
	"github.com/humbal1/pierce-doc-links-scrapper/session"
	"github.com/humbal1/pierce-doc-links-scrapper/sheets"
	"github.com/humbal1/pierce-doc-links-scrapper/webhook"
)

// app holds the wired components shared by the subcommands.
type app struct {
	cfg      *config.Config
	launcher *scraper.Launcher
	sessions session.Store
	crawler  *crawler.Crawler
	results  *results.Store
	sheets   *sheets.Client    // nil when no spreadsheet is configured
	registry *jobs.Registry
	manager  *jobs.Manager
	notifier *webhook.Notifier // nil when no webhook is configured

	closers []func() error
}

// newApp builds every component from cfg. Call close when done.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	// ── 1. Session cookie store ─────────────────────────────────────
	switch cfg.Session.Backend {
	case "memory":
		a.sessions = session.NewMemoryStore()
	case "badger", "":
		bs, err := session.OpenBadgerStore(cfg.Session.Path, slog.Default())
		if err != nil {
			return nil, err
		}
		a.sessions = bs
		a.closers = append(a.closers, bs.Close)
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
	}

	// ── 2. Browser + crawler ────────────────────────────────────────
	a.launcher = scraper.NewLauncher(cfg.Browser, slog.Default())
	a.closers = append(a.closers, a.launcher.Close)
	a.crawler = crawler.New(a.launcher, a.sessions, cfg.Crawler, crawler.WithLogger(slog.Default()))

	// ── 3. Result files ─────────────────────────────────────────────
	rs, err := results.New(cfg.Results.Dir, cfg.Results.Format, slog.Default())
	if err != nil {
		a.close()
		return nil, err
	}
	a.results = rs

	// ── 4. Optional work queue ──────────────────────────────────────
	if cfg.Sheets.Enabled() {
		sc, err := sheets.New(ctx, cfg.Sheets, slog.Default())
		if err != nil {
			a.close()
			return nil, err
		}
		a.sheets = sc
		slog.Info("work queue enabled", "spreadsheet", cfg.Sheets.SpreadsheetID, "sheet", cfg.Sheets.SheetName)
	}

	// ── 5. Jobs ─────────────────────────────────────────────────────
	a.registry = jobs.NewRegistry(cfg.Jobs.Retention)
	opts := []jobs.Option{
		jobs.WithResultSink(a.results),
		jobs.WithMaxConcurrent(cfg.Jobs.MaxConcurrent),
		jobs.WithMaxPages(cfg.Crawler.MaxPages),
		jobs.WithLogger(slog.Default()),
	}
	if a.sheets != nil {
		opts = append(opts, jobs.WithStatusSink(a.sheets))
	}
	if cfg.Webhook.URL != "" {
		a.notifier = webhook.New(cfg.Webhook.URL, cfg.Webhook.Secret, webhook.WithLogger(slog.Default()))
		opts = append(opts, jobs.WithListener(a.notifier))
	}
	a.manager = jobs.NewManager(a.registry, a.crawler, opts...)

	return a, nil
}

// close releases the browser and stores in reverse order of creation.
func (a *app) close() {
	if a.registry != nil {
		a.registry.Close()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			slog.Warn("close failed", "error", err)
		}
	}
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}
