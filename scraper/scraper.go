// Package scraper implements the crawler's browser sessions on top of a
// headless Chromium driven by go-rod.
package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/humbal1/pierce-doc-links-scrapper/config"
	"github.com/humbal1/pierce-doc-links-scrapper/crawler"
)

// Launcher owns one browser process and hands out isolated incognito
// sessions from it. The browser starts on the first Launch.
// It is safe for concurrent use.
type Launcher struct {
	cfg    config.BrowserConfig
	logger *slog.Logger

	mu      sync.Mutex
	browser *rod.Browser
}

// NewLauncher creates a Launcher. No browser is started until Launch.
func NewLauncher(cfg config.BrowserConfig, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Launcher{cfg: cfg, logger: logger}
}

// Launch implements crawler.Launcher. Every session is a fresh incognito
// context, so cookies never leak between crawls.
func (l *Launcher) Launch(ctx context.Context) (crawler.Session, error) {
	browser, err := l.ensureBrowser()
	if err != nil {
		return nil, err
	}

	incog, err := browser.Incognito()
	if err != nil {
		return nil, fmt.Errorf("scraper: create incognito context: %w", err)
	}

	page, err := incog.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = incog.Close()
		return nil, fmt.Errorf("scraper: create page: %w", err)
	}

	// ── Stealth + identity before the first navigation ─────────────
	if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
		l.logger.Warn("stealth injection failed, proceeding without stealth", "error", err)
	}
	if l.cfg.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent:      l.cfg.UserAgent,
			AcceptLanguage: "en-US,en;q=0.9",
		}); err != nil {
			l.logger.Warn("failed to override user agent", "error", err)
		}
	}
	_ = proto.NetworkSetExtraHTTPHeaders{
		Headers: toHeadersMap(map[string]string{"Accept-Language": "en-US,en;q=0.9"}),
	}.Call(page)

	_ = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{Width: 1920, Height: 1080})

	router := setupHijack(page, l.cfg.BlockedResourceTypes, l.cfg.BlockTrackers)

	return &session{
		incog:      incog,
		page:       page.Context(context.WithoutCancel(ctx)),
		router:     router,
		navTimeout: l.cfg.NavigationTimeout,
		logger:     l.logger,
	}, nil
}

// ensureBrowser launches and connects the shared browser on first use.
func (l *Launcher) ensureBrowser() (*rod.Browser, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.browser != nil {
		return l.browser, nil
	}

	lc := launcher.New().
		Headless(l.cfg.Headless).
		NoSandbox(l.cfg.NoSandbox)

	if l.cfg.BrowserBin != "" {
		lc = lc.Bin(l.cfg.BrowserBin)
	}
	if l.cfg.DefaultProxy != "" {
		lc = lc.Proxy(l.cfg.DefaultProxy)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	lc.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	lc.Delete(flags.Flag("enable-automation"))
	lc.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	lc.Set(flags.Flag("window-size"), "1920,1080")
	lc.Set(flags.Flag("disable-gpu"))
	lc.Set(flags.Flag("disable-dev-shm-usage"))
	lc.Set(flags.Flag("disable-extensions"))
	lc.Set(flags.Flag("disable-popup-blocking"))
	lc.Set(flags.Flag("disable-background-timer-throttling"))
	lc.Set(flags.Flag("disable-renderer-backgrounding"))
	lc.Set(flags.Flag("no-first-run"))

	controlURL, err := lc.Launch()
	if err != nil {
		return nil, fmt.Errorf("scraper: launch browser: %w", err)
	}
	l.logger.Info("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("scraper: connect to browser: %w", err)
	}

	l.browser = browser
	return browser, nil
}

// Close kills the browser process. Call this on shutdown to avoid zombie
// Chrome processes. Sessions still open become unusable.
func (l *Launcher) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.browser == nil {
		return nil
	}
	l.logger.Info("closing browser")
	err := l.browser.Close()
	l.browser = nil
	return err
}
