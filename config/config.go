package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/humbal1/pierce-doc-links-scrapper/extractor"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Crawler   CrawlerConfig
	Jobs      JobsConfig
	Results   ResultsConfig
	Session   SessionConfig
	Sheets    SheetsConfig
	Webhook   WebhookConfig
	Proxy     ProxyConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 5000
	Mode string // "debug", "release", "test"; default: "release"

	// ShutdownTimeout bounds how long shutdown waits for running jobs.
	ShutdownTimeout time.Duration // default: 2m
}

// BrowserConfig controls the Rod browser used for crawl sessions.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// DefaultProxy is the proxy URL for all browser traffic.
	DefaultProxy string

	// UserAgent overrides the browser's user agent.
	UserAgent string

	// NavigationTimeout is the max time for a single page navigation.
	NavigationTimeout time.Duration // default: 30s

	// BlockedResourceTypes lists resource types to block during crawls.
	// Supported: "Image", "Stylesheet", "Font", "Media".
	BlockedResourceTypes []string // default: ["Image", "Font", "Media"]

	// BlockTrackers drops requests to known analytics and ad hosts.
	BlockTrackers bool // default: true
}

// CrawlerConfig controls the paginated crawl against the records site.
type CrawlerConfig struct {
	// BaseURL is the records site root.
	BaseURL string // default: "https://armsweb.co.pierce.wa.us"

	// MaxPages is the page ceiling per crawl.
	MaxPages int // default: 50

	DisclaimerTimeout time.Duration // default: 5s
	FormTimeout       time.Duration // default: 20s
	ResultsTimeout    time.Duration // default: 20s

	// Settle delays give the site's postbacks time to render.
	DisclaimerSettle time.Duration // default: 1s
	SearchPageSettle time.Duration // default: 2s
	CheckboxSettle   time.Duration // default: 500ms
	SubmitSettle     time.Duration // default: 5s
	RenderSettle     time.Duration // default: 3s
	NextPageSettle   time.Duration // default: 5s

	// CatalogTTL is how long the document-type list is cached; 0 disables caching.
	CatalogTTL time.Duration // default: 1h
}

// JobsConfig controls the job orchestrator.
type JobsConfig struct {
	// MaxConcurrent bounds simultaneously crawling jobs; 0 means unbounded.
	MaxConcurrent int // default: 0

	// Retention is how long finished jobs stay in the registry.
	Retention time.Duration // default: 24h

	// SyncSchedule is a cron expression for automatic work-queue syncs; empty disables it.
	SyncSchedule string
}

// ResultsConfig controls where extracted records are written.
type ResultsConfig struct {
	Dir    string // default: "results"
	Format string // "csv" or "xlsx"; default: "csv"
}

// SessionConfig controls the session cookie store.
type SessionConfig struct {
	// Backend is "badger" (durable) or "memory".
	Backend string // default: "badger"

	// Path is the Badger directory.
	Path string // default: "data/session"
}

// SheetsConfig controls the Google Sheets work queue.
type SheetsConfig struct {
	// SpreadsheetID enables the work queue when set.
	SpreadsheetID string

	// SheetName is the tab holding the queue.
	SheetName string // default: "Sheet1"

	// CredentialsJSON holds service-account JSON (takes precedence over the file).
	CredentialsJSON string

	// CredentialsFile is the service-account key file.
	CredentialsFile string // default: "google_credentials.json"

	StatusColumn string // default: "C"
	ResultColumn string // default: "D"
}

// Enabled reports whether a spreadsheet is configured.
func (c SheetsConfig) Enabled() bool {
	return c.SpreadsheetID != ""
}

// WebhookConfig controls job lifecycle webhooks.
type WebhookConfig struct {
	URL    string
	Secret string
}

// ProxyConfig controls the authenticated document image proxy.
type ProxyConfig struct {
	// AllowedHost is the only host the proxy will fetch from.
	AllowedHost string // default: "armsweb.co.pierce.wa.us"

	Timeout time.Duration // default: 30s
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: false

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 5

	// Burst is the maximum burst size per API key.
	Burst int // default: 10
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            envOr("PIERCE_HOST", "0.0.0.0"),
			Port:            envIntOr("PIERCE_PORT", envIntOr("PORT", 5000)),
			Mode:            envOr("PIERCE_MODE", "release"),
			ShutdownTimeout: envDurationOr("PIERCE_SHUTDOWN_TIMEOUT", 2*time.Minute),
		},
		Browser: BrowserConfig{
			Headless:             envBoolOr("PIERCE_HEADLESS", true),
			NoSandbox:            envBoolOr("PIERCE_NO_SANDBOX", false),
			BrowserBin:           os.Getenv("PIERCE_BROWSER_BIN"),
			DefaultProxy:         os.Getenv("PIERCE_PROXY"),
			UserAgent:            envOr("PIERCE_USER_AGENT", DefaultUserAgent),
			NavigationTimeout:    envDurationOr("PIERCE_NAV_TIMEOUT", 30*time.Second),
			BlockedResourceTypes: envSliceOr("PIERCE_BLOCKED_RESOURCES", []string{"Image", "Font", "Media"}),
			BlockTrackers:        envBoolOr("PIERCE_BLOCK_TRACKERS", true),
		},
		Crawler: CrawlerConfig{
			BaseURL:           strings.TrimRight(envOr("PIERCE_BASE_URL", extractor.DefaultBaseURL), "/"),
			MaxPages:          envIntOr("PIERCE_MAX_PAGES", 50),
			DisclaimerTimeout: envDurationOr("PIERCE_DISCLAIMER_TIMEOUT", 5*time.Second),
			FormTimeout:       envDurationOr("PIERCE_FORM_TIMEOUT", 20*time.Second),
			ResultsTimeout:    envDurationOr("PIERCE_RESULTS_TIMEOUT", 20*time.Second),
			DisclaimerSettle:  envDurationOr("PIERCE_DISCLAIMER_SETTLE", time.Second),
			SearchPageSettle:  envDurationOr("PIERCE_SEARCH_SETTLE", 2*time.Second),
			CheckboxSettle:    envDurationOr("PIERCE_CHECKBOX_SETTLE", 500*time.Millisecond),
			SubmitSettle:      envDurationOr("PIERCE_SUBMIT_SETTLE", 5*time.Second),
			RenderSettle:      envDurationOr("PIERCE_RENDER_SETTLE", 3*time.Second),
			NextPageSettle:    envDurationOr("PIERCE_NEXT_SETTLE", 5*time.Second),
			CatalogTTL:        envDurationOr("PIERCE_CATALOG_TTL", time.Hour),
		},
		Jobs: JobsConfig{
			MaxConcurrent: envIntOr("PIERCE_MAX_CONCURRENT_JOBS", 0),
			Retention:     envDurationOr("PIERCE_JOB_RETENTION", 24*time.Hour),
			SyncSchedule:  os.Getenv("PIERCE_SYNC_SCHEDULE"),
		},
		Results: ResultsConfig{
			Dir:    envOr("PIERCE_RESULTS_DIR", "results"),
			Format: strings.ToLower(envOr("PIERCE_RESULTS_FORMAT", "csv")),
		},
		Session: SessionConfig{
			Backend: strings.ToLower(envOr("PIERCE_SESSION_BACKEND", "badger")),
			Path:    envOr("PIERCE_SESSION_PATH", "data/session"),
		},
		Sheets: SheetsConfig{
			SpreadsheetID:   os.Getenv("PIERCE_SHEET_ID"),
			SheetName:       envOr("PIERCE_SHEET_NAME", "Sheet1"),
			CredentialsJSON: os.Getenv("GOOGLE_CREDENTIALS"),
			CredentialsFile: envOr("PIERCE_SHEET_CREDENTIALS_FILE", "google_credentials.json"),
			StatusColumn:    envOr("PIERCE_SHEET_STATUS_COLUMN", "C"),
			ResultColumn:    envOr("PIERCE_SHEET_RESULT_COLUMN", "D"),
		},
		Webhook: WebhookConfig{
			URL:    os.Getenv("PIERCE_WEBHOOK_URL"),
			Secret: os.Getenv("PIERCE_WEBHOOK_SECRET"),
		},
		Proxy: ProxyConfig{
			AllowedHost: envOr("PIERCE_PROXY_ALLOWED_HOST", "armsweb.co.pierce.wa.us"),
			Timeout:     envDurationOr("PIERCE_PROXY_TIMEOUT", 30*time.Second),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("PIERCE_AUTH_ENABLED", false),
			APIKeys: envSliceOr("PIERCE_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("PIERCE_RATE_RPS", 5.0),
			Burst:             envIntOr("PIERCE_RATE_BURST", 10),
		},
		Log: LogConfig{
			Level:  envOr("PIERCE_LOG_LEVEL", "info"),
			Format: envOr("PIERCE_LOG_FORMAT", "json"),
		},
	}
}

// DefaultUserAgent is a desktop Chrome user agent.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
