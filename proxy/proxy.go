// Package proxy fetches document images from the records site using the
// session cookies captured by the last crawl.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/humbal1/pierce-doc-links-scrapper/config"
	"github.com/humbal1/pierce-doc-links-scrapper/session"
)

const refererPath = "/RealEstate/SearchResults.aspx"

var (
	// ErrMissingURL is returned for an empty target.
	ErrMissingURL = errors.New("url parameter required")

	// ErrHostNotAllowed is returned for targets outside the records site.
	ErrHostNotAllowed = errors.New("only Pierce County URLs allowed")
)

// UpstreamError reports a non-200 answer from the records site.
type UpstreamError struct {
	Status int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("Pierce County returned %d - session may have expired. Run a new scrape to refresh cookies.", e.Status)
}

// Response is a proxied document. The caller must close Body.
type Response struct {
	ContentType   string
	ContentLength int64
	Body          io.ReadCloser
}

// Fetcher performs cookie-authenticated GETs against one allowed host.
type Fetcher struct {
	allowedHost string
	store       session.Store
	client      *http.Client
	userAgent   string
	logger      *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTransport replaces the Chrome-fingerprint transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(f *Fetcher) { f.client.Transport = rt }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) { f.userAgent = ua }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) { f.logger = l }
}

// New creates a Fetcher reading cookies from store.
func New(cfg config.ProxyConfig, store session.Store, opts ...Option) *Fetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	f := &Fetcher{
		allowedHost: strings.ToLower(cfg.AllowedHost),
		store:       store,
		client:      &http.Client{Timeout: timeout, Transport: newChromeTransport()},
		userAgent:   config.DefaultUserAgent,
		logger:      slog.Default(),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Allowed reports whether target points at the records site.
func (f *Fetcher) Allowed(target string) bool {
	u, err := url.Parse(target)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == f.allowedHost || strings.HasSuffix(host, "."+f.allowedHost)
}

// Fetch retrieves target with the stored session cookies attached.
func (f *Fetcher) Fetch(ctx context.Context, target string) (*Response, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, ErrMissingURL
	}
	if !f.Allowed(target) {
		return nil, ErrHostNotAllowed
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("proxy: build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Referer", req.URL.Scheme+"://"+req.URL.Host+refererPath)

	jar, err := f.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("proxy: load session cookies: %w", err)
	}
	if len(jar) == 0 {
		f.logger.Warn("no session cookies found, image may not load")
	} else {
		f.logger.Debug("loaded session cookies for proxy", "count", len(jar))
	}
	for name, value := range jar {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("proxy: request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &UpstreamError{Status: resp.StatusCode}
	}

	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/octet-stream"
	}
	return &Response{ContentType: ct, ContentLength: resp.ContentLength, Body: resp.Body}, nil
}
