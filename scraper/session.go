package scraper

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"

	"github.com/humbal1/pierce-doc-links-scrapper/crawler"
	"github.com/humbal1/pierce-doc-links-scrapper/models"
)

// session is one incognito browser context with a single tab.
type session struct {
	incog      *rod.Browser
	page       *rod.Page
	router     *rod.HijackRouter
	navTimeout time.Duration
	logger     *slog.Logger
}

var errForeignElement = errors.New("scraper: element does not belong to this session")

func (s *session) Navigate(url string) error {
	p := s.page
	if s.navTimeout > 0 {
		p = p.Timeout(s.navTimeout)
		defer p.CancelTimeout()
	}
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("wait for %s to load: %w", url, err)
	}
	return nil
}

func (s *session) WaitFor(selector string, timeout time.Duration) (crawler.Element, error) {
	p := s.page.Timeout(timeout)
	defer p.CancelTimeout()

	el, err := p.Element(selector)
	if err != nil {
		return nil, fmt.Errorf("wait for %q: %w", selector, err)
	}
	// Detach the element from the timeout so later calls on it still work.
	return &element{el: el.Context(s.page.GetContext())}, nil
}

func (s *session) FindAll(selector string) ([]crawler.Element, error) {
	els, err := s.page.Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("find %q: %w", selector, err)
	}
	out := make([]crawler.Element, len(els))
	for i, el := range els {
		out[i] = &element{el: el}
	}
	return out, nil
}

// Click scrolls the element into view and clicks it from script, which also
// works on image inputs the page overlays.
func (s *session) Click(el crawler.Element) error {
	e, ok := el.(*element)
	if !ok {
		return errForeignElement
	}
	if err := e.el.ScrollIntoView(); err != nil {
		s.logger.Debug("scroll into view failed", "error", err)
	}
	if _, err := e.el.Eval(`() => this.click()`); err != nil {
		return fmt.Errorf("click: %w", err)
	}
	return nil
}

// SetValue replaces an input's value and fires the events the site's
// scripts listen for.
func (s *session) SetValue(el crawler.Element, text string) error {
	e, ok := el.(*element)
	if !ok {
		return errForeignElement
	}
	_, err := e.el.Eval(`(v) => {
		this.focus();
		this.value = v;
		this.dispatchEvent(new Event('input', { bubbles: true }));
		this.dispatchEvent(new Event('change', { bubbles: true }));
		this.blur();
	}`, text)
	if err != nil {
		return fmt.Errorf("set value: %w", err)
	}
	return nil
}

func (s *session) Content() (string, error) {
	html, err := s.page.HTML()
	if err != nil {
		return "", fmt.Errorf("read page html: %w", err)
	}
	return html, nil
}

// Cookies returns every cookie of the incognito context, not only those of
// the current URL.
func (s *session) Cookies() (models.CookieJar, error) {
	cookies, err := s.incog.GetCookies()
	if err != nil {
		return nil, fmt.Errorf("read cookies: %w", err)
	}
	jar := make(models.CookieJar, len(cookies))
	for _, c := range cookies {
		jar[c.Name] = c.Value
	}
	return jar, nil
}

// Close stops request interception, closes the tab and disposes the
// incognito context.
func (s *session) Close() error {
	if s.router != nil {
		_ = s.router.Stop()
	}
	if err := s.page.Close(); err != nil {
		s.logger.Debug("close page failed", "error", err)
	}
	return s.incog.Close()
}

// element adapts a rod element to crawler.Element.
type element struct {
	el *rod.Element
}

func (e *element) Text() (string, error) {
	return e.el.Text()
}

func (e *element) Attribute(name string) (*string, error) {
	return e.el.Attribute(name)
}

func (e *element) Selected() (bool, error) {
	v, err := e.el.Property("checked")
	if err != nil {
		return false, err
	}
	return v.Bool(), nil
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}
