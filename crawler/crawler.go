// Package crawler runs one search-and-paginate scrape of the recorded-documents
// site for a single document type.
//
// The crawler never touches the job registry: every status line goes through
// the ProgressSink handed to Crawl. Browser access goes through the Session
// interface so the crawl can run against a fake in tests.
package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/humbal1/pierce-doc-links-scrapper/config"
	"github.com/humbal1/pierce-doc-links-scrapper/extractor"
	"github.com/humbal1/pierce-doc-links-scrapper/models"
	"github.com/humbal1/pierce-doc-links-scrapper/session"
)

// DefaultMaxPages is used when neither the caller nor the config sets a ceiling.
const DefaultMaxPages = 50

// ProgressSink receives human-readable status lines. It may be nil.
type ProgressSink func(message string)

// Report is what a crawl gathered. Crawl always returns a non-nil Report,
// including on error.
type Report struct {
	DocumentType string
	Records      []models.Record
	Pages        int

	// DocumentTypeFound is false when the search form had no matching option.
	DocumentTypeFound bool
}

// Crawler drives crawls against one site. It is safe for concurrent use:
// every crawl launches its own Session.
type Crawler struct {
	launcher  Launcher
	store     session.Store
	extractor *extractor.Extractor
	site      Site
	cfg       config.CrawlerConfig
	logger    *slog.Logger
}

// Option customises a Crawler.
type Option func(*Crawler)

// WithSite overrides the site selectors.
func WithSite(site Site) Option {
	return func(c *Crawler) { c.site = site }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Crawler) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Crawler. store receives the cookie jar at the end of every
// crawl and may be nil.
func New(launcher Launcher, store session.Store, cfg config.CrawlerConfig, opts ...Option) *Crawler {
	base := cfg.BaseURL
	if base == "" {
		base = extractor.DefaultBaseURL
	}
	c := &Crawler{
		launcher:  launcher,
		store:     store,
		extractor: extractor.New(base),
		site:      PierceCounty(base),
		cfg:       cfg,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Crawl searches for documentType and extracts every results page, up to
// maxPages (<= 0 uses the configured ceiling).
//
// A document type missing from the search form is not an error: the report
// comes back empty with DocumentTypeFound false. Fatal step failures return a
// *models.CrawlError together with whatever records were already gathered.
// The session's cookies are saved and the session released on every path.
func (c *Crawler) Crawl(ctx context.Context, documentType string, maxPages int, sink ProgressSink) (*Report, error) {
	if maxPages <= 0 {
		maxPages = c.cfg.MaxPages
	}
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	r := c.newRun(ctx, documentType, maxPages, sink)
	r.log("Starting scrape for: " + documentType)

	// ── 1. Fresh session per crawl ──────────────────────────────────
	sess, err := c.launcher.Launch(ctx)
	if err != nil {
		r.log("Error: could not start browser: " + err.Error())
		return r.report, models.NewCrawlError(
			models.ErrCodeBrowserLaunch,
			"failed to launch browser session",
			err,
		)
	}
	r.sess = sess

	// ── 7-8. Deferred in reverse: cookies are captured, then the session released.
	defer r.release()
	defer r.captureCookies()

	if se := r.execute(); se != nil {
		r.log("Error: " + se.Error())
		c.logger.Warn("crawl stopped",
			"document_type", documentType,
			"step", se.Step,
			"records", len(r.report.Records),
			"error", se.Err,
		)
		return r.report, se.asCrawlError()
	}

	if r.report.DocumentTypeFound {
		r.log(fmt.Sprintf("Scraping complete, total records: %d", len(r.report.Records)))
	}
	return r.report, nil
}

// run is the state of one crawl.
type run struct {
	*Crawler
	ctx          context.Context
	sess         Session
	documentType string
	maxPages     int
	sink         ProgressSink
	report       *Report
}

func (c *Crawler) newRun(ctx context.Context, documentType string, maxPages int, sink ProgressSink) *run {
	return &run{
		Crawler:      c,
		ctx:          ctx,
		documentType: documentType,
		maxPages:     maxPages,
		sink:         sink,
		report: &Report{
			DocumentType: documentType,
			Records:      []models.Record{},
		},
	}
}

func (r *run) execute() *StepError {
	// ── 2. Site root + disclaimer ───────────────────────────────────
	if se := r.openSite(); se != nil {
		return se
	}

	// ── 3. Search form, date filters cleared ────────────────────────
	if se := r.openSearch(); se != nil {
		return se
	}
	if se := r.clearDates(); se != nil {
		r.note("Could not clear dates", se)
	} else {
		r.log("Cleared date filters")
	}

	// ── 4-5. Document type selection + submit ───────────────────────
	found, se := r.selectDocumentType()
	if se != nil || !found {
		return se
	}
	if se := r.submit(); se != nil {
		return se
	}

	// ── 6. Page loop ────────────────────────────────────────────────
	return r.paginate()
}

func (r *run) openSite() *StepError {
	if err := r.sess.Navigate(r.site.RootURL); err != nil {
		return fatal("open site", models.ErrCodeNavigation, err)
	}
	r.log("Loaded records site")

	if se := r.acceptDisclaimer(); se != nil {
		r.note("No disclaimer to accept", se)
		return nil
	}
	r.log("Accepted disclaimer")
	return r.wait(r.cfg.DisclaimerSettle)
}

func (r *run) acceptDisclaimer() *StepError {
	el, err := r.sess.WaitFor(r.site.DisclaimerAccept, r.cfg.DisclaimerTimeout)
	if err != nil {
		return transient("accept disclaimer", err)
	}
	if err := r.sess.Click(el); err != nil {
		return transient("accept disclaimer", err)
	}
	return nil
}

func (r *run) openSearch() *StepError {
	if err := r.sess.Navigate(r.site.SearchURL); err != nil {
		return fatal("open search page", models.ErrCodeNavigation, err)
	}
	if se := r.wait(r.cfg.SearchPageSettle); se != nil {
		return se
	}
	r.log("Loaded search page")
	return nil
}

func (r *run) clearDates() *StepError {
	for _, sel := range []string{r.site.DateFrom, r.site.DateTo} {
		el, se := r.first("clear dates", sel)
		if se != nil {
			return se
		}
		if err := r.sess.SetValue(el, ""); err != nil {
			return transient("clear dates", err)
		}
	}
	return nil
}

// selectDocumentType ticks the option whose label matches the job's document
// type. It reports false, without error, when no option matches.
func (r *run) selectDocumentType() (bool, *StepError) {
	r.log(fmt.Sprintf("Selecting '%s'...", r.documentType))

	if _, err := r.sess.WaitFor(r.site.DocTypeControl, r.cfg.FormTimeout); err != nil {
		return false, fatal("find document type control", models.ErrCodeSearchForm, err)
	}
	labels, err := r.sess.FindAll(r.site.DocTypeLabels)
	if err != nil {
		return false, fatal("list document types", models.ErrCodeSearchForm, err)
	}

	for _, label := range labels {
		text, err := label.Text()
		if err != nil || strings.TrimSpace(text) != r.documentType {
			continue
		}
		if se := r.tick(label); se != nil {
			return false, se
		}
		r.report.DocumentTypeFound = true
		r.log("Selected: " + r.documentType)
		return true, nil
	}

	r.log("Document type not found: " + r.documentType)
	return false, nil
}

// tick checks the checkbox a label points at, leaving it alone when already checked.
func (r *run) tick(label Element) *StepError {
	const step = "select document type"

	id, err := label.Attribute("for")
	if err != nil {
		return fatal(step, models.ErrCodeSearchForm, err)
	}
	if id == nil || *id == "" {
		return fatal(step, models.ErrCodeSearchForm, errNoFor)
	}

	box, se := r.first(step, "#"+*id)
	if se != nil {
		se.Severity, se.Code = Fatal, models.ErrCodeSearchForm
		return se
	}
	if se := r.wait(r.cfg.CheckboxSettle); se != nil {
		return se
	}

	checked, err := box.Selected()
	if err != nil {
		return fatal(step, models.ErrCodeSearchForm, err)
	}
	if !checked {
		if err := r.sess.Click(box); err != nil {
			return fatal(step, models.ErrCodeSearchForm, err)
		}
	}
	return nil
}

func (r *run) submit() *StepError {
	button, se := r.first("submit search", r.site.SearchButton)
	if se != nil {
		se.Severity, se.Code = Fatal, models.ErrCodeSearchForm
		return se
	}
	if err := r.sess.Click(button); err != nil {
		return fatal("submit search", models.ErrCodeNavigation, err)
	}
	if se := r.wait(r.cfg.SubmitSettle); se != nil {
		return se
	}
	r.log("Search submitted")
	return nil
}

func (r *run) paginate() *StepError {
	for page := 1; ; page++ {
		r.log(fmt.Sprintf("Scraping page %d...", page))

		if _, err := r.sess.WaitFor(r.site.ResultsTable, r.cfg.ResultsTimeout); err != nil {
			r.log("Results table not found")
			if page == 1 {
				return fatal("wait for results", models.ErrCodeResultsMissing, err)
			}
			return nil
		}
		if se := r.wait(r.cfg.RenderSettle); se != nil {
			return se
		}

		content, err := r.sess.Content()
		if err != nil {
			return fatal("read results page", models.ErrCodeNavigation, err)
		}
		records := r.extractor.ExtractPage(content, r.documentType)
		r.report.Records = append(r.report.Records, records...)
		r.report.Pages = page
		r.log(fmt.Sprintf("Extracted %d records from page %d", len(records), page))

		if page >= r.maxPages {
			r.log("Reached page limit")
			return nil
		}

		more, se := r.nextPage()
		if se != nil {
			msg := "Next button not found"
			if se.Step == stepClickNext {
				msg = "Could not open next page"
			}
			r.note(msg, se)
			return nil
		}
		if !more {
			r.log("No more pages")
			return nil
		}
		if se := r.wait(r.cfg.NextPageSettle); se != nil {
			return se
		}
	}
}

const (
	stepFindNext  = "find next page"
	stepClickNext = "click next page"
)

// nextPage activates the pager's next button. It reports false when the
// button is disabled.
func (r *run) nextPage() (bool, *StepError) {
	button, se := r.first(stepFindNext, r.site.NextPage)
	if se != nil {
		return false, se
	}
	src, err := button.Attribute("src")
	if err != nil {
		return false, transient(stepFindNext, err)
	}
	if src != nil && strings.Contains(*src, r.site.NextDisabledMarker) {
		return false, nil
	}
	if err := r.sess.Click(button); err != nil {
		return false, transient(stepClickNext, err)
	}
	return true, nil
}

// first returns the first element matching sel. Absence is a transient failure
// that callers may upgrade.
func (r *run) first(step, sel string) (Element, *StepError) {
	els, err := r.sess.FindAll(sel)
	if err != nil {
		return nil, transient(step, err)
	}
	if len(els) == 0 {
		return nil, transient(step, fmt.Errorf("%s: %w", sel, errNotFound))
	}
	return els[0], nil
}

func (r *run) captureCookies() {
	if r.store == nil {
		return
	}
	jar, err := r.sess.Cookies()
	if err != nil {
		r.logger.Warn("failed to read session cookies", "document_type", r.documentType, "error", err)
		return
	}
	if err := r.store.Save(context.WithoutCancel(r.ctx), jar); err != nil {
		r.logger.Warn("failed to save session cookies", "document_type", r.documentType, "error", err)
		return
	}
	r.logger.Debug("session cookies captured", "document_type", r.documentType, "count", len(jar))
}

func (r *run) release() {
	if err := r.sess.Close(); err != nil {
		r.logger.Warn("failed to close browser session", "document_type", r.documentType, "error", err)
	}
	r.log("Browser closed")
}

// wait sleeps for a settle delay. Only a cancelled context interrupts it.
func (r *run) wait(d time.Duration) *StepError {
	if err := sleep(r.ctx, d); err != nil {
		return fatal("wait", models.ErrCodeNavigation, err)
	}
	return nil
}

// note records a transient failure in the progress log and carries on.
func (r *run) note(msg string, se *StepError) {
	r.log(msg)
	r.logger.Debug("transient crawl step failed",
		"document_type", r.documentType,
		"step", se.Step,
		"error", se.Err,
	)
}

func (r *run) log(msg string) {
	r.logger.Debug("crawl progress", "document_type", r.documentType, "message", msg)
	if r.sink != nil {
		r.sink(msg)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
