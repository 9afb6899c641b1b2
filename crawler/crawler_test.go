package crawler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/humbal1/pierce-doc-links-scrapper/models"
	"github.com/humbal1/pierce-doc-links-scrapper/session"
)

func newTestCrawler(t *testing.T, site *fakeSite) (*Crawler, *fakeLauncher, *session.MemoryStore) {
	t.Helper()
	launcher := &fakeLauncher{site: site}
	store := session.NewMemoryStore()
	return New(launcher, store, testConfig()), launcher, store
}

func happySite() *fakeSite {
	return &fakeSite{
		disclaimer: true,
		dateInputs: true,
		docTypes:   []string{"DEED", "TRUSTEE SALE", "LIEN"},
		cookies:    models.CookieJar{"ASP.NET_SessionId": "s1"},
	}
}

func crawlErrorCode(t *testing.T, err error) string {
	t.Helper()
	var ce *models.CrawlError
	require.ErrorAs(t, err, &ce)
	return ce.Code
}

func TestCrawl_StopsWhenNextIsDisabled(t *testing.T) {
	site := happySite()
	site.pages = []string{resultsPage("A", 2), resultsPage("B", 3), resultsPage("C", 1)}
	site.nextDisabledOn = 3

	c, launcher, store := newTestCrawler(t, site)
	p := &progress{}

	report, err := c.Crawl(context.Background(), "TRUSTEE SALE", 50, p.sink)
	require.NoError(t, err)

	sess := launcher.sessions[0]
	assert.Equal(t, 3, report.Pages)
	assert.Equal(t, 3, sess.contentReads, "exactly three pages are read")
	assert.Equal(t, 2, sess.nextClicks, "no fourth page is requested")
	assert.True(t, report.DocumentTypeFound)
	assert.Len(t, report.Records, 6)
	for _, rec := range report.Records {
		assert.Equal(t, "TRUSTEE SALE", rec.DocumentType)
	}
	assert.Equal(t, "A0", report.Records[0].Instrument)
	assert.Equal(t, "C0", report.Records[5].Instrument)

	assert.True(t, p.contains("No more pages"))
	assert.True(t, p.contains("Extracted 3 records from page 2"))
	assert.True(t, p.contains("Accepted disclaimer"))
	assert.True(t, p.contains("Cleared date filters"))
	assert.Equal(t, map[string]string{site0DateFrom(): "", site0DateTo(): ""}, sess.values)

	jar, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.CookieJar{"ASP.NET_SessionId": "s1"}, jar)
	assert.Equal(t, []string{"cookies", "close"}, sess.lastEvents(2))
}

func site0DateFrom() string { return PierceCounty(testBase).DateFrom }
func site0DateTo() string   { return PierceCounty(testBase).DateTo }

func TestCrawl_StopsAtMaxPagesWithNextEnabled(t *testing.T) {
	site := happySite()
	site.pages = []string{resultsPage("A", 1), resultsPage("B", 1), resultsPage("C", 1), resultsPage("D", 1)}

	c, launcher, _ := newTestCrawler(t, site)
	p := &progress{}

	report, err := c.Crawl(context.Background(), "DEED", 2, p.sink)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Pages)
	assert.Len(t, report.Records, 2)
	assert.Equal(t, 1, launcher.sessions[0].nextClicks)
	assert.True(t, p.contains("Reached page limit"))
}

func TestCrawl_NonPositiveMaxPagesUsesConfig(t *testing.T) {
	site := happySite()
	site.pages = []string{resultsPage("A", 1), resultsPage("B", 1), resultsPage("C", 1)}

	cfg := testConfig()
	cfg.MaxPages = 1
	launcher := &fakeLauncher{site: site}
	c := New(launcher, nil, cfg)

	report, err := c.Crawl(context.Background(), "DEED", 0, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Pages)
}

func TestCrawl_DocumentTypeNotFound(t *testing.T) {
	site := happySite()
	site.docTypes = []string{"DEED", "LIEN"}

	c, launcher, store := newTestCrawler(t, site)
	p := &progress{}

	report, err := c.Crawl(context.Background(), "TRUSTEE SALE", 50, p.sink)
	require.NoError(t, err, "a missing option is an empty result, not an error")
	require.NotNil(t, report)

	assert.False(t, report.DocumentTypeFound)
	assert.NotNil(t, report.Records)
	assert.Empty(t, report.Records)
	assert.True(t, p.contains("Document type not found: TRUSTEE SALE"))

	sess := launcher.sessions[0]
	assert.False(t, sess.submitted, "search is never submitted")
	assert.Equal(t, []string{"cookies", "close"}, sess.lastEvents(2))

	jar, _ := store.Load(context.Background())
	assert.Equal(t, "s1", jar["ASP.NET_SessionId"])
}

func TestCrawl_ResultsMissingOnFirstPage(t *testing.T) {
	site := happySite()
	site.pages = []string{resultsPage("A", 2)}
	site.resultsMissingFrom = 1

	c, launcher, store := newTestCrawler(t, site)
	p := &progress{}

	report, err := c.Crawl(context.Background(), "LIEN", 50, p.sink)
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeResultsMissing, crawlErrorCode(t, err))
	assert.Empty(t, report.Records)
	assert.True(t, p.contains("Results table not found"))

	assert.Equal(t, []string{"cookies", "close"}, launcher.sessions[0].lastEvents(2))
	jar, _ := store.Load(context.Background())
	assert.NotEmpty(t, jar, "cookies are captured on the error path")
}

func TestCrawl_ResultsMissingLaterKeepsEarlierPages(t *testing.T) {
	site := happySite()
	site.pages = []string{resultsPage("A", 4), resultsPage("B", 4)}
	site.resultsMissingFrom = 2

	c, _, _ := newTestCrawler(t, site)

	report, err := c.Crawl(context.Background(), "LIEN", 50, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Pages)
	assert.Len(t, report.Records, 4)
}

func TestCrawl_TransientFailuresAreNotedAndSkipped(t *testing.T) {
	site := happySite()
	site.disclaimer = false
	site.dateInputs = false
	site.pages = []string{resultsPage("A", 2), resultsPage("B", 2)}
	site.noNextOn = 1

	c, launcher, _ := newTestCrawler(t, site)
	p := &progress{}

	report, err := c.Crawl(context.Background(), "DEED", 50, p.sink)
	require.NoError(t, err)

	assert.Len(t, report.Records, 2)
	assert.True(t, p.contains("No disclaimer to accept"))
	assert.True(t, p.contains("Could not clear dates"))
	assert.True(t, p.contains("Next button not found"))
	assert.Zero(t, launcher.sessions[0].nextClicks)
}

func TestCrawl_CheckedOptionIsNotToggled(t *testing.T) {
	site := happySite()
	site.preChecked = map[string]bool{"LIEN": true}
	site.pages = []string{resultsPage("A", 1)}
	site.nextDisabledOn = 1

	c, launcher, _ := newTestCrawler(t, site)

	_, err := c.Crawl(context.Background(), "LIEN", 50, nil)
	require.NoError(t, err)

	box := launcher.sessions[0].checkboxes["#cphNoMargin_f_dclDocType_2"]
	assert.Zero(t, box.clicks)
	assert.True(t, box.selected)

	other := launcher.sessions[0].checkboxes["#cphNoMargin_f_dclDocType_0"]
	assert.Zero(t, other.clicks)
}

func TestCrawl_UncheckedOptionIsClickedOnce(t *testing.T) {
	site := happySite()
	site.pages = []string{resultsPage("A", 1)}
	site.nextDisabledOn = 1

	c, launcher, _ := newTestCrawler(t, site)

	_, err := c.Crawl(context.Background(), "LIEN", 50, nil)
	require.NoError(t, err)

	box := launcher.sessions[0].checkboxes["#cphNoMargin_f_dclDocType_2"]
	assert.Equal(t, 1, box.clicks)
	assert.True(t, box.selected)
}

func TestCrawl_LaunchFailure(t *testing.T) {
	launcher := &fakeLauncher{err: errors.New("chromium not found")}
	c := New(launcher, session.NewMemoryStore(), testConfig())
	p := &progress{}

	report, err := c.Crawl(context.Background(), "DEED", 50, p.sink)
	require.Error(t, err)
	require.NotNil(t, report)
	assert.Equal(t, models.ErrCodeBrowserLaunch, crawlErrorCode(t, err))
	assert.Empty(t, report.Records)
	assert.True(t, p.contains("chromium not found"))
}

func TestCrawl_NavigationFailureStillCleansUp(t *testing.T) {
	site := happySite()
	site.navigateErr = errors.New("net::ERR_CONNECTION_RESET")

	c, launcher, _ := newTestCrawler(t, site)
	p := &progress{}

	_, err := c.Crawl(context.Background(), "DEED", 50, p.sink)
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeNavigation, crawlErrorCode(t, err))
	assert.Equal(t, []string{"cookies", "close"}, launcher.sessions[0].lastEvents(2))

	msgs := p.all()
	require.NotEmpty(t, msgs)
	assert.Equal(t, "Browser closed", msgs[len(msgs)-1])
}

func TestCrawl_ProgressLogBracketsTheRun(t *testing.T) {
	site := happySite()
	site.pages = []string{resultsPage("A", 1)}
	site.nextDisabledOn = 1

	c, _, _ := newTestCrawler(t, site)
	p := &progress{}

	_, err := c.Crawl(context.Background(), "DEED", 50, p.sink)
	require.NoError(t, err)

	msgs := p.all()
	require.GreaterOrEqual(t, len(msgs), 3)
	assert.Equal(t, "Starting scrape for: DEED", msgs[0])
	assert.Equal(t, "Scraping complete, total records: 1", msgs[len(msgs)-2])
	assert.Equal(t, "Browser closed", msgs[len(msgs)-1])
}

func TestCrawl_CancelledContextStopsAtNextWait(t *testing.T) {
	site := happySite()
	site.pages = []string{resultsPage("A", 1)}

	c, launcher, _ := newTestCrawler(t, site)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Crawl(ctx, "DEED", 50, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"cookies", "close"}, launcher.sessions[0].lastEvents(2))
}

func TestStepError(t *testing.T) {
	base := errors.New("boom")
	se := fatal("submit search", models.ErrCodeSearchForm, base)

	assert.Equal(t, "submit search: boom", se.Error())
	assert.ErrorIs(t, se, base)
	assert.Equal(t, "fatal", se.Severity.String())
	assert.Equal(t, "transient", transient("x", base).Severity.String())

	ce := se.asCrawlError()
	assert.Equal(t, models.ErrCodeSearchForm, ce.Code)
	assert.ErrorIs(t, ce, base)

	assert.Equal(t, models.ErrCodeNavigation, (&StepError{Step: "x", Err: base}).asCrawlError().Code)
}
