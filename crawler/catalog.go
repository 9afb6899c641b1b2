package crawler

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/humbal1/pierce-doc-links-scrapper/extractor"
	"github.com/humbal1/pierce-doc-links-scrapper/models"
)

// DocumentTypes opens a session, reaches the search form and returns the
// labels of every document-type option it offers.
func (c *Crawler) DocumentTypes(ctx context.Context) ([]string, error) {
	sess, err := c.launcher.Launch(ctx)
	if err != nil {
		return nil, models.NewCrawlError(
			models.ErrCodeBrowserLaunch,
			"failed to launch browser session",
			err,
		)
	}
	defer func() {
		if err := sess.Close(); err != nil {
			c.logger.Warn("failed to close browser session", "error", err)
		}
	}()

	r := c.newRun(ctx, "", 0, nil)
	r.sess = sess

	if se := r.openSite(); se != nil {
		return nil, se.asCrawlError()
	}
	if se := r.openSearch(); se != nil {
		return nil, se.asCrawlError()
	}
	if _, err := sess.WaitFor(c.site.DocTypeControl, c.cfg.FormTimeout); err != nil {
		return nil, fatal("find document type control", models.ErrCodeSearchForm, err).asCrawlError()
	}

	content, err := sess.Content()
	if err != nil {
		return nil, fatal("read search page", models.ErrCodeNavigation, err).asCrawlError()
	}
	return parseLabels(content, c.site.DocTypeLabels)
}

// ParseDocumentTypes returns the document-type labels of a Pierce County
// search page, in page order and without duplicates.
func ParseDocumentTypes(raw string) ([]string, error) {
	return parseLabels(raw, PierceCounty(extractor.DefaultBaseURL).DocTypeLabels)
}

func parseLabels(raw, selector string) ([]string, error) {
	sel, err := cascadia.Parse(selector)
	if err != nil {
		return nil, fmt.Errorf("crawler: bad label selector %q: %w", selector, err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("crawler: parse search page: %w", err)
	}

	labels := make([]string, 0)
	seen := make(map[string]bool)
	doc.FindNodes(cascadia.QueryAll(doc.Get(0), sel)...).Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text == "" || seen[text] {
			return
		}
		seen[text] = true
		labels = append(labels, text)
	})
	return labels, nil
}
