package crawler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/humbal1/pierce-doc-links-scrapper/config"
	"github.com/humbal1/pierce-doc-links-scrapper/models"
)

const testBase = "https://records.test"

var errTimeout = errors.New("wait timed out")

// fakeSite scripts how the records site behaves for one test.
type fakeSite struct {
	disclaimer bool
	dateInputs bool

	// docTypes lists option labels in page order; checkbox ids are derived.
	docTypes []string
	// preChecked marks options whose checkbox starts checked.
	preChecked map[string]bool

	// pages holds the markup of each results page.
	pages []string
	// nextDisabledOn is the page whose next button is disabled (0: none).
	nextDisabledOn int
	// noNextOn is the page without a next button at all (0: none).
	noNextOn int
	// resultsMissingFrom is the first page whose results table never renders (0: none).
	resultsMissingFrom int

	navigateErr error
	cookies     models.CookieJar
}

type role int

const (
	roleOther role = iota
	roleDisclaimer
	roleLabel
	roleCheckbox
	roleSearch
	roleNext
	roleDate
)

type fakeElement struct {
	role     role
	text     string
	attrs    map[string]string
	selected bool
	clicks   int
}

func (e *fakeElement) Text() (string, error) { return e.text, nil }

func (e *fakeElement) Attribute(name string) (*string, error) {
	v, ok := e.attrs[name]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (e *fakeElement) Selected() (bool, error) { return e.selected, nil }

type fakeSession struct {
	mu   sync.Mutex
	site *fakeSite
	sel  Site

	url          string
	submitted    bool
	page         int
	contentReads int
	nextClicks   int
	values       map[string]string
	checkboxes   map[string]*fakeElement
	events       []string
}

func newFakeSession(site *fakeSite) *fakeSession {
	s := &fakeSession{
		site:       site,
		sel:        PierceCounty(testBase),
		values:     make(map[string]string),
		checkboxes: make(map[string]*fakeElement),
	}
	for i, label := range site.docTypes {
		id := fmt.Sprintf("cphNoMargin_f_dclDocType_%d", i)
		s.checkboxes["#"+id] = &fakeElement{role: roleCheckbox, selected: site.preChecked[label]}
	}
	return s
}

func (s *fakeSession) Navigate(url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.site.navigateErr != nil {
		return s.site.navigateErr
	}
	s.url = url
	s.events = append(s.events, "navigate "+url)
	return nil
}

func (s *fakeSession) onSearch() bool { return s.url == s.sel.SearchURL }

func (s *fakeSession) resultsVisible() bool {
	if !s.submitted || s.page > len(s.site.pages) {
		return false
	}
	return s.site.resultsMissingFrom == 0 || s.page < s.site.resultsMissingFrom
}

func (s *fakeSession) WaitFor(selector string, _ time.Duration) (Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch selector {
	case s.sel.DisclaimerAccept:
		if s.site.disclaimer && s.url == s.sel.RootURL {
			return &fakeElement{role: roleDisclaimer}, nil
		}
	case s.sel.DocTypeControl:
		if s.onSearch() && len(s.site.docTypes) > 0 {
			return &fakeElement{}, nil
		}
	case s.sel.ResultsTable:
		if s.resultsVisible() {
			return &fakeElement{}, nil
		}
	}
	return nil, errTimeout
}

func (s *fakeSession) FindAll(selector string) ([]Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case selector == s.sel.DateFrom || selector == s.sel.DateTo:
		if s.site.dateInputs && s.onSearch() {
			return []Element{&fakeElement{role: roleDate, attrs: map[string]string{"name": selector}}}, nil
		}
	case selector == s.sel.DocTypeLabels:
		var out []Element
		for i, label := range s.site.docTypes {
			out = append(out, &fakeElement{
				role:  roleLabel,
				text:  " " + label + " ",
				attrs: map[string]string{"for": fmt.Sprintf("cphNoMargin_f_dclDocType_%d", i)},
			})
		}
		return out, nil
	case selector == s.sel.SearchButton:
		if s.onSearch() {
			return []Element{&fakeElement{role: roleSearch}}, nil
		}
	case selector == s.sel.NextPage:
		if !s.submitted || s.page == s.site.noNextOn {
			return nil, nil
		}
		src := "/Images/nextsmall.gif"
		if s.page == s.site.nextDisabledOn {
			src = "/Images/nextsmall_disabled.gif"
		}
		return []Element{&fakeElement{role: roleNext, attrs: map[string]string{"src": src}}}, nil
	case strings.HasPrefix(selector, "#"):
		if box, ok := s.checkboxes[selector]; ok {
			return []Element{box}, nil
		}
	}
	return nil, nil
}

func (s *fakeSession) Click(el Element) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := el.(*fakeElement)
	e.clicks++
	switch e.role {
	case roleCheckbox:
		e.selected = !e.selected
	case roleSearch:
		s.submitted = true
		s.page = 1
	case roleNext:
		s.nextClicks++
		s.page++
	}
	return nil
}

func (s *fakeSession) SetValue(el Element, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := el.(*fakeElement)
	s.values[e.attrs["name"]] = text
	return nil
}

func (s *fakeSession) Content() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.submitted {
		return searchForm(s.site.docTypes), nil
	}
	s.contentReads++
	return s.site.pages[s.page-1], nil
}

func (s *fakeSession) Cookies() (models.CookieJar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, "cookies")
	return s.site.cookies.Clone(), nil
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, "close")
	return nil
}

// lastEvents returns the final n recorded events.
func (s *fakeSession) lastEvents(n int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.events) < n {
		return append([]string(nil), s.events...)
	}
	return append([]string(nil), s.events[len(s.events)-n:]...)
}

type fakeLauncher struct {
	site     *fakeSite
	err      error
	sessions []*fakeSession
}

func (l *fakeLauncher) Launch(context.Context) (Session, error) {
	if l.err != nil {
		return nil, l.err
	}
	s := newFakeSession(l.site)
	l.sessions = append(l.sessions, s)
	return s, nil
}

// testConfig has no settle delays.
func testConfig() config.CrawlerConfig {
	return config.CrawlerConfig{BaseURL: testBase, MaxPages: 50}
}

// resultsPage renders a results grid with n data rows whose instruments
// start with prefix.
func resultsPage(prefix string, n int) string {
	var b strings.Builder
	b.WriteString(`<table id="cphNoMargin_cphNoMargin_g_G1"><tbody>`)
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, `<tr data-ig="x:%d"><td><span id="g_it0_%d_Label1">%s%d</span></td>`, i, i, prefix, i)
		b.WriteString(`<td>03/04/2024</td>`)
		fmt.Fprintf(&b, `<td><span id="g_it6_%d_lblTor">GRANTOR %d</span></td>`, i, i)
		fmt.Fprintf(&b, `<td><span id="g_it7_%d_lblTee">GRANTEE %d</span></td>`, i, i)
		fmt.Fprintf(&b, `<td><img src="paper.gif"/><input type="hidden" value="OPR%d%d"/></td></tr>`, len(prefix), i)
	}
	b.WriteString(`</tbody></table>`)
	return b.String()
}

func searchForm(docTypes []string) string {
	var b strings.Builder
	b.WriteString(`<html><body><form><table id="cphNoMargin_f_dclDocType"><tr>`)
	for i, label := range docTypes {
		fmt.Fprintf(&b, `<td><input type="checkbox" id="cphNoMargin_f_dclDocType_%d"/><label for="cphNoMargin_f_dclDocType_%d">%s</label></td>`, i, i, label)
	}
	b.WriteString(`</tr></table></form></body></html>`)
	return b.String()
}

// progress collects sink messages.
type progress struct {
	mu   sync.Mutex
	msgs []string
}

func (p *progress) sink(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
}

func (p *progress) all() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.msgs...)
}

func (p *progress) contains(msg string) bool {
	for _, m := range p.all() {
		if strings.Contains(m, msg) {
			return true
		}
	}
	return false
}
