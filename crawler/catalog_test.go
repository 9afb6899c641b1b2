package crawler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/humbal1/pierce-doc-links-scrapper/models"
)

func TestParseDocumentTypes(t *testing.T) {
	raw := `<html><body>
<label for="elsewhere">NOT AN OPTION</label>
<table id="cphNoMargin_f_dclDocType">
  <tr><td><input id="c0" type="checkbox"/><label for="c0"> DEED </label></td></tr>
  <tr><td><input id="c1" type="checkbox"/><label for="c1">TRUSTEE SALE</label></td></tr>
  <tr><td><input id="c2" type="checkbox"/><label for="c2">   </label></td></tr>
  <tr><td><input id="c3" type="checkbox"/><label for="c3">DEED</label></td></tr>
  <tr><td><input id="c4" type="checkbox"/><label for="c4">LIEN &amp; RELEASE</label></td></tr>
</table></body></html>`

	got, err := ParseDocumentTypes(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"DEED", "TRUSTEE SALE", "LIEN & RELEASE"}, got)
}

func TestParseDocumentTypes_NoControl(t *testing.T) {
	got, err := ParseDocumentTypes(`<html><body><p>maintenance</p></body></html>`)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestParseLabels_BadSelector(t *testing.T) {
	_, err := parseLabels("<html></html>", "table[")
	assert.Error(t, err)
}

func TestDocumentTypes(t *testing.T) {
	site := happySite()
	c, launcher, _ := newTestCrawler(t, site)

	got, err := c.DocumentTypes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"DEED", "TRUSTEE SALE", "LIEN"}, got)
	assert.Equal(t, []string{"close"}, launcher.sessions[0].lastEvents(1))
}

func TestDocumentTypes_FormMissing(t *testing.T) {
	site := happySite()
	site.docTypes = nil
	c, _, _ := newTestCrawler(t, site)

	_, err := c.DocumentTypes(context.Background())
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeSearchForm, crawlErrorCode(t, err))
}

func TestDocumentTypes_LaunchFailure(t *testing.T) {
	c := New(&fakeLauncher{err: errors.New("no browser")}, nil, testConfig())

	_, err := c.DocumentTypes(context.Background())
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeBrowserLaunch, crawlErrorCode(t, err))
}
