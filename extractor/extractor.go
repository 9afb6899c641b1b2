// Package extractor turns one results page of the recorded-documents site into
// structured records.
//
// The results grid is a fixed table fragment, so extraction works on the raw
// markup with string splitting and regular expressions instead of a DOM tree.
// Every field is matched independently: a missing field degrades to its empty
// value and never drops the row.
package extractor

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/humbal1/pierce-doc-links-scrapper/models"
)

// DefaultBaseURL is the records site the image link template points at.
const DefaultBaseURL = "https://armsweb.co.pierce.wa.us"

const (
	// rowBoundary starts every grid row.
	rowBoundary = "<tr data-ig"

	// rowMarker only appears in genuine data rows (the grantor label).
	rowMarker = "lblTor"

	// imageIndicator is the icon shown when a document image exists.
	imageIndicator = "paper.gif"

	imagePath = "/RealEstate/SearchResults.aspx?global_id=%s&type=img"
)

var (
	reInstrument = regexp.MustCompile(`id="[^"]*Label1">\s*([^<]+?)\s*</span>`)
	reDate       = regexp.MustCompile(`>(\d{2}/\d{2}/\d{4})<`)
	reGrantor    = regexp.MustCompile(`id="[^"]*lblTor">([^<]+)</span>`)
	reGrantee    = regexp.MustCompile(`id="[^"]*lblTee">([^<]+)`)
	reGlobalID   = regexp.MustCompile(`OPR(\d+)`)
)

// Extractor extracts records for one site base URL.
type Extractor struct {
	imageTemplate string
}

// New creates an Extractor whose image links point at baseURL.
// An empty baseURL uses DefaultBaseURL.
func New(baseURL string) *Extractor {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Extractor{imageTemplate: strings.TrimRight(baseURL, "/") + imagePath}
}

var defaultExtractor = New(DefaultBaseURL)

// ExtractPage extracts all records from a results page using the default site.
func ExtractPage(raw, documentType string) []models.Record {
	return defaultExtractor.ExtractPage(raw, documentType)
}

// ImageLink returns the document image URL for a global identifier such as "OPR12345".
func (e *Extractor) ImageLink(globalID string) string {
	return fmt.Sprintf(e.imageTemplate, globalID)
}

// ExtractPage returns one record per data row in raw. A page without data rows
// yields an empty slice. documentType is copied into every record.
func (e *Extractor) ExtractPage(raw, documentType string) []models.Record {
	records := make([]models.Record, 0)
	for _, fragment := range strings.Split(raw, rowBoundary) {
		if !strings.Contains(fragment, rowMarker) {
			continue
		}
		records = append(records, e.extractRow(fragment, documentType))
	}
	return records
}

func (e *Extractor) extractRow(fragment, documentType string) models.Record {
	rec := models.Record{
		Instrument:   firstGroup(reInstrument, fragment),
		RecordedDate: firstGroup(reDate, fragment),
		DocumentType: documentType,
		Grantor:      firstGroup(reGrantor, fragment),
		Grantee:      firstGroup(reGrantee, fragment),
	}
	if rec.Instrument == "" {
		rec.Instrument = models.UnknownInstrument
	}

	if strings.Contains(fragment, imageIndicator) {
		if m := reGlobalID.FindStringSubmatch(fragment); m != nil {
			rec.ImageLink = e.ImageLink("OPR" + m[1])
		}
	}
	return rec
}

// firstGroup returns the trimmed, entity-decoded first capture group, or "".
func firstGroup(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(m[1]))
}
