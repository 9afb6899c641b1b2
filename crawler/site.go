package crawler

import "strings"

// Site holds the URLs and CSS selectors of the recorded-documents search.
type Site struct {
	RootURL   string
	SearchURL string

	DisclaimerAccept string

	DateFrom string
	DateTo   string

	// DocTypeControl is the container of the document-type checkboxes;
	// DocTypeLabels selects the label of each option. A label's "for"
	// attribute names its checkbox.
	DocTypeControl string
	DocTypeLabels  string

	SearchButton string
	ResultsTable string

	// NextPage selects the pager's next button; the button is disabled when
	// its src contains NextDisabledMarker.
	NextPage           string
	NextDisabledMarker string
}

// PierceCounty returns the selectors of the Pierce County site rooted at baseURL.
func PierceCounty(baseURL string) Site {
	base := strings.TrimRight(baseURL, "/")
	return Site{
		RootURL:            base + "/",
		SearchURL:          base + "/RealEstate/SearchEntry.aspx",
		DisclaimerAccept:   "#cph1_lnkAccept",
		DateFrom:           "table#cphNoMargin_f_ddcDateFiledFrom input",
		DateTo:             "table#cphNoMargin_f_ddcDateFiledTo input",
		DocTypeControl:     "#cphNoMargin_f_dclDocType",
		DocTypeLabels:      "table#cphNoMargin_f_dclDocType label",
		SearchButton:       "#cphNoMargin_SearchButtons2_btnSearch",
		ResultsTable:       "#cphNoMargin_cphNoMargin_g_G1",
		NextPage:           "input[src*='nextsmall.gif']",
		NextDisabledMarker: "disabled",
	}
}
