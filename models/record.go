package models

// UnknownInstrument is recorded when a row carries no parseable instrument number.
const UnknownInstrument = "Unknown"

// Record is one document entry found on a results page.
type Record struct {
	Instrument   string `json:"instrument"`
	RecordedDate string `json:"date_recorded"` // literal MM/DD/YYYY, empty if absent
	DocumentType string `json:"document_type"`
	Grantor      string `json:"grantor"`
	Grantee      string `json:"grantee"`
	ImageLink    string `json:"image_link"`
}

// CookieJar maps cookie name to value for one captured browser session.
type CookieJar map[string]string

// Clone returns an independent copy of the jar. A nil jar clones to an empty one.
func (j CookieJar) Clone() CookieJar {
	c := make(CookieJar, len(j))
	for k, v := range j {
		c[k] = v
	}
	return c
}
