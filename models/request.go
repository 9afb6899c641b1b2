package models

import "strings"

// StartJobRequest is the payload for POST /api/v1/jobs.
type StartJobRequest struct {
	// DocumentType is the exact label of the document-type option to search. Required.
	DocumentType string `json:"document_type" binding:"required"`

	// Row is the optional work-queue row to report status back to.
	Row int `json:"row,omitempty" binding:"omitempty,min=2"`
}

// Normalize trims surrounding whitespace from user-supplied fields.
func (r *StartJobRequest) Normalize() {
	r.DocumentType = strings.TrimSpace(r.DocumentType)
}

// SheetUpdateRequest is the payload for POST /api/v1/sheet/update.
type SheetUpdateRequest struct {
	// Row is the sheet row number (the header is row 1). Required.
	Row int `json:"row" binding:"required,min=2"`

	// Status is written to the status column. Required.
	Status string `json:"status" binding:"required"`

	// ResultFile is written to the result column when non-empty.
	ResultFile string `json:"result_file,omitempty"`
}
