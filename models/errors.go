package models

import "fmt"

// Error codes used in API responses and internal error handling.
const (
	// Infrastructure: the browser session could not be created.
	ErrCodeBrowserLaunch = "BROWSER_LAUNCH_FAILED"

	// Structural crawl failures.
	ErrCodeSearchForm     = "SEARCH_FORM_MISSING"
	ErrCodeResultsMissing = "RESULTS_MISSING"
	ErrCodeNavigation     = "NAVIGATION_FAILED"

	ErrCodeResultSave     = "RESULT_SAVE_FAILED"
	ErrCodeSessionExpired = "SESSION_EXPIRED"
	ErrCodeUpstream       = "UPSTREAM_FAILED"
	ErrCodeWorkQueue      = "WORK_QUEUE_UNAVAILABLE"

	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CrawlError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type CrawlError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *CrawlError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CrawlError) Unwrap() error {
	return e.Err
}

// NewCrawlError creates a new CrawlError.
func NewCrawlError(code, message string, err error) *CrawlError {
	return &CrawlError{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *CrawlError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}
