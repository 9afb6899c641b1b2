package crawler

import (
	"errors"
	"fmt"

	"github.com/humbal1/pierce-doc-links-scrapper/models"
)

// Severity classifies a failed crawl step.
type Severity int

const (
	// Transient failures are expected markup variance: noted and skipped.
	Transient Severity = iota
	// Fatal failures stop the crawl; records gathered so far are kept.
	Fatal
)

func (s Severity) String() string {
	if s == Fatal {
		return "fatal"
	}
	return "transient"
}

// StepError is the outcome of a crawl step that did not succeed.
type StepError struct {
	Step     string
	Severity Severity
	Code     string // models.ErrCode* for fatal steps
	Err      error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func transient(step string, err error) *StepError {
	return &StepError{Step: step, Severity: Transient, Err: err}
}

func fatal(step, code string, err error) *StepError {
	return &StepError{Step: step, Severity: Fatal, Code: code, Err: err}
}

// asCrawlError converts a fatal step into the error Crawl returns.
func (e *StepError) asCrawlError() *models.CrawlError {
	code := e.Code
	if code == "" {
		code = models.ErrCodeNavigation
	}
	return models.NewCrawlError(code, e.Step+" failed", e.Err)
}

var (
	errNotFound = errors.New("element not found")
	errNoFor    = errors.New("label has no for attribute")
)
