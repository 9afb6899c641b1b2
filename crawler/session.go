package crawler

import (
	"context"
	"time"

	"github.com/humbal1/pierce-doc-links-scrapper/models"
)

// Element is a handle to one element of the page a Session is showing.
type Element interface {
	// Text returns the element's visible text.
	Text() (string, error)

	// Attribute returns the named attribute, or nil when it is not set.
	Attribute(name string) (*string, error)

	// Selected reports whether a checkbox or radio element is checked.
	Selected() (bool, error)
}

// Session is one isolated browser context. A Session is used by exactly one
// crawl and released with Close; it is not safe for concurrent use.
type Session interface {
	Navigate(url string) error

	// WaitFor blocks until an element matching the CSS selector is present
	// or timeout elapses.
	WaitFor(selector string, timeout time.Duration) (Element, error)

	// FindAll returns every element matching the CSS selector without waiting.
	// No match is an empty slice, not an error.
	FindAll(selector string) ([]Element, error)

	Click(el Element) error
	SetValue(el Element, text string) error

	// Content returns the current serialized page markup.
	Content() (string, error)

	// Cookies returns the cookies the session currently holds.
	Cookies() (models.CookieJar, error)

	Close() error
}

// Launcher creates fresh sessions. Each call must return a context that shares
// no cookies or storage with earlier ones.
type Launcher interface {
	Launch(ctx context.Context) (Session, error)
}
