// Package session persists the cookie jar captured at the end of the most
// recent crawl so later plain HTTP fetches can reuse the authenticated session.
//
// The store is single-slot and last-write-wins. Nothing tracks expiry: a stale
// jar only shows up when the site rejects a request made with it.
package session

import (
	"context"
	"sync/atomic"

	"github.com/humbal1/pierce-doc-links-scrapper/models"
)

// Store saves and loads the most recent session cookie jar.
type Store interface {
	// Save replaces any previously stored jar.
	Save(ctx context.Context, jar models.CookieJar) error

	// Load returns the stored jar, or an empty jar when none was saved.
	Load(ctx context.Context) (models.CookieJar, error)
}

// MemoryStore keeps the jar in process memory.
type MemoryStore struct {
	jar atomic.Pointer[models.CookieJar]
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, jar models.CookieJar) error {
	c := jar.Clone()
	s.jar.Store(&c)
	return nil
}

// Load implements Store.
func (s *MemoryStore) Load(_ context.Context) (models.CookieJar, error) {
	p := s.jar.Load()
	if p == nil {
		return models.CookieJar{}, nil
	}
	return p.Clone(), nil
}
