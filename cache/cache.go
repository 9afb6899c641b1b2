// Package cache memoizes the document-type catalog so repeated lookups do
// not each launch a browser.
package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Source produces the document-type list. *crawler.Crawler implements it.
type Source interface {
	DocumentTypes(ctx context.Context) ([]string, error)
}

// Catalog caches a Source for a TTL. Concurrent misses share one fetch.
// Empty lists and errors are never cached.
// It is safe for concurrent use.
type Catalog struct {
	src   Source
	ttl   time.Duration
	group singleflight.Group
	now   func() time.Time

	mu        sync.RWMutex
	types     []string
	fetchedAt time.Time
}

// NewCatalog wraps src. A ttl <= 0 disables caching.
func NewCatalog(src Source, ttl time.Duration) *Catalog {
	return &Catalog{src: src, ttl: ttl, now: time.Now}
}

// DocumentTypes returns the cached list while fresh, otherwise fetches it.
func (c *Catalog) DocumentTypes(ctx context.Context) ([]string, error) {
	if types, ok := c.get(); ok {
		return types, nil
	}

	v, err, _ := c.group.Do("document-types", func() (any, error) {
		types, err := c.src.DocumentTypes(ctx)
		if err != nil {
			return nil, err
		}
		if len(types) > 0 && c.ttl > 0 {
			c.mu.Lock()
			c.types = append([]string(nil), types...)
			c.fetchedAt = c.now()
			c.mu.Unlock()
		}
		return types, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]string{}, v.([]string)...), nil
}

// Invalidate drops the cached list.
func (c *Catalog) Invalidate() {
	c.mu.Lock()
	c.types = nil
	c.mu.Unlock()
}

func (c *Catalog) get() ([]string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.types == nil || c.now().Sub(c.fetchedAt) > c.ttl {
		return nil, false
	}
	return append([]string(nil), c.types...), true
}
