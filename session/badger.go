package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/humbal1/pierce-doc-links-scrapper/models"
)

// slotKey is the single record the store writes.
const slotKey = "session:cookies"

// record is the persisted form of a jar.
type record struct {
	Cookies map[string]string
	SavedAt time.Time
}

// BadgerStore keeps the jar in a Badger database so it survives restarts.
type BadgerStore struct {
	store  *badgerhold.Store
	logger *slog.Logger
}

// OpenBadgerStore opens (or creates) a Badger database in dir.
func OpenBadgerStore(dir string, logger *slog.Logger) (*BadgerStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("session: create directory: %w", err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = dir
	options.ValueDir = dir
	options.Logger = nil // keep badger's own chatter out of the structured log

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("session: open badger at %s: %w", dir, err)
	}
	logger.Debug("session store opened", "path", dir)

	return &BadgerStore{store: store, logger: logger}, nil
}

// Save implements Store.
func (s *BadgerStore) Save(_ context.Context, jar models.CookieJar) error {
	rec := record{Cookies: jar.Clone(), SavedAt: time.Now().UTC()}
	if err := s.store.Upsert(slotKey, &rec); err != nil {
		return fmt.Errorf("session: save cookies: %w", err)
	}
	s.logger.Debug("session cookies saved", "count", len(rec.Cookies))
	return nil
}

// Load implements Store.
func (s *BadgerStore) Load(_ context.Context) (models.CookieJar, error) {
	var rec record
	err := s.store.Get(slotKey, &rec)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return models.CookieJar{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: load cookies: %w", err)
	}
	return models.CookieJar(rec.Cookies).Clone(), nil
}

// Close closes the underlying database.
func (s *BadgerStore) Close() error {
	return s.store.Close()
}
