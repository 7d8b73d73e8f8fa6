// Package store provides storage backends for ShapeBot user records.
//
// Persistence is whole-document: the full set of user records is loaded,
// mutated, and saved back around each inbound event or dispatcher tick.
// Backends exist for an in-memory map, a JSON file, SQLite, and PostgreSQL.
package store

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/MeteOShape/shapebot/internal/models"
)

// Document is the whole persisted state: user records keyed by the
// normalized sender identifier.
type Document map[string]*models.UserRecord

// Store is the persistence contract the core depends on: blocking,
// synchronous, whole-document load and save with last-write-wins semantics.
type Store interface {
	Load() (Document, error)
	Save(doc Document) error
	Close() error
}

// Opts holds configuration options for store backends.
type Opts struct {
	DSN string
}

// Option defines a configuration option for a store backend.
type Option func(*Opts)

// WithDSN sets the backend connection string (file path for SQLite and the
// JSON file store, connection URL for Postgres).
func WithDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}

// InMemoryStore keeps the document in process memory. Used in tests and as
// the fallback when no DSN is configured.
type InMemoryStore struct {
	mu  sync.Mutex
	doc Document
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{doc: make(Document)}
}

// Load returns a deep copy of the stored document so that callers never
// mutate shared state outside a Save.
func (s *InMemoryStore) Load() (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneDocument(s.doc)
}

// Save replaces the stored document.
func (s *InMemoryStore) Save(doc Document) error {
	copied, err := cloneDocument(doc)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = copied
	return nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error { return nil }

// Guarded serializes every load-mutate-save cycle behind one coarse mutex.
// The inbound-message handler and the reminder dispatcher share a single
// Guarded instance so their whole-document read-modify-write cycles never
// interleave (last-writer-wins on the document is the accepted model).
type Guarded struct {
	mu    sync.Mutex
	store Store
}

// NewGuarded wraps a Store with the process-wide document lock.
func NewGuarded(st Store) *Guarded {
	return &Guarded{store: st}
}

// Update loads the document, applies fn, and saves the result, all while
// holding the lock. When fn returns an error the document is not saved.
func (g *Guarded) Update(fn func(doc Document) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	doc, err := g.store.Load()
	if err != nil {
		slog.Error("Guarded Update load failed", "error", err)
		return fmt.Errorf("failed to load document: %w", err)
	}
	if doc == nil {
		doc = make(Document)
	}
	if err := fn(doc); err != nil {
		return err
	}
	if err := g.store.Save(doc); err != nil {
		slog.Error("Guarded Update save failed", "error", err)
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}

// View loads the document and applies fn under the lock without saving.
func (g *Guarded) View(fn func(doc Document) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	doc, err := g.store.Load()
	if err != nil {
		slog.Error("Guarded View load failed", "error", err)
		return fmt.Errorf("failed to load document: %w", err)
	}
	if doc == nil {
		doc = make(Document)
	}
	return fn(doc)
}

// Close closes the underlying store.
func (g *Guarded) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.store.Close()
}
