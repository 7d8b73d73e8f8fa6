package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// Default permissions for database directories and the JSON document file.
const (
	DefaultDirPermissions  = 0755
	DefaultFilePermissions = 0644
)

// fileDocument is the on-disk shape of the JSON store.
type fileDocument struct {
	Users Document `json:"users"`
}

// FileStore persists the document as a single JSON file. Saves write to a
// temporary file first and rename it into place so a crash mid-write never
// truncates the database.
type FileStore struct {
	path string
}

// NewFileStore creates a JSON file store at the DSN path, creating the parent
// directory if needed.
func NewFileStore(opts ...Option) (*FileStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.DSN == "" {
		slog.Error("FileStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}
	dir := filepath.Dir(cfg.DSN)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	slog.Debug("FileStore created", "path", cfg.DSN)
	return &FileStore{path: cfg.DSN}, nil
}

// Load reads and decodes the whole document. A missing file is an empty
// document, not an error.
func (s *FileStore) Load() (Document, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Debug("FileStore Load: no database file yet", "path", s.path)
		return make(Document), nil
	}
	if err != nil {
		slog.Error("FileStore Load failed", "error", err, "path", s.path)
		return nil, fmt.Errorf("failed to read database file: %w", err)
	}
	var doc fileDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		slog.Error("FileStore Load decode failed", "error", err, "path", s.path)
		return nil, fmt.Errorf("failed to decode database file: %w", err)
	}
	if doc.Users == nil {
		doc.Users = make(Document)
	}
	slog.Debug("FileStore Load succeeded", "users", len(doc.Users))
	return doc.Users, nil
}

// Save writes the whole document atomically via a temp file rename.
func (s *FileStore) Save(doc Document) error {
	raw, err := json.MarshalIndent(fileDocument{Users: doc}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, DefaultFilePermissions); err != nil {
		slog.Error("FileStore Save write failed", "error", err, "path", tmp)
		return fmt.Errorf("failed to write database file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		slog.Error("FileStore Save rename failed", "error", err, "path", s.path)
		return fmt.Errorf("failed to replace database file: %w", err)
	}
	slog.Debug("FileStore Save succeeded", "users", len(doc))
	return nil
}

// Close is a no-op; the file is not held open between operations.
func (s *FileStore) Close() error { return nil }
