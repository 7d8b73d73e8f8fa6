package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "embed"

	"github.com/MeteOShape/shapebot/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteStore persists user records in an SQLite database, one row per user
// with the record serialized as JSON. Load and Save still follow the
// whole-document contract.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates an SQLite store at the DSN file path, creating the
// parent directory and running migrations.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	if cfg.DSN == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(cfg.DSN)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.DSN)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run SQLite migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

// Load reads every user row and decodes the records.
func (s *SQLiteStore) Load() (Document, error) {
	rows, err := s.db.Query(`SELECT id, record FROM users`)
	if err != nil {
		slog.Error("SQLiteStore Load query failed", "error", err)
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	doc := make(Document)
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			slog.Error("SQLiteStore Load scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		var rec models.UserRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			slog.Error("SQLiteStore Load decode failed", "error", err, "id", id)
			return nil, fmt.Errorf("failed to decode record for %s: %w", id, err)
		}
		doc[id] = &rec
	}
	if err := rows.Err(); err != nil {
		slog.Error("SQLiteStore Load rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate user rows: %w", err)
	}
	slog.Debug("SQLiteStore Load succeeded", "users", len(doc))
	return doc, nil
}

// Save replaces the stored document in one transaction.
func (s *SQLiteStore) Save(doc Document) error {
	tx, err := s.db.Begin()
	if err != nil {
		slog.Error("SQLiteStore Save begin failed", "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM users`); err != nil {
		slog.Error("SQLiteStore Save clear failed", "error", err)
		return fmt.Errorf("failed to clear users: %w", err)
	}
	for id, rec := range doc {
		raw, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to encode record for %s: %w", id, err)
		}
		if _, err := tx.Exec(`INSERT INTO users (id, record) VALUES (?, ?)`, id, string(raw)); err != nil {
			slog.Error("SQLiteStore Save insert failed", "error", err, "id", id)
			return fmt.Errorf("failed to insert record for %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		slog.Error("SQLiteStore Save commit failed", "error", err)
		return fmt.Errorf("failed to commit: %w", err)
	}
	slog.Debug("SQLiteStore Save succeeded", "users", len(doc))
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
