package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/MeteOShape/shapebot/internal/models"
	_ "github.com/lib/pq"
)

// Connection pool configuration for the Postgres store.
const (
	DefaultMaxOpenConns    = 25
	DefaultMaxIdleConns    = 25
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// PostgresStore persists user records in PostgreSQL, one JSONB row per user,
// behind the same whole-document Load/Save contract as the other backends.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a Postgres store from the DSN and runs migrations.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewPostgresStore invoked", "DSN_set", cfg.DSN != "")

	if cfg.DSN == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}
	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run Postgres migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")

	return &PostgresStore{db: db}, nil
}

// Load reads every user row and decodes the records.
func (s *PostgresStore) Load() (Document, error) {
	rows, err := s.db.Query(`SELECT id, record FROM users`)
	if err != nil {
		slog.Error("PostgresStore Load query failed", "error", err)
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	doc := make(Document)
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			slog.Error("PostgresStore Load scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		var rec models.UserRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			slog.Error("PostgresStore Load decode failed", "error", err, "id", id)
			return nil, fmt.Errorf("failed to decode record for %s: %w", id, err)
		}
		doc[id] = &rec
	}
	if err := rows.Err(); err != nil {
		slog.Error("PostgresStore Load rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate user rows: %w", err)
	}
	slog.Debug("PostgresStore Load succeeded", "users", len(doc))
	return doc, nil
}

// Save replaces the stored document in one transaction.
func (s *PostgresStore) Save(doc Document) error {
	tx, err := s.db.Begin()
	if err != nil {
		slog.Error("PostgresStore Save begin failed", "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM users`); err != nil {
		slog.Error("PostgresStore Save clear failed", "error", err)
		return fmt.Errorf("failed to clear users: %w", err)
	}
	for id, rec := range doc {
		raw, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to encode record for %s: %w", id, err)
		}
		if _, err := tx.Exec(`INSERT INTO users (id, record) VALUES ($1, $2)`, id, raw); err != nil {
			slog.Error("PostgresStore Save insert failed", "error", err, "id", id)
			return fmt.Errorf("failed to insert record for %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		slog.Error("PostgresStore Save commit failed", "error", err)
		return fmt.Errorf("failed to commit: %w", err)
	}
	slog.Debug("PostgresStore Save succeeded", "users", len(doc))
	return nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
