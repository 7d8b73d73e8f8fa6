package store

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DetectDSNType classifies a DSN as "postgres" or "sqlite". Postgres DSNs use
// the postgres:// scheme or key=value form ("host=..."); everything else is
// treated as a file path for SQLite or the JSON file store.
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite"
}

// cloneDocument deep-copies a document through JSON. The document is plain
// data, so a marshal round trip is the simplest faithful copy.
func cloneDocument(doc Document) (Document, error) {
	if doc == nil {
		return make(Document), nil
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to clone document: %w", err)
	}
	out := make(Document, len(doc))
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to clone document: %w", err)
	}
	return out, nil
}
