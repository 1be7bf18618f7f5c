package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS prefs (
    name       TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
);
`

// Store persists named strings.
type Store interface {
	LoadString(ctx context.Context, name string, def *string) (*string, error)
	SaveString(ctx context.Context, name, value string) error
	Delete(ctx context.Context, name string) error
	List(ctx context.Context) ([]Pref, error)
	Close() error
}

// Pref is a stored name/value pair.
type Pref struct {
	Name  string
	Value string
}

// Store backends.
const (
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
)

// OpenStore opens the preference store of the given backend at path.
func OpenStore(backend, path string) (Store, error) {
	switch backend {
	case BackendSQLite, "":
		database, err := Open(path)
		if err != nil {
			return nil, err
		}
		return NewSQLitePrefs(database), nil
	case BackendBolt:
		return OpenBolt(path)
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}

// Open opens or creates the SQLite database and initializes the schema.
func Open(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}
