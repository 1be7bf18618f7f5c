package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SQLitePrefs stores preferences in the prefs table.
type SQLitePrefs struct {
	db *sql.DB
}

// NewSQLitePrefs wraps an opened database.
func NewSQLitePrefs(database *sql.DB) *SQLitePrefs {
	return &SQLitePrefs{db: database}
}

// LoadString returns the stored value, or def when name has no row.
func (p *SQLitePrefs) LoadString(ctx context.Context, name string, def *string) (*string, error) {
	var value string
	err := p.db.QueryRowContext(ctx, `SELECT value FROM prefs WHERE name = ?`, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return def, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load pref %s: %w", name, err)
	}
	return &value, nil
}

// SaveString inserts or replaces the value stored at name.
func (p *SQLitePrefs) SaveString(ctx context.Context, name, value string) error {
	query := `
		INSERT INTO prefs (name, value) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET
			value = excluded.value,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ','now')
	`
	if _, err := p.db.ExecContext(ctx, query, name, value); err != nil {
		return fmt.Errorf("failed to save pref %s: %w", name, err)
	}
	return nil
}

// Delete removes name. Deleting a missing name is not an error.
func (p *SQLitePrefs) Delete(ctx context.Context, name string) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM prefs WHERE name = ?`, name); err != nil {
		return fmt.Errorf("failed to delete pref %s: %w", name, err)
	}
	return nil
}

// List returns all stored preferences ordered by name.
func (p *SQLitePrefs) List(ctx context.Context) ([]Pref, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT name, value FROM prefs ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list prefs: %w", err)
	}
	defer rows.Close()

	var results []Pref
	for rows.Next() {
		var pref Pref
		if err := rows.Scan(&pref.Name, &pref.Value); err != nil {
			return nil, fmt.Errorf("failed to scan pref row: %w", err)
		}
		results = append(results, pref)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pref rows: %w", err)
	}

	return results, nil
}

// Close closes the underlying database.
func (p *SQLitePrefs) Close() error {
	return p.db.Close()
}
