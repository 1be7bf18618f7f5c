package db

import (
	"context"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

const bucketPrefs = "prefs"

// BoltPrefs stores preferences in a bbolt bucket.
type BoltPrefs struct {
	db *bolt.DB
}

// OpenBolt opens or creates a bbolt file and its prefs bucket.
func OpenBolt(path string) (*BoltPrefs, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt store: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketPrefs))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize bolt store: %w", err)
	}

	return &BoltPrefs{db: db}, nil
}

// LoadString returns the stored value, or def when name is missing.
func (p *BoltPrefs) LoadString(ctx context.Context, name string, def *string) (*string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var value *string
	err := p.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket([]byte(bucketPrefs)).Get([]byte(name)); v != nil {
			s := string(v)
			value = &s
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load pref %s: %w", name, err)
	}
	if value == nil {
		return def, nil
	}
	return value, nil
}

// SaveString replaces the value stored at name.
func (p *BoltPrefs) SaveString(ctx context.Context, name, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := p.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketPrefs)).Put([]byte(name), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("failed to save pref %s: %w", name, err)
	}
	return nil
}

// Delete removes name.
func (p *BoltPrefs) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := p.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketPrefs)).Delete([]byte(name))
	})
	if err != nil {
		return fmt.Errorf("failed to delete pref %s: %w", name, err)
	}
	return nil
}

// List returns all stored preferences in key order.
func (p *BoltPrefs) List(ctx context.Context) ([]Pref, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var results []Pref
	err := p.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(bucketPrefs)).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			results = append(results, Pref{Name: string(k), Value: string(v)})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list prefs: %w", err)
	}
	return results, nil
}

// Close closes the bolt file.
func (p *BoltPrefs) Close() error {
	return p.db.Close()
}
