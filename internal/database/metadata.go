package database

import (
	"database/sql"
	"errors"
	"fmt"
)

// ErrKeyNotFound is returned by KeyValueStore.Get for absent keys.
var ErrKeyNotFound = errors.New("key not found")

// KeyValueStore is a thin typed mapping view over the metadata table,
// used for process-level settings such as the last sync checkpoint.
type KeyValueStore struct {
	db *sql.DB
}

// Get returns the value stored under key, or ErrKeyNotFound.
func (kv *KeyValueStore) Get(key string) (string, error) {
	var value string
	err := kv.db.QueryRow(`SELECT value FROM metadata WHERE "key" = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("metadata %q: %w", key, ErrKeyNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("reading metadata %q: %w", key, err)
	}
	return value, nil
}

// GetDefault returns the value stored under key, or def when absent.
func (kv *KeyValueStore) GetDefault(key, def string) (string, error) {
	value, err := kv.Get(key)
	if errors.Is(err, ErrKeyNotFound) {
		return def, nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// Set upserts a single key.
func (kv *KeyValueStore) Set(key, value string) error {
	_, err := kv.db.Exec(`INSERT OR REPLACE INTO metadata ("key", value) VALUES (?, ?)`, key, value)
	if err != nil {
		return fmt.Errorf("writing metadata %q: %w", key, err)
	}
	return nil
}

// SetAll applies each pair via Set. No cross-key atomicity is guaranteed.
func (kv *KeyValueStore) SetAll(values map[string]string) error {
	for key, value := range values {
		if err := kv.Set(key, value); err != nil {
			return err
		}
	}
	return nil
}
