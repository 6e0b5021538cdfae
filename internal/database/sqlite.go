package database

import (
	"database/sql"
	"fmt"

	"drivecache/internal/database/migrations"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Store wraps the single shared SQLite connection and exposes the schema,
// key-value and maintenance capabilities over it. The sync engine issues
// its statements through DB(); SQLite's own locking serializes writers.
type Store struct {
	db   *sql.DB
	path string
	kv   *KeyValueStore
}

// Open opens (or creates) the node mirror at path.
// path can be a file path or ":memory:" for an in-memory mirror.
// The schema is not touched; call Init to create or migrate it.
func Open(path string) (*Store, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, path: path, kv: &KeyValueStore{db: db}}, nil
}

// NewStoreFromDB wraps an existing database connection. The caller is
// responsible for ensuring the connection is properly configured.
func NewStoreFromDB(db *sql.DB) *Store {
	return &Store{db: db, path: "", kv: &KeyValueStore{db: db}}
}

// OpenConnection opens and configures a SQLite connection with appropriate
// PRAGMAs. Exported for tools and tests that need a raw configured handle.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// An in-memory database exists per connection; with a pool every new
	// connection would see its own empty store.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Enable foreign key constraints (SQLite default is OFF for backward
	// compatibility). Purge ordering in the sync engine depends on them
	// being checked.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// Init creates the schema on a fresh store and brings an older on-disk
// schema up to the current version, one migration step at a time. Safe to
// call on every startup; a store already at the current version is a no-op.
func (s *Store) Init() error {
	if err := migrations.MigrateUp(s.db); err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

// SchemaVersion returns the stamped schema version.
func (s *Store) SchemaVersion() (uint, error) {
	return migrations.Version(s.db)
}

// CheckMigrations verifies the schema is at the current version.
func (s *Store) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// DB returns the shared connection.
func (s *Store) DB() *sql.DB { return s.db }

// KeyValue returns the typed view over the metadata table.
func (s *Store) KeyValue() *KeyValueStore { return s.kv }

// TableNames enumerates every table currently present in the store.
func (s *Store) TableNames() ([]string, error) {
	rows, err := s.db.Query(`SELECT name FROM sqlite_master WHERE type = 'table'`)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning table name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	return names, nil
}

// DropAll drops every table in the store inside one transaction.
// Used only by destructive reset paths.
func (s *Store) DropAll() error {
	names, err := s.TableNames()
	if err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	// Defer foreign key checks so drop order doesn't matter.
	if _, err := tx.Exec("PRAGMA defer_foreign_keys = ON"); err != nil {
		return fmt.Errorf("deferring foreign keys: %w", err)
	}
	for _, name := range names {
		if _, err := tx.Exec(fmt.Sprintf("DROP TABLE %q", name)); err != nil {
			return fmt.Errorf("dropping table %s: %w", name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing drop: %w", err)
	}
	return nil
}

// BackupTo creates a complete copy of the mirror at destPath using VACUUM INTO.
func (s *Store) BackupTo(destPath string) error {
	if _, err := s.db.Exec("VACUUM INTO ?", destPath); err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	return nil
}

// Path returns the database file path (or ":memory:").
func (s *Store) Path() string { return s.path }

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
