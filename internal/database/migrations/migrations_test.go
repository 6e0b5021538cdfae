package migrations

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func TestMigrateUp_FreshDatabase(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	tables := []string{"metadata", "nodes", "files", "parentage", "labels", "properties", "content", "schema_migrations"}
	for _, table := range tables {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s was not created: %v", table, err)
		}
	}
}

func TestMigrateUp_StampsCurrentVersion(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	// A fresh store reads as version 0.
	version, err := Version(db)
	if err != nil {
		t.Fatalf("Version() on fresh store failed: %v", err)
	}
	if version != 0 {
		t.Errorf("fresh store version = %d, want 0", version)
	}

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	version, err = Version(db)
	if err != nil {
		t.Fatalf("Version() failed: %v", err)
	}
	if version != 4 {
		t.Errorf("schema version = %d, want 4", version)
	}
}

func TestMigrateUp_SchemaEffects(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	// Step 2 adds the audit columns to nodes.
	for _, column := range []string{"updated", "description"} {
		if !hasColumn(t, db, "nodes", column) {
			t.Errorf("nodes.%s column missing", column)
		}
	}

	// Step 4 adds the version columns.
	if !hasColumn(t, db, "files", "version") {
		t.Error("files.version column missing")
	}
	if !hasColumn(t, db, "content", "version") {
		t.Error("content.version column missing")
	}

	// Steps 3 and 4 create the lookup indexes.
	indexes := []string{"ix_parentage_child", "ix_parentage_parent", "ix_nodes_name", "ix_content_size", "ix_content_accessed"}
	for _, index := range indexes {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='index' AND name=?", index).Scan(&name)
		if err != nil {
			t.Errorf("Index %s missing: %v", index, err)
		}
	}
}

func TestMigrateUp_Idempotent(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	if err := MigrateUp(db); err != nil {
		t.Fatalf("First MigrateUp() failed: %v", err)
	}

	if err := MigrateUp(db); err != nil {
		t.Errorf("Second MigrateUp() failed: %v (should be idempotent)", err)
	}

	if err := CheckDBMigrationStatus(db); err != nil {
		t.Errorf("CheckDBMigrationStatus() after double migration returned error: %v", err)
	}
}

func TestCheckDBMigrationStatus(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	// Fresh database should need migration.
	err := CheckDBMigrationStatus(db)
	if err == nil {
		t.Error("CheckDBMigrationStatus() expected error for fresh database, got nil")
	}
	if err.Error() != "database has no schema version (needs migration)" {
		t.Errorf("CheckDBMigrationStatus() error = %q, want error about needing migration", err.Error())
	}

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	if err := CheckDBMigrationStatus(db); err != nil {
		t.Errorf("CheckDBMigrationStatus() after migration returned error: %v", err)
	}
}

func TestNodeStatusConstraint(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	_, err := db.Exec("INSERT INTO nodes (id, kind, status) VALUES ('N1', 'file', 'DELETED')")
	if err == nil {
		t.Error("Expected CHECK constraint violation for unknown status, but insert succeeded")
	}

	_, err = db.Exec("INSERT INTO nodes (id, kind, status) VALUES ('N1', 'file', 'TRASH')")
	if err != nil {
		t.Errorf("Insert with valid status failed: %v", err)
	}
}

func TestForeignKeyConstraints(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	// A file row needs its node row (should fail due to FK constraint).
	_, err := db.Exec("INSERT INTO files (id, md5, size, version) VALUES ('orphan', 'abc', 1, 1)")
	if err == nil {
		t.Error("Expected foreign key constraint violation, but insert succeeded")
	}
}

// openTestDB opens an in-memory SQLite database for testing.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	// Each pooled connection would otherwise get its own empty database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("Failed to enable foreign keys: %v", err)
	}

	return db
}

// hasColumn reports whether the table declares the named column.
func hasColumn(t *testing.T, db *sql.DB, table, column string) bool {
	t.Helper()

	rows, err := db.Query("SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		t.Fatalf("reading table info for %s: %v", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("scanning column name: %v", err)
		}
		if name == column {
			return true
		}
	}
	return false
}
