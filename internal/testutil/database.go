package testutil

import (
	"testing"

	"drivecache/internal/database"
	"drivecache/internal/database/migrations"
)

// NewTestStore creates a new in-memory SQLite store migrated to the
// current schema version. The store is closed when the test completes.
func NewTestStore(t *testing.T) *database.Store {
	t.Helper()

	db, err := database.OpenConnection(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		t.Fatalf("failed to migrate schema: %v", err)
	}

	store := database.NewStoreFromDB(db)

	t.Cleanup(func() {
		store.Close()
	})

	return store
}
