package app

import (
	"errors"
	"strings"
	"testing"

	"drivecache/internal/config"
	"drivecache/internal/database"
)

func newTestApp(t *testing.T) *App {
	t.Helper()

	cfg := &config.Config{
		CacheID:  "test-cache",
		BaseDir:  t.TempDir(),
		Database: config.DatabaseConfig{Type: "memory"},
	}

	a, err := NewApp(cfg, "Test")
	if err != nil {
		t.Fatalf("NewApp() failed: %v", err)
	}
	t.Cleanup(func() {
		a.Close()
	})
	return a
}

const incrementalChangeSet = `{
	"checkpoint": "cp-42",
	"nodes": [
		{"id": "F1", "kind": "FOLDER", "isRoot": true, "status": "AVAILABLE",
		 "createdDate": "2020-01-01T00:00:00Z", "modifiedDate": "2020-01-01T00:00:00Z", "parents": []},
		{"id": "N1", "kind": "FILE", "name": "a.txt", "status": "AVAILABLE",
		 "createdDate": "2020-01-02T00:00:00Z", "modifiedDate": "2020-01-02T00:00:00Z",
		 "parents": ["F1"], "contentProperties": {"md5": "abc", "size": 3, "version": 1}}
	]
}`

func TestApp_ApplyChangeSet(t *testing.T) {
	a := newTestApp(t)

	stats, err := a.ApplyChangeSet(strings.NewReader(incrementalChangeSet))
	if err != nil {
		t.Fatalf("ApplyChangeSet() failed: %v", err)
	}
	if stats.Nodes != 2 || stats.Purged != 0 || stats.Reset {
		t.Errorf("stats = %+v, want 2 nodes, 0 purged, incremental", stats)
	}

	st, err := a.GetStatus()
	if err != nil {
		t.Fatalf("GetStatus() failed: %v", err)
	}
	if st.SchemaVersion != 4 {
		t.Errorf("SchemaVersion = %d, want 4", st.SchemaVersion)
	}
	if st.Nodes != 2 || st.Files != 1 || st.Edges != 1 {
		t.Errorf("status = %+v, want 2 nodes, 1 file, 1 edge", st)
	}
	if st.Checkpoint != "cp-42" {
		t.Errorf("Checkpoint = %q, want cp-42", st.Checkpoint)
	}
	if st.LastSync == "" {
		t.Error("LastSync not stamped")
	}
}

func TestApp_ApplyChangeSet_Purge(t *testing.T) {
	a := newTestApp(t)

	if _, err := a.ApplyChangeSet(strings.NewReader(incrementalChangeSet)); err != nil {
		t.Fatalf("ApplyChangeSet() failed: %v", err)
	}

	purge := `{"checkpoint": "cp-43", "nodes": [], "purgedNodes": ["N1"]}`
	if _, err := a.ApplyChangeSet(strings.NewReader(purge)); err != nil {
		t.Fatalf("ApplyChangeSet() purge failed: %v", err)
	}

	st, err := a.GetStatus()
	if err != nil {
		t.Fatalf("GetStatus() failed: %v", err)
	}
	if st.Nodes != 1 || st.Files != 0 || st.Edges != 0 {
		t.Errorf("status after purge = %+v, want 1 node, 0 files, 0 edges", st)
	}
	if st.Checkpoint != "cp-43" {
		t.Errorf("Checkpoint = %q, want cp-43", st.Checkpoint)
	}
}

func TestApp_ApplyChangeSet_Reset(t *testing.T) {
	a := newTestApp(t)

	a.Engine().ResolveAdd("/stale/path", "X1")

	reset := `{"reset": true, "nodes": [
		{"id": "F1", "kind": "FOLDER", "isRoot": true, "status": "AVAILABLE",
		 "createdDate": "2020-01-01T00:00:00Z", "modifiedDate": "2020-01-01T00:00:00Z", "parents": []}
	]}`
	stats, err := a.ApplyChangeSet(strings.NewReader(reset))
	if err != nil {
		t.Fatalf("ApplyChangeSet() failed: %v", err)
	}
	if !stats.Reset {
		t.Error("stats.Reset = false, want true")
	}
}

func TestApp_ApplyChangeSet_MalformedJSON(t *testing.T) {
	a := newTestApp(t)

	if _, err := a.ApplyChangeSet(strings.NewReader("{not json")); err == nil {
		t.Error("ApplyChangeSet() expected decode error")
	}
}

func TestApp_Settings(t *testing.T) {
	a := newTestApp(t)

	if _, err := a.Setting("absent"); !errors.Is(err, database.ErrKeyNotFound) {
		t.Errorf("Setting() error = %v, want ErrKeyNotFound", err)
	}

	if err := a.SetSetting("owner", "tester"); err != nil {
		t.Fatalf("SetSetting() failed: %v", err)
	}
	value, err := a.Setting("owner")
	if err != nil {
		t.Fatalf("Setting() failed: %v", err)
	}
	if value != "tester" {
		t.Errorf("Setting() = %q, want tester", value)
	}
}

func TestApp_Drop(t *testing.T) {
	a := newTestApp(t)

	if _, err := a.ApplyChangeSet(strings.NewReader(incrementalChangeSet)); err != nil {
		t.Fatalf("ApplyChangeSet() failed: %v", err)
	}

	if err := a.Drop(); err != nil {
		t.Fatalf("Drop() failed: %v", err)
	}

	if _, err := a.GetStatus(); err == nil {
		t.Error("GetStatus() expected error after Drop")
	}
}
