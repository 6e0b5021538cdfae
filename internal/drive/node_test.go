package drive

import (
	"testing"
	"time"
)

func TestFolderNode(t *testing.T) {
	updated := time.Date(2021, 5, 1, 12, 0, 0, 0, time.UTC)
	raw := RawNode{
		ID:           "F1",
		Kind:         KindFolder,
		Status:       StatusAvailable,
		Name:         "docs",
		Description:  "shared documents",
		CreatedDate:  "2020-01-01T00:00:00Z",
		ModifiedDate: "2020-02-01T10:30:00.123Z",
	}

	n, err := FolderNode(raw, updated)
	if err != nil {
		t.Fatalf("FolderNode() error = %v", err)
	}

	if !n.IsFolder() || n.IsFile() {
		t.Errorf("kind = %q, want folder", n.Kind)
	}
	if n.Name != "docs" || n.Description != "shared documents" {
		t.Errorf("name/description = %q/%q", n.Name, n.Description)
	}
	if !n.Created.Equal(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("created = %v", n.Created)
	}
	if !n.Modified.Equal(time.Date(2020, 2, 1, 10, 30, 0, 123000000, time.UTC)) {
		t.Errorf("modified = %v", n.Modified)
	}
	if !n.Updated.Equal(updated) {
		t.Errorf("updated = %v, want %v", n.Updated, updated)
	}
	if n.MD5 != "" || n.Size != 0 || n.Version != 0 {
		t.Errorf("file attributes not zeroed: (%q, %d, %d)", n.MD5, n.Size, n.Version)
	}
}

func TestFileNode(t *testing.T) {
	updated := time.Date(2021, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("applies content properties", func(t *testing.T) {
		raw := RawNode{
			ID:           "N1",
			Kind:         KindFile,
			Status:       StatusAvailable,
			Name:         "a.txt",
			CreatedDate:  "2020-01-02T00:00:00Z",
			ModifiedDate: "2020-01-02T00:00:00Z",
			ContentProps: &ContentProperties{MD5: "abc", Size: 3, Version: 2},
		}

		n, err := FileNode(raw, updated)
		if err != nil {
			t.Fatalf("FileNode() error = %v", err)
		}
		if !n.IsFile() {
			t.Errorf("kind = %q, want file", n.Kind)
		}
		if n.MD5 != "abc" || n.Size != 3 || n.Version != 2 {
			t.Errorf("file attributes = (%q, %d, %d), want (abc, 3, 2)", n.MD5, n.Size, n.Version)
		}
	})

	t.Run("defaults missing content properties", func(t *testing.T) {
		raw := RawNode{
			ID:           "N2",
			Kind:         KindFile,
			Status:       StatusAvailable,
			Name:         "b.txt",
			CreatedDate:  "2020-01-02T00:00:00Z",
			ModifiedDate: "2020-01-02T00:00:00Z",
		}

		n, err := FileNode(raw, updated)
		if err != nil {
			t.Fatalf("FileNode() error = %v", err)
		}
		if n.MD5 != EmptyMD5 {
			t.Errorf("md5 = %q, want empty-payload checksum", n.MD5)
		}
		if n.Size != 0 || n.Version != 0 {
			t.Errorf("size/version = %d/%d, want 0/0", n.Size, n.Version)
		}
	})

	t.Run("rejects malformed dates", func(t *testing.T) {
		raw := RawNode{
			ID:           "N3",
			Kind:         KindFile,
			Status:       StatusAvailable,
			Name:         "c.txt",
			CreatedDate:  "yesterday",
			ModifiedDate: "2020-01-02T00:00:00Z",
		}

		if _, err := FileNode(raw, updated); err == nil {
			t.Error("FileNode() expected error for malformed createdDate")
		}
	})
}

func TestNode_Available(t *testing.T) {
	cases := []struct {
		status string
		want   bool
	}{
		{StatusAvailable, true},
		{StatusTrash, false},
		{StatusPurged, false},
		{StatusPending, false},
	}
	for _, tc := range cases {
		n := &Node{ID: "N1", Status: tc.status}
		if got := n.Available(); got != tc.want {
			t.Errorf("Available() with status %s = %v, want %v", tc.status, got, tc.want)
		}
	}
}
