package drive

import (
	"fmt"
	"time"
)

// Node status values as reported by the remote store.
const (
	StatusAvailable = "AVAILABLE"
	StatusTrash     = "TRASH"
	StatusPurged    = "PURGED"
	StatusPending   = "PENDING"
)

// Raw node kinds as they appear in the change feed.
const (
	KindFile   = "FILE"
	KindFolder = "FOLDER"
	KindAsset  = "ASSET"
)

// Persisted node kinds, the canonical lowercase form.
const (
	NodeKindFile   = "file"
	NodeKindFolder = "folder"
)

// EmptyMD5 is the checksum of a zero-byte payload. Files whose remote
// description carries no content properties default to it.
const EmptyMD5 = "d41d8cd98f00b204e9800998ecf8427e"

// Node is the canonical persisted form of a remote node.
// Kind is stored lowercase ("file" or "folder"), unlike the raw feed.
type Node struct {
	ID          string
	Kind        string
	Name        string
	Description string
	Created     time.Time // remote creation time
	Modified    time.Time // remote modification time
	Updated     time.Time // local write time, set on every upsert
	Status      string

	// File attributes; zeroed for folders.
	MD5     string
	Size    int64
	Version int64
}

// Available reports whether the node is in the AVAILABLE state. Only
// available nodes may appear in the resolve cache's id map.
func (n *Node) Available() bool { return n.Status == StatusAvailable }

func (n *Node) IsFile() bool   { return n.Kind == NodeKindFile }
func (n *Node) IsFolder() bool { return n.Kind == NodeKindFolder }

// FolderNode builds the canonical Node for a raw folder description.
// updated is the local write time stamped on the row.
func FolderNode(raw RawNode, updated time.Time) (*Node, error) {
	created, modified, err := parseDates(raw)
	if err != nil {
		return nil, err
	}
	return &Node{
		ID:          raw.ID,
		Kind:        NodeKindFolder,
		Name:        raw.Name,
		Description: raw.Description,
		Created:     created,
		Modified:    modified,
		Updated:     updated,
		Status:      raw.Status,
	}, nil
}

// FileNode builds the canonical Node for a raw file description.
// Content properties missing upstream default to the empty-payload
// checksum, size 0 and version 0.
func FileNode(raw RawNode, updated time.Time) (*Node, error) {
	created, modified, err := parseDates(raw)
	if err != nil {
		return nil, err
	}
	n := &Node{
		ID:          raw.ID,
		Kind:        NodeKindFile,
		Name:        raw.Name,
		Description: raw.Description,
		Created:     created,
		Modified:    modified,
		Updated:     updated,
		Status:      raw.Status,
		MD5:         EmptyMD5,
	}
	if cp := raw.ContentProps; cp != nil {
		if cp.MD5 != "" {
			n.MD5 = cp.MD5
		}
		n.Size = cp.Size
		n.Version = cp.Version
	}
	return n, nil
}

// parseDates parses the remote ISO8601 timestamps of a raw node.
func parseDates(raw RawNode) (created, modified time.Time, err error) {
	created, err = time.Parse(time.RFC3339, raw.CreatedDate)
	if err != nil {
		return created, modified, fmt.Errorf("parsing createdDate of node %s: %w", raw.ID, err)
	}
	modified, err = time.Parse(time.RFC3339, raw.ModifiedDate)
	if err != nil {
		return created, modified, fmt.Errorf("parsing modifiedDate of node %s: %w", raw.ID, err)
	}
	return created, modified, nil
}
