// Package sync reconciles batches of remote node descriptions against the
// local mirror and keeps the resolve cache consistent with the persisted
// state.
package sync

import (
	"database/sql"
	"fmt"
	"strings"

	"drivecache/internal/database"
	"drivecache/internal/drive"
	"drivecache/internal/resolve"
)

// chunkSize bounds the number of parameters per statement for bulk
// deletes and lookups keyed by an id list. Exceeding SQLite's parameter
// bound fails the whole statement, so chunking is a correctness
// requirement, not an optimization.
const chunkSize = 100

// Engine is the reconciliation core. It writes through to the persistent
// store and updates the resolve cache after each batch commits, so a
// failed transaction never plants a cache entry for a row that was rolled
// back. Multi-chunk operations are not atomic across chunks; all upserts
// are safe to repeat, so callers recover from partial completion by
// re-invoking ingestion.
type Engine struct {
	store   *database.Store
	resolve *resolve.Cache
	logger  drive.Logger
	clock   drive.Clock
}

// NewEngine creates a sync engine over the shared store. A nil logger
// discards output and a nil clock falls back to real time.
func NewEngine(store *database.Store, cache *resolve.Cache, logger drive.Logger, clock drive.Clock) *Engine {
	if logger == nil {
		logger = drive.NewNopLogger()
	}
	if clock == nil {
		clock = drive.RealClock{}
	}
	return &Engine{store: store, resolve: cache, logger: logger, clock: clock}
}

// InsertNodes ingests a mixed batch of raw file and folder descriptions.
// partial selects per-child replacement of parent edges; flushResolve
// clears both resolve cache maps first and is set when the batch
// represents a full resync rather than an incremental delta.
//
// PENDING nodes are dropped before reaching storage. Files without a name
// and non-root folders without a name are skipped with a warning, as are
// nodes of unknown kind. Assets carry no usable metadata and are skipped
// silently. Folders are upserted before files, then parentage, then
// properties: edge and property rows have foreign keys on node rows.
func (e *Engine) InsertNodes(nodes []drive.RawNode, partial, flushResolve bool) error {
	if flushResolve {
		e.resolve.Flush()
	}

	var files, folders []drive.RawNode
	for _, n := range nodes {
		if n.Status == drive.StatusPending {
			continue
		}
		switch n.Kind {
		case drive.KindFile:
			if n.Name == "" {
				e.logger.Warn("skipping file with empty name", "id", n.ID)
				continue
			}
			files = append(files, n)
		case drive.KindFolder:
			if n.Name == "" && !n.IsRoot {
				e.logger.Warn("skipping non-root folder with empty name", "id", n.ID)
				continue
			}
			folders = append(folders, n)
		case drive.KindAsset:
			// Assets have no name or content and are never addressed.
		default:
			e.logger.Warn("cannot insert node of unknown kind", "id", n.ID, "kind", n.Kind)
		}
	}

	if err := e.InsertFolders(folders); err != nil {
		return err
	}
	if err := e.InsertFiles(files); err != nil {
		return err
	}

	combined := make([]drive.RawNode, 0, len(folders)+len(files))
	combined = append(combined, folders...)
	combined = append(combined, files...)

	if err := e.InsertParentage(combined, partial); err != nil {
		return err
	}
	return e.InsertProperties(combined)
}

// InsertFolders upserts a batch of folders in one transaction and then
// refreshes the resolve cache for each resulting node.
func (e *Engine) InsertFolders(folders []drive.RawNode) error {
	if len(folders) == 0 {
		return nil
	}

	now := e.clock.Now().UTC()
	inserted := make([]*drive.Node, 0, len(folders))

	tx, err := e.store.DB().Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	for _, raw := range folders {
		n, err := drive.FolderNode(raw, now)
		if err != nil {
			e.logger.Warn("skipping folder with malformed dates", "id", raw.ID, "error", err)
			continue
		}
		if err := upsertNode(tx, n); err != nil {
			return err
		}
		inserted = append(inserted, n)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing folders: %w", err)
	}

	for _, n := range inserted {
		e.resolve.StoreNode(n)
	}
	e.logger.Info("inserted folders", "count", len(inserted))
	return nil
}

// InsertFiles upserts a batch of files: the node row plus the file
// attribute row, in one transaction. A file leaving the available state
// has its cached content deleted in the same transaction; stale content
// must never survive the status change.
func (e *Engine) InsertFiles(files []drive.RawNode) error {
	if len(files) == 0 {
		return nil
	}

	now := e.clock.Now().UTC()
	inserted := make([]*drive.Node, 0, len(files))

	tx, err := e.store.DB().Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	for _, raw := range files {
		n, err := drive.FileNode(raw, now)
		if err != nil {
			e.logger.Warn("skipping file with malformed dates", "id", raw.ID, "error", err)
			continue
		}
		if err := upsertNode(tx, n); err != nil {
			return err
		}
		if _, err := tx.Exec(
			`INSERT OR REPLACE INTO files (id, md5, size, version) VALUES (?, ?, ?, ?)`,
			n.ID, n.MD5, n.Size, n.Version,
		); err != nil {
			return fmt.Errorf("upserting file %s: %w", n.ID, err)
		}
		if !n.Available() {
			if _, err := tx.Exec(`DELETE FROM content WHERE id = ?`, n.ID); err != nil {
				return fmt.Errorf("evicting content of %s: %w", n.ID, err)
			}
		}
		inserted = append(inserted, n)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing files: %w", err)
	}

	for _, n := range inserted {
		e.resolve.StoreNode(n)
	}
	e.logger.Info("inserted files", "count", len(inserted))
	return nil
}

// InsertParentage (re)builds the parent edges declared by a batch of raw
// nodes. With partial set, all existing edges whose child is in the batch
// are dropped first, realizing "replace this child's parent set" for
// incremental updates; without it edges are purely additive. Work is
// chunked by child, and each chunk's delete and re-inserts share one
// transaction so a failure cannot leave a child parentless.
func (e *Engine) InsertParentage(nodes []drive.RawNode, partial bool) error {
	if len(nodes) == 0 {
		return nil
	}

	for start := 0; start < len(nodes); start += chunkSize {
		chunk := nodes[start:min(start+chunkSize, len(nodes))]
		if err := e.parentChunk(chunk, partial); err != nil {
			return err
		}
	}

	e.logger.Info("parented nodes", "count", len(nodes))
	return nil
}

func (e *Engine) parentChunk(chunk []drive.RawNode, partial bool) error {
	tx, err := e.store.DB().Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if partial {
		args := make([]any, len(chunk))
		for i, n := range chunk {
			args[i] = n.ID
		}
		if _, err := tx.Exec(
			`DELETE FROM parentage WHERE child IN `+placeholders(len(chunk)), args...,
		); err != nil {
			return fmt.Errorf("clearing parent edges: %w", err)
		}
	}

	for _, n := range chunk {
		for _, parent := range n.Parents {
			if _, err := tx.Exec(
				`INSERT OR IGNORE INTO parentage (parent, child) VALUES (?, ?)`,
				parent, n.ID,
			); err != nil {
				return fmt.Errorf("parenting %s under %s: %w", n.ID, parent, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing parentage: %w", err)
	}
	return nil
}

// InsertProperties applies the owner-scoped property maps carried by a
// batch of raw nodes, overwriting prior values wholesale.
func (e *Engine) InsertProperties(nodes []drive.RawNode) error {
	if len(nodes) == 0 {
		return nil
	}

	tx, err := e.store.DB().Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	applied := 0
	for _, n := range nodes {
		if len(n.Properties) == 0 {
			continue
		}
		for owner, keyValues := range n.Properties {
			for key, value := range keyValues {
				if _, err := tx.Exec(
					`INSERT OR REPLACE INTO properties (id, owner, "key", value) VALUES (?, ?, ?, ?)`,
					n.ID, owner, key, value,
				); err != nil {
					return fmt.Errorf("applying property %s/%s of %s: %w", owner, key, n.ID, err)
				}
			}
		}
		applied++
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing properties: %w", err)
	}

	e.logger.Info("applied properties", "count", applied)
	return nil
}

// InsertProperty upserts a single owner-scoped property.
func (e *Engine) InsertProperty(nodeID, ownerID, key, value string) error {
	_, err := e.store.DB().Exec(
		`INSERT OR REPLACE INTO properties (id, owner, "key", value) VALUES (?, ?, ?, ?)`,
		nodeID, ownerID, key, value,
	)
	if err != nil {
		return fmt.Errorf("applying property %s/%s of %s: %w", ownerID, key, nodeID, err)
	}
	return nil
}

// RemovePurged deletes every row referencing nodes the remote has
// permanently removed, in bounded chunks. This is the only path that
// fully removes a node's footprint; status transitions such as TRASH
// leave rows intact. Chunks already committed stay committed if a later
// chunk fails; re-issuing the deletes is safe.
func (e *Engine) RemovePurged(purged []string) error {
	if len(purged) == 0 {
		return nil
	}

	for start := 0; start < len(purged); start += chunkSize {
		chunk := purged[start:min(start+chunkSize, len(purged))]
		if err := e.purgeChunk(chunk); err != nil {
			return err
		}
	}

	e.resolve.RemoveNodes(purged)
	e.logger.Info("purged nodes", "count", len(purged))
	return nil
}

func (e *Engine) purgeChunk(chunk []string) error {
	tx, err := e.store.DB().Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	args := make([]any, len(chunk))
	for i, id := range chunk {
		args[i] = id
	}
	marks := placeholders(len(chunk))

	// Dependent rows go first; the nodes rows carry the foreign keys.
	deletes := []string{
		`DELETE FROM files WHERE id IN ` + marks,
		`DELETE FROM content WHERE id IN ` + marks,
		`DELETE FROM parentage WHERE parent IN ` + marks,
		`DELETE FROM parentage WHERE child IN ` + marks,
		`DELETE FROM properties WHERE id IN ` + marks,
		`DELETE FROM labels WHERE id IN ` + marks,
		`DELETE FROM nodes WHERE id IN ` + marks,
	}
	for _, stmt := range deletes {
		if _, err := tx.Exec(stmt, args...); err != nil {
			return fmt.Errorf("purging nodes: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing purge: %w", err)
	}
	return nil
}

// InsertContent caches a raw payload for a node, stamping size and the
// current access time for the eviction collaborator.
func (e *Engine) InsertContent(nodeID string, version int64, value []byte) error {
	_, err := e.store.DB().Exec(
		`INSERT OR REPLACE INTO content (id, value, size, version, accessed) VALUES (?, ?, ?, ?, ?)`,
		nodeID, value, int64(len(value)), version, e.clock.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("caching content of %s: %w", nodeID, err)
	}
	return nil
}

// RemoveContent deletes the cached payload of a node, if any.
func (e *Engine) RemoveContent(nodeID string) error {
	if _, err := e.store.DB().Exec(`DELETE FROM content WHERE id = ?`, nodeID); err != nil {
		return fmt.Errorf("removing content of %s: %w", nodeID, err)
	}
	return nil
}

// ResolveAdd records a resolved path in the path map.
func (e *Engine) ResolveAdd(path, nodeID string) {
	e.resolve.AddPath(path, nodeID)
}

// ResolveDelete drops a path entry. A no-op if the path is absent.
func (e *Engine) ResolveDelete(path string) {
	e.resolve.DeletePath(path)
}

// upsertNode writes the canonical node row. Empty names and descriptions
// are stored as NULL; the root folder is the one node with no name.
func upsertNode(tx *sql.Tx, n *drive.Node) error {
	_, err := tx.Exec(
		`INSERT OR REPLACE INTO nodes (id, kind, name, description, created, modified, updated, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.Kind, nullable(n.Name), nullable(n.Description),
		n.Created, n.Modified, n.Updated, n.Status,
	)
	if err != nil {
		return fmt.Errorf("upserting node %s: %w", n.ID, err)
	}
	return nil
}

// nullable maps the empty string to NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// placeholders returns "(?, ?, ...)" with n markers.
func placeholders(n int) string {
	return "(" + strings.TrimSuffix(strings.Repeat("?, ", n), ", ") + ")"
}
