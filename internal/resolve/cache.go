// Package resolve holds the in-memory projections of the node table used
// to short-circuit path and id lookups. Entries are derived, disposable
// views of the persistent store, never the source of truth.
package resolve

import (
	"sync"

	"drivecache/internal/drive"
)

// Cache maps paths to node ids and node ids to constructed nodes. One
// mutex guards both maps: the sync engine updates both in response to a
// single incoming node and readers must never observe a partial view.
// There is no eviction; the mirror is bounded by the remote tree size.
type Cache struct {
	mu       sync.Mutex
	pathToID map[string]string
	nodeByID map[string]*drive.Node
}

func New() *Cache {
	return &Cache{
		pathToID: make(map[string]string),
		nodeByID: make(map[string]*drive.Node),
	}
}

// AddPath records a resolved path for a node id.
func (c *Cache) AddPath(path, nodeID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pathToID[path] = nodeID
}

// DeletePath removes a path entry. A no-op if the path is absent.
func (c *Cache) DeletePath(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pathToID, path)
}

// LookupPath returns the node id cached for a path.
func (c *Cache) LookupPath(path string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.pathToID[path]
	return id, ok
}

// StoreNode records the node in the id map when it is available and
// removes any existing entry otherwise. Every upsert path funnels through
// here so non-available nodes can never linger in the cache.
func (c *Cache) StoreNode(n *drive.Node) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n.Available() {
		c.nodeByID[n.ID] = n
	} else {
		delete(c.nodeByID, n.ID)
	}
}

// Node returns the cached node for an id.
func (c *Cache) Node(id string) (*drive.Node, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.nodeByID[id]
	return n, ok
}

// RemoveNode drops the id map entry for a single node.
func (c *Cache) RemoveNode(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.nodeByID, id)
}

// RemoveNodes drops the id map entries for a batch of nodes.
func (c *Cache) RemoveNodes(ids []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		delete(c.nodeByID, id)
	}
}

// Flush clears both maps. Subsequent reads repopulate them lazily or via
// a full resync.
func (c *Cache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.pathToID)
	clear(c.nodeByID)
}

// Len returns the number of path and node entries.
func (c *Cache) Len() (paths, nodes int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pathToID), len(c.nodeByID)
}
