package drive

// RawNode is a single remote node description as delivered by the change
// feed. Optional fields are enumerated explicitly; validation happens at
// the ingestion boundary before a canonical Node is constructed.
type RawNode struct {
	ID           string                       `json:"id"`
	Kind         string                       `json:"kind"`
	Status       string                       `json:"status"`
	Name         string                       `json:"name,omitempty"`
	Description  string                       `json:"description,omitempty"`
	CreatedDate  string                       `json:"createdDate"`
	ModifiedDate string                       `json:"modifiedDate"`
	IsRoot       bool                         `json:"isRoot,omitempty"`
	Parents      []string                     `json:"parents"`
	ContentProps *ContentProperties           `json:"contentProperties,omitempty"`
	Properties   map[string]map[string]string `json:"properties,omitempty"`
	Labels       []string                     `json:"labels,omitempty"`
}

// ContentProperties carries the file-specific attributes of a raw node.
type ContentProperties struct {
	MD5     string `json:"md5"`
	Size    int64  `json:"size"`
	Version int64  `json:"version"`
}

// ChangeSet is one batch from the remote change feed. Reset marks a full
// resync: the resolve cache is flushed and parent edges are rebuilt
// additively instead of per-child replacement.
type ChangeSet struct {
	Checkpoint  string    `json:"checkpoint,omitempty"`
	Reset       bool      `json:"reset,omitempty"`
	Nodes       []RawNode `json:"nodes"`
	PurgedNodes []string  `json:"purgedNodes,omitempty"`
}
