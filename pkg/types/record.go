package types

// RecordType discriminates the payload carried by a record.
type RecordType string

const (
	// RecordTypeFull carries a complete snapshot tree. Emitted for the first
	// snapshot seen for a view.
	RecordTypeFull RecordType = "full"
	// RecordTypeIncremental carries an ordered list of mutations relative to
	// the previous record for the same view.
	RecordTypeIncremental RecordType = "incremental"
	// RecordTypeMeta carries view metadata without snapshot content.
	RecordTypeMeta RecordType = "meta"
)

// MutationOp identifies one structural diff operation.
type MutationOp string

const (
	MutationAdd    MutationOp = "add"
	MutationRemove MutationOp = "remove"
	MutationUpdate MutationOp = "update"
)

// Mutation is one add/remove/update step of an incremental record.
// Add and update carry the shallow node plus its position (parent and index
// among siblings); remove carries only the node id. An empty Parent means the
// node is a snapshot root.
type Mutation struct {
	Op     MutationOp `json:"op"`
	ID     NodeID     `json:"id"`
	Node   *Node      `json:"node,omitempty"`
	Parent NodeID     `json:"parent,omitempty"`
	Index  int        `json:"index,omitempty"`
}

// FullPayload is the payload of a RecordTypeFull record.
type FullPayload struct {
	Nodes []Node `json:"nodes"`
}

// IncrementalPayload is the payload of a RecordTypeIncremental record.
// Mutations are ordered: removes, then adds (parents before children), then
// updates. Applying them in order to the previous tree reproduces the new one.
type IncrementalPayload struct {
	Mutations []Mutation `json:"mutations"`
}

// MetaPayload is the payload of a RecordTypeMeta record.
type MetaPayload struct {
	ViewName string `json:"view_name,omitempty"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
}

// Record is one self-describing serialized unit within a segment. The RUM
// context active at capture time is copied into the header; records within a
// segment are strictly time-ordered.
type Record struct {
	Type          RecordType `json:"type"`
	Timestamp     int64      `json:"timestamp"` // unix milliseconds
	ApplicationID string     `json:"application_id"`
	SessionID     string     `json:"session_id"`
	ViewID        string     `json:"view_id"`

	Full        *FullPayload        `json:"full,omitempty"`
	Incremental *IncrementalPayload `json:"incremental,omitempty"`
	Meta        *MetaPayload        `json:"meta,omitempty"`
}
