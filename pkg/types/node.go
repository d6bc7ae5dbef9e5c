// Package types defines the wire model for session replay: captured UI nodes,
// snapshot trees, records, segments, and the RUM context carried in record
// headers.
package types

// NodeID is the stable identifier of a captured UI element. Identifiers are
// unique within one snapshot and stable across consecutive snapshots of the
// same element, which is what makes identifier-keyed diffing possible.
type NodeID string

// NodeKind tags the closed set of element kinds the recorder understands.
type NodeKind string

const (
	NodeKindText        NodeKind = "text"
	NodeKindImage       NodeKind = "image"
	NodeKindInput       NodeKind = "input"
	NodeKindWebView     NodeKind = "webview"
	NodeKindContainer   NodeKind = "container"
	NodeKindPlaceholder NodeKind = "placeholder"
)

// Rect is the on-screen geometry of a node in device-independent pixels.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Node is one UI element's captured, privacy-redacted representation.
// Children are ordered; the order is part of the snapshot's identity.
type Node struct {
	ID       NodeID   `json:"id"`
	Kind     NodeKind `json:"kind"`
	Frame    Rect     `json:"frame"`
	Text     string   `json:"text,omitempty"`
	Image    string   `json:"image,omitempty"`    // base64 inline image bytes
	Resource string   `json:"resource,omitempty"` // content-hash resource reference
	Children []Node   `json:"children,omitempty"`
}

// ShallowEqual reports whether two nodes carry the same captured state,
// ignoring children. Used by the diff to detect in-place updates.
func (n Node) ShallowEqual(other Node) bool {
	return n.ID == other.ID &&
		n.Kind == other.Kind &&
		n.Frame == other.Frame &&
		n.Text == other.Text &&
		n.Image == other.Image &&
		n.Resource == other.Resource
}

// WithoutChildren returns a copy of the node with its subtree stripped.
// Mutations carry shallow nodes; structural changes are expressed as
// separate add/remove operations.
func (n Node) WithoutChildren() Node {
	n.Children = nil
	return n
}

// Snapshot is an immutable tree of nodes captured at one instant for one view.
type Snapshot struct {
	ViewID    string `json:"view_id"`
	Timestamp int64  `json:"timestamp"` // unix milliseconds
	Nodes     []Node `json:"nodes"`     // ordered root nodes
}

// NodeCount returns the total number of nodes in the snapshot tree.
func (s Snapshot) NodeCount() int {
	count := 0
	var walk func(nodes []Node)
	walk = func(nodes []Node) {
		for i := range nodes {
			count++
			walk(nodes[i].Children)
		}
	}
	walk(s.Nodes)
	return count
}
