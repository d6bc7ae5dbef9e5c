// Package recorder captures privacy-redacted snapshots of a live UI tree
// using a set of pluggable, capability-matched node recorders.
package recorder

import (
	"github.com/replaykit/replaykit/pkg/types"
)

// Element is the host-agnostic view of one live UI element, supplied by a
// platform adapter. Element trees may only be read synchronously on the main
// execution context; the recorder never retains them past a capture.
type Element struct {
	// ID is the element's stable identity. It must be unique within one tree
	// and stable across consecutive captures of the same element.
	ID string

	// Frame is the element's on-screen geometry.
	Frame types.Rect

	// Text is the element's visible text content, if any.
	Text string

	// IsInput marks user-editable elements (text fields, secure fields).
	IsInput bool

	// IsWebView marks embedded web content.
	IsWebView bool

	// Image holds the element's bitmap content, if any, with its MIME type.
	Image     []byte
	ImageType string

	// Unsupported marks subtrees the host adapter cannot expose. The whole
	// subtree is replaced by an opaque placeholder node.
	Unsupported bool

	// Children are ordered child elements.
	Children []*Element
}

// TreeProvider supplies the live element tree at capture time. Implemented by
// the platform adapter; called only on the main execution context.
type TreeProvider interface {
	ViewTree() []*Element
}

// TreeProviderFunc adapts a function to the TreeProvider interface.
type TreeProviderFunc func() []*Element

func (f TreeProviderFunc) ViewTree() []*Element {
	return f()
}
