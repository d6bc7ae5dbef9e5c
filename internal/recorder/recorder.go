package recorder

import (
	"time"

	"github.com/replaykit/replaykit/pkg/types"
)

// CaptureResult is one completed capture: the snapshot tree plus any
// resources extracted from it, and the number of placeholder substitutions.
type CaptureResult struct {
	Snapshot     types.Snapshot
	Resources    []types.Resource
	Placeholders int
}

// Recorder walks the live element tree and produces snapshots. Capture is
// deterministic given identical UI state and privacy level, and must only be
// called on the main execution context.
type Recorder struct {
	provider  TreeProvider
	recorders []NodeRecorder
}

// New creates a recorder over the given tree provider with the default
// recorder registry: web content, input, image, text, container - most
// specific first.
func New(provider TreeProvider, inlineImageThreshold int) *Recorder {
	return &Recorder{
		provider: provider,
		recorders: []NodeRecorder{
			webViewRecorder{},
			inputRecorder{},
			imageRecorder{inlineThreshold: inlineImageThreshold},
			textRecorder{},
			containerRecorder{},
		},
	}
}

// Capture snapshots the current element tree under the given privacy level.
// A subtree that cannot be recorded becomes an opaque placeholder node; a
// capture never aborts.
func (r *Recorder) Capture(viewID string, now time.Time, privacy types.PrivacyLevel) CaptureResult {
	result := CaptureResult{
		Snapshot: types.Snapshot{
			ViewID:    viewID,
			Timestamp: now.UnixMilli(),
		},
	}

	for _, el := range r.provider.ViewTree() {
		if el == nil {
			continue
		}
		result.Snapshot.Nodes = append(result.Snapshot.Nodes, r.record(el, privacy, &result))
	}

	return result
}

// record captures one element and its subtree.
func (r *Recorder) record(el *Element, privacy types.PrivacyLevel, result *CaptureResult) types.Node {
	if el.Unsupported {
		result.Placeholders++
		return types.Node{
			ID:    types.NodeID(el.ID),
			Kind:  types.NodeKindPlaceholder,
			Frame: el.Frame,
		}
	}

	var node types.Node
	for _, rec := range r.recorders {
		if !rec.Matches(el) {
			continue
		}
		var res *types.Resource
		node, res = rec.Record(el, privacy)
		if res != nil {
			result.Resources = append(result.Resources, *res)
		}
		break
	}

	for _, child := range el.Children {
		if child == nil {
			continue
		}
		node.Children = append(node.Children, r.record(child, privacy, result))
	}

	return node
}
