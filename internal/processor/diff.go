// Package processor contains the background stages of the pipeline: the
// snapshot processor (structural diff + record emission) and the resource
// processor (content-hash deduplicated persistence). Both run exclusively on
// the shared background serial queue; all their mutable state is owned by
// that queue and never touched from the main context.
package processor

import (
	"sort"

	"github.com/replaykit/replaykit/pkg/types"
)

// flatNode is one node's position-annotated shallow form. The diff operates
// on identifier-keyed flat maps, O(n) over node count, rather than comparing
// trees structurally.
type flatNode struct {
	node   types.Node // children stripped
	parent types.NodeID
	index  int // position among siblings
}

func (f flatNode) equal(other flatNode) bool {
	return f.parent == other.parent && f.index == other.index && f.node.ShallowEqual(other.node)
}

// walkTree visits every node in pre-order with its parent and sibling index.
func walkTree(nodes []types.Node, parent types.NodeID, visit func(n types.Node, parent types.NodeID, index int)) {
	for i := range nodes {
		visit(nodes[i], parent, i)
		walkTree(nodes[i].Children, nodes[i].ID, visit)
	}
}

// flatten builds the identifier-keyed map of a snapshot tree.
func flatten(nodes []types.Node) map[types.NodeID]flatNode {
	flat := make(map[types.NodeID]flatNode)
	walkTree(nodes, "", func(n types.Node, parent types.NodeID, index int) {
		flat[n.ID] = flatNode{node: n.WithoutChildren(), parent: parent, index: index}
	})
	return flat
}

// Diff computes the minimal mutation list transforming prev into next.
// Mutations are ordered removes, then adds in pre-order (parents before
// children), then updates; Apply reproduces next from prev and this list.
func Diff(prev, next []types.Node) []types.Mutation {
	prevFlat := flatten(prev)
	nextFlat := flatten(next)

	var muts []types.Mutation

	walkTree(prev, "", func(n types.Node, parent types.NodeID, index int) {
		if _, ok := nextFlat[n.ID]; !ok {
			muts = append(muts, types.Mutation{Op: types.MutationRemove, ID: n.ID})
		}
	})

	var updates []types.Mutation
	walkTree(next, "", func(n types.Node, parent types.NodeID, index int) {
		fn := nextFlat[n.ID]
		old, existed := prevFlat[n.ID]
		switch {
		case !existed:
			node := fn.node
			muts = append(muts, types.Mutation{
				Op:     types.MutationAdd,
				ID:     n.ID,
				Node:   &node,
				Parent: parent,
				Index:  index,
			})
		case !old.equal(fn):
			node := fn.node
			updates = append(updates, types.Mutation{
				Op:     types.MutationUpdate,
				ID:     n.ID,
				Node:   &node,
				Parent: parent,
				Index:  index,
			})
		}
	})

	return append(muts, updates...)
}

// Apply replays a mutation list onto prev and returns the resulting tree.
// This is the decoder-side contract the diff is held to: Apply(prev,
// Diff(prev, next)) is structurally equal to next.
func Apply(prev []types.Node, muts []types.Mutation) []types.Node {
	flat := flatten(prev)

	for _, m := range muts {
		switch m.Op {
		case types.MutationRemove:
			delete(flat, m.ID)
		case types.MutationAdd, types.MutationUpdate:
			if m.Node == nil {
				continue
			}
			flat[m.ID] = flatNode{
				node:   m.Node.WithoutChildren(),
				parent: m.Parent,
				index:  m.Index,
			}
		}
	}

	return rebuild(flat)
}

// rebuild reassembles a tree from its flat form, ordering siblings by index.
func rebuild(flat map[types.NodeID]flatNode) []types.Node {
	children := make(map[types.NodeID][]types.NodeID)
	for id, fn := range flat {
		children[fn.parent] = append(children[fn.parent], id)
	}
	for parent := range children {
		ids := children[parent]
		sort.Slice(ids, func(i, j int) bool {
			return flat[ids[i]].index < flat[ids[j]].index
		})
	}

	var build func(id types.NodeID) types.Node
	build = func(id types.NodeID) types.Node {
		node := flat[id].node
		for _, childID := range children[id] {
			node.Children = append(node.Children, build(childID))
		}
		return node
	}

	var roots []types.Node
	for _, id := range children[""] {
		roots = append(roots, build(id))
	}
	return roots
}
