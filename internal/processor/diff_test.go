package processor

import (
	"reflect"
	"testing"

	"github.com/replaykit/replaykit/pkg/types"
)

func textNode(id, text string, children ...types.Node) types.Node {
	return types.Node{
		ID:       types.NodeID(id),
		Kind:     types.NodeKindText,
		Text:     text,
		Children: children,
	}
}

func container(id string, children ...types.Node) types.Node {
	return types.Node{
		ID:       types.NodeID(id),
		Kind:     types.NodeKindContainer,
		Children: children,
	}
}

func TestDiffIdenticalTreesIsEmpty(t *testing.T) {
	tree := []types.Node{
		container("root",
			textNode("a", "hello"),
			textNode("b", "world"),
		),
	}

	if muts := Diff(tree, tree); len(muts) != 0 {
		t.Errorf("expected no mutations for identical trees, got %d: %+v", len(muts), muts)
	}
}

func TestDiffDetectsAdd(t *testing.T) {
	prev := []types.Node{container("root", textNode("a", "hello"))}
	next := []types.Node{container("root", textNode("a", "hello"), textNode("b", "world"))}

	muts := Diff(prev, next)
	if len(muts) != 1 {
		t.Fatalf("expected 1 mutation, got %d: %+v", len(muts), muts)
	}
	m := muts[0]
	if m.Op != types.MutationAdd || m.ID != "b" {
		t.Errorf("expected add of b, got %+v", m)
	}
	if m.Parent != "root" || m.Index != 1 {
		t.Errorf("expected parent=root index=1, got parent=%s index=%d", m.Parent, m.Index)
	}
	if m.Node == nil || m.Node.Text != "world" {
		t.Errorf("add should carry the shallow node, got %+v", m.Node)
	}
}

func TestDiffDetectsRemove(t *testing.T) {
	prev := []types.Node{container("root", textNode("a", "hello"), textNode("b", "world"))}
	next := []types.Node{container("root", textNode("a", "hello"))}

	muts := Diff(prev, next)

	// Removing b shifts nothing else: a keeps index 0.
	if len(muts) != 1 {
		t.Fatalf("expected 1 mutation, got %d: %+v", len(muts), muts)
	}
	if muts[0].Op != types.MutationRemove || muts[0].ID != "b" {
		t.Errorf("expected remove of b, got %+v", muts[0])
	}
}

func TestDiffDetectsTextUpdate(t *testing.T) {
	prev := []types.Node{container("root", textNode("a", "hello"))}
	next := []types.Node{container("root", textNode("a", "goodbye"))}

	muts := Diff(prev, next)
	if len(muts) != 1 {
		t.Fatalf("expected 1 mutation, got %d: %+v", len(muts), muts)
	}
	m := muts[0]
	if m.Op != types.MutationUpdate || m.ID != "a" {
		t.Errorf("expected update of a, got %+v", m)
	}
	if m.Node == nil || m.Node.Text != "goodbye" {
		t.Errorf("update should carry new content, got %+v", m.Node)
	}
}

func TestDiffDetectsMove(t *testing.T) {
	prev := []types.Node{
		container("root",
			container("left", textNode("a", "hello")),
			container("right"),
		),
	}
	next := []types.Node{
		container("root",
			container("left"),
			container("right", textNode("a", "hello")),
		),
	}

	muts := Diff(prev, next)
	var moved *types.Mutation
	for i := range muts {
		if muts[i].ID == "a" {
			moved = &muts[i]
		}
	}
	if moved == nil {
		t.Fatalf("expected a mutation for moved node, got %+v", muts)
	}
	if moved.Op != types.MutationUpdate || moved.Parent != "right" {
		t.Errorf("move should surface as update with new parent, got %+v", moved)
	}
}

func TestDiffOrdering(t *testing.T) {
	prev := []types.Node{
		container("root",
			textNode("gone", "x"),
			textNode("stale", "old"),
		),
	}
	next := []types.Node{
		container("root",
			textNode("stale", "new"),
			container("parent", textNode("child", "y")),
		),
	}

	muts := Diff(prev, next)

	var ops []types.MutationOp
	for _, m := range muts {
		ops = append(ops, m.Op)
	}

	// Removes come first, then adds with parents before children, then
	// updates. "stale" moved from index 1 to 0 and changed text, so it is an
	// update; "gone"'s removal must not disturb that.
	want := []types.MutationOp{
		types.MutationRemove,
		types.MutationAdd,
		types.MutationAdd,
		types.MutationUpdate,
	}
	if !reflect.DeepEqual(ops, want) {
		t.Fatalf("expected op order %v, got %v (%+v)", want, ops, muts)
	}
	if muts[1].ID != "parent" || muts[2].ID != "child" {
		t.Errorf("adds must list parents before children, got %s then %s", muts[1].ID, muts[2].ID)
	}
}

func TestApplyRoundTrip(t *testing.T) {
	prev := []types.Node{
		container("root",
			textNode("a", "hello"),
			container("box",
				textNode("b", "world"),
			),
		),
	}
	next := []types.Node{
		container("root",
			container("box",
				textNode("b", "world!"),
				textNode("c", "new"),
			),
		),
		container("toast"),
	}

	got := Apply(prev, Diff(prev, next))
	if !reflect.DeepEqual(got, next) {
		t.Errorf("round trip mismatch:\n got: %+v\nwant: %+v", got, next)
	}
}

func TestApplyFromEmpty(t *testing.T) {
	next := []types.Node{container("root", textNode("a", "hi"))}

	got := Apply(nil, Diff(nil, next))
	if !reflect.DeepEqual(got, next) {
		t.Errorf("round trip from empty mismatch:\n got: %+v\nwant: %+v", got, next)
	}
}

func TestApplyToEmpty(t *testing.T) {
	prev := []types.Node{container("root", textNode("a", "hi"))}

	if got := Apply(prev, Diff(prev, nil)); len(got) != 0 {
		t.Errorf("expected empty tree, got %+v", got)
	}
}
