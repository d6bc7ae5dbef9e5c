package types

import "testing"

func TestShallowEqualIgnoresChildren(t *testing.T) {
	a := Node{ID: "n1", Kind: NodeKindContainer, Frame: Rect{0, 0, 100, 50}}
	b := a
	b.Children = []Node{{ID: "n2", Kind: NodeKindText, Text: "hi"}}

	if !a.ShallowEqual(b) {
		t.Error("nodes differing only in children should be shallow-equal")
	}
}

func TestShallowEqualDetectsStateChange(t *testing.T) {
	base := Node{ID: "n1", Kind: NodeKindText, Frame: Rect{0, 0, 100, 20}, Text: "hello"}

	moved := base
	moved.Frame.X = 10
	if base.ShallowEqual(moved) {
		t.Error("frame change must break shallow equality")
	}

	retexted := base
	retexted.Text = "goodbye"
	if base.ShallowEqual(retexted) {
		t.Error("text change must break shallow equality")
	}

	rehashed := base
	rehashed.Resource = "abcd1234"
	if base.ShallowEqual(rehashed) {
		t.Error("resource reference change must break shallow equality")
	}
}

func TestWithoutChildrenDoesNotMutate(t *testing.T) {
	n := Node{
		ID:       "n1",
		Kind:     NodeKindContainer,
		Children: []Node{{ID: "n2"}, {ID: "n3"}},
	}

	stripped := n.WithoutChildren()
	if stripped.Children != nil {
		t.Error("copy should carry no children")
	}
	if len(n.Children) != 2 {
		t.Error("original must keep its children")
	}
	if stripped.ID != n.ID || stripped.Kind != n.Kind {
		t.Error("shallow fields must survive the strip")
	}
}

func TestNodeCountWalksWholeTree(t *testing.T) {
	s := Snapshot{
		ViewID: "view-a",
		Nodes: []Node{
			{ID: "root", Children: []Node{
				{ID: "a", Children: []Node{{ID: "a1"}, {ID: "a2"}}},
				{ID: "b"},
			}},
			{ID: "root2"},
		},
	}

	if got := s.NodeCount(); got != 6 {
		t.Errorf("expected 6 nodes, got %d", got)
	}
	if got := (Snapshot{}).NodeCount(); got != 0 {
		t.Errorf("empty snapshot should count 0, got %d", got)
	}
}

func TestParsePrivacyLevel(t *testing.T) {
	for _, valid := range []string{"allow", "mask", "mask_user_input"} {
		level, err := ParsePrivacyLevel(valid)
		if err != nil {
			t.Errorf("ParsePrivacyLevel(%q) returned error: %v", valid, err)
		}
		if string(level) != valid {
			t.Errorf("ParsePrivacyLevel(%q) = %q", valid, level)
		}
	}

	for _, invalid := range []string{"", "MASK", "block", "mask-user-input"} {
		if _, err := ParsePrivacyLevel(invalid); err == nil {
			t.Errorf("ParsePrivacyLevel(%q) should fail", invalid)
		}
	}
}
