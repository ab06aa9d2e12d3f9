package view

import (
	"reflect"
	"testing"

	"github.com/matzehuels/decomptree/pkg/tree"
)

// threeLevel builds Root → {A → {A1, A2}, B → {B1}} with A1 carrying one
// grandchild so depth 3 exists.
func threeLevel() *tree.Node {
	return &tree.Node{
		Name: "Root",
		Children: []*tree.Node{
			{
				Name: "Region: A", NodeValue: "A", Value: 3,
				Children: []*tree.Node{
					{Name: "Status: A1", NodeValue: "A1", Value: 2,
						Children: []*tree.Node{{Name: "PIC: deep", NodeValue: "deep", Value: 2}}},
					{Name: "Status: A2", NodeValue: "A2", Value: 1},
				},
			},
			{
				Name: "Region: B", NodeValue: "B", Value: 1,
				Children: []*tree.Node{{Name: "Status: B1", NodeValue: "B1", Value: 1}},
			},
		},
	}
}

func visibleKeys(v *VisibleNode) []string {
	var out []string
	v.Walk(func(n *VisibleNode) { out = append(out, n.Node.Key()) })
	return out
}

func TestNewStateExpandsTwoLevels(t *testing.T) {
	root := threeLevel()
	s := NewState(root, tree.SortNone)

	v := Visible(root, s)
	// Root, A, B expanded; A1 (depth 2) visible but collapsed, so "deep" hidden.
	got := visibleKeys(v)
	want := []string{"Root", "A", "A1", "A2", "B", "B1"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("visible = %v, want %v", got, want)
	}

	a1 := v.Children[0].Children[0]
	if !a1.Collapsed {
		t.Error("depth-2 internal node should start collapsed")
	}
}

func TestToggle(t *testing.T) {
	root := threeLevel()
	s := NewState(root, tree.SortNone)
	a1 := ChildPath(ChildPath(RootPath, "A"), "A1")

	s2 := Apply(root, s, Toggle{Path: a1})
	if Visible(root, s2).Count() != 7 {
		t.Errorf("expanding A1 should reveal its child, visible = %d", Visible(root, s2).Count())
	}
	// The original state is untouched.
	if Visible(root, s).Count() != 6 {
		t.Error("Apply must not mutate its input state")
	}

	s3 := Apply(root, s2, Toggle{Path: a1})
	if Visible(root, s3).Count() != 6 {
		t.Error("toggling back should hide the subtree again")
	}

	// Toggling a leaf or an unknown path changes nothing.
	if got := Apply(root, s, Toggle{Path: ChildPath(ChildPath(RootPath, "A"), "A2")}); !reflect.DeepEqual(got, s) {
		t.Error("toggling a leaf should be a no-op")
	}
	if got := Apply(root, s, Toggle{Path: "nope"}); !reflect.DeepEqual(got, s) {
		t.Error("toggling an unknown path should be a no-op")
	}
}

func TestExpandAllCollapseAll(t *testing.T) {
	root := threeLevel()
	s := NewState(root, tree.SortNone)

	all := Apply(root, s, ExpandAll{})
	if got := Visible(root, all).Count(); got != root.NodeCount() {
		t.Errorf("expand all: visible = %d, want %d", got, root.NodeCount())
	}

	none := Apply(root, all, CollapseAll{})
	v := Visible(root, none)
	if v.Count() != 1 || !v.Collapsed {
		t.Errorf("collapse all should leave only the collapsed root, got %d nodes", v.Count())
	}

	// Expand all after collapse restores the full structure; nothing is lost.
	again := Apply(root, none, ExpandAll{})
	if got := Visible(root, again).Count(); got != root.NodeCount() {
		t.Errorf("re-expand: visible = %d, want %d", got, root.NodeCount())
	}
}

func TestSortedSiblings(t *testing.T) {
	root := threeLevel()
	s := NewState(root, tree.SortValueAsc)

	v := Visible(root, s)
	if v.Children[0].Node.Key() != "B" || v.Children[1].Node.Key() != "A" {
		t.Errorf("value-asc order = %s, %s, want B, A", v.Children[0].Node.Key(), v.Children[1].Node.Key())
	}
	// Sorting applies recursively: A's children flip too.
	a := v.Children[1]
	if a.Children[0].Node.Key() != "A2" {
		t.Errorf("nested order starts with %s, want A2", a.Children[0].Node.Key())
	}
}

func TestReorder(t *testing.T) {
	root := threeLevel()
	s := NewState(root, tree.SortNone)

	aPath := ChildPath(RootPath, "A")
	bPath := ChildPath(RootPath, "B")

	// Drag A below B: B sits at x=0, drop past it.
	s2 := Apply(root, s, Reorder{
		Path:      aPath,
		DropY:     100,
		Positions: map[string]float64{aPath: 0, bPath: 44},
	})
	if !s2.ManualOrder {
		t.Fatal("reorder should activate manual ordering")
	}
	v := Visible(root, s2)
	if v.Children[0].Node.Key() != "B" || v.Children[1].Node.Key() != "A" {
		t.Errorf("order after drop = %s, %s, want B, A", v.Children[0].Node.Key(), v.Children[1].Node.Key())
	}

	// Dragging back above B restores the original order.
	s3 := Apply(root, s2, Reorder{
		Path:      aPath,
		DropY:     -10,
		Positions: map[string]float64{aPath: 44, bPath: 0},
	})
	v = Visible(root, s3)
	if v.Children[0].Node.Key() != "A" {
		t.Errorf("order after second drop starts with %s, want A", v.Children[0].Node.Key())
	}
}

func TestReorderPreservesSiblingSet(t *testing.T) {
	root := threeLevel()
	s := NewState(root, tree.SortNone)
	aPath := ChildPath(RootPath, "A")
	a1 := ChildPath(aPath, "A1")
	a2 := ChildPath(aPath, "A2")

	s2 := Apply(root, s, Reorder{
		Path:      a1,
		DropY:     500,
		Positions: map[string]float64{a1: 0, a2: 44},
	})
	order := s2.Orders[aPath]
	if len(order) != 2 {
		t.Fatalf("manual order = %v, want both siblings", order)
	}
	if !reflect.DeepEqual(order, []string{"A2", "A1"}) {
		t.Errorf("manual order = %v, want [A2 A1]", order)
	}
}

func TestReorderKeepsOtherGroupsSorted(t *testing.T) {
	// B's children are stored in value-descending aggregation order, so the
	// ascending sort visibly flips them.
	root := &tree.Node{
		Name: "Root",
		Children: []*tree.Node{
			{
				Name: "Region: A", NodeValue: "A", Value: 3,
				Children: []*tree.Node{
					{Name: "Status: A1", NodeValue: "A1", Value: 2},
					{Name: "Status: A2", NodeValue: "A2", Value: 1},
				},
			},
			{
				Name: "Region: B", NodeValue: "B", Value: 3,
				Children: []*tree.Node{
					{Name: "Status: B1", NodeValue: "B1", Value: 2},
					{Name: "Status: B2", NodeValue: "B2", Value: 1},
				},
			},
		},
	}
	s := NewState(root, tree.SortValueAsc)
	aPath := ChildPath(RootPath, "A")
	bPath := ChildPath(RootPath, "B")
	a1 := ChildPath(aPath, "A1")
	a2 := ChildPath(aPath, "A2")

	group := func(st State, path string) []string {
		var keys []string
		v := Visible(root, st)
		v.Walk(func(n *VisibleNode) {
			if n.Path == path {
				for _, c := range n.Children {
					keys = append(keys, c.Node.Key())
				}
			}
		})
		return keys
	}
	if got := group(s, bPath); !reflect.DeepEqual(got, []string{"B2", "B1"}) {
		t.Fatalf("pre-drag B order = %v, want [B2 B1]", got)
	}

	// Drag inside A only. A1 sits at its sorted position (after A2).
	dragged := Apply(root, s, Reorder{
		Path:      a1,
		DropY:     -10,
		Positions: map[string]float64{a2: 0, a1: 44},
	})
	if !dragged.ManualOrder {
		t.Fatal("reorder should activate manual ordering")
	}
	if got := group(dragged, aPath); !reflect.DeepEqual(got, []string{"A1", "A2"}) {
		t.Errorf("dragged group order = %v, want [A1 A2]", got)
	}
	// The untouched group keeps the sorted order it was showing.
	if got := group(dragged, bPath); !reflect.DeepEqual(got, []string{"B2", "B1"}) {
		t.Errorf("untouched group order = %v, want sorted [B2 B1]", got)
	}
}

func TestSortSuppressedByManualOrder(t *testing.T) {
	root := threeLevel()
	s := NewState(root, tree.SortNone)
	aPath := ChildPath(RootPath, "A")
	bPath := ChildPath(RootPath, "B")

	manual := Apply(root, s, Reorder{
		Path:      aPath,
		DropY:     100,
		Positions: map[string]float64{aPath: 0, bPath: 44},
	})
	// Sort events are ignored once a manual order exists.
	sorted := Apply(root, manual, SetSort{Mode: tree.SortNameAsc})
	if sorted.Sort != tree.SortNone {
		t.Error("sort change should be rejected under manual order")
	}
	v := Visible(root, sorted)
	if v.Children[0].Node.Key() != "B" {
		t.Error("manual order should survive a sort attempt")
	}
}
