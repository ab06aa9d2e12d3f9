package layout

import (
	"testing"

	"github.com/matzehuels/decomptree/pkg/tree"
	"github.com/matzehuels/decomptree/pkg/view"
)

func fixture() *tree.Node {
	return &tree.Node{
		Name: "Root",
		Children: []*tree.Node{
			{
				Name: "Region: A", NodeValue: "A",
				Children: []*tree.Node{
					{Name: "Status: A1", NodeValue: "A1"},
					{Name: "Status: A2", NodeValue: "A2"},
					{Name: "Status: A3", NodeValue: "A3"},
				},
			},
			{Name: "Region: B", NodeValue: "B"},
		},
	}
}

func expandedLayout(root *tree.Node) *Layout {
	s := view.NewState(root, tree.SortNone)
	s = view.Apply(root, s, view.ExpandAll{})
	return Compute(view.Visible(root, s))
}

func TestComputePositions(t *testing.T) {
	root := fixture()
	l := expandedLayout(root)

	if got := len(l.Nodes); got != 6 {
		t.Fatalf("placed nodes = %d, want 6", got)
	}

	aPath := view.ChildPath(view.RootPath, "A")
	// Leaves take consecutive vertical slots DX apart.
	for i, key := range []string{"A1", "A2", "A3"} {
		p, ok := l.Pos(view.ChildPath(aPath, key))
		if !ok {
			t.Fatalf("no position for %s", key)
		}
		if want := float64(i) * DX; p.X != want {
			t.Errorf("%s: X = %v, want %v", key, p.X, want)
		}
		if p.Y != 2*DY {
			t.Errorf("%s: Y = %v, want %v", key, p.Y, 2*DY)
		}
	}

	// A is centered over its first and last child.
	a, _ := l.Pos(aPath)
	if a.X != DX || a.Y != DY {
		t.Errorf("A at (%v, %v), want (%v, %v)", a.X, a.Y, float64(DX), float64(DY))
	}

	// B, a top-level leaf, takes the next free slot after A's subtree.
	b, _ := l.Pos(view.ChildPath(view.RootPath, "B"))
	if b.X != 3*DX || b.Y != DY {
		t.Errorf("B at (%v, %v), want (%v, %v)", b.X, b.Y, 3.0*DX, float64(DY))
	}

	// Root is centered between A and B.
	rootPos, _ := l.Pos(view.RootPath)
	if rootPos.X != (a.X+b.X)/2 || rootPos.Y != 0 {
		t.Errorf("root at (%v, %v)", rootPos.X, rootPos.Y)
	}

	if l.MinX != 0 || l.MaxX != 3*DX {
		t.Errorf("extent = [%v, %v], want [0, %v]", l.MinX, l.MaxX, 3.0*DX)
	}
}

func TestComputeIsIdempotent(t *testing.T) {
	root := fixture()
	first := expandedLayout(root)
	second := expandedLayout(root)

	for path, want := range first.Positions() {
		got, ok := second.Pos(path)
		if !ok || got.X != want {
			t.Errorf("%s: second layout X = %v, want %v", path, got.X, want)
		}
	}
}

func TestCollapsedSubtreeIsSingleSlot(t *testing.T) {
	root := fixture()
	s := view.NewState(root, tree.SortNone)
	// Collapse A; its three leaves vanish from the layout.
	s = view.Apply(root, s, view.Toggle{Path: view.ChildPath(view.RootPath, "A")})
	l := Compute(view.Visible(root, s))

	if got := len(l.Nodes); got != 3 {
		t.Fatalf("placed nodes = %d, want 3", got)
	}
	a, _ := l.Pos(view.ChildPath(view.RootPath, "A"))
	b, _ := l.Pos(view.ChildPath(view.RootPath, "B"))
	if b.X-a.X != DX {
		t.Errorf("collapsed siblings %v apart, want %v", b.X-a.X, float64(DX))
	}
}

func TestLinks(t *testing.T) {
	root := fixture()
	l := expandedLayout(root)

	if got := len(l.Links); got != 5 {
		t.Fatalf("links = %d, want 5", got)
	}
	for _, link := range l.Links {
		if link.Target.Y-link.Source.Y != DY {
			t.Errorf("link %s→%s spans %v on the depth axis, want %v",
				link.Source.Node.Key(), link.Target.Node.Key(), link.Target.Y-link.Source.Y, float64(DY))
		}
	}
}
