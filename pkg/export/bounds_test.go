package export

import (
	"testing"
	"time"

	"github.com/matzehuels/decomptree/pkg/table"
	"github.com/matzehuels/decomptree/pkg/tree"
	"github.com/matzehuels/decomptree/pkg/view"
)

func exportFixture(t *testing.T) *tree.Node {
	t.Helper()
	tbl := table.New("Region", "Status")
	tbl.Append(table.Row{"Region": table.String("North"), "Status": table.String("Delayed")})
	tbl.Append(table.Row{"Region": table.String("North"), "Status": table.String("On-Time")})
	tbl.Append(table.Row{"Region": table.String("South"), "Status": table.String("On-Time")})

	forest, err := tree.Aggregate(tbl, tree.Options{Hierarchy: []string{"Region", "Status"}})
	if err != nil {
		t.Fatalf("Aggregate() error: %v", err)
	}
	return tree.WrapForest(forest, tbl)
}

func TestComputeBounds(t *testing.T) {
	root := exportFixture(t)
	state := view.NewState(root, tree.SortNone)
	l := Snapshot(root, state, VariantComplete)

	style := DefaultStyle()
	m := FixedMeasurer{PerRune: 7}
	b := ComputeBounds(l, style, m)

	if b.MinX >= b.MaxX || b.MinY >= b.MaxY {
		t.Fatalf("degenerate bounds %+v", b)
	}
	// The top edge clears glyph plus label height above the topmost node; the
	// bottom clears the glyph below the lowest one.
	wantTop := -(style.NodeSize + style.FontSize + labelClearance)
	if b.MinX != wantTop {
		t.Errorf("MinX = %v, want %v", b.MinX, wantTop)
	}
	// The widest label is wider than the glyph, so the horizontal extent is
	// text-driven on both sides.
	if b.MinY >= -style.NodeSize {
		t.Errorf("MinY = %v, should extend past half the root label", b.MinY)
	}
}

func TestCurrentViewBoundsWithinCompleteBounds(t *testing.T) {
	root := exportFixture(t)
	state := view.NewState(root, tree.SortNone)
	// Collapse one branch so the current view is a strict subset.
	state = view.Apply(root, state, view.Toggle{Path: view.ChildPath(view.RootPath, "North")})

	style := DefaultStyle()
	m := FixedMeasurer{PerRune: 7}

	complete := ComputeBounds(Snapshot(root, state, VariantComplete), style, m)
	current := ComputeBounds(Snapshot(root, state, VariantCurrentView), style, m)

	if !complete.Contains(current) {
		t.Errorf("current view bounds %+v escape complete bounds %+v", current, complete)
	}
	if current.MaxX-current.MinX >= complete.MaxX-complete.MinX {
		t.Error("collapsing a branch should shrink the vertical extent")
	}
}

func TestSnapshotLeavesStateUntouched(t *testing.T) {
	root := exportFixture(t)
	state := view.NewState(root, tree.SortNone)
	state = view.Apply(root, state, view.CollapseAll{})

	Snapshot(root, state, VariantComplete)

	if got := view.Visible(root, state).Count(); got != 1 {
		t.Errorf("complete export mutated live state, %d nodes visible", got)
	}
}

func TestFrame(t *testing.T) {
	style := DefaultStyle()
	b := Bounds{MinX: -10, MaxX: 50, MinY: -30, MaxY: 130}

	f := Frame(b, style)
	if f.Width != 240 || f.Height != 140 {
		t.Errorf("frame = %dx%d, want 240x140", f.Width, f.Height)
	}
	if f.OffsetX != 70 || f.OffsetY != 50 {
		t.Errorf("offsets = (%v, %v), want (70, 50)", f.OffsetX, f.OffsetY)
	}

	style.ShowGroupOutlines = true
	// ceil(17*3) = 51 extra padding on every side.
	if got := Padding(style); got != 91 {
		t.Errorf("outline padding = %v, want 91", got)
	}
}

func TestFilename(t *testing.T) {
	now := time.Date(2026, time.August, 29, 12, 0, 0, 0, time.UTC)
	if got := Filename("white_bg", "png", now); got != "decomposition_tree_white_bg_2026-08-29.png" {
		t.Errorf("Filename() = %q", got)
	}
	if got := Filename("", "svg", now); got != "decomposition_tree_2026-08-29.svg" {
		t.Errorf("plain Filename() = %q", got)
	}
}
