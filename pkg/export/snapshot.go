package export

import (
	"math"
	"time"

	"github.com/matzehuels/decomptree/pkg/layout"
	"github.com/matzehuels/decomptree/pkg/tree"
	"github.com/matzehuels/decomptree/pkg/view"
)

// Variant selects which tree an image export captures.
type Variant string

// Export variants.
const (
	// VariantComplete force-expands a fresh copy of the whole tree,
	// ignoring the live collapse state.
	VariantComplete Variant = "complete"
	// VariantCurrentView captures the live, possibly-collapsed layout.
	VariantCurrentView Variant = "current_view"
)

// Snapshot lays out the tree for an export variant. The interaction state is
// read, never modified: the complete variant expands a derived overlay, so
// the on-screen collapse flags survive the export untouched. Sibling ordering
// (sort mode or manual order) carries into both variants.
func Snapshot(root *tree.Node, state view.State, variant Variant) *layout.Layout {
	if variant == VariantComplete {
		state = view.Apply(root, state, view.ExpandAll{})
	}
	return layout.Compute(view.Visible(root, state))
}

// Filename stamps an export file name with the ISO date, e.g.
// "decomposition_tree_white_bg_2026-08-29.png". An empty variant yields the
// undecorated "decomposition_tree_<date>.<ext>".
func Filename(variant, ext string, now time.Time) string {
	stamp := now.Format("2006-01-02")
	if variant == "" {
		return "decomposition_tree_" + stamp + "." + ext
	}
	return "decomposition_tree_" + variant + "_" + stamp + "." + ext
}

// outline is one group box in layout coordinates.
type outline struct {
	x, y          float64 // top-left, screen orientation (x horizontal)
	width, height float64
	color         string
}

const (
	outlineStrokeWidth = 2.5
	outlineRadius      = 18
	outlineDash        = "8 6"
	outlineFallback    = "#94A3B8"
)

// groupOutlines computes one rounded box per subtree rooted at the style's
// outline level, padded proportionally to the node size and stroked in the
// subtree root's color.
func groupOutlines(l *layout.Layout, style Style) []outline {
	if !style.ShowGroupOutlines {
		return nil
	}
	padX := style.NodeSize * 2.5
	padY := style.NodeSize * 2.0

	var out []outline
	for _, n := range l.Nodes {
		if n.Node.Level != style.OutlineLevel {
			continue
		}
		minX, maxX := math.Inf(1), math.Inf(-1)
		minY, maxY := math.Inf(1), math.Inf(-1)
		n.Walk(func(d *view.VisibleNode) {
			p, ok := l.Pos(d.Path)
			if !ok {
				return
			}
			minX = math.Min(minX, p.X)
			maxX = math.Max(maxX, p.X)
			minY = math.Min(minY, p.Y)
			maxY = math.Max(maxY, p.Y)
		})
		color := n.Node.Color
		if color == "" {
			color = outlineFallback
		}
		out = append(out, outline{
			x:      minY - padX,
			y:      minX - padY,
			width:  (maxY - minY) + padX*2,
			height: (maxX - minX) + padY*2,
			color:  color,
		})
	}
	return out
}
