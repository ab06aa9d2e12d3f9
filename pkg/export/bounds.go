package export

import (
	"math"

	"github.com/matzehuels/decomptree/pkg/layout"
	"github.com/matzehuels/decomptree/pkg/tree"
)

// Bounds is the tight box around every glyph and label of a laid-out tree,
// in layout coordinates: X runs down the sibling axis, Y along the depth
// axis, matching [layout.Point].
type Bounds struct {
	MinX, MaxX float64
	MinY, MaxY float64
}

// labelClearance is the gap kept between a node's glyph, its label, and the
// box edge.
const labelClearance = 8

// ComputeBounds measures every placed node: the glyph extends NodeSize from
// the center, and the label sits centered above it, so the top edge must
// clear glyph plus font height and the sides must clear half the widest
// label.
func ComputeBounds(l *layout.Layout, style Style, m TextMeasurer) Bounds {
	b := Bounds{
		MinX: math.Inf(1), MaxX: math.Inf(-1),
		MinY: math.Inf(1), MaxY: math.Inf(-1),
	}
	for _, n := range l.Nodes {
		label := tree.FormatLabel(n.Node, style.LabelMode)
		halfText := m.Width(label) / 2

		top := n.X - (style.NodeSize + style.FontSize + labelClearance)
		bottom := n.X + (style.NodeSize + labelClearance)
		left := n.Y - math.Max(halfText, style.NodeSize)
		right := n.Y + math.Max(halfText, style.NodeSize)

		b.MinX = math.Min(b.MinX, top)
		b.MaxX = math.Max(b.MaxX, bottom)
		b.MinY = math.Min(b.MinY, left)
		b.MaxY = math.Max(b.MaxY, right)
	}
	return b
}

// Contains reports whether other fits entirely inside b.
func (b Bounds) Contains(other Bounds) bool {
	return other.MinX >= b.MinX && other.MaxX <= b.MaxX &&
		other.MinY >= b.MinY && other.MaxY <= b.MaxY
}

// Padding returns the margin added around the bounds: a fixed base, enlarged
// when group outlines need room to breathe.
func Padding(style Style) float64 {
	p := 40.0
	if style.ShowGroupOutlines {
		p += math.Ceil(style.NodeSize * 3)
	}
	return p
}

// Canvas is the pixel frame derived from bounds plus padding. Offsets
// translate layout coordinates into the frame: a node lands at
// (p.Y + OffsetX, p.X + OffsetY) in unscaled canvas units.
type Canvas struct {
	Width   int // unscaled, multiply by Style.Scale for pixels
	Height  int
	OffsetX float64
	OffsetY float64
}

// Frame computes the canvas for a bounding box under a style.
func Frame(b Bounds, style Style) Canvas {
	p := Padding(style)
	return Canvas{
		Width:   int(math.Ceil((b.MaxY - b.MinY) + p*2)),
		Height:  int(math.Ceil((b.MaxX - b.MinX) + p*2)),
		OffsetX: -b.MinY + p,
		OffsetY: -b.MinX + p,
	}
}
