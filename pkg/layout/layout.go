// Package layout places a visible tree on the plane with fixed node spacing.
//
// The tree grows left to right: a node's horizontal coordinate is its depth
// times [DY], and siblings stack vertically [DX] apart. Coordinates follow
// the horizontal node-link convention: X is the vertical (sibling) axis and Y
// the horizontal (depth) axis. Because spacing is fixed rather than fitted to
// a viewport, expanding one branch never shifts unrelated branches'
// relative geometry, and laying out the same visible tree twice yields
// identical positions.
package layout

import "github.com/matzehuels/decomptree/pkg/view"

// Fixed spacing between nodes, in SVG user units.
const (
	// DX separates adjacent leaf rows on the vertical axis.
	DX = 44
	// DY separates consecutive depth levels on the horizontal axis.
	DY = 220
)

// Point is a node position. X runs down the sibling axis, Y along depth.
type Point struct {
	X float64
	Y float64
}

// PlacedNode pairs a visible node with its position.
type PlacedNode struct {
	*view.VisibleNode
	Point
}

// Link connects a placed parent to a placed child.
type Link struct {
	Source *PlacedNode
	Target *PlacedNode
}

// Layout is the computed geometry of one visible tree.
type Layout struct {
	Root  *PlacedNode
	Nodes []*PlacedNode
	Links []Link

	// MinX and MaxX bound the vertical extent over all placed nodes.
	MinX float64
	MaxX float64

	byPath map[string]*PlacedNode
}

// Pos returns the position of the node at path.
func (l *Layout) Pos(path string) (Point, bool) {
	p, ok := l.byPath[path]
	if !ok {
		return Point{}, false
	}
	return p.Point, true
}

// Positions returns the sibling-axis coordinate per path, the shape a
// drag-reorder event wants.
func (l *Layout) Positions() map[string]float64 {
	out := make(map[string]float64, len(l.byPath))
	for path, p := range l.byPath {
		out[path] = p.X
	}
	return out
}

// Compute lays out a visible tree. Visible leaves are assigned consecutive
// vertical slots in visit order; each internal node is centered between its
// first and last child. The result depends only on the visible tree's
// structure, so recomputing after a cosmetic re-render is stable.
func Compute(root *view.VisibleNode) *Layout {
	l := &Layout{byPath: map[string]*PlacedNode{}}
	var nextSlot float64
	l.Root = l.place(root, 0, &nextSlot)

	l.MinX, l.MaxX = l.Root.X, l.Root.X
	for _, n := range l.Nodes {
		if n.X < l.MinX {
			l.MinX = n.X
		}
		if n.X > l.MaxX {
			l.MaxX = n.X
		}
	}
	return l
}

func (l *Layout) place(v *view.VisibleNode, depth int, nextSlot *float64) *PlacedNode {
	p := &PlacedNode{VisibleNode: v}
	p.Y = float64(depth) * DY

	if len(v.Children) == 0 {
		p.X = *nextSlot
		*nextSlot += DX
	} else {
		children := make([]*PlacedNode, 0, len(v.Children))
		for _, child := range v.Children {
			children = append(children, l.place(child, depth+1, nextSlot))
		}
		p.X = (children[0].X + children[len(children)-1].X) / 2
		for _, child := range children {
			l.Links = append(l.Links, Link{Source: p, Target: child})
		}
	}

	l.Nodes = append(l.Nodes, p)
	l.byPath[v.Path] = p
	return p
}

// FromPositions rebuilds a layout from previously computed sibling-axis
// coordinates, as produced by [Layout.Positions]. It reports false when any
// visible path is missing a coordinate, in which case the caller should fall
// back to [Compute].
func FromPositions(root *view.VisibleNode, xs map[string]float64) (*Layout, bool) {
	l := &Layout{byPath: map[string]*PlacedNode{}}
	ok := true
	l.Root = l.restore(root, 0, xs, &ok)
	if !ok {
		return nil, false
	}

	l.MinX, l.MaxX = l.Root.X, l.Root.X
	for _, n := range l.Nodes {
		if n.X < l.MinX {
			l.MinX = n.X
		}
		if n.X > l.MaxX {
			l.MaxX = n.X
		}
	}
	return l, true
}

func (l *Layout) restore(v *view.VisibleNode, depth int, xs map[string]float64, ok *bool) *PlacedNode {
	p := &PlacedNode{VisibleNode: v}
	p.Y = float64(depth) * DY

	x, found := xs[v.Path]
	if !found {
		*ok = false
		return p
	}
	p.X = x

	for _, child := range v.Children {
		placed := l.restore(child, depth+1, xs, ok)
		l.Links = append(l.Links, Link{Source: p, Target: placed})
	}

	l.Nodes = append(l.Nodes, p)
	l.byPath[v.Path] = p
	return p
}
