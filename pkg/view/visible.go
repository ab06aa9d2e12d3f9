package view

import (
	"slices"

	"github.com/matzehuels/decomptree/pkg/tree"
)

// VisibleNode is one node of the derived on-screen tree. It references the
// underlying aggregation node and carries the ordered, expansion-filtered
// children.
type VisibleNode struct {
	Node  *tree.Node
	Path  string
	Depth int

	// Collapsed is true when the node has children that are currently hidden.
	Collapsed bool

	Children []*VisibleNode
}

// Walk visits the visible node and every visible descendant.
func (v *VisibleNode) Walk(fn func(*VisibleNode)) {
	fn(v)
	for _, child := range v.Children {
		child.Walk(fn)
	}
}

// Count returns the number of visible nodes in the subtree.
func (v *VisibleNode) Count() int {
	n := 0
	v.Walk(func(*VisibleNode) { n++ })
	return n
}

// Visible derives the currently visible tree: collapsed nodes keep no
// children, and every sibling group is ordered by the state's manual order
// when one exists, otherwise by its sort mode. The aggregation tree is not
// modified.
func Visible(root *tree.Node, s State) *VisibleNode {
	return derive(root, s, RootPath, 0)
}

func derive(n *tree.Node, s State, path string, depth int) *VisibleNode {
	v := &VisibleNode{Node: n, Path: path, Depth: depth}
	if n.IsLeaf() {
		return v
	}
	if !s.Expanded[path] {
		v.Collapsed = true
		return v
	}
	for _, child := range orderChildren(n, s, path) {
		v.Children = append(v.Children, derive(child, s, ChildPath(path, child.Key()), depth+1))
	}
	return v
}

// orderChildren applies the sibling ordering rules to one group. Manual order
// wins outright; keys missing from a stale manual order are appended in their
// derived position. Groups without a manual entry keep following the sort
// mode, so a drag in one group never rearranges its untouched siblings
// (SetSort is rejected under manual order, freezing the mode at its
// pre-drag value).
func orderChildren(parent *tree.Node, s State, parentPath string) []*tree.Node {
	children := slices.Clone(parent.Children)

	if order, ok := s.Orders[parentPath]; ok {
		rank := make(map[string]int, len(order))
		for i, key := range order {
			rank[key] = i
		}
		slices.SortStableFunc(children, func(a, b *tree.Node) int {
			ra, aok := rank[a.Key()]
			rb, bok := rank[b.Key()]
			switch {
			case aok && bok:
				return ra - rb
			case aok:
				return -1
			case bok:
				return 1
			default:
				return 0
			}
		})
		return children
	}

	if s.Sort == tree.SortNone {
		return children
	}
	slices.SortStableFunc(children, func(a, b *tree.Node) int {
		return tree.Compare(a, b, s.Sort)
	})
	return children
}
