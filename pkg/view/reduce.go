package view

import (
	"slices"

	"github.com/matzehuels/decomptree/pkg/tree"
)

// Event is an interaction applied to a [State] via [Apply].
type Event interface{ isEvent() }

// Toggle flips the expanded flag of the node at Path. Toggling a leaf is a
// no-op.
type Toggle struct{ Path string }

// ExpandAll marks every internal node expanded.
type ExpandAll struct{}

// CollapseAll collapses everything down to the bare root.
type CollapseAll struct{}

// Reorder moves the node at Path to a new position among its siblings,
// derived from where the drag ended. Positions maps each sibling path to its
// coordinate on the sibling axis of the layout the drag happened in; DropY is
// the released coordinate on that axis. The first reorder switches the tree
// to manual ordering.
type Reorder struct {
	Path      string
	DropY     float64
	Positions map[string]float64
}

// SetSort changes the automatic sibling sort mode. Ignored while manual
// ordering is active.
type SetSort struct{ Mode tree.SortMode }

func (Toggle) isEvent()      {}
func (ExpandAll) isEvent()   {}
func (CollapseAll) isEvent() {}
func (Reorder) isEvent()     {}
func (SetSort) isEvent()     {}

// Apply reduces an event into a new state. The input state and the tree are
// never mutated; unknown paths are ignored.
func Apply(root *tree.Node, s State, e Event) State {
	switch ev := e.(type) {
	case Toggle:
		return applyToggle(root, s, ev)
	case ExpandAll:
		next := s.clone()
		walkPaths(root, RootPath, 0, func(n *tree.Node, path string, _ int) {
			if !n.IsLeaf() {
				next.Expanded[path] = true
			}
		})
		return next
	case CollapseAll:
		next := s.clone()
		next.Expanded = map[string]bool{}
		return next
	case Reorder:
		return applyReorder(root, s, ev)
	case SetSort:
		if s.ManualOrder {
			return s
		}
		next := s.clone()
		next.Sort = ev.Mode
		return next
	default:
		return s
	}
}

func applyToggle(root *tree.Node, s State, ev Toggle) State {
	node := Find(root, ev.Path)
	if node == nil || node.IsLeaf() {
		return s
	}
	next := s.clone()
	if next.Expanded[ev.Path] {
		delete(next.Expanded, ev.Path)
	} else {
		next.Expanded[ev.Path] = true
	}
	return next
}

func applyReorder(root *tree.Node, s State, ev Reorder) State {
	node := Find(root, ev.Path)
	if node == nil {
		return s
	}
	parentPath := ParentPath(ev.Path)
	parent := Find(root, parentPath)
	if parent == nil || len(parent.Children) < 2 {
		return s
	}

	key := node.Key()

	// Remaining siblings in on-screen order, i.e. sorted by their coordinate
	// on the sibling axis. Siblings without a recorded position sort first.
	type sib struct {
		key string
		pos float64
	}
	sibs := make([]sib, 0, len(parent.Children)-1)
	for _, child := range parent.Children {
		k := child.Key()
		if k == key {
			continue
		}
		sibs = append(sibs, sib{key: k, pos: ev.Positions[ChildPath(parentPath, k)]})
	}
	slices.SortStableFunc(sibs, func(a, b sib) int {
		switch {
		case a.pos < b.pos:
			return -1
		case a.pos > b.pos:
			return 1
		default:
			return 0
		}
	})

	// The dragged node lands before the first sibling below the drop point,
	// or at the end when released past the last one.
	drop := len(sibs)
	for i, s := range sibs {
		if s.pos > ev.DropY {
			drop = i
			break
		}
	}

	order := make([]string, 0, len(parent.Children))
	for _, s := range sibs[:drop] {
		order = append(order, s.key)
	}
	order = append(order, key)
	for _, s := range sibs[drop:] {
		order = append(order, s.key)
	}

	next := s.clone()
	next.ManualOrder = true
	next.Orders[parentPath] = order
	return next
}
