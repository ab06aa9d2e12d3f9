// Package view maintains the interactive overlay on top of an immutable
// aggregation tree: per-node expand/collapse flags, automatic sort mode, and
// the manual sibling order set by drag-reorder.
//
// The overlay is a pure state machine: [Apply] maps (state, event) to a new
// state without touching the tree, and [Visible] derives the currently
// visible, ordered tree from (tree, state). Because every derivation starts
// from the immutable aggregation result, no sequence of toggles can lose or
// duplicate subtree structure. Rendering surfaces (the TUI, the HTTP viewer)
// only ever emit events; they never mutate nodes.
//
// A drag gesture and a click are distinct events: a surface that detects a
// drag emits only [Reorder], never the [Toggle] the click would have meant.
package view

import (
	"strings"

	"github.com/matzehuels/decomptree/pkg/tree"
)

// pathSep joins node keys into a path identity. The unit separator cannot
// appear in normalized group values read from tabular data.
const pathSep = "\x1f"

// RootPath identifies the tree root.
const RootPath = ""

// ChildPath extends a parent path with a child's sibling key.
func ChildPath(parent, key string) string {
	if parent == RootPath {
		return key
	}
	return parent + pathSep + key
}

// ParentPath returns the path of the node's parent, RootPath for top level.
func ParentPath(path string) string {
	if i := strings.LastIndex(path, pathSep); i >= 0 {
		return path[:i]
	}
	return RootPath
}

// State is the interaction overlay. It is keyed by node path, not by node
// pointer, so it survives re-derivations and cosmetic re-renders; a tree
// rebuild discards it wholesale.
type State struct {
	// Expanded holds the paths whose children are currently shown. The root
	// itself is always visible; its presence here controls its children.
	Expanded map[string]bool

	// Sort is the automatic sibling ordering. Ignored once ManualOrder is set.
	Sort tree.SortMode

	// ManualOrder is set by the first drag-reorder and suppresses Sort until
	// the tree is rebuilt.
	ManualOrder bool

	// Orders maps a parent path to the explicit child key order established
	// by drag-reorder. Parents without an entry keep their derived order.
	Orders map[string][]string
}

// NewState returns the initial overlay for a tree: nodes at depth 0 and 1
// expanded, everything deeper collapsed.
func NewState(root *tree.Node, sort tree.SortMode) State {
	s := State{
		Expanded: map[string]bool{},
		Sort:     sort,
		Orders:   map[string][]string{},
	}
	walkPaths(root, RootPath, 0, func(n *tree.Node, path string, depth int) {
		if depth <= 1 && !n.IsLeaf() {
			s.Expanded[path] = true
		}
	})
	return s
}

// clone returns a deep copy so Apply never aliases the previous state.
func (s State) clone() State {
	out := State{
		Expanded:    make(map[string]bool, len(s.Expanded)),
		Sort:        s.Sort,
		ManualOrder: s.ManualOrder,
		Orders:      make(map[string][]string, len(s.Orders)),
	}
	for k, v := range s.Expanded {
		out.Expanded[k] = v
	}
	for k, v := range s.Orders {
		out.Orders[k] = append([]string(nil), v...)
	}
	return out
}

// walkPaths visits every node with its path identity and depth.
func walkPaths(n *tree.Node, path string, depth int, fn func(*tree.Node, string, int)) {
	fn(n, path, depth)
	for _, child := range n.Children {
		walkPaths(child, ChildPath(path, child.Key()), depth+1, fn)
	}
}

// Find resolves a path to its node in the tree, nil when the path does not
// exist (e.g. state from a previous tree generation).
func Find(root *tree.Node, path string) *tree.Node {
	if path == RootPath {
		return root
	}
	node := root
	for _, key := range strings.Split(path, pathSep) {
		var next *tree.Node
		for _, child := range node.Children {
			if child.Key() == key {
				next = child
				break
			}
		}
		if next == nil {
			return nil
		}
		node = next
	}
	return node
}
