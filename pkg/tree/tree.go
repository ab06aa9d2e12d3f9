// Package tree implements the hierarchical aggregation engine: it folds the
// rows of a flat table into a nested tree of groups along an ordered column
// hierarchy, computing per-node values, root-relative percentages, and
// summarized tooltip attributes.
//
// Trees are immutable aggregation results. Interaction state (expand/collapse,
// manual ordering) lives in a separate overlay (see the view package) and a
// configuration change always rebuilds the whole tree from scratch.
package tree

import (
	"fmt"

	"github.com/matzehuels/decomptree/pkg/table"
)

// Display color defaults. Nodes fall back to DefaultColor when no resolver is
// configured; PlaceholderColor marks the "No Data" stand-in root.
const (
	DefaultColor     = "#3B82F6"
	PlaceholderColor = "#9CA3AF"
)

// SuperRootLevel is the level of the synthetic root wrapped around a forest
// with more than one top-level group. Real nodes start at level 0.
const SuperRootLevel = -1

// Node is one aggregated group at a given depth.
//
// Invariants maintained by the aggregator:
//   - Value equals the sum of the direct children's Value whenever children exist.
//   - Rows is exactly the union of the children's Rows, disjoint across siblings.
//   - Percentage is computed once against the grand total, never re-derived
//     relative to the parent.
type Node struct {
	Name        string            // display string, "<column>: <value>"
	Column      string            // grouping column (empty for the super-root)
	NodeValue   string            // normalized group value, NoData for null
	Value       float64           // row count or sum of the value column
	Count       int               // row count, kept alongside Value for averaging
	Percentage  int               // whole-number percent of the grand total
	Level       int               // depth, root level 0, super-root -1
	TooltipData map[string]string // column → distinct sorted values, ", "-joined
	Color       string            // resolved display hex color
	Rows        []table.Row       // source rows folded into this node
	Children    []*Node           // ordered children, nil for leaves
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool { return len(n.Children) == 0 }

// Average returns Value/Count. The built-in renderers always label nodes
// with Value, matching the interactive display; consumers that want the
// per-row mean under average aggregation compute it from here.
func (n *Node) Average() float64 {
	if n.Count == 0 {
		return 0
	}
	return n.Value / float64(n.Count)
}

// Walk visits the node and every descendant in depth-first pre-order.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, child := range n.Children {
		child.Walk(fn)
	}
}

// Descendants returns the node and all nodes below it in pre-order.
func (n *Node) Descendants() []*Node {
	var out []*Node
	n.Walk(func(d *Node) { out = append(out, d) })
	return out
}

// NodeCount returns the number of nodes in the subtree, including n.
func (n *Node) NodeCount() int {
	count := 0
	n.Walk(func(*Node) { count++ })
	return count
}

// Key identifies the node among its siblings: the normalized group value for
// regular nodes, the name for synthetic ones. Combined with the ancestor
// chain it forms the path identity interaction state is keyed on.
func (n *Node) Key() string {
	if n.NodeValue != "" {
		return n.NodeValue
	}
	return n.Name
}

// Clone returns a deep copy of the subtree. Rows are shared, not copied: they
// are read-only once aggregation finishes.
func (n *Node) Clone() *Node {
	out := *n
	if n.TooltipData != nil {
		out.TooltipData = make(map[string]string, len(n.TooltipData))
		for k, v := range n.TooltipData {
			out.TooltipData[k] = v
		}
	}
	if n.Children != nil {
		out.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			out.Children[i] = child.Clone()
		}
	}
	return &out
}

// WrapForest turns the aggregated forest into a single root for layout. One
// top-level group is its own root; several are wrapped in a synthetic
// super-root carrying the whole table as raw rows; none yields a "No Data"
// placeholder so rendering always has something to draw.
func WrapForest(forest []*Node, t *table.Table) *Node {
	switch len(forest) {
	case 0:
		return &Node{
			Name:        table.NoData,
			Level:       0,
			TooltipData: map[string]string{},
			Color:       PlaceholderColor,
		}
	case 1:
		return forest[0]
	default:
		total := 0.0
		for _, n := range forest {
			total += n.Value
		}
		root := &Node{
			Name:        "Root",
			Level:       SuperRootLevel,
			Value:       total,
			Count:       t.Len(),
			Percentage:  100,
			TooltipData: map[string]string{},
			Color:       DefaultColor,
			Children:    forest,
		}
		root.Rows = append(root.Rows, t.Rows...)
		return root
	}
}

// FormatLabel renders the node's display label under the given mode.
func FormatLabel(n *Node, mode LabelMode) string {
	switch mode {
	case LabelNameOnly:
		return n.Name
	case LabelValueOnly:
		return fmt.Sprintf("%s (%s)", n.Name, formatValue(n.Value))
	case LabelPercentageOnly:
		return fmt.Sprintf("%s (%d%%)", n.Name, n.Percentage)
	default:
		return fmt.Sprintf("%s (%s, %d%%)", n.Name, formatValue(n.Value), n.Percentage)
	}
}

// LabelMode selects what a node label appends after the name.
type LabelMode string

// Label display modes.
const (
	LabelValuePercentage LabelMode = "value_percentage"
	LabelValueOnly       LabelMode = "value_only"
	LabelPercentageOnly  LabelMode = "percentage_only"
	LabelNameOnly        LabelMode = "name_only"
)

func formatValue(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
