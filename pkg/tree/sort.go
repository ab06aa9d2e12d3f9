package tree

import (
	"slices"
	"strings"
)

// SortMode is the automatic sibling ordering applied before any manual
// reorder. SortNone keeps aggregation order.
type SortMode string

// Sort modes.
const (
	SortNone      SortMode = "as-is"
	SortNameAsc   SortMode = "name-asc"
	SortNameDesc  SortMode = "name-desc"
	SortValueAsc  SortMode = "value-asc"
	SortValueDesc SortMode = "value-desc"
)

// ParseSortMode maps a user-facing mode string to a SortMode, defaulting to
// SortNone for anything unrecognized.
func ParseSortMode(s string) SortMode {
	switch SortMode(s) {
	case SortNameAsc, SortNameDesc, SortValueAsc, SortValueDesc:
		return SortMode(s)
	default:
		return SortNone
	}
}

// Compare orders two sibling nodes under the given mode. Name comparison is
// case-insensitive lexicographic; value comparison is numeric.
func Compare(a, b *Node, mode SortMode) int {
	switch mode {
	case SortNameAsc:
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	case SortNameDesc:
		return strings.Compare(strings.ToLower(b.Name), strings.ToLower(a.Name))
	case SortValueAsc:
		return compareFloat(a.Value, b.Value)
	case SortValueDesc:
		return compareFloat(b.Value, a.Value)
	default:
		return 0
	}
}

// SortChildren sorts every sibling group in the subtree by the given mode.
// The sort is stable so equal keys keep aggregation order. SortNone is a
// no-op.
func SortChildren(n *Node, mode SortMode) {
	if mode == SortNone {
		return
	}
	n.Walk(func(d *Node) {
		slices.SortStableFunc(d.Children, func(a, b *Node) int {
			return Compare(a, b, mode)
		})
	})
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
