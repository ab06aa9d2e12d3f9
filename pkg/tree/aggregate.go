package tree

import (
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/decomptree/pkg/errors"
	"github.com/matzehuels/decomptree/pkg/table"
)

// Method selects how a node's value is aggregated from its rows.
type Method string

// Aggregation methods.
const (
	MethodCount   Method = "Count"
	MethodSum     Method = "Sum"
	MethodAverage Method = "Average" // sums like Sum; consumers derive the mean via Node.Average
)

// ColorResolver resolves the display color for a node. The color package
// provides the standard implementation; a nil resolver paints everything
// in DefaultColor.
type ColorResolver interface {
	Resolve(column, nodeValue string, level int) string
}

// Options configures one aggregation run. Only Hierarchy is required.
type Options struct {
	// Hierarchy is the ordered column list defining tree depth. The first
	// column forms the top-level groups.
	Hierarchy []string

	// Method picks count, sum, or average aggregation. Empty means count.
	Method Method

	// ValueColumn is the numeric column summed under Sum and Average.
	// Non-numeric cells contribute 0.
	ValueColumn string

	// TooltipColumns are summarized per node in addition to the default set.
	TooltipColumns []string

	// DisplayFilters restricts which normalized group values produce nodes
	// per column. Filtered rows vanish from the subtree entirely; this is
	// visibility filtering, not zeroing.
	DisplayFilters map[string]map[string]bool

	// TimeComparison adds the matching derived status column to tooltips.
	TimeComparison table.TimeComparison

	// Colors resolves per-node display colors. Nil paints DefaultColor.
	Colors ColorResolver
}

// defaultTooltipColumns are always summarized when present in the table.
var defaultTooltipColumns = []string{
	table.ColStatus,
	table.ColDelayDays,
	table.ColPIC,
	table.ColDelayReason,
	table.ColPlannedDate,
	table.ColActualDate,
}

// Aggregate folds the table's rows into a forest of aggregation trees, one
// top-level node per distinct value of the first hierarchy column.
//
// Group order is deterministic: ascending by normalized string key, numeric
// keys compared numerically, with the "No Data" group always last. The grand
// total for percentages is computed over the full table before any filtering
// or recursion, so a node's percentage never depends on its parent.
func Aggregate(t *table.Table, opts Options) ([]*Node, error) {
	if err := errors.ValidateHierarchy(opts.Hierarchy); err != nil {
		return nil, err
	}
	if opts.Method == MethodSum || opts.Method == MethodAverage {
		if !t.HasColumn(opts.ValueColumn) {
			return nil, errors.New(errors.ErrCodeColumnNotFound, "value column %q not in table", opts.ValueColumn)
		}
	}

	agg := &aggregator{
		opts:    opts,
		tooltip: tooltipColumns(t, opts),
		total:   grandTotal(t.Rows, opts),
	}
	return agg.descend(t.Rows, 0), nil
}

type aggregator struct {
	opts    Options
	tooltip []string
	total   float64
}

// descend partitions rows by the hierarchy column at the given level and
// recurses into each group until the hierarchy is exhausted.
func (a *aggregator) descend(rows []table.Row, level int) []*Node {
	if level >= len(a.opts.Hierarchy) {
		return nil
	}
	col := a.opts.Hierarchy[level]
	allowed := a.opts.DisplayFilters[col]

	var nodes []*Node
	for _, g := range groupRows(rows, col) {
		if allowed != nil && len(allowed) > 0 && !allowed[g.key] {
			continue
		}
		node := &Node{
			Name:        col + ": " + g.key,
			Column:      col,
			NodeValue:   g.key,
			Value:       a.measure(g.rows),
			Count:       len(g.rows),
			Level:       level,
			TooltipData: a.summarize(g.rows),
			Color:       a.color(col, g.key, level),
			Rows:        g.rows,
		}
		node.Percentage = percentage(node.Value, a.total)
		node.Children = a.descend(g.rows, level+1)
		nodes = append(nodes, node)
	}
	return nodes
}

// measure computes the node value: row count, or the value column summed
// with non-numeric cells contributing 0.
func (a *aggregator) measure(rows []table.Row) float64 {
	if a.opts.Method == "" || a.opts.Method == MethodCount {
		return float64(len(rows))
	}
	sum := 0.0
	for _, row := range rows {
		if f, ok := row.Get(a.opts.ValueColumn).Number(); ok {
			sum += f
		}
	}
	return sum
}

// summarize collects the distinct, sorted, stringified values of each tooltip
// column across the rows, excluding nulls and empty strings.
func (a *aggregator) summarize(rows []table.Row) map[string]string {
	out := make(map[string]string, len(a.tooltip))
	for _, col := range a.tooltip {
		seen := make(map[string]struct{})
		var vals []string
		for _, row := range rows {
			v := row.Get(col)
			if v.IsNull() {
				continue
			}
			s := v.String()
			if s == "" {
				continue
			}
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}
			vals = append(vals, s)
		}
		slices.Sort(vals)
		out[col] = strings.Join(vals, ", ")
	}
	return out
}

func (a *aggregator) color(col, val string, level int) string {
	if a.opts.Colors == nil {
		return DefaultColor
	}
	return a.opts.Colors.Resolve(col, val, level)
}

// grandTotal is the percentage denominator: the aggregate over every row of
// the input table, computed once before filtering and recursion.
func grandTotal(rows []table.Row, opts Options) float64 {
	if opts.Method == "" || opts.Method == MethodCount {
		return float64(len(rows))
	}
	sum := 0.0
	for _, row := range rows {
		if f, ok := row.Get(opts.ValueColumn).Number(); ok {
			sum += f
		}
	}
	return sum
}

// percentage rounds half away from zero to a whole number. 66.67 → 67.
func percentage(value, total float64) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(value / total * 100))
}

// tooltipColumns merges the requested columns with the default set and the
// derived status column for the active comparison mode, keeping only columns
// the table actually has and preserving first-mention order.
func tooltipColumns(t *table.Table, opts Options) []string {
	var cols []string
	add := func(col string) {
		if t.HasColumn(col) && !slices.Contains(cols, col) {
			cols = append(cols, col)
		}
	}
	for _, col := range opts.TooltipColumns {
		add(col)
	}
	for _, col := range defaultTooltipColumns {
		add(col)
	}
	switch opts.TimeComparison {
	case table.CompareWeek:
		add(table.ColWeekStatus)
	case table.CompareMonth:
		add(table.ColMonthStatus)
	}
	return cols
}

// group is one partition of rows sharing a normalized key value.
type group struct {
	key  string
	rows []table.Row
}

// groupRows partitions rows by the normalized string value of col and returns
// the groups in deterministic order: numeric keys first in numeric order,
// then the rest ascending lexicographically, "No Data" always last.
func groupRows(rows []table.Row, col string) []group {
	index := make(map[string]int)
	var groups []group
	for _, row := range rows {
		key := row.Get(col).String()
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, group{key: key})
		}
		groups[i].rows = append(groups[i].rows, row)
	}
	slices.SortStableFunc(groups, func(a, b group) int {
		return compareKeys(a.key, b.key)
	})
	return groups
}

func compareKeys(a, b string) int {
	if a == b {
		return 0
	}
	if a == table.NoData {
		return 1
	}
	if b == table.NoData {
		return -1
	}
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	if errA == nil && errB == nil {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a, b)
}
