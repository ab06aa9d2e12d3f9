package tree

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/matzehuels/decomptree/pkg/table"
)

// TestAggregateProperties drives the aggregator with random two-column tables
// and checks the structural invariants hold regardless of input shape.
func TestAggregateProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		regions := rapid.SliceOfN(rapid.SampledFrom([]string{"North", "South", "East", "West", ""}), 0, 40).Draw(t, "regions")
		statuses := rapid.SliceOfN(rapid.SampledFrom([]string{"Early", "On-Time", "Delayed"}), len(regions), len(regions)).Draw(t, "statuses")

		tbl := table.New("Region", "Status")
		for i, r := range regions {
			tbl.Append(table.Row{
				"Region": table.Parse(r), // "" parses to null
				"Status": table.String(statuses[i]),
			})
		}

		forest, err := Aggregate(tbl, Options{Hierarchy: []string{"Region", "Status"}})
		if err != nil {
			t.Fatalf("Aggregate() error: %v", err)
		}

		var topRows int
		for _, root := range forest {
			topRows += len(root.Rows)
			root.Walk(func(n *Node) {
				if n.Percentage < 0 || n.Percentage > 100 {
					t.Fatalf("%s: percentage %d out of range", n.Name, n.Percentage)
				}
				if n.IsLeaf() {
					return
				}
				var sum float64
				var rows int
				for _, c := range n.Children {
					sum += c.Value
					rows += len(c.Rows)
				}
				if sum != n.Value {
					t.Fatalf("%s: child values sum to %v, node value %v", n.Name, sum, n.Value)
				}
				if rows != len(n.Rows) {
					t.Fatalf("%s: child rows %d, node rows %d", n.Name, rows, len(n.Rows))
				}
			})
		}
		// Top-level groups partition the table exactly.
		if topRows != tbl.Len() {
			t.Fatalf("top-level groups carry %d rows, table has %d", topRows, tbl.Len())
		}
	})
}
