package export

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/decomptree/pkg/layout"
	"github.com/matzehuels/decomptree/pkg/tree"
)

// DOTOptions configures the Graphviz alternative renderer.
type DOTOptions struct {
	// LabelMode controls what each node label appends after the name.
	LabelMode tree.LabelMode
	// Detailed adds tooltip summaries to node labels.
	Detailed bool
}

// ToDOT converts a laid-out tree to Graphviz DOT. Graphviz does its own
// placement, so this is an alternative presentation of the same visible
// structure rather than a replay of the fixed-spacing layout.
func ToDOT(l *layout.Layout, opts DOTOptions) string {
	var buf bytes.Buffer
	buf.WriteString("digraph decomposition {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, n := range l.Nodes {
		label := dotLabel(n, opts)
		fill := n.Node.Color
		if fill == "" {
			fill = tree.DefaultColor
		}
		fmt.Fprintf(&buf, "  %q [label=%q, fillcolor=%q];\n", n.Path, label, fill)
	}

	buf.WriteString("\n")
	for _, e := range l.Links {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.Source.Path, e.Target.Path)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func dotLabel(n *layout.PlacedNode, opts DOTOptions) string {
	label := tree.FormatLabel(n.Node, opts.LabelMode)
	if !opts.Detailed {
		return label
	}
	var parts []string
	for _, col := range slices.Sorted(maps.Keys(n.Node.TooltipData)) {
		if summary := n.Node.TooltipData[col]; summary != "" {
			parts = append(parts, col+": "+summary)
		}
	}
	if len(parts) == 0 {
		return label
	}
	return label + "\n" + strings.Join(parts, "\n")
}

// RenderDOTSVG renders a DOT document to SVG in process.
func RenderDOTSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
