// Package pkg provides the core libraries for decomposition tree
// visualization.
//
// # Overview
//
// Decomptree turns tabular records into an interactive decomposition tree:
// rows are grouped level by level along a configured hierarchy of columns,
// each node carrying an aggregated value (count, sum, or average) and the
// raw rows behind it. The pkg directory is organized into five main areas:
//
//  1. [table], [tree] - Domain logic (typed rows, aggregation, coloring, sorting)
//  2. [view], [layout] - Interaction state and node-link geometry
//  3. [export] - SVG/PNG/DOT/JSON/CSV artifact generation
//  4. [pipeline] - Orchestration (load → aggregate → layout → render) with caching
//  5. [cache], [session], [config], [observability] - Infrastructure
//
// # Architecture
//
// The typical data flow:
//
//	CSV input
//	     ↓
//	[table] package (typed rows, derived time columns)
//	     ↓
//	[tree] package (hierarchical aggregation + colors)
//	     ↓
//	[view] + [layout] packages (expand/collapse state, positions)
//	     ↓
//	[export] package (SVG/PNG/DOT/JSON output)
//
// # Quick Start
//
// Render a decomposition tree from a CSV file:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/decomptree/pkg/config"
//	    "github.com/matzehuels/decomptree/pkg/pipeline"
//	)
//
//	cfg := config.Default()
//	cfg.Tree.Hierarchy = []string{"Region", "Status"}
//
//	runner := pipeline.NewRunner(nil, nil, nil)
//	defer runner.Close()
//
//	result, err := runner.Execute(context.Background(), pipeline.Options{
//	    Config:  cfg,
//	    CSVPath: "shipments.csv",
//	    Formats: []string{pipeline.FormatSVG, pipeline.FormatPNG},
//	})
//
// Each stage is cached by content hash, so re-rendering the same table with
// the same settings is cheap.
package pkg
