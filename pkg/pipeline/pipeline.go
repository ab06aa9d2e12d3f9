// Package pipeline runs the load → aggregate → layout → render chain behind
// every entry point.
//
// The CLI, the HTTP server, and the TUI all build trees the same way: read a
// CSV table, fold it into a decomposition tree, place the visible nodes, and
// render artifacts. Centralizing the chain here keeps their behavior and
// caching identical.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Config:  cfg,
//	    CSVPath: "projects.csv",
//	    Formats: []string{"svg", "png"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svgData := result.Artifacts["svg"]
//
// Each stage caches its serialized output under a content-hash key, so an
// unchanged table and configuration skip straight to the stored artifact.
package pipeline

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/decomptree/pkg/config"
	"github.com/matzehuels/decomptree/pkg/errors"
	"github.com/matzehuels/decomptree/pkg/export"
	"github.com/matzehuels/decomptree/pkg/layout"
	"github.com/matzehuels/decomptree/pkg/table"
	"github.com/matzehuels/decomptree/pkg/tree"
	"github.com/matzehuels/decomptree/pkg/view"
)

// Output format constants.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatDOT  = "dot"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatDOT:  true,
	FormatJSON: true,
}

// ValidateFormats checks that every requested format is supported.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if !ValidFormats[f] {
			return errors.New(errors.ErrCodeInvalidFormat,
				"invalid format %q (must be one of: svg, png, dot, json)", f)
		}
	}
	return nil
}

// Options configures one pipeline run.
type Options struct {
	// Config carries aggregation, color, style, and export settings.
	Config config.Config

	// CSVPath is the input table. Ignored when Table is set.
	CSVPath string

	// Table is a pre-loaded table, used by callers that already hold the
	// rows (the HTTP server, tests).
	Table *table.Table

	// State is the interaction state to lay out. Nil means a fresh state
	// with the configured sort mode.
	State *view.State

	// Variant selects the export snapshot; defaults to VariantComplete.
	Variant export.Variant

	// Formats lists the artifacts to render; defaults to ["svg"].
	Formats []string

	// Refresh bypasses cache reads (results are still written back).
	Refresh bool

	// Logger overrides the runner's logger for this run.
	Logger *log.Logger
}

// normalize applies defaults and validates the run-level options. The config
// itself is validated separately so a bad config fails before any IO.
func (o *Options) normalize() error {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Variant == "" {
		o.Variant = export.VariantComplete
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	switch o.Variant {
	case export.VariantComplete, export.VariantCurrentView:
	default:
		return errors.New(errors.ErrCodeInvalidFormat, "invalid variant %q", o.Variant)
	}
	if o.Table == nil && o.CSVPath == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "csv path or table is required")
	}
	if len(o.Config.Aggregation.Hierarchy) == 0 {
		return errors.New(errors.ErrCodeInvalidHierarchy, "hierarchy must name at least one column")
	}
	return o.Config.Validate()
}

// Stats contains timing and size information for one run.
type Stats struct {
	RowCount      int
	NodeCount     int
	VisibleCount  int
	AggregateTime time.Duration
	LayoutTime    time.Duration
	RenderTime    time.Duration
}

// CacheInfo tracks which stages were served from cache.
type CacheInfo struct {
	TreeHit   bool
	LayoutHit bool
	RenderHit bool // all requested artifacts came from cache
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Table is the loaded input, with derived time columns attached.
	Table *table.Table

	// Tree is the aggregated decomposition tree (super-root included when
	// the top level has several groups).
	Tree *tree.Node

	// State is the interaction state the layout reflects.
	State view.State

	// Layout holds the placed visible nodes.
	Layout *layout.Layout

	// TreeHash is the content hash of the serialized tree, usable as a
	// session-stable identifier for the aggregation.
	TreeHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}
