package pipeline

import (
	"bytes"
	"context"
	"os"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	json "github.com/goccy/go-json"

	"github.com/matzehuels/decomptree/pkg/cache"
	"github.com/matzehuels/decomptree/pkg/errors"
	"github.com/matzehuels/decomptree/pkg/export"
	"github.com/matzehuels/decomptree/pkg/layout"
	"github.com/matzehuels/decomptree/pkg/observability"
	"github.com/matzehuels/decomptree/pkg/table"
	"github.com/matzehuels/decomptree/pkg/tree"
	"github.com/matzehuels/decomptree/pkg/view"
)

// Runner executes the pipeline with per-stage caching.
//
// The Runner is stateless except for the cache, fonts, and logger; it holds
// no pipeline results. Multiple goroutines can share one Runner with
// different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	Fonts  *export.FontSet
}

// NewRunner creates a runner with the given cache and keyer.
// A nil keyer gets the DefaultKeyer; a nil cache disables caching.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		Fonts:  export.NewFontSet(),
	}
}

// Execute runs the complete load → aggregate → layout → render pipeline.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.normalize(); err != nil {
		return nil, err
	}
	logger := r.logger(opts)
	hooks := observability.Pipeline()

	t, err := r.LoadTable(opts)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Table:     t,
		Artifacts: make(map[string][]byte),
	}
	result.Stats.RowCount = t.Len()

	// Stage 1: aggregate.
	hooks.OnAggregateStart(ctx, t.Len())
	aggStart := time.Now()
	root, treeData, treeHit, err := r.BuildTreeWithCacheInfo(ctx, t, opts)
	result.Stats.AggregateTime = time.Since(aggStart)
	hooks.OnAggregateComplete(ctx, nodeCount(root), result.Stats.AggregateTime, err)
	if err != nil {
		return nil, err
	}
	result.Tree = root
	result.TreeHash = cache.Hash(treeData)
	result.Stats.NodeCount = root.NodeCount()
	result.CacheInfo.TreeHit = treeHit

	logger.Info("aggregated tree",
		"rows", t.Len(),
		"nodes", result.Stats.NodeCount,
		"cached", treeHit,
		"duration", result.Stats.AggregateTime)

	if opts.State != nil {
		result.State = *opts.State
	} else {
		result.State = view.NewState(root, opts.Config.SortMode())
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 2: layout.
	layoutStart := time.Now()
	l, layoutData, layoutHit, err := r.ComputeLayoutWithCacheInfo(ctx, root, result.State, result.TreeHash, opts)
	result.Stats.LayoutTime = time.Since(layoutStart)
	hooks.OnLayoutComplete(ctx, result.Stats.LayoutTime, err)
	if err != nil {
		return nil, err
	}
	result.Layout = l
	result.Stats.VisibleCount = len(l.Nodes)
	result.CacheInfo.LayoutHit = layoutHit

	logger.Info("computed layout",
		"visible", result.Stats.VisibleCount,
		"cached", layoutHit,
		"duration", result.Stats.LayoutTime)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 3: render.
	hooks.OnRenderStart(ctx, opts.Formats)
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, l, root, result.TreeHash, layoutData, opts)
	result.Stats.RenderTime = time.Since(renderStart)
	hooks.OnRenderComplete(ctx, opts.Formats, result.Stats.RenderTime, err)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.CacheInfo.RenderHit = renderHit

	logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// LoadTable reads the input table and attaches the derived time columns.
func (r *Runner) LoadTable(opts Options) (*table.Table, error) {
	t := opts.Table
	if t == nil {
		var err error
		t, err = table.ReadCSVFile(opts.CSVPath)
		if err != nil {
			return nil, err
		}
	}
	table.DeriveTimeColumns(t, table.TimeComparison(opts.Config.Aggregation.TimeComparison))
	return t, nil
}

// BuildTreeWithCacheInfo aggregates the table into a tree, serving from
// cache when the table content and aggregation settings are unchanged. The
// serialized tree is returned alongside the node structure so callers can
// hash or persist it without re-serializing.
func (r *Runner) BuildTreeWithCacheInfo(ctx context.Context, t *table.Table, opts Options) (*tree.Node, []byte, bool, error) {
	cfg := opts.Config
	cacheHooks := observability.Cache()

	colorCfg, warnings, err := cfg.ColorConfig(len(cfg.Aggregation.Hierarchy))
	if err != nil {
		return nil, nil, false, err
	}
	for _, w := range warnings {
		r.logger(opts).Warn("color override skipped", "reason", w)
	}

	key := r.Keyer.TreeKey(cache.TableHash(t), cache.TreeKeyOpts{
		Hierarchy:      cfg.Aggregation.Hierarchy,
		Method:         cfg.Aggregation.Method,
		ValueColumn:    cfg.Aggregation.ValueColumn,
		TooltipColumns: cfg.Aggregation.TooltipColumns,
		TimeComparison: cfg.Aggregation.TimeComparison,
		Filters:        cfg.Aggregation.Filters,
		ColorMode:      cfg.Color.Mode,
		Uniform:        cfg.Color.Uniform,
		Palette:        cfg.Color.Palette,
		OverridesHash:  overridesHash(cfg.Color.OverridesFile),
	})

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if tj, err := tree.UnmarshalTree(data); err == nil {
				cacheHooks.OnCacheHit(ctx, key)
				return tree.FromJSON(tj), data, true, nil
			}
		}
		cacheHooks.OnCacheMiss(ctx, key)
	}

	aggOpts := cfg.AggregateOptions(colorCfg)
	aggOpts.Hierarchy = effectiveHierarchy(t, aggOpts)
	forest, err := tree.Aggregate(t, aggOpts)
	if err != nil {
		return nil, nil, false, err
	}
	root := tree.WrapForest(forest, t)

	data, fellBack, err := tree.Marshal(root)
	if err != nil {
		return nil, nil, false, errors.Wrap(errors.ErrCodeInternal, err, "serialize tree")
	}
	if fellBack {
		r.logger(opts).Warn("tree serialized without raw rows")
	}
	if !fellBack {
		if err := r.Cache.Set(ctx, key, data, cache.TTLTree); err == nil {
			cacheHooks.OnCacheSet(ctx, key, len(data))
		}
	}
	return root, data, false, nil
}

// ComputeLayoutWithCacheInfo places the visible tree for the requested
// variant, reusing cached node positions when the tree, sort mode, and view
// state are unchanged. The serialized positions are returned for artifact
// keying.
func (r *Runner) ComputeLayoutWithCacheInfo(ctx context.Context, root *tree.Node, state view.State, treeHash string, opts Options) (*layout.Layout, []byte, bool, error) {
	cacheHooks := observability.Cache()

	// The complete variant expands a derived overlay; the live state is
	// never modified.
	effective := state
	if opts.Variant == export.VariantComplete {
		effective = view.Apply(root, state, view.ExpandAll{})
	}
	visible := view.Visible(root, effective)
	observability.Pipeline().OnLayoutStart(ctx, visible.Count())

	key := r.Keyer.LayoutKey(treeHash, cache.LayoutKeyOpts{
		SortMode:      string(effective.Sort),
		ViewSignature: viewSignature(effective),
	})

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var xs map[string]float64
			if err := json.Unmarshal(data, &xs); err == nil {
				if l, ok := layout.FromPositions(visible, xs); ok {
					cacheHooks.OnCacheHit(ctx, key)
					return l, data, true, nil
				}
			}
		}
		cacheHooks.OnCacheMiss(ctx, key)
	}

	l := layout.Compute(visible)
	data, err := json.Marshal(l.Positions())
	if err != nil {
		return nil, nil, false, errors.Wrap(errors.ErrCodeInternal, err, "serialize layout")
	}
	if err := r.Cache.Set(ctx, key, data, cache.TTLLayout); err == nil {
		cacheHooks.OnCacheSet(ctx, key, len(data))
	}
	return l, data, false, nil
}

// RenderWithCacheInfo produces the requested artifacts, serving all of them
// from cache when possible. A single missing format re-renders everything,
// since the renderers share the same traversal.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, l *layout.Layout, root *tree.Node, treeHash string, layoutData []byte, opts Options) (map[string][]byte, bool, error) {
	cacheHooks := observability.Cache()
	style := opts.Config.ExportStyle()

	// Positions alone do not identify the drawing: labels and colors live
	// on the tree, so the artifact hash covers both.
	layoutHash := cache.Hash(append([]byte(treeHash+":"), layoutData...))
	styleData, _ := json.Marshal(style)
	styleHash := cache.Hash(styleData)

	keyFor := func(format string) string {
		return r.Keyer.ArtifactKey(layoutHash, cache.ArtifactKeyOpts{
			Format:     format,
			Variant:    string(opts.Variant),
			Scale:      style.Scale,
			Background: string(style.Background),
			LabelMode:  string(style.LabelMode),
			StyleHash:  styleHash,
		})
	}

	if !opts.Refresh {
		artifacts := make(map[string][]byte, len(opts.Formats))
		allCached := true
		for _, format := range opts.Formats {
			if data, hit, err := r.Cache.Get(ctx, keyFor(format)); err == nil && hit {
				artifacts[format] = data
			} else {
				allCached = false
				break
			}
		}
		if allCached && len(artifacts) == len(opts.Formats) {
			for _, format := range opts.Formats {
				cacheHooks.OnCacheHit(ctx, keyFor(format))
			}
			return artifacts, true, nil
		}
	}

	rendered := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}
		data, err := r.renderFormat(l, root, style, format, opts)
		if err != nil {
			return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "render %s", format)
		}
		rendered[format] = data
	}

	for format, data := range rendered {
		key := keyFor(format)
		if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err == nil {
			cacheHooks.OnCacheSet(ctx, key, len(data))
		}
	}
	return rendered, false, nil
}

func (r *Runner) renderFormat(l *layout.Layout, root *tree.Node, style export.Style, format string, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case FormatSVG:
		m, err := r.Fonts.Measurer(style)
		if err != nil {
			return nil, err
		}
		if err := export.WriteSVG(&buf, l, style, m); err != nil {
			return nil, err
		}
	case FormatPNG:
		if err := export.WritePNG(&buf, l, style, r.Fonts); err != nil {
			return nil, err
		}
	case FormatDOT:
		buf.WriteString(export.ToDOT(l, export.DOTOptions{
			LabelMode: style.LabelMode,
			Detailed:  true,
		}))
	case FormatJSON:
		fellBack, err := export.WriteTreeJSON(&buf, root)
		if err != nil {
			return nil, err
		}
		if fellBack {
			r.logger(opts).Warn("tree JSON exported without raw rows")
		}
	}
	return buf.Bytes(), nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) logger(opts Options) *log.Logger {
	if opts.Logger != nil {
		return opts.Logger
	}
	return r.Logger
}

// viewSignature fingerprints the expansion state and sibling orders. JSON
// marshaling sorts map keys, so equal states hash equally.
func viewSignature(s view.State) string {
	data, _ := json.Marshal(struct {
		Expanded    map[string]bool     `json:"expanded"`
		ManualOrder bool                `json:"manual_order"`
		Orders      map[string][]string `json:"orders"`
	}{s.Expanded, s.ManualOrder, s.Orders})
	return cache.Hash(data)
}

// effectiveHierarchy substitutes the plain Status column with the derived
// week/month status column when a bucket comparison is active, so users keep
// naming "Status" regardless of the comparison granularity. Tables without
// the derived column (no date columns) are left alone.
func effectiveHierarchy(t *table.Table, opts tree.Options) []string {
	statusCol := table.StatusColumn(t, opts.TimeComparison)
	if statusCol == table.ColStatus {
		return opts.Hierarchy
	}
	out := slices.Clone(opts.Hierarchy)
	for i, col := range out {
		if col == table.ColStatus {
			out[i] = statusCol
		}
	}
	return out
}

func overridesHash(path string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return cache.Hash(data)
}

func nodeCount(root *tree.Node) int {
	if root == nil {
		return 0
	}
	return root.NodeCount()
}
