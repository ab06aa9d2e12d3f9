package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/decomptree/pkg/export"
	"github.com/matzehuels/decomptree/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command. Flags left
// at their defaults defer to the config file.
type renderOpts struct {
	configPath     string
	hierarchy      string
	method         string
	valueColumn    string
	tooltipColumns string
	timeComparison string
	filters        []string
	formats        string
	variant        string
	out            string
	scale          int
	background     string
	labelMode      string
	shape          string
	nodeSize       float64
	sort           string
	noCache        bool
	refresh        bool
}

// renderCommand creates the render command for exporting decomposition trees.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [file.csv]",
		Short: "Aggregate a CSV table and export the decomposition tree",
		Long: `Render aggregates the rows of a CSV table along a column hierarchy and
exports the resulting decomposition tree. Supported formats are svg, png,
dot, and json; png honors the configured scale and background.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.configPath)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("hierarchy") {
				cfg.Aggregation.Hierarchy = parseList(opts.hierarchy)
			}
			if flags.Changed("method") {
				cfg.Aggregation.Method = opts.method
			}
			if flags.Changed("value-column") {
				cfg.Aggregation.ValueColumn = opts.valueColumn
			}
			if flags.Changed("tooltip-columns") {
				cfg.Aggregation.TooltipColumns = parseList(opts.tooltipColumns)
			}
			if flags.Changed("time-comparison") {
				cfg.Aggregation.TimeComparison = opts.timeComparison
			}
			if flags.Changed("filter") {
				filters, err := parseFilters(opts.filters)
				if err != nil {
					return err
				}
				cfg.Aggregation.Filters = filters
			}
			if flags.Changed("scale") {
				cfg.Export.Scale = opts.scale
			}
			if flags.Changed("background") {
				cfg.Export.Background = opts.background
			}
			if flags.Changed("label-mode") {
				cfg.Style.LabelMode = opts.labelMode
			}
			if flags.Changed("shape") {
				cfg.Style.Shape = opts.shape
			}
			if flags.Changed("node-size") {
				cfg.Style.NodeSize = opts.nodeSize
			}
			if flags.Changed("sort") {
				cfg.View.Sort = opts.sort
			}

			runner, err := c.newRunner(cmd.Context(), cfg.Cache, opts.noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			spin := newSpinnerWithContext(cmd.Context(), "Rendering decomposition tree...")
			spin.Start()

			result, err := runner.Execute(cmd.Context(), pipeline.Options{
				Config:  cfg,
				CSVPath: args[0],
				Formats: parseFormats(opts.formats),
				Variant: export.Variant(opts.variant),
				Refresh: opts.refresh,
			})
			if err != nil {
				spin.StopWithError("Render failed")
				return err
			}
			spin.Stop()

			if err := os.MkdirAll(opts.out, 0755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}

			style := cfg.ExportStyle()
			now := time.Now()
			printSuccess("Rendered decomposition tree")
			printStats(result.Stats.RowCount, result.Stats.NodeCount,
				result.Stats.VisibleCount, result.CacheInfo.RenderHit)
			for _, format := range parseFormats(opts.formats) {
				data, ok := result.Artifacts[format]
				if !ok {
					continue
				}
				name := export.Filename(filenameVariant(format, style, export.Variant(opts.variant)), format, now)
				path := filepath.Join(opts.out, name)
				if err := os.WriteFile(path, data, 0644); err != nil {
					return fmt.Errorf("write %s: %w", path, err)
				}
				printFile(path)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "TOML config file")
	cmd.Flags().StringVar(&opts.hierarchy, "hierarchy", "", "comma-separated hierarchy columns")
	cmd.Flags().StringVar(&opts.method, "method", "", "aggregation method (Count, Sum, Average)")
	cmd.Flags().StringVar(&opts.valueColumn, "value-column", "", "numeric column for Sum/Average")
	cmd.Flags().StringVar(&opts.tooltipColumns, "tooltip-columns", "", "extra columns summarized in tooltips")
	cmd.Flags().StringVar(&opts.timeComparison, "time-comparison", "", "schedule granularity (Day, Week (Monday start), Month)")
	cmd.Flags().StringArrayVar(&opts.filters, "filter", nil, "visibility filter, column=value1,value2 (repeatable)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "svg", "output formats (svg,png,dot,json)")
	cmd.Flags().StringVar(&opts.variant, "variant", string(export.VariantComplete), "export variant (complete, current_view)")
	cmd.Flags().StringVarP(&opts.out, "out", "o", ".", "output directory")
	cmd.Flags().IntVar(&opts.scale, "scale", 3, "raster scale factor (1-6)")
	cmd.Flags().StringVar(&opts.background, "background", "transparent", "png background (transparent, white)")
	cmd.Flags().StringVar(&opts.labelMode, "label-mode", "", "node label mode")
	cmd.Flags().StringVar(&opts.shape, "shape", "", "node shape (Circle, Square, Diamond, Triangle, Star)")
	cmd.Flags().Float64Var(&opts.nodeSize, "node-size", 0, "node glyph size")
	cmd.Flags().StringVar(&opts.sort, "sort", "", "sibling sort (as-is, name-asc, name-desc, value-asc, value-desc)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the pipeline cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass cached results")

	return cmd
}

// filenameVariant maps an artifact to its filename decoration: current-view
// exports are tagged as such, PNGs carry their background, and everything
// else stays undecorated.
func filenameVariant(format string, style export.Style, variant export.Variant) string {
	if variant == export.VariantCurrentView {
		return string(export.VariantCurrentView)
	}
	if format == pipeline.FormatPNG {
		if style.Background == export.BackgroundWhite {
			return "white_bg"
		}
		return "transparent"
	}
	return ""
}
