// Package config loads and validates the TOML configuration that drives
// aggregation, coloring, styling, and export. A config file is optional;
// every field has a default and CLI flags override the file.
package config

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/decomptree/pkg/errors"
	"github.com/matzehuels/decomptree/pkg/export"
	"github.com/matzehuels/decomptree/pkg/table"
	"github.com/matzehuels/decomptree/pkg/tree"
	"github.com/matzehuels/decomptree/pkg/tree/color"
)

// Config is the full configuration file shape.
type Config struct {
	Aggregation Aggregation `toml:"aggregation"`
	Color       Color       `toml:"color"`
	Style       Style       `toml:"style"`
	Export      Export      `toml:"export"`
	View        View        `toml:"view"`
	Cache       Cache       `toml:"cache"`
}

// Aggregation configures how rows fold into the tree.
type Aggregation struct {
	Hierarchy      []string `toml:"hierarchy"`
	Method         string   `toml:"method"` // Count, Sum, Average
	ValueColumn    string   `toml:"value_column"`
	TooltipColumns []string `toml:"tooltip_columns"`
	TimeComparison string   `toml:"time_comparison"` // Day, Week (Monday start), Month

	// Filters restricts which group values appear, per column. Rows outside
	// the listed values are dropped before aggregation.
	Filters map[string][]string `toml:"filters"`
}

// Color configures node color resolution.
type Color struct {
	Mode          string `toml:"mode"` // Uniform, By Level
	Uniform       string `toml:"uniform"`
	Palette       string `toml:"palette"`
	OverridesFile string `toml:"overrides_file"` // CSV of column,node_value,color
}

// Style configures node and label appearance.
type Style struct {
	NodeSize          float64 `toml:"node_size"`
	Shape             string  `toml:"shape"`
	LineWidth         float64 `toml:"line_width"`
	LineColor         string  `toml:"line_color"`
	LineOpacity       float64 `toml:"line_opacity"`
	FontSize          float64 `toml:"font_size"`
	FontWeight        int     `toml:"font_weight"`
	LabelMode         string  `toml:"label_mode"`
	ShowGroupOutlines bool    `toml:"show_group_outlines"`
	OutlineLevel      int     `toml:"outline_level"`
	OutlineOpacity    float64 `toml:"outline_opacity"`
}

// Export configures image export.
type Export struct {
	Scale      int    `toml:"scale"`
	Background string `toml:"background"` // transparent, white
}

// View configures the initial interaction state.
type View struct {
	Sort string `toml:"sort"` // as-is, name-asc, name-desc, value-asc, value-desc
}

// Cache selects the pipeline cache backend.
type Cache struct {
	Backend   string `toml:"backend"` // file, redis, none
	Dir       string `toml:"dir"`
	RedisAddr string `toml:"redis_addr"`
}

// Default returns the configuration used when no file is given, mirroring
// the interactive defaults.
func Default() Config {
	style := export.DefaultStyle()
	return Config{
		Aggregation: Aggregation{
			Method:         string(tree.MethodCount),
			TimeComparison: string(table.CompareDay),
		},
		Color: Color{
			Mode:    string(color.ModeUniform),
			Uniform: tree.DefaultColor,
			Palette: color.DefaultPalette,
		},
		Style: Style{
			NodeSize:       style.NodeSize,
			Shape:          string(style.Shape),
			LineWidth:      style.LineWidth,
			LineColor:      style.LineColor,
			LineOpacity:    style.LineOpacity,
			FontSize:       style.FontSize,
			FontWeight:     style.FontWeight,
			LabelMode:      string(style.LabelMode),
			OutlineOpacity: style.OutlineOpacity,
		},
		Export: Export{
			Scale:      style.Scale,
			Background: string(style.Background),
		},
		View:  View{Sort: string(tree.SortNone)},
		Cache: Cache{Backend: "file"},
	}
}

// Load reads a TOML file over the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints. Hierarchy may be empty here; it is
// validated at aggregation time because the CLI can supply it per run.
func (c Config) Validate() error {
	switch tree.Method(c.Aggregation.Method) {
	case tree.MethodCount, tree.MethodSum, tree.MethodAverage:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown aggregation method %q", c.Aggregation.Method)
	}
	if m := tree.Method(c.Aggregation.Method); m == tree.MethodSum || m == tree.MethodAverage {
		if c.Aggregation.ValueColumn == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "%s aggregation needs value_column", m)
		}
	}
	switch table.TimeComparison(c.Aggregation.TimeComparison) {
	case table.CompareDay, table.CompareWeek, table.CompareMonth:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown time comparison %q", c.Aggregation.TimeComparison)
	}
	switch color.Mode(c.Color.Mode) {
	case color.ModeUniform, color.ModeByLevel:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown color mode %q", c.Color.Mode)
	}
	if c.Color.Uniform != "" {
		if err := errors.ValidateHexColor(c.Color.Uniform); err != nil {
			return err
		}
	}
	switch c.Cache.Backend {
	case "file", "redis", "none":
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q", c.Cache.Backend)
	}
	return c.ExportStyle().Validate()
}

// ExportStyle converts the style and export sections into renderer options.
func (c Config) ExportStyle() export.Style {
	return export.Style{
		NodeSize:          c.Style.NodeSize,
		Shape:             export.Shape(c.Style.Shape),
		LineWidth:         c.Style.LineWidth,
		LineColor:         c.Style.LineColor,
		LineOpacity:       c.Style.LineOpacity,
		FontSize:          c.Style.FontSize,
		FontWeight:        c.Style.FontWeight,
		LabelMode:         tree.LabelMode(c.Style.LabelMode),
		ShowGroupOutlines: c.Style.ShowGroupOutlines,
		OutlineLevel:      c.Style.OutlineLevel,
		OutlineOpacity:    c.Style.OutlineOpacity,
		Scale:             c.Export.Scale,
		Background:        export.Background(c.Export.Background),
	}
}

// ColorConfig assembles the resolver for a hierarchy depth, loading the
// overrides file when one is configured. Override warnings are returned for
// the caller to log.
func (c Config) ColorConfig(levels int) (color.Config, []string, error) {
	cfg := color.Config{
		Mode:    color.Mode(c.Color.Mode),
		Uniform: c.Color.Uniform,
	}
	if cfg.Mode == color.ModeByLevel {
		cfg.LevelColors = color.LevelColorsFromPalette(c.Color.Palette, levels)
	}
	if c.Color.OverridesFile == "" {
		return cfg, nil, nil
	}
	f, err := os.Open(c.Color.OverridesFile)
	if err != nil {
		return cfg, nil, errors.Wrap(errors.ErrCodeInvalidOverride, err, "open overrides %s", c.Color.OverridesFile)
	}
	defer f.Close()
	store, warnings, err := color.ReadOverridesCSV(f)
	if err != nil {
		return cfg, warnings, err
	}
	cfg.Overrides = store
	return cfg, warnings, nil
}

// AggregateOptions converts the aggregation section, with the resolver
// plugged in.
func (c Config) AggregateOptions(colors tree.ColorResolver) tree.Options {
	opts := tree.Options{
		Hierarchy:      c.Aggregation.Hierarchy,
		Method:         tree.Method(c.Aggregation.Method),
		ValueColumn:    c.Aggregation.ValueColumn,
		TooltipColumns: c.Aggregation.TooltipColumns,
		TimeComparison: table.TimeComparison(c.Aggregation.TimeComparison),
		Colors:         colors,
	}
	if len(c.Aggregation.Filters) > 0 {
		opts.DisplayFilters = make(map[string]map[string]bool, len(c.Aggregation.Filters))
		for column, values := range c.Aggregation.Filters {
			allowed := make(map[string]bool, len(values))
			for _, v := range values {
				allowed[v] = true
			}
			opts.DisplayFilters[column] = allowed
		}
	}
	return opts
}

// SortMode returns the configured initial sibling sort.
func (c Config) SortMode() tree.SortMode {
	return tree.ParseSortMode(c.View.Sort)
}
