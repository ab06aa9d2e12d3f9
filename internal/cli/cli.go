// Package cli implements the decomptree command-line interface.
//
// This package provides commands for rendering decomposition trees from CSV
// tables, inspecting table statistics, exploring trees interactively, serving
// the tree over HTTP, and managing the pipeline cache. The CLI is built using
// cobra and supports verbose logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - render: Aggregate a CSV table and export SVG, PNG, DOT, or JSON
//   - stats: Print delivery statistics for a CSV table
//   - tui: Explore the tree interactively in the terminal
//   - serve: Serve the tree and exports over HTTP
//   - cache: Manage the pipeline cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/decomptree/pkg/buildinfo"
	"github.com/matzehuels/decomptree/pkg/cache"
	"github.com/matzehuels/decomptree/pkg/config"
	"github.com/matzehuels/decomptree/pkg/errors"
	"github.com/matzehuels/decomptree/pkg/pipeline"
)

// appName is the application name used for directories and display.
const appName = "decomptree"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Decomptree renders decomposition trees from tabular data",
		Long:         `Decomptree aggregates CSV rows along a column hierarchy into a decomposition tree and renders it as a node-link diagram, the drill-down view known from BI tools.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.statsCommand())
	root.AddCommand(c.tuiCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// newRunner creates a pipeline runner honoring the configured cache backend.
func (c *CLI) newRunner(ctx context.Context, cfg config.Cache, noCache bool) (*pipeline.Runner, error) {
	backend, err := newCache(ctx, cfg, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(backend, nil, c.Logger), nil
}

func newCache(ctx context.Context, cfg config.Cache, noCache bool) (cache.Cache, error) {
	if noCache || cfg.Backend == "none" {
		return cache.NewNullCache(), nil
	}
	if cfg.Backend == "redis" {
		return cache.NewRedisCache(ctx, cfg.RedisAddr)
	}
	dir := cfg.Dir
	if dir == "" {
		var err error
		dir, err = cacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
	}
	return cache.NewFileCache(dir)
}

// cacheDir returns the cache directory using XDG standard (~/.cache/decomptree/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// loadConfig reads the config file when one is given, otherwise defaults.
func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	return strings.Split(s, ",")
}

// parseList parses a comma-separated column list, trimming whitespace.
func parseList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// parseFilters parses repeated "column=value1,value2" flags into per-column
// allowed-value lists.
func parseFilters(specs []string) (map[string][]string, error) {
	filters := make(map[string][]string, len(specs))
	for _, spec := range specs {
		column, values, ok := strings.Cut(spec, "=")
		if !ok || strings.TrimSpace(column) == "" {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "filter %q must be column=value1,value2", spec)
		}
		filters[strings.TrimSpace(column)] = append(filters[strings.TrimSpace(column)], parseList(values)...)
	}
	return filters, nil
}
