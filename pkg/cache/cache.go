// Package cache provides the byte-level cache behind the render pipeline.
//
// Pipeline stages (aggregate, layout, render) store their serialized outputs
// keyed by content hashes, so re-running with an unchanged table and
// configuration skips straight to the cached artifact. Three backends are
// provided: a file cache for CLI usage, a Redis cache for server
// deployments, and a null cache for tests and --no-cache runs.
package cache

import (
	"context"
	"time"
)

// Stage TTLs. Keys are content hashes, so entries never go stale; the TTLs
// only bound how long unused entries occupy the backend.
const (
	TTLTree     = 24 * time.Hour
	TTLLayout   = 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache stores opaque byte values under string keys with optional expiry.
// Implementations must treat a missing key as (nil, false, nil), not an
// error.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Keyer derives cache keys for the pipeline's stages. Each key is a pure
// function of the stage's complete input, so any configuration change
// produces a different key and stale entries are simply never read.
type Keyer interface {
	// TreeKey keys an aggregation result by the table content hash and the
	// aggregation-relevant configuration.
	TreeKey(tableHash string, opts TreeKeyOpts) string

	// LayoutKey keys a computed layout by the tree hash and the visible-set
	// signature.
	LayoutKey(treeHash string, opts LayoutKeyOpts) string

	// ArtifactKey keys a rendered artifact by the layout hash and the
	// render options.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// TreeKeyOpts are the inputs that change an aggregation result.
type TreeKeyOpts struct {
	Hierarchy      []string `json:"hierarchy"`
	Method         string   `json:"method"`
	ValueColumn    string   `json:"value_column"`
	TooltipColumns []string `json:"tooltip_columns"`
	TimeComparison string   `json:"time_comparison"`

	// Filters uses sorted map-key JSON encoding, so equal filter sets
	// produce equal keys.
	Filters map[string][]string `json:"filters,omitempty"`

	ColorMode     string `json:"color_mode"`
	Uniform       string `json:"uniform"`
	Palette       string `json:"palette"`
	OverridesHash string `json:"overrides_hash"`
}

// LayoutKeyOpts are the inputs that change node placement for a given tree.
type LayoutKeyOpts struct {
	SortMode string `json:"sort_mode"`
	// ViewSignature fingerprints the expansion state and manual sibling
	// orders; empty means the fully expanded tree.
	ViewSignature string `json:"view_signature"`
}

// ArtifactKeyOpts are the inputs that change a rendered artifact for a given
// layout.
type ArtifactKeyOpts struct {
	Format     string `json:"format"` // svg, png, dot
	Variant    string `json:"variant"`
	Scale      int    `json:"scale"`
	Background string `json:"background"`
	LabelMode  string `json:"label_mode"`
	StyleHash  string `json:"style_hash"`
}

// DefaultKeyer hashes each stage's options into namespaced sha256 keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

func (k *DefaultKeyer) TreeKey(tableHash string, opts TreeKeyOpts) string {
	return hashKey("tree", tableHash, opts)
}

func (k *DefaultKeyer) LayoutKey(treeHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", treeHash, opts)
}

func (k *DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}
