// Package color resolves node display colors from layered configuration:
// a uniform base color, optional per-level palette colors, and explicit
// per-(column, value) overrides.
//
// Precedence, lowest to highest: uniform → per-level (only in by-level mode)
// → per-node override. The override store is the single highest-precedence
// source and wins in every mode, including uniform.
//
// Overrides live in an explicit, caller-owned store; saving or resetting
// returns a new store rather than mutating shared state.
package color

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/matzehuels/decomptree/pkg/errors"
)

// Mode selects how the base color for a node is chosen before overrides.
type Mode string

// Color modes.
const (
	ModeUniform Mode = "Uniform"
	ModeByLevel Mode = "By Level"
)

// Config is a complete color resolution setup. The zero value paints
// everything with the default uniform blue.
type Config struct {
	Mode        Mode
	Uniform     string
	LevelColors map[int]string
	Overrides   *OverrideStore
}

const defaultUniform = "#3B82F6"

// Resolve returns the display color for a node, applying the precedence
// chain. It implements the aggregator's ColorResolver.
func (c Config) Resolve(column, nodeValue string, level int) string {
	out := c.Uniform
	if out == "" {
		out = defaultUniform
	}
	if c.Mode == ModeByLevel {
		if lc, ok := c.LevelColors[level]; ok {
			out = lc
		}
	}
	if c.Overrides != nil {
		if oc, ok := c.Overrides.Get(column, nodeValue); ok {
			out = oc
		}
	}
	return out
}

// overrideKey identifies one override target.
type overrideKey struct {
	column string
	value  string
}

// OverrideStore maps (column, value) pairs to explicit colors. The zero/nil
// store is empty. Stores are value-semantic: Save and Reset return new stores
// and never mutate the receiver, so a store can be shared freely.
type OverrideStore struct {
	colors map[overrideKey]string
}

// NewOverrideStore creates an empty override store.
func NewOverrideStore() *OverrideStore {
	return &OverrideStore{colors: map[overrideKey]string{}}
}

// Get looks up the override for a (column, value) pair.
func (s *OverrideStore) Get(column, value string) (string, bool) {
	if s == nil {
		return "", false
	}
	c, ok := s.colors[overrideKey{column, value}]
	return c, ok
}

// Len returns the number of overrides in the store.
func (s *OverrideStore) Len() int {
	if s == nil {
		return 0
	}
	return len(s.colors)
}

// Save returns a new store with the override added or replaced.
func (s *OverrideStore) Save(column, value, color string) *OverrideStore {
	out := NewOverrideStore()
	if s != nil {
		for k, v := range s.colors {
			out.colors[k] = v
		}
	}
	out.colors[overrideKey{column, value}] = color
	return out
}

// Reset returns a new empty store.
func (s *OverrideStore) Reset() *OverrideStore {
	return NewOverrideStore()
}

// ReadOverridesCSV parses per-node color overrides from CSV with columns
// "column", "node_value", and "color". Malformed rows (missing any of the
// three fields, or an invalid hex color) are skipped; a warning per skipped
// row is returned alongside the store so the caller can surface them
// non-fatally.
func ReadOverridesCSV(r io.Reader) (*OverrideStore, []string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return NewOverrideStore(), nil, nil
	}
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInvalidOverride, err, "read override header")
	}

	idx := map[string]int{}
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"column", "node_value", "color"} {
		if _, ok := idx[required]; !ok {
			return nil, nil, errors.New(errors.ErrCodeInvalidOverride, "override CSV missing %q column", required)
		}
	}

	store := NewOverrideStore()
	var warnings []string
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		column := fieldAt(record, idx["column"])
		value := fieldAt(record, idx["node_value"])
		hex := fieldAt(record, idx["color"])
		if column == "" || value == "" || hex == "" {
			warnings = append(warnings, fmt.Sprintf("line %d: missing column, node_value, or color", line))
			continue
		}
		if err := errors.ValidateHexColor(hex); err != nil {
			warnings = append(warnings, fmt.Sprintf("line %d: %s", line, errors.UserMessage(err)))
			continue
		}
		store = store.Save(column, value, hex)
	}
	return store, warnings, nil
}

func fieldAt(record []string, i int) string {
	if i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
