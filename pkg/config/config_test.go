package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/decomptree/pkg/errors"
	"github.com/matzehuels/decomptree/pkg/tree"
	"github.com/matzehuels/decomptree/pkg/tree/color"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "decomptree.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
[aggregation]
hierarchy = ["Region", "Status"]
method = "Sum"
value_column = "Delay_Days"

[color]
mode = "By Level"
palette = "Tableau10"

[export]
scale = 2
background = "white"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Aggregation.Method != "Sum" || cfg.Aggregation.ValueColumn != "Delay_Days" {
		t.Errorf("aggregation = %+v", cfg.Aggregation)
	}
	// Untouched sections keep their defaults.
	if cfg.Style.NodeSize != 17 || cfg.Style.FontWeight != 600 {
		t.Errorf("style defaults lost: %+v", cfg.Style)
	}
	if cfg.Export.Scale != 2 || cfg.Export.Background != "white" {
		t.Errorf("export = %+v", cfg.Export)
	}

	cc, warnings, err := cfg.ColorConfig(3)
	if err != nil || len(warnings) != 0 {
		t.Fatalf("ColorConfig() = %v, %v", warnings, err)
	}
	if cc.Mode != color.ModeByLevel || cc.LevelColors[0] != color.Palettes["Tableau10"][0] {
		t.Errorf("color config = %+v", cc)
	}
}

func TestLoadRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"SumWithoutValueColumn", "[aggregation]\nmethod = \"Sum\"\n"},
		{"UnknownMethod", "[aggregation]\nmethod = \"Median\"\n"},
		{"UnknownColorMode", "[color]\nmode = \"Rainbow\"\n"},
		{"BadUniformColor", "[color]\nuniform = \"blue\"\n"},
		{"ScaleOutOfRange", "[export]\nscale = 7\n"},
		{"UnknownBackground", "[export]\nbackground = \"plaid\"\n"},
		{"UnknownCacheBackend", "[cache]\nbackend = \"mongo\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.body)); err == nil {
				t.Error("Load() should reject the config")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("err = %v, want INVALID_CONFIG", err)
	}
}

func TestSortMode(t *testing.T) {
	cfg := Default()
	cfg.View.Sort = "value-desc"
	if cfg.SortMode() != tree.SortValueDesc {
		t.Errorf("SortMode() = %q", cfg.SortMode())
	}
}

func TestAggregateOptionsFilters(t *testing.T) {
	cfg := Default()
	cfg.Aggregation.Filters = map[string][]string{"Status": {"Delayed", "Pending"}}

	opts := cfg.AggregateOptions(nil)
	allowed := opts.DisplayFilters["Status"]
	if !allowed["Delayed"] || !allowed["Pending"] || allowed["On-Time"] {
		t.Errorf("DisplayFilters[Status] = %v", allowed)
	}
}
