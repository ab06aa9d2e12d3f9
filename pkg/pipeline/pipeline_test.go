package pipeline

import (
	"bytes"
	"context"
	"io"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/decomptree/pkg/cache"
	"github.com/matzehuels/decomptree/pkg/config"
	"github.com/matzehuels/decomptree/pkg/errors"
	"github.com/matzehuels/decomptree/pkg/export"
	"github.com/matzehuels/decomptree/pkg/observability"
	"github.com/matzehuels/decomptree/pkg/table"
	"github.com/matzehuels/decomptree/pkg/tree"
	"github.com/matzehuels/decomptree/pkg/view"
)

func testTable() *table.Table {
	t := table.New("Region", "Status")
	t.Append(table.Row{"Region": table.String("North"), "Status": table.String("Delayed")})
	t.Append(table.Row{"Region": table.String("North"), "Status": table.String("On-Time")})
	t.Append(table.Row{"Region": table.String("South"), "Status": table.String("On-Time")})
	return t
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Aggregation.Hierarchy = []string{"Region", "Status"}
	return cfg
}

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func TestExecuteProducesArtifacts(t *testing.T) {
	r := NewRunner(nil, nil, quietLogger())
	result, err := r.Execute(context.Background(), Options{
		Config:  testConfig(),
		Table:   testTable(),
		Formats: []string{FormatSVG, FormatDOT, FormatJSON},
	})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	if result.Stats.RowCount != 3 {
		t.Errorf("RowCount = %d, want 3", result.Stats.RowCount)
	}
	// Super-root + 2 regions + 3 status leaves.
	if result.Stats.NodeCount != 6 {
		t.Errorf("NodeCount = %d, want 6", result.Stats.NodeCount)
	}
	if result.Stats.VisibleCount != result.Stats.NodeCount {
		t.Errorf("VisibleCount = %d, want %d (complete variant)",
			result.Stats.VisibleCount, result.Stats.NodeCount)
	}
	if result.TreeHash == "" {
		t.Error("TreeHash is empty")
	}
	if result.CacheInfo.TreeHit || result.CacheInfo.LayoutHit || result.CacheInfo.RenderHit {
		t.Errorf("cold run reported cache hits: %+v", result.CacheInfo)
	}

	svg := result.Artifacts[FormatSVG]
	if !bytes.Contains(svg, []byte("<svg")) {
		t.Error("svg artifact missing <svg element")
	}
	if !bytes.Contains(svg, []byte("Region: North")) {
		t.Error("svg artifact missing node label")
	}
	dot := string(result.Artifacts[FormatDOT])
	if !strings.Contains(dot, "digraph decomposition") {
		t.Errorf("dot artifact = %q", dot[:min(len(dot), 40)])
	}
	if !bytes.Contains(result.Artifacts[FormatJSON], []byte(`"Region: South"`)) {
		t.Error("json artifact missing node name")
	}
}

func TestExecuteCacheRoundTrip(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error: %v", err)
	}
	r := NewRunner(fc, nil, quietLogger())
	defer r.Close()

	opts := Options{
		Config:  testConfig(),
		Table:   testTable(),
		Formats: []string{FormatSVG, FormatJSON},
	}

	first, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("first Execute() error: %v", err)
	}
	second, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("second Execute() error: %v", err)
	}

	if !second.CacheInfo.TreeHit || !second.CacheInfo.LayoutHit || !second.CacheInfo.RenderHit {
		t.Errorf("warm run cache info = %+v, want all hits", second.CacheInfo)
	}
	if second.TreeHash != first.TreeHash {
		t.Errorf("TreeHash changed across runs: %s vs %s", first.TreeHash, second.TreeHash)
	}
	for _, format := range opts.Formats {
		if !bytes.Equal(first.Artifacts[format], second.Artifacts[format]) {
			t.Errorf("%s artifact differs between cold and warm run", format)
		}
	}

	// The rebuilt layout must match the computed one position for position.
	want := first.Layout.Positions()
	got := second.Layout.Positions()
	if len(got) != len(want) {
		t.Fatalf("warm layout has %d positions, want %d", len(got), len(want))
	}
	for path, x := range want {
		if got[path] != x {
			t.Errorf("position[%q] = %v, want %v", path, got[path], x)
		}
	}

	// A reconstructed tree must aggregate identically.
	if second.Tree.NodeCount() != first.Tree.NodeCount() {
		t.Errorf("warm tree has %d nodes, want %d", second.Tree.NodeCount(), first.Tree.NodeCount())
	}
	if second.Tree.Count != first.Tree.Count {
		t.Errorf("warm root count = %d, want %d", second.Tree.Count, first.Tree.Count)
	}

	refreshed, err := r.Execute(context.Background(), Options{
		Config:  opts.Config,
		Table:   testTable(),
		Formats: opts.Formats,
		Refresh: true,
	})
	if err != nil {
		t.Fatalf("refresh Execute() error: %v", err)
	}
	if refreshed.CacheInfo.TreeHit || refreshed.CacheInfo.LayoutHit || refreshed.CacheInfo.RenderHit {
		t.Errorf("refresh run cache info = %+v, want no hits", refreshed.CacheInfo)
	}
}

func TestExecuteCurrentViewVariant(t *testing.T) {
	r := NewRunner(nil, nil, quietLogger())
	cfg := testConfig()

	full, err := r.Execute(context.Background(), Options{Config: cfg, Table: testTable()})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	// Collapse Region: North and export the current view.
	state := view.NewState(full.Tree, cfg.SortMode())
	state = view.Apply(full.Tree, state, view.Toggle{Path: view.ChildPath(view.RootPath, "Region: North")})

	current, err := r.Execute(context.Background(), Options{
		Config:  cfg,
		Table:   testTable(),
		State:   &state,
		Variant: export.VariantCurrentView,
	})
	if err != nil {
		t.Fatalf("current view Execute() error: %v", err)
	}
	if current.Stats.VisibleCount >= full.Stats.VisibleCount {
		t.Errorf("current view visible = %d, want fewer than %d",
			current.Stats.VisibleCount, full.Stats.VisibleCount)
	}
	if bytes.Contains(current.Artifacts[FormatSVG], []byte("Status: Delayed")) {
		t.Error("collapsed subtree leaked into current view svg")
	}
}

func TestOptionsValidation(t *testing.T) {
	r := NewRunner(nil, nil, quietLogger())

	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{
			name: "missing hierarchy",
			opts: Options{Config: config.Default(), Table: testTable()},
			code: errors.ErrCodeInvalidHierarchy,
		},
		{
			name: "missing input",
			opts: Options{Config: testConfig()},
			code: errors.ErrCodeInvalidConfig,
		},
		{
			name: "bad format",
			opts: Options{Config: testConfig(), Table: testTable(), Formats: []string{"pdf"}},
			code: errors.ErrCodeInvalidFormat,
		},
		{
			name: "bad variant",
			opts: Options{Config: testConfig(), Table: testTable(), Variant: "thumbnail"},
			code: errors.ErrCodeInvalidFormat,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Execute(context.Background(), tt.opts)
			if !errors.Is(err, tt.code) {
				t.Errorf("Execute() error = %v, want code %s", err, tt.code)
			}
		})
	}
}

// gateHooks blocks the first run at the layout stage so a second run can
// supersede it.
type gateHooks struct {
	observability.NoopPipelineHooks
	calls   atomic.Int64
	entered chan struct{}
	release chan struct{}
}

func (h *gateHooks) OnLayoutStart(ctx context.Context, visible int) {
	if h.calls.Add(1) == 1 {
		close(h.entered)
		<-h.release
	}
}

func TestCoalescerSupersedes(t *testing.T) {
	hooks := &gateHooks{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	observability.SetPipelineHooks(hooks)
	t.Cleanup(observability.Reset)

	r := NewRunner(nil, nil, quietLogger())
	var c Coalescer
	opts := Options{Config: testConfig(), Table: testTable()}

	firstErr := make(chan error, 1)
	go func() {
		_, err := c.Execute(context.Background(), r, opts)
		firstErr <- err
	}()

	<-hooks.entered
	second, err := c.Execute(context.Background(), r, opts)
	if err != nil {
		t.Fatalf("second Execute() error: %v", err)
	}
	if second == nil || len(second.Artifacts[FormatSVG]) == 0 {
		t.Fatal("second run produced no svg")
	}
	close(hooks.release)

	select {
	case err := <-firstErr:
		if err != context.Canceled {
			t.Errorf("superseded run error = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("superseded run did not return")
	}
}

func TestCoalescerCancelWithoutRun(t *testing.T) {
	var c Coalescer
	c.Cancel() // no-op
}

func TestExecuteWeekComparisonSubstitutesStatus(t *testing.T) {
	tbl := table.New("Region", "Status", table.ColPlannedDate, table.ColActualDate)
	planned := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC) // Monday
	tbl.Append(table.Row{
		"Region":             table.String("North"),
		"Status":             table.String("Delayed"),
		table.ColPlannedDate: table.Time(planned),
		table.ColActualDate:  table.Time(planned.AddDate(0, 0, 9)), // next week
	})
	tbl.Append(table.Row{
		"Region":             table.String("South"),
		"Status":             table.String("On-Time"),
		table.ColPlannedDate: table.Time(planned),
		table.ColActualDate:  table.Time(planned.AddDate(0, 0, 2)), // same week
	})

	cfg := testConfig()
	cfg.Aggregation.TimeComparison = string(table.CompareWeek)

	r := NewRunner(nil, nil, quietLogger())
	result, err := r.Execute(context.Background(), Options{
		Config:  cfg,
		Table:   tbl,
		Formats: []string{FormatJSON},
	})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	// The hierarchy still names "Status", but grouping follows the derived
	// week status.
	data := string(result.Artifacts[FormatJSON])
	if !strings.Contains(data, `"Week_Status: Delayed"`) {
		t.Errorf("tree should group by Week_Status, got: %s", data)
	}
	if !strings.Contains(data, `"Week_Status: On-Time"`) {
		t.Errorf("tree should carry the on-time week group, got: %s", data)
	}
}

func TestEffectiveHierarchyWithoutDates(t *testing.T) {
	tbl := testTable() // no date columns, so no derived status
	table.DeriveTimeColumns(tbl, table.CompareWeek)

	got := effectiveHierarchy(tbl, tree.Options{
		Hierarchy:      []string{"Region", "Status"},
		TimeComparison: table.CompareWeek,
	})
	if !reflect.DeepEqual(got, []string{"Region", "Status"}) {
		t.Errorf("hierarchy = %v, want unchanged", got)
	}
}
