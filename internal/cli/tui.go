package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/decomptree/pkg/config"
	"github.com/matzehuels/decomptree/pkg/export"
	"github.com/matzehuels/decomptree/pkg/layout"
	"github.com/matzehuels/decomptree/pkg/pipeline"
	"github.com/matzehuels/decomptree/pkg/tree"
	"github.com/matzehuels/decomptree/pkg/view"
)

// tuiCommand creates the interactive terminal explorer.
func (c *CLI) tuiCommand() *cobra.Command {
	var (
		configPath string
		hierarchy  string
		out        string
		noCache    bool
	)

	cmd := &cobra.Command{
		Use:   "tui [file.csv]",
		Short: "Explore the decomposition tree interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("hierarchy") {
				cfg.Aggregation.Hierarchy = parseList(hierarchy)
			}

			runner, err := c.newRunner(cmd.Context(), cfg.Cache, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			result, err := runner.Execute(cmd.Context(), pipeline.Options{
				Config:  cfg,
				CSVPath: args[0],
			})
			if err != nil {
				return err
			}

			m := newTreeModel(cfg, runner, args[0], out, result)
			program := tea.NewProgram(m, tea.WithContext(cmd.Context()))
			_, err = program.Run()
			return err
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "TOML config file")
	cmd.Flags().StringVar(&hierarchy, "hierarchy", "", "comma-separated hierarchy columns")
	cmd.Flags().StringVarP(&out, "out", "o", ".", "directory for exports")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the pipeline cache")
	return cmd
}

// sortCycle is the order the s key steps through.
var sortCycle = []tree.SortMode{
	tree.SortNone,
	tree.SortNameAsc,
	tree.SortNameDesc,
	tree.SortValueAsc,
	tree.SortValueDesc,
}

// treeModel is the bubbletea model for the tree explorer. All interaction
// goes through the view reducer, so the terminal behaves exactly like the
// exported snapshots.
type treeModel struct {
	cfg     config.Config
	runner  *pipeline.Runner
	exports *pipeline.Coalescer
	csvPath string
	outDir  string

	root  *tree.Node
	state view.State
	rows  []*view.VisibleNode

	cursor int
	offset int
	height int
	status string
}

// exportDoneMsg reports the outcome of an export started from the TUI.
type exportDoneMsg struct {
	path string
	err  error
}

func newTreeModel(cfg config.Config, runner *pipeline.Runner, csvPath, outDir string, result *pipeline.Result) treeModel {
	m := treeModel{
		cfg:     cfg,
		runner:  runner,
		exports: &pipeline.Coalescer{},
		csvPath: csvPath,
		outDir:  outDir,
		root:    result.Tree,
		state:   result.State,
		height:  20,
	}
	m.refresh()
	return m
}

// refresh re-derives the flattened visible rows from the current state.
func (m *treeModel) refresh() {
	m.rows = m.rows[:0]
	view.Visible(m.root, m.state).Walk(func(v *view.VisibleNode) {
		m.rows = append(m.rows, v)
	})
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.clampOffset()
}

func (m *treeModel) clampOffset() {
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
}

func (m *treeModel) apply(e view.Event) {
	m.state = view.Apply(m.root, m.state, e)
	m.refresh()
}

// moveSibling reorders the node under the cursor one slot up or down among
// its visible siblings, using the same drag-drop reducer event the pointer
// surfaces emit.
func (m *treeModel) moveSibling(down bool) {
	if len(m.rows) == 0 {
		return
	}
	current := m.rows[m.cursor]
	parentPath := view.ParentPath(current.Path)
	var parent *view.VisibleNode
	for _, v := range m.rows {
		if v.Path == parentPath {
			parent = v
			break
		}
	}
	if parent == nil {
		return
	}

	idx := -1
	for i, sib := range parent.Children {
		if sib.Path == current.Path {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}

	positions := layout.Compute(view.Visible(m.root, m.state)).Positions()
	var dropY float64
	switch {
	case down && idx < len(parent.Children)-1:
		dropY = positions[parent.Children[idx+1].Path]
	case !down && idx > 0:
		dropY = positions[parent.Children[idx-1].Path] - 1
	default:
		return
	}

	m.apply(view.Reorder{Path: current.Path, DropY: dropY, Positions: positions})
	m.status = "manual order active"
}

// exportCurrentView renders the live view to SVG in the background. Exports
// go through a coalescer, so mashing the key only keeps the newest one.
func (m *treeModel) exportCurrentView() tea.Cmd {
	cfg := m.cfg
	state := m.state
	return func() tea.Msg {
		result, err := m.exports.Execute(context.Background(), m.runner, pipeline.Options{
			Config:  cfg,
			CSVPath: m.csvPath,
			State:   &state,
			Variant: export.VariantCurrentView,
		})
		if err != nil {
			return exportDoneMsg{err: err}
		}
		name := export.Filename(string(export.VariantCurrentView), "svg", time.Now())
		path := filepath.Join(m.outDir, name)
		if err := os.WriteFile(path, result.Artifacts[pipeline.FormatSVG], 0644); err != nil {
			return exportDoneMsg{err: err}
		}
		return exportDoneMsg{path: path}
	}
}

func (m treeModel) Init() tea.Cmd {
	return nil
}

func (m treeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case exportDoneMsg:
		if msg.err != nil {
			m.status = "export failed: " + msg.err.Error()
		} else {
			m.status = "exported " + msg.path
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.height = msg.Height - 7
		if m.height < 5 {
			m.height = 5
		}
		m.clampOffset()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				m.clampOffset()
			}
		case "down", "j":
			if m.cursor < len(m.rows)-1 {
				m.cursor++
				m.clampOffset()
			}
		case "enter", " ":
			if len(m.rows) > 0 {
				m.apply(view.Toggle{Path: m.rows[m.cursor].Path})
			}
		case "E":
			m.apply(view.ExpandAll{})
		case "C":
			m.apply(view.CollapseAll{})
		case "s":
			if m.state.ManualOrder {
				m.status = "sorting disabled while manual order is active"
				break
			}
			next := sortCycle[0]
			for i, mode := range sortCycle {
				if mode == m.state.Sort {
					next = sortCycle[(i+1)%len(sortCycle)]
					break
				}
			}
			m.apply(view.SetSort{Mode: next})
			m.status = "sort: " + string(next)
		case "J":
			m.moveSibling(true)
		case "K":
			m.moveSibling(false)
		case "x":
			m.status = "exporting current view..."
			return m, m.exportCurrentView()
		}
	}
	return m, nil
}

func (m treeModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Decomposition Tree"))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("↑/↓ move  ⏎ toggle  E expand all  C collapse all  s sort  J/K reorder  x export  q quit"))
	b.WriteString("\n\n")

	end := m.offset + m.height
	if end > len(m.rows) {
		end = len(m.rows)
	}
	for i := m.offset; i < end; i++ {
		v := m.rows[i]

		marker := "· "
		if !v.Node.IsLeaf() {
			if v.Collapsed {
				marker = "▸ "
			} else {
				marker = "▾ "
			}
		}

		label := tree.FormatLabel(v.Node, m.cfg.ExportStyle().LabelMode)
		line := strings.Repeat("  ", v.Depth) + marker + label

		style := lipgloss.NewStyle()
		if v.Node.Color != "" {
			style = style.Foreground(lipgloss.Color(v.Node.Color))
		}
		if i == m.cursor {
			style = style.Bold(true)
			line = "▸ " + line
		} else {
			line = "  " + line
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	total := 0
	if m.root != nil {
		total = m.root.NodeCount()
	}
	footer := fmt.Sprintf("  [%d/%d visible of %d]", m.cursor+1, len(m.rows), total)
	if m.status != "" {
		footer += "  " + m.status
	}
	b.WriteString(StyleDim.Render(footer))

	return b.String()
}
