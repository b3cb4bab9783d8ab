package cli

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/crewviz/pkg/pipeline"
	"github.com/matzehuels/crewviz/pkg/workflow"
)

// inspectCommand lays out a workflow and browses the positioned nodes.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		flags layoutFlags
		plain bool
	)

	cmd := &cobra.Command{
		Use:   "inspect <workflow.json|url|demo>",
		Short: "Browse the positioned nodes of a workflow",
		Long: `Browse the positioned nodes of a workflow.

Shows every node with its kind and computed position. Select a node to see its
payload and connections. With --plain the table is printed once instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			lc, err := flags.layoutConfig(cmd, cfg)
			if err != nil {
				return err
			}
			runner, err := c.newRunner(ctx, cfg, flags.noCache)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			_, positioned, _, err := c.loadAndLayout(ctx, runner, args[0], pipeline.Options{
				Layout:  lc,
				Refresh: flags.refresh,
			}, flags.refresh)
			if err != nil {
				return err
			}

			m := newInspectModel(args[0], positioned)
			if plain {
				fmt.Println(m.table(0, len(positioned.Nodes)))
				return nil
			}
			_, err = tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen()).Run()
			return err
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "print the node table and exit")
	flags.register(cmd)
	return cmd
}

// =============================================================================
// inspectModel - Interactive node browser
// =============================================================================

var (
	inspectHeaderStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	inspectPaneStyle   = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorDim).
				Padding(0, 1)
)

type inspectModel struct {
	title  string
	graph  workflow.Graph
	index  *workflow.Index
	report workflow.Report

	cursor int
	offset int
	height int
	detail bool
}

func newInspectModel(title string, g workflow.Graph) inspectModel {
	return inspectModel{
		title:  title,
		graph:  g,
		index:  workflow.NewIndex(g.Nodes, g.Edges),
		report: workflow.Validate(g),
		height: 15,
		detail: true,
	}
}

func (m inspectModel) Init() tea.Cmd { return nil }

func (m inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				m.offset = min(m.offset, m.cursor)
			}
		case "down", "j":
			if m.cursor < len(m.graph.Nodes)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		case "home", "g":
			m.cursor, m.offset = 0, 0
		case "end", "G":
			m.cursor = max(len(m.graph.Nodes)-1, 0)
			m.offset = max(m.cursor-m.height+1, 0)
		case "enter", "tab":
			m.detail = !m.detail
		}
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-20, 5)
	}
	return m, nil
}

func (m inspectModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.title))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("↑/↓ navigate  ⏎ details  q quit"))
	b.WriteString("\n\n")

	if len(m.graph.Nodes) == 0 {
		b.WriteString(StyleDim.Render("  (empty workflow)"))
		b.WriteString("\n")
		return b.String()
	}

	end := min(m.offset+m.height, len(m.graph.Nodes))
	b.WriteString(m.table(m.offset, end))
	b.WriteString("\n")
	if m.detail {
		b.WriteString(inspectPaneStyle.Render(m.details(&m.graph.Nodes[m.cursor])))
		b.WriteString("\n")
	}

	footer := fmt.Sprintf("  [%d/%d]", m.cursor+1, len(m.graph.Nodes))
	if n := len(m.report.Issues); n > 0 {
		footer += "  " + StyleWarning.Render(fmt.Sprintf("%d issues", n))
	}
	b.WriteString(StyleDim.Render(footer))
	return b.String()
}

// table renders nodes[start:end] with the cursor row highlighted.
func (m inspectModel) table(start, end int) string {
	rows := make([][]string, 0, end-start)
	for i := start; i < end; i++ {
		n := &m.graph.Nodes[i]
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		x, y := "-", "-"
		if n.Position != nil {
			x, y = num(n.Position.X), num(n.Position.Y)
		}
		rows = append(rows, []string{cursor, n.ID, n.Kind.Label(), n.DisplayName(), x, y})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "ID", "Kind", "Name", "X", "Y").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return inspectHeaderStyle
			}
			i := start + row
			if i >= end {
				return lipgloss.NewStyle()
			}
			style := StyleValue
			if col == 2 {
				style = kindStyle(m.graph.Nodes[i].Kind)
			}
			if col >= 4 {
				style = StyleDim
			}
			if i == m.cursor {
				style = style.Bold(true)
			}
			return style
		}).
		Render()
}

// details lists the payload fields and the connections of n.
func (m inspectModel) details(n *workflow.Node) string {
	var b strings.Builder
	b.WriteString(kindStyle(n.Kind).Bold(true).Render(n.Kind.Label()))
	b.WriteString(" " + StyleValue.Render(n.DisplayName()))
	if n.IsStartingNode {
		b.WriteString(StyleDim.Render("  (starting node)"))
	}
	b.WriteString("\n")

	keys := make([]string, 0, len(n.Data))
	for k := range n.Data {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s %s\n", StyleDim.Render(k+":"), truncateText(formatValue(n.Data[k]), 72))
	}

	if in := m.index.Parents(n.ID); len(in) > 0 {
		fmt.Fprintf(&b, "%s %s\n", StyleDim.Render("from:"), strings.Join(in, ", "))
	}
	if out := m.index.Children(n.ID); len(out) > 0 {
		fmt.Fprintf(&b, "%s %s\n", StyleDim.Render("to:"), strings.Join(out, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func truncateText(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
