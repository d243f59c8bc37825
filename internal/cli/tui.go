package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/infinri/layoutc/pkg/layout/block"
	"github.com/infinri/layoutc/pkg/pipeline"
)

// List styles
var (
	listDimStyle     = lipgloss.NewStyle().Foreground(colorDim)
	previewStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1)
	previewErrStyle  = lipgloss.NewStyle().Foreground(colorRed)
	previewHeadStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

// maxPreviewLines bounds the rendered markup shown below the list.
const maxPreviewLines = 12

// =============================================================================
// BlockListModel - Interactive block browser
// =============================================================================

// BlockListModel is the bubbletea model for browsing the named blocks of a
// composition and previewing their rendered markup.
type BlockListModel struct {
	Names   []string
	Blocks  map[string]block.Block
	Cursor  int
	Height  int
	Offset  int
	Preview string
	Err     error

	render func(name string) (string, error)
}

// NewBlockListModel creates a block list over blocks. render produces the
// preview for a block name.
func NewBlockListModel(blocks map[string]block.Block, render func(string) (string, error)) BlockListModel {
	names := make([]string, 0, len(blocks))
	for name := range blocks {
		names = append(names, name)
	}
	sort.Strings(names)
	return BlockListModel{
		Names:  names,
		Blocks: blocks,
		Height: 15,
		render: render,
	}
}

func (m BlockListModel) Init() tea.Cmd {
	return nil
}

func (m BlockListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.Preview == "" && m.Err == nil {
				return m, tea.Quit
			}
			m.Preview, m.Err = "", nil
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Names)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Names) == 0 || m.render == nil {
				return m, nil
			}
			m.Preview, m.Err = m.render(m.Names[m.Cursor])
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - maxPreviewLines - 8
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m BlockListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Named Blocks"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ render  esc close  q quit"))
	b.WriteString("\n\n")

	if len(m.Names) == 0 {
		b.WriteString(listDimStyle.Render("  no named blocks"))
		return b.String()
	}

	end := min(m.Offset+m.Height, len(m.Names))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		name := m.Names[i]
		blk := m.Blocks[name]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, name, blk.Kind().String(), describeBlock(blk), fmt.Sprint(len(blk.Children()))})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Block", "Kind", "Detail", "Children").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return previewHeadStyle
			}
			if m.Offset+row == m.Cursor {
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			}
			if col == 2 || col == 3 {
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Names))))

	switch {
	case m.Err != nil:
		b.WriteString("\n\n")
		b.WriteString(previewErrStyle.Render(iconError + " " + m.Err.Error()))
	case m.Preview != "":
		b.WriteString("\n\n")
		b.WriteString(previewStyle.Render(truncateLines(m.Preview, maxPreviewLines)))
	}

	return b.String()
}

// =============================================================================
// Inspect Command
// =============================================================================

// inspectCommand creates the inspect command, which opens the block browser
// over the composition of the given handles.
func (c *CLI) inspectCommand() *cobra.Command {
	var set []string

	cmd := &cobra.Command{
		Use:   "inspect <handle>...",
		Short: "Browse the named blocks of a composition",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := parseData(set)
			if err != nil {
				return err
			}
			return c.runInspect(cmd.Context(), args, data)
		},
	}
	cmd.Flags().StringArrayVarP(&set, "set", "s", nil, "bind key=value data (repeatable)")
	return cmd
}

func (c *CLI) runInspect(ctx context.Context, handles []string, data map[string]any) error {
	p, err := c.openProject(ctx)
	if err != nil {
		return err
	}
	defer p.Close()

	comp, err := p.runner.Compose(ctx, pipeline.Options{Handles: handles, Data: data})
	if err != nil {
		return err
	}

	model := NewBlockListModel(comp.Blocks(), func(name string) (string, error) {
		return pipeline.Render(ctx, p.runner.Renderer, comp, name)
	})
	_, err = tea.NewProgram(model, tea.WithContext(ctx)).Run()
	return err
}

// =============================================================================
// Helpers
// =============================================================================

// describeBlock returns the variant-specific detail shown in the list.
func describeBlock(b block.Block) string {
	switch b := b.(type) {
	case *block.Container:
		if b.Tag == "" {
			return "—"
		}
		return "<" + b.Tag + ">"
	case *block.Template:
		if b.Ref == "" {
			return "—"
		}
		return b.Ref
	case *block.Text:
		return truncate(b.Value, 24)
	}
	return ""
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}

func truncateLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) <= n {
		return strings.Join(lines, "\n")
	}
	return strings.Join(lines[:n], "\n") + "\n" + listDimStyle.Render(fmt.Sprintf("… %d more lines", len(lines)-n))
}
