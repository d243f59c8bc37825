package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

// handlesCommand creates the handles command, which lists every handle the
// project's modules declare documents for.
func (c *CLI) handlesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "handles",
		Short: "List the handles declared by the project's modules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.openProject(cmd.Context())
			if err != nil {
				return err
			}
			defer p.Close()

			handles := p.loader.Handles()
			if len(handles) == 0 {
				printInfo("No layout documents found")
				return nil
			}

			rows := make([][]string, len(handles))
			for i, h := range handles {
				rows[i] = []string{h, strings.Join(p.loader.Contributors(h), ", ")}
			}
			fmt.Println(handlesTable(rows))
			fmt.Println(StyleDim.Render("  ") + StyleNumber.Render(fmt.Sprint(len(handles))) + StyleDim.Render(" handles"))
			printNextStep("Render one", appName+" render "+handles[0])
			return nil
		},
	}
}

// handlesTable renders handle/module rows as a bordered table.
func handlesTable(rows [][]string) string {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Handle", "Modules").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 0 {
				return lipgloss.NewStyle().Foreground(colorCyan)
			}
			return lipgloss.NewStyle().Foreground(colorGray)
		})
	return t.Render()
}
