package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/infinri/layoutc/internal/server"
)

// serveCommand creates the serve command, which runs the preview server
// until interrupted.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the layout preview server",
		Long: `Serve composed layouts over HTTP:

  GET /render/{handles}   rendered markup (handles comma separated)
  GET /tree/{handles}     exported tree (?stage=, ?format=)
  GET /handles            declared handles as JSON`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := c.openProject(ctx)
			if err != nil {
				return err
			}
			defer p.Close()

			if addr == "" {
				addr = p.cfg.Server.Addr
			}
			names := make([]string, len(p.cfg.Modules))
			for i, m := range p.cfg.Modules {
				names[i] = m.Name
			}
			printKeyValue("Address", addr)
			printKeyValue("Modules", strings.Join(names, ", "))
			printKeyValue("Cache", p.cfg.Cache.Backend)

			return server.New(p.runner, p.loader, c.Logger).ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	return cmd
}
