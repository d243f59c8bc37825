package cli

import (
	"github.com/spf13/cobra"

	"github.com/infinri/layoutc/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "layoutc composes page layouts from module documents",
		Long: `layoutc merges the layout documents that feature modules contribute for a
page handle, applies their directives, and renders the resulting block tree.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "project file (default ./layoutc.toml)")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "disable the merged layout cache")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.treeCommand())
	root.AddCommand(c.handlesCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}
