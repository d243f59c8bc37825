package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/infinri/layoutc/pkg/pipeline"
)

// treeOpts holds the command-line flags for the tree command.
type treeOpts struct {
	output string
	stage  string
	format string
}

// treeCommand creates the tree command, which exports an intermediate tree
// of the composition for debugging directives and block structure.
func (c *CLI) treeCommand() *cobra.Command {
	opts := treeOpts{stage: pipeline.StageProcessed}

	cmd := &cobra.Command{
		Use:   "tree <handle>...",
		Short: "Export the merged, processed or block tree",
		Long: `Export one stage of the composition:

  merged     the concatenated documents, directives still in place (xml, json)
  processed  the tree after directives were applied (xml, json)
  blocks     the built block tree as a graph (dot, svg)`,
		Example: `  layoutc tree cms_page --stage merged
  layoutc tree cms_page --stage blocks --format svg -o blocks.svg`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.format == "" {
				opts.format = defaultFormat(opts.stage)
			}
			if err := pipeline.ValidateStage(opts.stage); err != nil {
				return err
			}
			if err := pipeline.ValidateFormat(opts.stage, opts.format); err != nil {
				return err
			}
			return c.runTree(cmd.Context(), args, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&opts.stage, "stage", opts.stage, "stage: merged, processed (default), blocks")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "format: xml or json for documents, dot or svg for blocks")

	return cmd
}

// defaultFormat returns the default export format of stage.
func defaultFormat(stage string) string {
	if stage == pipeline.StageBlocks {
		return pipeline.FormatDOT
	}
	return pipeline.FormatXML
}

func (c *CLI) runTree(ctx context.Context, handles []string, opts *treeOpts) error {
	p, err := c.openProject(ctx)
	if err != nil {
		return err
	}
	defer p.Close()

	comp, err := p.runner.Compose(ctx, pipeline.Options{Handles: handles})
	if err != nil {
		return err
	}
	for _, d := range comp.Dropped {
		c.Logger.Warn("directive dropped", "directive", d.Directive, "target", d.Target, "reason", d.Reason)
	}

	var out []byte
	if opts.format == pipeline.FormatSVG {
		err = newSpinner("Laying out block graph...").run(ctx, func() error {
			var err error
			out, err = pipeline.Export(comp, opts.stage, opts.format)
			return err
		})
		if err != nil {
			printError("Graph layout failed")
		}
	} else {
		out, err = pipeline.Export(comp, opts.stage, opts.format)
	}
	if err != nil {
		return err
	}

	if opts.output == "" {
		_, err := os.Stdout.Write(out)
		return err
	}
	if err := os.WriteFile(opts.output, out, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}
	printSuccess("Exported %s tree", opts.stage)
	printFile(opts.output)
	if n := len(comp.Dropped); n > 0 {
		printWarning("%d directive(s) dropped", n)
	}
	return nil
}
