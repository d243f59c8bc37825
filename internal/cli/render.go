package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/infinri/layoutc/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output  string   // output file path; stdout when empty
	block   string   // render only this named block
	set     []string // key=value late-bound data
	refresh bool     // bypass the merged layout cache
	stats   bool     // print composition statistics
}

// renderCommand creates the render command, which composes one or more
// handles and writes the rendered markup.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render <handle>...",
		Short: "Compose handles and render the markup",
		Long: `Compose the layout documents of the given handles, in order, and render the
resulting block tree.

Values passed with --set are bound to every block that does not define them;
the main content block receives all of them.`,
		Example: `  layoutc render default cms_page
  layoutc render cms_page --block content --set title=Home -o page.html`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), args, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVarP(&opts.block, "block", "b", "", "render only the named block")
	cmd.Flags().StringArrayVarP(&opts.set, "set", "s", nil, "bind key=value data (repeatable)")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass the merged layout cache")
	cmd.Flags().BoolVar(&opts.stats, "stats", false, "print composition statistics")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, handles []string, opts *renderOpts) error {
	data, err := parseData(opts.set)
	if err != nil {
		return err
	}

	p, err := c.openProject(ctx)
	if err != nil {
		return err
	}
	defer p.Close()

	prog := newProgress(c.Logger)
	result, err := p.runner.Execute(ctx, pipeline.Options{
		Handles: handles,
		Data:    data,
		Block:   opts.block,
		Refresh: opts.refresh,
	})
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Rendered %d handle(s)", result.Stats.Handles), result.Stats, result.CacheInfo.MergeHit)

	for _, d := range result.Composition.Dropped {
		c.Logger.Warn("directive dropped", "directive", d.Directive, "target", d.Target, "reason", d.Reason)
	}
	for _, f := range result.Composition.Failures {
		c.Logger.Warn("document skipped", "module", f.Module, "path", f.Path, "err", f.Err)
	}

	if opts.output == "" {
		if _, err := fmt.Fprintln(os.Stdout, result.Markup); err != nil {
			return err
		}
	} else {
		if err := os.WriteFile(opts.output, []byte(result.Markup), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", opts.output, err)
		}
		printSuccess("Rendered %s", StyleHighlight.Render(fmt.Sprint(handles)))
		printFile(opts.output)
	}

	if opts.stats {
		printStats(result.Stats, result.CacheInfo.MergeHit)
	}
	return nil
}
