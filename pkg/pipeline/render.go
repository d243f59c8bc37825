package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/infinri/layoutc/pkg/layout/doc"
	"github.com/infinri/layoutc/pkg/layout/render"
	"github.com/infinri/layoutc/pkg/render/nodelink"
)

// Render renders the whole composition, or only the block registered under
// name when name is not empty. An unknown name or an empty composition
// renders to "".
func Render(ctx context.Context, r *render.Renderer, c *Composition, name string) (string, error) {
	if name != "" {
		return r.RenderBlock(ctx, c, name)
	}
	return r.Render(ctx, c.Root)
}

// Export serializes one stage of a composition. The merged and processed
// documents export as XML or JSON; the block tree as Graphviz DOT or SVG.
func Export(c *Composition, stage, format string) ([]byte, error) {
	if err := ValidateStage(stage); err != nil {
		return nil, err
	}
	if err := ValidateFormat(stage, format); err != nil {
		return nil, err
	}

	if stage == StageBlocks {
		dot := nodelink.ToDOT(c.Root, nodelink.Options{Detailed: true})
		if format == FormatDOT {
			return []byte(dot), nil
		}
		return nodelink.RenderSVG(dot)
	}

	tree := c.Merged
	if stage == StageProcessed {
		tree = c.Processed
	}
	return exportTree(tree, format)
}

func exportTree(t *doc.Tree, format string) ([]byte, error) {
	switch format {
	case FormatXML:
		var buf bytes.Buffer
		if err := doc.WriteXML(&buf, t); err != nil {
			return nil, fmt.Errorf("write xml: %w", err)
		}
		return buf.Bytes(), nil
	case FormatJSON:
		return json.MarshalIndent(t, "", "  ")
	default:
		return nil, fmt.Errorf("unsupported tree format: %s", format)
	}
}
