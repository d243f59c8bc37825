package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/infinri/layoutc/pkg/layout/block"
)

// Options configures block diagram rendering.
type Options struct {
	// Detailed includes presentation attributes and data keys in node
	// labels. When false, only the variant and name are shown.
	Detailed bool
}

// ToDOT converts a block tree to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG].
//
// Containers are drawn as rounded boxes, template blocks as notes and text
// blocks as grey plain labels. A nil root yields an empty graph.
func ToDOT(root block.Block, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.4;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	var edges []string
	ids := make(map[block.Block]string)
	var parents []string
	_ = block.Walk(root, func(b block.Block, depth int) error {
		id := "b" + strconv.Itoa(len(ids))
		ids[b] = id
		fmt.Fprintf(&buf, "  %s [%s];\n", id, strings.Join(fmtAttrs(b, fmtLabel(b, opts.Detailed)), ", "))

		parents = parents[:depth]
		if depth > 0 {
			edges = append(edges, fmt.Sprintf("  %s -> %s;\n", parents[depth-1], id))
		}
		parents = append(parents, id)
		return nil
	})

	if len(edges) > 0 {
		buf.WriteString("\n")
	}
	for _, e := range edges {
		buf.WriteString(e)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(b block.Block, detailed bool) string {
	head := b.Kind().String()
	if b.Name() != "" {
		head += " " + b.Name()
	}
	if !detailed {
		return head
	}

	var parts []string
	switch b := b.(type) {
	case *block.Container:
		if b.Tag != "" {
			parts = append(parts, "<"+b.Tag+">")
		}
		if b.Class != "" {
			parts = append(parts, "class: "+b.Class)
		}
	case *block.Template:
		if b.Ref != "" {
			parts = append(parts, "template: "+b.Ref)
		}
	case *block.Text:
		parts = append(parts, truncate(b.Value, 32))
	}
	for _, k := range slices.Sorted(maps.Keys(b.Data())) {
		parts = append(parts, fmt.Sprintf("%s: %v", k, b.Data()[k]))
	}
	if len(parts) == 0 {
		return head
	}
	return head + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(b block.Block, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch b.Kind() {
	case block.KindTemplate:
		attrs = append(attrs, "shape=note", "style=filled", "fillcolor=lightyellow")
	case block.KindText:
		attrs = append(attrs, "shape=plaintext", "fontcolor=grey40")
	}
	return attrs
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
