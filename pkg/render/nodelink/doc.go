// Package nodelink draws block trees as node-link diagrams.
//
// # Overview
//
// This package turns a built layout into a Graphviz graph: one node per
// block, one edge from every block to each of its children. It backs the
// blocks stage of the tree command and is meant for debugging where a
// reference-container actually put its content.
//
// # Usage
//
// Convert a block tree to DOT format, then render to SVG:
//
//	dot := nodelink.ToDOT(root, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(dot)
//
// # Options
//
// The [Options] struct controls diagram generation:
//
//   - Detailed: When true, node labels include wrapping tags, template
//     references and data keys
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering.
package nodelink
