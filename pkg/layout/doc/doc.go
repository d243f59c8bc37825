// Package doc provides the document tree used by every stage of the layout
// pipeline.
//
// # Overview
//
// A layout document is a labeled tree: each node has a tag, a set of string
// attributes, an ordered list of children and optional inline text. Documents
// are contributed per module and per handle, parsed by [ParseXML] or
// [ParseYAML], concatenated by the merger and rewritten by the processor.
//
// # Arena Representation
//
// [Tree] stores its nodes in a slice and addresses them by [NodeID]. Parent
// and child links are ids, never pointers, so relocating a subtree is a
// matter of rewriting two id lists:
//
//	t := doc.New(doc.RootTag)
//	body := t.NewNode("container")
//	t.SetAttr(body, doc.NameAttr, "body")
//	_ = t.Append(t.Root(), body)
//
// Detached nodes stay in the arena but are unreachable from [Tree.Root];
// [Tree.Clone] compacts them away.
//
// # Directives
//
// Some tags are structural instructions rather than renderable elements.
// [DirectiveOf] classifies a tag once so later stages can switch on a closed
// set of [Directive] values instead of comparing strings.
package doc
