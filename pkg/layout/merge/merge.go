// Package merge concatenates per-module layout documents into one tree.
//
// Merging is structural only: the top-level children of every input are
// copied, in order, under a fresh root. Attribute overrides, removals and
// relocations are left to the processor.
package merge

import (
	"github.com/infinri/layoutc/pkg/layout/doc"
)

// Merge returns a new tree rooted at [doc.RootTag] whose children are copies
// of the top-level children of trees, in order. The inputs are not modified.
// Nil entries are skipped; an empty input yields a childless root.
func Merge(trees []*doc.Tree) *doc.Tree {
	out := doc.New(doc.RootTag)
	for _, t := range trees {
		if t == nil {
			continue
		}
		for _, c := range t.Children(t.Root()) {
			// Grafting a fresh copy under the root cannot form a cycle.
			_, _ = out.Graft(out.Root(), t, c)
		}
	}
	return out
}
