// Package handle expands requested handles into the ordered documents that
// make up a page.
//
// A document may pull in another handle with an include directive anywhere
// in its tree:
//
//	<layout>
//	    <include handle="default"/>
//	    <reference-container name="content">...</reference-container>
//	</layout>
//
// Included handles are resolved before the including handle, so base
// layouts are merged first and more specific handles can extend or remove
// what they declare. Every handle is loaded at most once per resolution; a
// handle that includes itself, directly or through others, is not followed
// again.
package handle

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/infinri/layoutc/pkg/errors"
	"github.com/infinri/layoutc/pkg/layout/doc"
	"github.com/infinri/layoutc/pkg/layout/source"
)

// Resolution is the flattened result of resolving a set of handles.
type Resolution struct {
	// Handles lists every handle that was loaded, in merge order.
	Handles []string

	// Contributions holds the documents in merge order with include
	// directives removed.
	Contributions []source.Contribution

	// Failures collects the documents dropped while loading.
	Failures []source.Failure
}

// Trees returns the contribution trees in merge order.
func (r *Resolution) Trees() []*doc.Tree {
	trees := make([]*doc.Tree, len(r.Contributions))
	for i, c := range r.Contributions {
		trees[i] = c.Tree
	}
	return trees
}

// Resolver follows include directives across handles.
type Resolver struct {
	loader *source.Loader
	logger *log.Logger
}

// NewResolver creates a resolver over loader. A nil logger discards output.
func NewResolver(loader *source.Loader, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Resolver{loader: loader, logger: logger}
}

// Resolve loads the requested handles and everything they include. Handles
// are processed in the given order; duplicates are loaded once. Handles that
// resolve to no documents contribute nothing.
func (r *Resolver) Resolve(ctx context.Context, handles []string) (*Resolution, error) {
	if err := errors.ValidateHandles(handles); err != nil {
		return nil, err
	}
	res := &Resolution{}
	visited := make(map[string]bool)
	for _, h := range handles {
		if err := r.resolve(ctx, h, visited, res); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (r *Resolver) resolve(ctx context.Context, handle string, visited map[string]bool, res *Resolution) error {
	if visited[handle] {
		return nil
	}
	visited[handle] = true

	docs, err := r.loader.Load(ctx, handle)
	if err != nil {
		return err
	}
	res.Failures = append(res.Failures, docs.Failures...)

	for _, c := range docs.Contributions {
		for _, target := range consumeIncludes(c.Tree) {
			if err := errors.ValidateHandle(target); err != nil {
				r.logger.Warn("ignoring include", "module", c.Module, "handle", handle, "err", err)
				continue
			}
			if visited[target] {
				r.logger.Debug("include already resolved", "handle", handle, "target", target)
				continue
			}
			if err := r.resolve(ctx, target, visited, res); err != nil {
				return err
			}
		}
	}

	res.Handles = append(res.Handles, handle)
	res.Contributions = append(res.Contributions, docs.Contributions...)
	return nil
}

// consumeIncludes detaches every include directive from t and returns their
// target handles in document order. Includes without a handle are dropped.
func consumeIncludes(t *doc.Tree) []string {
	var targets []string
	var includes []doc.NodeID
	_ = t.Walk(func(id doc.NodeID, _ int) error {
		if doc.DirectiveOf(t.Tag(id)) != doc.Include {
			return nil
		}
		includes = append(includes, id)
		if h, ok := t.Attr(id, doc.HandleAttr); ok && h != "" {
			targets = append(targets, h)
		}
		return doc.SkipChildren
	})
	for _, id := range includes {
		t.Detach(id)
	}
	return targets
}
