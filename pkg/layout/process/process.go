// Package process resolves the structural directives of a merged layout
// tree.
//
// Processing runs in two passes over the tree. The first builds the name
// index: every renderable node carrying a name attribute is indexed, the
// last occurrence of a name winning. Directive nodes are never indexed, so a
// reference-container addressing "body" cannot shadow the container it
// targets.
//
// The second pass visits directives in document order:
//
//	<remove name="X"/>                     detach X, then the directive
//	<reference-container name="X">…</…>    move the children into X, then
//	<reference-block name="X">…</…>        detach the directive
//
// A directive is dropped with its children when its target is missing,
// already detached or inside the directive itself. A reference directive is
// also dropped when its target is a text node, which cannot hold children. Drops do not fail
// processing; they are returned by [Processor.Dropped], logged at debug
// level and reported to the observability hooks.
//
// Directives nested in the children of a relocation move with those
// children and are processed afterwards in the same pass. Directives nested
// in a removed subtree are discarded with it.
//
// # Duplicate Names
//
// The index is built in pre-order, so when named nodes nest, directives
// address the inner one. The block registry of the builder is filled
// post-order and keeps the outer block instead, so a directive and a later
// block lookup by the same name can reach different nodes. Names are
// expected to be unique within a merged tree.
package process

import (
	"context"
	"io"
	"maps"

	"github.com/charmbracelet/log"

	"github.com/infinri/layoutc/pkg/errors"
	"github.com/infinri/layoutc/pkg/layout/block"
	"github.com/infinri/layoutc/pkg/layout/doc"
	"github.com/infinri/layoutc/pkg/observability"
)

// Reasons a directive is dropped.
const (
	ReasonMissing  = "missing"  // no node carries the target name
	ReasonDetached = "detached" // the target was removed earlier in the pass
	ReasonInside   = "inside"   // the target lies within the directive
	ReasonNoName   = "no-name"  // the directive has no name attribute
	ReasonLeaf     = "leaf"     // a reference targets a text node
)

// Dropped describes a directive that could not be applied.
type Dropped struct {
	Directive doc.Directive
	Target    string
	Reason    string
	// Children is the number of child nodes lost with the directive.
	Children int
}

// Processor resolves directives in place. A Processor keeps the index and
// drop list of its last run and must not be shared between goroutines.
type Processor struct {
	logger  *log.Logger
	index   map[string]doc.NodeID
	dropped []Dropped
}

// New creates a processor. A nil logger discards output.
func New(logger *log.Logger) *Processor {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Processor{logger: logger}
}

// Process resolves every directive of t and returns t. The tree is mutated:
// directives and removed nodes are detached, relocated children move to
// their targets. Processing a tree without directives leaves it unchanged.
func (p *Processor) Process(ctx context.Context, t *doc.Tree) (*doc.Tree, error) {
	if t == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "nil layout tree")
	}
	p.index = make(map[string]doc.NodeID)
	p.dropped = nil

	var directives []doc.NodeID
	_ = t.Walk(func(id doc.NodeID, _ int) error {
		if doc.DirectiveOf(t.Tag(id)) != doc.NotDirective {
			directives = append(directives, id)
			return nil
		}
		if name := t.Name(id); name != "" {
			p.index[name] = id
		}
		return nil
	})

	for _, id := range directives {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !t.Attached(id) {
			continue
		}
		p.apply(ctx, t, id)
	}

	p.logger.Debug("processed layout", "named", len(p.index), "directives", len(directives), "dropped", len(p.dropped))
	return t, nil
}

func (p *Processor) apply(ctx context.Context, t *doc.Tree, id doc.NodeID) {
	d := doc.DirectiveOf(t.Tag(id))
	defer t.Detach(id)

	switch d {
	case doc.Remove:
		target, reason := p.target(t, id)
		if reason != "" {
			p.drop(ctx, t, id, d, reason)
			return
		}
		t.Detach(target)
	case doc.ReferenceContainer, doc.ReferenceBlock:
		target, reason := p.target(t, id)
		if reason == "" && t.Tag(target) == block.TagText {
			reason = ReasonLeaf
		}
		if reason != "" {
			p.drop(ctx, t, id, d, reason)
			return
		}
		for _, c := range t.Children(id) {
			// target is outside the directive, so c cannot be its ancestor.
			_ = t.Append(target, c)
		}
	case doc.Include:
		p.logger.Debug("ignoring unresolved include", "handle", attr(t, id, doc.HandleAttr))
	}
}

// target looks up the node a directive addresses and reports why it cannot
// be used, if it cannot.
func (p *Processor) target(t *doc.Tree, id doc.NodeID) (doc.NodeID, string) {
	name := t.Name(id)
	if name == "" {
		return doc.None, ReasonNoName
	}
	target, ok := p.index[name]
	switch {
	case !ok:
		return doc.None, ReasonMissing
	case t.IsAncestor(id, target):
		return doc.None, ReasonInside
	case !t.Attached(target):
		return doc.None, ReasonDetached
	}
	return target, ""
}

func (p *Processor) drop(ctx context.Context, t *doc.Tree, id doc.NodeID, d doc.Directive, reason string) {
	dr := Dropped{
		Directive: d,
		Target:    t.Name(id),
		Reason:    reason,
		Children:  len(t.Children(id)),
	}
	p.dropped = append(p.dropped, dr)
	p.logger.Debug("dropped directive", "directive", d, "target", dr.Target, "reason", reason, "lost", dr.Children)
	observability.Layout().OnDirectiveDropped(ctx, d.String(), dr.Target, dr.Children)
}

func attr(t *doc.Tree, id doc.NodeID, key string) string {
	v, _ := t.Attr(id, key)
	return v
}

// NamedElements returns the name index built by the last run. It reflects
// the tree before directives were applied, so it may include removed nodes.
func (p *Processor) NamedElements() map[string]doc.NodeID {
	return maps.Clone(p.index)
}

// Dropped returns the directives the last run could not apply, in document
// order.
func (p *Processor) Dropped() []Dropped {
	return append([]Dropped(nil), p.dropped...)
}
