// Package render serializes a block tree to markup.
//
// Rendering is a pure function of the tree: text renders verbatim,
// containers concatenate their children and optionally wrap them in an
// element, and template blocks hand their data and rendered children to an
// [Evaluator]. No escaping is applied here; text producers and templates are
// responsible for their own encoding.
package render

import (
	"context"
	"fmt"
	"strings"

	"github.com/infinri/layoutc/pkg/errors"
	"github.com/infinri/layoutc/pkg/layout/block"
)

// Keys the renderer adds to template data.
const (
	// KeyChildren holds the concatenated markup of the block's children.
	KeyChildren = "children"
	// KeyChild maps each named child to its markup.
	KeyChild = "child"
	// KeyName holds the block's name.
	KeyName = "name"
)

// Evaluator renders a template reference with a data bag.
type Evaluator interface {
	Evaluate(ctx context.Context, ref string, data map[string]any) (string, error)
}

// EvaluatorFunc adapts a function to [Evaluator].
type EvaluatorFunc func(ctx context.Context, ref string, data map[string]any) (string, error)

// Evaluate calls f.
func (f EvaluatorFunc) Evaluate(ctx context.Context, ref string, data map[string]any) (string, error) {
	return f(ctx, ref, data)
}

// Lookup finds a named block. [*block.Builder] implements it.
type Lookup interface {
	Block(name string) (block.Block, bool)
}

// Renderer turns blocks into markup. It holds no per-render state and is
// safe for concurrent use if its evaluator is.
type Renderer struct {
	eval Evaluator
}

// New creates a renderer. With a nil evaluator, template blocks that
// reference a template fail with TEMPLATE_NOT_FOUND.
func New(eval Evaluator) *Renderer {
	return &Renderer{eval: eval}
}

// Render renders b and its descendants. A nil block renders to "".
func (r *Renderer) Render(ctx context.Context, b block.Block) (string, error) {
	if b == nil {
		return "", nil
	}
	var sb strings.Builder
	if err := r.render(ctx, &sb, b); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// RenderBlock renders the block registered under name, or "" when no block
// has that name.
func (r *Renderer) RenderBlock(ctx context.Context, l Lookup, name string) (string, error) {
	b, ok := l.Block(name)
	if !ok {
		return "", nil
	}
	return r.Render(ctx, b)
}

func (r *Renderer) render(ctx context.Context, sb *strings.Builder, b block.Block) error {
	switch b := b.(type) {
	case *block.Text:
		sb.WriteString(b.Value)
	case *block.Container:
		if b.Tag == "" {
			return r.renderChildren(ctx, sb, b.Items)
		}
		sb.WriteString(openTag(b.Tag, b.ID, b.Class))
		if err := r.renderChildren(ctx, sb, b.Items); err != nil {
			return err
		}
		fmt.Fprintf(sb, "</%s>", b.Tag)
	case *block.Template:
		if b.Ref == "" {
			return r.renderChildren(ctx, sb, b.Items)
		}
		out, err := r.renderTemplate(ctx, b)
		if err != nil {
			return err
		}
		sb.WriteString(out)
	default:
		return errors.New(errors.ErrCodeInternal, "unknown block type %T", b)
	}
	return nil
}

func (r *Renderer) renderChildren(ctx context.Context, sb *strings.Builder, items []block.Block) error {
	for _, c := range items {
		if err := r.render(ctx, sb, c); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) renderTemplate(ctx context.Context, b *block.Template) (string, error) {
	if r.eval == nil {
		return "", errors.New(errors.ErrCodeTemplateNotFound, "block %q: no template evaluator for %s", b.Name(), b.Ref)
	}

	var all strings.Builder
	named := make(map[string]string)
	for _, c := range b.Items {
		var sb strings.Builder
		if err := r.render(ctx, &sb, c); err != nil {
			return "", err
		}
		all.WriteString(sb.String())
		if c.Name() != "" {
			named[c.Name()] = sb.String()
		}
	}

	data := map[string]any(block.Snapshot(b))
	if data == nil {
		data = make(map[string]any)
	}
	data[KeyChildren] = all.String()
	data[KeyChild] = named
	data[KeyName] = b.Name()

	out, err := r.eval.Evaluate(ctx, b.Ref, data)
	if err != nil {
		return "", fmt.Errorf("render block %q: %w", b.Name(), err)
	}
	return out, nil
}

func openTag(tag, id, class string) string {
	var sb strings.Builder
	sb.WriteString("<")
	sb.WriteString(tag)
	if id != "" {
		fmt.Fprintf(&sb, ` id="%s"`, id)
	}
	if class != "" {
		fmt.Fprintf(&sb, ` class="%s"`, class)
	}
	sb.WriteString(">")
	return sb.String()
}
