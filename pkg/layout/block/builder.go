package block

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/infinri/layoutc/pkg/layout/doc"
	"github.com/infinri/layoutc/pkg/observability"
)

// Builder turns a processed document tree into blocks and keeps the name
// registry of the last build. A Builder is not safe for concurrent use.
type Builder struct {
	logger *log.Logger
	named  map[string]Block
}

// NewBuilder creates a builder. A nil logger discards output.
func NewBuilder(logger *log.Logger) *Builder {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Builder{logger: logger, named: make(map[string]Block)}
}

// Build builds the first top-level element of t and returns its block. A
// nil tree or one without top-level elements yields a nil block and no error. Further
// top-level elements are ignored.
//
// Named blocks are registered after their children, so on duplicate names
// the block finished last wins.
func (b *Builder) Build(ctx context.Context, t *doc.Tree) (root Block, err error) {
	start := time.Now()
	b.named = make(map[string]Block)
	defer func() {
		observability.Layout().OnBuild(ctx, len(b.named), time.Since(start), err)
	}()

	var top []doc.NodeID
	if t != nil {
		top = t.Children(t.Root())
	}
	if len(top) == 0 {
		b.logger.Debug("nothing to build")
		return nil, nil
	}
	if len(top) > 1 {
		b.logger.Debug("ignoring extra top-level elements", "count", len(top)-1)
	}

	root, err = b.build(t, top[0])
	if err != nil {
		b.named = make(map[string]Block)
		return nil, fmt.Errorf("build: %w", err)
	}
	return root, nil
}

func (b *Builder) build(t *doc.Tree, id doc.NodeID) (Block, error) {
	name := t.Name(id)
	tag := t.Tag(id)

	var blk Block
	switch tag {
	case TagContainer:
		c := NewContainer(name)
		c.data = attrData(t, id, AttrHTMLTag, AttrHTMLClass, AttrHTMLID)
		c.Tag, _ = t.Attr(id, AttrHTMLTag)
		c.Class, _ = t.Attr(id, AttrHTMLClass)
		c.ID, _ = t.Attr(id, AttrHTMLID)
		items, err := b.children(t, id)
		if err != nil {
			return nil, err
		}
		c.Items = items
		blk = c
	case TagBlock:
		tpl := NewTemplate(name, "")
		tpl.data = attrData(t, id, AttrTemplate)
		tpl.Ref, _ = t.Attr(id, AttrTemplate)
		items, err := b.children(t, id)
		if err != nil {
			return nil, err
		}
		tpl.Items = items
		blk = tpl
	case TagText:
		value := t.Text(id)
		if value == "" {
			value, _ = t.Attr(id, AttrValue)
		}
		txt := NewText(name, value)
		txt.data = attrData(t, id, AttrValue)
		blk = txt
	default:
		return nil, &UnsupportedTagError{Tag: tag, Name: name}
	}

	if name != "" {
		if _, dup := b.named[name]; dup {
			b.logger.Debug("duplicate block name", "name", name)
		}
		b.named[name] = blk
	}
	return blk, nil
}

func (b *Builder) children(t *doc.Tree, id doc.NodeID) ([]Block, error) {
	ids := t.Children(id)
	if len(ids) == 0 {
		return nil, nil
	}
	items := make([]Block, 0, len(ids))
	for _, c := range ids {
		child, err := b.build(t, c)
		if err != nil {
			return nil, err
		}
		items = append(items, child)
	}
	return items, nil
}

// attrData copies the attributes of id except name and skip into a bag.
func attrData(t *doc.Tree, id doc.NodeID, skip ...string) Data {
	data := Data{}
	for _, a := range t.Attrs(id) {
		if a.Key == doc.NameAttr || slices.Contains(skip, a.Key) {
			continue
		}
		data[a.Key] = a.Value
	}
	return data
}

// Block returns the block registered under name by the last build.
func (b *Builder) Block(name string) (Block, bool) {
	blk, ok := b.named[name]
	return blk, ok
}

// Blocks returns a copy of the name registry of the last build.
func (b *Builder) Blocks() map[string]Block {
	return maps.Clone(b.named)
}
