// Package block builds the typed, renderable tree of a processed layout.
//
// # Variants
//
// [Block] is a closed union of three variants, selected by tag:
//
//	<container>  [*Container]  ordered children, optional wrapping element
//	<block>      [*Template]   ordered children, optional template reference
//	<text>       [*Text]       literal markup, no children
//
// Any other tag, including a directive the processor left behind, fails the
// build with an [*UnsupportedTagError]. Code switching over blocks can rely on
// these three cases being exhaustive.
//
// # Attributes
//
// Containers read htmlTag, htmlClass and htmlId; templates read template;
// text reads its inline text or, when empty, its value attribute. Every
// other attribute except name is copied into the block's [Data] as a string.
//
// # Names
//
// A named block is registered with the [Builder] that built it, so callers
// can render a single subtree or inject data without walking the tree.
package block

import (
	"errors"
	"fmt"
	"maps"

	lerrors "github.com/infinri/layoutc/pkg/errors"
)

// Element tags.
const (
	TagContainer = "container"
	TagBlock     = "block"
	TagText      = "text"
)

// Recognized attributes.
const (
	AttrHTMLTag   = "htmlTag"
	AttrHTMLClass = "htmlClass"
	AttrHTMLID    = "htmlId"
	AttrTemplate  = "template"
	AttrValue     = "value"
)

// Kind identifies a block variant.
type Kind int

const (
	KindContainer Kind = iota
	KindTemplate
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindContainer:
		return TagContainer
	case KindTemplate:
		return TagBlock
	case KindText:
		return TagText
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Data is the free-form attribute bag of a block.
type Data map[string]any

// Block is a node of the built tree. It is implemented only by
// [*Container], [*Template] and [*Text].
type Block interface {
	// Name returns the declared name, or "" for anonymous blocks.
	Name() string

	// Kind returns the variant.
	Kind() Kind

	// Data returns the block's attribute bag. The map is owned by the block
	// and may be modified in place.
	Data() Data

	// Children returns the owned child blocks in order.
	Children() []Block

	sealed()
}

type base struct {
	name string
	data Data
}

func (b *base) Name() string { return b.name }
func (b *base) Data() Data   { return b.data }
func (b *base) sealed()      {}

// Container groups child blocks and optionally wraps their output in an
// element.
type Container struct {
	base
	Tag   string
	Class string
	ID    string
	Items []Block
}

func (c *Container) Kind() Kind        { return KindContainer }
func (c *Container) Children() []Block { return c.Items }

// Template delegates its markup to a template evaluator.
type Template struct {
	base
	Ref   string
	Items []Block
}

func (t *Template) Kind() Kind        { return KindTemplate }
func (t *Template) Children() []Block { return t.Items }

// Text is literal markup.
type Text struct {
	base
	Value string
}

func (t *Text) Kind() Kind        { return KindText }
func (t *Text) Children() []Block { return nil }

// NewContainer creates an anonymous or named container.
func NewContainer(name string, children ...Block) *Container {
	return &Container{base: base{name: name, data: Data{}}, Items: children}
}

// NewTemplate creates a template block rendering ref.
func NewTemplate(name, ref string, children ...Block) *Template {
	return &Template{base: base{name: name, data: Data{}}, Ref: ref, Items: children}
}

// NewText creates a text block.
func NewText(name, value string) *Text {
	return &Text{base: base{name: name, data: Data{}}, Value: value}
}

// Walk visits b and its descendants depth-first in order. A nil block is not
// visited. Walk stops at the first error fn returns.
func Walk(b Block, fn func(b Block, depth int) error) error {
	return walk(b, 0, fn)
}

func walk(b Block, depth int, fn func(Block, int) error) error {
	if b == nil {
		return nil
	}
	if err := fn(b, depth); err != nil {
		return err
	}
	for _, c := range b.Children() {
		if err := walk(c, depth+1, fn); err != nil {
			return err
		}
	}
	return nil
}

// Apply copies data into the bag of b. With override false only keys b does
// not define yet are set.
func Apply(b Block, data map[string]any, override bool) {
	bag := b.Data()
	for k, v := range data {
		if _, ok := bag[k]; ok && !override {
			continue
		}
		bag[k] = v
	}
}

// Snapshot returns a shallow copy of the bag of b.
func Snapshot(b Block) Data {
	return maps.Clone(b.Data())
}

// UnsupportedTagError reports an element the builder has no variant for.
type UnsupportedTagError struct {
	Tag  string
	Name string
}

func (e *UnsupportedTagError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("unsupported tag <%s> (name %q)", e.Tag, e.Name)
	}
	return fmt.Sprintf("unsupported tag <%s>", e.Tag)
}

// Unwrap exposes the UNSUPPORTED_TAG code to [lerrors.Is].
func (e *UnsupportedTagError) Unwrap() error {
	return lerrors.New(lerrors.ErrCodeUnsupportedTag, "%s", e.Tag)
}

// IsUnsupportedTag reports whether err is or wraps an [*UnsupportedTagError].
func IsUnsupportedTag(err error) bool {
	var e *UnsupportedTagError
	return errors.As(err, &e)
}
