package doc

// Directive identifies a structural instruction node.
type Directive int

const (
	// NotDirective marks a renderable element.
	NotDirective Directive = iota
	// Remove deletes the node named by its name attribute.
	Remove
	// ReferenceContainer moves its children into the named container.
	ReferenceContainer
	// ReferenceBlock moves its children into the named block.
	ReferenceBlock
	// Include pulls in the documents of the handle named by its handle
	// attribute. It is consumed by handle resolution.
	Include
)

// Directive tags.
const (
	TagRemove             = "remove"
	TagReferenceContainer = "reference-container"
	TagReferenceBlock     = "reference-block"
	TagInclude            = "include"
	TagUpdate             = "update" // alias of include
)

// HandleAttr is the target-handle attribute of include directives.
const HandleAttr = "handle"

// DirectiveOf classifies a tag.
func DirectiveOf(tag string) Directive {
	switch tag {
	case TagRemove:
		return Remove
	case TagReferenceContainer:
		return ReferenceContainer
	case TagReferenceBlock:
		return ReferenceBlock
	case TagInclude, TagUpdate:
		return Include
	default:
		return NotDirective
	}
}

// IsReference reports whether d relocates children into a named target.
func (d Directive) IsReference() bool {
	return d == ReferenceContainer || d == ReferenceBlock
}

func (d Directive) String() string {
	switch d {
	case Remove:
		return TagRemove
	case ReferenceContainer:
		return TagReferenceContainer
	case ReferenceBlock:
		return TagReferenceBlock
	case Include:
		return TagInclude
	default:
		return "element"
	}
}
