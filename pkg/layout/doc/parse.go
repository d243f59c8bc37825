package doc

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrEmptyDocument is returned when a source holds no root element.
	ErrEmptyDocument = errors.New("document has no root element")

	// ErrUnknownFormat is returned by [Parse] for unsupported extensions.
	ErrUnknownFormat = errors.New("unknown document format")
)

// Extensions lists the file extensions [Parse] understands.
var Extensions = []string{".xml", ".yaml", ".yml"}

// Parse reads a document, choosing the parser from the extension of name.
func Parse(name string, r io.Reader) (*Tree, error) {
	switch strings.ToLower(path.Ext(name)) {
	case ".xml":
		return ParseXML(r)
	case ".yaml", ".yml":
		return ParseYAML(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, name)
	}
}

// ParseXML reads an XML layout document. The document element becomes the
// root of the tree; non-blank character data becomes node text.
func ParseXML(r io.Reader) (*Tree, error) {
	dec := xml.NewDecoder(r)
	var (
		t     *Tree
		stack []NodeID
		text  []string
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse xml: %w", err)
		}
		switch tok := tok.(type) {
		case xml.StartElement:
			var id NodeID
			switch {
			case t == nil:
				t = New(tok.Name.Local)
				id = t.Root()
			case len(stack) == 0:
				return nil, fmt.Errorf("parse xml: unexpected second root element <%s>", tok.Name.Local)
			default:
				id = t.NewNode(tok.Name.Local)
				_ = t.Append(stack[len(stack)-1], id)
			}
			for _, a := range tok.Attr {
				t.SetAttr(id, a.Name.Local, a.Value)
			}
			stack = append(stack, id)
			text = append(text, "")
		case xml.EndElement:
			top := len(stack) - 1
			if s := strings.TrimSpace(text[top]); s != "" {
				t.SetText(stack[top], s)
			}
			stack, text = stack[:top], text[:top]
		case xml.CharData:
			// Text and CDATA sections accumulate raw and are trimmed once
			// at the end of the element.
			if len(stack) > 0 {
				text[len(text)-1] += string(tok)
			}
		}
	}
	if t == nil {
		return nil, ErrEmptyDocument
	}
	return t, nil
}

// wireNode is the nested form shared by the YAML source format and the JSON
// cache encoding.
type wireNode struct {
	Tag      string            `yaml:"tag" json:"tag"`
	Attrs    map[string]string `yaml:"attrs,omitempty" json:"attrs,omitempty"`
	Text     string            `yaml:"text,omitempty" json:"text,omitempty"`
	Children []wireNode        `yaml:"children,omitempty" json:"children,omitempty"`
}

// ParseYAML reads a YAML layout document. The document is either a single
// node mapping ({tag, attrs, text, children}) or a sequence of nodes, which
// become the children of an implicit [RootTag] root.
func ParseYAML(r io.Reader) (*Tree, error) {
	var root yaml.Node
	if err := yaml.NewDecoder(r).Decode(&root); err != nil {
		if err == io.EOF {
			return nil, ErrEmptyDocument
		}
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, ErrEmptyDocument
	}

	var w wireNode
	switch body := root.Content[0]; body.Kind {
	case yaml.SequenceNode:
		w.Tag = RootTag
		if err := body.Decode(&w.Children); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	case yaml.MappingNode:
		if err := body.Decode(&w); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("parse yaml: document must be a node or a list of nodes")
	}
	return fromWire(w)
}

func fromWire(w wireNode) (*Tree, error) {
	if w.Tag == "" {
		return nil, fmt.Errorf("node without tag")
	}
	t := New(w.Tag)
	if err := t.fillWire(t.Root(), w); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Tree) fillWire(id NodeID, w wireNode) error {
	keys := make([]string, 0, len(w.Attrs))
	for k := range w.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		t.SetAttr(id, k, w.Attrs[k])
	}
	t.SetText(id, w.Text)
	for _, cw := range w.Children {
		if cw.Tag == "" {
			return fmt.Errorf("node without tag under <%s>", w.Tag)
		}
		c := t.NewNode(cw.Tag)
		_ = t.Append(id, c)
		if err := t.fillWire(c, cw); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tree) toWire(id NodeID) wireNode {
	n := t.nodes[id]
	w := wireNode{Tag: n.tag, Text: n.text}
	if len(n.attrs) > 0 {
		w.Attrs = make(map[string]string, len(n.attrs))
		for _, a := range n.attrs {
			w.Attrs[a.Key] = a.Value
		}
	}
	for _, c := range n.children {
		w.Children = append(w.Children, t.toWire(c))
	}
	return w
}
