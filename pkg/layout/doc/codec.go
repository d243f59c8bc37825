package doc

import (
	"encoding/json"
	"encoding/xml"
	"io"
	"sort"
)

// MarshalJSON encodes the attached part of the tree as nested nodes.
func (t *Tree) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.toWire(t.root))
}

// UnmarshalJSON decodes a tree written by [Tree.MarshalJSON].
func (t *Tree) UnmarshalJSON(data []byte) error {
	var w wireNode
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	decoded, err := fromWire(w)
	if err != nil {
		return err
	}
	*t = *decoded
	return nil
}

// WriteXML writes the attached part of the tree as indented XML. Attributes
// are written in key order so output is stable.
func WriteXML(w io.Writer, t *Tree) error {
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := writeNode(enc, t, t.root); err != nil {
		return err
	}
	if err := enc.Flush(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func writeNode(enc *xml.Encoder, t *Tree, id NodeID) error {
	attrs := t.Attrs(id)
	sort.Slice(attrs, func(i, j int) bool { return attrs[i].Key < attrs[j].Key })

	start := xml.StartElement{Name: xml.Name{Local: t.Tag(id)}}
	for _, a := range attrs {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: a.Key}, Value: a.Value})
	}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	if text := t.Text(id); text != "" {
		if err := enc.EncodeToken(xml.CharData(text)); err != nil {
			return err
		}
	}
	for _, c := range t.Children(id) {
		if err := writeNode(enc, t, c); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}
