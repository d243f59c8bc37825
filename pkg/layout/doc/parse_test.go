package doc

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

const sampleXML = `<?xml version="1.0"?>
<layout>
  <!-- page shell -->
  <container name="root" htmlTag="div" htmlClass="page">
    <container name="body"/>
    <text>Hello</text>
  </container>
  <reference-container name="body">
    <block name="greeting" template="greeting.html" title="Hi"/>
  </reference-container>
</layout>`

const sampleYAML = `
tag: layout
children:
  - tag: container
    attrs: {name: root, htmlTag: div, htmlClass: page}
    children:
      - tag: container
        attrs: {name: body}
      - tag: text
        text: Hello
  - tag: reference-container
    attrs: {name: body}
    children:
      - tag: block
        attrs: {name: greeting, template: greeting.html, title: Hi}
`

func TestParseXML(t *testing.T) {
	tr, err := ParseXML(strings.NewReader(sampleXML))
	if err != nil {
		t.Fatalf("ParseXML: %v", err)
	}
	if tr.Tag(tr.Root()) != RootTag {
		t.Errorf("root tag = %q", tr.Tag(tr.Root()))
	}
	top := tr.Children(tr.Root())
	if len(top) != 2 {
		t.Fatalf("top-level children = %d, want 2", len(top))
	}
	root := top[0]
	if v, _ := tr.Attr(root, "htmlClass"); v != "page" {
		t.Errorf("htmlClass = %q, want page", v)
	}
	kids := tr.Children(root)
	if len(kids) != 2 || tr.Text(kids[1]) != "Hello" {
		t.Errorf("root children unexpected: %d, text %q", len(kids), tr.Text(kids[len(kids)-1]))
	}
	if tr.Text(root) != "" {
		t.Errorf("whitespace should not become text, got %q", tr.Text(root))
	}
}

func TestParseXMLText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"trimmed", "<text>\n   Hello  \n</text>", "Hello"},
		{"cdata mixed with text", "<text>Price: <![CDATA[<b>9</b>]]> only</text>", "Price: <b>9</b> only"},
		{"entities", "<text>a &amp; b</text>", "a & b"},
		{"inner whitespace kept", "<text>one  two</text>", "one  two"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := ParseXML(strings.NewReader("<layout>" + tt.in + "</layout>"))
			if err != nil {
				t.Fatalf("ParseXML: %v", err)
			}
			if got := tr.Text(tr.Children(tr.Root())[0]); got != tt.want {
				t.Errorf("text = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseXMLErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"Empty", ""},
		{"Unclosed", "<layout><container>"},
		{"TwoRoots", "<layout/><layout/>"},
		{"Mismatched", "<layout></container>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseXML(strings.NewReader(tt.input)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParseYAMLMatchesXML(t *testing.T) {
	fromXML, err := ParseXML(strings.NewReader(sampleXML))
	if err != nil {
		t.Fatalf("ParseXML: %v", err)
	}
	fromYAML, err := ParseYAML(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatalf("ParseYAML: %v", err)
	}
	if !Equal(fromXML, fromYAML) {
		t.Error("YAML and XML forms of the same layout should produce equal trees")
	}
}

func TestParseYAMLList(t *testing.T) {
	tr, err := ParseYAML(strings.NewReader("- tag: remove\n  attrs: {name: footer}\n"))
	if err != nil {
		t.Fatalf("ParseYAML: %v", err)
	}
	if tr.Tag(tr.Root()) != RootTag {
		t.Errorf("implicit root tag = %q, want %q", tr.Tag(tr.Root()), RootTag)
	}
	if kids := tr.Children(tr.Root()); len(kids) != 1 || tr.Name(kids[0]) != "footer" {
		t.Errorf("unexpected children %v", kids)
	}
}

func TestParseYAMLErrors(t *testing.T) {
	for _, input := range []string{"", "just a string", "- attrs: {name: x}\n", "tag: [1"} {
		if _, err := ParseYAML(strings.NewReader(input)); err == nil {
			t.Errorf("ParseYAML(%q) should fail", input)
		}
	}
}

func TestParseDispatch(t *testing.T) {
	if _, err := Parse("default.xml", strings.NewReader("<layout/>")); err != nil {
		t.Errorf("xml: %v", err)
	}
	if _, err := Parse("default.YML", strings.NewReader("tag: layout")); err != nil {
		t.Errorf("yml: %v", err)
	}
	if _, err := Parse("default.json", strings.NewReader("{}")); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("json error = %v, want ErrUnknownFormat", err)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	tr, err := ParseXML(strings.NewReader(sampleXML))
	if err != nil {
		t.Fatalf("ParseXML: %v", err)
	}
	data, err := json.Marshal(tr)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded Tree
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !Equal(tr, &decoded) {
		t.Error("decoded tree differs from original")
	}
}

func TestWriteXMLReparses(t *testing.T) {
	tr, err := ParseXML(strings.NewReader(sampleXML))
	if err != nil {
		t.Fatalf("ParseXML: %v", err)
	}
	var buf bytes.Buffer
	if err := WriteXML(&buf, tr); err != nil {
		t.Fatalf("WriteXML: %v", err)
	}
	again, err := ParseXML(&buf)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if !Equal(tr, again) {
		t.Error("WriteXML output should parse back to an equal tree")
	}
}
