package nodelink

import (
	"strings"
	"testing"

	"github.com/infinri/layoutc/pkg/layout/block"
)

func sampleTree() block.Block {
	body := block.NewContainer("body", block.NewText("", "Hi"))
	body.Tag = "main"
	hdr := block.NewTemplate("header", "header.html")
	hdr.Data()["title"] = "Shop"
	return block.NewContainer("root", hdr, body)
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(sampleTree(), Options{})

	for _, want := range []string{
		`b0 [label="container root"]`,
		`b1 [label="block header", shape=note`,
		`b2 [label="container body"]`,
		`b3 [label="text", shape=plaintext`,
		"b0 -> b1;",
		"b0 -> b2;",
		"b2 -> b3;",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "b1 -> b2") {
		t.Error("siblings should not be linked")
	}
}

func TestToDOTDetailed(t *testing.T) {
	dot := ToDOT(sampleTree(), Options{Detailed: true})
	for _, want := range []string{`template: header.html\ntitle: Shop`, `container body\n<main>`, `text\nHi`} {
		if !strings.Contains(dot, want) {
			t.Errorf("detailed DOT missing %q:\n%s", want, dot)
		}
	}
}

func TestToDOTEmpty(t *testing.T) {
	dot := ToDOT(nil, Options{})
	if strings.Contains(dot, "label=") || !strings.HasSuffix(dot, "}\n") {
		t.Errorf("empty tree DOT = %s", dot)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" height="20pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := string(normalizeViewBox(in))
	if !strings.HasPrefix(out, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.00 50.00" width="100" height="50">`) {
		t.Errorf("normalizeViewBox = %s", out)
	}
	if got := normalizeViewBox([]byte("<svg/>")); string(got) != "<svg/>" {
		t.Errorf("no viewBox should pass through, got %s", got)
	}
}
