package cli

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/infinri/layoutc/pkg/layout/block"
)

func testBlocks() map[string]block.Block {
	content := block.NewTemplate("content", "page.html")
	wrap := block.NewContainer("main", content)
	wrap.Tag = "main"
	return map[string]block.Block{
		"main":    wrap,
		"content": content,
		"footer":  block.NewText("footer", "© 2026   all rights"),
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m tea.Model, keys ...string) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		m, cmd = m.Update(key(k))
	}
	return m, cmd
}

func TestBlockListSorted(t *testing.T) {
	m := NewBlockListModel(testBlocks(), nil)
	want := []string{"content", "footer", "main"}
	for i, name := range want {
		if m.Names[i] != name {
			t.Fatalf("Names = %v, want %v", m.Names, want)
		}
	}
}

func TestBlockListNavigation(t *testing.T) {
	var m tea.Model = NewBlockListModel(testBlocks(), nil)

	m, _ = press(m, "down", "down", "down")
	if got := m.(BlockListModel).Cursor; got != 2 {
		t.Errorf("cursor past end = %d, want 2", got)
	}
	m, _ = press(m, "up", "k", "k")
	if got := m.(BlockListModel).Cursor; got != 0 {
		t.Errorf("cursor past start = %d, want 0", got)
	}
	m, _ = press(m, "j")
	if got := m.(BlockListModel).Cursor; got != 1 {
		t.Errorf("cursor after j = %d, want 1", got)
	}
}

func TestBlockListScrolls(t *testing.T) {
	blocks := make(map[string]block.Block)
	for _, n := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		blocks[n] = block.NewText(n, n)
	}
	var m tea.Model = NewBlockListModel(blocks, nil)
	m, _ = m.Update(tea.WindowSizeMsg{Height: 1})
	if h := m.(BlockListModel).Height; h != 5 {
		t.Fatalf("minimum height = %d, want 5", h)
	}
	m, _ = press(m, "down", "down", "down", "down", "down", "down")
	bl := m.(BlockListModel)
	if bl.Cursor != 6 || bl.Offset != 2 {
		t.Errorf("cursor/offset = %d/%d, want 6/2", bl.Cursor, bl.Offset)
	}
}

func TestBlockListPreview(t *testing.T) {
	var rendered []string
	render := func(name string) (string, error) {
		rendered = append(rendered, name)
		if name == "footer" {
			return "", errors.New("template missing")
		}
		return "<" + name + ">", nil
	}
	var m tea.Model = NewBlockListModel(testBlocks(), render)

	m, _ = press(m, "enter")
	bl := m.(BlockListModel)
	if bl.Preview != "<content>" || bl.Err != nil {
		t.Errorf("preview = %q, err = %v", bl.Preview, bl.Err)
	}
	if !strings.Contains(bl.View(), "<content>") {
		t.Error("view should show the preview")
	}

	m, _ = press(m, "down", "enter")
	bl = m.(BlockListModel)
	if bl.Err == nil || !strings.Contains(bl.View(), "template missing") {
		t.Error("render error should be shown")
	}

	m, cmd := press(m, "esc")
	if cmd != nil {
		t.Error("esc with a preview open should not quit")
	}
	if bl = m.(BlockListModel); bl.Preview != "" || bl.Err != nil {
		t.Error("esc should close the preview")
	}
	if _, cmd = press(m, "esc"); cmd == nil {
		t.Error("esc without a preview should quit")
	}
	if len(rendered) != 2 {
		t.Errorf("rendered %v", rendered)
	}
}

func TestBlockListQuit(t *testing.T) {
	m := NewBlockListModel(testBlocks(), nil)
	if _, cmd := press(m, "q"); cmd == nil {
		t.Error("q should quit")
	}
}

func TestBlockListView(t *testing.T) {
	view := NewBlockListModel(testBlocks(), nil).View()
	for _, want := range []string{"Named Blocks", "content", "page.html", "<main>", "[1/3]"} {
		if !strings.Contains(view, want) {
			t.Errorf("view lacks %q", want)
		}
	}

	empty := NewBlockListModel(nil, nil).View()
	if !strings.Contains(empty, "no named blocks") {
		t.Error("empty view should say so")
	}
}

func TestDescribeBlock(t *testing.T) {
	tests := []struct {
		b    block.Block
		want string
	}{
		{block.NewContainer("c"), "—"},
		{block.NewTemplate("t", "page.html"), "page.html"},
		{block.NewTemplate("t", ""), "—"},
		{block.NewText("x", "hello\n   world"), "hello world"},
		{block.NewText("x", strings.Repeat("a", 40)), strings.Repeat("a", 23) + "…"},
	}
	for _, tt := range tests {
		if got := describeBlock(tt.b); got != tt.want {
			t.Errorf("describeBlock(%s) = %q, want %q", tt.b.Name(), got, tt.want)
		}
	}
}

func TestTruncateLines(t *testing.T) {
	if got := truncateLines("a\nb\n", 5); got != "a\nb" {
		t.Errorf("short = %q", got)
	}
	got := truncateLines(strings.Repeat("x\n", 20), 3)
	if !strings.HasPrefix(got, "x\nx\nx\n") || !strings.Contains(got, "17 more lines") {
		t.Errorf("long = %q", got)
	}
}
