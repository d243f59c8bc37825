package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeProject lays out a two-module project and returns its config path.
func writeProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"layoutc.toml": `
log_level = "warn"

[[modules]]
name = "core"
path = "modules/core"

[[modules]]
name = "cms"
path = "modules/cms"

[cache]
backend = "none"
`,
		"modules/core/layout/default.xml": `<layout>
  <container name="root" htmlTag="div" htmlClass="page">
    <container name="main" htmlTag="main"/>
  </container>
</layout>`,
		"modules/cms/layout/cms_page.xml": `<layout>
  <include handle="default"/>
  <reference-container name="main">
    <block name="content" template="page.html"/>
  </reference-container>
  <remove name="sidebar"/>
</layout>`,
		"modules/cms/templates/page.html": `<h1>{{ .title }}</h1>`,
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return filepath.Join(dir, "layoutc.toml")
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func TestParseData(t *testing.T) {
	tests := []struct {
		name    string
		pairs   []string
		want    map[string]any
		wantErr bool
	}{
		{"none", nil, nil, false},
		{"single", []string{"title=Home"}, map[string]any{"title": "Home"}, false},
		{"value with equals", []string{"q=a=b"}, map[string]any{"q": "a=b"}, false},
		{"empty value", []string{"flag="}, map[string]any{"flag": ""}, false},
		{"later wins", []string{"a=1", "a=2"}, map[string]any{"a": "2"}, false},
		{"missing equals", []string{"title"}, nil, true},
		{"empty key", []string{"=x"}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseData(tt.pairs)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadConfigLogLevel(t *testing.T) {
	path := writeProject(t)

	c := New(io.Discard, LogInfo)
	c.configPath = path
	_, err := c.loadConfig()
	require.NoError(t, err)
	assert.Equal(t, log.WarnLevel, c.Logger.GetLevel(), "config level applies")

	c = New(io.Discard, LogDebug)
	c.configPath = path
	_, err = c.loadConfig()
	require.NoError(t, err)
	assert.Equal(t, log.DebugLevel, c.Logger.GetLevel(), "verbose wins over config")
}

func TestLoadConfigMissing(t *testing.T) {
	t.Chdir(t.TempDir())
	c := New(io.Discard, LogInfo)
	_, err := c.loadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "layoutc.toml")
}

func TestRenderCommand(t *testing.T) {
	path := writeProject(t)
	out := filepath.Join(t.TempDir(), "page.html")

	err := execute(t, "--config", path, "render", "cms_page", "--set", "title=Home", "-o", out)
	require.NoError(t, err)

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, `<div class="page"><main><h1>Home</h1></main></div>`, string(got))
}

func TestRenderCommandBlock(t *testing.T) {
	path := writeProject(t)
	out := filepath.Join(t.TempDir(), "content.html")

	err := execute(t, "-c", path, "--no-cache", "render", "cms_page", "-b", "content", "-s", "title=Only", "-o", out)
	require.NoError(t, err)

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "<h1>Only</h1>", string(got))
}

func TestRenderCommandErrors(t *testing.T) {
	path := writeProject(t)
	assert.Error(t, execute(t, "--config", path, "render"), "needs a handle")
	assert.Error(t, execute(t, "--config", path, "render", "cms_page", "--set", "oops"))
	assert.Error(t, execute(t, "--config", path, "render", "../etc/passwd"))
}

func TestTreeCommand(t *testing.T) {
	path := writeProject(t)
	dir := t.TempDir()

	merged := filepath.Join(dir, "merged.xml")
	require.NoError(t, execute(t, "--config", path, "tree", "cms_page", "--stage", "merged", "-o", merged))
	data, err := os.ReadFile(merged)
	require.NoError(t, err)
	assert.Contains(t, string(data), "reference-container")

	processed := filepath.Join(dir, "processed.json")
	require.NoError(t, execute(t, "--config", path, "tree", "cms_page", "--format", "json", "-o", processed))
	data, err = os.ReadFile(processed)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "reference-container")
	assert.Contains(t, string(data), `"content"`)

	dot := filepath.Join(dir, "blocks.dot")
	require.NoError(t, execute(t, "--config", path, "tree", "cms_page", "--stage", "blocks", "-o", dot))
	data, err = os.ReadFile(dot)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "digraph"))
}

func TestTreeCommandValidation(t *testing.T) {
	path := writeProject(t)
	assert.Error(t, execute(t, "--config", path, "tree", "cms_page", "--stage", "rendered"))
	assert.Error(t, execute(t, "--config", path, "tree", "cms_page", "--stage", "merged", "--format", "svg"))
}

func TestDefaultFormat(t *testing.T) {
	assert.Equal(t, "xml", defaultFormat("merged"))
	assert.Equal(t, "xml", defaultFormat("processed"))
	assert.Equal(t, "dot", defaultFormat("blocks"))
}

func TestHandlesTable(t *testing.T) {
	out := handlesTable([][]string{{"cms_page", "cms"}, {"default", "core, cms"}})
	for _, want := range []string{"Handle", "Modules", "cms_page", "core, cms"} {
		assert.Contains(t, out, want)
	}
}
