package pipeline

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/log"

	"github.com/infinri/layoutc/pkg/cache"
	"github.com/infinri/layoutc/pkg/layout/render"
	"github.com/infinri/layoutc/pkg/layout/source"
)

func newRunner(t *testing.T, c cache.Cache, modules ...source.Module) *Runner {
	t.Helper()
	eval := render.EvaluatorFunc(func(_ context.Context, ref string, data map[string]any) (string, error) {
		if ref == "fail.html" {
			return "", fmt.Errorf("template exploded")
		}
		keys := make([]string, 0, len(data))
		for k := range data {
			if k == render.KeyChild || k == render.KeyChildren {
				continue
			}
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s=%v", k, data[k])
		}
		return "[" + ref + " " + strings.Join(parts, " ") + "]", nil
	})
	loader := source.NewLoader(source.NewRegistry(modules...), nil)
	return NewRunner(loader, render.New(eval), c, nil, log.NewWithOptions(io.Discard, log.Options{}))
}

func module(name string, docs map[string]string) source.Module {
	fsys := fstest.MapFS{}
	for handle, content := range docs {
		fsys["layout/"+handle+".xml"] = &fstest.MapFile{Data: []byte(content)}
	}
	return source.Module{Name: name, FS: fsys}
}

func TestExecuteRoundTrip(t *testing.T) {
	r := newRunner(t, nil,
		module("A", map[string]string{"default": `<layout><container name="root"><container name="body"/></container></layout>`}),
		module("B", map[string]string{"default": `<layout><reference-container name="body"><text>Hi</text></reference-container></layout>`}),
	)
	result, err := r.Execute(context.Background(), Options{Handles: []string{"default"}})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Markup != "Hi" {
		t.Errorf("Markup = %q, want Hi", result.Markup)
	}

	comp := result.Composition
	body, ok := comp.Block("body")
	if !ok || len(body.Children()) != 1 {
		t.Fatalf("body block = %v", body)
	}
	if root, _ := comp.Block("root"); root != comp.Root || root.Children()[0] != body {
		t.Error("root should contain body")
	}
	if result.Stats.Documents != 2 || result.Stats.Dropped != 0 {
		t.Errorf("stats = %+v", result.Stats)
	}
}

func TestExecuteWrappedStructure(t *testing.T) {
	r := newRunner(t, nil,
		module("A", map[string]string{
			"default": `<layout><container name="root" htmlTag="div" htmlClass="root"><container name="body" htmlTag="main" htmlId="body"/></container></layout>`,
		}),
		module("B", map[string]string{
			"default":  `<layout><reference-container name="body"><text>Hi</text></reference-container></layout>`,
			"cms_page": `<layout><include handle="default"/><reference-block name="body"><block name="content" template="page.html"/></reference-block></layout>`,
		}),
	)
	result, err := r.Execute(context.Background(), Options{
		Handles: []string{"cms_page"},
		Data:    map[string]any{"title": "Home"},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	page, err := goquery.NewDocumentFromReader(strings.NewReader(result.Markup))
	if err != nil {
		t.Fatalf("goquery: %v", err)
	}
	main := page.Find("div.root > main#body")
	if main.Length() != 1 {
		t.Fatalf("markup %q lacks div.root > main#body", result.Markup)
	}
	if got := main.Text(); got != "Hi[page.html name=content title=Home]" {
		t.Errorf("main text = %q", got)
	}
	if got := result.Composition.Handles; len(got) != 2 || got[0] != "default" {
		t.Errorf("handles = %v, want default first", got)
	}
}

func TestExecuteEmptyHandle(t *testing.T) {
	r := newRunner(t, nil, module("A", map[string]string{"default": `<layout/>`}))
	result, err := r.Execute(context.Background(), Options{Handles: []string{"nonexistent-handle"}})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	comp := result.Composition
	if n := len(comp.Merged.Children(comp.Merged.Root())); n != 0 {
		t.Errorf("merged root has %d children", n)
	}
	if comp.Root != nil || result.Markup != "" {
		t.Errorf("empty handle rendered %q", result.Markup)
	}
}

func TestExecuteBlockOption(t *testing.T) {
	r := newRunner(t, nil, module("A", map[string]string{
		"default": `<layout><container name="root" htmlTag="div"><container name="nav" htmlTag="nav"><text>menu</text></container><text>x</text></container></layout>`,
	}))
	ctx := context.Background()

	result, err := r.Execute(ctx, Options{Handles: []string{"default"}, Block: "nav"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Markup != "<nav>menu</nav>" {
		t.Errorf("Markup = %q", result.Markup)
	}

	result, err = r.Execute(ctx, Options{Handles: []string{"default"}, Block: "missing"})
	if err != nil || result.Markup != "" {
		t.Errorf("unknown block = %q, %v", result.Markup, err)
	}
}

func TestLateBoundData(t *testing.T) {
	r := newRunner(t, nil, module("A", map[string]string{
		"default": `<layout><container name="root">` +
			`<block name="header" template="h.html" title="Own"/>` +
			`<block name="content" template="c.html" title="Own"/>` +
			`</container></layout>`,
	}))
	result, err := r.Execute(context.Background(), Options{
		Handles: []string{"default"},
		Data:    map[string]any{"title": "Ctx", "lang": "en"},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	want := "[h.html lang=en name=header title=Own][c.html lang=en name=content title=Ctx]"
	if result.Markup != want {
		t.Errorf("Markup = %q, want %q", result.Markup, want)
	}
}

func TestMergeCache(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := newRunner(t, fc, module("A", map[string]string{"default": `<layout><container><text>cached</text></container></layout>`}))
	ctx := context.Background()
	opts := Options{Handles: []string{"default"}}

	first, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	second, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if first.CacheInfo.MergeHit || !second.CacheInfo.MergeHit {
		t.Errorf("hits = %v, %v; want miss then hit", first.CacheInfo.MergeHit, second.CacheInfo.MergeHit)
	}
	if first.Markup != second.Markup || second.Markup != "cached" {
		t.Errorf("markup changed across cache: %q vs %q", first.Markup, second.Markup)
	}

	opts.Refresh = true
	third, _ := r.Execute(ctx, opts)
	if third.CacheInfo.MergeHit {
		t.Error("refresh should bypass the cache")
	}
}

func TestMergeCacheFollowsDocumentChanges(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	core := module("core", map[string]string{"default": `<layout><container><text>before</text></container></layout>`})
	r := newRunner(t, fc, core)
	ctx := context.Background()
	opts := Options{Handles: []string{"default"}}

	if _, err := r.Execute(ctx, opts); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	core.FS.(fstest.MapFS)["layout/default.xml"].Data = []byte(`<layout><container><text>after</text></container></layout>`)

	result, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.CacheInfo.MergeHit || result.Markup != "after" {
		t.Errorf("after edit: hit=%v markup=%q, want miss and %q", result.CacheInfo.MergeHit, result.Markup, "after")
	}
}

func TestMergeCacheSeparatesProjects(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	opts := Options{Handles: []string{"default"}}

	tests := []struct {
		text    string
		wantHit bool
	}{
		{"project-one", false},
		{"project-two", false},
		{"project-one", true},
	}
	for _, tt := range tests {
		r := newRunner(t, fc, module("core", map[string]string{
			"default": `<layout><container><text>` + tt.text + `</text></container></layout>`,
		}))
		result, err := r.Execute(ctx, opts)
		if err != nil {
			t.Fatalf("Execute: %v", err)
		}
		if result.Markup != tt.text || result.CacheInfo.MergeHit != tt.wantHit {
			t.Errorf("%s: markup=%q hit=%v, want hit=%v", tt.text, result.Markup, result.CacheInfo.MergeHit, tt.wantHit)
		}
	}
}

func TestMergeCacheSkipsFailures(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := newRunner(t, fc,
		module("A", map[string]string{"default": `<layout><container><text>ok</text></container></layout>`}),
		module("B", map[string]string{"default": `<layout><container>`}),
	)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		result, err := r.Execute(ctx, Options{Handles: []string{"default"}})
		if err != nil {
			t.Fatalf("Execute: %v", err)
		}
		if result.CacheInfo.MergeHit {
			t.Error("merge with failures should not be cached")
		}
		if result.Markup != "ok" || len(result.Composition.Failures) != 1 {
			t.Errorf("run %d: markup %q, failures %v", i, result.Markup, result.Composition.Failures)
		}
	}
}

func TestRenderHandlesNeverFails(t *testing.T) {
	r := newRunner(t, nil, module("A", map[string]string{
		"default": `<layout><container><text>fine</text></container></layout>`,
		"broken":  `<layout><block template="fail.html"/></layout>`,
		"odd":     `<layout><widget/></layout>`,
	}))
	ctx := context.Background()

	if got := r.RenderHandles(ctx, []string{"default"}, nil); got != "fine" {
		t.Errorf("RenderHandles(default) = %q", got)
	}
	for _, handles := range [][]string{nil, {"../x"}, {"broken"}, {"odd"}} {
		if got := r.RenderHandles(ctx, handles, nil); got != "" {
			t.Errorf("RenderHandles(%v) = %q, want empty", handles, got)
		}
	}
}

func TestExport(t *testing.T) {
	r := newRunner(t, nil, module("A", map[string]string{
		"default": `<layout><container name="root"/><remove name="root"/><container name="second"/></layout>`,
	}))
	comp, err := r.Compose(context.Background(), Options{Handles: []string{"default"}})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}

	merged, err := Export(comp, StageMerged, FormatXML)
	if err != nil || !strings.Contains(string(merged), `<remove name="root">`) {
		t.Errorf("merged export = %s, %v", merged, err)
	}
	processed, err := Export(comp, StageProcessed, FormatXML)
	if err != nil || strings.Contains(string(processed), "remove") || !strings.Contains(string(processed), "second") {
		t.Errorf("processed export = %s, %v", processed, err)
	}
	js, err := Export(comp, StageProcessed, FormatJSON)
	if err != nil || !strings.Contains(string(js), `"tag": "container"`) {
		t.Errorf("json export = %s, %v", js, err)
	}
	dot, err := Export(comp, StageBlocks, FormatDOT)
	if err != nil || !strings.Contains(string(dot), "container second") {
		t.Errorf("dot export = %s, %v", dot, err)
	}
}

func TestValidateStage(t *testing.T) {
	tests := []struct {
		stage   string
		wantErr bool
	}{
		{"merged", false},
		{"processed", false},
		{"blocks", false},
		{"built", true},
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateStage(tt.stage)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateStage(%q) error = %v, wantErr %v", tt.stage, err, tt.wantErr)
		}
	}
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		stage, format string
		wantErr       bool
	}{
		{StageMerged, "xml", false},
		{StageProcessed, "json", false},
		{StageBlocks, "dot", false},
		{StageBlocks, "svg", false},
		{StageBlocks, "xml", true},
		{StageMerged, "svg", true},
		{StageMerged, "XML", true}, // case-sensitive
		{StageMerged, "", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.stage, tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q, %q) error = %v, wantErr %v", tt.stage, tt.format, err, tt.wantErr)
		}
	}
}

func TestOptionsValidation(t *testing.T) {
	opts := Options{}
	if err := opts.ValidateAndSetDefaults(); err == nil {
		t.Error("options without handles should fail")
	}

	opts = Options{Handles: []string{"default"}}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults: %v", err)
	}
	if opts.Logger == nil {
		t.Error("logger default not applied")
	}
	opts.Handles = nil
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Error("second call should be a no-op")
	}
}
