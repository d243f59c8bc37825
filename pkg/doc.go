// Package pkg provides the libraries behind layoutc, a layout composition
// engine.
//
// # Overview
//
// Feature modules each contribute a layout document for a page handle. The
// documents are merged in module dependency order, their directives are
// applied, and the result is built into a typed block tree and rendered to
// markup:
//
//	module documents (layout/<handle>.xml|yaml)
//	         ↓
//	    [layout/source]   load per-module documents for a handle
//	         ↓
//	    [layout/handle]   expand <include>/<update> directives
//	         ↓
//	    [layout/merge]    concatenate under one <layout> root
//	         ↓
//	    [layout/process]  apply remove / reference-container / reference-block
//	         ↓
//	    [layout/block]    build container, template and text blocks
//	         ↓
//	    [layout/render]   produce markup, delegating templates to [template]
//
// [pipeline] runs the stages with a merged-document [cache], and [config]
// describes a project on disk.
//
// # Quick Start
//
//	reg := source.NewRegistry(
//	    source.Module{Name: "core", FS: os.DirFS("modules/core")},
//	    source.Module{Name: "cms", FS: os.DirFS("modules/cms")},
//	)
//	loader := source.NewLoader(reg, logger)
//	runner := pipeline.NewRunner(loader, render.New(template.New(reg.Modules())), nil, nil, logger)
//
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Handles: []string{"default", "cms_page"},
//	    Data:    map[string]any{"title": "Home"},
//	})
//	fmt.Println(result.Markup)
//
// # Supporting Packages
//
//   - [errors]: coded errors shared by every stage
//   - [observability]: hooks for load, parse, directive and render events
//   - [render/nodelink]: Graphviz export of block trees
//   - [buildinfo]: version information injected at build time
//
// [layout/source]: https://pkg.go.dev/github.com/infinri/layoutc/pkg/layout/source
// [layout/handle]: https://pkg.go.dev/github.com/infinri/layoutc/pkg/layout/handle
// [layout/merge]: https://pkg.go.dev/github.com/infinri/layoutc/pkg/layout/merge
// [layout/process]: https://pkg.go.dev/github.com/infinri/layoutc/pkg/layout/process
// [layout/block]: https://pkg.go.dev/github.com/infinri/layoutc/pkg/layout/block
// [layout/render]: https://pkg.go.dev/github.com/infinri/layoutc/pkg/layout/render
// [template]: https://pkg.go.dev/github.com/infinri/layoutc/pkg/template
// [pipeline]: https://pkg.go.dev/github.com/infinri/layoutc/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/infinri/layoutc/pkg/cache
// [config]: https://pkg.go.dev/github.com/infinri/layoutc/pkg/config
// [errors]: https://pkg.go.dev/github.com/infinri/layoutc/pkg/errors
// [observability]: https://pkg.go.dev/github.com/infinri/layoutc/pkg/observability
// [render/nodelink]: https://pkg.go.dev/github.com/infinri/layoutc/pkg/render/nodelink
// [buildinfo]: https://pkg.go.dev/github.com/infinri/layoutc/pkg/buildinfo
package pkg
