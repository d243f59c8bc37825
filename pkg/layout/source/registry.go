// Package source discovers and parses the layout documents that modules
// contribute for a handle.
//
// # Modules
//
// A [Module] is a named file system. Its documents live under
// layout/<handle>.xml (or .yaml/.yml); its templates under templates/. The
// [Registry] supplies modules in dependency order, which is also the order
// in which their contributions are merged:
//
//	reg := source.NewRegistry(
//	    source.Module{Name: "core", FS: os.DirFS("modules/core")},
//	    source.Module{Name: "cms", FS: os.DirFS("modules/cms")},
//	)
//	docs, err := source.NewLoader(reg, logger).Load(ctx, "default")
//
// # Failure Model
//
// A module without a document for a handle contributes nothing. A document
// that fails to parse is logged, reported to the observability hooks and
// dropped; the other modules still load.
package source

import (
	"io/fs"
	"path"
	"slices"
	"strings"

	"github.com/infinri/layoutc/pkg/cache"
	"github.com/infinri/layoutc/pkg/layout/doc"
)

// Directories inside a module file system.
const (
	LayoutDir   = "layout"
	TemplateDir = "templates"
)

// Module is one contributing feature module.
type Module struct {
	Name string
	FS   fs.FS
}

// Registry supplies the modules of a project and locates their documents.
type Registry interface {
	// Modules returns every module in dependency order.
	Modules() []Module

	// Lookup returns the path within m.FS of the document m contributes for
	// handle, and whether there is one.
	Lookup(m Module, handle string) (string, bool)

	// Handles returns the handles m declares documents for.
	Handles(m Module) []string
}

// FSRegistry is a Registry over module file systems that keep documents in
// [LayoutDir].
type FSRegistry struct {
	modules []Module
}

// NewRegistry creates a registry from modules in dependency order.
func NewRegistry(modules ...Module) *FSRegistry {
	return &FSRegistry{modules: slices.Clone(modules)}
}

// Modules returns the modules in dependency order.
func (r *FSRegistry) Modules() []Module {
	return slices.Clone(r.modules)
}

// Lookup finds layout/<handle>.<ext>, trying [doc.Extensions] in order.
func (r *FSRegistry) Lookup(m Module, handle string) (string, bool) {
	for _, ext := range doc.Extensions {
		p := path.Join(LayoutDir, handle+ext)
		if info, err := fs.Stat(m.FS, p); err == nil && !info.IsDir() {
			return p, true
		}
	}
	return "", false
}

// Handles lists the document base names found in the module's layout
// directory.
func (r *FSRegistry) Handles(m Module) []string {
	entries, err := fs.ReadDir(m.FS, LayoutDir)
	if err != nil {
		return nil
	}
	var handles []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := path.Ext(e.Name())
		if !slices.Contains(doc.Extensions, strings.ToLower(ext)) {
			continue
		}
		handles = append(handles, strings.TrimSuffix(e.Name(), ext))
	}
	return handles
}

// Fingerprint identifies the current layout sources of a registry for cache
// keys. It covers module order and names plus the path and content hash of
// every document each module contributes, so editing a document or pointing
// the same module names at other directories changes it.
func Fingerprint(r Registry) string {
	var parts []string
	for _, m := range r.Modules() {
		parts = append(parts, m.Name)
		if m.FS == nil {
			continue
		}
		for _, h := range r.Handles(m) {
			p, ok := r.Lookup(m, h)
			if !ok {
				continue
			}
			data, err := fs.ReadFile(m.FS, p)
			if err != nil {
				parts = append(parts, p, "unreadable:"+err.Error())
				continue
			}
			parts = append(parts, p, cache.Hash(data))
		}
	}
	return cache.Fingerprint(parts...)
}

// Ensure FSRegistry implements Registry.
var _ Registry = (*FSRegistry)(nil)
