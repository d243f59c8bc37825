// Package template evaluates the template references of layout blocks.
//
// Templates live under templates/ in each module file system and are parsed
// with html/template plus the Sprig function library. A reference is either
// a path ("catalog/list.html"), found in the last module that has it, or a
// module-qualified path ("Catalog::list.html") that only looks in the named
// module. Later modules therefore override templates of the modules they
// depend on.
//
// The children and child values the renderer passes in are already markup
// and are handed to templates as template.HTML, so they are not escaped a
// second time.
package template

import (
	"bytes"
	"context"
	"html/template"
	"io/fs"
	"path"
	"strings"
	"sync"

	"github.com/Masterminds/sprig/v3"

	"github.com/infinri/layoutc/pkg/cache"
	"github.com/infinri/layoutc/pkg/errors"
	"github.com/infinri/layoutc/pkg/layout/render"
	"github.com/infinri/layoutc/pkg/layout/source"
)

// ModuleSeparator separates the module from the path in a reference.
const ModuleSeparator = "::"

// Evaluator renders template references found in module file systems.
// Templates are read on every evaluation and reparsed only when their source
// changes, so edits show up in a long-running server. It is safe for
// concurrent use.
type Evaluator struct {
	modules []source.Module

	mu     sync.RWMutex
	parsed map[string]parsedTemplate
}

type parsedTemplate struct {
	sum  string
	tmpl *template.Template
}

// New creates an evaluator over modules in dependency order.
func New(modules []source.Module) *Evaluator {
	return &Evaluator{
		modules: modules,
		parsed:  make(map[string]parsedTemplate),
	}
}

// Evaluate executes the template ref with data.
func (e *Evaluator) Evaluate(ctx context.Context, ref string, data map[string]any) (string, error) {
	tmpl, err := e.lookup(ref)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, markup(data)); err != nil {
		return "", errors.Wrap(errors.ErrCodeTemplateFailed, err, "execute %s", ref)
	}
	return buf.String(), nil
}

func (e *Evaluator) lookup(ref string) (*template.Template, error) {
	if err := errors.ValidateTemplateRef(ref); err != nil {
		return nil, err
	}
	content, err := e.read(ref)
	if err != nil {
		return nil, err
	}
	sum := cache.Hash(content)

	e.mu.RLock()
	p, ok := e.parsed[ref]
	e.mu.RUnlock()
	if ok && p.sum == sum {
		return p.tmpl, nil
	}

	tmpl, err := template.New(ref).Funcs(sprig.FuncMap()).Parse(string(content))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidTemplate, err, "parse %s", ref)
	}

	e.mu.Lock()
	e.parsed[ref] = parsedTemplate{sum: sum, tmpl: tmpl}
	e.mu.Unlock()
	return tmpl, nil
}

// read finds the source of ref, searching modules from last to first unless
// ref names a module.
func (e *Evaluator) read(ref string) ([]byte, error) {
	module, p := SplitRef(ref)
	full := path.Join(source.TemplateDir, p)
	for i := len(e.modules) - 1; i >= 0; i-- {
		m := e.modules[i]
		if module != "" && m.Name != module {
			continue
		}
		data, err := fs.ReadFile(m.FS, full)
		if err == nil {
			return data, nil
		}
	}
	return nil, errors.New(errors.ErrCodeTemplateNotFound, "template %s not found", ref)
}

// SplitRef splits "Module::path" into its parts. A reference without a
// module returns an empty module.
func SplitRef(ref string) (module, p string) {
	if m, rest, ok := strings.Cut(ref, ModuleSeparator); ok {
		return m, rest
	}
	return "", ref
}

// markup converts the renderer's pre-rendered values to template.HTML.
func markup(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}
	if s, ok := data[render.KeyChildren].(string); ok {
		out[render.KeyChildren] = template.HTML(s)
	}
	if named, ok := data[render.KeyChild].(map[string]string); ok {
		html := make(map[string]template.HTML, len(named))
		for k, v := range named {
			html[k] = template.HTML(v)
		}
		out[render.KeyChild] = html
	}
	return out
}

// Ensure Evaluator implements render.Evaluator.
var _ render.Evaluator = (*Evaluator)(nil)
