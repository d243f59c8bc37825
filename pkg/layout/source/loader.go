package source

import (
	"context"
	"io"
	"slices"
	"sort"
	"time"

	"github.com/charmbracelet/log"

	"github.com/infinri/layoutc/pkg/errors"
	"github.com/infinri/layoutc/pkg/layout/doc"
	"github.com/infinri/layoutc/pkg/observability"
)

// Contribution is one module's parsed document for a handle.
type Contribution struct {
	Module string
	Path   string
	Tree   *doc.Tree
}

// Failure records a document that was dropped because it failed to parse.
type Failure struct {
	Module string
	Handle string
	Path   string
	Err    error
}

// Documents is the ordered result of loading one handle: contributions are
// in module dependency order.
type Documents struct {
	Handle        string
	Contributions []Contribution
	Failures      []Failure
}

// Len returns the number of contributions.
func (d *Documents) Len() int { return len(d.Contributions) }

// Get returns the contribution of module, if any.
func (d *Documents) Get(module string) (*doc.Tree, bool) {
	for _, c := range d.Contributions {
		if c.Module == module {
			return c.Tree, true
		}
	}
	return nil, false
}

// Modules returns the contributing module names in order.
func (d *Documents) Modules() []string {
	names := make([]string, len(d.Contributions))
	for i, c := range d.Contributions {
		names[i] = c.Module
	}
	return names
}

// Loader reads handle documents from a Registry.
//
// A Loader holds no mutable state; it is safe for concurrent use as long as
// the registry's file systems are.
type Loader struct {
	registry Registry
	logger   *log.Logger
}

// NewLoader creates a loader. A nil logger discards output.
func NewLoader(r Registry, logger *log.Logger) *Loader {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Loader{registry: r, logger: logger}
}

// Registry returns the registry the loader reads from.
func (l *Loader) Registry() Registry { return l.registry }

// Load parses every module's document for handle, in dependency order.
// Missing documents are skipped; malformed ones are reported and skipped.
// The only error is cancellation of ctx.
func (l *Loader) Load(ctx context.Context, handle string) (*Documents, error) {
	start := time.Now()
	docs := &Documents{Handle: handle}

	for _, m := range l.registry.Modules() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p, ok := l.registry.Lookup(m, handle)
		if !ok {
			continue
		}
		tree, err := parseFile(m, p)
		if err != nil {
			err = errors.Wrap(errors.ErrCodeInvalidDocument, err, "%s: %s", m.Name, p)
			l.logger.Warn("dropping malformed layout document", "module", m.Name, "handle", handle, "err", err)
			observability.Layout().OnParseError(ctx, m.Name, handle, err)
			docs.Failures = append(docs.Failures, Failure{Module: m.Name, Handle: handle, Path: p, Err: err})
			continue
		}
		docs.Contributions = append(docs.Contributions, Contribution{Module: m.Name, Path: p, Tree: tree})
	}

	l.logger.Debug("loaded handle", "handle", handle, "documents", docs.Len(), "modules", docs.Modules())
	observability.Layout().OnLoad(ctx, handle, docs.Len(), time.Since(start))
	return docs, nil
}

func parseFile(m Module, p string) (*doc.Tree, error) {
	f, err := m.FS.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return doc.Parse(p, f)
}

// Handles returns the sorted union of handles declared by all modules.
func (l *Loader) Handles() []string {
	seen := make(map[string]bool)
	for _, m := range l.registry.Modules() {
		for _, h := range l.registry.Handles(m) {
			seen[h] = true
		}
	}
	handles := make([]string, 0, len(seen))
	for h := range seen {
		handles = append(handles, h)
	}
	sort.Strings(handles)
	return handles
}

// Contributors returns the names of the modules that declare handle.
func (l *Loader) Contributors(handle string) []string {
	var names []string
	for _, m := range l.registry.Modules() {
		if slices.Contains(l.registry.Handles(m), handle) {
			names = append(names, m.Name)
		}
	}
	return names
}
