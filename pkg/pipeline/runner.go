package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/infinri/layoutc/pkg/cache"
	"github.com/infinri/layoutc/pkg/layout/handle"
	"github.com/infinri/layoutc/pkg/layout/render"
	"github.com/infinri/layoutc/pkg/layout/source"
	"github.com/infinri/layoutc/pkg/observability"
)

// cacheKeyType labels merged-document cache events for observability.
const cacheKeyType = "document"

// Runner encapsulates pipeline execution with caching.
// Both the CLI and the preview server use it so caching behaves the same.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Resolver *handle.Resolver
	Renderer *render.Renderer
	Cache    cache.Cache
	Keyer    cache.Keyer
	Logger   *log.Logger

	// TTL of merged documents; cache.TTLDocument when zero.
	TTL time.Duration

	registry source.Registry
}

// NewRunner creates a runner over loader and renderer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(loader *source.Loader, renderer *render.Renderer, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	if renderer == nil {
		renderer = render.New(nil)
	}
	return &Runner{
		Resolver: handle.NewResolver(loader, logger),
		Renderer: renderer,
		Cache:    c,
		Keyer:    keyer,
		Logger:   logger,
		registry: loader.Registry(),
	}
}

// Execute runs the complete merge → build → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	comp, result, err := r.compose(ctx, opts)
	if err != nil {
		return nil, err
	}

	// Stage 3: Render
	renderStart := time.Now()
	markup, err := Render(ctx, r.Renderer, comp, opts.Block)
	result.Stats.RenderTime = time.Since(renderStart)
	observability.Layout().OnRender(ctx, opts.Handles, len(markup), result.Stats.RenderTime, err)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Markup = markup
	result.Stats.Bytes = len(markup)

	r.Logger.Info("rendered layout",
		"handles", cache.Signature(opts.Handles),
		"block", opts.Block,
		"bytes", len(markup),
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Compose runs the merge and build stages and binds opts.Data, without
// rendering.
func (r *Runner) Compose(ctx context.Context, opts Options) (*Composition, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	comp, _, err := r.compose(ctx, opts)
	return comp, err
}

func (r *Runner) compose(ctx context.Context, opts Options) (*Composition, *Result, error) {
	result := &Result{}

	// Stage 1: Merge
	mergeStart := time.Now()
	m, mergeHit, err := r.MergeWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("merge: %w", err)
	}
	result.Stats.MergeTime = time.Since(mergeStart)
	result.Stats.Handles = len(m.Handles)
	result.Stats.Documents = m.Documents
	result.CacheInfo.MergeHit = mergeHit

	r.Logger.Info("merged documents",
		"handles", cache.Signature(m.Handles),
		"documents", m.Documents,
		"cached", mergeHit,
		"duration", result.Stats.MergeTime)

	// Stage 2: Build
	buildStart := time.Now()
	comp, err := Build(ctx, m, opts.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("build: %w", err)
	}
	ApplyData(comp, opts.Data)
	result.Composition = comp
	result.Stats.BuildTime = time.Since(buildStart)
	result.Stats.Blocks = len(comp.Blocks())
	result.Stats.Dropped = len(comp.Dropped)

	r.Logger.Info("built blocks",
		"named", result.Stats.Blocks,
		"dropped", result.Stats.Dropped,
		"duration", result.Stats.BuildTime)

	return comp, result, nil
}

// MergeWithCacheInfo merges the documents of opts.Handles with caching and
// returns cache hit info. Merges that dropped malformed documents are not
// cached, so the failures are reported again on the next run.
func (r *Runner) MergeWithCacheInfo(ctx context.Context, opts Options) (*Merged, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}

	// Fingerprinted per call: documents may change while a server runs.
	cacheKey := r.Keyer.DocumentKey(opts.Handles, source.Fingerprint(r.registry))

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var m Merged
			if err := json.Unmarshal(data, &m); err == nil && m.Tree != nil {
				observability.Cache().OnCacheHit(ctx, cacheKeyType)
				return &m, true, nil
			}
			// If deserialization fails, fall through to recompute
		}
		observability.Cache().OnCacheMiss(ctx, cacheKeyType)
	}

	m, err := Merge(ctx, r.Resolver, opts.Handles)
	if err != nil {
		return nil, false, err
	}

	if len(m.Failures) == 0 {
		if data, err := json.Marshal(m); err == nil {
			if err := r.Cache.Set(ctx, cacheKey, data, r.ttl()); err != nil {
				r.Logger.Warn("cache write failed", "err", err)
			} else {
				observability.Cache().OnCacheSet(ctx, cacheKeyType, len(data))
			}
		}
	}

	return m, false, nil
}

// RenderHandles composes and renders handles with data. It never fails:
// errors are logged and yield "".
func (r *Runner) RenderHandles(ctx context.Context, handles []string, data map[string]any) string {
	result, err := r.Execute(ctx, Options{Handles: handles, Data: data})
	if err != nil {
		r.Logger.Error("layout render failed", "handles", cache.Signature(handles), "err", err)
		return ""
	}
	return result.Markup
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) ttl() time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return cache.TTLDocument
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
