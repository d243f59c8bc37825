// Package pipeline provides the layout composition pipeline for layoutc.
//
// This package chains the layout stages into one entry point that the CLI
// and the preview server share, so both compose pages the same way.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Merge: resolve the requested handles and their includes, load every
//     module's documents and concatenate them (cached)
//  2. Build: resolve directives on a copy of the merged tree and build the
//     block tree
//  3. Render: serialize the block tree, or one named block, to markup
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(loader, render.New(eval), cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Handles: []string{"default", "cms_page"},
//	    Data:    map[string]any{"title": "Home"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(result.Markup)
//
// Hosts that prefer an empty page to an error use [Runner.RenderHandles],
// which logs failures and returns "".
//
// # Late-Bound Data
//
// Options.Data is applied after the build: every block receives the entries
// it does not define itself, and the block named [MainContentName] receives
// every entry, overriding its own.
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/infinri/layoutc/pkg/errors"
	"github.com/infinri/layoutc/pkg/layout/block"
	"github.com/infinri/layoutc/pkg/layout/doc"
	"github.com/infinri/layoutc/pkg/layout/process"
	"github.com/infinri/layoutc/pkg/layout/source"
)

// MainContentName is the block that receives late-bound data with priority.
const MainContentName = "content"

// Tree stages that can be exported.
const (
	StageMerged    = "merged"
	StageProcessed = "processed"
	StageBlocks    = "blocks"
)

// Tree export formats.
const (
	FormatXML  = "xml"
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
)

// ValidStages is the set of exportable stages.
var ValidStages = map[string]bool{
	StageMerged:    true,
	StageProcessed: true,
	StageBlocks:    true,
}

// ValidFormats is the set of supported export formats.
var ValidFormats = map[string]bool{
	FormatXML:  true,
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains the configuration of one pipeline run.
type Options struct {
	// Handles to compose, in request order.
	Handles []string `json:"handles"`

	// Data is applied to the built blocks before rendering.
	Data map[string]any `json:"data,omitempty"`

	// Block renders only the named block instead of the whole tree.
	Block string `json:"block,omitempty"`

	// Refresh bypasses the merged-document cache.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// ValidateAndSetDefaults checks the handles and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := errors.ValidateHandles(o.Handles); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// ValidateStage checks that a tree stage is valid.
func ValidateStage(stage string) error {
	if !ValidStages[stage] {
		return fmt.Errorf("invalid stage: %q (must be one of: merged, processed, blocks)", stage)
	}
	return nil
}

// ValidateFormat checks that an export format is valid for stage. The
// document stages export as XML or JSON, the block stage as DOT or SVG.
func ValidateFormat(stage, format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: xml, json, dot, svg)", format)
	}
	blocks := format == FormatDOT || format == FormatSVG
	if blocks != (stage == StageBlocks) {
		return fmt.Errorf("format %q is not available for stage %q", format, stage)
	}
	return nil
}

// =============================================================================
// Results
// =============================================================================

// Composition is a built layout ready to render.
type Composition struct {
	// Handles lists every handle that was loaded, includes first.
	Handles []string

	// Merged is the merged document before directive processing.
	Merged *doc.Tree

	// Processed is the merged document after directive processing.
	Processed *doc.Tree

	// Root is the built block tree, nil when nothing was built.
	Root block.Block

	// Dropped lists the directives that could not be applied.
	Dropped []process.Dropped

	// Failures lists the documents that failed to parse. It is empty when
	// the merged document came from the cache.
	Failures []source.Failure

	builder *block.Builder
}

// Block returns the named block.
func (c *Composition) Block(name string) (block.Block, bool) {
	if c.builder == nil {
		return nil, false
	}
	return c.builder.Block(name)
}

// Blocks returns the block name registry.
func (c *Composition) Blocks() map[string]block.Block {
	if c.builder == nil {
		return nil
	}
	return c.builder.Blocks()
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Markup is the rendered output.
	Markup string

	// Composition is the layout the markup was rendered from.
	Composition *Composition

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Handles    int
	Documents  int
	Blocks     int
	Dropped    int
	Bytes      int
	MergeTime  time.Duration
	BuildTime  time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	MergeHit bool // Whether the merged document came from cache
}
