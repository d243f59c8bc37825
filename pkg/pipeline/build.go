package pipeline

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/infinri/layoutc/pkg/layout/block"
	"github.com/infinri/layoutc/pkg/layout/process"
)

// Build processes a copy of the merged document and builds its blocks. The
// merged tree itself is left untouched so it can be cached and reused.
func Build(ctx context.Context, m *Merged, logger *log.Logger) (*Composition, error) {
	processed := m.Tree.Clone()
	p := process.New(logger)
	if _, err := p.Process(ctx, processed); err != nil {
		return nil, fmt.Errorf("process: %w", err)
	}

	b := block.NewBuilder(logger)
	root, err := b.Build(ctx, processed)
	if err != nil {
		return nil, err
	}

	return &Composition{
		Handles:   m.Handles,
		Merged:    m.Tree,
		Processed: processed,
		Root:      root,
		Dropped:   p.Dropped(),
		Failures:  m.Failures,
		builder:   b,
	}, nil
}

// ApplyData binds data to the blocks of c: every block receives the keys it
// does not define, and the [MainContentName] block receives all of them.
func ApplyData(c *Composition, data map[string]any) {
	if len(data) == 0 || c.Root == nil {
		return
	}
	_ = block.Walk(c.Root, func(b block.Block, _ int) error {
		block.Apply(b, data, false)
		return nil
	})
	if main, ok := c.Block(MainContentName); ok {
		block.Apply(main, data, true)
	}
}
