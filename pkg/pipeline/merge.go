package pipeline

import (
	"context"
	"fmt"

	"github.com/infinri/layoutc/pkg/layout/doc"
	"github.com/infinri/layoutc/pkg/layout/handle"
	"github.com/infinri/layoutc/pkg/layout/merge"
	"github.com/infinri/layoutc/pkg/layout/source"
)

// Merged is the output of the merge stage. It is the unit stored in the
// cache, so only the exported JSON fields survive a cache round trip.
type Merged struct {
	Handles   []string         `json:"handles"`
	Documents int              `json:"documents"`
	Tree      *doc.Tree        `json:"tree"`
	Failures  []source.Failure `json:"-"`
}

// Merge resolves handles with their includes and merges the documents of
// every contributing module, base handles first.
func Merge(ctx context.Context, r *handle.Resolver, handles []string) (*Merged, error) {
	res, err := r.Resolve(ctx, handles)
	if err != nil {
		return nil, fmt.Errorf("resolve handles: %w", err)
	}
	return &Merged{
		Handles:   res.Handles,
		Documents: len(res.Contributions),
		Tree:      merge.Merge(res.Trees()),
		Failures:  res.Failures,
	}, nil
}
