package gridpath

import (
	"context"

	"github.com/google/uuid"
	"github.com/pdrpinto/gridpath/internal/ctxlog"
)

// SearchResult is the immutable outcome of one search run.
type SearchResult struct {
	RunID uuid.UUID
	// Version is the grid version of the searched snapshot.
	Version uint64
	// VisitedOrder lists finalized cells in the order they left the frontier.
	VisitedOrder []Cell
	// Path runs from start to end inclusive; it is empty when the end is
	// unreachable.
	Path  []Cell
	Found bool
}

// Search runs Dijkstra over snapshot until the end cell is finalized or the
// frontier is exhausted. An unreachable end is a normal result with an empty
// path; the only error is a cancelled context.
func Search(ctx context.Context, snapshot Snapshot) (SearchResult, error) {
	logger := ctxlog.FromContext(ctx)

	stepper := NewStepper(ctx, snapshot)
	for !stepper.Done() {
		if _, err := stepper.Step(); err != nil {
			return SearchResult{}, err
		}
	}

	result := SearchResult{
		RunID:        uuid.New(),
		Version:      snapshot.Version(),
		VisitedOrder: stepper.VisitedOrder(),
		Path:         stepper.Path(),
		Found:        stepper.Found(),
	}
	logger.Debug("Search finished.",
		"run_id", result.RunID,
		"version", result.Version,
		"visited", len(result.VisitedOrder),
		"path_length", len(result.Path),
		"found", result.Found,
	)
	return result, nil
}

// Run searches snapshot to completion. It cannot fail for a well-formed grid.
func Run(snapshot Snapshot) SearchResult {
	result, _ := Search(context.Background(), snapshot)
	return result
}
