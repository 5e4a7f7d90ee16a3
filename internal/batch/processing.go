package batch

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/MeKo-Tech/ocrheader/internal/pipeline"
)

// runBatch processes files with at most limit in flight and returns once
// every file has reported back. Outcomes keep the order of files.
func (s *Scheduler) runBatch(ctx context.Context, runID string, files []string, limit int) []pipeline.Outcome {
	outcomes := make([]pipeline.Outcome, len(files))
	var g errgroup.Group
	g.SetLimit(max(1, limit))
	for i, path := range files {
		g.Go(func() error {
			outcomes[i] = s.proc.Process(ctx, runID, path)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}
