package scanner

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/corella-au/corella/internal/extractor"
	"github.com/corella-au/corella/internal/verifier"
)

// LinkChecker is the single-link verification capability the batch pool
// fans out over.
type LinkChecker interface {
	CheckLink(ctx context.Context, link extractor.Link) verifier.CheckResult
}

// batchPool verifies links with bounded concurrency in fixed-size
// batches: each batch is a fully-parallel fan-out awaited together
// before the next batch starts, with a politeness pause in between.
type batchPool struct {
	checker    LinkChecker
	batchSize  int
	batchDelay pauseFunc
}

// pauseFunc is the context-aware pause inserted between batches.
type pauseFunc func(ctx context.Context)

// checkAll verifies every link and returns results in input order.
// Intra-batch completion order never affects output ordering: each
// worker writes to its own index-addressed slot.
func (p *batchPool) checkAll(ctx context.Context, links []extractor.Link) []verifier.CheckResult {
	results := make([]verifier.CheckResult, len(links))

	for start := 0; start < len(links); start += p.batchSize {
		end := start + p.batchSize
		if end > len(links) {
			end = len(links)
		}

		group, groupCtx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			i := i
			group.Go(func() error {
				// CheckLink never returns an error; failures are
				// classified outcomes on the result.
				results[i] = p.checker.CheckLink(groupCtx, links[i])
				return nil
			})
		}
		// Waits for the whole batch to settle before moving on.
		_ = group.Wait()

		if end < len(links) && p.batchDelay != nil {
			p.batchDelay(ctx)
		}
	}

	return results
}
