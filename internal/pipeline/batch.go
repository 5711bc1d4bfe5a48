package pipeline

import (
	"context"

	"github.com/tagscan/tagscan/internal/model"
	"golang.org/x/sync/errgroup"
)

// ProcessBatch runs the pipeline for multiple URLs concurrently with at
// most concurrency runs in flight, returning responses in input order.
//
// Design decision: We use errgroup.SetLimit rather than a worker pool
// because it is simpler and handles the concurrency cap correctly. Each
// URL gets its own goroutine; failures are already captured inside the
// responses, so the group itself only reports cancellation.
func (p *Pipeline) ProcessBatch(ctx context.Context, urls []string, tag string, bypassCache bool) ([]*model.Response, error) {
	responses := make([]*model.Response, len(urls))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.BatchSize)

	for i, u := range urls {
		i, u := i, u
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			responses[i] = p.Process(ctx, model.Request{
				URL:         u,
				Tag:         tag,
				BypassCache: bypassCache,
			})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return responses, err
	}
	return responses, nil
}
