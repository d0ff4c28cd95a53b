package engine

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/credit-optimizer/internal/model"
)

// BatchResult is the outcome of one request in a batch.
type BatchResult struct {
	Index  int           `json:"index"`
	Report *model.Report `json:"report,omitempty"`
	Err    error         `json:"-"`
	Error  string        `json:"error,omitempty"`
}

// RunBatch evaluates requests concurrently with at most concurrency workers.
// Results are returned in input order; a failing request does not stop the
// others. Cancelling ctx skips requests not yet started.
func (e *Engine) RunBatch(ctx context.Context, requests []model.Request, concurrency int) []BatchResult {
	if concurrency <= 0 {
		concurrency = 1
	}
	results := make([]BatchResult, len(requests))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var failed atomic.Int64
	for i, req := range requests {
		g.Go(func() error {
			results[i].Index = i
			if err := gCtx.Err(); err != nil {
				results[i].Err = err
				results[i].Error = err.Error()
				failed.Add(1)
				return nil
			}
			report, err := e.Run(req)
			if err != nil {
				results[i].Err = err
				results[i].Error = err.Error()
				failed.Add(1)
				zap.L().Debug("engine: batch item failed",
					zap.Int("index", i),
					zap.String("calculator", req.Calculator),
					zap.Error(err),
				)
				return nil
			}
			results[i].Report = &report
			return nil
		})
	}
	_ = g.Wait()

	zap.L().Debug("engine: batch complete",
		zap.Int("requests", len(requests)),
		zap.Int64("failed", failed.Load()),
	)
	return results
}
