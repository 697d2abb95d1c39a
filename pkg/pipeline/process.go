package pipeline

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/edgeflare/rowpub/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// processStepRows publishes every row delivered to one step copy, in order.
// A failed row is either skipped or aborts the run, per the step's policy.
func processStepRows(
	ctx context.Context,
	wg *sync.WaitGroup,
	c *stepCopy,
	stats *Stats,
	abort context.CancelCauseFunc,
) {
	defer wg.Done()

	for {
		// buffered rows are not published once the run is stopping
		if ctx.Err() != nil {
			return
		}
		select {
		case ir, ok := <-c.rows:
			if !ok {
				return
			}
			if err := publishRow(ctx, c, ir); err != nil {
				atomic.AddInt64(&stats.Failed, 1)
				metrics.PublishErrors.WithLabelValues(c.cfg.Name).Inc()

				if c.policy == OnRowErrorSkip {
					c.logger.Warn("Skipping row", zap.Int64("row", ir.index), zap.Error(err))
					continue
				}
				c.logger.Error("Aborting run", zap.Int64("row", ir.index), zap.Error(err))
				abort(err)
				return
			}
			atomic.AddInt64(&stats.Published, 1)
			metrics.PublishedRows.WithLabelValues(c.cfg.Name).Inc()

		case <-ctx.Done():
			return
		}
	}
}

// publishRow hands a single row to the step copy
func publishRow(ctx context.Context, c *stepCopy, ir indexedRow) error {
	timer := prometheus.NewTimer(metrics.PublishDuration.WithLabelValues(c.cfg.Name))
	defer timer.ObserveDuration()

	if err := c.step.Publish(ctx, ir.row); err != nil {
		return &RowError{Step: c.cfg.Name, Copy: c.nr, Index: ir.index, Err: err}
	}
	return nil
}
