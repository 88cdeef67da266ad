package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/raygrid/internal/model"
)

// BatchProcessor solves multiple input files concurrently.
// It uses errgroup to manage goroutines and respect the concurrency limit.
type BatchProcessor struct {
	// puzzle is recorded on every report.
	puzzle model.Puzzle

	// pipelineFactory creates a fresh pipeline for each input so per-board
	// settings and state never leak between runs.
	pipelineFactory func(source string) *Pipeline

	// concurrency is the maximum number of inputs solved at once.
	concurrency int

	logger *slog.Logger

	// results stores completed reports in input order.
	results []*model.RunReport
	mu      sync.Mutex
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent runs.
// Default is 4 if not specified.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor for puzzle.
func NewBatchProcessor(puzzle model.Puzzle, pipelineFactory func(source string) *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		puzzle:          puzzle,
		pipelineFactory: pipelineFactory,
		concurrency:     4,
		results:         make([]*model.RunReport, 0),
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch solves every source concurrently.
//
// Returns all reports in input order, including failed ones; a failed run
// carries its error on the report. The error return is set only when the
// batch itself was cancelled.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, sources []string) ([]*model.RunReport, error) {
	bp.logger.Info("starting batch processing",
		"puzzle", bp.puzzle,
		"total_inputs", len(sources),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	bp.results = make([]*model.RunReport, len(sources))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, source := range sources {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Info("solving input",
				"source", source,
				"index", i+1,
				"total", len(sources),
			)

			report := model.NewRunReport(bp.puzzle, source)
			err := bp.pipelineFactory(source).Execute(ctx, report)

			bp.mu.Lock()
			bp.results[i] = report
			bp.mu.Unlock()

			if err != nil {
				bp.logger.Warn("run failed",
					"source", source,
					"error", err,
				)
				// The error is recorded in the report; other inputs keep going.
				return nil
			}

			bp.logger.Info("run completed",
				"source", source,
				"elapsed", report.Elapsed(),
			)
			return nil
		})
	}

	err := g.Wait()

	bp.logger.Info("batch processing complete",
		"total_inputs", len(sources),
		"elapsed", time.Since(startTime),
	)

	return bp.results, err
}

// ProcessBatchWithCallback solves every source and calls callback for each
// completed run. The callback runs on the worker goroutine, so it must be
// safe for concurrent use.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	sources []string,
	callback func(report *model.RunReport, index int),
) error {
	bp.logger.Info("starting batch processing with callback",
		"puzzle", bp.puzzle,
		"total_inputs", len(sources),
		"concurrency", bp.concurrency,
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, source := range sources {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			report := model.NewRunReport(bp.puzzle, source)
			_ = bp.pipelineFactory(source).Execute(ctx, report) //nolint:errcheck // Error is stored in report

			callback(report, i)
			return nil
		})
	}

	return g.Wait()
}
