package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nao1215/raygrid/internal/model"
)

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence, with each step receiving the report
// filled in by the steps before it.
type Step interface {
	// Do executes the pipeline step.
	// It returns an error when the step cannot produce its part of the result.
	Do(ctx context.Context, report *model.RunReport) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline orchestrates the execution of multiple steps.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger

	// continueOnError determines whether to continue executing steps
	// after one fails. If false, the pipeline stops on first error.
	continueOnError bool
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to keep running steps after
// one fails. The first error is still recorded on the report.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a new Pipeline with the given options.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all pipeline steps in sequence and records the wall time of
// each step that succeeds. Cancellation is checked before each step; a step
// that observes cancellation itself marks the report as timed out too.
//
// Returns the first error encountered if continueOnError is false.
func (p *Pipeline) Execute(ctx context.Context, report *model.RunReport) error {
	start := time.Now()
	defer func() {
		report.ElapsedMS = time.Since(start).Milliseconds()
	}()

	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"reason", err,
			)
			report.TimedOut = true
			report.SetError(err)
			return err
		}

		p.logger.Info("executing step",
			"step", step.Name(),
			"source", report.Source,
		)

		stepStart := time.Now()
		if err := step.Do(ctx, report); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"source", report.Source,
				"error", err,
			)

			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				report.TimedOut = true
			}
			if report.Error == nil {
				report.SetError(err)
			}

			if !p.continueOnError {
				return err
			}
			continue
		}

		took := time.Since(stepStart)
		p.logger.Debug("step completed",
			"step", step.Name(),
			"source", report.Source,
			"elapsed", took,
		)
		report.PerformedSteps = append(report.PerformedSteps, step.Name())
		if report.StepMS == nil {
			report.StepMS = make(map[string]int64, len(p.steps))
		}
		report.StepMS[step.Name()] = took.Milliseconds()
	}

	return nil
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
