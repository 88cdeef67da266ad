package guard

import "log/slog"

// options holds the settings shared by Patrol and DetectLoops.
type options struct {
	logger   *slog.Logger
	workers  int
	stepHook func(StepResult)
}

// Option configures Patrol and DetectLoops.
type Option func(*options)

// WithLogger sets the logger used for progress messages.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithWorkers sets how many loop-detection trials run at once.
// Values below 1 are ignored. Patrol ignores this option.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithStepHook registers a callback invoked after every patrol step,
// including the final exit. DetectLoops ignores this option.
func WithStepHook(hook func(StepResult)) Option {
	return func(o *options) {
		o.stepHook = hook
	}
}

// newOptions applies opts over the defaults.
func newOptions(opts []Option) *options {
	o := &options{workers: 1}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}
