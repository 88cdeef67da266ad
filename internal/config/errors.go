package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrNoInput is returned when no board file is given.
	ErrNoInput = errors.New("no input specified: provide at least one board file")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidWorkers is returned when the loop worker count is not positive.
	ErrInvalidWorkers = errors.New("invalid workers: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrNoTraceDir is returned when tracing is enabled without a directory.
	ErrNoTraceDir = errors.New("trace enabled but no trace directory set")
)
