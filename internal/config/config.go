package config

import (
	"path/filepath"
	"runtime"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultTimeout bounds a whole command. Loop detection on a large board
	// tries every empty cell, so the limit is generous.
	DefaultTimeout = 10 * time.Minute

	// DefaultBatchSize is the number of input files solved concurrently.
	DefaultBatchSize = 4

	// AppName is the application name used for XDG directory paths.
	AppName = "raygrid"

	// DefaultTraceDir is the trace directory name under the XDG cache directory.
	DefaultTraceDir = "traces"
)

// DefaultWorkers returns the default number of concurrent loop trials.
func DefaultWorkers() int {
	return runtime.NumCPU()
}

// Config holds all configuration options for a raygrid command.
// It is populated from CLI flags and passed through the application
// rather than kept in global state.
type Config struct {
	// Timeout bounds the whole command, all input files included.
	Timeout time.Duration

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// LogJSON switches the log handler to JSON lines.
	LogJSON bool

	// BatchSize is the number of input files solved concurrently.
	BatchSize int

	// Workers is the number of concurrent loop trials per board.
	// A board config entry may override it.
	Workers int

	// SkipLoops disables the Part 2 obstacle search for patrol boards.
	SkipLoops bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .raygrid in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// BoardConfigs holds per-board settings loaded from the config file.
	BoardConfigs *File

	// JSONReport enables JSON report output.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables GitHub Flavored Markdown output.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ShowPositions lists every trapping cell in text reports.
	ShowPositions bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	// Directories are created automatically if they don't exist.
	ReportFile string

	// Inputs is the list of board files to solve.
	Inputs []string

	// DBDir is the directory for the SQLite history database.
	// Defaults to the XDG data directory (~/.local/share/raygrid on Linux).
	DBDir string

	// SaveToDB indicates whether to record runs in the history database.
	SaveToDB bool

	// Trace enables recording patrol steps to a trace file per board.
	Trace bool

	// TraceDir is the directory trace files are written to.
	TraceDir string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Timeout:   DefaultTimeout,
		BatchSize: DefaultBatchSize,
		Workers:   DefaultWorkers(),
		DBDir:     XDGDataDir(),
		SaveToDB:  true,
		TraceDir:  filepath.Join(XDGCacheDir(), DefaultTraceDir),
	}
}

// XDGDataDir returns the XDG data directory for raygrid.
// On Linux: ~/.local/share/raygrid
// On macOS: ~/Library/Application Support/raygrid
// On Windows: %LOCALAPPDATA%\raygrid
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for raygrid.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for raygrid.
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found.
func (c *Config) Validate() error {
	if len(c.Inputs) == 0 {
		return ErrNoInput
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.Trace && c.TraceDir == "" {
		return ErrNoTraceDir
	}

	return nil
}

// BoardSettings resolves the effective settings for one input path,
// applying the config file entry for it when one exists.
func (c *Config) BoardSettings(path string) BoardConfig {
	result := BoardConfig{
		Workers:   c.Workers,
		SkipLoops: c.SkipLoops,
	}
	if c.BoardConfigs == nil {
		return result
	}

	bc := c.BoardConfigs.GetBoardConfig(path)
	if bc.Workers > 0 {
		result.Workers = bc.Workers
	}
	result.SkipLoops = result.SkipLoops || bc.SkipLoops
	result.Label = bc.Label
	return result
}
