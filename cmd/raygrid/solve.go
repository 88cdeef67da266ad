package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/raygrid/internal/config"
	"github.com/nao1215/raygrid/internal/database"
	"github.com/nao1215/raygrid/internal/model"
	"github.com/nao1215/raygrid/internal/pipeline"
	"github.com/nao1215/raygrid/internal/report"
)

// traceSuffix is appended to trace file names.
const traceSuffix = ".trace.zst"

// NewPatrolCmd creates the patrol command.
func NewPatrolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patrol [file...]",
		Short: "Walk the guard and count visited cells and loop obstacles",
		Long: `Patrol solves guard boards.

The guard ('^', '>', 'v' or '<') walks straight until the next cell holds an
obstacle ('#'), then turns right. It leaves the board when it steps past an
edge.

  Part 1: the number of distinct cells the guard stands on before leaving.
  Part 2: the number of empty cells where one extra obstacle makes the
          guard walk forever.

Use "-" to read a board from standard input.

Examples:
  # Solve a board
  raygrid patrol input.txt

  # Solve several boards, four at a time, with 8 loop workers each
  raygrid patrol -b 4 -w 8 day6/*.txt

  # Only Part 1
  raygrid patrol --skip-loops input.txt

  # Record the walk for later replay
  raygrid patrol --trace input.txt

  # Markdown report to a file
  raygrid patrol -m -o report.md input.txt

Configuration file (.raygrid) example:
  defaults:
    workers: 4
  boards:
    big.txt:
      label: "Full puzzle input"
      skipLoops: true`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolveCmd(cmd, args, model.PuzzlePatrol)
		},
	}

	addCommonSolveFlags(cmd)

	cmd.Flags().IntP("workers", "w", config.DefaultWorkers(),
		"Number of concurrent loop trials per board")
	cmd.Flags().Bool("skip-loops", false,
		"Skip the Part 2 obstacle search")
	cmd.Flags().Bool("positions", false,
		"List every trapping cell in the text report")
	cmd.Flags().Bool("trace", false,
		"Record every patrol step to a zstd-compressed trace file")
	cmd.Flags().String("trace-dir", filepath.Join(config.XDGCacheDir(), config.DefaultTraceDir),
		"Directory for trace files")

	return cmd
}

// NewAntennaCmd creates the antenna command.
func NewAntennaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "antenna [file...]",
		Short: "Count antinodes of same-frequency antenna pairs",
		Long: `Antenna solves antenna maps.

Every letter or digit is an antenna; antennas with the same character share
a frequency. Each pair of same-frequency antennas produces antinodes.

  Part 1: cells one offset beyond either antenna of a pair.
  Part 2: every cell on the line through a pair at a whole multiple of
          the offset, antennas included.

Use "-" to read a map from standard input.

Examples:
  # Solve a map
  raygrid antenna input.txt

  # JSON report
  raygrid antenna --json input.txt`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolveCmd(cmd, args, model.PuzzleAntenna)
		},
	}

	addCommonSolveFlags(cmd)

	return cmd
}

// addCommonSolveFlags registers the flags shared by every puzzle command.
func addCommonSolveFlags(cmd *cobra.Command) {
	// Run behavior flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Time limit for the whole command")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of input files solved concurrently")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .raygrid in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	// History flags
	cmd.Flags().Bool("no-save", false,
		"Do not record runs in the history database")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")
}

// runSolveCmd executes a puzzle command.
func runSolveCmd(cmd *cobra.Command, args []string, puzzle model.Puzzle) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg.Verbose, cfg.LogJSON)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	return runSolve(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, puzzle, logger)
}

// buildConfig creates a Config from cobra command flags.
// Flags a command does not define keep their defaults.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error

	cfg.Verbose = getBoolFlag(cmd, "verbose")
	cfg.LogJSON = getBoolFlag(cmd, "log-json")

	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}
	noSave, err := flags.GetBool("no-save")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noSave

	if flags.Lookup("workers") != nil {
		if cfg.Workers, err = flags.GetInt("workers"); err != nil {
			return nil, err
		}
		if cfg.SkipLoops, err = flags.GetBool("skip-loops"); err != nil {
			return nil, err
		}
		if cfg.ShowPositions, err = flags.GetBool("positions"); err != nil {
			return nil, err
		}
		if cfg.Trace, err = flags.GetBool("trace"); err != nil {
			return nil, err
		}
		if cfg.TraceDir, err = flags.GetString("trace-dir"); err != nil {
			return nil, err
		}
	}

	// If the user explicitly specified a config file path, error if not found.
	// If no path was given, silently use an empty config when no file exists.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		cfg.BoardConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	default:
		cfg.BoardConfigs = &config.File{Boards: make(map[string]config.BoardConfig)}
	}

	cfg.Inputs = args

	return cfg, nil
}

// runSolve solves every input and reports, stores and compares the runs.
func runSolve(ctx context.Context, out, errOut io.Writer, cfg *config.Config, puzzle model.Puzzle, logger *slog.Logger) error {
	newPipeline, err := pipeline.ForPuzzle(puzzle)
	if err != nil {
		return err
	}

	logger.Info("starting run",
		"puzzle", puzzle,
		"inputs", len(cfg.Inputs),
		"batchSize", cfg.BatchSize,
		"saveToDB", cfg.SaveToDB,
	)

	var db *database.HistoryDB
	if cfg.SaveToDB {
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Debug("database opened", "path", db.Path())
	}

	output, closeOutput, err := openOutput(cfg, out)
	if err != nil {
		return err
	}
	defer closeOutput()

	writer := newReportWriter(cfg, output)

	factory := func(source string) *pipeline.Pipeline {
		board := cfg.BoardSettings(source)

		settings := []pipeline.SettingsOption{
			pipeline.WithLabel(board.Label),
			pipeline.WithWorkers(board.Workers),
			pipeline.WithSkipLoops(board.SkipLoops),
		}
		if cfg.Trace {
			settings = append(settings, pipeline.WithTracePath(tracePath(cfg.TraceDir, source)))
		}
		return newPipeline([]pipeline.Option{pipeline.WithLogger(logger)}, settings...)
	}

	bp := pipeline.NewBatchProcessor(puzzle, factory,
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	var (
		mu     sync.Mutex
		failed []string
	)
	start := time.Now()

	err = bp.ProcessBatchWithCallback(ctx, cfg.Inputs, func(r *model.RunReport, _ int) {
		mu.Lock()
		defer mu.Unlock()

		if !r.Succeeded() {
			failed = append(failed, r.Source)
		}

		if _, err := writer.Write(r); err != nil {
			logger.Error("report failed", "source", r.Source, "error", err)
		}

		if err := saveAndCompare(ctx, db, r, errOut, logger); err != nil {
			logger.Error("failed to save run", "source", r.Source, "error", err)
		}
	})

	logger.Info("run complete",
		"inputs", len(cfg.Inputs),
		"failed", len(failed),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)

	if err != nil {
		return err
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d of %d inputs failed: %s", len(failed), len(cfg.Inputs), strings.Join(failed, ", "))
	}
	return nil
}

// openOutput returns the report destination and a function that closes it.
func openOutput(cfg *config.Config, stdout io.Writer) (io.Writer, func(), error) {
	if cfg.ReportFile == "" {
		return stdout, func() {}, nil
	}

	// Create directories if they don't exist
	dir := filepath.Dir(cfg.ReportFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil //nolint:errcheck // Best effort close
}

// newReportWriter selects the report format from the configuration.
func newReportWriter(cfg *config.Config, output io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		opts := []report.JSONWriterOption{report.WithVersion(getVersion())}
		if len(cfg.Inputs) == 1 {
			opts = append(opts, report.WithPrettyPrint())
		}
		return report.NewJSONWriter(output, opts...)
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(output)
	default:
		return report.NewSimpleWriter(output,
			report.WithVerbose(cfg.Verbose),
			report.WithShowPositions(cfg.ShowPositions),
		)
	}
}

// saveAndCompare stores r and warns when its answers differ from the
// previous successful run on the same board.
// If db is nil, this function is a no-op.
func saveAndCompare(ctx context.Context, db *database.HistoryDB, r *model.RunReport, errOut io.Writer, logger *slog.Logger) error {
	if db == nil {
		return nil
	}

	// The run context may already be cancelled; the partial run is still recorded.
	ctx = context.WithoutCancel(ctx)

	id, err := db.SaveRun(ctx, r)
	if err != nil {
		return err
	}
	logger.Debug("run saved", "id", id, "source", r.Source, "digest", r.Digest)

	if !r.Succeeded() || r.Digest == "" {
		return nil
	}

	prev, err := db.GetLatestRun(ctx, r.Puzzle, r.Digest, id)
	if err != nil {
		return err
	}
	if prev == nil {
		return nil
	}

	c := model.Compare(prev.Ref(), model.NewRunRef(id, r), r.Puzzle, r.Digest)
	if c.Drifted() {
		logger.Warn("answers changed since previous run",
			"source", r.Source,
			"digest", r.Digest,
			"baseline", prev.ID,
			"part1_delta", c.Part1Delta,
			"part2_delta", c.Part2Delta,
		)
		fmt.Fprintf(errOut, "warning: %s: answers differ from run #%d (part 1 %+d, part 2 %+d)\n",
			r.DisplayName(), prev.ID, c.Part1Delta, c.Part2Delta)
	}
	return nil
}

// tracePath returns the trace file for source inside dir.
// Path separators are flattened so inputs with equal base names do not collide.
// Clean drops a leading "./"; other leading dots are kept.
func tracePath(dir, source string) string {
	name := "stdin"
	if source != pipeline.StdinSource {
		name = strings.TrimPrefix(filepath.ToSlash(filepath.Clean(source)), "/")
		name = strings.ReplaceAll(name, "/", "_")
	}
	return filepath.Join(dir, name+traceSuffix)
}
