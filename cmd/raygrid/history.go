package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/raygrid/internal/config"
	"github.com/nao1215/raygrid/internal/database"
	"github.com/nao1215/raygrid/internal/loader"
	"github.com/nao1215/raygrid/internal/model"
	"github.com/nao1215/raygrid/internal/report"
)

// errNoHistory is returned when a board has fewer runs than a comparison needs.
var errNoHistory = errors.New("not enough runs in history")

// historyOptions holds the parsed flags of the history command.
type historyOptions struct {
	list       bool
	listBoards bool
	withRunID  int64
	showID     int64
	limit      int
	json       bool
	markdown   bool
}

// NewHistoryCmd creates the history command.
// This command lists stored runs and compares runs of the same board.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [file]",
		Short: "List stored runs and compare runs of the same board",
		Long: `History shows runs recorded by the patrol and antenna commands.

Runs are grouped by the digest of the normalized board, so a board keeps
its history when the file is moved or renamed. Given a file, history
compares its two latest successful runs and flags answer drift.

Examples:
  # List the latest runs
  raygrid history --list

  # List stored boards
  raygrid history --list-boards

  # Compare the two latest runs of a board
  raygrid history input.txt

  # Compare the latest run with run #3
  raygrid history --with-run-id 3 input.txt

  # Show a stored report
  raygrid history --id 7`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	// Listing flags
	cmd.Flags().BoolP("list", "l", false,
		"List stored runs (of the given file when one is specified)")
	cmd.Flags().BoolP("list-boards", "L", false,
		"List every stored board")
	cmd.Flags().IntP("limit", "n", 20,
		"Maximum number of runs to list (0 lists all)")

	// Selection flags
	cmd.Flags().Int64P("with-run-id", "i", 0,
		"Compare the latest run with a specific run by ID")
	cmd.Flags().Int64("id", 0,
		"Show the stored report of a run by ID")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output in Markdown format")

	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	opts, err := parseHistoryFlags(cmd)
	if err != nil {
		return err
	}
	if opts.json && opts.markdown {
		return config.ErrConflictingReportFormats
	}

	// Validate arguments before opening the database
	// so a usage error never creates an empty one.
	if len(args) == 0 && !opts.list && !opts.listBoards && opts.showID == 0 {
		return errors.New("an input file is required (use --list or --list-boards to browse history)")
	}

	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}

	db, err := database.Open(dbDir, database.Options{CreateIfNotExists: false})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	switch {
	case opts.listBoards:
		return listBoards(ctx, out, db)
	case opts.showID > 0:
		return showRun(ctx, out, db, opts)
	case len(args) == 0:
		return listRuns(ctx, out, db, opts.limit)
	}

	puzzle, digest, history, err := resolveBoard(ctx, db, args[0])
	if err != nil {
		return err
	}

	if opts.list {
		return printRuns(out, fmt.Sprintf("Run history for %s (%s)", args[0], shortHex(digest)), history)
	}

	return compareRuns(ctx, out, db, puzzle, digest, history, opts)
}

// parseHistoryFlags reads the history command flags.
func parseHistoryFlags(cmd *cobra.Command) (*historyOptions, error) {
	flags := cmd.Flags()
	opts := &historyOptions{}

	var err error
	if opts.list, err = flags.GetBool("list"); err != nil {
		return nil, err
	}
	if opts.listBoards, err = flags.GetBool("list-boards"); err != nil {
		return nil, err
	}
	if opts.limit, err = flags.GetInt("limit"); err != nil {
		return nil, err
	}
	if opts.withRunID, err = flags.GetInt64("with-run-id"); err != nil {
		return nil, err
	}
	if opts.showID, err = flags.GetInt64("id"); err != nil {
		return nil, err
	}
	if opts.json, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if opts.markdown, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	return opts, nil
}

// resolveBoard finds the board a file refers to and its successful runs.
// A readable file is identified by its digest; otherwise the newest board
// stored under that path or base name is used.
func resolveBoard(ctx context.Context, db *database.HistoryDB, path string) (model.Puzzle, string, []database.RunMetadata, error) {
	var digests []string
	if in, err := loader.LoadFile(path); err == nil {
		digests = []string{in.Digest}
	} else {
		found, err := db.FindDigests(ctx, path)
		if err != nil {
			return "", "", nil, err
		}
		digests = found
	}
	if len(digests) == 0 {
		return "", "", nil, fmt.Errorf("no runs found for %s", path)
	}
	digest := digests[0]

	var (
		best    model.Puzzle
		history []database.RunMetadata
	)
	for _, puzzle := range []model.Puzzle{model.PuzzlePatrol, model.PuzzleAntenna} {
		runs, err := db.GetRunHistory(ctx, puzzle, digest)
		if err != nil {
			return "", "", nil, err
		}
		if len(runs) == 0 {
			continue
		}
		if history == nil || runs[0].Timestamp.After(history[0].Timestamp) {
			best, history = puzzle, runs
		}
	}
	if history == nil {
		return "", "", nil, fmt.Errorf("no successful runs found for %s", path)
	}
	return best, digest, history, nil
}

// compareRuns compares the latest run with the previous one or with the
// run selected by --with-run-id.
func compareRuns(ctx context.Context, out io.Writer, db *database.HistoryDB, puzzle model.Puzzle, digest string, history []database.RunMetadata, opts *historyOptions) error {
	current := history[0].Ref()

	var baseline model.RunRef
	if opts.withRunID > 0 {
		if opts.withRunID == current.ID {
			return fmt.Errorf("run ID %d is the latest run; choose an earlier run to compare with", opts.withRunID)
		}
		r, err := db.GetRunByID(ctx, opts.withRunID)
		if err != nil {
			return fmt.Errorf("failed to get run with ID %d: %w", opts.withRunID, err)
		}
		if r == nil {
			return fmt.Errorf("run with ID %d not found", opts.withRunID)
		}
		// Validate that the run belongs to the same board
		if r.Digest != digest || r.Puzzle != puzzle {
			return fmt.Errorf("run ID %d was made on a different board", opts.withRunID)
		}
		if !r.Succeeded() {
			return fmt.Errorf("run ID %d did not finish and cannot be compared", opts.withRunID)
		}
		baseline = model.NewRunRef(opts.withRunID, r)
	} else {
		if len(history) < 2 {
			return fmt.Errorf("%w: at least 2 successful runs are required for comparison (found %d)", errNoHistory, len(history))
		}
		baseline = history[1].Ref()
	}

	_, err := historyWriter(out, opts).WriteComparison(model.Compare(baseline, current, puzzle, digest))
	return err
}

// showRun writes a stored report.
func showRun(ctx context.Context, out io.Writer, db *database.HistoryDB, opts *historyOptions) error {
	r, err := db.GetRunByID(ctx, opts.showID)
	if err != nil {
		return fmt.Errorf("failed to get run with ID %d: %w", opts.showID, err)
	}
	if r == nil {
		return fmt.Errorf("run with ID %d not found", opts.showID)
	}

	_, err = historyWriter(out, opts).Write(r)
	return err
}

// historyWriter selects the output format.
func historyWriter(out io.Writer, opts *historyOptions) report.Writer {
	switch {
	case opts.json:
		return report.NewJSONWriter(out, report.WithPrettyPrint())
	case opts.markdown:
		return report.NewMarkdownWriter(out)
	default:
		return report.NewSimpleWriter(out, report.WithShowPositions(true))
	}
}

// listRuns lists the newest runs across all boards.
func listRuns(ctx context.Context, out io.Writer, db *database.HistoryDB, limit int) error {
	runs, err := db.ListRuns(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	return printRuns(out, "Stored runs", runs)
}

// printRuns writes a table of runs.
func printRuns(out io.Writer, title string, runs []database.RunMetadata) error {
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs found in the history database.")
		fmt.Fprintln(out, "\nUse 'raygrid patrol <file>' or 'raygrid antenna <file>' to record runs.")
		return nil
	}

	fmt.Fprintf(out, "%s (%d runs):\n\n", title, len(runs))
	fmt.Fprintf(out, "  %-6s  %-19s  %-7s  %-12s  %10s  %10s  %8s  %s\n",
		"ID", "Date", "Puzzle", "Digest", "Part 1", "Part 2", "Elapsed", "Source")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 96))

	for _, r := range runs {
		part2 := strconv.Itoa(r.Part2)
		switch {
		case !r.Succeeded:
			part2 = "failed"
		case !r.Part2Solved:
			part2 = "skipped"
		}
		fmt.Fprintf(out, "  %-6d  %-19s  %-7s  %-12s  %10d  %10s  %6dms  %s\n",
			r.ID,
			r.Timestamp.Format("2006-01-02 15:04:05"),
			r.Puzzle,
			shortHex(r.Digest),
			r.Part1,
			part2,
			r.ElapsedMS,
			r.Source,
		)
	}

	fmt.Fprintln(out, "\nUse 'raygrid history <file>' to compare the latest two runs of a board.")
	return nil
}

// listBoards lists every stored board.
func listBoards(ctx context.Context, out io.Writer, db *database.HistoryDB) error {
	boards, err := db.ListBoards(ctx)
	if err != nil {
		return err
	}

	if len(boards) == 0 {
		fmt.Fprintln(out, "No boards found in the history database.")
		return nil
	}

	fmt.Fprintf(out, "Stored boards (%d):\n\n", len(boards))
	for _, b := range boards {
		fmt.Fprintf(out, "  • %s  %dx%d  %d runs  %s\n", shortHex(b.Digest), b.Height, b.Width, b.Runs, b.LastSource)
	}
	return nil
}

// shortHex abbreviates a digest for tables.
func shortHex(digest string) string {
	if len(digest) > 12 {
		return digest[:12]
	}
	return digest
}
