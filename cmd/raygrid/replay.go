package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/raygrid/internal/config"
	"github.com/nao1215/raygrid/internal/database"
	"github.com/nao1215/raygrid/internal/grid"
	"github.com/nao1215/raygrid/internal/trace"
)

// walkedGlyph marks cells the guard walked through in replayed boards.
const walkedGlyph = 'X'

// NewReplayCmd creates the replay command.
func NewReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <trace-file>",
		Short: "Print a recorded patrol trace",
		Long: `Replay reads a trace written by 'raygrid patrol --trace' and prints
every straight run of the guard.

With --board, the board is loaded from the history database and drawn with
the walked cells marked.

Examples:
  # Print the steps
  raygrid replay ~/.cache/raygrid/traces/input.txt.trace.zst

  # Draw the walked path
  raygrid replay --board input.txt.trace.zst

  # Re-emit the steps as JSON lines
  raygrid replay --json input.txt.trace.zst`,
		Args: cobra.ExactArgs(1),
		RunE: runReplayCmd,
	}

	cmd.Flags().Bool("board", false,
		"Draw the board from the history database with walked cells marked")
	cmd.Flags().BoolP("json", "j", false,
		"Output the steps as JSON lines")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")

	return cmd
}

// runReplayCmd executes the replay command.
func runReplayCmd(cmd *cobra.Command, args []string) error {
	showBoard, err := cmd.Flags().GetBool("board")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	hdr, records, err := trace.Read(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if jsonOutput {
		enc := json.NewEncoder(out)
		for _, rec := range records {
			if err := enc.Encode(rec); err != nil {
				return err
			}
		}
		return nil
	}

	printTrace(out, hdr, records)

	if !showBoard {
		return nil
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

	text, err := db.LoadBoardText(cmd.Context(), hdr.Digest)
	if err != nil {
		return err
	}
	rows, err := walkedRows(strings.Split(text, "\n"), records)
	if err != nil {
		return err
	}

	fmt.Fprintln(out)
	for _, row := range rows {
		fmt.Fprintln(out, "  "+row)
	}
	return nil
}

// printTrace writes the header and one line per straight run.
func printTrace(out io.Writer, hdr trace.Header, records []trace.Record) {
	fmt.Fprintf(out, "Trace of %s (%s, %dx%d), %d runs\n\n",
		hdr.Source, shortHex(hdr.Digest), hdr.Height, hdr.Width, len(records))

	for _, rec := range records {
		if rec.Exited {
			fmt.Fprintf(out, "  %4d  %-9s %-5s -> leaves at %s  (%d cells)\n",
				rec.Index, rec.From, rec.Facing, rec.Next, len(rec.Path))
			continue
		}
		fmt.Fprintf(out, "  %4d  %-9s %-5s -> %-9s turn %-5s  (%d cells)\n",
			rec.Index, rec.From, rec.Facing, rec.Next, rec.NextFacing, len(rec.Path))
	}
}

// walkedRows draws the board with every walked cell marked.
// Obstacles and the guard's start keep their glyphs.
func walkedRows(lines []string, records []trace.Record) ([]string, error) {
	board, err := grid.Parse(lines)
	if err != nil {
		return nil, err
	}

	rows := board.Rows()
	cells := make([][]rune, len(rows))
	for i, row := range rows {
		cells[i] = []rune(row)
	}
	for _, rec := range records {
		for _, p := range rec.Path {
			if board.InBounds(p) && board.Get(p).Kind == grid.CellEmpty {
				cells[p.Row][p.Col] = walkedGlyph
			}
		}
	}
	for i := range cells {
		rows[i] = string(cells[i])
	}
	return rows, nil
}
