package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	applog "github.com/nao1215/raygrid/internal/log"
)

// NewRootCmd creates the root command for raygrid.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "raygrid",
		Short: "Solve grid ray-casting puzzles",
		Long: `raygrid solves grid-based ray-casting puzzles.

patrol walks a guard across a board of obstacles, counting the cells it
visits and the cells where one extra obstacle would trap it in a loop.
antenna finds the antinodes produced by pairs of same-frequency antennas.

Every run is recorded in a local history database so that repeated runs
on the same board can be compared.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON lines")

	// Add subcommands
	cmd.AddCommand(NewPatrolCmd())
	cmd.AddCommand(NewAntennaCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewReplayCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getBoolFlag retrieves a flag from the command or the root's persistent flags.
func getBoolFlag(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		v, err = cmd.Root().PersistentFlags().GetBool(name)
		if err != nil {
			return false
		}
	}
	return v
}

// setupLogger creates the structured logger for a command.
func setupLogger(w io.Writer, verbose, jsonLogs bool) *slog.Logger {
	if jsonLogs {
		return applog.NewJSONLogger(w, verbose)
	}
	return applog.NewLogger(w, verbose)
}
