package report

import (
	"io"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/nao1215/raygrid/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display.
// Numbers are grouped by thousands so large answers stay readable.
type SimpleWriter struct {
	baseWriter

	// printer formats numbers with locale-aware grouping.
	printer *message.Printer

	// showPositions lists every trapping cell.
	showPositions bool

	// verbose adds the per-frequency breakdown and the rendered board.
	verbose bool

	// maxBoardSide limits board rendering in verbose mode.
	maxBoardSide int
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowPositions lists the cells where an extra obstacle traps the guard.
func WithShowPositions(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showPositions = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// WithLanguage sets the language used for number grouping.
func WithLanguage(tag language.Tag) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.printer = message.NewPrinter(tag)
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter:   newBaseWriter(output),
		printer:      message.NewPrinter(language.English),
		maxBoardSide: DefaultMaxBoardSide,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the run report in human-readable format.
func (w *SimpleWriter) Write(report *model.RunReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)

	switch {
	case report.Patrol != nil:
		w.writePatrol(&sb, report)
	case report.Antenna != nil:
		w.writeAntenna(&sb, report.Antenna)
	}

	w.writeFooter(&sb, report)

	return w.output.Write([]byte(sb.String()))
}

// WriteComparison outputs the difference between two runs.
func (w *SimpleWriter) WriteComparison(c *model.Comparison) (int, error) {
	var sb strings.Builder

	w.rule(&sb, "=")
	sb.WriteString("                       RUN COMPARISON\n")
	w.rule(&sb, "=")
	sb.WriteString("\n")

	sb.WriteString(w.printer.Sprintf("Puzzle:   %s\n", c.Puzzle))
	sb.WriteString(w.printer.Sprintf("Digest:   %s\n", shortDigest(c.Digest)))
	sb.WriteString(w.printer.Sprintf("Baseline: #%d %s\n", c.Baseline.ID, c.Baseline.DateRun.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(w.printer.Sprintf("Current:  #%d %s\n\n", c.Current.ID, c.Current.DateRun.Format("2006-01-02 15:04:05 MST")))

	sb.WriteString(w.printer.Sprintf("  Part 1:  %d -> %d (%+d)\n", c.Baseline.Part1, c.Current.Part1, c.Part1Delta))
	if c.Part2Compared {
		sb.WriteString(w.printer.Sprintf("  Part 2:  %d -> %d (%+d)\n", c.Baseline.Part2, c.Current.Part2, c.Part2Delta))
	} else {
		sb.WriteString("  Part 2:  not compared (obstacle search skipped)\n")
	}
	sb.WriteString(w.printer.Sprintf("  Elapsed: %dms -> %dms (%+dms)\n\n", c.Baseline.ElapsedMS, c.Current.ElapsedMS, c.ElapsedDeltaMS))

	if c.Drifted() {
		sb.WriteString("  [!] Answers changed on an identical board\n\n")
	} else {
		sb.WriteString("  [=] Answers unchanged\n\n")
	}

	return w.output.Write([]byte(sb.String()))
}

// rule writes a 70 character separator line.
func (w *SimpleWriter) rule(sb *strings.Builder, ch string) {
	sb.WriteString(strings.Repeat(ch, 70))
	sb.WriteString("\n")
}

// writeHeader writes the report header with run information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.RunReport) {
	sb.WriteString("\n")
	w.rule(sb, "=")
	sb.WriteString(w.printer.Sprintf("                         %s REPORT\n", strings.ToUpper(report.Puzzle.String())))
	w.rule(sb, "=")
	sb.WriteString("\n")

	sb.WriteString(w.printer.Sprintf("Input:    %s\n", report.DisplayName()))
	if report.Digest != "" {
		sb.WriteString(w.printer.Sprintf("Digest:   %s\n", shortDigest(report.Digest)))
	}
	sb.WriteString(w.printer.Sprintf("Run Date: %s\n", report.DateRun.Format("2006-01-02 15:04:05 MST")))
	if report.Height > 0 {
		sb.WriteString(w.printer.Sprintf("Size:     %d x %d\n", report.Height, report.Width))
	}
	sb.WriteString(w.printer.Sprintf("Status:   %s\n\n", statusText(report)))
}

// writePatrol writes the guard puzzle answers.
func (w *SimpleWriter) writePatrol(sb *strings.Builder, report *model.RunReport) {
	p := report.Patrol

	w.rule(sb, "-")
	sb.WriteString("ANSWERS\n")
	w.rule(sb, "-")
	sb.WriteString("\n")

	sb.WriteString(w.printer.Sprintf("  Part 1 (visited cells):  %d\n", p.Visited))
	if p.LoopsChecked {
		sb.WriteString(w.printer.Sprintf("  Part 2 (loop obstacles): %d\n", p.LoopObstacles))
	} else {
		sb.WriteString("  Part 2 (loop obstacles): skipped\n")
	}
	sb.WriteString("\n")

	sb.WriteString(w.printer.Sprintf("  Start:     %s facing %s\n", p.Start, p.Facing))
	sb.WriteString(w.printer.Sprintf("  Obstacles: %d\n", p.Obstacles))
	sb.WriteString(w.printer.Sprintf("  Runs:      %d\n", p.Steps))
	sb.WriteString(w.printer.Sprintf("  Exit:      %s\n", p.Exit))
	if p.LoopsChecked {
		sb.WriteString(w.printer.Sprintf("  Trials:    %d\n", p.LoopTrials))
	}
	sb.WriteString("\n")

	if w.showPositions && len(p.LoopPositions) > 0 {
		sb.WriteString("  Trapping cells:\n")
		for _, pos := range positionList(p.LoopPositions) {
			sb.WriteString("    [+] " + pos + "\n")
		}
		sb.WriteString("\n")
	}

	if w.verbose {
		if rows := boardRows(report, w.maxBoardSide); rows != nil {
			for _, row := range rows {
				sb.WriteString("  " + row + "\n")
			}
			sb.WriteString("\n")
		}
	}
}

// writeAntenna writes the antenna puzzle answers.
func (w *SimpleWriter) writeAntenna(sb *strings.Builder, a *model.AntennaSummary) {
	w.rule(sb, "-")
	sb.WriteString("ANSWERS\n")
	w.rule(sb, "-")
	sb.WriteString("\n")

	sb.WriteString(w.printer.Sprintf("  Part 1 (antinodes):          %d\n", a.Antinodes))
	sb.WriteString(w.printer.Sprintf("  Part 2 (harmonic antinodes): %d\n\n", a.HarmonicAntinodes))
	sb.WriteString(w.printer.Sprintf("  Frequencies: %d\n", a.Frequencies))
	sb.WriteString(w.printer.Sprintf("  Antennas:    %d\n\n", a.Antennas))

	if w.verbose && len(a.ByFrequency) > 0 {
		sb.WriteString("  FREQ  ANTENNAS  ANTINODES  HARMONICS\n")
		for _, f := range a.ByFrequency {
			sb.WriteString(w.printer.Sprintf("  %-4s  %8d  %9d  %9d\n", f.Label, f.Antennas, f.Antinodes, f.Harmonics))
		}
		sb.WriteString("\n")
	}
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder, report *model.RunReport) {
	w.rule(sb, "=")
	sb.WriteString(w.printer.Sprintf("Elapsed: %v\n", report.Elapsed()))
	if w.verbose {
		for _, step := range report.PerformedSteps {
			if ms, ok := report.StepMS[step]; ok {
				sb.WriteString(w.printer.Sprintf("  %-14s %d ms\n", step, ms))
			}
		}
	}
	w.rule(sb, "=")
}

// shortDigest abbreviates a hex digest for display.
func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
