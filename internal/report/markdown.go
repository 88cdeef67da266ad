package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/flowchart"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/raygrid/internal/model"
)

// MarkdownWriter outputs reports in GitHub Flavored Markdown.
// Answers go in tables; per-frequency antinodes and pipeline steps are
// drawn as mermaid charts.
type MarkdownWriter struct {
	baseWriter

	// maxBoardSide limits board rendering.
	maxBoardSide int
}

// MarkdownWriterOption configures a MarkdownWriter.
type MarkdownWriterOption func(*MarkdownWriter)

// WithMaxBoardSide sets the largest board dimension that is rendered.
// Zero disables board rendering.
func WithMaxBoardSide(n int) MarkdownWriterOption {
	return func(w *MarkdownWriter) {
		w.maxBoardSide = n
	}
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, opts ...MarkdownWriterOption) *MarkdownWriter {
	w := &MarkdownWriter{
		baseWriter:   newBaseWriter(output),
		maxBoardSide: DefaultMaxBoardSide,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the run report in Markdown format.
func (w *MarkdownWriter) Write(report *model.RunReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)

	switch {
	case report.Patrol != nil:
		w.writePatrol(md, report)
	case report.Antenna != nil:
		w.writeAntenna(md, report.Antenna)
	}

	w.writeSteps(md, report)
	w.writeAlert(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteComparison outputs the comparison in Markdown format.
func (w *MarkdownWriter) WriteComparison(c *model.Comparison) (int, error) {
	md := markdown.NewMarkdown(w.output)

	part2Delta := "not compared"
	if c.Part2Compared {
		part2Delta = fmt.Sprintf("%+d", c.Part2Delta)
	}

	md.H1("Run Comparison")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"", "Baseline", "Current", "Delta"},
		Rows: [][]string{
			{"Run", "#" + strconv.FormatInt(c.Baseline.ID, 10), "#" + strconv.FormatInt(c.Current.ID, 10), "-"},
			{"Date", c.Baseline.DateRun.Format("2006-01-02 15:04:05 MST"), c.Current.DateRun.Format("2006-01-02 15:04:05 MST"), "-"},
			{"Part 1", strconv.Itoa(c.Baseline.Part1), strconv.Itoa(c.Current.Part1), fmt.Sprintf("%+d", c.Part1Delta)},
			{"Part 2", strconv.Itoa(c.Baseline.Part2), strconv.Itoa(c.Current.Part2), part2Delta},
			{"Elapsed (ms)", strconv.FormatInt(c.Baseline.ElapsedMS, 10), strconv.FormatInt(c.Current.ElapsedMS, 10), fmt.Sprintf("%+d", c.ElapsedDeltaMS)},
		},
	})
	md.PlainText("")

	if c.Drifted() {
		md.Cautionf("Answers changed on board `%s` although the input is identical.", shortDigest(c.Digest))
	} else {
		md.Tip("Answers unchanged.")
	}
	md.PlainText("")
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.RunReport) {
	md.H1f("%s Report", titleCase(report.Puzzle.String()))
	md.PlainText("")

	rows := [][]string{
		{"Input", "`" + report.DisplayName() + "`"},
		{"Run Date", report.DateRun.Format("2006-01-02 15:04:05 MST")},
		{"Status", w.getStatusText(report)},
	}
	if report.Digest != "" {
		rows = append(rows, []string{"Digest", "`" + shortDigest(report.Digest) + "`"})
	}
	if report.Height > 0 {
		rows = append(rows, []string{"Size", fmt.Sprintf("%d x %d", report.Height, report.Width)})
	}
	rows = append(rows, []string{"Elapsed", report.Elapsed().String()})

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// getStatusText returns the status text based on report state.
func (w *MarkdownWriter) getStatusText(report *model.RunReport) string {
	switch {
	case report.TimedOut:
		return "⚠️ Timed Out (partial results)"
	case report.ErrorMessage != "":
		return "❌ Error - " + report.ErrorMessage
	default:
		return "✅ Complete"
	}
}

// writePatrol writes the guard answers, details and the marked board.
func (w *MarkdownWriter) writePatrol(md *markdown.Markdown, report *model.RunReport) {
	p := report.Patrol

	part2 := "skipped"
	if p.LoopsChecked {
		part2 = "**" + strconv.Itoa(p.LoopObstacles) + "**"
	}

	md.H2("Answers")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Part", "Question", "Answer"},
		Rows: [][]string{
			{"1", "Distinct cells visited", "**" + strconv.Itoa(p.Visited) + "**"},
			{"2", "Cells where one obstacle causes a loop", part2},
		},
	})
	md.PlainText("")

	md.H2("Patrol")
	md.PlainText("")
	details := [][]string{
		{"Start", "`" + p.Start.String() + "` facing " + p.Facing.String()},
		{"Obstacles", strconv.Itoa(p.Obstacles)},
		{"Straight runs", strconv.Itoa(p.Steps)},
		{"Exit", "`" + p.Exit.String() + "`"},
	}
	if p.LoopsChecked {
		details = append(details, []string{"Obstacle trials", strconv.Itoa(p.LoopTrials)})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   details,
	})
	md.PlainText("")

	if len(p.LoopPositions) > 0 {
		md.Details(
			fmt.Sprintf("Trapping cells (%d)", len(p.LoopPositions)),
			strings.Join(positionList(p.LoopPositions), ", "),
		)
		md.PlainText("")
	}

	if rows := boardRows(report, w.maxBoardSide); rows != nil {
		md.H3("Board")
		md.PlainText("")
		md.CodeBlocks(markdown.SyntaxHighlightText, strings.Join(rows, "\n"))
		md.PlainText("")
	}
}

// writeAntenna writes the antenna answers and the per-frequency breakdown.
func (w *MarkdownWriter) writeAntenna(md *markdown.Markdown, a *model.AntennaSummary) {
	md.H2("Answers")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Part", "Question", "Answer"},
		Rows: [][]string{
			{"1", "Antinodes", "**" + strconv.Itoa(a.Antinodes) + "**"},
			{"2", "Harmonic antinodes", "**" + strconv.Itoa(a.HarmonicAntinodes) + "**"},
		},
	})
	md.PlainText("")

	if len(a.ByFrequency) == 0 {
		return
	}

	md.H2("Frequencies")
	md.PlainText("")
	rows := make([][]string, len(a.ByFrequency))
	for i, f := range a.ByFrequency {
		rows[i] = []string{
			"`" + f.Label + "`",
			strconv.Itoa(f.Antennas),
			strconv.Itoa(f.Antinodes),
			strconv.Itoa(f.Harmonics),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Frequency", "Antennas", "Antinodes", "Harmonic"},
		Rows:   rows,
	})
	md.PlainText("")

	w.writePieChart(md, a)
}

// writePieChart writes a mermaid pie chart of harmonic antinodes per frequency.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, a *model.AntennaSummary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Harmonic Antinodes by Frequency"),
		piechart.WithShowData(true),
	)

	drawn := 0
	for _, f := range a.ByFrequency {
		if f.Harmonics > 0 {
			chart.LabelAndIntValue(f.Label, uint64(f.Harmonics)) //nolint:gosec // counts are never negative
			drawn++
		}
	}
	if drawn == 0 {
		return
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeSteps writes a mermaid flowchart of the pipeline steps that ran.
func (w *MarkdownWriter) writeSteps(md *markdown.Markdown, report *model.RunReport) {
	if len(report.PerformedSteps) == 0 {
		return
	}

	chart := flowchart.NewFlowchart(io.Discard, flowchart.WithOrientalLeftToRight())
	for i, step := range report.PerformedSteps {
		text := step
		if ms, ok := report.StepMS[step]; ok {
			text = fmt.Sprintf("%s %d ms", step, ms)
		}
		chart.RoundEdgesNode(nodeID(i), text)
		if i > 0 {
			chart.LinkWithArrowHead(nodeID(i-1), nodeID(i))
		}
	}

	md.H2("Pipeline")
	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an alert summarizing how the run ended.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.RunReport) {
	switch {
	case report.TimedOut:
		md.Warning("The run was cancelled before finishing. Answers may be incomplete.")
	case report.ErrorMessage != "":
		md.Cautionf("The run failed: %s", report.ErrorMessage)
	case report.Patrol != nil && !report.Patrol.LoopsChecked:
		md.Note("The obstacle search was skipped for this board.")
	default:
		md.Tip("Both parts solved.")
	}
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by [raygrid](https://github.com/nao1215/raygrid)*")
}

// nodeID names the i-th flowchart node.
func nodeID(i int) string {
	return "s" + strconv.Itoa(i)
}

// titleCase upper-cases the first letter of an ASCII word.
func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
