package report

import (
	"github.com/nao1215/raygrid/internal/grid"
	"github.com/nao1215/raygrid/internal/model"
)

const (
	// DefaultMaxBoardSide is the largest board dimension rendered in reports.
	DefaultMaxBoardSide = 40

	// loopMarkGlyph marks cells where an extra obstacle traps the guard.
	loopMarkGlyph = 'O'
)

// boardRows renders the patrol board with trapping cells marked.
// It returns nil when there is nothing to draw or the board is too large.
func boardRows(report *model.RunReport, maxSide int) []string {
	b := report.Board
	if b == nil || b.Height() > maxSide || b.Width() > maxSide {
		return nil
	}

	rows := b.Rows()
	if report.Patrol == nil {
		return rows
	}

	cells := make([][]rune, len(rows))
	for i, row := range rows {
		cells[i] = []rune(row)
	}
	for _, p := range report.Patrol.LoopPositions {
		if b.InBounds(p) && b.Get(p).Kind == grid.CellEmpty {
			cells[p.Row][p.Col] = loopMarkGlyph
		}
	}
	for i := range cells {
		rows[i] = string(cells[i])
	}
	return rows
}

// statusText describes how a run finished.
func statusText(report *model.RunReport) string {
	switch {
	case report.TimedOut:
		return "TIMED OUT (partial results)"
	case report.ErrorMessage != "":
		return "ERROR - " + report.ErrorMessage
	default:
		return "Complete"
	}
}

// positionList renders positions as "(r,c)" strings.
func positionList(ps []grid.Position) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.String()
	}
	return out
}
