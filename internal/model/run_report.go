package model

import (
	"time"

	"github.com/nao1215/raygrid/internal/antenna"
	"github.com/nao1215/raygrid/internal/grid"
	"github.com/nao1215/raygrid/internal/loader"
)

// Puzzle names the kind of board a run solved.
type Puzzle string

const (
	// PuzzlePatrol is the guard patrol puzzle.
	PuzzlePatrol Puzzle = "patrol"

	// PuzzleAntenna is the antenna antinode puzzle.
	PuzzleAntenna Puzzle = "antenna"
)

// String returns the puzzle name.
func (p Puzzle) String() string {
	return string(p)
}

// IsValid reports whether p is a known puzzle.
func (p Puzzle) IsValid() bool {
	return p == PuzzlePatrol || p == PuzzleAntenna
}

// RunReport is the result of solving one input file.
// Pipeline steps fill it in; writers and the history database read it.
type RunReport struct {
	// === Identity ===

	// Puzzle is the kind of board solved.
	Puzzle Puzzle `json:"puzzle"`

	// Source is the input path as given on the command line.
	Source string `json:"source"`

	// Label is an optional display name from the board configuration.
	Label string `json:"label,omitempty"`

	// Digest is the SHA3-256 of the normalized input.
	Digest string `json:"digest"`

	// DateRun is when the run started.
	DateRun time.Time `json:"date_run"`

	// ElapsedMS is the wall time of the pipeline in milliseconds.
	ElapsedMS int64 `json:"elapsed_ms"`

	// Height and Width are the board dimensions.
	Height int `json:"height"`
	Width  int `json:"width"`

	// === Results ===

	// Patrol is set for patrol runs.
	Patrol *PatrolSummary `json:"patrol,omitempty"`

	// Antenna is set for antenna runs.
	Antenna *AntennaSummary `json:"antenna,omitempty"`

	// === Execution ===

	// PerformedSteps lists the pipeline steps that ran, in order.
	PerformedSteps []string `json:"performed_steps"`

	// StepMS is the wall time of each performed step in milliseconds.
	StepMS map[string]int64 `json:"step_ms,omitempty"`

	// TimedOut is true when the run was cancelled before finishing.
	TimedOut bool `json:"timed_out"`

	// Error is the first step failure, if any.
	Error error `json:"-"`

	// ErrorMessage is Error rendered for serialization.
	ErrorMessage string `json:"error,omitempty"`

	// === Working state (not serialized) ===

	// Input holds the loaded rows.
	Input *loader.Input `json:"-"`

	// Board is the parsed guard board.
	Board *grid.Board `json:"-"`

	// Markers are the parsed antennas.
	Markers *antenna.Markers `json:"-"`
}

// PatrolSummary holds the guard puzzle answers.
type PatrolSummary struct {
	// Start and Facing are the guard's initial state.
	Start  grid.Position  `json:"start"`
	Facing grid.Direction `json:"facing"`

	// Obstacles is the number of obstacles on the unmodified board.
	Obstacles int `json:"obstacles"`

	// Visited is the Part 1 answer: distinct cells the guard stood on.
	Visited int `json:"visited"`

	// Steps is the number of straight runs before the guard left.
	Steps int `json:"steps"`

	// Exit is the first off-board cell the guard reached.
	Exit grid.Position `json:"exit"`

	// LoopsChecked is false when the obstacle search was skipped.
	LoopsChecked bool `json:"loops_checked"`

	// LoopObstacles is the Part 2 answer: cells where one extra obstacle
	// traps the guard.
	LoopObstacles int `json:"loop_obstacles"`

	// LoopTrials is the number of candidate cells tried.
	LoopTrials int `json:"loop_trials"`

	// LoopPositions lists the trapping cells in row-major order.
	LoopPositions []grid.Position `json:"loop_positions,omitempty"`
}

// AntennaSummary holds the antenna puzzle answers.
type AntennaSummary struct {
	// Frequencies is the number of distinct labels.
	Frequencies int `json:"frequencies"`

	// Antennas is the total number of markers.
	Antennas int `json:"antennas"`

	// Antinodes is the Part 1 answer.
	Antinodes int `json:"antinodes"`

	// HarmonicAntinodes is the Part 2 answer.
	HarmonicAntinodes int `json:"harmonic_antinodes"`

	// ByFrequency breaks the answers down per label. Sets of different
	// labels may overlap, so the columns do not sum to the totals.
	ByFrequency []FrequencyStat `json:"by_frequency,omitempty"`
}

// FrequencyStat is the per-label breakdown of an antenna run.
type FrequencyStat struct {
	Label     string `json:"label"`
	Antennas  int    `json:"antennas"`
	Antinodes int    `json:"antinodes"`
	Harmonics int    `json:"harmonics"`
}

// NewRunReport creates an empty report for source.
func NewRunReport(puzzle Puzzle, source string) *RunReport {
	return &RunReport{
		Puzzle:         puzzle,
		Source:         source,
		DateRun:        time.Now().UTC(),
		PerformedSteps: make([]string, 0),
	}
}

// Answers returns the Part 1 and Part 2 answers.
// Missing results read as zero.
func (r *RunReport) Answers() (part1, part2 int) {
	switch {
	case r.Patrol != nil:
		return r.Patrol.Visited, r.Patrol.LoopObstacles
	case r.Antenna != nil:
		return r.Antenna.Antinodes, r.Antenna.HarmonicAntinodes
	default:
		return 0, 0
	}
}

// Part2Solved reports whether the Part 2 answer was computed.
// Patrol runs with the obstacle search skipped read as unsolved.
func (r *RunReport) Part2Solved() bool {
	switch {
	case r.Patrol != nil:
		return r.Patrol.LoopsChecked
	case r.Antenna != nil:
		return true
	default:
		return false
	}
}

// Elapsed returns ElapsedMS as a duration.
func (r *RunReport) Elapsed() time.Duration {
	return time.Duration(r.ElapsedMS) * time.Millisecond
}

// DisplayName returns the label if set, otherwise the source.
func (r *RunReport) DisplayName() string {
	if r.Label != "" {
		return r.Label
	}
	return r.Source
}

// Succeeded reports whether the run finished without error or timeout.
func (r *RunReport) Succeeded() bool {
	return r.Error == nil && r.ErrorMessage == "" && !r.TimedOut
}

// SetError records err on the report.
func (r *RunReport) SetError(err error) {
	if err == nil {
		return
	}
	r.Error = err
	r.ErrorMessage = err.Error()
}
