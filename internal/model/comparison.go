package model

import "time"

// RunRef is the part of a stored run shown in comparisons.
type RunRef struct {
	ID        int64     `json:"id"`
	Source    string    `json:"source"`
	DateRun   time.Time `json:"date_run"`
	Part1     int       `json:"part1"`
	Part2     int       `json:"part2"`
	ElapsedMS int64     `json:"elapsed_ms"`

	// Part2Solved is false when the run skipped the obstacle search.
	Part2Solved bool `json:"part2_solved"`
}

// NewRunRef summarizes a stored report.
func NewRunRef(id int64, r *RunReport) RunRef {
	part1, part2 := r.Answers()
	return RunRef{
		ID:        id,
		Source:    r.Source,
		DateRun:   r.DateRun,
		Part1:     part1,
		Part2:     part2,
		ElapsedMS: r.ElapsedMS,

		Part2Solved: r.Part2Solved(),
	}
}

// Comparison is the difference between two runs of the same board.
type Comparison struct {
	Puzzle   Puzzle `json:"puzzle"`
	Digest   string `json:"digest"`
	Baseline RunRef `json:"baseline"`
	Current  RunRef `json:"current"`

	// Part1Delta and Part2Delta are Current minus Baseline.
	// Part2Delta stays zero unless Part2Compared.
	Part1Delta int `json:"part1_delta"`
	Part2Delta int `json:"part2_delta"`

	// Part2Compared is true when both runs solved Part 2.
	Part2Compared bool `json:"part2_compared"`

	// ElapsedDeltaMS is Current minus Baseline wall time.
	ElapsedDeltaMS int64 `json:"elapsed_delta_ms"`
}

// Compare builds the comparison between baseline and current.
// A Part 2 answer from a run that skipped it is not compared.
func Compare(baseline, current RunRef, puzzle Puzzle, digest string) *Comparison {
	c := &Comparison{
		Puzzle:         puzzle,
		Digest:         digest,
		Baseline:       baseline,
		Current:        current,
		Part1Delta:     current.Part1 - baseline.Part1,
		Part2Compared:  baseline.Part2Solved && current.Part2Solved,
		ElapsedDeltaMS: current.ElapsedMS - baseline.ElapsedMS,
	}
	if c.Part2Compared {
		c.Part2Delta = current.Part2 - baseline.Part2
	}
	return c
}

// Drifted reports whether the answers changed between the two runs.
// The puzzles are deterministic, so drift on the same digest means the
// solver itself changed.
func (c *Comparison) Drifted() bool {
	return c.Part1Delta != 0 || c.Part2Delta != 0
}
