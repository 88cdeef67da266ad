package antenna

import (
	"github.com/nao1215/raygrid/internal/grid"
)

// Result holds the antinodes found under both rules.
type Result struct {
	// Antinodes is the set produced by the single-offset rule.
	Antinodes grid.PositionSet

	// Harmonics is the set produced by the harmonic rule.
	Harmonics grid.PositionSet
}

// newResult returns an empty result.
func newResult() *Result {
	return &Result{
		Antinodes: grid.NewPositionSet(),
		Harmonics: grid.NewPositionSet(),
	}
}

// Find computes the antinodes of every frequency in m.
func Find(m *Markers) *Result {
	r := newResult()
	for _, label := range m.Labels() {
		r.collect(m, m.byFreq[label])
	}
	return r
}

// FindLabel computes the antinodes of a single frequency.
// Unknown labels produce an empty result.
func FindLabel(m *Markers, label rune) *Result {
	r := newResult()
	r.collect(m, m.byFreq[label])
	return r
}

// collect adds the antinodes of every ordered pair in positions.
func (r *Result) collect(m *Markers, positions []grid.Position) {
	for i, a := range positions {
		for j, b := range positions {
			if i == j || a == b {
				continue
			}
			offset := a.Sub(b)

			if single := a.Add(offset); m.InBounds(single) {
				r.Antinodes.Add(single)
			}

			// Each multiple moves further from a along a fixed ray, so the
			// first out-of-bounds point ends the run.
			for mult := 0; ; mult++ {
				p := a.Add(offset.Scale(mult))
				if !m.InBounds(p) {
					break
				}
				r.Harmonics.Add(p)
			}
		}
	}
}
