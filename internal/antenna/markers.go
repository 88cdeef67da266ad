package antenna

import (
	"fmt"
	"sort"

	"github.com/nao1215/raygrid/internal/grid"
)

// Markers holds antenna positions grouped by frequency label.
// It is immutable once parsed.
type Markers struct {
	height int
	width  int
	byFreq map[rune][]grid.Position
}

// isLabel reports whether r is a valid frequency label.
func isLabel(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// ParseMarkers reads an antenna map.
// It fails with a grid.FormatError on ragged input or unexpected characters.
func ParseMarkers(lines []string) (*Markers, error) {
	width, err := grid.ValidateRows(lines)
	if err != nil {
		return nil, err
	}

	m := &Markers{
		height: len(lines),
		width:  width,
		byFreq: make(map[rune][]grid.Position),
	}

	for row, line := range lines {
		for col := 0; col < len(line); col++ {
			ch := rune(line[col])
			switch {
			case ch == grid.EmptyGlyph:
			case isLabel(ch):
				m.byFreq[ch] = append(m.byFreq[ch], grid.Pos(row, col))
			default:
				return nil, &grid.FormatError{
					Row:    row,
					Reason: fmt.Sprintf("unexpected character %q at column %d", ch, col),
				}
			}
		}
	}
	return m, nil
}

// NewMarkers builds markers from an explicit label mapping.
// Positions outside the height x width area are rejected.
func NewMarkers(height, width int, byFreq map[rune][]grid.Position) (*Markers, error) {
	if height <= 0 || width <= 0 {
		return nil, &grid.FormatError{Row: -1, Reason: fmt.Sprintf("invalid size %dx%d", height, width)}
	}

	m := &Markers{
		height: height,
		width:  width,
		byFreq: make(map[rune][]grid.Position, len(byFreq)),
	}
	for label, positions := range byFreq {
		for _, p := range positions {
			if !m.InBounds(p) {
				return nil, &grid.FormatError{
					Row:    p.Row,
					Reason: fmt.Sprintf("marker %q at %v is outside the map", label, p),
				}
			}
		}
		m.byFreq[label] = append([]grid.Position(nil), positions...)
	}
	return m, nil
}

// Height returns the number of map rows.
func (m *Markers) Height() int {
	return m.height
}

// Width returns the number of map columns.
func (m *Markers) Width() int {
	return m.width
}

// InBounds reports whether p lies on the map.
func (m *Markers) InBounds(p grid.Position) bool {
	return p.Row >= 0 && p.Row < m.height && p.Col >= 0 && p.Col < m.width
}

// Labels returns the frequency labels in ascending order.
func (m *Markers) Labels() []rune {
	labels := make([]rune, 0, len(m.byFreq))
	for label := range m.byFreq {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })
	return labels
}

// Positions returns a copy of the antenna positions for label.
func (m *Markers) Positions(label rune) []grid.Position {
	return append([]grid.Position(nil), m.byFreq[label]...)
}

// Count returns the total number of antennas.
func (m *Markers) Count() int {
	n := 0
	for _, positions := range m.byFreq {
		n += len(positions)
	}
	return n
}
