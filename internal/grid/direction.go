package grid

// Direction is one of the four headings an agent can face.
type Direction int

const (
	// Up points toward smaller row indices.
	Up Direction = iota
	// Right points toward larger column indices.
	Right
	// Down points toward larger row indices.
	Down
	// Left points toward smaller column indices.
	Left
)

// directionCount is the number of distinct headings.
const directionCount = 4

// AllDirections returns every heading in clockwise order starting at Up.
func AllDirections() []Direction {
	return []Direction{Up, Right, Down, Left}
}

// Rotate returns the heading 90 degrees clockwise from d.
func (d Direction) Rotate() Direction {
	return (d + 1) % directionCount
}

// Delta returns the unit vector for d.
func (d Direction) Delta() Position {
	switch d {
	case Up:
		return Position{Row: -1}
	case Right:
		return Position{Col: 1}
	case Down:
		return Position{Row: 1}
	case Left:
		return Position{Col: -1}
	default:
		return Position{}
	}
}

// Vertical reports whether d moves along a column.
func (d Direction) Vertical() bool {
	return d == Up || d == Down
}

// IsValid reports whether d is one of the four headings.
func (d Direction) IsValid() bool {
	return d >= Up && d <= Left
}

// Glyph returns the board character used for an agent facing d.
func (d Direction) Glyph() rune {
	switch d {
	case Up:
		return '^'
	case Right:
		return '>'
	case Down:
		return 'v'
	case Left:
		return '<'
	default:
		return '?'
	}
}

// String returns a human-readable name for d.
func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Right:
		return "right"
	case Down:
		return "down"
	case Left:
		return "left"
	default:
		return "unknown"
	}
}

// DirectionFromGlyph maps an agent glyph to its heading.
func DirectionFromGlyph(r rune) (Direction, bool) {
	switch r {
	case '^':
		return Up, true
	case '>':
		return Right, true
	case 'v':
		return Down, true
	case '<':
		return Left, true
	default:
		return Up, false
	}
}

// MarshalText encodes d by name so reports and traces stay readable.
func (d Direction) MarshalText() ([]byte, error) {
	if !d.IsValid() {
		return nil, &InvariantError{Reason: "unknown direction"}
	}
	return []byte(d.String()), nil
}

// UnmarshalText decodes a direction name written by MarshalText.
func (d *Direction) UnmarshalText(text []byte) error {
	for _, candidate := range AllDirections() {
		if candidate.String() == string(text) {
			*d = candidate
			return nil
		}
	}
	return &InvariantError{Reason: "unknown direction " + string(text)}
}
