package grid

import (
	"fmt"
	"strings"
)

// Board glyphs shared by the loader, the parser and the renderer.
const (
	// EmptyGlyph marks a free cell.
	EmptyGlyph = '.'

	// ObstacleGlyph marks a blocked cell.
	ObstacleGlyph = '#'
)

// CellKind classifies the content of a board cell.
type CellKind int

const (
	// CellEmpty is a free cell.
	CellEmpty CellKind = iota
	// CellObstacle blocks movement.
	CellObstacle
	// CellAgent holds the agent; Cell.Facing is its heading.
	CellAgent
)

// Cell is the content of one board cell.
// Facing is meaningful only when Kind is CellAgent.
type Cell struct {
	Kind   CellKind
	Facing Direction
}

// Empty is the free cell value.
var Empty = Cell{Kind: CellEmpty}

// Obstacle is the blocked cell value.
var Obstacle = Cell{Kind: CellObstacle}

// AgentFacing returns an agent cell with the given heading.
func AgentFacing(d Direction) Cell {
	return Cell{Kind: CellAgent, Facing: d}
}

// Glyph returns the board character for c.
func (c Cell) Glyph() rune {
	switch c.Kind {
	case CellObstacle:
		return ObstacleGlyph
	case CellAgent:
		return c.Facing.Glyph()
	default:
		return EmptyGlyph
	}
}

// Board is a rectangular grid of cells stored row-major.
// The zero value is not usable; create boards with Parse or New.
type Board struct {
	height int
	width  int
	cells  []Cell
}

// New creates an empty board of the given size.
func New(height, width int) (*Board, error) {
	if height <= 0 || width <= 0 {
		return nil, &FormatError{Row: -1, Reason: fmt.Sprintf("invalid size %dx%d", height, width)}
	}
	return &Board{
		height: height,
		width:  width,
		cells:  make([]Cell, height*width),
	}, nil
}

// ValidateRows checks that lines form a non-empty rectangle.
// It returns the common row width.
func ValidateRows(lines []string) (int, error) {
	if len(lines) == 0 {
		return 0, &FormatError{Row: -1, Reason: "empty input"}
	}

	width := len(lines[0])
	for i, line := range lines {
		if line == "" {
			return 0, &FormatError{Row: i, Reason: "empty row"}
		}
		if len(line) != width {
			return 0, &FormatError{
				Row:    i,
				Reason: fmt.Sprintf("row has %d columns, expected %d", len(line), width),
			}
		}
	}
	return width, nil
}

// Parse builds a board from guard-puzzle rows.
// Accepted glyphs are '.', '#' and the agent glyphs '^', '>', 'v', '<'.
func Parse(lines []string) (*Board, error) {
	width, err := ValidateRows(lines)
	if err != nil {
		return nil, err
	}

	b, err := New(len(lines), width)
	if err != nil {
		return nil, err
	}

	for row, line := range lines {
		for col := 0; col < len(line); col++ {
			ch := rune(line[col])
			switch ch {
			case EmptyGlyph:
				// zero value
			case ObstacleGlyph:
				b.cells[row*width+col] = Obstacle
			default:
				d, ok := DirectionFromGlyph(ch)
				if !ok {
					return nil, &FormatError{
						Row:    row,
						Reason: fmt.Sprintf("unexpected character %q at column %d", ch, col),
					}
				}
				b.cells[row*width+col] = AgentFacing(d)
			}
		}
	}
	return b, nil
}

// Height returns the number of rows.
func (b *Board) Height() int {
	return b.height
}

// Width returns the number of columns.
func (b *Board) Width() int {
	return b.width
}

// Size returns the number of cells.
func (b *Board) Size() int {
	return len(b.cells)
}

// InBounds reports whether p lies on the board.
func (b *Board) InBounds(p Position) bool {
	return p.Row >= 0 && p.Row < b.height && p.Col >= 0 && p.Col < b.width
}

// Get returns the cell at p. Out-of-bounds positions read as Empty.
func (b *Board) Get(p Position) Cell {
	if !b.InBounds(p) {
		return Empty
	}
	return b.cells[p.Row*b.width+p.Col]
}

// Set stores c at p. Out-of-bounds writes are ignored and reported as false.
func (b *Board) Set(p Position, c Cell) bool {
	if !b.InBounds(p) {
		return false
	}
	b.cells[p.Row*b.width+p.Col] = c
	return true
}

// ObstacleAt reports whether p holds an obstacle.
func (b *Board) ObstacleAt(p Position) bool {
	return b.Get(p).Kind == CellObstacle
}

// Count returns the number of cells of the given kind.
func (b *Board) Count(kind CellKind) int {
	n := 0
	for _, c := range b.cells {
		if c.Kind == kind {
			n++
		}
	}
	return n
}

// Positions returns every position holding a cell of the given kind, row-major.
func (b *Board) Positions(kind CellKind) []Position {
	var out []Position
	for i, c := range b.cells {
		if c.Kind == kind {
			out = append(out, Position{Row: i / b.width, Col: i % b.width})
		}
	}
	return out
}

// FindUniqueAgent returns the heading and position of the only agent cell.
// It fails with an InvariantError when the board has zero or several agents.
func (b *Board) FindUniqueAgent() (Direction, Position, error) {
	agents := b.Positions(CellAgent)
	switch len(agents) {
	case 0:
		return Up, Position{}, &InvariantError{Reason: "no agent on board"}
	case 1:
		return b.Get(agents[0]).Facing, agents[0], nil
	default:
		return Up, Position{}, &InvariantError{
			Reason: fmt.Sprintf("%d agents on board, expected exactly one", len(agents)),
		}
	}
}

// Clone returns an independent copy of b.
func (b *Board) Clone() *Board {
	cells := make([]Cell, len(b.cells))
	copy(cells, b.cells)
	return &Board{height: b.height, width: b.width, cells: cells}
}

// Rows renders the board back to its text form.
func (b *Board) Rows() []string {
	rows := make([]string, b.height)
	var sb strings.Builder
	for row := 0; row < b.height; row++ {
		sb.Reset()
		for col := 0; col < b.width; col++ {
			sb.WriteRune(b.cells[row*b.width+col].Glyph())
		}
		rows[row] = sb.String()
	}
	return rows
}

// String renders the board as newline-separated rows.
func (b *Board) String() string {
	return strings.Join(b.Rows(), "\n")
}
