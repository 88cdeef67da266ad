package grid

import "fmt"

// Position is a cell coordinate on a board.
// It is also used as a 2-vector for antinode geometry.
type Position struct {
	// Row is the 0-based row index (y).
	Row int `json:"row"`

	// Col is the 0-based column index (x).
	Col int `json:"col"`
}

// Pos is a convenience constructor for Position.
func Pos(row, col int) Position {
	return Position{Row: row, Col: col}
}

// Add returns the component-wise sum of p and o.
func (p Position) Add(o Position) Position {
	return Position{Row: p.Row + o.Row, Col: p.Col + o.Col}
}

// Sub returns the component-wise difference p - o.
func (p Position) Sub(o Position) Position {
	return Position{Row: p.Row - o.Row, Col: p.Col - o.Col}
}

// Scale multiplies both components by m.
func (p Position) Scale(m int) Position {
	return Position{Row: p.Row * m, Col: p.Col * m}
}

// Neg returns the opposite vector.
func (p Position) Neg() Position {
	return Position{Row: -p.Row, Col: -p.Col}
}

// Step returns the neighbouring position one cell along d.
func (p Position) Step(d Direction) Position {
	return p.Add(d.Delta())
}

// Less reports whether p sorts before o in row-major order.
func (p Position) Less(o Position) bool {
	if p.Row != o.Row {
		return p.Row < o.Row
	}
	return p.Col < o.Col
}

// String returns the position as "(row,col)".
func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}
