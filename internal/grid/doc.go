// Package grid provides the board primitives shared by the raygrid puzzles.
//
// This package contains the following main types:
//   - Position: a row/column pair that doubles as a 2-vector
//   - Direction: one of the four headings with clockwise rotation
//   - Board: a rectangular grid of terrain and agent cells
//   - PositionSet: a set of distinct positions
//
// Positions are 0-based with the origin at the top-left cell. Rows grow
// downward and columns grow to the right.
package grid
