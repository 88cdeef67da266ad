package grid

import (
	"errors"
	"fmt"
)

// Error categories for board handling.
// Callers match them with errors.Is; the typed errors below carry detail.
var (
	// ErrFormat is returned for malformed boards: empty input, empty or
	// ragged rows, or characters outside the puzzle alphabet.
	ErrFormat = errors.New("malformed grid")

	// ErrInvariant is returned when a board breaks a structural rule,
	// such as having zero or several agents.
	ErrInvariant = errors.New("grid invariant violated")
)

// FormatError describes why a board could not be parsed.
type FormatError struct {
	// Row is the 0-based row the problem was found on, or -1 for the whole input.
	Row int

	// Reason is a short human-readable description.
	Reason string
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("%s: %s", ErrFormat, e.Reason)
	}
	return fmt.Sprintf("%s: row %d: %s", ErrFormat, e.Row, e.Reason)
}

// Unwrap makes errors.Is(err, ErrFormat) succeed.
func (e *FormatError) Unwrap() error {
	return ErrFormat
}

// InvariantError describes a broken board invariant.
type InvariantError struct {
	Reason string
}

// Error implements the error interface.
func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvariant, e.Reason)
}

// Unwrap makes errors.Is(err, ErrInvariant) succeed.
func (e *InvariantError) Unwrap() error {
	return ErrInvariant
}
