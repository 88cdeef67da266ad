package guard

import (
	"fmt"

	"github.com/nao1215/raygrid/internal/grid"
)

// Errors reported by the patrol and loop search.
// Both wrap grid.ErrInvariant: they mean the walk did something the board
// geometry rules out, not that the caller passed bad input.
var (
	// ErrStepBoundExceeded is returned when a loop-detection trial neither exits
	// nor repeats a turning record within 4*height*width+1 steps.
	ErrStepBoundExceeded = fmt.Errorf("%w: step bound exceeded without exit or repeat", grid.ErrInvariant)

	// ErrNoExit is returned when the unmodified patrol does not leave the board
	// within the step bound.
	ErrNoExit = fmt.Errorf("%w: guard never leaves the board", grid.ErrInvariant)
)
