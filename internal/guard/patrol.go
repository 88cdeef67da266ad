package guard

import (
	"github.com/nao1215/raygrid/internal/grid"
)

// PatrolResult is the outcome of walking the unmodified board.
type PatrolResult struct {
	// Start is the agent's starting state.
	Start Agent

	// Visited holds every distinct cell the guard stood on, Start.Pos included.
	Visited grid.PositionSet

	// Steps is the number of straight runs, the final exit run included.
	Steps int

	// Exit is the first off-board cell the guard reached.
	Exit grid.Position
}

// Patrol walks the guard from its start until it leaves the board and
// collects every visited cell.
//
// Boards whose guard never leaves are rejected with ErrNoExit once the walk
// passes the step bound.
func Patrol(board *grid.Board, opts ...Option) (*PatrolResult, error) {
	o := newOptions(opts)

	sim, err := NewSimulator(board)
	if err != nil {
		return nil, err
	}

	result := &PatrolResult{
		Start:   sim.Agent(),
		Visited: grid.NewPositionSet(),
	}

	limit := stepBound(sim.Board())
	for result.Steps < limit {
		step := sim.Step()
		result.Steps++
		result.Visited.AddAll(step.Path)
		if o.stepHook != nil {
			o.stepHook(step)
		}
		if step.Exited {
			result.Exit = step.Next
			o.logger.Debug("patrol left the board",
				"steps", result.Steps,
				"visited", result.Visited.Len(),
				"exit", step.Next.String(),
			)
			return result, nil
		}
	}

	return nil, ErrNoExit
}
