package guard

import (
	"github.com/nao1215/raygrid/internal/grid"
)

// Agent is the guard's position and heading.
type Agent struct {
	Facing grid.Direction `json:"facing"`
	Pos    grid.Position  `json:"pos"`
}

// StepResult describes one straight run of the guard.
type StepResult struct {
	// From is where the run started.
	From grid.Position `json:"from"`

	// Facing is the heading during the run.
	Facing grid.Direction `json:"facing"`

	// Next is where the guard stopped, or the first cell past the edge
	// when Exited is true.
	Next grid.Position `json:"next"`

	// NextFacing is the heading after the run. It equals Facing on exit.
	NextFacing grid.Direction `json:"next_facing"`

	// Path holds every cell walked through, From included, in walking order.
	Path []grid.Position `json:"path"`

	// Exited is true when the guard walked off the board.
	Exited bool `json:"exited"`
}

// Simulator advances a guard across a terrain-only board.
type Simulator struct {
	board *grid.Board
	agent Agent
}

// NewSimulator creates a simulator from a board holding exactly one agent.
// The board is copied; the copy has the agent cell cleared.
func NewSimulator(board *grid.Board) (*Simulator, error) {
	facing, pos, err := board.FindUniqueAgent()
	if err != nil {
		return nil, err
	}

	terrain := board.Clone()
	terrain.Set(pos, grid.Empty)

	return &Simulator{
		board: terrain,
		agent: Agent{Facing: facing, Pos: pos},
	}, nil
}

// newTrialSimulator wraps a board the caller already owns.
func newTrialSimulator(terrain *grid.Board, start Agent) *Simulator {
	return &Simulator{board: terrain, agent: start}
}

// Agent returns the current agent state.
func (s *Simulator) Agent() Agent {
	return s.agent
}

// Board returns the terrain board the simulator walks on.
func (s *Simulator) Board() *grid.Board {
	return s.board
}

// Step casts a ray from the agent along its heading to the nearest obstacle.
//
// When an obstacle is found the agent stops on the cell before it and turns
// clockwise. When none is found the result is an exit: Next lies one cell
// past the edge and the agent state is left untouched, so a further Step
// repeats the same exit.
func (s *Simulator) Step() StepResult {
	from := s.agent.Pos
	facing := s.agent.Facing
	delta := facing.Delta()

	path := []grid.Position{from}
	cur := from
	for {
		ahead := cur.Add(delta)
		if !s.board.InBounds(ahead) {
			return StepResult{
				From:       from,
				Facing:     facing,
				Next:       ahead,
				NextFacing: facing,
				Path:       path,
				Exited:     true,
			}
		}
		if s.board.ObstacleAt(ahead) {
			s.agent = Agent{Facing: facing.Rotate(), Pos: cur}
			return StepResult{
				From:       from,
				Facing:     facing,
				Next:       cur,
				NextFacing: s.agent.Facing,
				Path:       path,
			}
		}
		path = append(path, ahead)
		cur = ahead
	}
}

// stepBound is the pigeonhole limit on steps for one walk: a guard that has
// neither exited nor repeated a (heading, position) pair after this many steps
// has broken the walking rules.
func stepBound(b *grid.Board) int {
	return 4*b.Height()*b.Width() + 1
}
