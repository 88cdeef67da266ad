package guard

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/raygrid/internal/grid"
)

// EdgeRecord is the heading and position the guard holds after a run that
// stayed on the board. Seeing the same record twice means the walk is cyclic.
type EdgeRecord struct {
	Facing grid.Direction
	Pos    grid.Position
}

// LoopResult is the outcome of the obstacle search.
type LoopResult struct {
	// Count is the number of cells where an extra obstacle traps the guard.
	Count int

	// Trials is the number of candidate cells tried.
	Trials int

	// Obstacles lists the trapping cells in row-major order.
	Obstacles []grid.Position
}

// IsLoop reports whether the guard on board walks forever.
// The board must hold exactly one agent.
func IsLoop(board *grid.Board) (bool, error) {
	sim, err := NewSimulator(board)
	if err != nil {
		return false, err
	}
	return sim.loops()
}

// loops runs the simulator until the guard exits or repeats an EdgeRecord.
func (s *Simulator) loops() (bool, error) {
	seen := make(map[EdgeRecord]struct{})
	limit := stepBound(s.board)

	for i := 0; i < limit; i++ {
		step := s.Step()
		if step.Exited {
			return false, nil
		}

		rec := EdgeRecord{Facing: step.NextFacing, Pos: step.Next}
		if _, ok := seen[rec]; ok {
			return true, nil
		}
		seen[rec] = struct{}{}
	}
	return false, ErrStepBoundExceeded
}

// DetectLoops tries an extra obstacle on every empty cell except the guard's
// start and counts the trials in which the guard never leaves.
//
// Every trial runs on its own copy of the board. With WithWorkers(n) up to n
// trials run concurrently; the result does not depend on scheduling.
// Cancelling ctx stops scheduling new trials and returns ctx.Err().
func DetectLoops(ctx context.Context, board *grid.Board, opts ...Option) (*LoopResult, error) {
	o := newOptions(opts)

	base, err := NewSimulator(board)
	if err != nil {
		return nil, err
	}
	start := base.Agent()
	terrain := base.Board()

	candidates := make([]grid.Position, 0, terrain.Size())
	for _, p := range terrain.Positions(grid.CellEmpty) {
		if p != start.Pos {
			candidates = append(candidates, p)
		}
	}

	o.logger.Debug("starting loop detection",
		"candidates", len(candidates),
		"workers", o.workers,
	)
	startTime := time.Now()

	var (
		mu    sync.Mutex
		found = grid.NewPositionSet()
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)

	for _, candidate := range candidates {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			trial := terrain.Clone()
			trial.Set(candidate, grid.Obstacle)

			loop, err := newTrialSimulator(trial, start).loops()
			if err != nil {
				return err
			}
			if loop {
				mu.Lock()
				found.Add(candidate)
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &LoopResult{
		Count:     found.Len(),
		Trials:    len(candidates),
		Obstacles: found.Sorted(),
	}

	o.logger.Debug("loop detection complete",
		"trials", result.Trials,
		"loops", result.Count,
		"elapsed", time.Since(startTime),
	)

	return result, nil
}
