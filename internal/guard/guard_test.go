package guard

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/raygrid/internal/grid"
)

// sampleRows is the canonical 10x10 guard example.
var sampleRows = []string{
	"....#.....",
	".........#",
	"..........",
	"..#.......",
	".......#..",
	"..........",
	".#..^.....",
	"........#.",
	"#.........",
	"......#...",
}

// mustParse parses rows or fails the test.
func mustParse(t *testing.T, rows []string) *grid.Board {
	t.Helper()

	b, err := grid.Parse(rows)
	if err != nil {
		t.Fatalf("failed to parse board: %v", err)
	}
	return b
}

// TestSimulatorStep tests single ray-cast steps.
func TestSimulatorStep(t *testing.T) {
	t.Parallel()

	t.Run("stops before the first obstacle and turns", func(t *testing.T) {
		t.Parallel()

		sim, err := NewSimulator(mustParse(t, sampleRows))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		first := sim.Step()
		want := StepResult{
			From:       grid.Pos(6, 4),
			Facing:     grid.Up,
			Next:       grid.Pos(1, 4),
			NextFacing: grid.Right,
			Path: []grid.Position{
				grid.Pos(6, 4), grid.Pos(5, 4), grid.Pos(4, 4),
				grid.Pos(3, 4), grid.Pos(2, 4), grid.Pos(1, 4),
			},
		}
		if diff := cmp.Diff(want, first); diff != "" {
			t.Errorf("first step mismatch (-want +got):\n%s", diff)
		}

		second := sim.Step()
		if second.Next != grid.Pos(1, 8) || second.NextFacing != grid.Down {
			t.Errorf("expected stop at (1,8) facing down, got %v facing %v", second.Next, second.NextFacing)
		}
		if len(second.Path) != 5 {
			t.Errorf("expected 5 cells on second run, got %d", len(second.Path))
		}
	})

	t.Run("exits one cell past the edge", func(t *testing.T) {
		t.Parallel()

		sim, err := NewSimulator(mustParse(t, []string{"..<..", "....."}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		step := sim.Step()
		if !step.Exited {
			t.Fatal("expected exit")
		}
		if step.Next != grid.Pos(0, -1) {
			t.Errorf("expected next (0,-1), got %v", step.Next)
		}
		if diff := cmp.Diff([]grid.Position{grid.Pos(0, 2), grid.Pos(0, 1), grid.Pos(0, 0)}, step.Path); diff != "" {
			t.Errorf("path mismatch (-want +got):\n%s", diff)
		}
		if sim.Agent().Pos != grid.Pos(0, 2) {
			t.Error("exit must not move the agent")
		}
	})

	t.Run("agent on the edge exits with a single cell path", func(t *testing.T) {
		t.Parallel()

		sim, err := NewSimulator(mustParse(t, []string{"..^..", "....."}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		step := sim.Step()
		if !step.Exited || len(step.Path) != 1 {
			t.Errorf("expected exit with one cell, got exited=%v path=%v", step.Exited, step.Path)
		}
	})

	t.Run("obstacle directly ahead only turns", func(t *testing.T) {
		t.Parallel()

		sim, err := NewSimulator(mustParse(t, []string{".#.", ".^.", "..."}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		step := sim.Step()
		if step.Exited || step.Next != grid.Pos(1, 1) || step.NextFacing != grid.Right {
			t.Errorf("expected turn in place, got %+v", step)
		}
	})

	t.Run("does not mutate the caller's board", func(t *testing.T) {
		t.Parallel()

		b := mustParse(t, sampleRows)
		sim, err := NewSimulator(b)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		sim.Step()

		if b.Get(grid.Pos(6, 4)) != grid.AgentFacing(grid.Up) {
			t.Error("original board changed")
		}
		if sim.Board().Count(grid.CellAgent) != 0 {
			t.Error("simulator board should hold terrain only")
		}
	})

	t.Run("rejects boards without a single agent", func(t *testing.T) {
		t.Parallel()

		_, err := NewSimulator(mustParse(t, []string{"...", "..."}))
		if !errors.Is(err, grid.ErrInvariant) {
			t.Errorf("expected ErrInvariant, got %v", err)
		}
	})
}

// TestPatrol tests the Part 1 walk.
func TestPatrol(t *testing.T) {
	t.Parallel()

	t.Run("sample board visits 41 cells", func(t *testing.T) {
		t.Parallel()

		result, err := Patrol(mustParse(t, sampleRows))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Visited.Len() != 41 {
			t.Errorf("expected 41 visited cells, got %d", result.Visited.Len())
		}
		if !result.Visited.Has(result.Start.Pos) {
			t.Error("starting cell must be visited")
		}
		if result.Exit != grid.Pos(10, 7) {
			t.Errorf("expected exit at (10,7), got %v", result.Exit)
		}
	})

	t.Run("every step path is a contiguous straight run", func(t *testing.T) {
		t.Parallel()

		var steps []StepResult
		_, err := Patrol(mustParse(t, sampleRows), WithStepHook(func(s StepResult) {
			steps = append(steps, s)
		}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(steps) == 0 || !steps[len(steps)-1].Exited {
			t.Fatal("expected the last hooked step to be the exit")
		}

		for i, s := range steps {
			if s.Path[0] != s.From {
				t.Errorf("step %d: path does not start at From", i)
			}
			for j := 1; j < len(s.Path); j++ {
				if s.Path[j].Sub(s.Path[j-1]) != s.Facing.Delta() {
					t.Errorf("step %d: cells %d and %d are not adjacent along %v", i, j-1, j, s.Facing)
				}
			}
		}
	})

	t.Run("boxed guard reports no exit", func(t *testing.T) {
		t.Parallel()

		_, err := Patrol(mustParse(t, []string{".#.", "#^#", ".#."}))
		if !errors.Is(err, ErrNoExit) {
			t.Errorf("expected ErrNoExit, got %v", err)
		}
		if !errors.Is(err, grid.ErrInvariant) {
			t.Error("ErrNoExit should wrap grid.ErrInvariant")
		}
	})
}

// TestIsLoop tests single-board loop checks.
func TestIsLoop(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		rows []string
		want bool
	}{
		{name: "unmodified sample exits", rows: sampleRows, want: false},
		{name: "boxed guard loops", rows: []string{".#.", "#^#", ".#."}, want: true},
		{
			name: "sample with obstacle left of start loops",
			rows: []string{
				"....#.....",
				".........#",
				"..........",
				"..#.......",
				".......#..",
				"..........",
				".#.#^.....",
				"........#.",
				"#.........",
				"......#...",
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := IsLoop(mustParse(t, tt.rows))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("IsLoop = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestDetectLoops tests the Part 2 obstacle search.
func TestDetectLoops(t *testing.T) {
	t.Parallel()

	t.Run("sample board has 6 trapping cells", func(t *testing.T) {
		t.Parallel()

		b := mustParse(t, sampleRows)
		result, err := DetectLoops(context.Background(), b)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Count != 6 {
			t.Errorf("expected 6 loops, got %d", result.Count)
		}
		if len(result.Obstacles) != result.Count {
			t.Errorf("expected %d obstacles listed, got %d", result.Count, len(result.Obstacles))
		}
		// 100 cells minus 8 obstacles minus the start.
		if result.Trials != 91 {
			t.Errorf("expected 91 trials, got %d", result.Trials)
		}

		for _, p := range result.Obstacles {
			trial := b.Clone()
			trial.Set(p, grid.Obstacle)
			loop, err := IsLoop(trial)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !loop {
				t.Errorf("reported obstacle %v does not trap the guard", p)
			}
		}
		if result.Obstacles[0] != grid.Pos(6, 3) {
			t.Errorf("expected first obstacle (6,3), got %v", result.Obstacles[0])
		}
	})

	t.Run("result does not depend on worker count", func(t *testing.T) {
		t.Parallel()

		b := mustParse(t, sampleRows)
		sequential, err := DetectLoops(context.Background(), b, WithWorkers(1))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		parallel, err := DetectLoops(context.Background(), b, WithWorkers(8))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := cmp.Diff(sequential, parallel); diff != "" {
			t.Errorf("results differ (-sequential +parallel):\n%s", diff)
		}
	})

	t.Run("does not mutate the input board", func(t *testing.T) {
		t.Parallel()

		b := mustParse(t, sampleRows)
		before := b.String()
		if _, err := DetectLoops(context.Background(), b, WithWorkers(4)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if b.String() != before {
			t.Error("input board changed")
		}
	})

	t.Run("cancelled context stops the search", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := DetectLoops(ctx, mustParse(t, sampleRows))
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}
