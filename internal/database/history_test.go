package database

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/raygrid/internal/loader"
	"github.com/nao1215/raygrid/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *HistoryDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

// newPatrolReport builds a finished patrol report over rows.
func newPatrolReport(t *testing.T, source string, rows string, visited, loops int, at time.Time) *model.RunReport {
	t.Helper()

	in, err := loader.Load(source, strings.NewReader(rows))
	if err != nil {
		t.Fatalf("failed to load rows: %v", err)
	}

	r := model.NewRunReport(model.PuzzlePatrol, source)
	r.DateRun = at
	r.Input = in
	r.Digest = in.Digest
	r.Height = len(in.Lines)
	r.Width = len(in.Lines[0])
	r.ElapsedMS = 12
	r.Patrol = &model.PatrolSummary{Visited: visited, LoopObstacles: loops, LoopsChecked: true}
	return r
}

// TestOpen tests database opening and creation.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dbDir, FileName)); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
		if db.Path() != filepath.Join(dbDir, FileName) {
			t.Errorf("unexpected path %s", db.Path())
		}
	})

	t.Run("CreateIfNotExists=false returns error when database does not exist", func(t *testing.T) {
		t.Parallel()

		_, err := Open(filepath.Join(t.TempDir(), "missing"), Options{CreateIfNotExists: false})
		if err == nil {
			t.Fatal("expected error for missing database")
		}
		if !strings.Contains(err.Error(), "database not found") {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("CreateIfNotExists=false opens existing database", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		db, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		_ = db.Close()

		db, err = Open(dir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to reopen database: %v", err)
		}
		_ = db.Close()
	})
}

// TestDefaultOptions tests the default option values.
func TestDefaultOptions(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	if !opts.CreateIfNotExists || !opts.EnableWAL {
		t.Errorf("unexpected defaults %+v", opts)
	}
}

// TestSaveRunAndHistory tests storing and listing runs.
func TestSaveRunAndHistory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := setupTestDB(t)

	base := time.Date(2024, 12, 6, 5, 0, 0, 0, time.UTC)
	rows := "..#\n.^.\n...\n"

	first := newPatrolReport(t, "inputs/day6.txt", rows, 3, 0, base)
	second := newPatrolReport(t, "inputs/day6.txt", rows, 3, 1, base.Add(time.Minute))
	other := newPatrolReport(t, "other.txt", "^..\n...\n", 2, 0, base.Add(2*time.Minute))

	firstID, err := db.SaveRun(ctx, first)
	if err != nil {
		t.Fatalf("failed to save run: %v", err)
	}
	secondID, err := db.SaveRun(ctx, second)
	if err != nil {
		t.Fatalf("failed to save run: %v", err)
	}
	if _, err := db.SaveRun(ctx, other); err != nil {
		t.Fatalf("failed to save run: %v", err)
	}

	t.Run("history is newest first per digest", func(t *testing.T) {
		history, err := db.GetRunHistory(ctx, model.PuzzlePatrol, first.Digest)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(history) != 2 {
			t.Fatalf("expected 2 runs, got %d", len(history))
		}
		if history[0].ID != secondID || history[1].ID != firstID {
			t.Errorf("unexpected order: %d, %d", history[0].ID, history[1].ID)
		}
		if history[0].Part1 != 3 || history[0].Part2 != 1 {
			t.Errorf("unexpected answers %+v", history[0])
		}
		if !history[0].Timestamp.Equal(base.Add(time.Minute)) {
			t.Errorf("unexpected timestamp %v", history[0].Timestamp)
		}
	})

	t.Run("latest run can exclude the newest", func(t *testing.T) {
		latest, err := db.GetLatestRun(ctx, model.PuzzlePatrol, first.Digest, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if latest == nil || latest.ID != secondID {
			t.Fatalf("expected run %d, got %+v", secondID, latest)
		}

		previous, err := db.GetLatestRun(ctx, model.PuzzlePatrol, first.Digest, secondID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if previous == nil || previous.ID != firstID {
			t.Fatalf("expected run %d, got %+v", firstID, previous)
		}

		cmp := model.Compare(previous.Ref(), latest.Ref(), model.PuzzlePatrol, first.Digest)
		if cmp.Part2Delta != 1 || !cmp.Drifted() {
			t.Errorf("unexpected comparison %+v", cmp)
		}
	})

	t.Run("no history for unknown digest", func(t *testing.T) {
		latest, err := db.GetLatestRun(ctx, model.PuzzleAntenna, first.Digest, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if latest != nil {
			t.Errorf("expected nil, got %+v", latest)
		}
	})

	t.Run("list runs honours limit", func(t *testing.T) {
		all, err := db.ListRuns(ctx, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(all) != 3 {
			t.Errorf("expected 3 runs, got %d", len(all))
		}
		limited, err := db.ListRuns(ctx, 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(limited) != 1 || limited[0].Source != "other.txt" {
			t.Errorf("unexpected limited list %+v", limited)
		}
	})

	t.Run("find digests by base name", func(t *testing.T) {
		digests, err := db.FindDigests(ctx, "day6.txt")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(digests) != 1 || digests[0] != first.Digest {
			t.Errorf("unexpected digests %v", digests)
		}
	})

	t.Run("get run by id", func(t *testing.T) {
		got, err := db.GetRunByID(ctx, firstID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got == nil || got.Source != "inputs/day6.txt" || got.Patrol.Visited != 3 {
			t.Errorf("unexpected report %+v", got)
		}

		missing, err := db.GetRunByID(ctx, 9999)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if missing != nil {
			t.Error("expected nil for missing id")
		}
	})

	t.Run("board text round trips", func(t *testing.T) {
		text, err := db.LoadBoardText(ctx, first.Digest)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if text != "..#\n.^.\n..." {
			t.Errorf("unexpected board text %q", text)
		}

		_, err = db.LoadBoardText(ctx, "deadbeef")
		if !errors.Is(err, ErrBoardNotFound) {
			t.Errorf("expected ErrBoardNotFound, got %v", err)
		}
	})

	t.Run("list boards counts runs per digest", func(t *testing.T) {
		boards, err := db.ListBoards(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(boards) != 2 {
			t.Fatalf("expected 2 boards, got %d", len(boards))
		}
		if boards[0].Digest != other.Digest || boards[0].Runs != 1 {
			t.Errorf("expected most recent board first, got %+v", boards[0])
		}
		if boards[1].Runs != 2 || boards[1].LastSource != "inputs/day6.txt" {
			t.Errorf("unexpected board summary %+v", boards[1])
		}
		if boards[1].Height != 3 || boards[1].Width != 3 {
			t.Errorf("expected 3x3, got %dx%d", boards[1].Height, boards[1].Width)
		}
	})
}

// TestSaveRunFailed tests that failed runs are kept out of history.
func TestSaveRunFailed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := setupTestDB(t)

	r := newPatrolReport(t, "day6.txt", "^..\n", 1, 0, time.Now())
	r.SetError(errors.New("boom"))

	if _, err := db.SaveRun(ctx, r); err != nil {
		t.Fatalf("failed to save run: %v", err)
	}

	history, err := db.GetRunHistory(ctx, model.PuzzlePatrol, r.Digest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("failed runs should not appear in history, got %d", len(history))
	}

	all, err := db.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 1 || all[0].Succeeded {
		t.Errorf("expected one failed run, got %+v", all)
	}
}

// TestSaveRunBoardSize tests that a board first seen by a failed run gets
// its size from the first run that parsed it.
func TestSaveRunBoardSize(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := setupTestDB(t)
	rows := "a...\n..a.\n....\n"
	base := time.Date(2024, 12, 8, 5, 0, 0, 0, time.UTC)

	unparsed := func(at time.Time) *model.RunReport {
		r := newPatrolReport(t, "map.txt", rows, 0, 0, at)
		r.Height, r.Width = 0, 0
		r.Patrol = nil
		r.SetError(errors.New("unknown glyph"))
		return r
	}

	if _, err := db.SaveRun(ctx, unparsed(base)); err != nil {
		t.Fatalf("failed to save run: %v", err)
	}

	parsed := newPatrolReport(t, "map.txt", rows, 0, 0, base.Add(time.Minute))
	parsed.Puzzle = model.PuzzleAntenna
	parsed.Patrol = nil
	parsed.Antenna = &model.AntennaSummary{Antinodes: 2, HarmonicAntinodes: 4}
	if _, err := db.SaveRun(ctx, parsed); err != nil {
		t.Fatalf("failed to save run: %v", err)
	}
	if _, err := db.SaveRun(ctx, unparsed(base.Add(2*time.Minute))); err != nil {
		t.Fatalf("failed to save run: %v", err)
	}

	boards, err := db.ListBoards(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(boards) != 1 {
		t.Fatalf("expected 1 board, got %d", len(boards))
	}
	if boards[0].Height != 3 || boards[0].Width != 4 || boards[0].Runs != 3 {
		t.Errorf("expected 3x4 with 3 runs, got %+v", boards[0])
	}

	text, err := db.LoadBoardText(ctx, parsed.Digest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "a...\n..a.\n...." {
		t.Errorf("unexpected board text %q", text)
	}
}

// TestSaveRunPart2Solved tests that a skipped obstacle search is stored and
// kept out of the Part 2 comparison.
func TestSaveRunPart2Solved(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := setupTestDB(t)
	rows := "..#\n.^.\n...\n"
	base := time.Date(2024, 12, 6, 5, 0, 0, 0, time.UTC)

	skipped := newPatrolReport(t, "day6.txt", rows, 3, 0, base)
	skipped.Patrol.LoopsChecked = false
	skippedID, err := db.SaveRun(ctx, skipped)
	if err != nil {
		t.Fatalf("failed to save run: %v", err)
	}
	fullID, err := db.SaveRun(ctx, newPatrolReport(t, "day6.txt", rows, 3, 1, base.Add(time.Minute)))
	if err != nil {
		t.Fatalf("failed to save run: %v", err)
	}

	history, err := db.GetRunHistory(ctx, model.PuzzlePatrol, skipped.Digest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(history) != 2 || history[0].ID != fullID || history[1].ID != skippedID {
		t.Fatalf("unexpected history %+v", history)
	}
	if !history[0].Part2Solved || history[1].Part2Solved {
		t.Errorf("unexpected Part2Solved flags: %v, %v", history[0].Part2Solved, history[1].Part2Solved)
	}

	c := model.Compare(history[1].Ref(), history[0].Ref(), model.PuzzlePatrol, skipped.Digest)
	if c.Drifted() || c.Part2Compared {
		t.Errorf("skipped obstacle search must not count as drift, got %+v", c)
	}
}

// TestOpenAddsMissingColumns tests opening a database written before runs
// recorded whether Part 2 was solved.
func TestOpenAddsMissingColumns(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	old, err := sql.Open("sqlite", filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	_, err = old.ExecContext(context.Background(), `
	CREATE TABLE runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		puzzle TEXT NOT NULL,
		source TEXT NOT NULL,
		digest TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		part1 INTEGER NOT NULL,
		part2 INTEGER NOT NULL,
		elapsed_ms INTEGER NOT NULL,
		succeeded INTEGER NOT NULL,
		report_json TEXT NOT NULL
	);
	INSERT INTO runs (puzzle, source, digest, timestamp, part1, part2, elapsed_ms, succeeded, report_json)
	VALUES ('patrol', 'day6.txt', 'abc', '2024-12-06 05:00:00', 41, 6, 10, 1, '{}');
	`)
	_ = old.Close()
	if err != nil {
		t.Fatalf("failed to write old schema: %v", err)
	}

	db, err := Open(dir, DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	runs, err := db.ListRuns(context.Background(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 1 || !runs[0].Part2Solved {
		t.Errorf("old runs should read as solved, got %+v", runs)
	}
}

// TestParseTimestamp tests timestamp parsing across formats.
func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		zero bool
	}{
		{in: "2024-12-06 05:00:00"},
		{in: "2024-12-06 05:00:00.250"},
		{in: "2024-12-06T05:00:00Z"},
		{in: "2024-12-06T05:00:00.25+09:00"},
		{in: "not a time", zero: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := parseTimestamp(tt.in); got.IsZero() != tt.zero {
				t.Errorf("parseTimestamp(%q) = %v", tt.in, got)
			}
		})
	}
}
