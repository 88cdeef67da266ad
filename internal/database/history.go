package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/raygrid/internal/model"
)

// FileName is the database file name inside the database directory.
const FileName = "raygrid.db"

// timestampLayout is fixed-width so that stored timestamps sort as text.
const timestampLayout = "2006-01-02 15:04:05.000"

// ErrBoardNotFound is returned when no board is stored for a digest.
var ErrBoardNotFound = errors.New("board not found")

// Shared codecs; EncodeAll and DecodeAll are safe for concurrent use.
var (
	boardEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression)) //nolint:errcheck // only fails on invalid options
	boardDecoder, _ = zstd.NewReader(nil)                                                      //nolint:errcheck // only fails on invalid options
)

// HistoryDB provides SQLite-based storage for solved runs.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file; mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Path returns the database file path.
func (hdb *HistoryDB) Path() string {
	return hdb.dbPath
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	-- Boards store each distinct input once
	CREATE TABLE IF NOT EXISTS boards (
		digest TEXT PRIMARY KEY,
		height INTEGER NOT NULL,
		width INTEGER NOT NULL,
		rows_zstd BLOB NOT NULL,
		first_seen DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Runs store one solved input each
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		puzzle TEXT NOT NULL,
		source TEXT NOT NULL,
		digest TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		part1 INTEGER NOT NULL,
		part2 INTEGER NOT NULL,
		elapsed_ms INTEGER NOT NULL,
		succeeded INTEGER NOT NULL,
		part2_solved INTEGER NOT NULL DEFAULT 1,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_digest ON runs(digest);
	CREATE INDEX IF NOT EXISTS idx_runs_source ON runs(source);
	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON runs(timestamp);
	`

	if _, err := hdb.db.ExecContext(context.Background(), schema); err != nil {
		return err
	}
	return hdb.ensureColumn("runs", "part2_solved", "INTEGER NOT NULL DEFAULT 1")
}

// ensureColumn adds column to table when a database created by an older
// release lacks it.
func (hdb *HistoryDB) ensureColumn(table, column, decl string) error {
	rows, err := hdb.db.QueryContext(context.Background(), "SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		return fmt.Errorf("failed to inspect %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("failed to inspect %s: %w", table, err)
		}
		if name == column {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	_, err = hdb.db.ExecContext(context.Background(), "ALTER TABLE "+table+" ADD COLUMN "+column+" "+decl)
	return err
}

// RunMetadata contains summary information about a stored run.
// It is used for listing history without loading the full report.
type RunMetadata struct {
	// ID is the unique identifier of the run in the database.
	ID int64

	Puzzle model.Puzzle
	Source string
	Digest string

	// Timestamp is when the run started.
	Timestamp time.Time

	// Part1 and Part2 are the stored answers.
	Part1 int
	Part2 int

	ElapsedMS int64
	Succeeded bool

	// Part2Solved is false for patrol runs that skipped the obstacle search.
	Part2Solved bool
}

// Ref converts the metadata into a comparison reference.
func (m RunMetadata) Ref() model.RunRef {
	return model.RunRef{
		ID:        m.ID,
		Source:    m.Source,
		DateRun:   m.Timestamp,
		Part1:     m.Part1,
		Part2:     m.Part2,
		ElapsedMS: m.ElapsedMS,

		Part2Solved: m.Part2Solved,
	}
}

// SaveRun stores a run and, when the report still holds its input, the board.
// A board first stored by a run that failed before parsing has no size; a
// later run that parsed it fills the size in. It returns the new run ID.
func (hdb *HistoryDB) SaveRun(ctx context.Context, report *model.RunReport) (int64, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}

	tx, err := hdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }() //nolint:errcheck // Rollback after Commit is a no-op

	if report.Input != nil && report.Digest != "" {
		blob := boardEncoder.EncodeAll([]byte(report.Input.Text()), nil)
		_, err := tx.ExecContext(ctx, `
		INSERT INTO boards (digest, height, width, rows_zstd)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(digest) DO UPDATE SET height = excluded.height, width = excluded.width
		WHERE boards.height = 0 AND excluded.height > 0
		`, report.Digest, report.Height, report.Width, blob)
		if err != nil {
			return 0, fmt.Errorf("failed to save board: %w", err)
		}
	}

	part1, part2 := report.Answers()
	result, err := tx.ExecContext(ctx, `
	INSERT INTO runs (puzzle, source, digest, timestamp, part1, part2, elapsed_ms, succeeded, part2_solved, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		string(report.Puzzle),
		report.Source,
		report.Digest,
		report.DateRun.UTC().Format(timestampLayout),
		part1,
		part2,
		report.ElapsedMS,
		report.Succeeded(),
		report.Part2Solved(),
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return id, nil
}

// GetRunHistory returns successful runs of one puzzle on the board with
// digest, newest first.
func (hdb *HistoryDB) GetRunHistory(ctx context.Context, puzzle model.Puzzle, digest string) ([]RunMetadata, error) {
	return hdb.queryMetadata(ctx, `
	WHERE puzzle = ? AND digest = ? AND succeeded = 1
	ORDER BY timestamp DESC, id DESC
	`, string(puzzle), digest)
}

// GetLatestRun returns the newest successful run on the board, or nil.
// Runs with an ID of excludeID or above are ignored, so a run just saved can
// be compared with the one before it.
func (hdb *HistoryDB) GetLatestRun(ctx context.Context, puzzle model.Puzzle, digest string, excludeID int64) (*RunMetadata, error) {
	if excludeID <= 0 {
		excludeID = 1<<63 - 1
	}
	runs, err := hdb.queryMetadata(ctx, `
	WHERE puzzle = ? AND digest = ? AND succeeded = 1 AND id < ?
	ORDER BY timestamp DESC, id DESC
	LIMIT 1
	`, string(puzzle), digest, excludeID)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}

// ListRuns returns the newest runs across all boards, at most limit of them.
// A non-positive limit returns every run.
func (hdb *HistoryDB) ListRuns(ctx context.Context, limit int) ([]RunMetadata, error) {
	if limit <= 0 {
		return hdb.queryMetadata(ctx, `ORDER BY timestamp DESC, id DESC`)
	}
	return hdb.queryMetadata(ctx, `ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
}

// FindDigests returns the digests of boards run from source, newest first.
// A source matches by full path or by base name.
func (hdb *HistoryDB) FindDigests(ctx context.Context, source string) ([]string, error) {
	base := filepath.Base(source)
	rows, err := hdb.db.QueryContext(ctx, `
	SELECT digest, MAX(timestamp) AS last_run FROM runs
	WHERE source = ? OR source = ? OR source LIKE ? ESCAPE '\'
	GROUP BY digest
	ORDER BY last_run DESC
	`, source, base, "%/"+escapeLike(base))
	if err != nil {
		return nil, fmt.Errorf("failed to find digests: %w", err)
	}
	defer rows.Close()

	var digests []string
	for rows.Next() {
		var digest, lastRun string
		if err := rows.Scan(&digest, &lastRun); err != nil {
			return nil, fmt.Errorf("failed to scan digest: %w", err)
		}
		digests = append(digests, digest)
	}
	return digests, rows.Err()
}

// GetRunByID retrieves a stored report by its run ID.
// It returns nil when no run has that ID.
func (hdb *HistoryDB) GetRunByID(ctx context.Context, id int64) (*model.RunReport, error) {
	var reportJSON string
	err := hdb.db.QueryRowContext(ctx, `SELECT report_json FROM runs WHERE id = ?`, id).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var report model.RunReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &report, nil
}

// LoadBoardText returns the stored rows of the board with digest.
func (hdb *HistoryDB) LoadBoardText(ctx context.Context, digest string) (string, error) {
	var blob []byte
	err := hdb.db.QueryRowContext(ctx, `SELECT rows_zstd FROM boards WHERE digest = ?`, digest).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", ErrBoardNotFound, digest)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get board: %w", err)
	}

	text, err := boardDecoder.DecodeAll(blob, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decompress board: %w", err)
	}
	return string(text), nil
}

// BoardSummary describes a stored board and how often it was run.
type BoardSummary struct {
	Digest    string
	Height    int
	Width     int
	FirstSeen time.Time

	// Runs counts every stored run on the board, failed ones included.
	Runs int

	// LastSource is the newest input path the board was read from.
	LastSource string
}

// ListBoards returns every stored board, most recently run first.
func (hdb *HistoryDB) ListBoards(ctx context.Context) ([]BoardSummary, error) {
	rows, err := hdb.db.QueryContext(ctx, `
	SELECT b.digest, b.height, b.width, b.first_seen, COUNT(r.id),
		COALESCE((SELECT source FROM runs WHERE digest = b.digest ORDER BY timestamp DESC, id DESC LIMIT 1), ''),
		COALESCE(MAX(r.timestamp), '') AS last_run
	FROM boards b
	LEFT JOIN runs r ON r.digest = b.digest
	GROUP BY b.digest
	ORDER BY last_run DESC, b.digest
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}
	defer rows.Close()

	var boards []BoardSummary
	for rows.Next() {
		var (
			b         BoardSummary
			firstSeen string
			lastRun   string
		)
		if err := rows.Scan(&b.Digest, &b.Height, &b.Width, &firstSeen, &b.Runs, &b.LastSource, &lastRun); err != nil {
			return nil, fmt.Errorf("failed to scan board: %w", err)
		}
		b.FirstSeen = parseTimestamp(firstSeen)
		boards = append(boards, b)
	}
	return boards, rows.Err()
}

// queryMetadata runs a metadata SELECT with the given WHERE/ORDER tail.
func (hdb *HistoryDB) queryMetadata(ctx context.Context, tail string, args ...any) ([]RunMetadata, error) {
	query := `
	SELECT id, puzzle, source, digest, timestamp, part1, part2, elapsed_ms, succeeded, part2_solved
	FROM runs
	` + tail

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var results []RunMetadata
	for rows.Next() {
		var (
			meta      RunMetadata
			puzzle    string
			timestamp string
		)
		err := rows.Scan(
			&meta.ID,
			&puzzle,
			&meta.Source,
			&meta.Digest,
			&timestamp,
			&meta.Part1,
			&meta.Part2,
			&meta.ElapsedMS,
			&meta.Succeeded,
			&meta.Part2Solved,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		meta.Puzzle = model.Puzzle(puzzle)
		meta.Timestamp = parseTimestamp(timestamp)
		results = append(results, meta)
	}

	return results, rows.Err()
}

// escapeLike escapes LIKE wildcards in s.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // with milliseconds, as written by SaveRun
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, it returns the zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
