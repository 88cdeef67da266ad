package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/nao1215/raygrid/internal/antenna"
	"github.com/nao1215/raygrid/internal/grid"
	"github.com/nao1215/raygrid/internal/guard"
	"github.com/nao1215/raygrid/internal/loader"
	"github.com/nao1215/raygrid/internal/model"
	"github.com/nao1215/raygrid/internal/trace"
)

// ErrMissingInput is returned by a step whose predecessor did not run.
var ErrMissingInput = errors.New("pipeline step is missing its input")

// StdinSource is the input name that reads the board from standard input.
const StdinSource = "-"

// LoadStep reads the input file and computes its digest.
// A report whose Input is already set (for example, read from stdin)
// is left as is.
type LoadStep struct {
	// label is copied onto the report for display.
	label string
}

// NewLoadStep creates a new load step.
func NewLoadStep(label string) *LoadStep {
	return &LoadStep{label: label}
}

// Name returns the step name.
func (s *LoadStep) Name() string {
	return "load"
}

// Do executes the load step.
func (s *LoadStep) Do(_ context.Context, report *model.RunReport) error {
	if s.label != "" {
		report.Label = s.label
	}
	if report.Input == nil {
		var (
			in  *loader.Input
			err error
		)
		if report.Source == StdinSource {
			in, err = loader.Load("stdin", os.Stdin)
		} else {
			in, err = loader.LoadFile(report.Source)
		}
		if err != nil {
			return err
		}
		report.Input = in
	}
	report.Digest = report.Input.Digest
	return nil
}

// ParseBoardStep parses the guard board and records the start state.
type ParseBoardStep struct{}

// NewParseBoardStep creates a new board parsing step.
func NewParseBoardStep() *ParseBoardStep {
	return &ParseBoardStep{}
}

// Name returns the step name.
func (s *ParseBoardStep) Name() string {
	return "parse_board"
}

// Do executes the board parsing step.
func (s *ParseBoardStep) Do(_ context.Context, report *model.RunReport) error {
	if report.Input == nil {
		return fmt.Errorf("%w: no input loaded", ErrMissingInput)
	}

	board, err := grid.Parse(report.Input.Lines)
	if err != nil {
		return err
	}
	facing, start, err := board.FindUniqueAgent()
	if err != nil {
		return err
	}

	report.Board = board
	report.Height = board.Height()
	report.Width = board.Width()
	report.Patrol = &model.PatrolSummary{
		Start:     start,
		Facing:    facing,
		Obstacles: board.Count(grid.CellObstacle),
	}
	return nil
}

// PatrolStep walks the guard off the board and records the visited count.
type PatrolStep struct {
	// tracePath, when set, receives every step of the walk.
	tracePath string

	logger *slog.Logger
}

// PatrolStepOption configures a PatrolStep.
type PatrolStepOption func(*PatrolStep)

// WithPatrolTrace records the walk to a trace file at path.
func WithPatrolTrace(path string) PatrolStepOption {
	return func(s *PatrolStep) {
		s.tracePath = path
	}
}

// WithPatrolLogger sets a custom logger for the patrol step.
func WithPatrolLogger(logger *slog.Logger) PatrolStepOption {
	return func(s *PatrolStep) {
		s.logger = logger
	}
}

// NewPatrolStep creates a new patrol step.
func NewPatrolStep(opts ...PatrolStepOption) *PatrolStep {
	s := &PatrolStep{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *PatrolStep) Name() string {
	return "patrol"
}

// Do executes the patrol step.
func (s *PatrolStep) Do(_ context.Context, report *model.RunReport) (err error) {
	if report.Board == nil || report.Patrol == nil {
		return fmt.Errorf("%w: no board parsed", ErrMissingInput)
	}

	opts := []guard.Option{guard.WithLogger(s.logger)}

	if s.tracePath != "" {
		tw, terr := trace.Create(s.tracePath, trace.Header{
			Source: report.Source,
			Digest: report.Digest,
			Height: report.Height,
			Width:  report.Width,
		})
		if terr != nil {
			return terr
		}
		defer func() {
			if cerr := tw.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()

		var writeErr error
		opts = append(opts, guard.WithStepHook(func(step guard.StepResult) {
			if writeErr != nil {
				return
			}
			_, writeErr = tw.Write(step)
		}))
		defer func() {
			if writeErr != nil && err == nil {
				err = fmt.Errorf("failed to write trace: %w", writeErr)
			}
		}()
	}

	result, err := guard.Patrol(report.Board, opts...)
	if err != nil {
		return err
	}

	report.Patrol.Visited = result.Visited.Len()
	report.Patrol.Steps = result.Steps
	report.Patrol.Exit = result.Exit

	if s.tracePath != "" {
		s.logger.Debug("patrol trace written",
			"path", s.tracePath,
			"steps", result.Steps,
		)
	}
	return nil
}

// LoopStep counts the cells where one extra obstacle traps the guard.
type LoopStep struct {
	workers int
	skip    bool
	logger  *slog.Logger
}

// LoopStepOption configures a LoopStep.
type LoopStepOption func(*LoopStep)

// WithLoopWorkers sets the number of concurrent trials.
func WithLoopWorkers(n int) LoopStepOption {
	return func(s *LoopStep) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithLoopSkip turns the step into a no-op that only marks the search as not run.
func WithLoopSkip(skip bool) LoopStepOption {
	return func(s *LoopStep) {
		s.skip = skip
	}
}

// WithLoopLogger sets a custom logger for the loop step.
func WithLoopLogger(logger *slog.Logger) LoopStepOption {
	return func(s *LoopStep) {
		s.logger = logger
	}
}

// NewLoopStep creates a new loop detection step.
func NewLoopStep(opts ...LoopStepOption) *LoopStep {
	s := &LoopStep{
		workers: 1,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *LoopStep) Name() string {
	return "loop_detect"
}

// Do executes the loop detection step.
func (s *LoopStep) Do(ctx context.Context, report *model.RunReport) error {
	if report.Board == nil || report.Patrol == nil {
		return fmt.Errorf("%w: no board parsed", ErrMissingInput)
	}
	if s.skip {
		s.logger.Debug("loop detection skipped", "source", report.Source)
		return nil
	}

	result, err := guard.DetectLoops(ctx, report.Board,
		guard.WithWorkers(s.workers),
		guard.WithLogger(s.logger),
	)
	if err != nil {
		return err
	}

	report.Patrol.LoopsChecked = true
	report.Patrol.LoopObstacles = result.Count
	report.Patrol.LoopTrials = result.Trials
	report.Patrol.LoopPositions = result.Obstacles
	return nil
}

// ParseMarkersStep parses the antenna map.
type ParseMarkersStep struct{}

// NewParseMarkersStep creates a new antenna parsing step.
func NewParseMarkersStep() *ParseMarkersStep {
	return &ParseMarkersStep{}
}

// Name returns the step name.
func (s *ParseMarkersStep) Name() string {
	return "parse_markers"
}

// Do executes the antenna parsing step.
func (s *ParseMarkersStep) Do(_ context.Context, report *model.RunReport) error {
	if report.Input == nil {
		return fmt.Errorf("%w: no input loaded", ErrMissingInput)
	}

	m, err := antenna.ParseMarkers(report.Input.Lines)
	if err != nil {
		return err
	}

	report.Markers = m
	report.Height = m.Height()
	report.Width = m.Width()
	return nil
}

// AntinodeStep counts antinodes under both rules.
type AntinodeStep struct {
	// breakdown adds per-frequency statistics to the report.
	breakdown bool
}

// NewAntinodeStep creates a new antinode step.
func NewAntinodeStep(breakdown bool) *AntinodeStep {
	return &AntinodeStep{breakdown: breakdown}
}

// Name returns the step name.
func (s *AntinodeStep) Name() string {
	return "antinodes"
}

// Do executes the antinode step.
func (s *AntinodeStep) Do(_ context.Context, report *model.RunReport) error {
	m := report.Markers
	if m == nil {
		return fmt.Errorf("%w: no antenna map parsed", ErrMissingInput)
	}

	result := antenna.Find(m)
	summary := &model.AntennaSummary{
		Frequencies:       len(m.Labels()),
		Antennas:          m.Count(),
		Antinodes:         result.Antinodes.Len(),
		HarmonicAntinodes: result.Harmonics.Len(),
	}

	if s.breakdown {
		for _, label := range m.Labels() {
			lr := antenna.FindLabel(m, label)
			summary.ByFrequency = append(summary.ByFrequency, model.FrequencyStat{
				Label:     string(label),
				Antennas:  len(m.Positions(label)),
				Antinodes: lr.Antinodes.Len(),
				Harmonics: lr.Harmonics.Len(),
			})
		}
	}

	report.Antenna = summary
	return nil
}

// Settings holds configuration for the puzzle pipelines.
type Settings struct {
	// Label is the display name copied onto the report.
	Label string

	// Workers is the number of concurrent loop trials.
	Workers int

	// SkipLoops disables the obstacle search.
	SkipLoops bool

	// TracePath, when set, records the patrol walk to this file.
	TracePath string

	// Breakdown adds per-frequency statistics to antenna reports.
	Breakdown bool
}

// SettingsOption configures Settings.
type SettingsOption func(*Settings)

// WithLabel sets the report display name.
func WithLabel(label string) SettingsOption {
	return func(c *Settings) {
		c.Label = label
	}
}

// WithWorkers sets the number of concurrent loop trials.
func WithWorkers(n int) SettingsOption {
	return func(c *Settings) {
		c.Workers = n
	}
}

// WithSkipLoops disables the obstacle search.
func WithSkipLoops(skip bool) SettingsOption {
	return func(c *Settings) {
		c.SkipLoops = skip
	}
}

// WithTracePath records the patrol walk to path.
func WithTracePath(path string) SettingsOption {
	return func(c *Settings) {
		c.TracePath = path
	}
}

// WithBreakdown toggles per-frequency statistics.
func WithBreakdown(breakdown bool) SettingsOption {
	return func(c *Settings) {
		c.Breakdown = breakdown
	}
}

func newSettings(opts []SettingsOption) *Settings {
	s := &Settings{
		Workers:   1,
		Breakdown: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PatrolPipeline creates the pipeline for guard boards:
// load, parse_board, patrol, loop_detect.
//
// The first parameter accepts pipeline options (WithLogger, etc).
// The rest configure the steps.
func PatrolPipeline(pipelineOpts []Option, settingsOpts ...SettingsOption) *Pipeline {
	p := New(pipelineOpts...)
	cfg := newSettings(settingsOpts)

	patrolOpts := []PatrolStepOption{WithPatrolLogger(p.logger)}
	if cfg.TracePath != "" {
		patrolOpts = append(patrolOpts, WithPatrolTrace(cfg.TracePath))
	}

	p.AddSteps(
		NewLoadStep(cfg.Label),
		NewParseBoardStep(),
		NewPatrolStep(patrolOpts...),
		NewLoopStep(
			WithLoopWorkers(cfg.Workers),
			WithLoopSkip(cfg.SkipLoops),
			WithLoopLogger(p.logger),
		),
	)
	return p
}

// AntennaPipeline creates the pipeline for antenna maps:
// load, parse_markers, antinodes.
func AntennaPipeline(pipelineOpts []Option, settingsOpts ...SettingsOption) *Pipeline {
	p := New(pipelineOpts...)
	cfg := newSettings(settingsOpts)

	p.AddSteps(
		NewLoadStep(cfg.Label),
		NewParseMarkersStep(),
		NewAntinodeStep(cfg.Breakdown),
	)
	return p
}

// ForPuzzle returns the pipeline factory matching puzzle.
func ForPuzzle(puzzle model.Puzzle) (func([]Option, ...SettingsOption) *Pipeline, error) {
	switch puzzle {
	case model.PuzzlePatrol:
		return PatrolPipeline, nil
	case model.PuzzleAntenna:
		return AntennaPipeline, nil
	default:
		return nil, fmt.Errorf("unknown puzzle %q", puzzle)
	}
}
