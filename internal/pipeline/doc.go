// Package pipeline executes puzzle-solving steps in sequence.
//
// Each input file is processed by a Pipeline: load the file, parse the board,
// then run the solver steps for its puzzle. Every step receives the same
// RunReport and fills in its part of the result.
//
// The package supports both single runs and batch processing of many input
// files with concurrency control using errgroup.
package pipeline
