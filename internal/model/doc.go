// Package model defines the report structures shared across raygrid.
//
// This package contains the following main types:
//   - RunReport: the result of solving one input file
//   - PatrolSummary: guard puzzle answers and details
//   - AntennaSummary: antenna puzzle answers with a per-frequency breakdown
//   - Comparison: the difference between two stored runs of the same board
//
// The models are serializable to JSON for report output and history storage.
package model
