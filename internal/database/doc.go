// Package database provides SQLite-based run history for raygrid.
//
// This package implements the HistoryDB, which stores:
//   - One row per solved input with its answers and the full report as JSON
//   - Each distinct board once, zstd-compressed and keyed by its digest
//
// SQLite is accessed through modernc.org/sqlite, so the binary stays CGO-free
// and the database is a single file in the XDG data directory.
package database
