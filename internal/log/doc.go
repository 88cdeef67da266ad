// Package log provides the slog handler used by raygrid.
//
// CompactHandler wraps any slog.Handler and keeps log lines short:
// input digests are abbreviated and long string values, such as board rows,
// are truncated before they reach the underlying handler.
package log
