package log

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"
)

// digestKeys are attribute keys holding hex digests.
// Their values are abbreviated to DigestLen characters.
var digestKeys = map[string]bool{
	"digest":     true,
	"sha3":       true,
	"input_hash": true,
}

const (
	// DigestLen is the number of hex characters kept from a digest.
	DigestLen = 12

	// DefaultMaxValueLen is the longest string value, in runes, logged as is.
	DefaultMaxValueLen = 120

	// ellipsis marks a truncated value.
	ellipsis = "…"
)

// CompactHandler wraps an slog.Handler to shorten attribute values.
// It rewrites each record's attributes and passes the result to the
// underlying handler.
type CompactHandler struct {
	// handler is the underlying slog handler that receives shortened records.
	handler slog.Handler

	// maxValueLen is the longest string value, in runes, passed through unchanged.
	maxValueLen int
}

// NewCompactHandler creates a new CompactHandler wrapping the given handler.
// If handler is nil, slog.Default().Handler() is used.
// A non-positive maxValueLen selects DefaultMaxValueLen.
func NewCompactHandler(handler slog.Handler, maxValueLen int) *CompactHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	if maxValueLen <= 0 {
		maxValueLen = DefaultMaxValueLen
	}
	return &CompactHandler{handler: handler, maxValueLen: maxValueLen}
}

// Enabled reports whether the handler handles records at the given level.
func (h *CompactHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle shortens the record's attributes and passes it to the underlying handler.
func (h *CompactHandler) Handle(ctx context.Context, r slog.Record) error {
	compacted := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)

	r.Attrs(func(a slog.Attr) bool {
		compacted.AddAttrs(h.compactAttr(a))
		return true
	})

	return h.handler.Handle(ctx, compacted)
}

// WithAttrs returns a new handler with the given attributes added.
func (h *CompactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	compacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		compacted[i] = h.compactAttr(a)
	}
	return &CompactHandler{handler: h.handler.WithAttrs(compacted), maxValueLen: h.maxValueLen}
}

// WithGroup returns a new handler with the given group name.
func (h *CompactHandler) WithGroup(name string) slog.Handler {
	return &CompactHandler{handler: h.handler.WithGroup(name), maxValueLen: h.maxValueLen}
}

// compactAttr shortens a single attribute, recursively handling groups.
func (h *CompactHandler) compactAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		compacted := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			compacted[i] = h.compactAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(compacted...)}
	}

	if a.Value.Kind() != slog.KindString {
		return a
	}

	s := a.Value.String()
	if digestKeys[strings.ToLower(a.Key)] && len(s) > DigestLen {
		return slog.String(a.Key, s[:DigestLen])
	}
	if utf8.RuneCountInString(s) > h.maxValueLen {
		return slog.String(a.Key, truncate(s, h.maxValueLen))
	}
	return a
}

// truncate keeps the first n runes of s and appends an ellipsis.
func truncate(s string, n int) string {
	kept := 0
	for i := range s {
		if kept == n {
			return s[:i] + ellipsis
		}
		kept++
	}
	return s
}

// NewLogger creates a text logger with compact handling.
//
// Parameters:
//   - w: The io.Writer to write log output to (typically os.Stderr)
//   - verbose: If true, sets log level to Debug; otherwise Warn
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: level(verbose),
	}
	return slog.New(NewCompactHandler(slog.NewTextHandler(w, opts), DefaultMaxValueLen))
}

// NewJSONLogger creates a JSON lines logger with compact handling.
// Useful for structured log aggregation.
func NewJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: level(verbose),
	}
	return slog.New(NewCompactHandler(slog.NewJSONHandler(w, opts), DefaultMaxValueLen))
}

func level(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}
