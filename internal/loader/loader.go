// Package loader reads puzzle input files into normalized rows.
package loader

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/sha3"

	"github.com/nao1215/raygrid/internal/grid"
)

// Input is a puzzle file split into rows.
type Input struct {
	// Source is the path or name the rows were read from.
	Source string

	// Lines holds the rows with trailing whitespace removed.
	Lines []string

	// Digest is the hex SHA3-256 of the normalized rows joined by '\n'.
	// Two files differing only in line endings share a digest.
	Digest string
}

// Name returns the base name of the source.
func (in *Input) Name() string {
	return filepath.Base(in.Source)
}

// Text returns the normalized rows joined by newlines.
func (in *Input) Text() string {
	return strings.Join(in.Lines, "\n")
}

// LoadFile reads and normalizes the file at path.
func LoadFile(path string) (*Input, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided input path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()

	return Load(path, f)
}

// Load reads and normalizes rows from r.
// Trailing blank lines are dropped; an input with no rows fails with
// grid.ErrFormat.
func Load(source string, r io.Reader) (*Input, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	lines := Normalize(string(data))
	if len(lines) == 0 {
		return nil, &grid.FormatError{Row: -1, Reason: "empty input"}
	}

	return &Input{
		Source: source,
		Lines:  lines,
		Digest: Digest(lines),
	}, nil
}

// Normalize splits text into rows, strips trailing whitespace and CR from
// every row and drops trailing blank rows.
func Normalize(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		lines = append(lines, strings.TrimRight(line, " \t\r"))
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// Digest returns the hex SHA3-256 of lines joined by '\n'.
func Digest(lines []string) string {
	sum := sha3.Sum256([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(sum[:])
}
