// Package trace records patrol steps as zstd-compressed JSON lines.
//
// A trace file starts with one Header line followed by one Record line per
// straight run of the guard. The whole stream is a single zstd frame.
package trace

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/nao1215/raygrid/internal/guard"
)

// FormatVersion is written to every trace header.
const FormatVersion = 1

// ErrClosed is returned when writing to a closed Writer.
var ErrClosed = errors.New("trace writer closed")

// Header identifies the board a trace belongs to.
type Header struct {
	Version int    `json:"version"`
	Source  string `json:"source"`
	Digest  string `json:"digest"`
	Height  int    `json:"height"`
	Width   int    `json:"width"`
}

// Record is one patrol step.
type Record struct {
	Index int `json:"index"`
	guard.StepResult
}

// Writer appends records to a trace file.
// It is safe for concurrent use.
type Writer struct {
	mu    sync.Mutex
	f     *os.File
	enc   *zstd.Encoder
	w     *bufio.Writer
	count int
}

// Create opens path for writing, creating parent directories, and writes hdr.
func Create(path string, hdr Header) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create trace directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided trace path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to create trace file: %w", err)
	}

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}

	w := &Writer{f: f, enc: enc, w: bufio.NewWriterSize(enc, 64*1024)}
	hdr.Version = FormatVersion
	if err := w.writeLine(hdr); err != nil {
		_ = w.Close()
		return nil, err
	}
	return w, nil
}

// Write appends one step and returns its index.
func (w *Writer) Write(step guard.StepResult) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.w == nil {
		return 0, ErrClosed
	}
	idx := w.count
	if err := w.writeLine(Record{Index: idx, StepResult: step}); err != nil {
		return 0, err
	}
	w.count++
	return idx, nil
}

// Count returns the number of records written.
func (w *Writer) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// writeLine encodes v as one JSON line. The caller holds mu or owns w.
func (w *Writer) writeLine(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode trace line: %w", err)
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	return w.w.WriteByte('\n')
}

// Close flushes buffered records and closes the file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.w == nil {
		return nil
	}
	var errs []error
	if err := w.w.Flush(); err != nil {
		errs = append(errs, err)
	}
	if err := w.enc.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := w.f.Close(); err != nil {
		errs = append(errs, err)
	}
	w.w, w.enc, w.f = nil, nil, nil
	return errors.Join(errs...)
}

// Read decodes a whole trace file.
func Read(path string) (Header, []Record, error) {
	var hdr Header

	f, err := os.Open(path) //nolint:gosec // User-provided trace path is intentional
	if err != nil {
		return hdr, nil, fmt.Errorf("failed to open trace: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// Decode reads a trace stream from r.
func Decode(r io.Reader) (Header, []Record, error) {
	var hdr Header

	dec, err := zstd.NewReader(r)
	if err != nil {
		return hdr, nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	defer dec.Close()

	jd := json.NewDecoder(bufio.NewReaderSize(dec, 64*1024))
	if err := jd.Decode(&hdr); err != nil {
		return hdr, nil, fmt.Errorf("failed to decode trace header: %w", err)
	}
	if hdr.Version != FormatVersion {
		return hdr, nil, fmt.Errorf("unsupported trace version %d", hdr.Version)
	}

	var records []Record
	for {
		var rec Record
		if err := jd.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return hdr, nil, fmt.Errorf("failed to decode trace record %d: %w", len(records), err)
		}
		records = append(records, rec)
	}
	return hdr, records, nil
}
