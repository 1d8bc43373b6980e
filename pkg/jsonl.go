// Package pkg provides utilities shared by the a11yfix commands.
package pkg

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// DefaultMaxLineSize bounds a single JSON-lines record.
const DefaultMaxLineSize = 4 << 20

// ErrLineTooLong is returned when a record exceeds the reader's line limit.
var ErrLineTooLong = errors.New("jsonl: line too long")

// LineReader decodes one value of type T per non-blank line.
type LineReader[T any] interface {
	// Read returns the next record. Malformed lines return a *DecodeError and
	// reading may continue; io.EOF marks the end of input.
	Read() (T, error)
	// Line is the 1-based number of the last line read.
	Line() uint64
}

// LineWriter encodes values of type T, one per line. It is safe for
// concurrent use.
type LineWriter[T any] interface {
	Write(item T) error
	Count() uint64
}

// DecodeError reports a line that is not valid JSON for the target type.
type DecodeError struct {
	Line uint64
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("jsonl: line %d: %v", e.Line, e.Err)
}

// Unwrap exposes the underlying decode error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

type lineReaderImpl[T any] struct {
	scanner *bufio.Scanner
	line    uint64
}

// NewLineReader creates a LineReader over r.
func NewLineReader[T any](r io.Reader, maxLineSize int) LineReader[T] {
	if maxLineSize <= 0 {
		maxLineSize = DefaultMaxLineSize
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	return &lineReaderImpl[T]{scanner: scanner}
}

// Read implements LineReader.
func (l *lineReaderImpl[T]) Read() (T, error) {
	var item T

	for l.scanner.Scan() {
		l.line++

		raw := bytes.TrimSpace(l.scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		if err := json.Unmarshal(raw, &item); err != nil {
			slog.Warn("failed to decode line", "line", l.line, "error", err)
			return item, &DecodeError{Line: l.line, Err: err}
		}

		return item, nil
	}

	if err := l.scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return item, fmt.Errorf("%w after line %d", ErrLineTooLong, l.line)
		}

		return item, err
	}

	return item, io.EOF
}

// Line implements LineReader.
func (l *lineReaderImpl[T]) Line() uint64 {
	return l.line
}

type lineWriterImpl[T any] struct {
	w     io.Writer
	mu    sync.Mutex
	count uint64
}

// NewLineWriter creates a LineWriter over w.
func NewLineWriter[T any](w io.Writer) LineWriter[T] {
	return &lineWriterImpl[T]{w: w}
}

// Write implements LineWriter. The record and its newline are written in one
// call so concurrent writers never interleave.
func (l *lineWriterImpl[T]) Write(item T) error {
	data, err := json.Marshal(item)
	if err != nil {
		slog.Error("failed to encode item", "error", err)
		return fmt.Errorf("failed to encode item: %w", err)
	}

	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.w.Write(data); err != nil {
		slog.Error("failed to write item", "index", l.count, "error", err)
		return fmt.Errorf("failed to write item: %w", err)
	}

	l.count++

	return nil
}

// Count implements LineWriter.
func (l *lineWriterImpl[T]) Count() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.count
}
