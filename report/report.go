// Package report writes benchmark rows out as they are produced: the fixed
// one-line-per-length text format, CSV and numpy .npz archives.
package report

import (
	"errors"
	"fmt"
	"io"

	"github.com/ahmedtd/dotbench/bench"
)

// Writer is a bench.Sink that may hold buffered output until Close.
type Writer interface {
	bench.Sink
	io.Closer
}

// TextWriter prints one line per length:
//
//	Len: <length> dot_sse: <ns> dot_avx: <ns> dot_avx_2: <ns> dot_normal: <ns>
//
// Columns follow the row's variant order, so a build without vector kernels
// prints only dot_normal.  Downstream log parsers rely on this layout.
type TextWriter struct {
	w io.Writer
}

func NewTextWriter(w io.Writer) *TextWriter {
	return &TextWriter{w: w}
}

func (t *TextWriter) WriteRow(row bench.Row) error {
	if _, err := fmt.Fprint(t.w, FormatRow(row), "\n"); err != nil {
		return fmt.Errorf("while writing text row: %w", err)
	}
	return nil
}

func (t *TextWriter) Close() error {
	return nil
}

// FormatRow renders a row in the text layout, without a trailing newline.
func FormatRow(row bench.Row) string {
	s := fmt.Sprintf("Len: %d", row.Length)
	for _, r := range row.Results {
		s += fmt.Sprintf(" %s: %d", r.Variant.Label, r.Elapsed.Nanoseconds())
	}
	return s
}

// Multi fans rows out to several writers.  The first error stops the row.
type Multi []Writer

func (m Multi) WriteRow(row bench.Row) error {
	for _, w := range m {
		if err := w.WriteRow(row); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every writer, even after a failure, and joins the errors.
func (m Multi) Close() error {
	var errs []error
	for _, w := range m {
		errs = append(errs, w.Close())
	}
	return errors.Join(errs...)
}
