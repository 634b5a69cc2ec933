package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/ahmedtd/dotbench/bench"
)

var csvHeader = []string{"length", "variant", "label", "backend", "elapsed_ns", "sum"}

// CSVWriter writes one record per (length, variant) result.
type CSVWriter struct {
	w           *csv.Writer
	wroteHeader bool
}

func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{w: csv.NewWriter(w)}
}

func (c *CSVWriter) WriteRow(row bench.Row) error {
	if !c.wroteHeader {
		if err := c.w.Write(csvHeader); err != nil {
			return fmt.Errorf("while writing CSV header: %w", err)
		}
		c.wroteHeader = true
	}

	for _, r := range row.Results {
		rec := []string{
			strconv.Itoa(r.Length),
			r.Variant.Name,
			r.Variant.Label,
			string(r.Variant.Backend),
			strconv.FormatInt(r.Elapsed.Nanoseconds(), 10),
			strconv.FormatFloat(float64(r.Sum), 'g', -1, 32),
		}
		if err := c.w.Write(rec); err != nil {
			return fmt.Errorf("while writing CSV record: %w", err)
		}
	}

	// Flush per length so a crashed run still leaves complete rows behind.
	c.w.Flush()
	return c.w.Error()
}

func (c *CSVWriter) Close() error {
	c.w.Flush()
	return c.w.Error()
}
