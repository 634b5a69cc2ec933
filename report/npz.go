package report

import (
	"fmt"
	"io"

	"github.com/ahmedtd/dotbench/bench"
	"github.com/sbinet/npyio/npz"
)

// NPZWriter collects a whole sweep and writes it as a numpy .npz archive on
// Close:
//
//	length.npy          int64[rows]
//	<label>_ns.npy      int64[rows]   elapsed nanoseconds per variant
//	<label>_sum.npy     float32[rows] kernel output per variant
//
// Load with numpy.load(path).
type NPZWriter struct {
	w io.Writer

	labels  []string
	lengths []int64
	elapsed map[string][]int64
	sums    map[string][]float32
}

func NewNPZWriter(w io.Writer) *NPZWriter {
	return &NPZWriter{
		w:       w,
		elapsed: map[string][]int64{},
		sums:    map[string][]float32{},
	}
}

func (n *NPZWriter) WriteRow(row bench.Row) error {
	labels := n.labels
	if n.lengths == nil {
		labels = nil
		for _, r := range row.Results {
			labels = append(labels, r.Variant.Label)
		}
	}

	// Reject the whole row before touching any column, so the arrays stay
	// the same length.
	if len(row.Results) != len(labels) {
		return fmt.Errorf("row for length %d has %d results, archive has %d columns", row.Length, len(row.Results), len(labels))
	}
	for i, r := range row.Results {
		if r.Variant.Label != labels[i] {
			return fmt.Errorf("row for length %d has %s in column %s", row.Length, r.Variant.Label, labels[i])
		}
	}

	n.labels = labels
	n.lengths = append(n.lengths, int64(row.Length))
	for i, r := range row.Results {
		n.elapsed[labels[i]] = append(n.elapsed[labels[i]], r.Elapsed.Nanoseconds())
		n.sums[labels[i]] = append(n.sums[labels[i]], r.Sum)
	}
	return nil
}

func (n *NPZWriter) Close() error {
	zw := npz.NewWriter(n.w)

	lengths := n.lengths
	if lengths == nil {
		lengths = []int64{}
	}
	if err := zw.Write("length.npy", lengths); err != nil {
		zw.Close()
		return fmt.Errorf("while writing lengths: %w", err)
	}
	for _, label := range n.labels {
		if err := zw.Write(label+"_ns.npy", n.elapsed[label]); err != nil {
			zw.Close()
			return fmt.Errorf("while writing %s timings: %w", label, err)
		}
		if err := zw.Write(label+"_sum.npy", n.sums[label]); err != nil {
			zw.Close()
			return fmt.Errorf("while writing %s sums: %w", label, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("while closing npz archive: %w", err)
	}
	return nil
}
