package report

import (
	"bytes"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ahmedtd/dotbench/bench"
	"github.com/ahmedtd/dotbench/kernels"
	"github.com/google/go-cmp/cmp"
	"github.com/sbinet/npyio/npz"
	"github.com/stretchr/testify/require"
)

func fakeVariants() []kernels.Variant {
	return []kernels.Variant{
		{Name: "width4", Label: "dot_sse", Width: 4, Backend: kernels.BackendAsm},
		{Name: "width8", Label: "dot_avx", Width: 8, Backend: kernels.BackendAsm},
		{Name: "width8-dual", Label: "dot_avx_2", Width: 16, Backend: kernels.BackendAsm},
		kernels.Scalar,
	}
}

func fakeRow(length int, ns ...int64) bench.Row {
	row := bench.Row{Length: length}
	for i, v := range fakeVariants() {
		row.Results = append(row.Results, bench.Result{
			Length:  length,
			Variant: v,
			Elapsed: time.Duration(ns[i]),
			Sum:     float32(i) + 0.5,
		})
	}
	return row
}

func TestFormatRow(t *testing.T) {
	got := FormatRow(fakeRow(1024, 310, 190, 120, 910))
	want := "Len: 1024 dot_sse: 310 dot_avx: 190 dot_avx_2: 120 dot_normal: 910"
	if got != want {
		t.Fatalf("Wrong line;\n got %q\nwant %q", got, want)
	}
}

func TestTextWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewTextWriter(&buf)
	require.NoError(t, w.WriteRow(fakeRow(8, 1, 2, 3, 4)))
	require.NoError(t, w.WriteRow(fakeRow(16, 5, 6, 7, 8)))
	require.NoError(t, w.Close())

	want := "Len: 8 dot_sse: 1 dot_avx: 2 dot_avx_2: 3 dot_normal: 4\n" +
		"Len: 16 dot_sse: 5 dot_avx: 6 dot_avx_2: 7 dot_normal: 8\n"
	if diff := cmp.Diff(buf.String(), want); diff != "" {
		t.Fatalf("Wrong output; diff (-got +want)\n%s", diff)
	}
}

func TestTextWriterScalarOnly(t *testing.T) {
	row := bench.Row{
		Length:  32,
		Results: []bench.Result{{Length: 32, Variant: kernels.Scalar, Elapsed: 77}},
	}
	if got, want := FormatRow(row), "Len: 32 dot_normal: 77"; got != want {
		t.Fatalf("Wrong line; got %q, want %q", got, want)
	}
}

func TestCSVWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSVWriter(&buf)
	require.NoError(t, w.WriteRow(fakeRow(8, 1, 2, 3, 4)))
	require.NoError(t, w.WriteRow(fakeRow(16, 5, 6, 7, 8)))
	require.NoError(t, w.Close())

	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1+2*4)

	if diff := cmp.Diff(records[0], csvHeader); diff != "" {
		t.Errorf("Wrong header; diff (-got +want)\n%s", diff)
	}
	if diff := cmp.Diff(records[1], []string{"8", "width4", "dot_sse", "asm", "1", "0.5"}); diff != "" {
		t.Errorf("Wrong first record; diff (-got +want)\n%s", diff)
	}
	if diff := cmp.Diff(records[8], []string{"16", "scalar", "dot_normal", "go", "8", "3.5"}); diff != "" {
		t.Errorf("Wrong last record; diff (-got +want)\n%s", diff)
	}
}

func TestNPZWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sweep.npz")
	f, err := os.Create(path)
	require.NoError(t, err)

	w := NewNPZWriter(f)
	require.NoError(t, w.WriteRow(fakeRow(8, 1, 2, 3, 4)))
	require.NoError(t, w.WriteRow(fakeRow(16, 5, 6, 7, 8)))
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	r, err := npz.Open(path)
	require.NoError(t, err)
	defer r.Close()

	var lengths []int64
	require.NoError(t, r.Read("length.npy", &lengths))
	if diff := cmp.Diff(lengths, []int64{8, 16}); diff != "" {
		t.Errorf("Wrong lengths; diff (-got +want)\n%s", diff)
	}

	var avx2 []int64
	require.NoError(t, r.Read("dot_avx_2_ns.npy", &avx2))
	if diff := cmp.Diff(avx2, []int64{3, 7}); diff != "" {
		t.Errorf("Wrong dot_avx_2 timings; diff (-got +want)\n%s", diff)
	}

	var sums []float32
	require.NoError(t, r.Read("dot_normal_sum.npy", &sums))
	if diff := cmp.Diff(sums, []float32{3.5, 3.5}); diff != "" {
		t.Errorf("Wrong dot_normal sums; diff (-got +want)\n%s", diff)
	}
}

func TestNPZWriterRejectsChangingColumns(t *testing.T) {
	w := NewNPZWriter(&bytes.Buffer{})
	require.NoError(t, w.WriteRow(fakeRow(8, 1, 2, 3, 4)))

	short := fakeRow(16, 5, 6, 7, 8)
	short.Results = short.Results[1:]
	require.Error(t, w.WriteRow(short))
}

func TestNPZWriterRejectedRowLeavesArchiveIntact(t *testing.T) {
	var buf bytes.Buffer
	w := NewNPZWriter(&buf)
	require.NoError(t, w.WriteRow(fakeRow(8, 1, 2, 3, 4)))

	// Columns 0 and 1 match; column 2 does not.
	swapped := fakeRow(16, 5, 6, 7, 8)
	swapped.Results[2], swapped.Results[3] = swapped.Results[3], swapped.Results[2]
	require.Error(t, w.WriteRow(swapped))

	require.NoError(t, w.WriteRow(fakeRow(32, 9, 10, 11, 12)))
	require.NoError(t, w.Close())

	r, err := npz.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	var lengths []int64
	require.NoError(t, r.Read("length.npy", &lengths))
	if diff := cmp.Diff(lengths, []int64{8, 32}); diff != "" {
		t.Errorf("Wrong lengths; diff (-got +want)\n%s", diff)
	}
	for _, label := range []string{"dot_sse", "dot_avx", "dot_avx_2", "dot_normal"} {
		var ns []int64
		require.NoError(t, r.Read(label+"_ns.npy", &ns))
		require.Len(t, ns, 2, label)
	}
}

type closeRecorder struct {
	TextWriter
	closed bool
	err    error
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return c.err
}

func TestMultiClosesEverything(t *testing.T) {
	boom := errors.New("boom")
	a := &closeRecorder{TextWriter: TextWriter{w: &bytes.Buffer{}}, err: boom}
	b := &closeRecorder{TextWriter: TextWriter{w: &bytes.Buffer{}}}

	m := Multi{a, b}
	require.NoError(t, m.WriteRow(fakeRow(8, 1, 2, 3, 4)))
	require.ErrorIs(t, m.Close(), boom)
	require.True(t, a.closed)
	require.True(t, b.closed)
}
