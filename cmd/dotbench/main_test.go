package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ahmedtd/dotbench/alloc"
	"github.com/ahmedtd/dotbench/kernels"
	"github.com/ahmedtd/dotbench/tensorio"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestVerifyLengths(t *testing.T) {
	got := verifyLengths(1024)
	want := []int{16, 32, 48, 64, 80, 96, 112, 128, 144, 160, 176, 192, 208, 224, 240, 256, 512, 1024}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Fatalf("Wrong lengths; diff (-got +want)\n%s", diff)
	}

	if got := verifyLengths(40); !cmp.Equal(got, []int{16, 32}) {
		t.Errorf("verifyLengths(40) = %v", got)
	}
}

func TestVerifierPassesCompiledKernels(t *testing.T) {
	v := &verifier{
		allocator: alloc.HeapAllocator{},
		variants:  kernels.Variants(),
		epsilon:   1e-4,
		oracleErr: map[string]float32{},
	}
	require.NoError(t, v.run(verifyLengths(4096)))
	require.Empty(t, v.failures)
	require.Equal(t, len(verifyLengths(4096))*len(kernels.Variants()), v.checks)
}

func TestVerifierDumpsFailures(t *testing.T) {
	// Drops the last element, which the tolerance will not absorb for
	// operands this long.
	broken := kernels.Variant{
		Name:      "broken",
		Label:     "dot_broken",
		Width:     1,
		Alignment: 4,
		Backend:   kernels.BackendGo,
		Kernel: func(lhs, rhs []float32) float32 {
			var sum float32
			for i := 0; i < len(lhs)-1; i++ {
				sum += lhs[i] * rhs[i]
			}
			return sum + 1
		},
	}

	dir := t.TempDir()
	v := &verifier{
		allocator: alloc.HeapAllocator{},
		variants:  []kernels.Variant{kernels.Scalar, broken},
		epsilon:   1e-4,
		seed:      3,
		dumpDir:   dir,
		oracleErr: map[string]float32{},
	}
	require.NoError(t, v.run([]int{16, 32}))
	require.Len(t, v.failures, 2)
	require.Equal(t, "broken", v.failures[0].variant.Name)

	f, err := os.Open(filepath.Join(dir, "broken-len16.safetensors"))
	require.NoError(t, err)
	defer f.Close()

	lhs, rhs, meta, err := tensorio.ReadPair(f)
	require.NoError(t, err)
	require.Len(t, lhs, 16)
	require.Len(t, rhs, 16)
	require.Equal(t, "16", meta["length"])
	require.Equal(t, "3", meta["seed"])
}

func TestReplayLinesSkipsUnmetPreconditions(t *testing.T) {
	buf, err := alloc.HeapAllocator{}.Allocate(3, 32)
	require.NoError(t, err)
	defer buf.Release()
	lhs := buf.Float32s()
	copy(lhs, []float32{1, 2, 3})

	rbuf, err := alloc.HeapAllocator{}.Allocate(3, 32)
	require.NoError(t, err)
	defer rbuf.Release()
	rhs := rbuf.Float32s()
	copy(rhs, []float32{4, 5, 6})

	lines := replayLines(kernels.Variants(), lhs, rhs)
	require.Len(t, lines, len(kernels.Variants()))

	last := lines[len(lines)-1]
	require.True(t, strings.HasPrefix(last, "dot_normal: sum=32 "), "got %q", last)
	for _, l := range lines[:len(lines)-1] {
		require.Contains(t, l, "skipped")
	}
}

func TestAllocatorByName(t *testing.T) {
	for _, name := range []string{"heap", "mmap"} {
		if _, err := allocatorByName(name); err != nil {
			t.Errorf("allocatorByName(%q): %v", name, err)
		}
	}
	if _, err := allocatorByName("gpu"); err == nil {
		t.Errorf("allocatorByName accepted gpu")
	}
}
