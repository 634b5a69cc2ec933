// Package bench drives the kernel set over a geometric sweep of vector
// lengths and times every kernel once per length.
//
// A run is single-threaded and synchronous: no warm-up, no repetitions and no
// averaging, so every number carries the noise of a single call.
package bench

import (
	"errors"
	"fmt"
	"time"

	"github.com/ahmedtd/dotbench/alloc"
	"github.com/ahmedtd/dotbench/kernels"
	"github.com/ahmedtd/dotbench/vecgen"
)

var ErrConfig = errors.New("invalid sweep configuration")

type Config struct {
	// The sweep visits LenBegin, LenBegin*LenFactor, ... while <= LenEnd.
	LenBegin  int
	LenEnd    int
	LenFactor int

	// Pad is the number of slack elements allocated past each operand.
	Pad int
	// Alignment is the byte alignment of both operand buffers.
	Alignment int

	Seed uint64
}

func DefaultConfig() Config {
	return Config{
		LenBegin:  8,
		LenEnd:    1024 * 1024,
		LenFactor: 2,
		Pad:       8,
		Alignment: 32,
	}
}

func (c Config) Validate() error {
	if c.LenBegin <= 0 {
		return fmt.Errorf("%w: len-begin must be positive, got %d", ErrConfig, c.LenBegin)
	}
	if c.LenEnd < c.LenBegin {
		return fmt.Errorf("%w: len-end %d is below len-begin %d", ErrConfig, c.LenEnd, c.LenBegin)
	}
	if c.LenFactor < 2 {
		return fmt.Errorf("%w: len-factor must be at least 2, got %d", ErrConfig, c.LenFactor)
	}
	if c.Pad < 0 {
		return fmt.Errorf("%w: pad must not be negative, got %d", ErrConfig, c.Pad)
	}
	return nil
}

// Lengths returns the sweep's vector lengths in ascending order.
func Lengths(c Config) []int {
	var out []int
	for n := c.LenBegin; n <= c.LenEnd; n *= c.LenFactor {
		out = append(out, n)
		if n > c.LenEnd/c.LenFactor {
			// Next step would overflow or pass LenEnd.
			break
		}
	}
	return out
}

// Measure times a single call of op on the monotonic clock.
func Measure(op func()) time.Duration {
	start := time.Now()
	op()
	return time.Since(start)
}

// Result is the timing of one kernel at one length.
type Result struct {
	Length  int
	Variant kernels.Variant
	Elapsed time.Duration

	// Sum is the kernel's output, kept so the call cannot be optimized away
	// and so runs can be cross-checked.
	Sum float32
}

// Row groups the results of one length in variant order.
type Row struct {
	Length  int
	Results []Result
}

// Sink receives one Row per length, as soon as the length is done.
type Sink interface {
	WriteRow(Row) error
}

type Harness struct {
	Config    Config
	Allocator alloc.Allocator
	Variants  []kernels.Variant
	Sink      Sink
}

// New returns a harness with the default sweep over every compiled-in
// variant, allocating from the Go heap.
func New(sink Sink) *Harness {
	return &Harness{
		Config:    DefaultConfig(),
		Allocator: alloc.HeapAllocator{},
		Variants:  kernels.Variants(),
		Sink:      sink,
	}
}

// Run performs the sweep.  Any failure ends the run; results gathered so far
// are returned alongside the error.
func (h *Harness) Run() ([]Result, error) {
	if err := h.Config.Validate(); err != nil {
		return nil, err
	}
	if len(h.Variants) == 0 {
		return nil, fmt.Errorf("%w: no kernel variants", ErrConfig)
	}

	st := vecgen.NewState(h.Config.Seed)

	var results []Result
	for _, n := range Lengths(h.Config) {
		pair, err := vecgen.NewPair(h.Allocator, n, h.Config.Pad, h.Config.Alignment)
		if err != nil {
			return results, fmt.Errorf("while benchmarking length %d: %w", n, err)
		}

		var row Row
		row, st, err = h.runLength(pair, st)
		results = append(results, row.Results...)
		if err != nil {
			pair.Release()
			return results, fmt.Errorf("while benchmarking length %d: %w", n, err)
		}

		if h.Sink != nil {
			if err := h.Sink.WriteRow(row); err != nil {
				pair.Release()
				return results, fmt.Errorf("while emitting length %d: %w", n, err)
			}
		}

		if err := pair.Release(); err != nil {
			return results, fmt.Errorf("while releasing length %d: %w", n, err)
		}
	}
	return results, nil
}

// operands picks what v runs on.  A length shorter than the variant's width
// is widened into the zeroed padding, so the kernel still sees one whole
// block and the sum is unchanged.  Any other partial block is left for Check
// to reject.
func operands(pair *vecgen.Pair, v kernels.Variant) (lhs, rhs []float32, err error) {
	n := pair.Len()
	if n > 0 && n < v.Width {
		return pair.Span(v.Width)
	}
	lhs, rhs = pair.Operands()
	return lhs, rhs, nil
}

func (h *Harness) runLength(pair *vecgen.Pair, st vecgen.State) (Row, vecgen.State, error) {
	n := pair.Len()
	st = pair.Fill(st)

	// Validate everything up front so the timed region is the bare kernel.
	type job struct {
		variant  kernels.Variant
		lhs, rhs []float32
	}
	jobs := make([]job, 0, len(h.Variants))
	for _, v := range h.Variants {
		lhs, rhs, err := operands(pair, v)
		if err != nil {
			return Row{}, st, fmt.Errorf("%s: %w: length %d, width %d, %v", v.Name, kernels.ErrWidth, n, v.Width, err)
		}
		if err := v.Check(lhs, rhs); err != nil {
			return Row{}, st, err
		}
		jobs = append(jobs, job{variant: v, lhs: lhs, rhs: rhs})
	}

	row := Row{Length: n, Results: make([]Result, 0, len(jobs))}
	for _, j := range jobs {
		var sum float32
		kernel, lhs, rhs := j.variant.Kernel, j.lhs, j.rhs
		elapsed := Measure(func() { sum = kernel(lhs, rhs) })
		row.Results = append(row.Results, Result{
			Length:  n,
			Variant: j.variant,
			Elapsed: elapsed,
			Sum:     sum,
		})
	}
	return row, st, nil
}
