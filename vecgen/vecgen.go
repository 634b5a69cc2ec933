// Package vecgen fills benchmark operands with reproducible pseudorandom
// samples.
//
// Generator state is an ordinary value that callers thread through Fill; there
// is no package-level generator.
package vecgen

import (
	"fmt"
	"math/rand/v2"

	"github.com/ahmedtd/dotbench/alloc"
)

// State is a PCG generator held by value.  Copying a State forks the stream.
type State struct {
	pcg rand.PCG
}

func NewState(seed uint64) State {
	return State{pcg: *rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)}
}

// Fill writes len(dst) samples uniformly distributed in [-1, 1) into dst, in
// index order, and returns the advanced state.  st itself is not modified, so
// filling twice from the same State produces the same samples.
func Fill(dst []float32, st State) State {
	r := rand.New(&st.pcg)
	for i := range dst {
		dst[i] = float32(2*r.Float64() - 1)
	}
	return st
}

// Pair is the lhs/rhs operand pair for one benchmark length.
type Pair struct {
	LHS, RHS *alloc.Buffer

	length int
}

// NewPair allocates two buffers of length+pad elements each.  pad gives the
// kernels slack past the last operand element, as the benchmark always did.
func NewPair(a alloc.Allocator, length, pad, alignment int) (*Pair, error) {
	if pad < 0 {
		return nil, fmt.Errorf("negative pad %d", pad)
	}

	lhs, err := a.Allocate(length+pad, alignment)
	if err != nil {
		return nil, fmt.Errorf("while allocating lhs: %w", err)
	}
	rhs, err := a.Allocate(length+pad, alignment)
	if err != nil {
		lhs.Release()
		return nil, fmt.Errorf("while allocating rhs: %w", err)
	}

	return &Pair{LHS: lhs, RHS: rhs, length: length}, nil
}

func (p *Pair) Len() int {
	return p.length
}

// Fill draws lhs and then rhs from one evolving stream.
func (p *Pair) Fill(st State) State {
	lhs, rhs := p.Operands()
	st = Fill(lhs, st)
	return Fill(rhs, st)
}

// Operands returns the first Len() elements of each buffer.
func (p *Pair) Operands() (lhs, rhs []float32) {
	return p.LHS.Float32s()[:p.length], p.RHS.Float32s()[:p.length]
}

// Span returns the first n elements of each buffer.  n may reach into the
// padding, up to the buffer length; the padding is zeroed first so the dot
// product over the span equals the one over Operands.
func (p *Pair) Span(n int) (lhs, rhs []float32, err error) {
	if n < p.length || n > p.LHS.Len() || n > p.RHS.Len() {
		return nil, nil, fmt.Errorf("span %d outside [%d, %d]", n, p.length, min(p.LHS.Len(), p.RHS.Len()))
	}
	lhs, rhs = p.LHS.Float32s()[:n], p.RHS.Float32s()[:n]
	clear(lhs[p.length:])
	clear(rhs[p.length:])
	return lhs, rhs, nil
}

func (p *Pair) Release() error {
	errL := p.LHS.Release()
	errR := p.RHS.Release()
	if errL != nil {
		return errL
	}
	return errR
}
