// Package kernels holds the dot-product kernel family: one scalar reference
// and up to three vector variants, each summing lhs[i]*rhs[i] in a different
// order.  Results agree to within float32 reassociation error, not bit for
// bit.
//
// Which vector variants exist is fixed when the package is built:
//
//	amd64                      avo-generated SSE/AVX assembly (dot_amd64.s)
//	amd64, GOEXPERIMENT=simd   simd/archsimd kernels
//	anything else, or purego   scalar only
//
// Nothing is probed at run time.  Running an AVX variant on a CPU without AVX
// dies with SIGILL; picking a build that matches the host is the caller's job.
package kernels

//go:generate go run ./asm-generators/gen-dot -out dot_amd64.s -stubs dot_amd64_stubs.go -pkg kernels

import (
	"errors"
	"fmt"

	"github.com/ahmedtd/dotbench/alloc"
)

var (
	ErrLengthMismatch = errors.New("operand lengths differ")
	ErrWidth          = errors.New("length is not a positive multiple of the kernel width")
	ErrMisaligned     = errors.New("operand is not aligned for the kernel's loads")
)

type Backend string

const (
	BackendGo       Backend = "go"
	BackendAsm      Backend = "asm"
	BackendArchSIMD Backend = "archsimd"
)

// Variant describes one kernel.  Kernel is the raw function: it does no
// checking at all and will read past the end of its operands when handed a
// length that is not a multiple of Width.  Use Dot unless the operands were
// already validated with Check.
type Variant struct {
	// Name is the variant identifier: scalar, width4, width8 or width8-dual.
	Name string
	// Label is the column name used in benchmark output.
	Label string

	// Width is the number of elements consumed per loop step.  Lengths must
	// be a multiple of it.
	Width int
	// Alignment is the byte boundary both operands must start on.
	Alignment int

	Backend Backend
	Kernel  func(lhs, rhs []float32) float32
}

// Check validates the kernel preconditions for the given operands.
func (v Variant) Check(lhs, rhs []float32) error {
	n := len(lhs)
	if n != len(rhs) {
		return fmt.Errorf("%s: %w: %d != %d", v.Name, ErrLengthMismatch, n, len(rhs))
	}
	if n%v.Width != 0 || (n == 0 && v.Width > 1) {
		return fmt.Errorf("%s: %w: length %d, width %d", v.Name, ErrWidth, n, v.Width)
	}
	if !alloc.IsAligned(lhs, v.Alignment) {
		return fmt.Errorf("%s: lhs: %w to %d bytes", v.Name, ErrMisaligned, v.Alignment)
	}
	if !alloc.IsAligned(rhs, v.Alignment) {
		return fmt.Errorf("%s: rhs: %w to %d bytes", v.Name, ErrMisaligned, v.Alignment)
	}
	return nil
}

// Dot checks the preconditions and runs the kernel.
func (v Variant) Dot(lhs, rhs []float32) (float32, error) {
	if err := v.Check(lhs, rhs); err != nil {
		return 0, err
	}
	return v.Kernel(lhs, rhs), nil
}

func (v Variant) String() string {
	return v.Name
}

// Scalar is the one-lane reference kernel.  It is available in every build.
var Scalar = Variant{
	Name:      "scalar",
	Label:     "dot_normal",
	Width:     1,
	Alignment: 4,
	Backend:   BackendGo,
	Kernel:    dotScalar,
}

func dotScalar(lhs, rhs []float32) float32 {
	rhs = rhs[:len(lhs)]
	var sum float32
	for i := range lhs {
		sum += lhs[i] * rhs[i]
	}
	return sum
}

// Variants returns the kernels compiled into this build, in benchmark order:
// width4, width8, width8-dual, scalar.
func Variants() []Variant {
	out := make([]Variant, 0, len(vectorVariants)+1)
	out = append(out, vectorVariants...)
	return append(out, Scalar)
}

// Lookup finds a compiled-in variant by name or output label.
func Lookup(name string) (Variant, bool) {
	for _, v := range Variants() {
		if v.Name == name || v.Label == name {
			return v, true
		}
	}
	return Variant{}, false
}
