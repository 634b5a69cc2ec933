// Package alloc hands out float32 buffers whose first element sits on a
// requested byte boundary.
//
// The aligned view and the allocation it was carved from travel together in a
// Buffer, so releasing a buffer always frees the original region and never the
// shifted view.
package alloc

import (
	"errors"
	"fmt"
	"unsafe"
)

const f32Size = 4

var (
	// ErrAllocation wraps failures to obtain memory.  Callers treat it as
	// terminal: a benchmark cannot continue without its operands.
	ErrAllocation = errors.New("allocation failed")

	ErrBadAlignment = errors.New("alignment must be a power of two and a multiple of 4")
	ErrBadLength    = errors.New("negative buffer length")
)

type Allocator interface {
	Allocate(length, alignment int) (*Buffer, error)
}

// Buffer is an aligned float32 region.  The zero value is an empty, released
// buffer.
type Buffer struct {
	view      []float32
	alignment int

	// free releases the original (unaligned) allocation that view points into.
	free func() error
}

// Float32s returns the aligned view.  Its capacity is clipped to Len, so
// nothing past the end of the buffer is reachable through it.
func (b *Buffer) Float32s() []float32 {
	return b.view
}

func (b *Buffer) Len() int {
	return len(b.view)
}

func (b *Buffer) Alignment() int {
	return b.alignment
}

// Release frees the original allocation.  It is safe to call more than once;
// the view is unusable afterwards.
func (b *Buffer) Release() error {
	free := b.free
	b.view = nil
	b.free = nil
	if free == nil {
		return nil
	}
	if err := free(); err != nil {
		return fmt.Errorf("while releasing buffer: %w", err)
	}
	return nil
}

// IsAligned reports whether the first element of v is on an alignment-byte
// boundary.  Empty slices are trivially aligned.
func IsAligned(v []float32, alignment int) bool {
	if len(v) == 0 {
		return true
	}
	return uintptr(unsafe.Pointer(unsafe.SliceData(v)))&uintptr(alignment-1) == 0
}

func checkArgs(length, alignment int) error {
	if length < 0 {
		return fmt.Errorf("%w: %d", ErrBadLength, length)
	}
	if alignment < f32Size || alignment&(alignment-1) != 0 {
		return fmt.Errorf("%w: got %d", ErrBadAlignment, alignment)
	}
	return nil
}

// alignedOffset returns how many float32 elements to skip from base to reach
// the next alignment boundary.
func alignedOffset(base unsafe.Pointer, alignment int) int {
	addr := uintptr(base)
	aligned := (addr + uintptr(alignment-1)) &^ uintptr(alignment-1)
	return int(aligned-addr) / f32Size
}
