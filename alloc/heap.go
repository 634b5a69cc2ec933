package alloc

import (
	"fmt"
	"unsafe"
)

// HeapAllocator carves aligned buffers out of ordinary Go slices.  It pads
// each request by alignment/4 elements and reslices from the first aligned
// element.
type HeapAllocator struct{}

var _ Allocator = HeapAllocator{}

func (HeapAllocator) Allocate(length, alignment int) (buf *Buffer, err error) {
	if err := checkArgs(length, alignment); err != nil {
		return nil, err
	}

	// make panics with a runtime error on oversized requests; surface that
	// as an allocation failure rather than a crash in the caller's frame.
	defer func() {
		if r := recover(); r != nil {
			buf = nil
			err = fmt.Errorf("%w: %d float32 on heap: %v", ErrAllocation, length, r)
		}
	}()

	raw := make([]float32, length+alignment/f32Size)
	off := alignedOffset(unsafe.Pointer(unsafe.SliceData(raw)), alignment)

	return &Buffer{
		view:      raw[off : off+length : off+length],
		alignment: alignment,
		free: func() error {
			// Dropping the last reference to raw hands it back to the GC.
			raw = nil
			return nil
		},
	}, nil
}
