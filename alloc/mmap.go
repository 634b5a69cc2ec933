package alloc

import (
	"fmt"
	"unsafe"

	"github.com/edsrzf/mmap-go"
)

// MmapAllocator serves buffers from anonymous memory mappings, outside the Go
// heap.  Mappings are page aligned, but the request is still over-allocated by
// alignment bytes so that alignments larger than a page are honoured too.
type MmapAllocator struct{}

var _ Allocator = MmapAllocator{}

func (MmapAllocator) Allocate(length, alignment int) (*Buffer, error) {
	if err := checkArgs(length, alignment); err != nil {
		return nil, err
	}

	region, err := mmap.MapRegion(nil, length*f32Size+alignment, mmap.RDWR, mmap.ANON, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: mapping %d float32: %v", ErrAllocation, length, err)
	}

	base := unsafe.Pointer(unsafe.SliceData(region))
	off := alignedOffset(base, alignment)
	all := unsafe.Slice((*float32)(base), len(region)/f32Size)

	return &Buffer{
		view:      all[off : off+length : off+length],
		alignment: alignment,
		free:      region.Unmap,
	}, nil
}
