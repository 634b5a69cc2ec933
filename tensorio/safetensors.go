// Package tensorio saves and restores named float32 vectors in the
// safetensors layout: an 8-byte little-endian header length, a JSON header
// describing each tensor, then the raw little-endian data.
//
// It is used to snapshot benchmark operands so a suspicious result can be
// replayed against every kernel later.
package tensorio

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"slices"
	"strings"
)

// Tensor is a dense float32 array in row-major order.
type Tensor struct {
	V     []float32
	Shape []int
}

// Vector wraps a 1-D slice without copying it.
func Vector(v []float32) *Tensor {
	return &Tensor{V: v, Shape: []int{len(v)}}
}

type tensorInfo struct {
	DType       string `json:"dtype"`
	Shape       []int  `json:"shape"`
	DataOffsets []int  `json:"data_offsets"`
}

type entry struct {
	name string
	info tensorInfo
}

func numElements(shape []int) (int, bool) {
	size := 1
	for _, s := range shape {
		if s < 0 {
			return 0, false
		}
		size *= s
	}
	return size, true
}

// layout assigns data offsets in name order.
func layout(tensors map[string]*Tensor) ([]entry, error) {
	var entries []entry
	for name, t := range tensors {
		if name == "__metadata__" {
			return nil, fmt.Errorf("tensor name %s is reserved", name)
		}
		size, ok := numElements(t.Shape)
		if !ok || size != len(t.V) {
			return nil, fmt.Errorf("%s: shape %v does not hold %d values", name, t.Shape, len(t.V))
		}
		entries = append(entries, entry{name: name, info: tensorInfo{DType: "F32", Shape: t.Shape}})
	}
	slices.SortFunc(entries, func(a, b entry) int { return strings.Compare(a.name, b.name) })

	pos := 0
	for i := range entries {
		end := pos + len(tensors[entries[i].name].V)*4
		entries[i].info.DataOffsets = []int{pos, end}
		pos = end
	}
	return entries, nil
}

// Write stores tensors in name order.  Metadata, if any, is kept under the
// standard __metadata__ key.  The header is space-padded to a multiple of 8
// bytes so the data section stays aligned for memory-mapped readers.
func Write(w io.Writer, tensors map[string]*Tensor, metadata map[string]string) error {
	entries, err := layout(tensors)
	if err != nil {
		return err
	}

	header := make(map[string]any, len(entries)+1)
	if len(metadata) > 0 {
		header["__metadata__"] = metadata
	}
	for _, e := range entries {
		header[e.name] = e.info
	}
	headerBytes, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("while marshaling header: %w", err)
	}
	if rem := len(headerBytes) % 8; rem != 0 {
		headerBytes = append(headerBytes, bytes.Repeat([]byte{' '}, 8-rem)...)
	}

	out := binary.LittleEndian.AppendUint64(nil, uint64(len(headerBytes)))
	out = append(out, headerBytes...)
	for _, e := range entries {
		for _, v := range tensors[e.name].V {
			out = binary.LittleEndian.AppendUint32(out, math.Float32bits(v))
		}
	}

	if _, err := w.Write(out); err != nil {
		return fmt.Errorf("while writing safetensors data: %w", err)
	}
	return nil
}

// Read loads every tensor and the metadata block.
func Read(r io.Reader) (map[string]*Tensor, map[string]string, error) {
	var headerLen uint64
	if err := binary.Read(r, binary.LittleEndian, &headerLen); err != nil {
		return nil, nil, fmt.Errorf("while reading header length: %w", err)
	}
	if headerLen > 100<<20 {
		return nil, nil, fmt.Errorf("implausible header length %d", headerLen)
	}

	headerBytes := make([]byte, int(headerLen))
	if _, err := io.ReadFull(r, headerBytes); err != nil {
		return nil, nil, fmt.Errorf("while reading header: %w", err)
	}

	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(headerBytes, &raw); err != nil {
		return nil, nil, fmt.Errorf("while parsing header: %w", err)
	}

	var metadata map[string]string
	if m, ok := raw["__metadata__"]; ok {
		if err := json.Unmarshal(m, &metadata); err != nil {
			return nil, nil, fmt.Errorf("while parsing metadata: %w", err)
		}
		delete(raw, "__metadata__")
	}

	var entries []entry
	for k, msg := range raw {
		var info tensorInfo
		if err := json.Unmarshal(msg, &info); err != nil {
			return nil, nil, fmt.Errorf("while parsing header for %s: %w", k, err)
		}
		if info.DType != "F32" {
			return nil, nil, fmt.Errorf("%s: unsupported dtype %s", k, info.DType)
		}
		if len(info.DataOffsets) != 2 {
			return nil, nil, fmt.Errorf("%s: bad data offsets %v", k, info.DataOffsets)
		}
		size, ok := numElements(info.Shape)
		if !ok {
			return nil, nil, fmt.Errorf("%s: bad shape %v", k, info.Shape)
		}
		if info.DataOffsets[1]-info.DataOffsets[0] != size*4 {
			return nil, nil, fmt.Errorf("%s: shape %v does not match offsets %v", k, info.Shape, info.DataOffsets)
		}
		entries = append(entries, entry{name: k, info: info})
	}

	// The data section is read front to back, so r need not support seeking.
	slices.SortFunc(entries, func(a, b entry) int {
		return a.info.DataOffsets[0] - b.info.DataOffsets[0]
	})

	tensors := map[string]*Tensor{}
	pos := 0
	for _, e := range entries {
		if e.info.DataOffsets[0] != pos {
			return nil, nil, fmt.Errorf("%s: data does not start at offset %d", e.name, pos)
		}
		v := make([]float32, (e.info.DataOffsets[1]-e.info.DataOffsets[0])/4)
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return nil, nil, fmt.Errorf("while reading %s values: %w", e.name, err)
		}
		tensors[e.name] = &Tensor{V: v, Shape: e.info.Shape}
		pos = e.info.DataOffsets[1]
	}

	return tensors, metadata, nil
}
