package tensorio

import (
	"fmt"
	"io"
)

const (
	lhsKey = "lhs"
	rhsKey = "rhs"
)

// WritePair snapshots a pair of dot-product operands.
func WritePair(w io.Writer, lhs, rhs []float32, metadata map[string]string) error {
	return Write(w, map[string]*Tensor{
		lhsKey: Vector(lhs),
		rhsKey: Vector(rhs),
	}, metadata)
}

// ReadPair restores a snapshot written by WritePair.
func ReadPair(r io.Reader) (lhs, rhs []float32, metadata map[string]string, err error) {
	tensors, metadata, err := Read(r)
	if err != nil {
		return nil, nil, nil, err
	}

	l, ok := tensors[lhsKey]
	if !ok {
		return nil, nil, nil, fmt.Errorf("missing tensor %s", lhsKey)
	}
	rt, ok := tensors[rhsKey]
	if !ok {
		return nil, nil, nil, fmt.Errorf("missing tensor %s", rhsKey)
	}
	return l.V, rt.V, metadata, nil
}
