//go:build amd64

package main

import "github.com/ziutek/blas"

// oracleDot is an independent single-precision dot product.
func oracleDot(lhs, rhs []float32) float32 {
	return blas.Sdot(len(lhs), lhs, 1, rhs, 1)
}
