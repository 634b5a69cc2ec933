//go:build !amd64

package main

func oracleDot(lhs, rhs []float32) float32 {
	var sum float64
	for i := range lhs {
		sum += float64(lhs[i]) * float64(rhs[i])
	}
	return float32(sum)
}
