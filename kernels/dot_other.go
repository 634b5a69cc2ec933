//go:build !amd64 || purego

package kernels

// No vector kernels for this target; only Scalar is registered.
var vectorVariants []Variant
