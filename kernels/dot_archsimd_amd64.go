//go:build amd64 && !purego && goexperiment.simd

package kernels

import "simd/archsimd"

var vectorVariants = []Variant{
	{Name: "width4", Label: "dot_sse", Width: 4, Alignment: 16, Backend: BackendArchSIMD, Kernel: dotWidth4},
	{Name: "width8", Label: "dot_avx", Width: 8, Alignment: 32, Backend: BackendArchSIMD, Kernel: dotWidth8},
	{Name: "width8-dual", Label: "dot_avx_2", Width: 16, Alignment: 32, Backend: BackendArchSIMD, Kernel: dotWidth8Dual},
}

func dotWidth4(lhs, rhs []float32) float32 {
	var acc archsimd.Float32x4

	// Conditions on len() keep the loads free of bounds checks.
	for len(lhs) >= 4 && len(rhs) >= 4 {
		x := archsimd.LoadFloat32x4Slice(lhs)
		y := archsimd.LoadFloat32x4Slice(rhs)
		acc = acc.Add(x.Mul(y))
		lhs, rhs = lhs[4:], rhs[4:]
	}

	var lanes [4]float32
	acc.StoreSlice(lanes[:])
	return lanes[0] + lanes[1] + lanes[2] + lanes[3]
}

func dotWidth8(lhs, rhs []float32) float32 {
	var acc archsimd.Float32x8
	for len(lhs) >= 8 && len(rhs) >= 8 {
		x := archsimd.LoadFloat32x8Slice(lhs)
		y := archsimd.LoadFloat32x8Slice(rhs)
		acc = acc.Add(x.Mul(y))
		lhs, rhs = lhs[8:], rhs[8:]
	}
	return sumLanes8(acc)
}

func dotWidth8Dual(lhs, rhs []float32) float32 {
	var acc0, acc1 archsimd.Float32x8
	for len(lhs) >= 16 && len(rhs) >= 16 {
		x1 := archsimd.LoadFloat32x8Slice(lhs[8:])
		x0 := archsimd.LoadFloat32x8Slice(lhs)
		y1 := archsimd.LoadFloat32x8Slice(rhs[8:])
		y0 := archsimd.LoadFloat32x8Slice(rhs)
		acc0 = acc0.Add(x0.Mul(y0))
		acc1 = acc1.Add(x1.Mul(y1))
		lhs, rhs = lhs[16:], rhs[16:]
	}
	return sumLanes8(acc0.Add(acc1))
}

// sumLanes8 spills acc and adds its lanes in order.
func sumLanes8(acc archsimd.Float32x8) float32 {
	var lanes [8]float32
	acc.StoreSlice(lanes[:])
	return lanes[0] + lanes[1] + lanes[2] + lanes[3] + lanes[4] + lanes[5] + lanes[6] + lanes[7]
}
