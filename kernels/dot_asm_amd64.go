//go:build amd64 && !purego && !goexperiment.simd

package kernels

var vectorVariants = []Variant{
	{Name: "width4", Label: "dot_sse", Width: 4, Alignment: 16, Backend: BackendAsm, Kernel: dotWidth4},
	{Name: "width8", Label: "dot_avx", Width: 8, Alignment: 32, Backend: BackendAsm, Kernel: dotWidth8},
	{Name: "width8-dual", Label: "dot_avx_2", Width: 16, Alignment: 32, Backend: BackendAsm, Kernel: dotWidth8Dual},
}
