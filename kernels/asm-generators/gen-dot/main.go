// Command gen-dot emits the amd64 assembly for the vector dot-product kernels.
//
//	go generate ./kernels
//
// All loads are aligned (MOVAPS / VMOVAPS), so the Go wrappers must check
// operand alignment before calling in.  None of the kernels has a tail loop:
// they consume exactly Width elements per step and expect the length to be a
// multiple of it.
package main

import (
	. "github.com/mmcloughlin/avo/build"
	. "github.com/mmcloughlin/avo/operand"
	. "github.com/mmcloughlin/avo/reg"
)

func main() {
	ConstraintExpr("amd64 && !purego && !goexperiment.simd")

	genWidth4()
	genWidth8()
	genWidth8Dual()

	Generate()
}

// loadOperands loads the base pointers of lhs and rhs and the element count.
func loadOperands() (lhs, rhs, n Register) {
	lhs = Load(Param("lhs").Base(), GP64())
	rhs = Load(Param("rhs").Base(), GP64())
	n = Load(Param("lhs").Len(), GP64())
	return lhs, rhs, n
}

func genWidth4() {
	TEXT("dotWidth4", NOSPLIT, "func(lhs, rhs []float32) float32")
	Pragma("noescape")
	Doc("dotWidth4 sums lhs*rhs four lanes at a time using SSE.")

	lhs, rhs, n := loadOperands()

	acc := XMM()
	XORPS(acc, acc)

	Label("width4loop")
	CMPQ(n, U32(4))
	JL(LabelRef("width4reduce"))

	x := XMM()
	MOVAPS(Mem{Base: lhs}, x)
	MULPS(Mem{Base: rhs}, x)
	ADDPS(x, acc)

	ADDQ(U32(16), lhs)
	ADDQ(U32(16), rhs)
	SUBQ(U32(4), n)
	JMP(LabelRef("width4loop"))

	Comment("Reduce the four lanes to one.")
	Label("width4reduce")
	HADDPS(acc, acc)
	HADDPS(acc, acc)
	Store(acc, ReturnIndex(0))
	RET()
}

func genWidth8() {
	TEXT("dotWidth8", NOSPLIT, "func(lhs, rhs []float32) float32")
	Pragma("noescape")
	Doc("dotWidth8 sums lhs*rhs eight lanes at a time using AVX.")

	lhs, rhs, n := loadOperands()

	acc := YMM()
	VXORPS(acc, acc, acc)

	Label("width8loop")
	CMPQ(n, U32(8))
	JL(LabelRef("width8reduce"))

	x := YMM()
	VMOVAPS(Mem{Base: lhs}, x)
	VMULPS(Mem{Base: rhs}, x, x)
	VADDPS(x, acc, acc)

	ADDQ(U32(32), lhs)
	ADDQ(U32(32), rhs)
	SUBQ(U32(8), n)
	JMP(LabelRef("width8loop"))

	Label("width8reduce")
	reduce8(acc)
}

func genWidth8Dual() {
	TEXT("dotWidth8Dual", NOSPLIT, "func(lhs, rhs []float32) float32")
	Pragma("noescape")
	Doc("dotWidth8Dual sums lhs*rhs sixteen elements per step into two independent",
		"AVX accumulators, so consecutive adds do not wait on each other.")

	lhs, rhs, n := loadOperands()

	acc0, acc1 := YMM(), YMM()
	VXORPS(acc0, acc0, acc0)
	VXORPS(acc1, acc1, acc1)

	Label("width8dualloop")
	CMPQ(n, U32(16))
	JL(LabelRef("width8dualreduce"))

	x0, x1 := YMM(), YMM()
	VMOVAPS(Mem{Base: lhs}, x0)
	VMOVAPS(Mem{Base: lhs}.Offset(32), x1)
	VMULPS(Mem{Base: rhs}, x0, x0)
	VMULPS(Mem{Base: rhs}.Offset(32), x1, x1)
	VADDPS(x0, acc0, acc0)
	VADDPS(x1, acc1, acc1)

	ADDQ(U32(64), lhs)
	ADDQ(U32(64), rhs)
	SUBQ(U32(16), n)
	JMP(LabelRef("width8dualloop"))

	Label("width8dualreduce")
	VADDPS(acc1, acc0, acc0)
	reduce8(acc0)
}

// reduce8 folds the eight lanes of acc into lane 0 and returns it.
func reduce8(acc VecVirtual) {
	Comment("Fold the high 128 bits onto the low 128 bits, then reduce four lanes.")
	top := XMM()
	VEXTRACTF128(U8(1), acc, top)
	result := acc.AsX()
	VADDPS(top, result, result)
	VHADDPS(result, result, result)
	VHADDPS(result, result, result)
	VZEROUPPER()
	Store(result, ReturnIndex(0))
	RET()
}
