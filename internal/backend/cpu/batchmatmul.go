package cpu

import (
	"fmt"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"

	"github.com/ritz-ml/ritz/internal/parallel"
	"github.com/ritz-ml/ritz/internal/tensor"
)

// BatchMatMul performs batched matrix multiplication:
// (B, M, K) @ (B, K, N) → (B, M, N).
//
// Each batch element is a dense row-major GEMM dispatched to gonum's BLAS;
// batch elements run in parallel.
func (cpu *CPUBackend) BatchMatMul(a, b *tensor.Tensor) *tensor.Tensor {
	aShape, bShape := a.Shape(), b.Shape()
	if len(aShape) != 3 || len(bShape) != 3 {
		panic(fmt.Sprintf("BatchMatMul: inputs must be 3D, got %dD and %dD", len(aShape), len(bShape)))
	}
	if aShape[0] != bShape[0] {
		panic(fmt.Sprintf("BatchMatMul: batch dimension mismatch: %d vs %d", aShape[0], bShape[0]))
	}
	if aShape[2] != bShape[1] {
		panic(fmt.Sprintf("BatchMatMul: inner dimension mismatch: %d vs %d", aShape[2], bShape[1]))
	}

	nbatch, m, k, n := aShape[0], aShape[1], aShape[2], bShape[2]
	out := tensor.New(tensor.Shape{nbatch, m, n})

	ad, bd, od := a.Data(), b.Data(), out.Data()
	cfg := cpu.par
	cfg.MinChunkSize = 1 // one GEMM per work item is already coarse enough
	parallel.For(nbatch, func(i int) {
		am := blas64.General{Rows: m, Cols: k, Stride: k, Data: ad[i*m*k : (i+1)*m*k]}
		bm := blas64.General{Rows: k, Cols: n, Stride: n, Data: bd[i*k*n : (i+1)*k*n]}
		cm := blas64.General{Rows: m, Cols: n, Stride: n, Data: od[i*m*n : (i+1)*m*n]}
		blas64.Gemm(blas.NoTrans, blas.NoTrans, 1, am, bm, 0, cm)
	}, cfg)

	return out
}
