package cpu

import (
	"fmt"

	"github.com/ritz-ml/ritz/internal/tensor"
)

// DiagEmbed maps (..., N) vectors to (..., N, N) diagonal matrices.
func (cpu *CPUBackend) DiagEmbed(d *tensor.Tensor) *tensor.Tensor {
	shape := d.Shape()
	if len(shape) == 0 {
		panic("DiagEmbed: input must have at least one dimension")
	}
	n := shape[len(shape)-1]

	outShape := make(tensor.Shape, len(shape)+1)
	copy(outShape, shape)
	outShape[len(shape)] = n
	out := tensor.New(outShape)

	src, dst := d.Data(), out.Data()
	nvec := len(src) / n
	for v := 0; v < nvec; v++ {
		for i := 0; i < n; i++ {
			dst[v*n*n+i*n+i] = src[v*n+i]
		}
	}
	return out
}

// Diagonal maps (..., N, N) matrices to their (..., N) main diagonals.
// It is the inverse of DiagEmbed and implements tensor.Diagonaler.
func (cpu *CPUBackend) Diagonal(a *tensor.Tensor) *tensor.Tensor {
	shape := a.Shape()
	ndim := len(shape)
	if ndim < 2 {
		panic("Diagonal: input must have at least two dimensions")
	}
	n := shape[ndim-1]
	if shape[ndim-2] != n {
		panic(fmt.Sprintf("Diagonal: matrices must be square, got %dx%d", shape[ndim-2], n))
	}

	outShape := shape[:ndim-1].Clone()
	out := tensor.New(outShape)

	src, dst := a.Data(), out.Data()
	nmat := len(src) / (n * n)
	for m := 0; m < nmat; m++ {
		for i := 0; i < n; i++ {
			dst[m*n+i] = src[m*n*n+i*n+i]
		}
	}
	return out
}
