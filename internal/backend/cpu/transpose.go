package cpu

import (
	"fmt"

	"github.com/ritz-ml/ritz/internal/tensor"
)

// Transpose permutes the dimensions of a tensor.
// Without axes, all dimensions are reversed. With axes, axes[i] names the
// source dimension that becomes output dimension i (so batched matrix
// transpose of a 3D tensor is Transpose(t, 0, 2, 1)).
func (cpu *CPUBackend) Transpose(a *tensor.Tensor, axes ...int) *tensor.Tensor {
	shape := a.Shape()
	ndim := len(shape)

	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}
	if len(axes) != ndim {
		panic(fmt.Sprintf("Transpose: got %d axes for %dD tensor", len(axes), ndim))
	}
	seen := make([]bool, ndim)
	for _, ax := range axes {
		if ax < 0 || ax >= ndim || seen[ax] {
			panic(fmt.Sprintf("Transpose: invalid axes %v for %dD tensor", axes, ndim))
		}
		seen[ax] = true
	}

	outShape := make(tensor.Shape, ndim)
	for i, ax := range axes {
		outShape[i] = shape[ax]
	}
	out := tensor.New(outShape)

	srcStrides := a.Strides()
	// Stride of output dimension i in the source storage.
	permStrides := make([]int, ndim)
	for i, ax := range axes {
		permStrides[i] = srcStrides[ax]
	}

	src, dst := a.Data(), out.Data()
	idx := make([]int, ndim)
	srcOff := 0
	for i := range dst {
		dst[i] = src[srcOff]
		for d := ndim - 1; d >= 0; d-- {
			idx[d]++
			srcOff += permStrides[d]
			if idx[d] < outShape[d] {
				break
			}
			idx[d] = 0
			srcOff -= permStrides[d] * outShape[d]
		}
	}
	return out
}
