package cpu

import (
	"fmt"

	"github.com/ritz-ml/ritz/internal/tensor"
)

// SumDim sums a tensor along one dimension.
// With keepdim the reduced dimension stays with size 1 (broadcastable back
// against the input), otherwise it is dropped.
func (cpu *CPUBackend) SumDim(a *tensor.Tensor, dim int, keepdim bool) *tensor.Tensor {
	shape := a.Shape()
	if dim < 0 {
		dim += len(shape)
	}
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("SumDim: invalid dimension %d for shape %v", dim, shape))
	}

	outer := 1
	for d := 0; d < dim; d++ {
		outer *= shape[d]
	}
	reduce := shape[dim]
	inner := 1
	for d := dim + 1; d < len(shape); d++ {
		inner *= shape[d]
	}

	keptShape := shape.Clone()
	keptShape[dim] = 1
	out := tensor.New(keptShape)

	src, dst := a.Data(), out.Data()
	for o := 0; o < outer; o++ {
		base := o * reduce * inner
		outBase := o * inner
		for r := 0; r < reduce; r++ {
			row := src[base+r*inner : base+(r+1)*inner]
			acc := dst[outBase : outBase+inner]
			for i, v := range row {
				acc[i] += v
			}
		}
	}

	if keepdim {
		return out
	}
	dropped := make(tensor.Shape, 0, len(shape)-1)
	dropped = append(dropped, shape[:dim]...)
	dropped = append(dropped, shape[dim+1:]...)
	return out.Reshape(dropped)
}
