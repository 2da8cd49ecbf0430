package ops

import "github.com/ritz-ml/ritz/internal/tensor"

// reduceBroadcast reduces a gradient tensor back to the shape of a forward
// input that was broadcast.
//
// Example:
//
//	Forward: a(3,1,4) + b(3,5,4) → c(3,5,4)   (a broadcast along dim 1)
//	Backward: grad_c(3,5,4) → grad_a(3,1,4)   (sum along dim 1)
func reduceBroadcast(grad *tensor.Tensor, targetShape tensor.Shape, backend tensor.Backend) *tensor.Tensor {
	gradShape := grad.Shape()
	if gradShape.Equal(targetShape) {
		return grad
	}

	// Sum away leading dimensions the target does not have.
	result := grad
	for len(result.Shape()) > len(targetShape) {
		result = backend.SumDim(result, 0, false)
	}

	// Sum along dimensions where the target is 1.
	for d := 0; d < len(targetShape); d++ {
		if targetShape[d] == 1 && result.Shape()[d] > 1 {
			result = backend.SumDim(result, d, true)
		}
	}

	if !result.Shape().Equal(targetShape) {
		result = result.Reshape(targetShape)
	}
	return result
}

// expandBroadcast spreads a reduced gradient back over the input shape by
// adding it to a zero tensor of that shape (broadcasting does the copying).
func expandBroadcast(grad *tensor.Tensor, targetShape tensor.Shape, backend tensor.Backend) *tensor.Tensor {
	return backend.Add(grad, tensor.Zeros(targetShape))
}
