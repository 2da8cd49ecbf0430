// Package ops defines the differentiable operations recorded on the gradient
// tape, one type per backend operation.
//
// Each operation stores the tensors involved in the forward call and knows
// how to turn the gradient of its output into gradients of its inputs:
//   - AddOp/SubOp: pass-through (with broadcast reduction)
//   - MulOp/DivOp: product/quotient rules
//   - ScaleOp: scalar chain rule
//   - BatchMatMulOp: d(A@B)/dA = grad@Bᵀ, d(A@B)/dB = Aᵀ@grad
//   - TransposeOp: inverse permutation
//   - DiagEmbedOp: diagonal extraction
//   - SumDimOp: broadcast expansion
package ops

import "github.com/ritz-ml/ritz/internal/tensor"

// Operation represents a differentiable operation in the computation graph.
// It records its inputs and output during the forward pass and computes
// input gradients during the backward pass.
type Operation interface {
	// Backward computes gradients for the inputs given the output gradient.
	// The returned slice parallels Inputs(); a nil entry means no gradient
	// flows to that input.
	Backward(outputGrad *tensor.Tensor, backend tensor.Backend) []*tensor.Tensor

	// Inputs returns the input tensors of this operation.
	Inputs() []*tensor.Tensor

	// Output returns the output tensor produced by this operation.
	Output() *tensor.Tensor
}
