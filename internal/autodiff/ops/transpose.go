package ops

import "github.com/ritz-ml/ritz/internal/tensor"

// TransposeOp represents a dimension permutation: output = transpose(a, axes).
//
// Even though transpose carries no arithmetic, it must be recorded: the
// backend materializes a new tensor, and without the record gradients would
// accumulate on the permuted copy instead of the original input.
type TransposeOp struct {
	inputs []*tensor.Tensor
	output *tensor.Tensor
	axes   []int
}

// NewTransposeOp creates a new TransposeOp. axes must be the resolved
// permutation used in the forward pass.
func NewTransposeOp(a, output *tensor.Tensor, axes []int) *TransposeOp {
	return &TransposeOp{inputs: []*tensor.Tensor{a}, output: output, axes: axes}
}

// Backward applies the inverse permutation to the gradient.
func (op *TransposeOp) Backward(grad *tensor.Tensor, backend tensor.Backend) []*tensor.Tensor {
	inverse := make([]int, len(op.axes))
	for i, ax := range op.axes {
		inverse[ax] = i
	}
	return []*tensor.Tensor{backend.Transpose(grad, inverse...)}
}

// Inputs returns the input tensor [a].
func (op *TransposeOp) Inputs() []*tensor.Tensor { return op.inputs }

// Output returns the permuted tensor.
func (op *TransposeOp) Output() *tensor.Tensor { return op.output }
