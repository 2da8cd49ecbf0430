package ops

import "github.com/ritz-ml/ritz/internal/tensor"

// BatchMatMulOp represents batched matrix multiplication: output = a @ b.
type BatchMatMulOp struct {
	inputs []*tensor.Tensor
	output *tensor.Tensor
}

// NewBatchMatMulOp creates a new BatchMatMulOp.
func NewBatchMatMulOp(a, b, output *tensor.Tensor) *BatchMatMulOp {
	return &BatchMatMulOp{inputs: []*tensor.Tensor{a, b}, output: output}
}

// Backward computes gradients for batched matmul. Given C = A @ B:
//
//	dL/dA = dL/dC @ Bᵀ
//	dL/dB = Aᵀ @ dL/dC
//
// where ᵀ transposes the matrix dimensions of each batch element.
func (op *BatchMatMulOp) Backward(grad *tensor.Tensor, backend tensor.Backend) []*tensor.Tensor {
	a, b := op.inputs[0], op.inputs[1]
	bT := backend.Transpose(b, 0, 2, 1)
	aT := backend.Transpose(a, 0, 2, 1)
	return []*tensor.Tensor{
		backend.BatchMatMul(grad, bT),
		backend.BatchMatMul(aT, grad),
	}
}

// Inputs returns the input tensors [a, b].
func (op *BatchMatMulOp) Inputs() []*tensor.Tensor { return op.inputs }

// Output returns the output tensor a @ b.
func (op *BatchMatMulOp) Output() *tensor.Tensor { return op.output }
