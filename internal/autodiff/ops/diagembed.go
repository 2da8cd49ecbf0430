package ops

import "github.com/ritz-ml/ritz/internal/tensor"

// DiagEmbedOp represents embedding vectors as diagonal matrices:
// output(..., i, i) = d(..., i).
type DiagEmbedOp struct {
	inputs []*tensor.Tensor
	output *tensor.Tensor
}

// NewDiagEmbedOp creates a new DiagEmbedOp.
func NewDiagEmbedOp(d, output *tensor.Tensor) *DiagEmbedOp {
	return &DiagEmbedOp{inputs: []*tensor.Tensor{d}, output: output}
}

// Backward extracts the main diagonal of the gradient: only diagonal entries
// of the output depend on the input.
func (op *DiagEmbedOp) Backward(grad *tensor.Tensor, backend tensor.Backend) []*tensor.Tensor {
	diag, ok := backend.(tensor.Diagonaler)
	if !ok {
		panic("DiagEmbedOp.Backward: backend must support Diagonal")
	}
	return []*tensor.Tensor{diag.Diagonal(grad)}
}

// Inputs returns the input tensor [d].
func (op *DiagEmbedOp) Inputs() []*tensor.Tensor { return op.inputs }

// Output returns the embedded diagonal matrices.
func (op *DiagEmbedOp) Output() *tensor.Tensor { return op.output }
