package ops

import "github.com/ritz-ml/ritz/internal/tensor"

// SumDimOp represents a sum along one dimension.
type SumDimOp struct {
	inputs  []*tensor.Tensor
	output  *tensor.Tensor
	dim     int
	keepdim bool
}

// NewSumDimOp creates a new SumDimOp. dim must be the resolved (non-negative)
// dimension used in the forward pass.
func NewSumDimOp(a, output *tensor.Tensor, dim int, keepdim bool) *SumDimOp {
	return &SumDimOp{inputs: []*tensor.Tensor{a}, output: output, dim: dim, keepdim: keepdim}
}

// Backward spreads the gradient uniformly back over the summed dimension.
func (op *SumDimOp) Backward(grad *tensor.Tensor, backend tensor.Backend) []*tensor.Tensor {
	a := op.inputs[0]
	g := grad
	if !op.keepdim {
		kept := a.Shape().Clone()
		kept[op.dim] = 1
		g = g.Reshape(kept)
	}
	return []*tensor.Tensor{expandBroadcast(g, a.Shape(), backend)}
}

// Inputs returns the input tensor [a].
func (op *SumDimOp) Inputs() []*tensor.Tensor { return op.inputs }

// Output returns the reduced tensor.
func (op *SumDimOp) Output() *tensor.Tensor { return op.output }
