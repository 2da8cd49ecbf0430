package ops

import "github.com/ritz-ml/ritz/internal/tensor"

// AddOp represents element-wise addition: output = a + b.
type AddOp struct {
	inputs []*tensor.Tensor
	output *tensor.Tensor
}

// NewAddOp creates a new AddOp.
func NewAddOp(a, b, output *tensor.Tensor) *AddOp {
	return &AddOp{inputs: []*tensor.Tensor{a, b}, output: output}
}

// Backward passes the gradient through unchanged, reduced over any
// dimensions that were broadcast in the forward pass.
func (op *AddOp) Backward(grad *tensor.Tensor, backend tensor.Backend) []*tensor.Tensor {
	a, b := op.inputs[0], op.inputs[1]
	return []*tensor.Tensor{
		reduceBroadcast(grad, a.Shape(), backend),
		reduceBroadcast(grad, b.Shape(), backend),
	}
}

// Inputs returns the input tensors [a, b].
func (op *AddOp) Inputs() []*tensor.Tensor { return op.inputs }

// Output returns the output tensor a + b.
func (op *AddOp) Output() *tensor.Tensor { return op.output }

// SubOp represents element-wise subtraction: output = a - b.
type SubOp struct {
	inputs []*tensor.Tensor
	output *tensor.Tensor
}

// NewSubOp creates a new SubOp.
func NewSubOp(a, b, output *tensor.Tensor) *SubOp {
	return &SubOp{inputs: []*tensor.Tensor{a, b}, output: output}
}

// Backward: d(a-b)/da = grad, d(a-b)/db = -grad.
func (op *SubOp) Backward(grad *tensor.Tensor, backend tensor.Backend) []*tensor.Tensor {
	a, b := op.inputs[0], op.inputs[1]
	return []*tensor.Tensor{
		reduceBroadcast(grad, a.Shape(), backend),
		reduceBroadcast(backend.Scale(grad, -1), b.Shape(), backend),
	}
}

// Inputs returns the input tensors [a, b].
func (op *SubOp) Inputs() []*tensor.Tensor { return op.inputs }

// Output returns the output tensor a - b.
func (op *SubOp) Output() *tensor.Tensor { return op.output }

// MulOp represents element-wise multiplication: output = a * b.
type MulOp struct {
	inputs []*tensor.Tensor
	output *tensor.Tensor
}

// NewMulOp creates a new MulOp.
func NewMulOp(a, b, output *tensor.Tensor) *MulOp {
	return &MulOp{inputs: []*tensor.Tensor{a, b}, output: output}
}

// Backward: d(a*b)/da = grad * b, d(a*b)/db = grad * a.
func (op *MulOp) Backward(grad *tensor.Tensor, backend tensor.Backend) []*tensor.Tensor {
	a, b := op.inputs[0], op.inputs[1]
	return []*tensor.Tensor{
		reduceBroadcast(backend.Mul(grad, b), a.Shape(), backend),
		reduceBroadcast(backend.Mul(grad, a), b.Shape(), backend),
	}
}

// Inputs returns the input tensors [a, b].
func (op *MulOp) Inputs() []*tensor.Tensor { return op.inputs }

// Output returns the output tensor a * b.
func (op *MulOp) Output() *tensor.Tensor { return op.output }

// DivOp represents element-wise division: output = a / b.
type DivOp struct {
	inputs []*tensor.Tensor
	output *tensor.Tensor
}

// NewDivOp creates a new DivOp.
func NewDivOp(a, b, output *tensor.Tensor) *DivOp {
	return &DivOp{inputs: []*tensor.Tensor{a, b}, output: output}
}

// Backward: d(a/b)/da = grad / b, d(a/b)/db = -grad * a / b².
func (op *DivOp) Backward(grad *tensor.Tensor, backend tensor.Backend) []*tensor.Tensor {
	a, b := op.inputs[0], op.inputs[1]
	gradA := backend.Div(grad, b)
	gradB := backend.Scale(backend.Div(backend.Mul(grad, a), backend.Mul(b, b)), -1)
	return []*tensor.Tensor{
		reduceBroadcast(gradA, a.Shape(), backend),
		reduceBroadcast(gradB, b.Shape(), backend),
	}
}

// Inputs returns the input tensors [a, b].
func (op *DivOp) Inputs() []*tensor.Tensor { return op.inputs }

// Output returns the output tensor a / b.
func (op *DivOp) Output() *tensor.Tensor { return op.output }

// ScaleOp represents multiplication by a constant scalar: output = s * a.
type ScaleOp struct {
	inputs []*tensor.Tensor
	output *tensor.Tensor
	s      float64
}

// NewScaleOp creates a new ScaleOp.
func NewScaleOp(a, output *tensor.Tensor, s float64) *ScaleOp {
	return &ScaleOp{inputs: []*tensor.Tensor{a}, output: output, s: s}
}

// Backward: d(s*a)/da = s * grad.
func (op *ScaleOp) Backward(grad *tensor.Tensor, backend tensor.Backend) []*tensor.Tensor {
	return []*tensor.Tensor{backend.Scale(grad, op.s)}
}

// Inputs returns the input tensor [a].
func (op *ScaleOp) Inputs() []*tensor.Tensor { return op.inputs }

// Output returns the output tensor s * a.
func (op *ScaleOp) Output() *tensor.Tensor { return op.output }
