// Package autodiff implements reverse-mode automatic differentiation using
// the decorator pattern.
//
// AutodiffBackend wraps any tensor.Backend and records every operation on a
// GradientTape during the forward pass; walking the tape in reverse turns an
// output gradient into input gradients via the chain rule.
//
// The eigensolver uses this for exactly one thing: the vector-Jacobian
// product of a single operator application A(eigvecs, params...) during the
// implicit-function-theorem backward pass. The iterative solvers themselves
// run on an undecorated backend and are never traced.
package autodiff

import (
	"github.com/ritz-ml/ritz/internal/autodiff/ops"
	"github.com/ritz-ml/ritz/internal/tensor"
)

// AutodiffBackend wraps a Backend and adds gradient tracking.
// It implements tensor.Backend (and tensor.Diagonaler).
type AutodiffBackend struct {
	inner tensor.Backend
	tape  *GradientTape
}

// New creates a new AutodiffBackend wrapping the given backend.
func New(backend tensor.Backend) *AutodiffBackend {
	return &AutodiffBackend{
		inner: backend,
		tape:  NewGradientTape(),
	}
}

// Tape returns the gradient tape for manual control: starting/stopping
// recording, clearing between passes, and running Backward.
func (b *AutodiffBackend) Tape() *GradientTape {
	return b.tape
}

// Inner returns the wrapped backend.
func (b *AutodiffBackend) Inner() tensor.Backend {
	return b.inner
}

// Name returns the backend name.
func (b *AutodiffBackend) Name() string {
	return "Autodiff(" + b.inner.Name() + ")"
}

// Add performs element-wise addition and records the operation.
func (b *AutodiffBackend) Add(x, y *tensor.Tensor) *tensor.Tensor {
	result := b.inner.Add(x, y)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewAddOp(x, y, result))
	}
	return result
}

// Sub performs element-wise subtraction and records the operation.
func (b *AutodiffBackend) Sub(x, y *tensor.Tensor) *tensor.Tensor {
	result := b.inner.Sub(x, y)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewSubOp(x, y, result))
	}
	return result
}

// Mul performs element-wise multiplication and records the operation.
func (b *AutodiffBackend) Mul(x, y *tensor.Tensor) *tensor.Tensor {
	result := b.inner.Mul(x, y)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewMulOp(x, y, result))
	}
	return result
}

// Div performs element-wise division and records the operation.
func (b *AutodiffBackend) Div(x, y *tensor.Tensor) *tensor.Tensor {
	result := b.inner.Div(x, y)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewDivOp(x, y, result))
	}
	return result
}

// Scale multiplies by a scalar and records the operation.
func (b *AutodiffBackend) Scale(x *tensor.Tensor, s float64) *tensor.Tensor {
	result := b.inner.Scale(x, s)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewScaleOp(x, result, s))
	}
	return result
}

// BatchMatMul performs batched matrix multiplication and records the
// operation.
func (b *AutodiffBackend) BatchMatMul(x, y *tensor.Tensor) *tensor.Tensor {
	result := b.inner.BatchMatMul(x, y)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewBatchMatMulOp(x, y, result))
	}
	return result
}

// Transpose permutes dimensions and records the operation.
// The backend materializes a new tensor, so without the record gradients
// would stop at the permuted copy and never reach the original input.
func (b *AutodiffBackend) Transpose(x *tensor.Tensor, axes ...int) *tensor.Tensor {
	ndim := len(x.Shape())
	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}
	result := b.inner.Transpose(x, axes...)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewTransposeOp(x, result, axes))
	}
	return result
}

// SumDim reduces along one dimension and records the operation.
func (b *AutodiffBackend) SumDim(x *tensor.Tensor, dim int, keepdim bool) *tensor.Tensor {
	if dim < 0 {
		dim += len(x.Shape())
	}
	result := b.inner.SumDim(x, dim, keepdim)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewSumDimOp(x, result, dim, keepdim))
	}
	return result
}

// DiagEmbed embeds vectors as diagonal matrices and records the operation.
func (b *AutodiffBackend) DiagEmbed(d *tensor.Tensor) *tensor.Tensor {
	result := b.inner.DiagEmbed(d)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewDiagEmbedOp(d, result))
	}
	return result
}

// Diagonal extracts main diagonals (tensor.Diagonaler pass-through).
// Diagonal is only used by preconditioners and backward rules, which are not
// differentiated, so it is not recorded.
func (b *AutodiffBackend) Diagonal(x *tensor.Tensor) *tensor.Tensor {
	diag, ok := b.inner.(tensor.Diagonaler)
	if !ok {
		panic("autodiff: inner backend does not support Diagonal")
	}
	return diag.Diagonal(x)
}
