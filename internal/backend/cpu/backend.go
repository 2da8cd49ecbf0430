// Package cpu implements the CPU compute backend: broadcast element-wise
// kernels, BLAS-backed batched matrix multiplication and the reductions used
// by the eigensolver core.
package cpu

import (
	"github.com/ritz-ml/ritz/internal/parallel"
	"github.com/ritz-ml/ritz/internal/tensor"
)

// CPUBackend implements tensor.Backend on the host CPU.
// Batched kernels parallelize over the batch dimension.
type CPUBackend struct {
	par parallel.Config
}

// New creates a new CPU backend with default parallelism.
func New() *CPUBackend {
	return &CPUBackend{par: parallel.DefaultConfig()}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Add performs element-wise addition with NumPy-style broadcasting.
func (cpu *CPUBackend) Add(a, b *tensor.Tensor) *tensor.Tensor {
	return binaryOp("add", a, b, func(x, y float64) float64 { return x + y })
}

// Sub performs element-wise subtraction with broadcasting.
func (cpu *CPUBackend) Sub(a, b *tensor.Tensor) *tensor.Tensor {
	return binaryOp("sub", a, b, func(x, y float64) float64 { return x - y })
}

// Mul performs element-wise multiplication with broadcasting.
func (cpu *CPUBackend) Mul(a, b *tensor.Tensor) *tensor.Tensor {
	return binaryOp("mul", a, b, func(x, y float64) float64 { return x * y })
}

// Div performs element-wise division with broadcasting.
// Division by zero follows IEEE-754; callers that cannot tolerate Inf must
// clamp denominators first (see the preconditioner implementations).
func (cpu *CPUBackend) Div(a, b *tensor.Tensor) *tensor.Tensor {
	return binaryOp("div", a, b, func(x, y float64) float64 { return x / y })
}

// Scale multiplies every element by a scalar.
func (cpu *CPUBackend) Scale(a *tensor.Tensor, s float64) *tensor.Tensor {
	out := tensor.New(a.Shape())
	src := a.Data()
	dst := out.Data()
	for i, v := range src {
		dst[i] = s * v
	}
	return out
}
