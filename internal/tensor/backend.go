package tensor

// Backend is the compute interface the solver core is written against.
//
// The CPU backend implements it directly; the autodiff backend decorates any
// Backend and records every call on a gradient tape. Linear-operator
// implementations must route all tensor math through the Backend they are
// handed: that is what makes an operator traceable during the backward pass.
//
// All binary element-wise operations support NumPy-style broadcasting.
// Implementations allocate fresh result tensors and never mutate inputs.
type Backend interface {
	// Name returns the backend name.
	Name() string

	// Add performs element-wise addition with broadcasting.
	Add(a, b *Tensor) *Tensor
	// Sub performs element-wise subtraction with broadcasting.
	Sub(a, b *Tensor) *Tensor
	// Mul performs element-wise multiplication with broadcasting.
	Mul(a, b *Tensor) *Tensor
	// Div performs element-wise division with broadcasting.
	Div(a, b *Tensor) *Tensor
	// Scale multiplies every element by a scalar.
	Scale(a *Tensor, s float64) *Tensor

	// BatchMatMul multiplies batches of matrices:
	// (B, M, K) @ (B, K, N) → (B, M, N).
	BatchMatMul(a, b *Tensor) *Tensor

	// Transpose permutes dimensions. Without axes, all dimensions are
	// reversed; with axes, axes[i] names the source dimension of output
	// dimension i.
	Transpose(a *Tensor, axes ...int) *Tensor

	// SumDim sums along one dimension. With keepdim the reduced dimension
	// stays with size 1, otherwise it is dropped.
	SumDim(a *Tensor, dim int, keepdim bool) *Tensor

	// DiagEmbed maps (..., N) to (..., N, N) matrices whose diagonals are
	// the input vectors.
	DiagEmbed(d *Tensor) *Tensor
}

// Diagonaler is an optional Backend capability: extracting the main diagonal
// of batched square matrices, the inverse of DiagEmbed. Jacobi-style
// preconditioners assert for it.
type Diagonaler interface {
	// Diagonal maps (..., N, N) to (..., N).
	Diagonal(a *Tensor) *Tensor
}
