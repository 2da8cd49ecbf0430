// Copyright 2025 The Ritz Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package eigen

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritz-ml/ritz/backend/cpu"
	"github.com/ritz-ml/ritz/internal/linalg"
	"github.com/ritz-ml/ritz/tensor"
)

// randProblem builds MatOperator parameters with a small random coupling and
// a dominant, well separated diagonal, so the low end of the spectrum is
// simple and every strategy should resolve it.
func randProblem(rng *rand.Rand, nbatch, na int) (*tensor.Tensor, *tensor.Tensor) {
	m := tensor.RandN(rng, tensor.Shape{nbatch, na, na})
	for i, v := range m.Data() {
		m.Data()[i] = 0.1 * v
	}
	d := tensor.New(tensor.Shape{nbatch, na})
	for b := 0; b < nbatch; b++ {
		for i := 0; i < na; i++ {
			d.Set(float64(i)+1+0.5*float64(b), b, i)
		}
	}
	return m, d
}

// denseMatrix materializes A = M + Mᵀ + diag(d) as (nbatch, na, na).
func denseMatrix(op *MatOperator, m, d *tensor.Tensor) *tensor.Tensor {
	na, _ := op.Shape()
	nbatch := d.Shape()[0]
	return op.Apply(cpu.New(), tensor.Eye(nbatch, na, na), m, d)
}

// assertEigenpairs checks the quality contract every strategy shares:
// ascending eigenvalues, orthonormal eigenvectors and small residuals
// against the dense matrix.
func assertEigenpairs(t *testing.T, a, evals, evecs *tensor.Tensor, tol float64) {
	t.Helper()
	be := cpu.New()
	shape := evecs.Shape()
	nbatch, neig := shape[0], shape[2]

	for b := 0; b < nbatch; b++ {
		for i := 1; i < neig; i++ {
			assert.LessOrEqual(t, evals.At(b, i-1), evals.At(b, i), "batch %d not ascending", b)
		}
	}

	gram := be.BatchMatMul(be.Transpose(evecs, 0, 2, 1), evecs)
	for b := 0; b < nbatch; b++ {
		for i := 0; i < neig; i++ {
			for j := 0; j < neig; j++ {
				want := 0.0
				if i == j {
					want = 1.0
				}
				assert.InDelta(t, want, gram.At(b, i, j), 1e-6, "batch %d gram (%d,%d)", b, i, j)
			}
		}
	}

	lam := evals.Reshape(tensor.Shape{nbatch, 1, neig})
	resid := be.Sub(be.BatchMatMul(a, evecs), be.Mul(lam, evecs))
	for _, v := range resid.Data() {
		assert.InDelta(t, 0, v, tol)
	}
}

func TestDecompose_ExactMatchesDense(t *testing.T) {
	rng := rand.New(rand.NewSource(101))
	nbatch, na, neig := 2, 8, 3
	op := NewMatOperator(na)
	m, d := randProblem(rng, nbatch, na)

	dec, err := Decompose(op, neig, []*tensor.Tensor{m, d},
		ForwardOptions{Method: MethodExact}, BackwardOptions{})
	require.NoError(t, err)

	a := denseMatrix(op, m, d)
	wantVals, _, err := linalg.SymEigBatch(a)
	require.NoError(t, err)

	for b := 0; b < nbatch; b++ {
		for i := 0; i < neig; i++ {
			assert.InDelta(t, wantVals.At(b, i), dec.Eigvals.At(b, i), 1e-12)
		}
	}
	assertEigenpairs(t, a, dec.Eigvals, dec.Eigvecs, 1e-10)
}

func TestDecompose_Davidson(t *testing.T) {
	rng := rand.New(rand.NewSource(102))
	nbatch, na, neig := 2, 8, 3
	op := NewMatOperator(na)
	m, d := randProblem(rng, nbatch, na)
	params := []*tensor.Tensor{m, d}

	dec, err := Decompose(op, neig, params,
		ForwardOptions{Method: MethodDavidson, VInit: VInitRandN}, BackwardOptions{})
	require.NoError(t, err)

	exact, err := Decompose(op, neig, params,
		ForwardOptions{Method: MethodExact}, BackwardOptions{})
	require.NoError(t, err)

	for i, w := range exact.Eigvals.Data() {
		assert.InDelta(t, w, dec.Eigvals.Data()[i], 1e-4)
	}
	assertEigenpairs(t, denseMatrix(op, m, d), dec.Eigvals, dec.Eigvecs, 1e-4)
}

func TestDecompose_Lanczos(t *testing.T) {
	rng := rand.New(rand.NewSource(103))
	nbatch, na, neig := 2, 12, 2
	op := NewMatOperator(na)
	m, d := randProblem(rng, nbatch, na)
	params := []*tensor.Tensor{m, d}

	dec, err := Decompose(op, neig, params,
		ForwardOptions{Method: MethodLanczos}, BackwardOptions{})
	require.NoError(t, err)

	exact, err := Decompose(op, neig, params,
		ForwardOptions{Method: MethodExact}, BackwardOptions{})
	require.NoError(t, err)

	for i, w := range exact.Eigvals.Data() {
		assert.InDelta(t, w, dec.Eigvals.Data()[i], 1e-4)
	}
	assertEigenpairs(t, denseMatrix(op, m, d), dec.Eigvals, dec.Eigvecs, 1e-4)
}

func TestDecompose_LanczosFullSpectrum(t *testing.T) {
	// neig == na is valid input: the Krylov basis saturates the whole space
	// and the Ritz pairs coincide with the dense decomposition. The basis
	// must stop expanding at na columns instead of overfilling.
	rng := rand.New(rand.NewSource(113))
	na := 3
	op := NewMatOperator(na)
	m, d := randProblem(rng, 2, na)
	params := []*tensor.Tensor{m, d}

	dec, err := Decompose(op, na, params,
		ForwardOptions{Method: MethodLanczos}, BackwardOptions{})
	require.NoError(t, err)

	exact, err := Decompose(op, na, params,
		ForwardOptions{Method: MethodExact}, BackwardOptions{})
	require.NoError(t, err)

	for i, w := range exact.Eigvals.Data() {
		assert.InDelta(t, w, dec.Eigvals.Data()[i], 1e-8)
	}
	assertEigenpairs(t, denseMatrix(op, m, d), dec.Eigvals, dec.Eigvecs, 1e-8)
}

func TestDecompose_LanczosOneByOne(t *testing.T) {
	// A 1x1 operator: the single initial column already spans the space.
	op := NewMatOperator(1)
	m := tensor.Zeros(tensor.Shape{1, 1, 1})
	d, err := tensor.FromSlice([]float64{5}, tensor.Shape{1, 1})
	require.NoError(t, err)

	dec, err := Decompose(op, 1, []*tensor.Tensor{m, d},
		ForwardOptions{Method: MethodLanczos}, BackwardOptions{})
	require.NoError(t, err)
	assert.InDelta(t, 5.0, dec.Eigvals.At(0, 0), 1e-12)
}

func TestDecompose_VInitEye(t *testing.T) {
	rng := rand.New(rand.NewSource(104))
	na, neig := 8, 2
	op := NewMatOperator(na)
	m, d := randProblem(rng, 1, na)
	params := []*tensor.Tensor{m, d}

	dec, err := Decompose(op, neig, params,
		ForwardOptions{Method: MethodDavidson, VInit: VInitEye}, BackwardOptions{})
	require.NoError(t, err)
	assertEigenpairs(t, denseMatrix(op, m, d), dec.Eigvals, dec.Eigvecs, 1e-4)
}

func TestDecompose_Deterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(105))
	na, neig := 10, 3
	op := NewMatOperator(na)
	m, d := randProblem(rng, 1, na)
	params := []*tensor.Tensor{m, d}
	opts := ForwardOptions{Method: MethodDavidson, VInit: VInitRandN}

	first, err := Decompose(op, neig, params, opts, BackwardOptions{})
	require.NoError(t, err)
	second, err := Decompose(op, neig, params, opts, BackwardOptions{})
	require.NoError(t, err)

	assert.Equal(t, first.Eigvals.Data(), second.Eigvals.Data())
	assert.Equal(t, first.Eigvecs.Data(), second.Eigvecs.Data())
}

func TestDecompose_ConfigurationErrors(t *testing.T) {
	rng := rand.New(rand.NewSource(106))
	op := NewMatOperator(4)
	m, d := randProblem(rng, 1, 4)
	params := []*tensor.Tensor{m, d}

	_, err := Decompose(op, 2, params, ForwardOptions{Method: "qr"}, BackwardOptions{})
	assert.ErrorIs(t, err, ErrUnknownMethod)

	_, err = Decompose(op, 2, params, ForwardOptions{VInit: "zeros"}, BackwardOptions{})
	assert.ErrorIs(t, err, ErrUnknownVInit)

	_, err = Decompose(op, 0, params, ForwardOptions{}, BackwardOptions{})
	assert.Error(t, err)
	_, err = Decompose(op, 5, params, ForwardOptions{}, BackwardOptions{})
	assert.Error(t, err)

	_, err = Decompose(op, 2, []*tensor.Tensor{m, nil}, ForwardOptions{}, BackwardOptions{})
	assert.Error(t, err)

	_, err = Decompose(rectOperator{}, 1, nil, ForwardOptions{}, BackwardOptions{})
	assert.ErrorIs(t, err, ErrNonSquare)
}

type rectOperator struct{}

func (rectOperator) Apply(b tensor.Backend, x *tensor.Tensor, params ...*tensor.Tensor) *tensor.Tensor {
	return x
}
func (rectOperator) Shape() (int, int) { return 3, 4 }

func TestDecompose_MethodNameCaseInsensitive(t *testing.T) {
	rng := rand.New(rand.NewSource(107))
	op := NewMatOperator(4)
	m, d := randProblem(rng, 1, 4)

	_, err := Decompose(op, 2, []*tensor.Tensor{m, d},
		ForwardOptions{Method: "ExactEig", VInit: "RandN"}, BackwardOptions{})
	assert.NoError(t, err)
}

// lossAt computes L = Σ evals² + Σ evecs⁴ from an exact decomposition.
// Both terms are invariant under per-column sign flips, so finite
// differences are well defined despite the eigenvector gauge freedom.
func lossAt(t *testing.T, op *MatOperator, neig int, m, d *tensor.Tensor) float64 {
	t.Helper()
	dec, err := Decompose(op, neig, []*tensor.Tensor{m, d},
		ForwardOptions{Method: MethodExact}, BackwardOptions{})
	require.NoError(t, err)

	loss := 0.0
	for _, v := range dec.Eigvals.Data() {
		loss += v * v
	}
	for _, v := range dec.Eigvecs.Data() {
		loss += v * v * v * v
	}
	return loss
}

func TestBackward_AgainstFiniteDifferences(t *testing.T) {
	rng := rand.New(rand.NewSource(108))
	na, neig := 6, 3
	op := NewMatOperator(na)
	m, d := randProblem(rng, 1, na)

	dec, err := Decompose(op, neig, []*tensor.Tensor{m, d},
		ForwardOptions{Method: MethodExact}, BackwardOptions{MinEps: 1e-10})
	require.NoError(t, err)

	gradEvals := dec.Eigvals.Clone()
	for i, v := range gradEvals.Data() {
		gradEvals.Data()[i] = 2 * v
	}
	gradEvecs := dec.Eigvecs.Clone()
	for i, v := range gradEvecs.Data() {
		gradEvecs.Data()[i] = 4 * v * v * v
	}

	grads, err := dec.Backward(gradEvals, gradEvecs)
	require.NoError(t, err)
	require.Len(t, grads, 2)
	require.True(t, m.Shape().Equal(grads[0].Shape()))
	require.True(t, d.Shape().Equal(grads[1].Shape()))

	const eps = 1e-5
	checkParam := func(p, got *tensor.Tensor, name string) {
		pd := p.Data()
		for i := range pd {
			orig := pd[i]
			pd[i] = orig + eps
			plus := lossAt(t, op, neig, m, d)
			pd[i] = orig - eps
			minus := lossAt(t, op, neig, m, d)
			pd[i] = orig

			want := (plus - minus) / (2 * eps)
			tol := math.Max(1e-5, 0.01*math.Abs(want))
			assert.InDelta(t, want, got.Data()[i], tol, "%s entry %d", name, i)
		}
	}
	checkParam(m, grads[0], "M")
	checkParam(d, grads[1], "d")
}

func TestBackward_EigenvalueOnlyGradient(t *testing.T) {
	// With gradEvecs = 0 the backward pass reduces to the Hellmann-Feynman
	// term and no linear solve is exercised end to end; d(Σλ)/d(d_i) is the
	// squared eigenvector weight on row i, summed over pairs. Spot-check
	// against finite differences.
	rng := rand.New(rand.NewSource(109))
	na, neig := 5, 2
	op := NewMatOperator(na)
	m, d := randProblem(rng, 1, na)

	dec, err := Decompose(op, neig, []*tensor.Tensor{m, d},
		ForwardOptions{Method: MethodExact}, BackwardOptions{})
	require.NoError(t, err)

	gradEvals := tensor.Ones(dec.Eigvals.Shape())
	gradEvecs := tensor.Zeros(dec.Eigvecs.Shape())
	grads, err := dec.Backward(gradEvals, gradEvecs)
	require.NoError(t, err)

	const eps = 1e-6
	sumVals := func() float64 {
		dd, err := Decompose(op, neig, []*tensor.Tensor{m, d},
			ForwardOptions{Method: MethodExact}, BackwardOptions{})
		require.NoError(t, err)
		acc := 0.0
		for _, v := range dd.Eigvals.Data() {
			acc += v
		}
		return acc
	}
	pd := d.Data()
	for i := range pd {
		orig := pd[i]
		pd[i] = orig + eps
		plus := sumVals()
		pd[i] = orig - eps
		minus := sumVals()
		pd[i] = orig
		assert.InDelta(t, (plus-minus)/(2*eps), grads[1].Data()[i], 1e-5, "d entry %d", i)
	}
}

func TestBackward_ShapeMismatch(t *testing.T) {
	rng := rand.New(rand.NewSource(110))
	op := NewMatOperator(4)
	m, d := randProblem(rng, 1, 4)

	dec, err := Decompose(op, 2, []*tensor.Tensor{m, d},
		ForwardOptions{Method: MethodExact}, BackwardOptions{})
	require.NoError(t, err)

	_, err = dec.Backward(tensor.Zeros(tensor.Shape{1, 3}), tensor.Zeros(dec.Eigvecs.Shape()))
	assert.Error(t, err)
	_, err = dec.Backward(tensor.Zeros(dec.Eigvals.Shape()), tensor.Zeros(tensor.Shape{1, 4, 3}))
	assert.Error(t, err)
	_, err = dec.Backward(nil, nil)
	assert.Error(t, err)
}

func TestBackward_IterativeForwardAgreesWithExact(t *testing.T) {
	// The backward pass only consumes the converged eigenpairs, so a
	// Davidson forward must produce (near) identical parameter gradients
	// to an exact forward.
	rng := rand.New(rand.NewSource(111))
	na, neig := 8, 3
	op := NewMatOperator(na)
	m, d := randProblem(rng, 1, na)
	params := []*tensor.Tensor{m, d}

	run := func(method string) []*tensor.Tensor {
		dec, err := Decompose(op, neig, params,
			ForwardOptions{Method: method}, BackwardOptions{MinEps: 1e-10})
		require.NoError(t, err)
		gradEvals := tensor.Ones(dec.Eigvals.Shape())
		gradEvecs := dec.Eigvecs.Clone()
		for i, v := range gradEvecs.Data() {
			gradEvecs.Data()[i] = 4 * v * v * v
		}
		grads, err := dec.Backward(gradEvals, gradEvecs)
		require.NoError(t, err)
		return grads
	}

	exact := run(MethodExact)
	davidson := run(MethodDavidson)
	for p := range exact {
		for i, w := range exact[p].Data() {
			assert.InDelta(t, w, davidson[p].Data()[i], 1e-3, "param %d entry %d", p, i)
		}
	}
}

func TestMatOperator_PrecondClampsNearSingular(t *testing.T) {
	be := cpu.New()
	na := 4
	op := NewMatOperator(na)
	m := tensor.Zeros(tensor.Shape{1, na, na})
	d, err := tensor.FromSlice([]float64{1, 2, 3, 4}, tensor.Shape{1, na}) // diag(A) = d
	require.NoError(t, err)

	r := tensor.Ones(tensor.Shape{1, na, 1})
	biases, err := tensor.FromSlice([]float64{2}, tensor.Shape{1, 1}) // hits row 1 exactly
	require.NoError(t, err)

	out := op.Precond(be, r, biases, m, d)
	// Rows 0,2,3: r / (d_i − 2). Row 1: denominator clamped to 1.
	assert.InDelta(t, -1.0, out.At(0, 0, 0), 1e-12)
	assert.InDelta(t, 1.0, out.At(0, 1, 0), 1e-12)
	assert.InDelta(t, 1.0, out.At(0, 2, 0), 1e-12)
	assert.InDelta(t, 0.5, out.At(0, 3, 0), 1e-12)
}

func TestDecompose_LargeDavidson(t *testing.T) {
	if testing.Short() {
		t.Skip("n=2000 davidson solve")
	}
	// Small random coupling plus diag = [1, 2, ..., n]: the lowest four
	// eigenpairs of the symmetrized operator, resolved iteratively and
	// cross-checked against the dense path.
	rng := rand.New(rand.NewSource(112))
	na, neig := 2000, 4
	op := NewMatOperator(na)
	m := tensor.RandU(rng, tensor.Shape{1, na, na})
	for i, v := range m.Data() {
		m.Data()[i] = 0.1 * v
	}
	d := tensor.New(tensor.Shape{1, na})
	for i := 0; i < na; i++ {
		d.Set(float64(i)+1, 0, i)
	}
	params := []*tensor.Tensor{m, d}

	dec, err := Decompose(op, neig, params,
		ForwardOptions{Method: MethodDavidson, VInit: VInitRandN}, BackwardOptions{})
	require.NoError(t, err)

	exact, err := Decompose(op, neig, params,
		ForwardOptions{Method: MethodExact}, BackwardOptions{})
	require.NoError(t, err)

	for i, w := range exact.Eigvals.Data() {
		assert.InDelta(t, w, dec.Eigvals.Data()[i], 1e-4)
	}

	be := cpu.New()
	gram := be.BatchMatMul(be.Transpose(dec.Eigvecs, 0, 2, 1), dec.Eigvecs)
	for i := 0; i < neig; i++ {
		for j := 0; j < neig; j++ {
			want := 0.0
			if i == j {
				want = 1.0
			}
			assert.InDelta(t, want, gram.At(0, i, j), 1e-8)
		}
	}
}
