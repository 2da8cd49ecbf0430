// Copyright 2025 The Ritz Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package eigen

import (
	"fmt"

	"github.com/ritz-ml/ritz/backend/cpu"
	"github.com/ritz-ml/ritz/internal/autodiff"
	"github.com/ritz-ml/ritz/linsolve"
	"github.com/ritz-ml/ritz/tensor"
)

// Decomposition holds the neig lowest eigenpairs of a symmetric linear
// operator, plus everything the backward pass needs: the operator handle,
// the parameter tuple and the conjugate-gradient options. The stored
// eigenpairs are plain detached tensors; no computation graph survives the
// forward solve.
type Decomposition struct {
	// Eigvals are the eigenvalues (nbatch, neig), ascending.
	Eigvals *tensor.Tensor
	// Eigvecs are the unit-norm, mutually orthogonal eigenvectors
	// (nbatch, na, neig); column i pairs with Eigvals entry i.
	Eigvecs *tensor.Tensor

	op     Operator
	params []*tensor.Tensor
	bck    BackwardOptions
}

// Decompose computes the neig lowest eigenpairs of the symmetric operator a
// with the strategy selected by fwd.Method, and prepares the decomposition
// for backward differentiation with respect to params.
//
// params is the ordered tuple of differentiable tensors a.Apply depends on,
// each with a leading batch dimension. Configuration errors (unknown method
// or initial-vector strategy, non-square operator, bad neig) are reported
// before any iteration; numerical non-convergence is not an error and simply
// yields a weaker-quality result.
func Decompose(a Operator, neig int, params []*tensor.Tensor, fwd ForwardOptions, bck BackwardOptions) (*Decomposition, error) {
	na, err := checkSquare(a)
	if err != nil {
		return nil, err
	}
	if neig < 1 || neig > na {
		return nil, fmt.Errorf("eigen: neig must be in [1, %d], got %d", na, neig)
	}
	for i, p := range params {
		if p == nil {
			return nil, fmt.Errorf("eigen: parameter %d is nil", i)
		}
	}
	cfg, err := fwd.withDefaults(neig)
	if err != nil {
		return nil, err
	}
	nbatch := batchSize(a, params)

	var evals, evecs *tensor.Tensor
	switch cfg.Method {
	case MethodDavidson:
		evals, evecs, err = davidsonEig(a, neig, nbatch, params, cfg)
	case MethodLanczos:
		evals, evecs, err = lanczosEig(a, neig, nbatch, params, cfg)
	case MethodExact:
		evals, evecs, err = exactEig(a, neig, nbatch, params, cfg)
	}
	if err != nil {
		return nil, err
	}

	if bck.MinEps == 0 {
		bck.MinEps = 1e-8
	}
	return &Decomposition{
		Eigvals: evals,
		Eigvecs: evecs,
		op:      a,
		params:  params,
		bck:     bck,
	}, nil
}

// Backward propagates gradients of a scalar loss with respect to the
// eigenvalues (nbatch, neig) and eigenvectors (nbatch, na, neig) back to the
// parameter tuple, returning one gradient per parameter in order.
//
// The rule is the implicit-function-theorem adjoint, not differentiation of
// the iteration:
//
//  1. the eigenvalue contribution seeds each eigenvector column with its
//     eigenvalue gradient (Hellmann–Feynman term);
//  2. the eigenvector contribution first projects gradEvecs orthogonal to
//     the eigenvector subspace (the component along the eigenvectors is
//     gauge freedom and unobservable), then solves the shifted system
//     (A − λᵢ)·g = −(projected gradient) with conjugate gradient, using the
//     operator's preconditioner biased at λᵢ, and projects g again;
//  3. one reverse-mode pass through a single operator application
//     A(eigvecs, params...) with the combined seed yields the parameter
//     gradients.
//
// Correctness rests only on the operator being linear in its input block and
// differentiable in its parameters.
func (d *Decomposition) Backward(gradEvals, gradEvecs *tensor.Tensor) ([]*tensor.Tensor, error) {
	if gradEvals == nil || !gradEvals.Shape().Equal(d.Eigvals.Shape()) {
		return nil, fmt.Errorf("eigen: gradEvals shape must be %v", d.Eigvals.Shape())
	}
	if gradEvecs == nil || !gradEvecs.Shape().Equal(d.Eigvecs.Shape()) {
		return nil, fmt.Errorf("eigen: gradEvecs shape must be %v", d.Eigvecs.Shape())
	}

	shape := d.Eigvecs.Shape()
	nbatch, neig := shape[0], shape[2]
	base := cpu.New()

	// Trace one operator application for the vector-Jacobian product.
	ad := autodiff.New(base)
	ad.Tape().StartRecording()
	loss := d.op.Apply(ad, d.Eigvecs, d.params...)
	ad.Tape().StopRecording()

	// 1. Eigenvalue contribution.
	gl := gradEvals.Reshape(tensor.Shape{nbatch, 1, neig})
	gevals := base.Mul(gl, d.Eigvecs)

	// 2. Eigenvector contribution, with the gauge component removed.
	b := projectOut(base, gradEvecs, d.Eigvecs)

	lam := d.Eigvals.Reshape(tensor.Shape{nbatch, 1, neig})
	shifted := func(x *tensor.Tensor) *tensor.Tensor {
		return base.Sub(d.op.Apply(base, x, d.params...), base.Mul(x, lam))
	}
	var precond func(*tensor.Tensor) *tensor.Tensor
	if pc, ok := d.op.(Preconditioner); ok {
		precond = func(r *tensor.Tensor) *tensor.Tensor {
			return pc.Precond(base, r, d.Eigvals, d.params...)
		}
	}
	opts := d.bck
	opts.Posdef = false // shifted system is indefinite by construction
	gevecs := linsolve.ConjGrad(shifted, base.Scale(b, -1), precond, nil, opts)
	gevecs = projectOut(base, gevecs, d.Eigvecs)

	// 3. One reverse-mode pass through the traced application.
	seed := base.Add(gevals, gevecs)
	grads := ad.Tape().Backward(loss, seed, ad)

	out := make([]*tensor.Tensor, len(d.params))
	for i, p := range d.params {
		if g, ok := grads[p]; ok {
			out[i] = g
		} else {
			out[i] = tensor.Zeros(p.Shape())
		}
	}
	return out, nil
}

// projectOut removes from g its component along each eigenvector column:
// g − Σᵢ ⟨g, vᵢ⟩ vᵢ, per (batch, column) pair.
func projectOut(be tensor.Backend, g, evecs *tensor.Tensor) *tensor.Tensor {
	coeff := be.SumDim(be.Mul(g, evecs), 1, true) // (nbatch, 1, neig)
	return be.Sub(g, be.Mul(coeff, evecs))
}
