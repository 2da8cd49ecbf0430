// Copyright 2025 The Ritz Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package linsolve implements the batched preconditioned conjugate-gradient
// solver used standalone and inside the eigensolver backward pass.
package linsolve

import (
	"log"
	"math"

	"github.com/ritz-ml/ritz/backend/cpu"
	"github.com/ritz-ml/ritz/tensor"
)

// Default iteration budget and residual tolerance for ConjGrad.
const (
	DefaultMaxNiter = 500
	DefaultMinEps   = 1e-9
)

// breakdownTol guards conjugacy-loss denominators: a step whose denominator
// falls below it is skipped instead of divided through, so stagnation on
// indefinite or near-singular systems never turns into NaN.
const breakdownTol = 1e-30

// Options configures ConjGrad. The zero value means defaults.
type Options struct {
	// MaxNiter bounds the iteration count. Reaching it is not an error:
	// the best estimate so far is returned and the caller is responsible
	// for checking the residual when correctness is safety-critical.
	MaxNiter int
	// MinEps is the per-column residual norm below which the solve stops.
	MinEps float64
	// Posdef declares the system positive definite. When false the solver
	// does not assume monotonic residual decrease and keeps returning the
	// lowest-residual iterate seen rather than the last one.
	Posdef bool
	// Verbose logs per-iteration residual norms.
	Verbose bool
}

func (o Options) withDefaults() Options {
	if o.MaxNiter == 0 {
		o.MaxNiter = DefaultMaxNiter
	}
	if o.MinEps == 0 {
		o.MinEps = DefaultMinEps
	}
	return o
}

// ConjGrad solves mv(x) = rhs for a batch of right-hand sides
// (nbatch, n, ncols), treating every (batch, column) pair as an independent
// system coupled only by the collective stop decision.
//
// mv must be a linear map; precond approximately inverts it (nil for no
// preconditioning); x0 is the initial guess (nil for zero). The returned
// estimate may be non-converged: exhausting MaxNiter degrades quality but is
// not an error.
func ConjGrad(mv func(*tensor.Tensor) *tensor.Tensor, rhs *tensor.Tensor,
	precond func(*tensor.Tensor) *tensor.Tensor, x0 *tensor.Tensor, opts Options) *tensor.Tensor {

	opts = opts.withDefaults()
	be := cpu.New()

	applyPrecond := precond
	if applyPrecond == nil {
		applyPrecond = func(r *tensor.Tensor) *tensor.Tensor { return r }
	}

	var x, r *tensor.Tensor
	if x0 == nil {
		x = tensor.Zeros(rhs.Shape())
		r = rhs.Clone()
	} else {
		x = x0.Clone()
		r = be.Sub(rhs, mv(x))
	}

	z := applyPrecond(r)
	p := z.Clone()
	rho := dotCols(be, r, z) // (nbatch, 1, ncols)

	best := x
	bestRes := maxColNorm(be, r)
	if opts.Verbose {
		log.Printf("conjgrad: initial residual %.3e", bestRes)
	}
	if bestRes < opts.MinEps {
		return best
	}

	for i := 0; i < opts.MaxNiter; i++ {
		ap := mv(p)
		alpha := safeDiv(rho, dotCols(be, p, ap))

		x = be.Add(x, be.Mul(alpha, p))
		r = be.Sub(r, be.Mul(alpha, ap))

		res := maxColNorm(be, r)
		if opts.Verbose {
			log.Printf("conjgrad: iter %3d residual %.3e", i+1, res)
		}
		if opts.Posdef || res < bestRes {
			best, bestRes = x, res
		}
		if res < opts.MinEps {
			break
		}

		z = applyPrecond(r)
		rhoNew := dotCols(be, r, z)
		beta := safeDiv(rhoNew, rho)
		p = be.Add(z, be.Mul(beta, p))
		rho = rhoNew
	}

	return best
}

// dotCols computes per-(batch, column) inner products: (nbatch, 1, ncols).
func dotCols(be tensor.Backend, a, b *tensor.Tensor) *tensor.Tensor {
	return be.SumDim(be.Mul(a, b), 1, true)
}

// safeDiv divides element-wise, mapping degenerate quotients to zero so a
// broken-down search direction contributes a null step instead of NaN.
func safeDiv(num, den *tensor.Tensor) *tensor.Tensor {
	out := tensor.New(num.Shape())
	nd, dd, od := num.Data(), den.Data(), out.Data()
	for i := range od {
		if math.Abs(dd[i]) < breakdownTol {
			continue
		}
		q := nd[i] / dd[i]
		if math.IsNaN(q) || math.IsInf(q, 0) {
			continue
		}
		od[i] = q
	}
	return out
}

// maxColNorm returns the largest per-column Euclidean residual norm across
// the whole batch. Stop decisions are taken on this collective criterion:
// a slow-converging batch element keeps every element iterating.
func maxColNorm(be tensor.Backend, r *tensor.Tensor) float64 {
	sq := be.SumDim(be.Mul(r, r), 1, false)
	worst := 0.0
	for _, v := range sq.Data() {
		worst = math.Max(worst, v)
	}
	return math.Sqrt(worst)
}
