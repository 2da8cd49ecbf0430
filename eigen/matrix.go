// Copyright 2025 The Ritz Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package eigen

import (
	"fmt"
	"math"

	"github.com/ritz-ml/ritz/tensor"
)

// MatOperator is a dense symmetric operator built from two parameters: a raw
// square matrix M (nbatch, n, n) and a diagonal vector d (nbatch, n), acting
// as
//
//	A = M + Mᵀ + diag(d)
//
// The symmetrization makes A symmetric for any M, so gradients with respect
// to M are well defined without constraining M itself. It doubles as the
// reference operator for exercising and validating the iterative strategies
// against the exact path.
type MatOperator struct {
	n int
	// EpsCond is the Jacobi preconditioner clamp: shifted diagonal entries
	// with magnitude below it are replaced by 1 to keep the preconditioner
	// finite near an exact eigenvalue.
	EpsCond float64
}

// NewMatOperator returns a MatOperator acting on size-n vectors with the
// default preconditioner clamp of 1e-6.
func NewMatOperator(n int) *MatOperator {
	return &MatOperator{n: n, EpsCond: 1e-6}
}

// Shape returns the (n, n) operator shape.
func (m *MatOperator) Shape() (int, int) { return m.n, m.n }

// Apply computes (M + Mᵀ + diag(d)) · x with params = (M, d).
// All arithmetic routes through b so the application is traceable.
func (m *MatOperator) Apply(b tensor.Backend, x *tensor.Tensor, params ...*tensor.Tensor) *tensor.Tensor {
	if len(params) != 2 {
		panic(fmt.Sprintf("eigen: MatOperator.Apply wants params (M, d), got %d tensors", len(params)))
	}
	mm, d := params[0], params[1]
	a := b.Add(b.Add(mm, b.Transpose(mm, 0, 2, 1)), b.DiagEmbed(d))
	return b.BatchMatMul(a, x)
}

// Precond applies the Jacobi (diagonal) preconditioner: each column of r is
// divided element-wise by (diag(A) − bias) for that column's bias, with
// near-zero denominators clamped to 1 via EpsCond.
func (m *MatOperator) Precond(b tensor.Backend, r, biases *tensor.Tensor, params ...*tensor.Tensor) *tensor.Tensor {
	if len(params) != 2 {
		panic(fmt.Sprintf("eigen: MatOperator.Precond wants params (M, d), got %d tensors", len(params)))
	}
	mm, d := params[0], params[1]

	dg, ok := b.(tensor.Diagonaler)
	if !ok {
		panic(fmt.Sprintf("eigen: backend %s cannot extract diagonals", b.Name()))
	}
	// diag(A) = 2·diag(M) + d, shaped (nbatch, n, 1) to broadcast over
	// columns.
	nbatch := d.Shape()[0]
	adiag := b.Add(b.Scale(dg.Diagonal(mm), 2), d).Reshape(tensor.Shape{nbatch, m.n, 1})

	var den *tensor.Tensor
	if biases != nil {
		nbias := biases.Shape()[1]
		den = b.Sub(adiag, biases.Reshape(tensor.Shape{nbatch, 1, nbias}))
	} else {
		den = b.Add(adiag, tensor.Zeros(r.Shape()))
	}

	dd := den.Clone()
	data := dd.Data()
	for i, v := range data {
		if math.Abs(v) < m.EpsCond {
			data[i] = 1
		}
	}
	return b.Div(r, dd)
}
