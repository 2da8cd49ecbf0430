// Copyright 2025 The Ritz Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package eigen

import (
	"fmt"

	"github.com/ritz-ml/ritz/tensor"
)

// Operator is the linear-operator capability consumed by the eigensolvers.
//
// Implementations are opaque to the solver: typically the matrix is never
// materialized and Apply computes the action directly (integral-driven
// Hamiltonians, stencils, ...). The solver never mutates an operator.
type Operator interface {
	// Apply computes A·X for a batch of column blocks X (nbatch, n, k),
	// returning (nbatch, n, k). The map must be linear in X for fixed
	// params, and every tensor operation must go through b: during the
	// backward pass b is a recording autodiff backend and the trace is
	// what produces parameter gradients.
	Apply(b tensor.Backend, x *tensor.Tensor, params ...*tensor.Tensor) *tensor.Tensor

	// Shape returns the operator dimensions (nrows, ncols).
	// They must be equal; a non-square shape is a configuration error.
	Shape() (int, int)
}

// Preconditioner is an optional Operator capability: an approximate solve of
// (A − diag(biases))·T ≈ R, applied per eigenpair column when biases has
// shape (nbatch, k), or of A·T ≈ R when biases is nil. Preconditioning
// quality affects only convergence speed, never correctness; operators
// without one fall back to the identity.
type Preconditioner interface {
	Precond(b tensor.Backend, r *tensor.Tensor, biases *tensor.Tensor, params ...*tensor.Tensor) *tensor.Tensor
}

// Parameterized is an optional Operator capability for operators that own
// learnable parameter tensors. When no explicit parameter tuple is supplied
// to Decompose, the batch size is derived from these.
type Parameterized interface {
	Parameters() []*tensor.Tensor
}

// checkSquare validates the operator shape and returns its dimension.
func checkSquare(a Operator) (int, error) {
	nrows, ncols := a.Shape()
	if nrows != ncols {
		return 0, fmt.Errorf("%w: got %dx%d", ErrNonSquare, nrows, ncols)
	}
	return nrows, nil
}

// batchSize derives the batch dimension from the explicit parameter tuple,
// falling back to operator-owned parameters, then to 1.
func batchSize(a Operator, params []*tensor.Tensor) int {
	if len(params) > 0 {
		return params[0].Shape()[0]
	}
	if p, ok := a.(Parameterized); ok {
		if owned := p.Parameters(); len(owned) > 0 {
			return owned[0].Shape()[0]
		}
	}
	return 1
}
