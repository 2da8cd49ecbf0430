// Copyright 2025 The Ritz Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package eigen

import (
	"github.com/ritz-ml/ritz/backend/cpu"
	"github.com/ritz-ml/ritz/internal/linalg"
	"github.com/ritz-ml/ritz/tensor"
)

// exactEig computes the neig lowest eigenpairs by materializing the operator
// as a dense matrix (one application per basis vector) and running a full
// symmetric eigendecomposition per batch element.
//
// O(n³) time and O(n²) memory: this is the ground-truth fallback for small
// operators and for validating the iterative strategies, not a large-n path.
func exactEig(a Operator, neig, nbatch int, params []*tensor.Tensor, cfg ForwardOptions) (*tensor.Tensor, *tensor.Tensor, error) {
	na, err := checkSquare(a)
	if err != nil {
		return nil, nil, err
	}
	be := cpu.New()

	amat := a.Apply(be, tensor.Eye(nbatch, na, na), params...)
	evals, evecs, err := linalg.SymEigBatch(amat)
	if err != nil {
		return nil, nil, err
	}
	return evals.Narrow(1, 0, neig), evecs.Narrow(2, 0, neig), nil
}
