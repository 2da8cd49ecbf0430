// Copyright 2025 The Ritz Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package eigen

import (
	"fmt"
	"log"
	"math/rand"

	"github.com/ritz-ml/ritz/backend/cpu"
	"github.com/ritz-ml/ritz/internal/linalg"
	"github.com/ritz-ml/ritz/tensor"
)

// lanczosEig computes the neig lowest eigenpairs with a Lanczos-type Krylov
// iteration.
//
// Each step applies the operator to the newest basis vector, appends the
// image to the basis and re-orthonormalizes the whole basis (full
// re-orthogonalization, not the three-term recurrence, to keep the basis
// orthogonal against floating-point drift). The operator is then projected
// onto the subspace and the small projected matrix diagonalized.
//
// Convergence starts being checked once the subspace reaches neig columns:
// the iteration stops when the top-neig Ritz values move less than MinEps
// between consecutive steps, or at MaxNiter (not an error, just a
// weaker-quality result).
func lanczosEig(a Operator, neig, nbatch int, params []*tensor.Tensor, cfg ForwardOptions) (*tensor.Tensor, *tensor.Tensor, error) {
	na, err := checkSquare(a)
	if err != nil {
		return nil, nil, err
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	v, err := initialVectors(cfg.VInit, nbatch, na, 1, rng)
	if err != nil {
		return nil, nil, err
	}
	be := cpu.New()

	var prev, eigvals, eigvecs *tensor.Tensor
	for i := 0; i < cfg.MaxNiter; i++ {
		// Expand only while the basis has room: the basis can never hold
		// more than na columns, and once it spans the full space the Ritz
		// pairs below are already exact.
		if cols := v.Shape()[2]; cols < na {
			newest := v.Narrow(2, cols-1, 1)
			av := a.Apply(be, newest, params...)
			v = linalg.Orthonormalize(tensor.Cat(2, v, av))
		}
		avFull := a.Apply(be, v, params...)
		t := be.BatchMatMul(be.Transpose(v, 0, 2, 1), avFull)

		if v.Shape()[2] < neig {
			continue // subspace too small to hold neig Ritz pairs
		}
		valsT, vecsT, err := linalg.SymEigBatch(t)
		if err != nil {
			return nil, nil, err
		}
		eigvals = valsT.Narrow(1, 0, neig)
		eigvecs = be.BatchMatMul(v, vecsT).Narrow(2, 0, neig)

		if v.Shape()[2] >= na {
			break // Krylov space saturated the full dimension
		}
		if prev != nil {
			drift := maxAbsDiff(eigvals, prev)
			if cfg.Verbose {
				log.Printf("lanczos: iter %3d (subspace %d): drift %.3e", i+1, v.Shape()[2], drift)
			}
			if drift < cfg.MinEps {
				break
			}
		}
		prev = eigvals
	}

	if eigvals == nil {
		return nil, nil, fmt.Errorf("eigen: lanczos subspace never reached %d columns within MaxNiter=%d", neig, cfg.MaxNiter)
	}
	return eigvals, eigvecs, nil
}
