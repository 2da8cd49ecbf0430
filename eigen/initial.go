// Copyright 2025 The Ritz Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package eigen

import (
	"fmt"
	"math/rand"

	"github.com/ritz-ml/ritz/internal/linalg"
	"github.com/ritz-ml/ritz/tensor"
)

// initialVectors builds the orthonormal starting subspace (nbatch, na,
// nguess) for the iterative strategies.
//
// "eye" yields deterministic identity columns (already orthogonal); "randn"
// and "rand" draw from rng and are orthonormalized. rng is owned by the
// calling strategy and seeded from ForwardOptions.Seed, which is what makes
// random starts reproducible across runs.
func initialVectors(vinit string, nbatch, na, nguess int, rng *rand.Rand) (*tensor.Tensor, error) {
	switch vinit {
	case VInitEye:
		return tensor.Eye(nbatch, na, nguess), nil
	case VInitRandN:
		return linalg.Orthonormalize(tensor.RandN(rng, tensor.Shape{nbatch, na, nguess})), nil
	case VInitRand, "random":
		return linalg.Orthonormalize(tensor.RandU(rng, tensor.Shape{nbatch, na, nguess})), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownVInit, vinit)
	}
}
