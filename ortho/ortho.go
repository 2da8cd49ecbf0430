// Copyright 2025 The Ritz Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package ortho provides batched orthogonalization of subspace bases.
//
// Orthonormalize is the full re-orthogonalization step the Krylov solvers
// run every iteration; Biorthonormalize is the two-sided variant shared with
// non-symmetric two-sided methods.
package ortho

import (
	"github.com/ritz-ml/ritz/internal/linalg"
	"github.com/ritz-ml/ritz/tensor"
)

// Orthonormalize returns a copy of v (nbatch, n, k) whose columns form an
// orthonormal basis for the span of the input columns, per batch element.
// Rank-deficient inputs are completed deterministically to full column rank.
func Orthonormalize(v *tensor.Tensor) *tensor.Tensor {
	return linalg.Orthonormalize(v)
}

// Biorthonormalize returns copies of u and w (both (nbatch, n, k)) whose
// columns satisfy uᵀ·w = I per batch element.
func Biorthonormalize(u, w *tensor.Tensor) (*tensor.Tensor, *tensor.Tensor) {
	return linalg.Biorthonormalize(u, w)
}
