// Copyright 2025 The Ritz Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public API for the batched dense tensors the
// solvers operate on.
//
// Tensors are plain float64 data; all compute goes through a Backend so the
// autodiff layer can trace operator applications. Conceptual shapes follow
// the solver convention (nbatch, n, k): a batch of nbatch column blocks of k
// vectors of dimension n.
//
// Example:
//
//	be := cpu.New()
//	x := tensor.RandN(rand.New(rand.NewSource(1)), tensor.Shape{2, 8, 3})
//	y := be.BatchMatMul(a, x)
package tensor

import (
	"math/rand"

	"github.com/ritz-ml/ritz/internal/tensor"
)

// Shape represents the dimensions of a tensor.
type Shape = tensor.Shape

// Tensor is a dense row-major float64 tensor.
type Tensor = tensor.Tensor

// Backend is the compute interface; see backend/cpu for the host
// implementation.
type Backend = tensor.Backend

// Diagonaler is an optional Backend capability for extracting matrix
// diagonals.
type Diagonaler = tensor.Diagonaler

// New creates a zero-initialized tensor with the given shape.
func New(shape Shape) *Tensor {
	return tensor.New(shape)
}

// FromSlice creates a tensor from a Go slice. The slice is copied.
func FromSlice(data []float64, shape Shape) (*Tensor, error) {
	return tensor.FromSlice(data, shape)
}

// Zeros creates a tensor filled with zeros.
func Zeros(shape Shape) *Tensor {
	return tensor.Zeros(shape)
}

// Ones creates a tensor filled with ones.
func Ones(shape Shape) *Tensor {
	return tensor.Ones(shape)
}

// Full creates a tensor filled with the given value.
func Full(shape Shape, value float64) *Tensor {
	return tensor.Full(shape, value)
}

// Eye creates a batch of rectangular identity matrices (nbatch, n, k).
func Eye(nbatch, n, k int) *Tensor {
	return tensor.Eye(nbatch, n, k)
}

// RandN creates a tensor of standard-normal values drawn from rng.
func RandN(rng *rand.Rand, shape Shape) *Tensor {
	return tensor.RandN(rng, shape)
}

// RandU creates a tensor of uniform values in [0, 1) drawn from rng.
func RandU(rng *rand.Rand, shape Shape) *Tensor {
	return tensor.RandU(rng, shape)
}

// Cat concatenates tensors along the given dimension.
func Cat(dim int, ts ...*Tensor) *Tensor {
	return tensor.Cat(dim, ts...)
}

// BroadcastShapes implements NumPy-style broadcasting rules.
func BroadcastShapes(a, b Shape) (Shape, error) {
	return tensor.BroadcastShapes(a, b)
}
