// Copyright 2025 The Ritz Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package eigen computes the lowest eigenpairs of batched symmetric linear
// operators and differentiates them with respect to the operator's
// parameters.
//
// An operator is anything implementing the matrix-free Operator contract: it
// applies itself to a block of column vectors through a tensor.Backend, so
// the same code path serves both plain numeric evaluation and gradient
// tracing. Decompose solves the forward problem with one of three strategies
// (Davidson, Lanczos, exact dense), and the returned Decomposition's
// Backward method propagates eigenvalue and eigenvector gradients back to
// the parameter tuple through the implicit function theorem rather than
// through the iteration itself.
//
// MatOperator is the bundled dense reference operator, A = M + Mᵀ + diag(d),
// with a Jacobi preconditioner.
package eigen
