// Copyright 2025 The Ritz Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the public CPU compute backend.
//
// Example:
//
//	be := cpu.New()
//	y := be.BatchMatMul(a, x)
package cpu

import (
	"github.com/ritz-ml/ritz/internal/backend/cpu"
)

// Backend implements tensor.Backend on the host CPU.
type Backend = cpu.CPUBackend

// New creates a new CPU backend.
func New() *Backend {
	return cpu.New()
}
