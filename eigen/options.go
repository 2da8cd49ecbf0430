// Copyright 2025 The Ritz Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package eigen

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ritz-ml/ritz/linsolve"
)

// Method names accepted by Decompose.
const (
	MethodDavidson = "davidson"
	MethodLanczos  = "lanczos"
	MethodExact    = "exacteig"
)

// Initial-vector strategies accepted by ForwardOptions.VInit.
const (
	VInitEye   = "eye"
	VInitRandN = "randn"
	VInitRand  = "rand"
)

// DefaultSeed seeds the initial-vector generator when ForwardOptions.Seed is
// zero. The fixed seed is a determinism contract: two solves with identical
// inputs and options return identical eigenpairs, including the iterative
// methods with random starts.
const DefaultSeed = 12421

// Configuration errors. These indicate programmer errors and are returned
// before any iteration starts; they are never produced by numerical
// difficulty (non-convergence is not an error).
var (
	ErrUnknownMethod = errors.New("eigen: unknown decomposition method")
	ErrUnknownVInit  = errors.New("eigen: unknown initial-vector strategy")
	ErrNonSquare     = errors.New("eigen: operator must be square")
)

// ForwardOptions configures the forward eigendecomposition.
// The zero value selects the Davidson method with its defaults; unset fields
// take per-method defaults.
type ForwardOptions struct {
	// Method selects the strategy: "davidson", "lanczos" or "exacteig".
	Method string
	// MaxNiter bounds the iteration count (120 for lanczos, 1000 for
	// davidson). Exhausting it returns the best available estimate.
	MaxNiter int
	// MinEps is the convergence tolerance: maximum eigenvalue drift for
	// lanczos, maximum residual entry for davidson. Default 1e-6.
	MinEps float64
	// Verbose logs per-iteration convergence diagnostics.
	Verbose bool
	// VInit selects the initial subspace: "eye", "randn" or "rand".
	// Default "randn".
	VInit string
	// NGuess is the initial Davidson subspace width. Default neig.
	NGuess int
	// EpsCond is the degeneracy threshold below which preconditioner
	// denominators are clamped; MatOperator applies it in its Jacobi
	// preconditioner. Default 1e-6.
	EpsCond float64
	// MaxAddition caps the subspace directions Davidson adds per
	// iteration. Default neig.
	MaxAddition int
	// Seed seeds the initial-vector generator; zero means DefaultSeed.
	Seed int64
}

// BackwardOptions configures the conjugate-gradient solve of the backward
// pass. MinEps defaults to 1e-8 there; see linsolve.Options for the rest.
type BackwardOptions = linsolve.Options

func (o ForwardOptions) withDefaults(neig int) (ForwardOptions, error) {
	if o.Method == "" {
		o.Method = MethodDavidson
	}
	o.Method = strings.ToLower(o.Method)
	switch o.Method {
	case MethodDavidson, MethodLanczos, MethodExact:
	default:
		return o, fmt.Errorf("%w: %q", ErrUnknownMethod, o.Method)
	}

	if o.VInit == "" {
		o.VInit = VInitRandN
	}
	o.VInit = strings.ToLower(o.VInit)
	switch o.VInit {
	case VInitEye, VInitRandN, VInitRand, "random":
	default:
		return o, fmt.Errorf("%w: %q", ErrUnknownVInit, o.VInit)
	}

	if o.MaxNiter == 0 {
		if o.Method == MethodLanczos {
			o.MaxNiter = 120
		} else {
			o.MaxNiter = 1000
		}
	}
	if o.MinEps == 0 {
		o.MinEps = 1e-6
	}
	if o.EpsCond == 0 {
		o.EpsCond = 1e-6
	}
	if o.NGuess == 0 {
		o.NGuess = neig
	}
	if o.MaxAddition == 0 {
		o.MaxAddition = neig
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	return o, nil
}
