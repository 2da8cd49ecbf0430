// Copyright 2025 The Ritz Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package eigen

import (
	"log"
	"math"
	"math/rand"

	"github.com/ritz-ml/ritz/backend/cpu"
	"github.com/ritz-ml/ritz/internal/linalg"
	"github.com/ritz-ml/ritz/tensor"
)

// davidsonEig computes the neig lowest eigenpairs with a Davidson iteration:
// a multi-vector guess subspace expanded each step by the preconditioned
// residuals of the current Ritz pairs.
//
// Convergence is decided on the residual ‖A·v − λ·v‖ (eigenvalue drift is
// tracked as a secondary diagnostic only). The guess subspace grows
// monotonically until convergence or MaxNiter; there is no restart or
// deflation, so memory grows with the iteration count; a known scaling
// limitation for long runs.
//
// The preconditioner wants a shift close to the target eigenvalue, but early
// Ritz values are unreliable and a wrong shift puts a near-zero denominator
// inside the preconditioner. A randomized Rayleigh-quotient probe therefore
// estimates the lowest eigenvalue up front, and the iteration only switches
// to the true Ritz values as shifts once their predicted-vs-actual
// discrepancy is small against the estimated spectral spread.
func davidsonEig(a Operator, neig, nbatch int, params []*tensor.Tensor, cfg ForwardOptions) (*tensor.Tensor, *tensor.Tensor, error) {
	na, err := checkSquare(a)
	if err != nil {
		return nil, nil, err
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	nguess := min(max(cfg.NGuess, neig), na)
	v, err := initialVectors(cfg.VInit, nbatch, na, nguess, rng)
	if err != nil {
		return nil, nil, err
	}
	be := cpu.New()

	av := a.Apply(be, v, params...)
	shifts := newShiftEstimator(be, a, params, nbatch, na, neig, rng)

	var prev, eigvals, eigvecs *tensor.Tensor
	for i := 0; i < cfg.MaxNiter; i++ {
		t := be.BatchMatMul(be.Transpose(v, 0, 2, 1), av)
		valsT, vecsT, err := linalg.SymEigBatch(t)
		if err != nil {
			return nil, nil, err
		}
		eigvals = valsT.Narrow(1, 0, neig)                  // (nbatch, neig)
		ritzT := vecsT.Narrow(2, 0, neig)                   // (nbatch, m, neig)
		eigvecs = be.BatchMatMul(v, ritzT)                  // (nbatch, na, neig)
		lam := eigvals.Reshape(tensor.Shape{nbatch, 1, neig})
		resid := be.Sub(be.BatchMatMul(av, ritzT), be.Mul(lam, eigvecs))

		if prev != nil {
			maxResid := maxAbs(resid)
			drift := maxAbsDiff(eigvals, prev)
			if cfg.Verbose {
				log.Printf("davidson: iter %3d (guess size %d): resid %.3e, drift %.3e", i+1, v.Shape()[2], maxResid, drift)
			}
			if maxResid < cfg.MinEps {
				break
			}
		}
		prev = eigvals

		// Preconditioned residuals are the new search directions.
		negResid := be.Scale(resid, -1)
		var dir *tensor.Tensor
		if pc, ok := a.(Preconditioner); ok {
			dir = pc.Precond(be, negResid, shifts.current(eigvals), params...)
		} else {
			dir = negResid
		}
		shifts.observe(eigvals, eigvecs, dir)

		added := min(cfg.MaxAddition, dir.Shape()[2])
		if room := na - v.Shape()[2]; added > room {
			added = room
		}
		if added <= 0 {
			break // subspace saturated the full dimension
		}
		if added < dir.Shape()[2] {
			dir = dir.Narrow(2, 0, added)
		}

		// The old columns are already orthonormal, so re-orthonormalizing
		// the enlarged basis leaves them untouched and AV stays valid for
		// them: the operator only needs to see the new columns.
		v = linalg.Orthonormalize(tensor.Cat(2, v, dir))
		avNew := a.Apply(be, v.Narrow(2, v.Shape()[2]-added, added), params...)
		av = tensor.Cat(2, av, avNew)
	}

	return eigvals, eigvecs, nil
}

// shiftEstimator manages the preconditioner bias warm-up.
//
// Until the Ritz values prove themselves, the bias is a probe-based estimate
// of the lowest eigenvalue: the mean Rayleigh quotient of random unit vectors
// minus twice the RMS spread, which sits below the spectrum with high
// probability and keeps (A − bias) comfortably invertible.
type shiftEstimator struct {
	be      tensor.Backend
	a       Operator
	params  []*tensor.Tensor
	est     *tensor.Tensor // (nbatch, neig) lowest-eigenvalue estimate
	spread  float64        // estimated RMS spectral spread (max over batch)
	useRitz bool
}

const nprobe = 20

func newShiftEstimator(be tensor.Backend, a Operator, params []*tensor.Tensor, nbatch, na, neig int, rng *rand.Rand) *shiftEstimator {
	x := tensor.RandN(rng, tensor.Shape{nbatch, na, nprobe})
	normalizeColumns(x)
	ax := a.Apply(be, x, params...)
	rayleigh := be.SumDim(be.Mul(x, ax), 1, false) // (nbatch, nprobe)

	// Spread of the Rayleigh quotients, corrected for the spread the unit
	// normalization itself introduces.
	xsq := make([]float64, 0, x.NumElements())
	for _, v := range x.Data() {
		xsq = append(xsq, v*v)
	}
	stdX2 := std(xsq)

	est := tensor.New(tensor.Shape{nbatch, neig})
	spread := 0.0
	rd := rayleigh.Data()
	for b := 0; b < nbatch; b++ {
		row := rd[b*nprobe : (b+1)*nprobe]
		mean := 0.0
		for _, v := range row {
			mean += v
		}
		mean /= nprobe
		rms := (std(row) / stdX2) / math.Sqrt(float64(na))
		spread = math.Max(spread, rms)
		for j := 0; j < neig; j++ {
			est.Set(mean-2*rms, b, j)
		}
	}

	return &shiftEstimator{be: be, a: a, params: params, est: est, spread: spread}
}

// current returns the preconditioner biases to use with the given Ritz
// values: the warm-up estimate until the switch, the Ritz values after.
func (s *shiftEstimator) current(ritz *tensor.Tensor) *tensor.Tensor {
	if s.useRitz {
		return ritz
	}
	return s.est
}

// observe compares the Ritz values against the first-order prediction from
// the new search directions. Once the discrepancy is small relative to the
// spectral spread the Ritz values are trusted as shifts; until then the
// estimate is tightened where it overshoots.
func (s *shiftEstimator) observe(ritz, ritzVecs, dir *tensor.Tensor) {
	if s.useRitz {
		return
	}
	adir := s.a.Apply(s.be, dir, s.params...)
	pred := s.be.Add(ritz, s.be.SumDim(s.be.Mul(ritzVecs, adir), 1, false))
	diff := s.be.Sub(ritz, pred)
	if maxAbs(diff) < s.spread*1e-2 {
		s.useRitz = true
		return
	}
	ed, rd, dd := s.est.Data(), ritz.Data(), diff.Data()
	for i := range ed {
		if ed[i] > rd[i] {
			ed[i] = rd[i] - 2*dd[i]
		}
	}
}

// normalizeColumns scales each column of x (nbatch, n, k) to unit norm,
// in place.
func normalizeColumns(x *tensor.Tensor) {
	shape := x.Shape()
	nbatch, n, k := shape[0], shape[1], shape[2]
	data := x.Data()
	for b := 0; b < nbatch; b++ {
		block := data[b*n*k : (b+1)*n*k]
		for j := 0; j < k; j++ {
			norm := 0.0
			for row := 0; row < n; row++ {
				norm += block[row*k+j] * block[row*k+j]
			}
			norm = math.Sqrt(norm)
			if norm == 0 {
				continue
			}
			for row := 0; row < n; row++ {
				block[row*k+j] /= norm
			}
		}
	}
}

// std is the sample standard deviation.
func std(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	mean := 0.0
	for _, v := range xs {
		mean += v
	}
	mean /= float64(len(xs))
	acc := 0.0
	for _, v := range xs {
		acc += (v - mean) * (v - mean)
	}
	return math.Sqrt(acc / float64(len(xs)-1))
}
