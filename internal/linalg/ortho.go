package linalg

import (
	"fmt"
	"math"

	"github.com/ritz-ml/ritz/internal/parallel"
	"github.com/ritz-ml/ritz/internal/tensor"
)

// degenTol flags a column whose norm has collapsed after projection,
// relative to the largest column norm of its batch element.
const degenTol = 1e-12

// Orthonormalize returns a copy of v (nbatch, n, k) whose columns are an
// orthonormal basis for the span of the input columns, per batch element.
//
// The whole basis is re-orthogonalized with twice-iterated modified
// Gram-Schmidt; a second projection pass is what keeps the basis orthonormal
// to machine precision when columns are nearly dependent, which is the regime
// Krylov iterations spend most of their time in. Columns that collapse to
// numerical zero (rank-deficient input) are replaced deterministically with
// unit basis vectors and re-orthogonalized, so the result always has full
// column rank.
func Orthonormalize(v *tensor.Tensor) *tensor.Tensor {
	shape := v.Shape()
	if len(shape) != 3 {
		panic(fmt.Sprintf("linalg: Orthonormalize wants (nbatch, n, k), got %v", shape))
	}
	nbatch, n, k := shape[0], shape[1], shape[2]
	if k > n {
		panic(fmt.Sprintf("linalg: cannot orthonormalize %d columns in dimension %d", k, n))
	}

	out := v.Clone()
	data := out.Data()

	parallel.For(nbatch, func(b int) {
		block := data[b*n*k : (b+1)*n*k]
		scale := maxColNorm(block, n, k)
		if scale == 0 {
			scale = 1
		}
		for j := 0; j < k; j++ {
			if !mgsColumn(block, n, k, j, scale) {
				// Deterministic replacement: cycle through unit vectors
				// until one survives projection against the earlier columns.
				for e := 0; e < n; e++ {
					for i := 0; i < n; i++ {
						block[i*k+j] = 0
					}
					block[((j+e)%n)*k+j] = 1
					if mgsColumn(block, n, k, j, scale) {
						break
					}
				}
			}
		}
	}, parallel.DefaultConfig())

	return out
}

// mgsColumn projects column j against columns [0, j), twice, and normalizes.
// Reports false when the column norm collapses below degenTol*scale.
func mgsColumn(block []float64, n, k, j int, scale float64) bool {
	for pass := 0; pass < 2; pass++ {
		for i := 0; i < j; i++ {
			r := 0.0
			for row := 0; row < n; row++ {
				r += block[row*k+i] * block[row*k+j]
			}
			for row := 0; row < n; row++ {
				block[row*k+j] -= r * block[row*k+i]
			}
		}
	}
	norm := 0.0
	for row := 0; row < n; row++ {
		norm += block[row*k+j] * block[row*k+j]
	}
	norm = math.Sqrt(norm)
	if norm < degenTol*scale {
		return false
	}
	for row := 0; row < n; row++ {
		block[row*k+j] /= norm
	}
	return true
}

func maxColNorm(block []float64, n, k int) float64 {
	best := 0.0
	for j := 0; j < k; j++ {
		norm := 0.0
		for row := 0; row < n; row++ {
			norm += block[row*k+j] * block[row*k+j]
		}
		best = math.Max(best, math.Sqrt(norm))
	}
	return best
}

// Biorthonormalize returns copies of u and w (both (nbatch, n, k)) whose
// columns satisfy u'ᵀ·w' = I per batch element.
//
// This is the two-sided Gram-Schmidt shared by non-symmetric two-sided
// solvers: column j of each side is projected against the opposite side's
// earlier columns, then the pair is rescaled so its mutual inner product is
// one. Near-breakdown pairs (inner product below degenTol of the running
// scale) are clamped rather than divided through, so the result stays finite.
func Biorthonormalize(u, w *tensor.Tensor) (*tensor.Tensor, *tensor.Tensor) {
	if !u.Shape().Equal(w.Shape()) {
		panic(fmt.Sprintf("linalg: Biorthonormalize shape mismatch: %v vs %v", u.Shape(), w.Shape()))
	}
	shape := u.Shape()
	if len(shape) != 3 {
		panic(fmt.Sprintf("linalg: Biorthonormalize wants (nbatch, n, k), got %v", shape))
	}
	nbatch, n, k := shape[0], shape[1], shape[2]

	uo, wo := u.Clone(), w.Clone()
	ud, wd := uo.Data(), wo.Data()

	parallel.For(nbatch, func(b int) {
		ub := ud[b*n*k : (b+1)*n*k]
		wb := wd[b*n*k : (b+1)*n*k]
		scale := maxColNorm(ub, n, k) * maxColNorm(wb, n, k)
		if scale == 0 {
			scale = 1
		}
		for j := 0; j < k; j++ {
			for i := 0; i < j; i++ {
				// <w_i, u_j> and <u_i, w_j> with earlier pairs biorthonormal.
				ru, rw := 0.0, 0.0
				for row := 0; row < n; row++ {
					ru += wb[row*k+i] * ub[row*k+j]
					rw += ub[row*k+i] * wb[row*k+j]
				}
				for row := 0; row < n; row++ {
					ub[row*k+j] -= ru * ub[row*k+i]
					wb[row*k+j] -= rw * wb[row*k+i]
				}
			}
			d := 0.0
			for row := 0; row < n; row++ {
				d += ub[row*k+j] * wb[row*k+j]
			}
			if math.Abs(d) < degenTol*scale {
				d = math.Copysign(degenTol*scale, d)
			}
			s := math.Sqrt(math.Abs(d))
			su := math.Copysign(s, d)
			for row := 0; row < n; row++ {
				ub[row*k+j] /= su
				wb[row*k+j] /= s
			}
		}
	}, parallel.DefaultConfig())

	return uo, wo
}
