// Package linalg provides batched dense factorizations on top of gonum:
// symmetric eigendecomposition and (bi)orthonormalization of subspace bases.
//
// These are the only places the solver touches LAPACK-style dense routines;
// everything above works through linear-operator applications.
package linalg

import (
	"fmt"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/ritz-ml/ritz/internal/tensor"
)

// SymEigBatch computes the full symmetric eigendecomposition of a batch of
// square matrices t (nbatch, m, m).
//
// Returns eigenvalues (nbatch, m) in ascending order and eigenvectors
// (nbatch, m, m) with eigenvector i in column i. Batch elements factorize
// concurrently; a non-converged factorization fails the whole batch.
func SymEigBatch(t *tensor.Tensor) (*tensor.Tensor, *tensor.Tensor, error) {
	shape := t.Shape()
	if len(shape) != 3 || shape[1] != shape[2] {
		return nil, nil, fmt.Errorf("linalg: SymEigBatch wants (nbatch, m, m), got %v", shape)
	}
	nbatch, m := shape[0], shape[1]

	vals := tensor.New(tensor.Shape{nbatch, m})
	vecs := tensor.New(tensor.Shape{nbatch, m, m})

	var g errgroup.Group
	for b := 0; b < nbatch; b++ {
		b := b
		g.Go(func() error {
			// SymDense reads the upper triangle; the projected matrices we
			// factorize are symmetric up to round-off, so aliasing the batch
			// block directly is fine.
			sym := mat.NewSymDense(m, t.Data()[b*m*m:(b+1)*m*m])

			var es mat.EigenSym
			if ok := es.Factorize(sym, true); !ok {
				return fmt.Errorf("linalg: eigendecomposition of batch element %d did not converge", b)
			}
			es.Values(vals.Data()[b*m : (b+1)*m])

			dst := mat.NewDense(m, m, vecs.Data()[b*m*m:(b+1)*m*m])
			es.VectorsTo(dst)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return vals, vecs, nil
}
