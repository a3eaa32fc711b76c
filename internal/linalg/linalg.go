// Package linalg wraps the gonum linear-algebra routines used by the
// separation and identification layers: Vandermonde mixing-matrix
// construction and inversion, economy-size QR factorization, and
// back-substitution on upper-triangular systems.
package linalg

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrSingular indicates a triangular system with a zero diagonal entry.
	ErrSingular = errors.New("linalg: singular triangular system")

	// ErrShape indicates incompatible matrix or vector dimensions.
	ErrShape = errors.New("linalg: dimension mismatch")
)

// Vandermonde builds the mixing matrix of a set of scaling factors: a K×N
// matrix whose entry (k, j) is factors[k]^(j+1). The constant column of the
// classical Vandermonde matrix is dropped since nonlinear orders start at 1.
func Vandermonde(factors []float64, n int) *mat.Dense {
	m := mat.NewDense(len(factors), n, nil)
	for k, f := range factors {
		p := f
		for j := 0; j < n; j++ {
			m.Set(k, j, p)
			p *= f
		}
	}
	return m
}

// Cond returns the 2-norm condition number of a.
func Cond(a *mat.Dense) float64 {
	return mat.Cond(a, 2)
}

// SolveMixing solves mix·x = data for x. When mix is square the solution is
// exact (up to conditioning); when mix has more rows than columns the
// minimum-residual least-squares solution is returned, which reduces noise
// sensitivity for overdetermined separation setups.
func SolveMixing(mix, data *mat.Dense) (*mat.Dense, error) {
	rows, _ := mix.Dims()
	dataRows, _ := data.Dims()
	if rows != dataRows {
		return nil, ErrShape
	}
	var x mat.Dense
	if err := x.Solve(mix, data); err != nil {
		return nil, err
	}
	return &x, nil
}
