package linalg

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// EconomyQR computes the reduced (economy-size) QR factorization of an m×n
// matrix with m >= n: Q is m×n with orthonormal columns and R is n×n upper
// triangular, such that a = Q·R.
func EconomyQR(a *mat.Dense) (q, r *mat.Dense, err error) {
	m, n := a.Dims()
	if m < n {
		return nil, nil, ErrShape
	}

	var qr mat.QR
	qr.Factorize(a)

	var qFull, rFull mat.Dense
	qr.QTo(&qFull)
	qr.RTo(&rFull)

	q = mat.DenseCopyOf(qFull.Slice(0, m, 0, n))
	r = mat.DenseCopyOf(rFull.Slice(0, n, 0, n))
	return q, r, nil
}

// BackSubstitute solves the upper-triangular system r·x = y in place of a
// forward inverse. It fails with ErrSingular if a diagonal entry is zero.
func BackSubstitute(r *mat.Dense, y []float64) ([]float64, error) {
	n, c := r.Dims()
	if n != c || len(y) != n {
		return nil, ErrShape
	}
	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := y[i]
		for j := i + 1; j < n; j++ {
			sum -= r.At(i, j) * x[j]
		}
		d := r.At(i, i)
		if d == 0 || math.IsNaN(d) {
			return nil, ErrSingular
		}
		x[i] = sum / d
	}
	return x, nil
}

// ProjectQt computes Qᵀ·y for an m×n Q and a length-m y, projecting the
// target signal onto the combinatorial basis spanned by Q's columns.
func ProjectQt(q *mat.Dense, y []float64) ([]float64, error) {
	m, n := q.Dims()
	if len(y) != m {
		return nil, ErrShape
	}
	var z mat.VecDense
	z.MulVec(q.T(), mat.NewVecDense(m, y))
	out := make([]float64, n)
	copy(out, z.RawVector().Data)
	return out, nil
}

// LeastSquaresQR solves the least-squares problem min ||a·x - y|| through a
// reduced QR factorization: a = Q·R, z = Qᵀ·y, then back-substitution on
// R·x = z. Compared with forming the normal equations this avoids squaring
// the condition number of a.
func LeastSquaresQR(a *mat.Dense, y []float64) ([]float64, error) {
	q, r, err := EconomyQR(a)
	if err != nil {
		return nil, err
	}
	z, err := ProjectQt(q, y)
	if err != nil {
		return nil, err
	}
	return BackSubstitute(r, z)
}
