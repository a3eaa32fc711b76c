package volterra

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/tphakala/go-volterra/internal/mathutil"
)

// TermKey identifies one combinatorial term of a homogeneous-phase signal:
// the nonlinear order n and the number of conjugated input factors q,
// with 0 <= q <= n.
type TermKey struct {
	Order int
	Conj  int
}

// VolterraBasisByOrder builds the per-order design matrices of delayed
// input products for a real signal. The matrix for order n has one row per
// time sample and one column per non-decreasing delay tuple (in
// lexicographic order); the column value at time t is the tuple multiplicity
// times the product of the delayed samples, with delays reaching before the
// first sample treated as zero.
//
// With this layout, an order-n response y_n satisfies y_n = phi[n]·f where f
// is the symmetric-kernel coefficient vector accepted by VectorToKernel.
func VolterraBasisByOrder(signal []float64, m, n int) (map[int]*mat.Dense, error) {
	if err := checkBasisArgs(len(signal), m, n); err != nil {
		return nil, err
	}

	phi := make(map[int]*mat.Dense, n)
	for order := 1; order <= n; order++ {
		tuples := delayTuples(m, order)
		basis := mat.NewDense(len(signal), len(tuples), nil)
		for j, tuple := range tuples {
			mult := float64(tupleMultiplicity(tuple))
			for t := range signal {
				prod := mult
				for _, delay := range tuple {
					if t < delay {
						prod = 0
						break
					}
					prod *= signal[t-delay]
				}
				basis.Set(t, j, prod)
			}
		}
		phi[order] = basis
	}
	return phi, nil
}

// VolterraBasisByTerm builds the per-term design matrices for a complex
// input signal. For each order n and conjugate count q in 0..n/2, the matrix
// phi[(n, q)] has one column per non-decreasing delay tuple, normalized so
// that the separated combinatorial term (n, q) satisfies
// term = phi[(n, q)]·f with f the symmetric-kernel coefficient vector.
// Terms with q > n/2 are conjugates of the stored ones and are not built.
func VolterraBasisByTerm(signal []complex128, m, n int) (map[TermKey]*mat.CDense, error) {
	if err := checkBasisArgs(len(signal), m, n); err != nil {
		return nil, err
	}

	phi := make(map[TermKey]*mat.CDense)
	for order := 1; order <= n; order++ {
		tuples := delayTuples(m, order)
		for q := 0; q <= order/2; q++ {
			basis := mat.NewCDense(len(signal), len(tuples), nil)
			for j, tuple := range tuples {
				vals, counts := tupleRuns(tuple)
				scale := complex(float64(tupleMultiplicity(tuple))/mathutil.BinomialF(order, q), 0)
				for t := range signal {
					sum := termColumnValue(signal, t, vals, counts, q)
					basis.Set(t, j, scale*sum)
				}
			}
			phi[TermKey{Order: order, Conj: q}] = basis
		}
	}
	return phi, nil
}

// termColumnValue sums, over every way of conjugating q of the delayed
// factors of a tuple, the weighted product of delayed samples at time t.
// vals/counts describe the tuple as distinct delays with repetition counts.
func termColumnValue(signal []complex128, t int, vals, counts []int, q int) complex128 {
	var sum complex128
	var rec func(v, remaining int, coeff float64, prod complex128)
	rec = func(v, remaining int, coeff float64, prod complex128) {
		if v == len(vals) {
			if remaining == 0 {
				sum += complex(coeff, 0) * prod
			}
			return
		}
		delay := vals[v]
		if t < delay {
			return
		}
		z := signal[t-delay]
		zc := complex(real(z), -imag(z))
		for cv := 0; cv <= counts[v] && cv <= remaining; cv++ {
			p := prod
			for i := 0; i < counts[v]-cv; i++ {
				p *= z
			}
			for i := 0; i < cv; i++ {
				p *= zc
			}
			rec(v+1, remaining-cv, coeff*mathutil.BinomialF(counts[v], cv), p)
		}
	}
	rec(0, q, 1, 1)
	return sum
}

// tupleRuns compresses a non-decreasing tuple into distinct values and
// their repetition counts.
func tupleRuns(tuple []int) (vals, counts []int) {
	for i, v := range tuple {
		if i == 0 || v != tuple[i-1] {
			vals = append(vals, v)
			counts = append(counts, 1)
		} else {
			counts[len(counts)-1]++
		}
	}
	return vals, counts
}

func checkBasisArgs(nbSamples, m, n int) error {
	if m < 1 {
		return fmt.Errorf("%w: memory length must be positive, got %d", ErrInvalidConfig, m)
	}
	if n < 1 {
		return fmt.Errorf("%w: truncation order must be positive, got %d", ErrInvalidConfig, n)
	}
	if nbSamples == 0 {
		return fmt.Errorf("%w: empty input signal", ErrShapeMismatch)
	}
	return nil
}
