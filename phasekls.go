package volterra

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/tphakala/go-volterra/internal/linalg"
	"github.com/tphakala/go-volterra/internal/mathutil"
)

// PhaseKLS identifies Volterra kernels from homogeneous-phase signals.
// outputByPhase[p] is the phase-p signal for p = 1..n (index 0 is unused):
// the sum over orders n2 >= p of the same parity of C(n2, q)·term(n2, q)
// with q = (n2-p)/2.
//
// The method exploits the block-triangular structure of the phase mixing:
// only the leading (q = 0) basis matrix of each order is QR-factorized, the
// other terms are projected through that order's Q into cross-order
// coupling blocks, and one global block upper-triangular system per parity
// (odd and even orders) is solved by back-substitution. Higher orders
// contribute into lower-order blocks, never the reverse, which is what
// makes the assembled system triangular.
func PhaseKLS(input []complex128, outputByPhase [][]complex128, m, n int, opts *Options) (map[int]*Kernel, error) {
	opts = ensureOptions(opts)
	if err := checkIdentArgs(m, n); err != nil {
		return nil, err
	}
	if err := checkPhaseSignals(outputByPhase, len(input), n); err != nil {
		return nil, err
	}
	if err := checkFeasibility(len(input), parityCoeffCount(m, n), m, n, "PhaseKLS"); err != nil {
		return nil, err
	}
	policy := opts.castPolicy()

	phi, err := termBasisFor(input, m, n, opts)
	if err != nil {
		return nil, err
	}

	// QR-factorize the leading basis of each order, then project every
	// term basis through the Q of the order it couples into.
	qByOrder := make(map[int]*mat.Dense, n)
	rTerms := make(map[TermKey]*mat.Dense)
	size := make(map[int]int, n)
	for order := 1; order <= n; order++ {
		q, r, err := linalg.EconomyQR(castMatrix(phi[TermKey{Order: order, Conj: 0}], policy))
		if err != nil {
			return nil, fmt.Errorf("PhaseKLS factorization failed for order %d: %w", order, err)
		}
		qByOrder[order] = q
		rTerms[TermKey{Order: order, Conj: 0}] = r
		_, size[order] = r.Dims()
	}
	for order := 1; order <= n; order++ {
		for k := 1; k <= (order-1)/2; k++ {
			var proj mat.Dense
			proj.Mul(qByOrder[order-2*k].T(), castMatrix(phi[TermKey{Order: order, Conj: k}], policy))
			proj.Scale(mathutil.BinomialF(order, k), &proj)
			rTerms[TermKey{Order: order, Conj: k}] = &proj
		}
	}

	// Projection of the phase signals on the combinatorial bases.
	yPhase := make(map[int][]float64, n)
	for order := 1; order <= n; order++ {
		z, err := linalg.ProjectQt(qByOrder[order], mathutil.CastToReal(outputByPhase[order], policy))
		if err != nil {
			return nil, err
		}
		yPhase[order] = z
	}

	// One block upper-triangular system per parity class.
	kernels := make(map[int]*Kernel, n)
	for start := 1; start <= 2; start++ {
		orders := admissibleOrders(start, n)
		if len(orders) == 0 {
			continue
		}

		total := 0
		offsets := make(map[int]int, len(orders))
		for _, order := range orders {
			offsets[order] = total
			total += size[order]
		}

		r := mat.NewDense(total, total, nil)
		y := make([]float64, 0, total)
		for _, p := range orders {
			y = append(y, yPhase[p]...)
			for _, order := range orders {
				if order < p {
					continue
				}
				k := (order - p) / 2
				block := rTerms[TermKey{Order: order, Conj: k}]
				br, bc := block.Dims()
				r.Slice(offsets[p], offsets[p]+br, offsets[order], offsets[order]+bc).(*mat.Dense).Copy(block)
			}
		}

		f, err := linalg.BackSubstitute(r, y)
		if err != nil {
			return nil, fmt.Errorf("PhaseKLS back-substitution failed: %w", err)
		}

		for _, order := range orders {
			kernel, err := VectorToKernel(f[offsets[order]:offsets[order]+size[order]], m, order, opts.Form)
			if err != nil {
				return nil, err
			}
			kernels[order] = kernel
		}
	}
	return kernels, nil
}

// IterKLS identifies Volterra kernels from homogeneous-phase signals
// recursively, from the highest order down: before solving for order n2,
// the estimated contributions of the already-solved higher orders of the
// same parity, weighted by their binomial coefficients, are subtracted from
// the phase signal. Equivalent in principle to PhaseKLS's triangular solve,
// computed order by order with simpler bookkeeping.
func IterKLS(input []complex128, outputByPhase [][]complex128, m, n int, opts *Options) (map[int]*Kernel, error) {
	opts = ensureOptions(opts)
	if err := checkIdentArgs(m, n); err != nil {
		return nil, err
	}
	if err := checkPhaseSignals(outputByPhase, len(input), n); err != nil {
		return nil, err
	}
	if err := checkFeasibility(len(input), NbCoeffInKernel(m, n), m, n, "IterKLS"); err != nil {
		return nil, err
	}
	policy := opts.castPolicy()

	phi, err := termBasisFor(input, m, n, opts)
	if err != nil {
		return nil, err
	}

	f := make(map[int][]float64, n)
	for order := n; order >= 1; order-- {
		residual := make([]complex128, len(input))
		copy(residual, outputByPhase[order])
		for n2 := order + 2; n2 <= n; n2 += 2 {
			k := (n2 - order) / 2
			subtractTermContribution(residual, phi[TermKey{Order: n2, Conj: k}], f[n2], mathutil.BinomialF(n2, k))
		}
		sol, err := linalg.LeastSquaresQR(
			castMatrix(phi[TermKey{Order: order, Conj: 0}], policy),
			mathutil.CastToReal(residual, policy))
		if err != nil {
			return nil, fmt.Errorf("IterKLS solve failed for order %d: %w", order, err)
		}
		f[order] = sol
	}

	kernels := make(map[int]*Kernel, n)
	for order := 1; order <= n; order++ {
		kernel, err := VectorToKernel(f[order], m, order, opts.Form)
		if err != nil {
			return nil, err
		}
		kernels[order] = kernel
	}
	return kernels, nil
}

// subtractTermContribution computes residual -= weight·(phi·f) for a complex
// basis matrix and a real coefficient vector.
func subtractTermContribution(residual []complex128, phi *mat.CDense, f []float64, weight float64) {
	rows, cols := phi.Dims()
	for t := 0; t < rows; t++ {
		var acc complex128
		for j := 0; j < cols; j++ {
			acc += phi.At(t, j) * complex(f[j], 0)
		}
		residual[t] -= complex(weight, 0) * acc
	}
}

// checkPhaseSignals validates the phase-signal collection: at least n+1
// entries (index 0 unused) with the input's sample count for p = 1..n.
func checkPhaseSignals(outputByPhase [][]complex128, nbSamples, n int) error {
	if len(outputByPhase) < n+1 {
		return fmt.Errorf("%w: got %d phase signals, need indices 1..%d", ErrShapeMismatch, len(outputByPhase), n)
	}
	for p := 1; p <= n; p++ {
		if len(outputByPhase[p]) != nbSamples {
			return fmt.Errorf("%w: phase %d signal has %d samples, expected %d",
				ErrShapeMismatch, p, len(outputByPhase[p]), nbSamples)
		}
	}
	return nil
}

// parityCoeffCount sums the kernel coefficient counts over the parity class
// of n (the larger of the two classes for this truncation order).
func parityCoeffCount(m, n int) int {
	total := 0
	for order := 2 - n%2; order <= n; order += 2 {
		total += NbCoeffInKernel(m, order)
	}
	return total
}
