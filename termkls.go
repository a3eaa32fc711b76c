package volterra

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/tphakala/go-volterra/internal/linalg"
	"github.com/tphakala/go-volterra/internal/mathutil"
)

// TermKLS identifies Volterra kernels from the combinatorial terms of a
// separated output, as produced by PAS.ProcessOutputsRaw. Only the terms
// with conjugate count q in 0..n/2 are used; the remaining terms are their
// conjugates and carry no extra information.
//
// The complex per-term systems are recast to real ones according to the
// cast mode, and the redundant terms of an order are aggregated according
// to the term mode (see TermMode).
func TermKLS(input []complex128, outputByTerm map[TermKey][]complex128, m, n int, opts *Options) (map[int]*Kernel, error) {
	opts = ensureOptions(opts)
	if err := checkIdentArgs(m, n); err != nil {
		return nil, err
	}
	if err := checkFeasibility(len(input), NbCoeffInKernel(m, n), m, n, "TermKLS"); err != nil {
		return nil, err
	}
	mode, err := opts.termMode()
	if err != nil {
		return nil, err
	}
	policy := opts.castPolicy()

	phi, err := termBasisFor(input, m, n, opts)
	if err != nil {
		return nil, err
	}
	if err := checkTermSignals(outputByTerm, len(input), n); err != nil {
		return nil, err
	}

	kernels := make(map[int]*Kernel, n)
	for order := 1; order <= n; order++ {
		var f []float64
		switch mode {
		case TermModeMean:
			f, err = termSolveMean(phi, outputByTerm, m, order, policy)
		case TermModeMMSE:
			f, err = termSolveMMSE(phi, outputByTerm, len(input), m, order, policy)
		}
		if err != nil {
			return nil, fmt.Errorf("TermKLS solve failed for order %d: %w", order, err)
		}
		kernel, err := VectorToKernel(f, m, order, opts.Form)
		if err != nil {
			return nil, err
		}
		kernels[order] = kernel
	}
	return kernels, nil
}

// termSolveMean solves independently per combinatorial term and averages
// the per-order coefficient estimates.
func termSolveMean(phi map[TermKey]*mat.CDense, outputByTerm map[TermKey][]complex128, m, order int, policy mathutil.CastPolicy) ([]float64, error) {
	nbCoeff := NbCoeffInKernel(m, order)
	f := make([]float64, nbCoeff)
	nbTerms := 1 + order/2
	for q := 0; q < nbTerms; q++ {
		key := TermKey{Order: order, Conj: q}
		sol, err := linalg.LeastSquaresQR(
			castMatrix(phi[key], policy),
			mathutil.CastToReal(outputByTerm[key], policy))
		if err != nil {
			return nil, err
		}
		for i, v := range sol {
			f[i] += v
		}
	}
	inv := 1 / float64(nbTerms)
	for i := range f {
		f[i] *= inv
	}
	return f, nil
}

// termSolveMMSE concatenates all terms of an order, basis rows and outputs
// stacked along the sample axis, into one larger system solved once.
func termSolveMMSE(phi map[TermKey]*mat.CDense, outputByTerm map[TermKey][]complex128, nbSamples, m, order int, policy mathutil.CastPolicy) ([]float64, error) {
	nbCoeff := NbCoeffInKernel(m, order)
	nbTerms := 1 + order/2

	stackedPhi := mat.NewCDense(nbTerms*nbSamples, nbCoeff, nil)
	stackedSig := make([]complex128, 0, nbTerms*nbSamples)
	for q := 0; q < nbTerms; q++ {
		key := TermKey{Order: order, Conj: q}
		basis := phi[key]
		for t := 0; t < nbSamples; t++ {
			for j := 0; j < nbCoeff; j++ {
				stackedPhi.Set(q*nbSamples+t, j, basis.At(t, j))
			}
		}
		stackedSig = append(stackedSig, outputByTerm[key]...)
	}
	return linalg.LeastSquaresQR(
		castMatrix(stackedPhi, policy),
		mathutil.CastToReal(stackedSig, policy))
}

// checkTermSignals validates that every term with q in 0..order/2 is
// present and has the expected sample count.
func checkTermSignals(outputByTerm map[TermKey][]complex128, nbSamples, n int) error {
	for order := 1; order <= n; order++ {
		for q := 0; q <= order/2; q++ {
			key := TermKey{Order: order, Conj: q}
			sig, ok := outputByTerm[key]
			if !ok {
				return fmt.Errorf("%w: combinatorial term (%d, %d) missing", ErrShapeMismatch, order, q)
			}
			if len(sig) != nbSamples {
				return fmt.Errorf("%w: term (%d, %d) has %d samples, expected %d",
					ErrShapeMismatch, order, q, len(sig), nbSamples)
			}
		}
	}
	return nil
}
