package volterra

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Separation defaults.
const (
	// defaultGain is the default amplitude ratio between consecutive test
	// signals for amplitude-based methods.
	defaultGain = 1.51

	// defaultRho is the default rejection amplitude for phase-based methods.
	defaultRho = 1.0

	// defaultCondLimit is the mixing-matrix condition number above which a
	// separation result is flagged as ill-conditioned.
	defaultCondLimit = 1e12
)

// ampFactors generates the vector of amplitude scaling factors:
// factor[k] = (-1)^(k·alt) · gain^(k / (1+alt)) where alt is 1 when
// alternating signs are enabled. Alternating signs make the separation of
// odd and even orders more robust.
func ampFactors(nbTest int, gain float64, alternating bool) []float64 {
	factors := make([]float64, nbTest)
	div := 1
	if alternating {
		div = 2
	}
	for k := 0; k < nbTest; k++ {
		f := math.Pow(gain, float64(k/div))
		if alternating && k%2 == 1 {
			f = -f
		}
		factors[k] = f
	}
	return factors
}

// phaseFactors generates the vector of dephasing factors rho·w^k where
// w = exp(-2πi/nbTest) is the nbTest-th root of unity.
func phaseFactors(nbTest int, rho float64) []complex128 {
	w := cmplx.Exp(complex(0, -2*math.Pi/float64(nbTest)))
	factors := make([]complex128, nbTest)
	f := complex(rho, 0)
	for k := 0; k < nbTest; k++ {
		factors[k] = f
		f *= w
	}
	return factors
}

// checkCollection validates an output collection: exactly k signals, all
// non-empty and of equal length. It returns the common signal length.
func checkCollection[F float64 | complex128](coll [][]F, k int) (int, error) {
	if len(coll) != k {
		return 0, fmt.Errorf("%w: got %d output signals, separation method needs %d", ErrShapeMismatch, len(coll), k)
	}
	nbSamples := len(coll[0])
	if nbSamples == 0 {
		return 0, fmt.Errorf("%w: empty output signal", ErrShapeMismatch)
	}
	for i, sig := range coll {
		if len(sig) != nbSamples {
			return 0, fmt.Errorf("%w: output signal %d has length %d, expected %d", ErrShapeMismatch, i, len(sig), nbSamples)
		}
	}
	return nbSamples, nil
}

// genScaledInputs expands a base signal into one scaled copy per factor.
func genScaledInputs[F float64 | complex128](factors []F, signal []F) ([][]F, error) {
	if len(signal) == 0 {
		return nil, fmt.Errorf("%w: empty input signal", ErrShapeMismatch)
	}
	inputs := make([][]F, len(factors))
	for k, factor := range factors {
		test := make([]F, len(signal))
		for t, s := range signal {
			test[t] = factor * s
		}
		inputs[k] = test
	}
	return inputs, nil
}

// inverseDFT applies a length-nb inverse DFT along the test-signal axis of a
// collection of nb equally long signals. This solves the phase-mixing system
// in closed form, far cheaper than a general matrix inversion.
func inverseDFT(coll [][]complex128, nb int) [][]complex128 {
	nbSamples := len(coll[0])
	fft := fourier.NewCmplxFFT(nb)
	out := make([][]complex128, nb)
	for k := range out {
		out[k] = make([]complex128, nbSamples)
	}

	seq := make([]complex128, nb)
	dst := make([]complex128, nb)
	scale := complex(1/float64(nb), 0)
	for t := 0; t < nbSamples; t++ {
		for k := 0; k < nb; k++ {
			seq[k] = coll[k][t]
		}
		// gonum's inverse transform is unnormalized; divide by the length.
		res := fft.Sequence(dst, seq)
		for k := 0; k < nb; k++ {
			out[k][t] = res[k] * scale
		}
	}
	return out
}
