// Package mathutil provides mathematical primitives for Volterra-series
// separation and identification: binomial coefficients, RMS measures,
// decibel conversion and complex-to-real casting.
package mathutil

import (
	"math"
	"math/cmplx"

	"github.com/tphakala/simd/f64"
)

const (
	// realIfCloseTolerance is the multiple of machine epsilon below which an
	// imaginary residue is considered numerical noise. Matches the tolerance
	// commonly used for truncation residues after DFT-based demixing.
	realIfCloseTolerance = 100
)

// Binomial computes the binomial coefficient C(n, k) exactly using integer
// arithmetic. It returns 0 when k < 0 or k > n.
func Binomial(n, k int) int {
	if k < 0 || k > n {
		return 0
	}
	if k > n-k {
		k = n - k
	}
	result := 1
	for i := 0; i < k; i++ {
		// Multiply before dividing so the intermediate stays integral.
		result = result * (n - i) / (i + 1)
	}
	return result
}

// BinomialF is Binomial with a float64 result, for use in scaling factors.
func BinomialF(n, k int) float64 {
	return float64(Binomial(n, k))
}

// RMS computes the root-mean-square value of a real signal.
// Returns 0 for an empty signal.
func RMS(s []float64) float64 {
	if len(s) == 0 {
		return 0
	}
	sumSq := f64.DotProduct(s, s)
	return math.Sqrt(sumSq / float64(len(s)))
}

// RMSC computes the root-mean-square value of a complex signal,
// defined as sqrt(mean(|z|^2)).
func RMSC(s []complex128) float64 {
	if len(s) == 0 {
		return 0
	}
	var sumSq float64
	for _, z := range s {
		sumSq += real(z)*real(z) + imag(z)*imag(z)
	}
	return math.Sqrt(sumSq / float64(len(s)))
}

// SafeDB computes 10*log10(num/den) with a guard against a zero denominator,
// in which case it returns +Inf. A zero numerator yields -Inf, which is the
// mathematically correct limit and is safe to propagate.
func SafeDB(num, den float64) float64 {
	if den == 0 {
		return math.Inf(1)
	}
	return 10 * math.Log10(num/den)
}

// RealIfClose returns the real part of s and true when the imaginary parts
// are negligible relative to the magnitude of the signal, i.e. when the
// largest imaginary residue is below 100 machine epsilons of the largest
// magnitude. The real part is returned either way; the boolean reports
// whether the cleanup was lossless up to numerical noise.
func RealIfClose(s []complex128) ([]float64, bool) {
	var maxImag, maxAbs float64
	for _, z := range s {
		if im := math.Abs(imag(z)); im > maxImag {
			maxImag = im
		}
		if a := cmplx.Abs(z); a > maxAbs {
			maxAbs = a
		}
	}
	re := make([]float64, len(s))
	for i, z := range s {
		re[i] = real(z)
	}
	scale := maxAbs
	if scale < 1 {
		scale = 1
	}
	return re, maxImag <= realIfCloseTolerance*machineEpsilon*scale
}

// machineEpsilon is the float64 machine epsilon (2^-52).
var machineEpsilon = math.Nextafter(1, 2) - 1
