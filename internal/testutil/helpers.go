// Package testutil provides reusable test helper functions for the
// separation and identification tests: deterministic signal generators and
// synthetic polynomial systems with known Volterra kernels.
package testutil

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Default tolerances for various test scenarios.
const (
	DefaultTolerance   = 1e-10
	SeparationTol      = 1e-6
	IdentificationTol  = 1e-6
	EndToEndTol        = 1e-9
	DefaultRandomSeed  = 42
	DefaultSampleCount = 500
)

// SineSignal generates amplitude·cos(2π·freq·t) sampled at rate fs for
// nbSamples samples.
func SineSignal(freq, fs, amplitude float64, nbSamples int) []float64 {
	signal := make([]float64, nbSamples)
	for t := range signal {
		signal[t] = amplitude * math.Cos(2*math.Pi*freq*float64(t)/fs)
	}
	return signal
}

// TwoToneCmplx generates a deterministic complex two-tone envelope
// exp(2πi·f1·t) + exp(2πi·f2·t) sampled at rate fs.
func TwoToneCmplx(f1, f2, fs float64, nbSamples int) []complex128 {
	signal := make([]complex128, nbSamples)
	for t := range signal {
		arg1 := 2 * math.Pi * f1 * float64(t) / fs
		arg2 := 2 * math.Pi * f2 * float64(t) / fs
		signal[t] = complex(math.Cos(arg1)+math.Cos(arg2), math.Sin(arg1)+math.Sin(arg2))
	}
	return signal
}

// RandSignal generates a deterministic uniform signal in [-1, 1).
func RandSignal(seed int64, nbSamples int) []float64 {
	rng := rand.New(rand.NewSource(seed))
	signal := make([]float64, nbSamples)
	for t := range signal {
		signal[t] = 2*rng.Float64() - 1
	}
	return signal
}

// RandSignalC generates a deterministic complex signal with independent
// uniform real and imaginary parts in [-1, 1).
func RandSignalC(seed int64, nbSamples int) []complex128 {
	rng := rand.New(rand.NewSource(seed))
	signal := make([]complex128, nbSamples)
	for t := range signal {
		signal[t] = complex(2*rng.Float64()-1, 2*rng.Float64()-1)
	}
	return signal
}

// PolynomialResponse applies a memoryless polynomial nonlinearity
// y = Σ coeffs[i]·x^(i+1) to a real signal.
func PolynomialResponse(signal []float64, coeffs []float64) []float64 {
	out := make([]float64, len(signal))
	for t, x := range signal {
		p := 1.0
		for _, c := range coeffs {
			p *= x
			out[t] += c * p
		}
	}
	return out
}

// PolynomialOrders returns the per-order responses coeffs[n-1]·x^n of a
// memoryless polynomial nonlinearity.
func PolynomialOrders(signal []float64, coeffs []float64) [][]float64 {
	orders := make([][]float64, len(coeffs))
	for i, c := range coeffs {
		row := make([]float64, len(signal))
		for t, x := range signal {
			row[t] = c * math.Pow(x, float64(i+1))
		}
		orders[i] = row
	}
	return orders
}

// PolynomialOrdersC is PolynomialOrders for a complex signal driving an
// analytic polynomial nonlinearity (no conjugate terms).
func PolynomialOrdersC(signal []complex128, coeffs []float64) [][]complex128 {
	orders := make([][]complex128, len(coeffs))
	for i, c := range coeffs {
		row := make([]complex128, len(signal))
		for t, z := range signal {
			p := complex(1, 0)
			for j := 0; j <= i; j++ {
				p *= z
			}
			row[t] = complex(c, 0) * p
		}
		orders[i] = row
	}
	return orders
}

// AssertNoNaNOrInf verifies that no elements in the slice are NaN or Inf.
func AssertNoNaNOrInf(t *testing.T, s []float64, msgAndArgs ...any) bool {
	t.Helper()
	for i, v := range s {
		if math.IsNaN(v) {
			return assert.Fail(t, "found NaN", "s[%d] is NaN", i)
		}
		if math.IsInf(v, 0) {
			return assert.Fail(t, "found Inf", "s[%d] is Inf", i)
		}
	}
	return true
}

// AssertSignalsInDelta verifies two signals agree sample by sample.
func AssertSignalsInDelta(t *testing.T, want, got []float64, tolerance float64) bool {
	t.Helper()
	if !assert.Len(t, got, len(want), "signal length mismatch") {
		return false
	}
	for i := range want {
		if !assert.InDelta(t, want[i], got[i], tolerance, "sample %d", i) {
			return false
		}
	}
	return true
}

// AssertSignalsInDeltaC verifies two complex signals agree sample by sample.
func AssertSignalsInDeltaC(t *testing.T, want, got []complex128, tolerance float64) bool {
	t.Helper()
	if !assert.Len(t, got, len(want), "signal length mismatch") {
		return false
	}
	for i := range want {
		if !assert.InDelta(t, real(want[i]), real(got[i]), tolerance, "sample %d (real)", i) {
			return false
		}
		if !assert.InDelta(t, imag(want[i]), imag(got[i]), tolerance, "sample %d (imag)", i) {
			return false
		}
	}
	return true
}
