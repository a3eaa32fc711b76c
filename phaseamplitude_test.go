package volterra

import (
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-volterra/internal/mathutil"
	"github.com/tphakala/go-volterra/internal/testutil"
)

// pasMeasure drives a memoryless polynomial system with the PAS test
// signals and returns the collected outputs.
func pasMeasure(sep *PAS, signal []complex128, coeffs []float64) ([][]float64, error) {
	inputs, err := sep.GenInputs(signal)
	if err != nil {
		return nil, err
	}
	outputs := make([][]float64, len(inputs))
	for k, test := range inputs {
		outputs[k] = testutil.PolynomialResponse(test, coeffs)
	}
	return outputs, nil
}

// realEnvelope returns the real signal 2·Re(z) that the unit factor of the
// PAS collection drives the system with.
func realEnvelope(signal []complex128) []float64 {
	out := make([]float64, len(signal))
	for t, z := range signal {
		out[t] = 2 * real(z)
	}
	return out
}

// TestPASConfig_Validate verifies the configuration guards.
func TestPASConfig_Validate(t *testing.T) {
	assert.NoError(t, (&PASConfig{N: 1}).Validate())
	assert.ErrorIs(t, (&PASConfig{N: 0}).Validate(), ErrInvalidConfig)
	assert.ErrorIs(t, (&PASConfig{N: 2, Gain: -0.5}).Validate(), ErrInvalidConfig)
}

// TestNewPAS verifies the composed factor layout.
func TestNewPAS(t *testing.T) {
	_, err := NewPAS(nil)
	assert.ErrorIs(t, err, ErrInvalidConfig, "nil config")

	sep, err := NewPAS(&PASConfig{N: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, sep.N())
	assert.Equal(t, 14, sep.K(), "⌈3/2⌉ amplitude groups of 2·3+1 phases")
	assert.Equal(t, 9, sep.NbTerm(), "N(N+3)/2 combinatorial terms")

	factors := sep.Factors()
	require.Len(t, factors, 14)
	// First amplitude group at unit magnitude, second at the default gain.
	for k := 0; k < 7; k++ {
		assert.InDelta(t, 1.0, cmplx.Abs(factors[k]), factorTolerance, "factor %d magnitude", k)
	}
	for k := 7; k < 14; k++ {
		assert.InDelta(t, defaultGain, cmplx.Abs(factors[k]), factorTolerance, "factor %d magnitude", k)
	}
}

// TestPAS_GenInputs verifies the test signals are real projections of the
// scaled complex signal.
func TestPAS_GenInputs(t *testing.T) {
	sep, err := NewPAS(&PASConfig{N: 2})
	require.NoError(t, err)

	signal := []complex128{complex(0.5, -1), complex(1, 0.25)}
	inputs, err := sep.GenInputs(signal)
	require.NoError(t, err)
	require.Len(t, inputs, sep.K())

	factors := sep.Factors()
	for k, test := range inputs {
		require.Len(t, test, len(signal))
		for i := range signal {
			assert.InDelta(t, 2*real(factors[k]*signal[i]), test[i], factorTolerance, "test %d sample %d", k, i)
		}
	}

	_, err = sep.GenInputs(nil)
	assert.ErrorIs(t, err, ErrShapeMismatch, "empty input")
}

// TestPAS_Separation verifies order recovery on a memoryless polynomial
// system driven by the real test signals.
func TestPAS_Separation(t *testing.T) {
	const nbOrders = 3
	signal := testutil.RandSignalC(testutil.DefaultRandomSeed, testutil.DefaultSampleCount)
	coeffs := []float64{1, 0.3, 0.1}

	sep, err := NewPAS(&PASConfig{N: nbOrders})
	require.NoError(t, err)

	outputs, err := pasMeasure(sep, signal, coeffs)
	require.NoError(t, err)

	orders, err := sep.ProcessOutputs(outputs)
	require.NoError(t, err)
	require.Len(t, orders, nbOrders)

	ref := testutil.PolynomialOrders(realEnvelope(signal), coeffs)
	for n := 0; n < nbOrders; n++ {
		testutil.AssertSignalsInDelta(t, ref[n], orders[n], testutil.SeparationTol)
	}
}

// TestPAS_SeparationRaw verifies the recovered combinatorial terms against
// their analytic values c_n·z^(n-q)·conj(z)^q.
func TestPAS_SeparationRaw(t *testing.T) {
	const nbOrders = 3
	signal := testutil.RandSignalC(testutil.DefaultRandomSeed, 200)
	coeffs := []float64{1, 0.3, 0.1}

	sep, err := NewPAS(&PASConfig{N: nbOrders})
	require.NoError(t, err)

	outputs, err := pasMeasure(sep, signal, coeffs)
	require.NoError(t, err)

	terms, err := sep.ProcessOutputsRaw(outputs)
	require.NoError(t, err)
	require.Len(t, terms, sep.NbTerm())

	for order := 1; order <= nbOrders; order++ {
		for q := 0; q <= order; q++ {
			key := TermKey{Order: order, Conj: q}
			got, ok := terms[key]
			require.True(t, ok, "term (%d, %d) missing", order, q)

			want := make([]complex128, len(signal))
			for i, z := range signal {
				p := complex(coeffs[order-1], 0)
				for j := 0; j < order-q; j++ {
					p *= z
				}
				zc := cmplx.Conj(z)
				for j := 0; j < q; j++ {
					p *= zc
				}
				want[i] = p
			}
			testutil.AssertSignalsInDeltaC(t, want, got, testutil.SeparationTol)
		}
	}
}

// TestPAS_RawReconstructsOrders verifies Σ_q C(n,q)·term(n,q) equals the
// aggregated order signal.
func TestPAS_RawReconstructsOrders(t *testing.T) {
	const nbOrders = 3
	signal := testutil.RandSignalC(testutil.DefaultRandomSeed+1, 150)
	coeffs := []float64{0.8, -0.2, 0.05}

	sep, err := NewPAS(&PASConfig{N: nbOrders})
	require.NoError(t, err)

	outputs, err := pasMeasure(sep, signal, coeffs)
	require.NoError(t, err)

	orders, err := sep.ProcessOutputs(outputs)
	require.NoError(t, err)
	terms, err := sep.ProcessOutputsRaw(outputs)
	require.NoError(t, err)

	for order := 1; order <= nbOrders; order++ {
		recon := make([]complex128, len(signal))
		for q := 0; q <= order; q++ {
			weight := complex(mathutil.BinomialF(order, q), 0)
			for i, v := range terms[TermKey{Order: order, Conj: q}] {
				recon[i] += weight * v
			}
		}
		re := make([]float64, len(recon))
		for i, v := range recon {
			assert.InDelta(t, 0.0, imag(v), testutil.SeparationTol, "order %d residue at %d", order, i)
			re[i] = real(v)
		}
		testutil.AssertSignalsInDelta(t, orders[order-1], re, testutil.SeparationTol)
	}
}

// TestPAS_FirstOrder verifies the degenerate single-order setup.
func TestPAS_FirstOrder(t *testing.T) {
	signal := testutil.RandSignalC(testutil.DefaultRandomSeed, 50)
	coeffs := []float64{0.5}

	sep, err := NewPAS(&PASConfig{N: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, sep.K(), "one amplitude group of three phases")

	outputs, err := pasMeasure(sep, signal, coeffs)
	require.NoError(t, err)

	orders, err := sep.ProcessOutputs(outputs)
	require.NoError(t, err)
	require.Len(t, orders, 1)

	ref := testutil.PolynomialOrders(realEnvelope(signal), coeffs)
	testutil.AssertSignalsInDelta(t, ref[0], orders[0], testutil.SeparationTol)
}

// TestPAS_ProcessOutputs_ShapeMismatch verifies the collection guards.
func TestPAS_ProcessOutputs_ShapeMismatch(t *testing.T) {
	sep, err := NewPAS(&PASConfig{N: 2})
	require.NoError(t, err)

	_, err = sep.ProcessOutputs([][]float64{{1, 2}})
	assert.ErrorIs(t, err, ErrShapeMismatch)
}
