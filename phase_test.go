package volterra

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-volterra/internal/testutil"
)

// analyticPolynomialResponse applies y = Σ coeffs[i]·z^(i+1) to a complex
// signal, without conjugate terms.
func analyticPolynomialResponse(signal []complex128, coeffs []float64) []complex128 {
	out := make([]complex128, len(signal))
	for t, z := range signal {
		p := complex(1, 0)
		for _, c := range coeffs {
			p *= z
			out[t] += complex(c, 0) * p
		}
	}
	return out
}

// TestPSConfig_Validate verifies the configuration guards.
func TestPSConfig_Validate(t *testing.T) {
	assert.NoError(t, (&PSConfig{N: 1}).Validate())
	assert.NoError(t, (&PSConfig{N: 4, Rho: 0.5}).Validate())
	assert.ErrorIs(t, (&PSConfig{N: 0}).Validate(), ErrInvalidConfig)
	assert.ErrorIs(t, (&PSConfig{N: 2, Rho: -1}).Validate(), ErrInvalidConfig)
}

// TestNewPS verifies defaults and the factor layout.
func TestNewPS(t *testing.T) {
	_, err := NewPS(nil)
	assert.ErrorIs(t, err, ErrInvalidConfig, "nil config")

	sep, err := NewPS(&PSConfig{N: 4})
	require.NoError(t, err)
	assert.Equal(t, 4, sep.N())
	assert.Equal(t, 4, sep.K(), "phase separation uses exactly N test signals")

	factors := sep.Factors()
	require.Len(t, factors, 4)
	want := []complex128{1, -1i, -1, 1i}
	for k := range want {
		assert.InDelta(t, real(want[k]), real(factors[k]), factorTolerance, "factor %d (real)", k)
		assert.InDelta(t, imag(want[k]), imag(factors[k]), factorTolerance, "factor %d (imag)", k)
	}
}

// TestPS_GenInputs verifies the dephased test-signal expansion.
func TestPS_GenInputs(t *testing.T) {
	sep, err := NewPS(&PSConfig{N: 3})
	require.NoError(t, err)

	signal := []complex128{complex(1, 1), complex(-0.5, 2)}
	inputs, err := sep.GenInputs(signal)
	require.NoError(t, err)
	require.Len(t, inputs, 3)

	factors := sep.Factors()
	for k, test := range inputs {
		for i := range signal {
			want := factors[k] * signal[i]
			assert.InDelta(t, real(want), real(test[i]), factorTolerance)
			assert.InDelta(t, imag(want), imag(test[i]), factorTolerance)
		}
	}

	_, err = sep.GenInputs(nil)
	assert.ErrorIs(t, err, ErrShapeMismatch, "empty input")
}

// TestPS_Separation verifies order recovery for an analytic polynomial
// nonlinearity driven by a complex envelope.
func TestPS_Separation(t *testing.T) {
	const nbOrders = 3
	signal := testutil.RandSignalC(testutil.DefaultRandomSeed, testutil.DefaultSampleCount)
	coeffs := []float64{1, 0.5, 0.25}

	sep, err := NewPS(&PSConfig{N: nbOrders})
	require.NoError(t, err)

	inputs, err := sep.GenInputs(signal)
	require.NoError(t, err)

	outputs := make([][]complex128, len(inputs))
	for k, test := range inputs {
		outputs[k] = analyticPolynomialResponse(test, coeffs)
	}

	orders, err := sep.ProcessOutputs(outputs)
	require.NoError(t, err)
	require.Len(t, orders, nbOrders)

	ref := testutil.PolynomialOrdersC(signal, coeffs)
	for n := 0; n < nbOrders; n++ {
		testutil.AssertSignalsInDeltaC(t, ref[n], orders[n], testutil.SeparationTol)
	}
}

// TestPS_SeparationWithRejection verifies the per-order rescaling when the
// rejection amplitude differs from 1.
func TestPS_SeparationWithRejection(t *testing.T) {
	const (
		nbOrders = 3
		rho      = 0.8
	)
	signal := testutil.TwoToneCmplx(10, 35, 1000, testutil.DefaultSampleCount)
	coeffs := []float64{0.7, -0.2, 0.05}

	sep, err := NewPS(&PSConfig{N: nbOrders, Rho: rho})
	require.NoError(t, err)

	inputs, err := sep.GenInputs(signal)
	require.NoError(t, err)

	outputs := make([][]complex128, len(inputs))
	for k, test := range inputs {
		outputs[k] = analyticPolynomialResponse(test, coeffs)
	}

	orders, err := sep.ProcessOutputs(outputs)
	require.NoError(t, err)

	ref := testutil.PolynomialOrdersC(signal, coeffs)
	errs := SeparationErrorC(ref, orders, false)
	for n, e := range errs {
		assert.Less(t, e, testutil.SeparationTol, "order %d relative error", n+1)
	}
}

// TestPS_ProcessOutputs_ShapeMismatch verifies the collection guards.
func TestPS_ProcessOutputs_ShapeMismatch(t *testing.T) {
	sep, err := NewPS(&PSConfig{N: 2})
	require.NoError(t, err)

	_, err = sep.ProcessOutputs([][]complex128{{1}})
	assert.ErrorIs(t, err, ErrShapeMismatch)
}
