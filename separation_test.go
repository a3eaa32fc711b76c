package volterra

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const factorTolerance = 1e-12

// TestAmpFactors verifies the amplitude factor generation with and without
// sign alternation.
func TestAmpFactors(t *testing.T) {
	const gain = 1.51

	tests := []struct {
		name        string
		nbTest      int
		alternating bool
		want        []float64
	}{
		{
			name:        "alternating",
			nbTest:      4,
			alternating: true,
			want:        []float64{1, -1, gain, -gain},
		},
		{
			name:        "positive_only",
			nbTest:      3,
			alternating: false,
			want:        []float64{1, gain, gain * gain},
		},
		{
			name:        "single",
			nbTest:      1,
			alternating: true,
			want:        []float64{1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ampFactors(tt.nbTest, gain, tt.alternating)
			require.Len(t, got, tt.nbTest)
			for k := range tt.want {
				assert.InDelta(t, tt.want[k], got[k], factorTolerance, "factor %d", k)
			}
		})
	}
}

// TestPhaseFactors verifies the dephasing factors are rho times the roots
// of unity, in the negative-frequency convention.
func TestPhaseFactors(t *testing.T) {
	got := phaseFactors(4, 1)
	require.Len(t, got, 4)

	// w = exp(-2πi/4) = -i.
	want := []complex128{1, -1i, -1, 1i}
	for k := range want {
		assert.InDelta(t, real(want[k]), real(got[k]), factorTolerance, "factor %d (real)", k)
		assert.InDelta(t, imag(want[k]), imag(got[k]), factorTolerance, "factor %d (imag)", k)
	}

	const rho = 0.75
	got = phaseFactors(3, rho)
	for k, f := range got {
		assert.InDelta(t, rho, math.Hypot(real(f), imag(f)), factorTolerance, "factor %d magnitude", k)
	}
}

// TestCheckCollection verifies the shared output-collection validation.
func TestCheckCollection(t *testing.T) {
	n, err := checkCollection([][]float64{{1, 2}, {3, 4}}, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = checkCollection([][]float64{{1, 2}}, 2)
	assert.ErrorIs(t, err, ErrShapeMismatch, "wrong signal count")

	_, err = checkCollection([][]float64{{1, 2}, {3}}, 2)
	assert.ErrorIs(t, err, ErrShapeMismatch, "ragged lengths")

	_, err = checkCollection([][]complex128{{}, {}}, 2)
	assert.ErrorIs(t, err, ErrShapeMismatch, "empty signals")
}

// TestInverseDFT verifies the closed-form demixing against a known spectrum.
func TestInverseDFT(t *testing.T) {
	// coll[k][t] = Σ_j x_j[t]·w^(k·j) with w = exp(-2πi/3); the inverse DFT
	// must recover the x_j.
	x := [][]complex128{
		{1, 2},
		{1i, complex(1, 1)},
		{-1, complex(0.5, -0.5)},
	}
	const nb = 3
	w := phaseFactors(nb, 1)

	coll := make([][]complex128, nb)
	for k := 0; k < nb; k++ {
		coll[k] = make([]complex128, 2)
		for s := 0; s < 2; s++ {
			f := complex(1, 0)
			for j := 0; j < nb; j++ {
				coll[k][s] += x[j][s] * f
				f *= w[k]
			}
		}
	}

	got := inverseDFT(coll, nb)
	for j := 0; j < nb; j++ {
		for tt := 0; tt < 2; tt++ {
			assert.InDelta(t, real(x[j][tt]), real(got[j][tt]), 1e-10, "bin %d sample %d (real)", j, tt)
			assert.InDelta(t, imag(x[j][tt]), imag(got[j][tt]), 1e-10, "bin %d sample %d (imag)", j, tt)
		}
	}
}

// TestFirstNLOrders verifies the phase-to-lowest-order offset table.
func TestFirstNLOrders(t *testing.T) {
	assert.Equal(t, []int{2, 1, 2, 3, 3, 2, 1}, firstNLOrders(3))
	assert.Equal(t, []int{2, 1, 1}, firstNLOrders(1))
}

// TestAdmissibleOrders verifies the same-parity order enumeration.
func TestAdmissibleOrders(t *testing.T) {
	assert.Equal(t, []int{1, 3}, admissibleOrders(1, 3))
	assert.Equal(t, []int{2}, admissibleOrders(2, 3))
	assert.Equal(t, []int{3}, admissibleOrders(3, 3))
	assert.Empty(t, admissibleOrders(2, 1))
}
