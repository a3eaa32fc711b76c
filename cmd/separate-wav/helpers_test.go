package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPCMScale verifies the full-scale values per bit depth.
func TestPCMScale(t *testing.T) {
	s, err := pcmScale(16)
	require.NoError(t, err)
	assert.Equal(t, maxInt16, s)

	s, err = pcmScale(24)
	require.NoError(t, err)
	assert.Equal(t, maxInt24, s)

	_, err = pcmScale(8)
	assert.Error(t, err, "unsupported depth")
}

// TestQuantize verifies scaling and clipping.
func TestQuantize(t *testing.T) {
	got := quantize([]float64{0, 0.5, 1, -1, 1.5, -2}, maxInt16)
	assert.Equal(t, []int{0, 16383, 32767, -32767, 32767, -32767}, got)
}

// TestPeakNormalize verifies the joint scaling preserves relative
// amplitudes.
func TestPeakNormalize(t *testing.T) {
	signals := [][]float64{
		{0.5, -1},
		{2, -4}, // peak of the collection
	}

	factor := peakNormalize(signals, 0.95)
	assert.InDelta(t, 0.95/4, factor, 1e-12)
	assert.InDelta(t, -0.95, signals[1][1], 1e-12)
	assert.InDelta(t, 0.125*0.95, signals[0][0], 1e-12)

	silent := [][]float64{{0, 0}}
	assert.Equal(t, 1.0, peakNormalize(silent, 0.95), "silence left untouched")
}
