package main

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"gonum.org/v1/gonum/floats"
)

const (
	// Normalization constants per PCM bit depth.
	maxInt16 = 32767.0
	maxInt24 = 8388607.0
	maxInt32 = 2147483647.0

	bitsPerSample16 = 16
	bitsPerSample24 = 24
	bitsPerSample32 = 32

	// WAV audio format tag for PCM.
	wavFormatPCM = 1

	monoChannels = 1
)

// pcmScale returns the full-scale value for a PCM bit depth.
func pcmScale(bitDepth int) (float64, error) {
	switch bitDepth {
	case bitsPerSample16:
		return maxInt16, nil
	case bitsPerSample24:
		return maxInt24, nil
	case bitsPerSample32:
		return maxInt32, nil
	default:
		return 0, fmt.Errorf("unsupported bit depth %d (want 16, 24 or 32)", bitDepth)
	}
}

// wavSignal is a mono signal together with the format it was read with.
type wavSignal struct {
	samples  []float64
	rate     int
	bitDepth int
}

// readWAVMono reads a mono WAV file into a normalized float64 signal in
// [-1, 1].
func readWAVMono(path string) (*wavSignal, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer func() { _ = f.Close() }()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file: %s", path)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to read PCM data: %w", err)
	}
	if buf.Format.NumChannels != monoChannels {
		return nil, fmt.Errorf("%s has %d channels, separation needs mono files", path, buf.Format.NumChannels)
	}

	bitDepth := int(decoder.BitDepth)
	scale, err := pcmScale(bitDepth)
	if err != nil {
		return nil, err
	}

	samples := make([]float64, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = float64(v)
	}
	floats.Scale(1/scale, samples)

	return &wavSignal{
		samples:  samples,
		rate:     buf.Format.SampleRate,
		bitDepth: bitDepth,
	}, nil
}

// writeWAVMono writes a float64 signal to a mono PCM WAV file. Values are
// clipped to [-1, 1] before quantization.
func writeWAVMono(path string, signal []float64, rate, bitDepth int) error {
	scale, err := pcmScale(bitDepth)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	enc := wav.NewEncoder(f, rate, bitDepth, monoChannels, wavFormatPCM)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: monoChannels, SampleRate: rate},
		SourceBitDepth: bitDepth,
		Data:           quantize(signal, scale),
	}
	if err := enc.Write(buf); err != nil {
		_ = enc.Close()
		_ = f.Close()
		return fmt.Errorf("failed to write PCM data: %w", err)
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to finalize WAV file: %w", err)
	}
	return f.Close()
}

// quantize converts a normalized signal to integer PCM samples with
// clipping.
func quantize(signal []float64, scale float64) []int {
	out := make([]int, len(signal))
	for i, v := range signal {
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		out[i] = int(v * scale)
	}
	return out
}

// peakNormalize rescales a collection of signals by a common factor so the
// largest magnitude lands at the given headroom below full scale. Returns
// the factor applied; a silent collection is left untouched.
func peakNormalize(signals [][]float64, headroom float64) float64 {
	peak := 0.0
	for _, sig := range signals {
		if len(sig) == 0 {
			continue
		}
		if p := floats.Max(sig); p > peak {
			peak = p
		}
		if p := -floats.Min(sig); p > peak {
			peak = p
		}
	}
	if peak == 0 {
		return 1
	}
	factor := headroom / peak
	for _, sig := range signals {
		floats.Scale(factor, sig)
	}
	return factor
}
