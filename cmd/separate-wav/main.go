// Command separate-wav runs Volterra order separation on WAV measurements.
//
// Usage:
//
//	separate-wav -mode expand -n 3 excitation.wav testdir/
//	separate-wav -mode expand -n 3 -k 6 -gain 2 excitation.wav testdir/
//	separate-wav -mode invert -n 3 -out orderdir/ test_00.wav ... test_05.wav
//	separate-wav -mode identify -n 3 -memory 20 excitation.wav response.wav
//
// The expand mode turns a measured excitation into the K amplitude-scaled
// test signals to play through the system under test. The invert mode takes
// the K recorded responses and demixes them into one WAV per nonlinear
// homogeneous order. The identify mode estimates the Volterra kernels from
// a raw excitation/response pair and prints their coefficients.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/cheggaaa/pb"

	volterra "github.com/tphakala/go-volterra"
)

const (
	// CLI defaults.
	defaultOrder  = 3
	defaultMemory = 10

	// Test signals are normalized jointly to this fraction of full scale
	// before quantization, preserving their relative amplitudes.
	expandHeadroom = 0.95

	minRequiredArgs = 2

	testFilePattern  = "test_%02d.wav"
	orderFilePattern = "order_%d.wav"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	mode := flag.String("mode", "expand", "Operation: expand, invert or identify")
	n := flag.Int("n", defaultOrder, "Truncation order of the Volterra series")
	k := flag.Int("k", 0, "Number of test signals (0 uses n)")
	gain := flag.Float64("gain", 0, "Amplitude ratio between test signals (0 uses the default)")
	memory := flag.Int("memory", defaultMemory, "Kernel memory length in samples (identify mode)")
	outDir := flag.String("out", ".", "Output directory (invert mode)")
	flag.Parse()

	args := flag.Args()
	if len(args) < minRequiredArgs {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <inputs...>\n\nOptions:\n", os.Args[0])
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -mode expand -n 3 excitation.wav testdir/\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -mode invert -n 3 -out orders/ test_*.wav\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -mode identify -n 3 -memory 20 excitation.wav response.wav\n", os.Args[0])
		return fmt.Errorf("insufficient arguments")
	}

	switch *mode {
	case "expand":
		return runExpand(args[0], args[1], *n, *k, *gain)
	case "invert":
		return runInvert(args, *outDir, *n, *k, *gain)
	case "identify":
		return runIdentify(args[0], args[1], *n, *memory)
	default:
		return fmt.Errorf("unknown mode %q (want expand, invert or identify)", *mode)
	}
}

// runExpand writes the K test-signal files for a measured excitation.
func runExpand(inputPath, outDir string, n, k int, gain float64) error {
	sep, err := volterra.NewAS(&volterra.ASConfig{N: n, K: k, Gain: gain})
	if err != nil {
		return err
	}

	in, err := readWAVMono(inputPath)
	if err != nil {
		return err
	}
	log.Printf("Excitation: %d samples at %d Hz, %d-bit", len(in.samples), in.rate, in.bitDepth)

	tests, err := sep.GenInputs(in.samples)
	if err != nil {
		return err
	}
	factor := peakNormalize(tests, expandHeadroom)
	log.Printf("Joint normalization factor %.6g", factor)

	bar := pb.StartNew(len(tests))
	for i, test := range tests {
		path := filepath.Join(outDir, fmt.Sprintf(testFilePattern, i))
		if err := writeWAVMono(path, test, in.rate, in.bitDepth); err != nil {
			bar.Finish()
			return err
		}
		bar.Increment()
	}
	bar.Finish()

	fmt.Printf("Wrote %d test signals to %s\n", len(tests), outDir)
	return nil
}

// runInvert demixes the K recorded responses into per-order WAV files.
func runInvert(responsePaths []string, outDir string, n, k int, gain float64) error {
	sep, err := volterra.NewAS(&volterra.ASConfig{N: n, K: k, Gain: gain})
	if err != nil {
		return err
	}
	if len(responsePaths) != sep.K() {
		return fmt.Errorf("got %d response files, separation with n=%d needs %d", len(responsePaths), n, sep.K())
	}

	outputs := make([][]float64, len(responsePaths))
	var rate, bitDepth int
	bar := pb.StartNew(len(responsePaths))
	for i, path := range responsePaths {
		in, err := readWAVMono(path)
		if err != nil {
			bar.Finish()
			return err
		}
		if i == 0 {
			rate, bitDepth = in.rate, in.bitDepth
		} else if in.rate != rate {
			bar.Finish()
			return fmt.Errorf("%s is at %d Hz, expected %d Hz", path, in.rate, rate)
		}
		outputs[i] = in.samples
		bar.Increment()
	}
	bar.Finish()

	orders, err := sep.ProcessOutputs(outputs)
	if err != nil {
		if !errors.Is(err, volterra.ErrIllConditioned) {
			return err
		}
		log.Printf("Warning: %v", err)
	}

	peakNormalize(orders, expandHeadroom)
	for i, order := range orders {
		path := filepath.Join(outDir, fmt.Sprintf(orderFilePattern, i+1))
		if err := writeWAVMono(path, order, rate, bitDepth); err != nil {
			return err
		}
	}

	fmt.Printf("Wrote %d order signals to %s\n", len(orders), outDir)
	return nil
}

// runIdentify estimates the Volterra kernels from an excitation/response
// pair and prints their leading coefficients.
func runIdentify(inputPath, responsePath string, n, memory int) error {
	in, err := readWAVMono(inputPath)
	if err != nil {
		return err
	}
	out, err := readWAVMono(responsePath)
	if err != nil {
		return err
	}
	if len(out.samples) != len(in.samples) {
		return fmt.Errorf("excitation has %d samples, response has %d", len(in.samples), len(out.samples))
	}

	log.Printf("Identifying kernels: memory %d, order %d, %d free coefficients",
		memory, n, volterra.NbCoeffInAllKernels(memory, n))

	kernels, err := volterra.KLS(in.samples, out.samples, memory, n, nil)
	if err != nil {
		return err
	}

	for order := 1; order <= n; order++ {
		f := volterra.KernelVector(kernels[order])
		fmt.Printf("Order %d kernel (%d coefficients):\n", order, len(f))
		for i, v := range f {
			fmt.Printf("  f[%d] = %+.6e\n", i, v)
		}
	}
	return nil
}
