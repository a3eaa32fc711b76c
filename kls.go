package volterra

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/tphakala/go-volterra/internal/linalg"
)

// KLS identifies Volterra kernels of memory m up to order n from a raw
// (non-separated) input/output signal pair, by least squares on the
// concatenation of the per-order basis matrices. The solve uses a reduced
// QR factorization followed by back-substitution, which avoids squaring the
// condition number of the design matrix.
//
// The result maps each order to its kernel tensor.
func KLS(input, output []float64, m, n int, opts *Options) (map[int]*Kernel, error) {
	opts = ensureOptions(opts)
	if err := checkIdentArgs(m, n); err != nil {
		return nil, err
	}
	if len(output) != len(input) {
		return nil, fmt.Errorf("%w: input has %d samples, output has %d", ErrShapeMismatch, len(input), len(output))
	}
	if err := checkFeasibility(len(input), NbCoeffInAllKernels(m, n), m, n, "KLS"); err != nil {
		return nil, err
	}

	phi, err := orderBasisFor(input, m, n, opts)
	if err != nil {
		return nil, err
	}

	// Concatenate the per-order bases, orders ascending, into one design
	// matrix; the coefficient layout of the flat solution depends on it.
	total := NbCoeffInAllKernels(m, n)
	design := mat.NewDense(len(input), total, nil)
	offset := 0
	for order := 1; order <= n; order++ {
		cols := NbCoeffInKernel(m, order)
		design.Slice(0, len(input), offset, offset+cols).(*mat.Dense).Copy(phi[order])
		offset += cols
	}

	f, err := linalg.LeastSquaresQR(design, output)
	if err != nil {
		return nil, fmt.Errorf("KLS solve failed: %w", err)
	}

	// Split the flat coefficient vector back into per-order kernels.
	kernels := make(map[int]*Kernel, n)
	offset = 0
	for order := 1; order <= n; order++ {
		cols := NbCoeffInKernel(m, order)
		kernel, err := VectorToKernel(f[offset:offset+cols], m, order, opts.Form)
		if err != nil {
			return nil, err
		}
		kernels[order] = kernel
		offset += cols
	}
	return kernels, nil
}

// OrderKLS identifies one kernel per nonlinear homogeneous order from an
// input signal and the order-separated output signals (outputByOrder[i] is
// the order i+1 signal). Each order is an independent least-squares solve;
// the solves share no state and may be parallelized by the caller.
func OrderKLS(input []float64, outputByOrder [][]float64, m, n int, opts *Options) (map[int]*Kernel, error) {
	opts = ensureOptions(opts)
	if err := checkIdentArgs(m, n); err != nil {
		return nil, err
	}
	if len(outputByOrder) < n {
		return nil, fmt.Errorf("%w: got %d separated orders, need %d", ErrShapeMismatch, len(outputByOrder), n)
	}
	if err := checkFeasibility(len(input), NbCoeffInKernel(m, n), m, n, "OrderKLS"); err != nil {
		return nil, err
	}

	phi, err := orderBasisFor(input, m, n, opts)
	if err != nil {
		return nil, err
	}

	kernels := make(map[int]*Kernel, n)
	for order := 1; order <= n; order++ {
		y := outputByOrder[order-1]
		if len(y) != len(input) {
			return nil, fmt.Errorf("%w: order %d signal has %d samples, expected %d",
				ErrShapeMismatch, order, len(y), len(input))
		}
		f, err := linalg.LeastSquaresQR(phi[order], y)
		if err != nil {
			return nil, fmt.Errorf("OrderKLS solve failed for order %d: %w", order, err)
		}
		kernel, err := VectorToKernel(f, m, order, opts.Form)
		if err != nil {
			return nil, err
		}
		kernels[order] = kernel
	}
	return kernels, nil
}

func checkIdentArgs(m, n int) error {
	if m < 1 {
		return fmt.Errorf("%w: memory length must be positive, got %d", ErrInvalidConfig, m)
	}
	if n < 1 {
		return fmt.Errorf("%w: truncation order must be positive, got %d", ErrInvalidConfig, n)
	}
	return nil
}
