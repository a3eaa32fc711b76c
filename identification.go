package volterra

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/tphakala/go-volterra/internal/mathutil"
)

// CastMode selects how complex-valued signals and basis matrices are recast
// to real values before a least-squares solve.
type CastMode string

const (
	// CastModeReal keeps twice the real part.
	CastModeReal CastMode = "real"

	// CastModeImag keeps twice the imaginary part.
	CastModeImag CastMode = "imag"

	// CastModeRealImag stacks real and imaginary parts along the sample
	// axis, doubling the effective sample count while preserving full
	// information. This is the default.
	CastModeRealImag CastMode = "real-imag"
)

// TermMode selects how TermKLS aggregates the redundant information carried
// by the combinatorial terms sharing an order.
type TermMode string

const (
	// TermModeMean solves independently per term and averages the
	// per-order estimates. Simple but statistically suboptimal: it
	// ignores unequal noise and conditioning across terms.
	TermModeMean TermMode = "mean"

	// TermModeMMSE concatenates all terms of an order into one larger
	// system solved once, giving a single consistent least-squares
	// estimate. This is the default.
	TermModeMMSE TermMode = "mmse"
)

// Options holds the optional parameters shared by the identification entry
// points. A nil *Options selects all defaults.
type Options struct {
	// Form is the storage layout of the returned kernels.
	Form KernelForm

	// CastMode is the complex-to-real recasting policy. An unrecognized
	// value falls back to CastModeRealImag and is reported through
	// Diagnostics rather than failing the run.
	CastMode CastMode

	// TermMode is the TermKLS aggregation policy.
	TermMode TermMode

	// OrderBasis is an optional precomputed per-order basis, as returned
	// by VolterraBasisByOrder. When nil, the basis is computed from the
	// input signal. Read-only once constructed.
	OrderBasis map[int]*mat.Dense

	// TermBasis is an optional precomputed per-term basis, as returned by
	// VolterraBasisByTerm. When nil, the basis is computed from the input
	// signal. Read-only once constructed.
	TermBasis map[TermKey]*mat.CDense

	// Diagnostics collects non-fatal notes emitted during a run, such as
	// an unknown cast mode being replaced by the default.
	Diagnostics []string
}

// ensureOptions returns opts or a fresh default set.
func ensureOptions(opts *Options) *Options {
	if opts == nil {
		return &Options{}
	}
	return opts
}

// castPolicy resolves the configured cast mode, falling back to the default
// with a diagnostic for unknown values.
func (o *Options) castPolicy() mathutil.CastPolicy {
	switch o.CastMode {
	case CastModeReal:
		return mathutil.CastReal
	case CastModeImag:
		return mathutil.CastImag
	case CastModeRealImag, "":
		return mathutil.CastRealImag
	default:
		o.Diagnostics = append(o.Diagnostics,
			fmt.Sprintf("unknown cast mode %q, using %q", o.CastMode, CastModeRealImag))
		return mathutil.CastRealImag
	}
}

// termMode resolves the configured term aggregation mode.
func (o *Options) termMode() (TermMode, error) {
	switch o.TermMode {
	case TermModeMean, TermModeMMSE:
		return o.TermMode, nil
	case "":
		return TermModeMMSE, nil
	default:
		return "", fmt.Errorf("%w: unknown term mode %q", ErrInvalidConfig, o.TermMode)
	}
}

// checkFeasibility enforces the shared precondition of all identification
// methods: the sample count must cover the number of free kernel
// coefficients, otherwise the least-squares problem is underdetermined and
// no numeric work is attempted.
func checkFeasibility(nbData, nbCoeff, m, n int, name string) error {
	if nbData < nbCoeff {
		return fmt.Errorf("%w: %s with memory %d and order %d has %d free coefficients but only %d samples",
			ErrInsufficientData, name, m, n, nbCoeff, nbData)
	}
	return nil
}

// castMatrix recasts a complex basis matrix to a real one according to the
// policy; CastRealImag stacks the real rows above the imaginary rows.
func castMatrix(phi *mat.CDense, policy mathutil.CastPolicy) *mat.Dense {
	rows, cols := phi.Dims()
	var out *mat.Dense
	switch policy {
	case mathutil.CastReal:
		out = mat.NewDense(rows, cols, nil)
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				out.Set(i, j, 2*real(phi.At(i, j)))
			}
		}
	case mathutil.CastImag:
		out = mat.NewDense(rows, cols, nil)
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				out.Set(i, j, 2*imag(phi.At(i, j)))
			}
		}
	default:
		out = mat.NewDense(2*rows, cols, nil)
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				v := phi.At(i, j)
				out.Set(i, j, real(v))
				out.Set(rows+i, j, imag(v))
			}
		}
	}
	return out
}

// orderBasisFor returns the per-order basis from the options or computes it
// from the input signal, validating the row count either way.
func orderBasisFor(input []float64, m, n int, opts *Options) (map[int]*mat.Dense, error) {
	phi := opts.OrderBasis
	if phi == nil {
		var err error
		phi, err = VolterraBasisByOrder(input, m, n)
		if err != nil {
			return nil, err
		}
	}
	for order := 1; order <= n; order++ {
		basis, ok := phi[order]
		if !ok {
			return nil, fmt.Errorf("%w: basis for order %d missing", ErrShapeMismatch, order)
		}
		rows, cols := basis.Dims()
		if rows != len(input) || cols != NbCoeffInKernel(m, order) {
			return nil, fmt.Errorf("%w: basis for order %d is %dx%d, expected %dx%d",
				ErrShapeMismatch, order, rows, cols, len(input), NbCoeffInKernel(m, order))
		}
	}
	return phi, nil
}

// termBasisFor returns the per-term basis from the options or computes it
// from the input signal.
func termBasisFor(input []complex128, m, n int, opts *Options) (map[TermKey]*mat.CDense, error) {
	phi := opts.TermBasis
	if phi == nil {
		var err error
		phi, err = VolterraBasisByTerm(input, m, n)
		if err != nil {
			return nil, err
		}
	}
	for order := 1; order <= n; order++ {
		for q := 0; q <= order/2; q++ {
			basis, ok := phi[TermKey{Order: order, Conj: q}]
			if !ok {
				return nil, fmt.Errorf("%w: basis for term (%d, %d) missing", ErrShapeMismatch, order, q)
			}
			rows, cols := basis.Dims()
			if rows != len(input) || cols != NbCoeffInKernel(m, order) {
				return nil, fmt.Errorf("%w: basis for term (%d, %d) is %dx%d, expected %dx%d",
					ErrShapeMismatch, order, q, rows, cols, len(input), NbCoeffInKernel(m, order))
			}
		}
	}
	return phi, nil
}
