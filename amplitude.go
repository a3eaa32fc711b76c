package volterra

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/tphakala/go-volterra/internal/linalg"
)

// ASConfig configures amplitude-based separation.
type ASConfig struct {
	// N is the truncation order of the Volterra series (number of
	// homogeneous orders to separate). Must be at least 1.
	N int

	// K is the number of test signals. Set to 0 to use N. Values above N
	// give an overdetermined mixing system solved in the least-squares
	// sense, which reduces noise sensitivity.
	K int

	// Gain is the amplitude ratio between consecutive test signals.
	// Set to 0 to use the default of 1.51.
	Gain float64

	// PositiveOnly disables the sign alternation of odd test-signal
	// indices. The default (alternating signs) separates odd and even
	// orders more robustly.
	PositiveOnly bool

	// CondLimit is the mixing-matrix condition number above which
	// ProcessOutputs reports ErrIllConditioned alongside the result.
	// Set to 0 to use the default of 1e12.
	CondLimit float64
}

// Validate checks if the configuration is valid.
func (c *ASConfig) Validate() error {
	if c.N < 1 {
		return fmt.Errorf("%w: truncation order must be at least 1, got %d", ErrInvalidConfig, c.N)
	}
	if c.K != 0 && c.K < c.N {
		return fmt.Errorf("%w: need at least N=%d test signals, got K=%d", ErrInvalidConfig, c.N, c.K)
	}
	if c.Gain < 0 {
		return fmt.Errorf("%w: gain must be positive, got %v", ErrInvalidConfig, c.Gain)
	}
	return nil
}

// AS is the amplitude-based separation method: the K test signals are scaled
// copies of the base signal, and the homogeneous orders are recovered by
// inverting the Vandermonde mixing system built from the scaling factors.
type AS struct {
	n         int
	k         int
	gain      float64
	factors   []float64
	condLimit float64
}

// NewAS creates an amplitude-based separation method.
func NewAS(cfg *ASConfig) (*AS, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	k := cfg.K
	if k == 0 {
		k = cfg.N
	}
	gain := cfg.Gain
	if gain == 0 {
		gain = defaultGain
	}
	condLimit := cfg.CondLimit
	if condLimit == 0 {
		condLimit = defaultCondLimit
	}

	return &AS{
		n:         cfg.N,
		k:         k,
		gain:      gain,
		factors:   ampFactors(k, gain, !cfg.PositiveOnly),
		condLimit: condLimit,
	}, nil
}

// N returns the truncation order.
func (a *AS) N() int { return a.n }

// K returns the number of test signals.
func (a *AS) K() int { return a.k }

// Factors returns a copy of the amplitude scaling factors.
func (a *AS) Factors() []float64 {
	factors := make([]float64, len(a.factors))
	copy(factors, a.factors)
	return factors
}

// GenInputs expands the base signal into the collection of K test signals,
// each a scaled copy with the same length as the input.
func (a *AS) GenInputs(signal []float64) ([][]float64, error) {
	return genScaledInputs(a.factors, signal)
}

// ProcessOutputs inverts the mixing system and returns the estimation of the
// N first nonlinear homogeneous orders, one signal per order.
//
// When the mixing matrix condition number exceeds the configured limit, the
// demixed result is returned together with ErrIllConditioned; the numbers
// are then dominated by amplification of measurement noise.
func (a *AS) ProcessOutputs(outputs [][]float64) ([][]float64, error) {
	nbSamples, err := checkCollection(outputs, a.k)
	if err != nil {
		return nil, err
	}

	mixing := linalg.Vandermonde(a.factors, a.n)

	data := mat.NewDense(a.k, nbSamples, nil)
	for k, sig := range outputs {
		data.SetRow(k, sig)
	}

	x, err := linalg.SolveMixing(mixing, data)
	if err != nil {
		return nil, fmt.Errorf("demixing failed: %w", err)
	}

	orders := make([][]float64, a.n)
	for order := 0; order < a.n; order++ {
		row := make([]float64, nbSamples)
		copy(row, x.RawRowView(order))
		orders[order] = row
	}

	if cond := linalg.Cond(mixing); cond > a.condLimit {
		return orders, fmt.Errorf("%w: mixing matrix condition number %.3g exceeds limit %.3g",
			ErrIllConditioned, cond, a.condLimit)
	}
	return orders, nil
}
