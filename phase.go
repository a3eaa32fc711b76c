package volterra

import (
	"fmt"
	"math"
)

// PSConfig configures phase-based separation.
type PSConfig struct {
	// N is the truncation order of the Volterra series. The method uses
	// exactly N test signals, one per N-th root of unity.
	N int

	// Rho is the rejection amplitude used to reduce aliasing between
	// orders congruent modulo N. Set to 0 to use the default of 1.
	Rho float64
}

// Validate checks if the configuration is valid.
func (c *PSConfig) Validate() error {
	if c.N < 1 {
		return fmt.Errorf("%w: truncation order must be at least 1, got %d", ErrInvalidConfig, c.N)
	}
	if c.Rho < 0 {
		return fmt.Errorf("%w: rejection amplitude must be positive, got %v", ErrInvalidConfig, c.Rho)
	}
	return nil
}

// PS is the phase-based separation method: the N test signals are copies of
// the base signal dephased by the N-th roots of unity, and the homogeneous
// orders are recovered in closed form by an inverse DFT along the
// test-signal axis.
type PS struct {
	n       int
	rho     float64
	factors []complex128
}

// NewPS creates a phase-based separation method.
func NewPS(cfg *PSConfig) (*PS, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rho := cfg.Rho
	if rho == 0 {
		rho = defaultRho
	}

	return &PS{
		n:       cfg.N,
		rho:     rho,
		factors: phaseFactors(cfg.N, rho),
	}, nil
}

// N returns the truncation order.
func (p *PS) N() int { return p.n }

// K returns the number of test signals, which equals N for this method.
func (p *PS) K() int { return p.n }

// Factors returns a copy of the complex dephasing factors.
func (p *PS) Factors() []complex128 {
	factors := make([]complex128, len(p.factors))
	copy(factors, p.factors)
	return factors
}

// GenInputs expands the base signal into the collection of N dephased test
// signals. The test signals are complex even for a real base signal.
func (p *PS) GenInputs(signal []complex128) ([][]complex128, error) {
	return genScaledInputs(p.factors, signal)
}

// ProcessOutputs inverts the phase-mixing system by an inverse DFT and
// returns the estimation of the N first nonlinear homogeneous orders. The
// DC bin of the transform carries order N (orders are 1-indexed), so the
// result is circularly shifted by one position; when rho differs from 1,
// each order n is rescaled by (1/rho)^n to undo the rejection-factor
// premultiplication.
func (p *PS) ProcessOutputs(outputs [][]complex128) ([][]complex128, error) {
	nbSamples, err := checkCollection(outputs, p.n)
	if err != nil {
		return nil, err
	}

	estimation := inverseDFT(outputs, p.n)

	orders := make([][]complex128, p.n)
	for i := 0; i < p.n; i++ {
		order := i + 1
		bin := estimation[order%p.n]
		if p.rho == 1 {
			orders[i] = bin
			continue
		}
		scale := complex(math.Pow(1/p.rho, float64(order)), 0)
		row := make([]complex128, nbSamples)
		for t, v := range bin {
			row[t] = v * scale
		}
		orders[i] = row
	}
	return orders, nil
}
