package volterra

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/tphakala/go-volterra/internal/linalg"
	"github.com/tphakala/go-volterra/internal/mathutil"
)

// PASConfig configures phase-and-amplitude-based separation.
type PASConfig struct {
	// N is the truncation order of the Volterra series.
	N int

	// Gain is the amplitude ratio between consecutive amplitude groups.
	// Set to 0 to use the default of 1.51.
	Gain float64

	// CondLimit is the mixing-matrix condition number above which
	// ProcessOutputs reports ErrIllConditioned alongside the result.
	// Set to 0 to use the default of 1e12.
	CondLimit float64
}

// Validate checks if the configuration is valid.
func (c *PASConfig) Validate() error {
	if c.N < 1 {
		return fmt.Errorf("%w: truncation order must be at least 1, got %d", ErrInvalidConfig, c.N)
	}
	if c.Gain < 0 {
		return fmt.Errorf("%w: gain must be positive, got %v", ErrInvalidConfig, c.Gain)
	}
	return nil
}

// PAS is the phase-and-amplitude-based separation method. It composes the
// amplitude and phase strategies: ⌈N/2⌉ amplitude groups (without sign
// alternation) of 2N+1 dephasings each (rejection amplitude fixed at 1).
// The test signals are real: each is 2·Re(factor·signal) for a complex base
// signal. Demixing runs an inverse DFT per amplitude group followed by a
// Vandermonde inversion per phase over the admissible orders, which
// recovers either aggregated homogeneous orders or individual combinatorial
// terms keyed by (order, conjugate count).
type PAS struct {
	n         int
	gain      float64
	nbAmp     int
	nbPhase   int
	nbTerm    int
	ampVec    []float64
	factors   []complex128
	condLimit float64
}

// NewPAS creates a phase-and-amplitude-based separation method.
func NewPAS(cfg *PASConfig) (*PAS, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	gain := cfg.Gain
	if gain == 0 {
		gain = defaultGain
	}
	condLimit := cfg.CondLimit
	if condLimit == 0 {
		condLimit = defaultCondLimit
	}

	n := cfg.N
	nbAmp := (n + 1) / 2
	nbPhase := 2*n + 1
	ampVec := ampFactors(nbAmp, gain, false)
	phaseVec := phaseFactors(nbPhase, 1)

	factors := make([]complex128, 0, nbAmp*nbPhase)
	for _, amp := range ampVec {
		for _, phase := range phaseVec {
			factors = append(factors, complex(amp, 0)*phase)
		}
	}

	return &PAS{
		n:         n,
		gain:      gain,
		nbAmp:     nbAmp,
		nbPhase:   nbPhase,
		nbTerm:    n * (n + 3) / 2,
		ampVec:    ampVec,
		factors:   factors,
		condLimit: condLimit,
	}, nil
}

// N returns the truncation order.
func (p *PAS) N() int { return p.n }

// K returns the total number of test signals: ⌈N/2⌉·(2N+1).
func (p *PAS) K() int { return p.nbAmp * p.nbPhase }

// NbTerm returns the total number of combinatorial terms N(N+3)/2.
func (p *PAS) NbTerm() int { return p.nbTerm }

// Factors returns a copy of the complex scaling factors, the flattened
// outer product of the amplitude and phase factor vectors.
func (p *PAS) Factors() []complex128 {
	factors := make([]complex128, len(p.factors))
	copy(factors, p.factors)
	return factors
}

// GenInputs expands a complex base signal into the collection of K real
// test signals 2·Re(factor·signal).
func (p *PAS) GenInputs(signal []complex128) ([][]float64, error) {
	if len(signal) == 0 {
		return nil, fmt.Errorf("%w: empty input signal", ErrShapeMismatch)
	}
	inputs := make([][]float64, len(p.factors))
	for k, factor := range p.factors {
		test := make([]float64, len(signal))
		for t, s := range signal {
			test[t] = 2 * real(factor*s)
		}
		inputs[k] = test
	}
	return inputs, nil
}

// ProcessOutputs inverts the mixing system and returns the estimation of the
// N first nonlinear homogeneous orders. Contributions of all combinatorial
// terms of an order are summed into the order bin; the negligible imaginary
// residue left by series truncation is dropped.
//
// Like AS.ProcessOutputs, the result is returned together with
// ErrIllConditioned when a Vandermonde submatrix exceeds the condition limit.
func (p *PAS) ProcessOutputs(outputs [][]float64) ([][]float64, error) {
	ordersC, _, maxCond, err := p.demix(outputs, false)
	if err != nil {
		return nil, err
	}
	orders := make([][]float64, p.n)
	for i, row := range ordersC {
		orders[i], _ = mathutil.RealIfClose(row)
	}
	if maxCond > p.condLimit {
		return orders, fmt.Errorf("%w: mixing matrix condition number %.3g exceeds limit %.3g",
			ErrIllConditioned, maxCond, p.condLimit)
	}
	return orders, nil
}

// ProcessOutputsRaw inverts the mixing system and returns the individual
// combinatorial terms, keyed by order n and conjugate count q with
// q = ((n - phaseIdx) mod (2N+1)) / 2. Each term is divided by its binomial
// coefficient C(n, q), so that the order signal is Σ_q C(n,q)·term[(n,q)].
func (p *PAS) ProcessOutputsRaw(outputs [][]float64) (map[TermKey][]complex128, error) {
	_, terms, maxCond, err := p.demix(outputs, true)
	if err != nil {
		return nil, err
	}
	if maxCond > p.condLimit {
		return terms, fmt.Errorf("%w: mixing matrix condition number %.3g exceeds limit %.3g",
			ErrIllConditioned, maxCond, p.condLimit)
	}
	return terms, nil
}

// demix runs the two-stage inversion shared by both output modes.
func (p *PAS) demix(outputs [][]float64, raw bool) (orders [][]complex128, terms map[TermKey][]complex128, maxCond float64, err error) {
	nbSamples, err := checkCollection(outputs, p.K())
	if err != nil {
		return nil, nil, 0, err
	}

	// Stage 1: inverse DFT within each amplitude group.
	outPerPhase := make([][][]complex128, p.nbAmp)
	block := make([][]complex128, p.nbPhase)
	for a := 0; a < p.nbAmp; a++ {
		start := a * p.nbPhase
		for j := 0; j < p.nbPhase; j++ {
			sig := outputs[start+j]
			row := make([]complex128, nbSamples)
			for t, v := range sig {
				row[t] = complex(v, 0)
			}
			block[j] = row
		}
		outPerPhase[a] = inverseDFT(block, p.nbPhase)
	}

	if raw {
		terms = make(map[TermKey][]complex128, p.nbTerm)
	} else {
		orders = make([][]complex128, p.n)
		for i := range orders {
			orders[i] = make([]complex128, nbSamples)
		}
	}

	// Stage 2: Vandermonde inversion per phase over the admissible orders.
	mixing := linalg.Vandermonde(p.ampVec, p.n)
	first := firstNLOrders(p.n)
	for phaseIdx := 0; phaseIdx < p.nbPhase; phaseIdx++ {
		admissible := admissibleOrders(first[phaseIdx], p.n)
		if len(admissible) == 0 {
			continue
		}

		sub := mat.NewDense(p.nbAmp, len(admissible), nil)
		for j, order := range admissible {
			for a := 0; a < p.nbAmp; a++ {
				sub.Set(a, j, mixing.At(a, order-1))
			}
		}

		dataRe := mat.NewDense(p.nbAmp, nbSamples, nil)
		dataIm := mat.NewDense(p.nbAmp, nbSamples, nil)
		for a := 0; a < p.nbAmp; a++ {
			for t := 0; t < nbSamples; t++ {
				v := outPerPhase[a][phaseIdx][t]
				dataRe.Set(a, t, real(v))
				dataIm.Set(a, t, imag(v))
			}
		}

		// The mixing submatrix is real; a complex right-hand side splits
		// into two independent real solves.
		xRe, err := linalg.SolveMixing(sub, dataRe)
		if err != nil {
			return nil, nil, 0, fmt.Errorf("demixing failed for phase %d: %w", phaseIdx, err)
		}
		xIm, err := linalg.SolveMixing(sub, dataIm)
		if err != nil {
			return nil, nil, 0, fmt.Errorf("demixing failed for phase %d: %w", phaseIdx, err)
		}

		if cond := linalg.Cond(sub); cond > maxCond {
			maxCond = cond
		}

		for ind, order := range admissible {
			re := xRe.RawRowView(ind)
			im := xIm.RawRowView(ind)
			if raw {
				q := ((order-phaseIdx)%p.nbPhase + p.nbPhase) % p.nbPhase / 2
				inv := complex(1/mathutil.BinomialF(order, q), 0)
				term := make([]complex128, nbSamples)
				for t := 0; t < nbSamples; t++ {
					term[t] = complex(re[t], im[t]) * inv
				}
				terms[TermKey{Order: order, Conj: q}] = term
			} else {
				row := orders[order-1]
				for t := 0; t < nbSamples; t++ {
					row[t] += complex(re[t], im[t])
				}
			}
		}
	}
	return orders, terms, maxCond, nil
}

// firstNLOrders builds the offset table mapping each phase index to the
// lowest nonlinear order contributing to that phase: order 2 for the DC
// phase, then 1..N for positive phases and N..1 for negative phases.
func firstNLOrders(n int) []int {
	first := make([]int, 2*n+1)
	first[0] = 2
	for idx := 1; idx <= n; idx++ {
		first[idx] = idx
		first[2*n+1-idx] = idx
	}
	return first
}

// admissibleOrders lists the orders first, first+2, ... up to n.
func admissibleOrders(first, n int) []int {
	var orders []int
	for o := first; o <= n; o += 2 {
		orders = append(orders, o)
	}
	return orders
}
