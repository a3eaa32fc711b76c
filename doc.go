// Package volterra provides Volterra-series analysis of weakly nonlinear
// systems in pure Go: separation of a measured response into homogeneous
// nonlinear orders or combinatorial terms, and identification of the
// underlying discrete-time Volterra kernels from input/output signal pairs.
//
// # Features
//
//   - Amplitude-based (AS), phase-based (PS) and phase-and-amplitude-based
//     (PAS) order separation with Vandermonde and inverse-DFT demixing
//   - Kernel identification by QR-based least squares: global (KLS),
//     per-order (OrderKLS), per-term (TermKLS), per-phase with a
//     block-triangular solve (PhaseKLS) and recursive (IterKLS)
//   - Volterra basis construction by order and by combinatorial term
//   - Relative-error measures for separated orders, kernels and signals
//   - Explicit feasibility checks before any numeric work
//
// # Quick Start
//
// Separate the first two nonlinear orders of a system response:
//
//	sep, err := volterra.NewAS(&volterra.ASConfig{N: 2})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	inputs, err := sep.GenInputs(signal)
//	// ... measure the system response to each test signal ...
//	orders, err := sep.ProcessOutputs(outputs)
//
// Identify kernels of memory M from the separated orders:
//
//	kernels, err := volterra.OrderKLS(signal, orders, M, 2, nil)
//
// All operations are synchronous and stateless across calls; per-order and
// per-term solves are mutually independent and may be parallelized by the
// caller.
package volterra
