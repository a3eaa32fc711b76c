package mathutil

// CastPolicy selects how a complex-valued signal is recast to real values
// before a real least-squares solve.
type CastPolicy int

const (
	// CastReal keeps twice the real part. For conjugate-symmetric term pairs
	// this preserves the full information of the summed pair.
	CastReal CastPolicy = iota

	// CastImag keeps twice the imaginary part.
	CastImag

	// CastRealImag stacks the real part followed by the imaginary part along
	// the sample axis, doubling the effective sample count while preserving
	// full information. This is the default policy.
	CastRealImag
)

// CastLen returns the length of the real signal produced by casting a complex
// signal of length n under the given policy.
func CastLen(n int, policy CastPolicy) int {
	if policy == CastRealImag {
		return 2 * n
	}
	return n
}

// CastToReal recasts a complex signal to a real one according to policy.
func CastToReal(s []complex128, policy CastPolicy) []float64 {
	switch policy {
	case CastReal:
		out := make([]float64, len(s))
		for i, z := range s {
			out[i] = 2 * real(z)
		}
		return out
	case CastImag:
		out := make([]float64, len(s))
		for i, z := range s {
			out[i] = 2 * imag(z)
		}
		return out
	default:
		out := make([]float64, 2*len(s))
		for i, z := range s {
			out[i] = real(z)
			out[len(s)+i] = imag(z)
		}
		return out
	}
}
