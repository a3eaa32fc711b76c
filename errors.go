package volterra

import "errors"

// Common errors returned by separation and identification entry points.
var (
	// ErrInvalidConfig indicates invalid configuration parameters.
	ErrInvalidConfig = errors.New("invalid volterra configuration")

	// ErrInsufficientData indicates that a signal carries fewer samples than
	// the number of free kernel coefficients implied by (M, N, form). The
	// least-squares solve would be underdetermined and is never attempted.
	ErrInsufficientData = errors.New("not enough data samples")

	// ErrShapeMismatch indicates signal collections or separated outputs
	// whose shape does not match the method configuration.
	ErrShapeMismatch = errors.New("signal shape mismatch")

	// ErrIllConditioned indicates a mixing matrix whose condition number
	// exceeds the configured limit. The demixed result is still returned
	// alongside this error; callers decide whether to trust it.
	ErrIllConditioned = errors.New("ill-conditioned separation")
)
