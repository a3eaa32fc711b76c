package volterra

import (
	"sort"

	"github.com/tphakala/go-volterra/internal/mathutil"
)

// SeparationError returns the relative error between true homogeneous
// orders and their estimates, one value per order: the RMS of the
// estimation error divided by the RMS of the true order. A zero reference
// RMS is substituted with 1 to avoid division by zero, so an exact
// estimate of an all-zero order reports 0. With db set, the ratio is
// converted to decibels.
func SeparationError(signalsRef, signalsEst [][]float64, db bool) []float64 {
	errors := make([]float64, len(signalsRef))
	for i := range signalsRef {
		diff := make([]float64, len(signalsRef[i]))
		for t := range diff {
			diff[t] = signalsRef[i][t] - signalsEst[i][t]
		}
		errors[i] = relativeError(mathutil.RMS(diff), mathutil.RMS(signalsRef[i]), db)
	}
	return errors
}

// SeparationErrorC is SeparationError for complex-valued orders, as
// recovered by phase-based separation.
func SeparationErrorC(signalsRef, signalsEst [][]complex128, db bool) []float64 {
	errors := make([]float64, len(signalsRef))
	for i := range signalsRef {
		diff := make([]complex128, len(signalsRef[i]))
		for t := range diff {
			diff[t] = signalsRef[i][t] - signalsEst[i][t]
		}
		errors[i] = relativeError(mathutil.RMSC(diff), mathutil.RMSC(signalsRef[i]), db)
	}
	return errors
}

// IdentificationError returns the relative error between reference kernels
// and their estimates, one value per estimated order, sorted ascending by
// order. An estimated order absent from the reference is measured against
// an RMS of 1.
func IdentificationError(kernelsRef, kernelsEst map[int]*Kernel, db bool) []float64 {
	orders := make([]int, 0, len(kernelsEst))
	for order := range kernelsEst {
		orders = append(orders, order)
	}
	sort.Ints(orders)

	errors := make([]float64, 0, len(orders))
	for _, order := range orders {
		est := kernelsEst[order]
		ref, ok := kernelsRef[order]
		if !ok {
			errors = append(errors, relativeError(mathutil.RMS(est.Data), 1, db))
			continue
		}
		diff := make([]float64, len(est.Data))
		for i := range diff {
			diff[i] = est.Data[i] - ref.Data[i]
		}
		errors = append(errors, relativeError(mathutil.RMS(diff), mathutil.RMS(ref.Data), db))
	}
	return errors
}

// EvaluationError returns the relative error between a reference signal and
// an estimation: RMS of the difference over RMS of the reference.
func EvaluationError(signalRef, signalEst []float64, db bool) float64 {
	diff := make([]float64, len(signalRef))
	for t := range diff {
		diff[t] = signalEst[t] - signalRef[t]
	}
	return relativeError(mathutil.RMS(diff), mathutil.RMS(signalRef), db)
}

// EvaluationErrorC is EvaluationError for complex-valued signals.
func EvaluationErrorC(signalRef, signalEst []complex128, db bool) float64 {
	diff := make([]complex128, len(signalRef))
	for t := range diff {
		diff[t] = signalEst[t] - signalRef[t]
	}
	return relativeError(mathutil.RMSC(diff), mathutil.RMSC(signalRef), db)
}

// relativeError applies the zero-reference substitution and the dB or
// linear convention shared by the measures.
func relativeError(rmsError, rmsRef float64, db bool) float64 {
	if rmsRef == 0 {
		rmsRef = 1
	}
	if db {
		return mathutil.SafeDB(rmsError, rmsRef)
	}
	return rmsError / rmsRef
}
