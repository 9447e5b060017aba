// Package validation compares allocated cost against the aggregate billing
// figure as a plausibility signal, not ground truth.
package validation

import (
	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/models/domain"
)

// DefaultMinWindowDays is the shortest analysis window for which the
// deviation factor is meaningful. Below it the billing source's ~24 h
// reporting lag dominates and the factor reads as undercounting without the
// allocator being wrong; long windows instead tend to overcount because the
// aggregate includes services outside the tracked set.
const DefaultMinWindowDays = 7

type Reconciler struct {
	minWindowDays float64
}

func NewReconciler(minWindowDays float64) *Reconciler {
	if minWindowDays <= 0 {
		minWindowDays = DefaultMinWindowDays
	}
	return &Reconciler{minWindowDays: minWindowDays}
}

// Reconcile computes the deviation factor reported/calculated. Eligible is
// false for windows under the minimum; callers must not render the factor
// then. A zero calculated total also makes the comparison meaningless.
func (r *Reconciler) Reconcile(
	window domain.TimePeriod,
	aggregateReported, aggregateCalculated float64,
) domain.ValidationResult {
	result := domain.ValidationResult{
		AggregateReported:   aggregateReported,
		AggregateCalculated: aggregateCalculated,
	}

	if window.Days() < r.minWindowDays || aggregateCalculated == 0 {
		result.Eligible = false
		return result
	}

	result.DeviationFactor = aggregateReported / aggregateCalculated
	result.Eligible = true
	return result
}
