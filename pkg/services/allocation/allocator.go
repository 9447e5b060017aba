// Package allocation distributes aggregate per-category billing totals
// across resources proportionally to their reconstructed runtime.
package allocation

import (
	"context"
	"sort"

	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/models/domain"
	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/services/sources"
	"github.com/rs/zerolog"
)

// ResourceRuntime is one resource's runtime input to allocation.
type ResourceRuntime struct {
	Resource     domain.Resource
	RuntimeHours float64
}

// Result pairs the allocations with warnings about categories whose share
// semantics need surfacing.
type Result struct {
	Allocations []domain.AllocatedCost
	Warnings    []domain.Warning
}

// Allocate splits each category total by runtime share. A category with
// zero total runtime yields zero-amount allocations flagged excluded. A
// single-resource category receives 100% of its total, which may include
// untracked resources of the same type; that caveat is surfaced as a
// warning, never hidden.
func Allocate(
	ctx context.Context,
	totals []sources.CategoryTotal,
	runtimes []ResourceRuntime,
	period domain.TimePeriod,
) Result {
	logger := zerolog.Ctx(ctx)

	byCategory := make(map[string][]ResourceRuntime)
	for _, rr := range runtimes {
		byCategory[rr.Resource.Category] = append(byCategory[rr.Resource.Category], rr)
	}

	var result Result
	for _, total := range totals {
		members := byCategory[total.Category]
		if len(members) == 0 {
			logger.Warn().
				Str("category", total.Category).
				Float64("amount", total.Amount).
				Msg("billed category has no tracked resources, total left unallocated")
			result.Warnings = append(result.Warnings, domain.Warning{
				Code:    "unallocated_category",
				Message: "billed category " + total.Category + " has no tracked resources",
			})
			continue
		}

		var categoryRuntime float64
		for _, m := range members {
			categoryRuntime += m.RuntimeHours
		}

		if categoryRuntime == 0 {
			for _, m := range members {
				result.Allocations = append(result.Allocations, domain.AllocatedCost{
					ResourceID: m.Resource.ID,
					Category:   total.Category,
					Amount:     0,
					Currency:   total.Currency,
					Period:     period,
					Excluded:   true,
				})
			}
			result.Warnings = append(result.Warnings, domain.Warning{
				Code:    "excluded_no_runtime",
				Message: "category " + total.Category + " excluded from allocation, no measured runtime",
			})
			continue
		}

		for _, m := range members {
			share := m.RuntimeHours / categoryRuntime
			result.Allocations = append(result.Allocations, domain.AllocatedCost{
				ResourceID:   m.Resource.ID,
				Category:     total.Category,
				Amount:       total.Amount * share,
				Currency:     total.Currency,
				RuntimeShare: share,
				Period:       period,
			})
		}

		if len(members) == 1 {
			result.Warnings = append(result.Warnings, domain.Warning{
				Code:    "single_resource_category",
				Message: "category " + total.Category + " has one tracked resource receiving the full total; untracked same-type resources would inflate its figure",
			})
		}
	}

	sort.Slice(result.Allocations, func(i, j int) bool {
		return result.Allocations[i].ResourceID < result.Allocations[j].ResourceID
	})

	return result
}

// TotalAllocated sums the non-excluded allocation amounts.
func TotalAllocated(allocations []domain.AllocatedCost) float64 {
	var total float64
	for _, a := range allocations {
		if !a.Excluded {
			total += a.Amount
		}
	}
	return total
}
