package allocation

import (
	"context"
	"testing"
	"time"

	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/models/domain"
	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/services/sources"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocate(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	period := domain.TimePeriod{Start: t0, End: t0.Add(7 * 24 * time.Hour)}

	resource := func(id, category string) domain.Resource {
		return domain.Resource{ID: id, Category: category, InstanceType: category}
	}

	t.Run("splits a category total by runtime share", func(t *testing.T) {
		totals := []sources.CategoryTotal{{Category: "t3.medium", Amount: 40, Currency: "USD"}}
		runtimes := []ResourceRuntime{
			{Resource: resource("i-0aaa", "t3.medium"), RuntimeHours: 10},
			{Resource: resource("i-0bbb", "t3.medium"), RuntimeHours: 30},
		}

		result := Allocate(context.Background(), totals, runtimes, period)

		require.Len(t, result.Allocations, 2)
		assert.Empty(t, result.Warnings)

		assert.Equal(t, "i-0aaa", result.Allocations[0].ResourceID)
		assert.InDelta(t, 10.0, result.Allocations[0].Amount, 1e-9)
		assert.InDelta(t, 30.0, result.Allocations[1].Amount, 1e-9)
		assert.Equal(t, "USD", result.Allocations[0].Currency)

		var shareSum float64
		for _, a := range result.Allocations {
			shareSum += a.RuntimeShare
		}
		assert.InDelta(t, 1.0, shareSum, 1e-6)
	})

	t.Run("shares sum to one across many resources", func(t *testing.T) {
		totals := []sources.CategoryTotal{{Category: "m5.large", Amount: 123.45, Currency: "USD"}}
		runtimes := []ResourceRuntime{
			{Resource: resource("i-0aaa", "m5.large"), RuntimeHours: 1.5},
			{Resource: resource("i-0bbb", "m5.large"), RuntimeHours: 7.25},
			{Resource: resource("i-0ccc", "m5.large"), RuntimeHours: 0.333},
			{Resource: resource("i-0ddd", "m5.large"), RuntimeHours: 168},
		}

		result := Allocate(context.Background(), totals, runtimes, period)

		var shareSum, amountSum float64
		for _, a := range result.Allocations {
			shareSum += a.RuntimeShare
			amountSum += a.Amount
		}
		assert.InDelta(t, 1.0, shareSum, 1e-6)
		assert.InDelta(t, 123.45, amountSum, 1e-6)
	})

	t.Run("zero-runtime category is excluded with zero amounts", func(t *testing.T) {
		totals := []sources.CategoryTotal{{Category: "c5.xlarge", Amount: 12, Currency: "USD"}}
		runtimes := []ResourceRuntime{
			{Resource: resource("i-0aaa", "c5.xlarge"), RuntimeHours: 0},
			{Resource: resource("i-0bbb", "c5.xlarge"), RuntimeHours: 0},
		}

		result := Allocate(context.Background(), totals, runtimes, period)

		require.Len(t, result.Allocations, 2)
		for _, a := range result.Allocations {
			assert.True(t, a.Excluded)
			assert.Zero(t, a.Amount)
			assert.Zero(t, a.RuntimeShare)
		}
		require.Len(t, result.Warnings, 1)
		assert.Equal(t, "excluded_no_runtime", result.Warnings[0].Code)
	})

	t.Run("billed category without tracked resources is left unallocated", func(t *testing.T) {
		totals := []sources.CategoryTotal{{Category: "r5.large", Amount: 55, Currency: "USD"}}

		result := Allocate(context.Background(), totals, nil, period)

		assert.Empty(t, result.Allocations)
		require.Len(t, result.Warnings, 1)
		assert.Equal(t, "unallocated_category", result.Warnings[0].Code)
	})

	t.Run("single-resource category receives the full total with a caveat", func(t *testing.T) {
		totals := []sources.CategoryTotal{{Category: "t3.micro", Amount: 3.5, Currency: "USD"}}
		runtimes := []ResourceRuntime{
			{Resource: resource("i-0aaa", "t3.micro"), RuntimeHours: 42},
		}

		result := Allocate(context.Background(), totals, runtimes, period)

		require.Len(t, result.Allocations, 1)
		assert.InDelta(t, 3.5, result.Allocations[0].Amount, 1e-9)
		assert.InDelta(t, 1.0, result.Allocations[0].RuntimeShare, 1e-9)
		require.Len(t, result.Warnings, 1)
		assert.Equal(t, "single_resource_category", result.Warnings[0].Code)
	})

	t.Run("categories allocate independently", func(t *testing.T) {
		totals := []sources.CategoryTotal{
			{Category: "t3.medium", Amount: 20, Currency: "USD"},
			{Category: "m5.large", Amount: 80, Currency: "USD"},
		}
		runtimes := []ResourceRuntime{
			{Resource: resource("i-0aaa", "t3.medium"), RuntimeHours: 5},
			{Resource: resource("i-0bbb", "t3.medium"), RuntimeHours: 5},
			{Resource: resource("i-0ccc", "m5.large"), RuntimeHours: 16},
			{Resource: resource("i-0ddd", "m5.large"), RuntimeHours: 48},
		}

		result := Allocate(context.Background(), totals, runtimes, period)

		require.Len(t, result.Allocations, 4)
		byID := make(map[string]domain.AllocatedCost)
		for _, a := range result.Allocations {
			byID[a.ResourceID] = a
		}
		assert.InDelta(t, 10, byID["i-0aaa"].Amount, 1e-9)
		assert.InDelta(t, 20, byID["i-0ccc"].Amount, 1e-9)
		assert.InDelta(t, 60, byID["i-0ddd"].Amount, 1e-9)
	})
}

func TestTotalAllocated(t *testing.T) {
	allocations := []domain.AllocatedCost{
		{ResourceID: "i-0aaa", Amount: 10},
		{ResourceID: "i-0bbb", Amount: 30},
		{ResourceID: "i-0ccc", Amount: 99, Excluded: true},
	}

	assert.InDelta(t, 40, TotalAllocated(allocations), 1e-9)
}
