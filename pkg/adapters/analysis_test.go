package adapters

import (
	"testing"
	"time"

	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapAnalysisReportDomainToApi(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("eligible validation carries the deviation factor", func(t *testing.T) {
		report := &domain.AnalysisReport{
			RunID:  "run-1",
			Period: domain.TimePeriod{Start: start, End: start.Add(7 * 24 * time.Hour)},
			Validation: &domain.ValidationResult{
				AggregateReported:   120,
				AggregateCalculated: 100,
				DeviationFactor:     1.2,
				Eligible:            true,
			},
		}

		out := MapAnalysisReportDomainToApi(report)

		require.NotNil(t, out.Validation)
		require.NotNil(t, out.Validation.DeviationFactor)
		assert.InDelta(t, 1.2, *out.Validation.DeviationFactor, 1e-9)
	})

	t.Run("ineligible validation withholds the factor", func(t *testing.T) {
		report := &domain.AnalysisReport{
			Validation: &domain.ValidationResult{
				AggregateReported:   10,
				AggregateCalculated: 8,
				Eligible:            false,
			},
		}

		out := MapAnalysisReportDomainToApi(report)

		require.NotNil(t, out.Validation)
		assert.Nil(t, out.Validation.DeviationFactor)
		assert.InDelta(t, 10, out.Validation.AggregateReported, 1e-9)
	})

	t.Run("absent runtime stays nil", func(t *testing.T) {
		rr := domain.ResourceReport{
			Resource: domain.Resource{ID: "i-0aaa", InstanceType: "t3.medium", Region: "eu-central-1"},
			Warnings: []domain.Warning{{Code: "rate_limited", Message: "lifecycle events unavailable"}},
		}

		out := MapResourceReportDomainToApi(rr)

		assert.Nil(t, out.RuntimeHours)
		assert.Nil(t, out.AllocatedCost)
		require.Len(t, out.Warnings, 1)
		assert.Equal(t, "lifecycle events unavailable", out.Warnings[0])
	})
}
