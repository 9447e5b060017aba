package adapters

import (
	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/models/api"
	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/models/domain"
)

func MapAnalysisReportDomainToApi(report *domain.AnalysisReport) api.AnalysisReport {
	out := api.AnalysisReport{
		RunID:             report.RunID,
		PeriodStart:       report.Period.Start,
		PeriodEnd:         report.Period.End,
		TotalRuntimeHours: report.TotalRuntimeHours,
		TotalCost:         report.TotalCost,
		Currency:          report.Currency,
		TotalCO2Kg:        make(map[string]float64, len(report.TotalCO2Kg)),
		Warnings:          mapWarnings(report.Warnings),
	}

	for method, kg := range report.TotalCO2Kg {
		out.TotalCO2Kg[string(method)] = kg
	}
	for _, rr := range report.Resources {
		out.Resources = append(out.Resources, MapResourceReportDomainToApi(rr))
	}
	if report.Validation != nil {
		out.Validation = mapValidation(*report.Validation)
	}

	return out
}

func MapResourceReportDomainToApi(rr domain.ResourceReport) api.ResourceReport {
	out := api.ResourceReport{
		ID:           rr.Resource.ID,
		InstanceType: rr.Resource.InstanceType,
		Region:       rr.Resource.Region,
		RuntimeHours: rr.RuntimeHours,
		Confidence:   string(rr.Confidence),
		Warnings:     mapWarnings(rr.Warnings),
	}

	for _, iv := range rr.Intervals {
		out.Intervals = append(out.Intervals, api.RuntimeInterval{
			Start:         iv.Start,
			End:           iv.End,
			DurationHours: iv.DurationHours,
			Confidence:    string(iv.Confidence),
		})
	}
	for _, est := range rr.Emissions {
		out.Emissions = append(out.Emissions, api.EmissionEstimate{
			Method:    string(est.Method),
			CO2Kg:     est.CO2Kg,
			Quality:   string(est.Quality),
			Projected: est.Projected,
		})
	}
	if rr.AllocatedCost != nil {
		out.AllocatedCost = &api.AllocatedCost{
			Category:     rr.AllocatedCost.Category,
			Amount:       rr.AllocatedCost.Amount,
			Currency:     rr.AllocatedCost.Currency,
			RuntimeShare: rr.AllocatedCost.RuntimeShare,
			Excluded:     rr.AllocatedCost.Excluded,
		}
	}

	return out
}

// mapValidation withholds the deviation factor when the window was too
// short; an ineligible result renders the factor as null.
func mapValidation(v domain.ValidationResult) *api.ValidationResult {
	out := &api.ValidationResult{
		AggregateReported:   v.AggregateReported,
		AggregateCalculated: v.AggregateCalculated,
		Eligible:            v.Eligible,
	}
	if v.Eligible {
		factor := v.DeviationFactor
		out.DeviationFactor = &factor
	}
	return out
}

func mapWarnings(warnings []domain.Warning) []string {
	var out []string
	for _, w := range warnings {
		out = append(out, w.Message)
	}
	return out
}
