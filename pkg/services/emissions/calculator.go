// Package emissions computes per-resource CO2 estimates with two
// independent methods kept side by side for cross-validation.
package emissions

import (
	"fmt"
	"time"

	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/models/domain"
	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/services/lifecycle"
	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/services/metrics"
)

const (
	// IdleFraction is the share of peak power a running instance draws at
	// 0% CPU, per the energy-proportional computing model.
	IdleFraction = 0.3

	// WattsPerKilowatt converts effective watts to kW for the gCO2/kWh
	// intensity figures.
	WattsPerKilowatt = 1000.0

	// GramsPerKilogram converts summed gCO2 to the reported kg figures.
	GramsPerKilogram = 1000.0
)

// Inputs carries everything one resource's estimate needs. All of it comes
// from real source data; the calculator never substitutes defaults.
//
// MetricsWindow is the span the hourly series covers (bounded by the carbon
// source's short history); AnalysisWindow is the full runtime window. When
// the analysis window is longer, the hourly-precise total is extrapolated by
// the day ratio and labeled a projection.
type Inputs struct {
	Resource       domain.Resource
	Profile        domain.PowerProfile
	Intervals      []domain.RuntimeInterval
	Series         metrics.HourlySeries
	MetricsWindow  domain.TimePeriod
	AnalysisWindow domain.TimePeriod
}

// Calculate returns both estimates for a resource: average-based first (the
// primary figure) and hourly-precise second (the validation signal). When
// the inputs cannot support a method, that method is omitted and a warning
// explains why; nothing is fabricated.
func Calculate(in Inputs) ([]domain.EmissionEstimate, []domain.Warning) {
	var (
		estimates []domain.EmissionEstimate
		warnings  []domain.Warning
	)

	quality := overallQuality(in)

	if est, warn := averageBased(in, quality); warn != nil {
		warnings = append(warnings, *warn)
	} else {
		estimates = append(estimates, est)
	}

	if est, warn := hourlyPrecise(in, quality); warn != nil {
		warnings = append(warnings, *warn)
	} else {
		estimates = append(estimates, est)
	}

	return estimates, warnings
}

// EffectivePowerWatts applies the energy-proportional model: idle draw plus
// the CPU-proportional share of the remaining headroom.
func EffectivePowerWatts(peakWatts, cpuPct float64) float64 {
	return peakWatts * (IdleFraction + (1-IdleFraction)*cpuPct/100)
}

// averageBased is Method B: average power times average intensity times
// total runtime. It works for any runtime window and is the displayed figure.
func averageBased(in Inputs, quality domain.DataQuality) (domain.EmissionEstimate, *domain.Warning) {
	runtimeHours := lifecycle.TotalRuntimeHours(in.Intervals)
	if runtimeHours == 0 {
		return domain.EmissionEstimate{}, &domain.Warning{
			Code:    "no_runtime",
			Message: fmt.Sprintf("%s: no measured runtime in window, emissions not computed", in.Resource.ID),
		}
	}

	avgCPU, cpuOK := measuredAverage(in.Series.Buckets, cpuOf)
	avgIntensity, intOK := measuredAverage(in.Series.Buckets, intensityOf)
	if !cpuOK || !intOK {
		return domain.EmissionEstimate{}, &domain.Warning{
			Code:    "missing_samples",
			Message: fmt.Sprintf("%s: no measured CPU or intensity samples, average-based emissions not computed", in.Resource.ID),
		}
	}

	avgPowerW := EffectivePowerWatts(in.Profile.MaxWatts, avgCPU)
	co2Grams := (avgPowerW / WattsPerKilowatt) * avgIntensity * runtimeHours

	return domain.EmissionEstimate{
		ResourceID: in.Resource.ID,
		Method:     domain.MethodAverageBased,
		CO2Kg:      co2Grams / GramsPerKilogram,
		Quality:    quality,
		Period:     in.AnalysisWindow,
	}, nil
}

// hourlyPrecise is Method A: per-hour power times per-hour intensity times
// the fraction of that hour the resource actually ran. Interpolated buckets
// are excluded; only measured pairs contribute.
func hourlyPrecise(in Inputs, quality domain.DataQuality) (domain.EmissionEstimate, *domain.Warning) {
	var co2Grams float64
	hoursUsed := 0

	for _, bucket := range in.Series.Buckets {
		if bucket.Interpolated || bucket.CPUPct == nil || bucket.CarbonIntensity == nil {
			continue
		}
		fraction := runtimeFraction(in.Intervals, bucket.Hour)
		if fraction == 0 {
			continue
		}
		powerW := EffectivePowerWatts(in.Profile.MaxWatts, *bucket.CPUPct)
		co2Grams += (powerW / WattsPerKilowatt) * *bucket.CarbonIntensity * fraction
		hoursUsed++
	}

	if hoursUsed == 0 {
		return domain.EmissionEstimate{}, &domain.Warning{
			Code:    "no_hourly_pairs",
			Message: fmt.Sprintf("%s: no hour with measured CPU and intensity during runtime, hourly-precise emissions not computed", in.Resource.ID),
		}
	}

	estimate := domain.EmissionEstimate{
		ResourceID: in.Resource.ID,
		Method:     domain.MethodHourlyPrecise,
		CO2Kg:      co2Grams / GramsPerKilogram,
		Quality:    quality,
		Period:     in.MetricsWindow,
	}

	metricsDays := in.MetricsWindow.Days()
	if analysisDays := in.AnalysisWindow.Days(); metricsDays > 0 && analysisDays > metricsDays {
		estimate.CO2Kg *= analysisDays / metricsDays
		estimate.Period = in.AnalysisWindow
		estimate.Projected = true
	}

	return estimate, nil
}

// overallQuality is the lower of the runtime confidence tier and the hourly
// coverage tier.
func overallQuality(in Inputs) domain.DataQuality {
	runtimeTier := domain.QualityHigh
	if lifecycle.OverallConfidence(in.Intervals) == domain.ConfidenceAssumedContinuous {
		runtimeTier = domain.QualityLow
	}
	return minQuality(runtimeTier, in.Series.Quality)
}

var qualityRank = map[domain.DataQuality]int{
	domain.QualityHigh:   2,
	domain.QualityMedium: 1,
	domain.QualityLow:    0,
}

func minQuality(a, b domain.DataQuality) domain.DataQuality {
	if qualityRank[a] < qualityRank[b] {
		return a
	}
	return b
}

// runtimeFraction is the share of the hour starting at hour during which the
// resource was running, per the reconstructed intervals.
func runtimeFraction(intervals []domain.RuntimeInterval, hour time.Time) float64 {
	hourEnd := hour.Add(time.Hour)

	var overlap time.Duration
	for _, iv := range intervals {
		start := iv.Start
		end := hourEnd
		if iv.End != nil && iv.End.Before(hourEnd) {
			end = *iv.End
		}
		if start.Before(hour) {
			start = hour
		}
		if end.After(start) {
			overlap += end.Sub(start)
		}
	}

	fraction := overlap.Hours()
	if fraction > 1 {
		fraction = 1
	}
	return fraction
}

func cpuOf(b domain.HourlyBucket) *float64       { return b.CPUPct }
func intensityOf(b domain.HourlyBucket) *float64 { return b.CarbonIntensity }

func measuredAverage(buckets []domain.HourlyBucket, pick func(domain.HourlyBucket) *float64) (float64, bool) {
	// Interpolated fills equal the same run's measured average, so including
	// them leaves the mean unchanged; a dimension with no measured sample
	// at all is still nil in every bucket and reports absent here.
	var sum float64
	count := 0
	for _, b := range buckets {
		if v := pick(b); v != nil {
			sum += *v
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}
