// Package metrics joins utilization and carbon-intensity samples into
// per-hour buckets with coverage scoring.
package metrics

import (
	"time"

	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/models/domain"
	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/services/sources"
)

// Coverage thresholds for the data-quality tiers. 20 of 24 hours is high,
// half is medium.
const (
	HighCoverage   = 0.83
	MediumCoverage = 0.50
)

// HourlySeries is the aggregation result for one resource and window.
type HourlySeries struct {
	Buckets  []domain.HourlyBucket
	Coverage float64
	Quality  domain.DataQuality
}

// Aggregate builds one bucket per hour of the window, joining CPU and
// intensity samples on the hour boundary. Buckets missing a value are filled
// with the average of the run's other measured buckets and flagged
// interpolated; this is allowed only because the buckets are descriptive
// inputs, not the final cost or emissions figures. Coverage counts buckets
// with at least one measured value.
func Aggregate(
	window domain.TimePeriod,
	cpu []sources.HourlySample,
	intensity []sources.HourlySample,
) HourlySeries {
	cpuByHour := indexByHour(cpu)
	intensityByHour := indexByHour(intensity)

	start := window.Start.UTC().Truncate(time.Hour)
	var buckets []domain.HourlyBucket
	for hour := start; hour.Before(window.End); hour = hour.Add(time.Hour) {
		bucket := domain.HourlyBucket{Hour: hour}
		if v, ok := cpuByHour[hour]; ok {
			value := v
			bucket.CPUPct = &value
		}
		if v, ok := intensityByHour[hour]; ok {
			value := v
			bucket.CarbonIntensity = &value
		}
		buckets = append(buckets, bucket)
	}

	covered := 0
	for _, b := range buckets {
		if b.CPUPct != nil || b.CarbonIntensity != nil {
			covered++
		}
	}

	interpolate(buckets)

	var coverage float64
	if len(buckets) > 0 {
		coverage = float64(covered) / float64(len(buckets))
	}

	return HourlySeries{
		Buckets:  buckets,
		Coverage: coverage,
		Quality:  QualityForCoverage(coverage),
	}
}

// interpolate fills gaps from the same run's measured buckets. A series with
// no measured value for a dimension stays absent in that dimension.
func interpolate(buckets []domain.HourlyBucket) {
	cpuAvg, cpuOK := measuredAverage(buckets, func(b domain.HourlyBucket) *float64 { return b.CPUPct })
	intAvg, intOK := measuredAverage(buckets, func(b domain.HourlyBucket) *float64 { return b.CarbonIntensity })

	for i := range buckets {
		if buckets[i].CPUPct == nil && cpuOK {
			v := cpuAvg
			buckets[i].CPUPct = &v
			buckets[i].Interpolated = true
		}
		if buckets[i].CarbonIntensity == nil && intOK {
			v := intAvg
			buckets[i].CarbonIntensity = &v
			buckets[i].Interpolated = true
		}
	}
}

func measuredAverage(buckets []domain.HourlyBucket, pick func(domain.HourlyBucket) *float64) (float64, bool) {
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

func QualityForCoverage(coverage float64) domain.DataQuality {
	switch {
	case coverage >= HighCoverage:
		return domain.QualityHigh
	case coverage >= MediumCoverage:
		return domain.QualityMedium
	default:
		return domain.QualityLow
	}
}

func indexByHour(samples []sources.HourlySample) map[time.Time]float64 {
	byHour := make(map[time.Time]float64, len(samples))
	for _, s := range samples {
		byHour[s.Hour.UTC().Truncate(time.Hour)] = s.Value
	}
	return byHour
}
