package lifecycle

import (
	"context"
	"time"

	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/models/domain"
	"github.com/rs/zerolog"
)

// ReconstructIntervals walks an ordered event list, opening an interval on
// Created/Started and closing it on the next Stopped/Terminated. Every
// interval is clipped to its intersection with the analysis window;
// intervals fully outside the window are dropped.
//
// Anomalies (a stop without a preceding start, a second start before a
// matching stop) are logged and skipped, never turned into intervals. When
// no interval survives inside the window but the resource is observed
// running, a single window-spanning interval with assumed_continuous
// confidence is the only synthesized output. That covers both an empty
// event list and a lookback whose events all predate the window.
func ReconstructIntervals(
	ctx context.Context,
	resourceID string,
	events []domain.LifecycleEvent,
	running bool,
	window domain.TimePeriod,
) []domain.RuntimeInterval {
	logger := zerolog.Ctx(ctx)

	var (
		intervals []domain.RuntimeInterval
		openStart *time.Time
	)

	for _, event := range events {
		switch event.Type {
		case domain.EventCreated, domain.EventStarted:
			if openStart != nil {
				logger.Warn().
					Str("resource_id", resourceID).
					Time("timestamp", event.Timestamp).
					Str("event_type", string(event.Type)).
					Msg("start event while interval already open, ignoring duplicate")
				continue
			}
			ts := event.Timestamp
			openStart = &ts

		case domain.EventStopped, domain.EventTerminated:
			if openStart == nil {
				// Likely the matching start predates the lookback horizon.
				logger.Warn().
					Str("resource_id", resourceID).
					Time("timestamp", event.Timestamp).
					Str("event_type", string(event.Type)).
					Msg("stop event without open interval, ignoring")
				continue
			}
			if iv, ok := clip(resourceID, *openStart, event.Timestamp, domain.ConfidenceMeasured, window); ok {
				intervals = append(intervals, iv)
			}
			openStart = nil
		}
	}

	if openStart != nil {
		confidence := domain.ConfidenceMeasured
		if !running {
			// The stop that should close this interval was never observed.
			logger.Warn().
				Str("resource_id", resourceID).
				Time("start", *openStart).
				Msg("trailing open interval on a non-running resource, closing at window end with lowered confidence")
			confidence = domain.ConfidenceAssumedContinuous
		}
		if iv, ok := clip(resourceID, *openStart, window.End, confidence, window); ok {
			if running {
				iv.End = nil // still ongoing
			}
			intervals = append(intervals, iv)
		}
	}

	if len(intervals) == 0 && running {
		// Ongoing intervals carry a nil end; duration is still clipped to
		// the window.
		return []domain.RuntimeInterval{{
			ResourceID:    resourceID,
			Start:         window.Start,
			End:           nil,
			DurationHours: window.Hours(),
			Confidence:    domain.ConfidenceAssumedContinuous,
		}}
	}

	return intervals
}

// clip intersects [start, end) with the window. Returns false when the
// interval lies fully outside the window.
func clip(
	resourceID string,
	start, end time.Time,
	confidence domain.Confidence,
	window domain.TimePeriod,
) (domain.RuntimeInterval, bool) {
	if start.Before(window.Start) {
		start = window.Start
	}
	if end.After(window.End) {
		end = window.End
	}
	if !end.After(start) {
		return domain.RuntimeInterval{}, false
	}

	endCopy := end
	return domain.RuntimeInterval{
		ResourceID:    resourceID,
		Start:         start,
		End:           &endCopy,
		DurationHours: end.Sub(start).Hours(),
		Confidence:    confidence,
	}, true
}

// TotalRuntimeHours sums the clipped interval durations for one resource.
func TotalRuntimeHours(intervals []domain.RuntimeInterval) float64 {
	var total float64
	for _, iv := range intervals {
		total += iv.DurationHours
	}
	return total
}

// OverallConfidence is the lowest confidence across a resource's intervals.
func OverallConfidence(intervals []domain.RuntimeInterval) domain.Confidence {
	for _, iv := range intervals {
		if iv.Confidence == domain.ConfidenceAssumedContinuous {
			return domain.ConfidenceAssumedContinuous
		}
	}
	return domain.ConfidenceMeasured
}
