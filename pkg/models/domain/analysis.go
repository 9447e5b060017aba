package domain

import "time"

type EventType string

const (
	EventCreated    EventType = "Created"
	EventStarted    EventType = "Started"
	EventStopped    EventType = "Stopped"
	EventTerminated EventType = "Terminated"
)

// LifecycleEvent is a single state-change record for a compute resource,
// produced once per normalization pass. Timestamps are UTC.
type LifecycleEvent struct {
	ResourceID string
	Type       EventType
	Timestamp  time.Time
}

type Confidence string

const (
	// ConfidenceMeasured means the interval bounds come from observed events.
	ConfidenceMeasured Confidence = "measured"
	// ConfidenceAssumedContinuous means no events were observed in the window
	// but the resource is known to be running, so the full window is assumed.
	ConfidenceAssumedContinuous Confidence = "assumed_continuous"
)

// RuntimeInterval is a reconstructed contiguous active period, clipped to the
// analysis window. End is nil for an interval still open at window end.
type RuntimeInterval struct {
	ResourceID    string
	Start         time.Time
	End           *time.Time
	DurationHours float64
	Confidence    Confidence
}

// HourlyBucket joins one hour of utilization and grid-intensity samples.
// A nil value means the sample was missing from the source; interpolated
// buckets carry the same-run average and are flagged.
type HourlyBucket struct {
	Hour            time.Time
	CPUPct          *float64
	CarbonIntensity *float64 // gCO2/kWh
	Interpolated    bool
}

type DataQuality string

const (
	QualityHigh   DataQuality = "high"
	QualityMedium DataQuality = "medium"
	QualityLow    DataQuality = "low"
)

type EmissionMethod string

const (
	MethodHourlyPrecise EmissionMethod = "hourly_precise"
	MethodAverageBased  EmissionMethod = "average_based"
)

// EmissionEstimate is one CO2 figure for one resource and method.
// Projected is set when the figure was extrapolated beyond the sample window.
type EmissionEstimate struct {
	ResourceID string
	Method     EmissionMethod
	CO2Kg      float64
	Quality    DataQuality
	Period     TimePeriod
	Projected  bool
}

// AllocatedCost is a resource's share of an aggregate category total.
// RuntimeShare values across a category with nonzero runtime sum to 1.
type AllocatedCost struct {
	ResourceID   string
	Category     string
	Amount       float64
	Currency     string
	RuntimeShare float64
	Period       TimePeriod
	Excluded     bool
}

// ValidationResult compares the billing source's aggregate against the sum of
// allocated costs. Eligible is false when the window is too short for the
// comparison to mean anything; callers must not interpret the factor then.
type ValidationResult struct {
	AggregateReported   float64
	AggregateCalculated float64
	DeviationFactor     float64
	Eligible            bool
}

type TimePeriod struct {
	Start time.Time
	End   time.Time
}

func (p TimePeriod) Hours() float64 {
	return p.End.Sub(p.Start).Hours()
}

func (p TimePeriod) Days() float64 {
	return p.End.Sub(p.Start).Hours() / 24
}

// Resource identifies a tracked compute instance.
type Resource struct {
	ID           string
	Category     string // billing classification, e.g. instance type
	InstanceType string
	Region       string
	Zone         string // grid zone for carbon intensity
	Running      bool   // current observed state
}

// PowerProfile is a static hardware power model for one instance type.
type PowerProfile struct {
	InstanceType string
	MinWatts     float64
	AvgWatts     float64
	MaxWatts     float64
}

// Warning is a structured, non-fatal defect attached to a derived quantity.
type Warning struct {
	Code    string
	Message string
}

// ResourceReport is the per-resource record exposed to presentation.
// Absent quantities stay nil; the warnings explain why.
type ResourceReport struct {
	Resource      Resource
	RuntimeHours  *float64
	Confidence    Confidence
	Intervals     []RuntimeInterval
	AllocatedCost *AllocatedCost
	Emissions     []EmissionEstimate
	Warnings      []Warning
}

// AnalysisReport is the result of one full analysis run.
type AnalysisReport struct {
	RunID             string
	Period            TimePeriod
	Resources         []ResourceReport
	TotalRuntimeHours float64
	TotalCost         float64
	Currency          string
	TotalCO2Kg        map[EmissionMethod]float64
	Validation        *ValidationResult
	Warnings          []Warning
}
