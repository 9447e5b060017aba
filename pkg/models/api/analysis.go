package api

import "time"

// Nullable fields render as JSON null when the backing value could not be
// derived from source data; the warnings explain why.

type RuntimeInterval struct {
	Start         time.Time  `json:"start"`
	End           *time.Time `json:"end"`
	DurationHours float64    `json:"duration_hours"`
	Confidence    string     `json:"confidence"`
}

type EmissionEstimate struct {
	Method    string  `json:"method"`
	CO2Kg     float64 `json:"co2_kg"`
	Quality   string  `json:"data_quality"`
	Projected bool    `json:"projected,omitempty"`
}

type AllocatedCost struct {
	Category     string  `json:"category"`
	Amount       float64 `json:"amount"`
	Currency     string  `json:"currency"`
	RuntimeShare float64 `json:"runtime_share"`
	Excluded     bool    `json:"excluded,omitempty"`
}

type ResourceReport struct {
	ID            string             `json:"id"`
	InstanceType  string             `json:"instance_type"`
	Region        string             `json:"region"`
	RuntimeHours  *float64           `json:"runtime_hours"`
	Confidence    string             `json:"confidence,omitempty"`
	Intervals     []RuntimeInterval  `json:"intervals,omitempty"`
	AllocatedCost *AllocatedCost     `json:"allocated_cost"`
	Emissions     []EmissionEstimate `json:"emissions"`
	Warnings      []string           `json:"warnings,omitempty"`
}

type ValidationResult struct {
	AggregateReported   float64  `json:"aggregate_reported"`
	AggregateCalculated float64  `json:"aggregate_calculated"`
	DeviationFactor     *float64 `json:"deviation_factor"`
	Eligible            bool     `json:"eligible"`
}

type AnalysisReport struct {
	RunID             string             `json:"run_id"`
	PeriodStart       time.Time          `json:"period_start"`
	PeriodEnd         time.Time          `json:"period_end"`
	Resources         []ResourceReport   `json:"resources"`
	TotalRuntimeHours float64            `json:"total_runtime_hours"`
	TotalCost         float64            `json:"total_cost"`
	Currency          string             `json:"currency"`
	TotalCO2Kg        map[string]float64 `json:"total_co2_kg"`
	Validation        *ValidationResult  `json:"validation,omitempty"`
	Warnings          []string           `json:"warnings,omitempty"`
}
