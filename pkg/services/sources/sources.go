// Package sources defines the narrow contracts for the external data feeds
// the analysis engine consumes. Each source covers exactly one capability and
// is injected into the components that need it; none of them synthesize data
// on failure.
package sources

import (
	"context"
	"time"

	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/models/domain"
)

// Default TTLs per source class. Sources pass these to the cache gateway;
// config may override them.
const (
	TTLCarbonCurrent = 45 * time.Minute
	TTLCarbonHistory = 6 * time.Hour
	TTLPowerModel    = 7 * 24 * time.Hour
	TTLPricing       = 7 * 24 * time.Hour
	TTLBilling       = 3 * time.Hour
	TTLUtilization   = 2 * time.Hour
	TTLAuditEvents   = 6 * time.Hour
	TTLInventory     = 1 * time.Hour
)

// Retention limits documented by the upstream services. Requests beyond
// these horizons return no data, not errors, so callers clamp to them.
const (
	UtilizationRetentionDays = 15
	AuditRetentionDays       = 90
	CarbonHistoryMaxHours    = 48
)

// HourlySample is one hour-aligned measurement.
type HourlySample struct {
	Hour  time.Time `json:"hour"`
	Value float64   `json:"value"`
}

// CategoryTotal is the aggregate billed amount for one resource category.
// The billing source never reports per-resource figures.
type CategoryTotal struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// BillingSource reports aggregate per-category billing totals. Figures lag
// actual usage by roughly a day; the validation reconciler accounts for that.
type BillingSource interface {
	GetCategoryTotals(ctx context.Context, period domain.TimePeriod) ([]CategoryTotal, error)
}

// UtilizationSource reports hourly CPU utilization percentages per resource.
// Utilization is secondary data: it may be served past its TTL after a fetch
// failure, and stale is true then so the caller can surface it.
type UtilizationSource interface {
	GetHourlyUtilization(ctx context.Context, resourceID string, period domain.TimePeriod) (samples []HourlySample, stale bool, err error)
}

// AuditSource reports lifecycle events per resource over a bounded lookback.
type AuditSource interface {
	GetLifecycleEvents(ctx context.Context, resourceID string, lookback domain.TimePeriod) ([]domain.LifecycleEvent, error)
}

// InventorySource lists the tracked compute resources with their current
// observed state.
type InventorySource interface {
	ListResources(ctx context.Context) ([]domain.Resource, error)
}

// CarbonSource reports grid carbon intensity in gCO2/kWh for a zone.
// Intensity is secondary data; stale carries the same meaning as on
// UtilizationSource.
type CarbonSource interface {
	Current(ctx context.Context, zone string) (value float64, stale bool, err error)
	History(ctx context.Context, zone string, period domain.TimePeriod) (samples []HourlySample, stale bool, err error)
}

// PowerSource reports the static hardware power model per instance type.
// Unknown instance types are an error, never default watts.
type PowerSource interface {
	GetPowerProfile(ctx context.Context, instanceType string) (domain.PowerProfile, error)
}

// Set bundles the sources one analysis run consumes.
type Set struct {
	Billing     BillingSource
	Utilization UtilizationSource
	Audit       AuditSource
	Inventory   InventorySource
	Carbon      CarbonSource
	Power       PowerSource
}
