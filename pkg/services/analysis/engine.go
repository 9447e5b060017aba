// Package analysis orchestrates one batch run: concurrent source fetches
// through a bounded worker pool, then a deterministic single-threaded
// pipeline from events to the final report.
package analysis

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/models/domain"
	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/services/allocation"
	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/services/emissions"
	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/services/lifecycle"
	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/services/metrics"
	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/services/sources"
	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/services/validation"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type Config struct {
	// WindowDays is the runtime/cost analysis window.
	WindowDays int
	// LookbackDays bounds the audit event fetch; the audit source retains
	// roughly 90 days.
	LookbackDays int
	// MetricsHours bounds the hourly sample window; the carbon source only
	// serves the last day or two.
	MetricsHours int
	// ValidationMinDays gates the deviation factor.
	ValidationMinDays float64
	// Workers bounds the fetch fan-out.
	Workers int
}

func (c Config) withDefaults() Config {
	if c.WindowDays <= 0 {
		c.WindowDays = 7
	}
	if c.LookbackDays <= 0 {
		c.LookbackDays = 30
	}
	if c.MetricsHours <= 0 {
		c.MetricsHours = 24
	}
	if c.ValidationMinDays <= 0 {
		c.ValidationMinDays = validation.DefaultMinWindowDays
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	return c
}

type Engine struct {
	sources    sources.Set
	cfg        Config
	reconciler *validation.Reconciler
}

func NewEngine(set sources.Set, cfg Config) *Engine {
	cfg = cfg.withDefaults()
	return &Engine{
		sources:    set,
		cfg:        cfg,
		reconciler: validation.NewReconciler(cfg.ValidationMinDays),
	}
}

// resourceFetch holds one resource's raw source responses. Each slot is
// written by exactly one goroutine.
type resourceFetch struct {
	events    []domain.LifecycleEvent
	eventsErr error
	cpu       []sources.HourlySample
	cpuStale  bool
	cpuErr    error
}

// Run executes a full analysis over the configured window ending now.
func (e *Engine) Run(ctx context.Context) (*domain.AnalysisReport, error) {
	end := time.Now().UTC().Truncate(time.Hour)
	window := domain.TimePeriod{Start: end.AddDate(0, 0, -e.cfg.WindowDays), End: end}
	return e.RunWindow(ctx, window)
}

// RunWindow executes a full analysis over an explicit window. The resource
// inventory is the only fatal dependency: without it there is nothing to
// analyze and the run reports "analysis incomplete" rather than an empty
// dashboard. Every other source failure degrades to absent values plus
// warnings.
func (e *Engine) RunWindow(ctx context.Context, window domain.TimePeriod) (*domain.AnalysisReport, error) {
	logger := zerolog.Ctx(ctx)
	runID := uuid.NewString()
	logger.Info().Str("run_id", runID).
		Time("window_start", window.Start).
		Time("window_end", window.End).
		Msg("starting analysis run")

	resources, err := e.sources.Inventory.ListResources(ctx)
	if err != nil {
		return nil, fmt.Errorf("analysis incomplete: %w", err)
	}

	lookback := domain.TimePeriod{
		Start: window.End.AddDate(0, 0, -e.cfg.LookbackDays),
		End:   window.End,
	}
	metricsWindow := domain.TimePeriod{
		Start: window.End.Add(-time.Duration(e.cfg.MetricsHours) * time.Hour),
		End:   window.End,
	}
	if metricsWindow.Start.Before(window.Start) {
		metricsWindow.Start = window.Start
	}

	fetched := e.fetch(ctx, resources, lookback, metricsWindow)

	// Everything below is single-threaded and deterministic over the
	// fetched inputs.
	report := &domain.AnalysisReport{
		RunID:      runID,
		Period:     window,
		Currency:   "USD",
		TotalCO2Kg: make(map[domain.EmissionMethod]float64),
	}

	if fetched.totalsErr != nil {
		logger.Warn().Err(fetched.totalsErr).Msg("billing totals unavailable, cost allocation skipped")
		report.Warnings = append(report.Warnings, domain.Warning{
			Code:    "billing_unavailable",
			Message: fmt.Sprintf("aggregate billing unavailable: %v", fetched.totalsErr),
		})
	}

	var runtimes []allocation.ResourceRuntime
	resourceReports := make(map[string]*domain.ResourceReport, len(resources))

	for i, resource := range resources {
		rr := e.analyzeResource(ctx, resource, fetched.perResource[i], fetched.carbonByZone, fetched.carbonStale, fetched.carbonErrs, window, metricsWindow)
		resourceReports[resource.ID] = rr

		if rr.RuntimeHours != nil {
			report.TotalRuntimeHours += *rr.RuntimeHours
			runtimes = append(runtimes, allocation.ResourceRuntime{
				Resource:     resource,
				RuntimeHours: *rr.RuntimeHours,
			})
		}
		for _, est := range rr.Emissions {
			report.TotalCO2Kg[est.Method] += est.CO2Kg
		}
	}

	if fetched.totalsErr == nil {
		allocated := allocation.Allocate(ctx, fetched.totals, runtimes, window)
		report.Warnings = append(report.Warnings, allocated.Warnings...)

		var reported float64
		for _, t := range fetched.totals {
			reported += t.Amount
			if t.Currency != "" {
				report.Currency = t.Currency
			}
		}
		for i := range allocated.Allocations {
			alloc := allocated.Allocations[i]
			if rr, ok := resourceReports[alloc.ResourceID]; ok {
				rr.AllocatedCost = &alloc
			}
			if !alloc.Excluded {
				report.TotalCost += alloc.Amount
			}
		}

		result := e.reconciler.Reconcile(window, reported, allocation.TotalAllocated(allocated.Allocations))
		report.Validation = &result
		if !result.Eligible {
			report.Warnings = append(report.Warnings, domain.Warning{
				Code:    string(domain.ErrValidationWindowTooShort),
				Message: "window too short for a meaningful cost validation, deviation factor withheld",
			})
		}
	}

	for _, resource := range resources {
		report.Resources = append(report.Resources, *resourceReports[resource.ID])
	}
	sort.Slice(report.Resources, func(i, j int) bool {
		return report.Resources[i].Resource.ID < report.Resources[j].Resource.ID
	})

	logger.Info().Str("run_id", runID).
		Int("resources", len(report.Resources)).
		Float64("total_runtime_hours", report.TotalRuntimeHours).
		Msg("analysis run complete")

	return report, nil
}

// fetchResult holds everything the fan-out pulled. Individual source
// failures live in the per-slot errors; only the slots a goroutine owns are
// written by it.
type fetchResult struct {
	totals       []sources.CategoryTotal
	totalsErr    error
	carbonByZone map[string][]sources.HourlySample
	carbonStale  map[string]bool
	carbonErrs   map[string]error
	perResource  []resourceFetch
}

// fetch pulls all external inputs concurrently through a bounded worker
// pool. Goroutines write disjoint slots, so there is no shared mutable
// state; failures are captured per slot rather than aborting the group.
func (e *Engine) fetch(
	ctx context.Context,
	resources []domain.Resource,
	lookback, metricsWindow domain.TimePeriod,
) fetchResult {
	zones := distinctZones(resources)
	carbonResults := make([]struct {
		samples []sources.HourlySample
		stale   bool
		err     error
	}, len(zones))

	out := fetchResult{
		carbonByZone: make(map[string][]sources.HourlySample, len(zones)),
		carbonStale:  make(map[string]bool, len(zones)),
		carbonErrs:   make(map[string]error, len(zones)),
		perResource:  make([]resourceFetch, len(resources)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)

	g.Go(func() error {
		out.totals, out.totalsErr = e.sources.Billing.GetCategoryTotals(gctx, lookback)
		return nil
	})

	for i, zone := range zones {
		g.Go(func() error {
			carbonResults[i].samples, carbonResults[i].stale, carbonResults[i].err =
				e.sources.Carbon.History(gctx, zone, metricsWindow)
			return nil
		})
	}

	for i, resource := range resources {
		g.Go(func() error {
			out.perResource[i].events, out.perResource[i].eventsErr =
				e.sources.Audit.GetLifecycleEvents(gctx, resource.ID, lookback)
			return nil
		})
		g.Go(func() error {
			out.perResource[i].cpu, out.perResource[i].cpuStale, out.perResource[i].cpuErr =
				e.sources.Utilization.GetHourlyUtilization(gctx, resource.ID, metricsWindow)
			return nil
		})
	}

	_ = g.Wait()

	for i, zone := range zones {
		out.carbonByZone[zone] = carbonResults[i].samples
		out.carbonStale[zone] = carbonResults[i].stale
		out.carbonErrs[zone] = carbonResults[i].err
	}

	return out
}

func (e *Engine) analyzeResource(
	ctx context.Context,
	resource domain.Resource,
	fetched resourceFetch,
	carbonByZone map[string][]sources.HourlySample,
	carbonStale map[string]bool,
	carbonErrs map[string]error,
	window, metricsWindow domain.TimePeriod,
) *domain.ResourceReport {
	logger := zerolog.Ctx(ctx)
	rr := &domain.ResourceReport{Resource: resource}

	if fetched.eventsErr != nil {
		logger.Warn().Err(fetched.eventsErr).Str("resource_id", resource.ID).
			Msg("lifecycle events unavailable, runtime absent")
		rr.Warnings = append(rr.Warnings, domain.Warning{
			Code:    string(domain.KindOf(fetched.eventsErr)),
			Message: fmt.Sprintf("lifecycle events unavailable: %v", fetched.eventsErr),
		})
		return rr
	}

	events := lifecycle.Normalize(fetched.events)
	rr.Intervals = lifecycle.ReconstructIntervals(ctx, resource.ID, events, resource.Running, window)
	rr.Confidence = lifecycle.OverallConfidence(rr.Intervals)
	runtimeHours := lifecycle.TotalRuntimeHours(rr.Intervals)
	rr.RuntimeHours = &runtimeHours

	if rr.Confidence == domain.ConfidenceAssumedContinuous {
		rr.Warnings = append(rr.Warnings, domain.Warning{
			Code:    "assumed_continuous",
			Message: "runtime assumed from current running state, no events in lookback",
		})
	}

	var cpu []sources.HourlySample
	if fetched.cpuErr != nil {
		rr.Warnings = append(rr.Warnings, domain.Warning{
			Code:    string(domain.KindOf(fetched.cpuErr)),
			Message: fmt.Sprintf("utilization unavailable: %v", fetched.cpuErr),
		})
	} else {
		cpu = fetched.cpu
		if fetched.cpuStale {
			rr.Warnings = append(rr.Warnings, domain.Warning{
				Code:    "stale_data",
				Message: "utilization served from an expired cache entry after a fetch failure",
			})
		}
	}

	var intensity []sources.HourlySample
	if err := carbonErrs[resource.Zone]; err != nil {
		rr.Warnings = append(rr.Warnings, domain.Warning{
			Code:    string(domain.KindOf(err)),
			Message: fmt.Sprintf("carbon intensity unavailable for zone %s: %v", resource.Zone, err),
		})
	} else {
		intensity = carbonByZone[resource.Zone]
		if carbonStale[resource.Zone] {
			rr.Warnings = append(rr.Warnings, domain.Warning{
				Code:    "stale_data",
				Message: fmt.Sprintf("carbon intensity for zone %s served from an expired cache entry after a fetch failure", resource.Zone),
			})
		}
	}

	series := metrics.Aggregate(metricsWindow, cpu, intensity)

	profile, err := e.sources.Power.GetPowerProfile(ctx, resource.InstanceType)
	if err != nil {
		rr.Warnings = append(rr.Warnings, domain.Warning{
			Code:    string(domain.KindOf(err)),
			Message: fmt.Sprintf("power model unavailable: %v", err),
		})
		return rr
	}

	estimates, warnings := emissions.Calculate(emissions.Inputs{
		Resource:       resource,
		Profile:        profile,
		Intervals:      rr.Intervals,
		Series:         series,
		MetricsWindow:  metricsWindow,
		AnalysisWindow: window,
	})
	rr.Emissions = estimates
	rr.Warnings = append(rr.Warnings, warnings...)

	return rr
}

func distinctZones(resources []domain.Resource) []string {
	seen := make(map[string]bool)
	var zones []string
	for _, r := range resources {
		if r.Zone != "" && !seen[r.Zone] {
			seen[r.Zone] = true
			zones = append(zones, r.Zone)
		}
	}
	sort.Strings(zones)
	return zones
}
