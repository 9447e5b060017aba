// Package electricitymaps implements the grid carbon-intensity source over
// the ElectricityMaps HTTP API. History lookback is limited upstream to
// roughly the last 24-48 hours.
package electricitymaps

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/models/domain"
	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/services/sources"
	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/store/cache"
	json "github.com/goccy/go-json"
	"github.com/hashicorp/go-retryablehttp"
)

const (
	sourceName     = "electricity_maps"
	defaultBaseURL = "https://api.electricitymap.org/v3"

	requestTimeout = 10 * time.Second
	retryMax       = 2
)

type Config struct {
	BaseURL string
	Token   string
}

type source struct {
	baseURL    string
	token      string
	httpClient *http.Client
	store      cache.Store
	currentTTL time.Duration
	historyTTL time.Duration
}

func New(cfg Config, store cache.Store) sources.CarbonSource {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}

	// Intensity reads are idempotent GETs; a small bounded retry with the
	// client-level timeout is the only recovery attempted.
	rc := retryablehttp.NewClient()
	rc.RetryMax = retryMax
	rc.HTTPClient.Timeout = requestTimeout
	rc.Logger = nil

	return &source{
		baseURL:    cfg.BaseURL,
		token:      cfg.Token,
		httpClient: rc.StandardClient(),
		store:      store,
		currentTTL: sources.TTLCarbonCurrent,
		historyTTL: sources.TTLCarbonHistory,
	}
}

type intensityResponse struct {
	Zone            string   `json:"zone"`
	CarbonIntensity *float64 `json:"carbonIntensity"`
	Datetime        string   `json:"datetime"`
}

type historyResponse struct {
	History []intensityResponse `json:"history"`
}

func (s *source) Current(ctx context.Context, zone string) (float64, bool, error) {
	value, res, err := cache.GetOrFetchAs(ctx, s.store, sourceName, "current_"+zone, s.currentTTL, cache.ClassSecondary,
		func(ctx context.Context) (float64, error) {
			var resp intensityResponse
			if err := s.get(ctx, "/carbon-intensity/latest", zone, &resp); err != nil {
				return 0, err
			}
			if resp.CarbonIntensity == nil {
				return 0, domain.NewSourceError(domain.ErrMalformedResponse, sourceName,
					fmt.Errorf("latest intensity for %q missing carbonIntensity", zone))
			}
			return *resp.CarbonIntensity, nil
		})
	return value, res.Stale, err
}

func (s *source) History(ctx context.Context, zone string, period domain.TimePeriod) ([]sources.HourlySample, bool, error) {
	clamped := clampToHistoryHorizon(period)
	key := fmt.Sprintf("history_%s_%d", zone, clamped.Start.Truncate(time.Hour).Unix())

	samples, res, err := cache.GetOrFetchAs(ctx, s.store, sourceName, key, s.historyTTL, cache.ClassSecondary,
		func(ctx context.Context) ([]sources.HourlySample, error) {
			return s.fetchHistory(ctx, zone, clamped)
		})
	return samples, res.Stale, err
}

// clampToHistoryHorizon bounds the request to the upstream history window;
// points beyond it would come back empty, not as an error.
func clampToHistoryHorizon(period domain.TimePeriod) domain.TimePeriod {
	horizon := period.End.Add(-sources.CarbonHistoryMaxHours * time.Hour)
	if period.Start.Before(horizon) {
		period.Start = horizon
	}
	return period
}

func (s *source) fetchHistory(ctx context.Context, zone string, period domain.TimePeriod) ([]sources.HourlySample, error) {
	var resp historyResponse
	if err := s.get(ctx, "/carbon-intensity/history", zone, &resp); err != nil {
		return nil, err
	}

	var samples []sources.HourlySample
	for _, point := range resp.History {
		if point.CarbonIntensity == nil {
			// A sparse history point is a gap, not a zero.
			continue
		}
		ts, err := time.Parse(time.RFC3339, point.Datetime)
		if err != nil {
			return nil, domain.NewSourceError(domain.ErrMalformedResponse, sourceName,
				fmt.Errorf("unparseable datetime %q: %w", point.Datetime, err))
		}
		hour := ts.UTC().Truncate(time.Hour)
		if hour.Before(period.Start) || !hour.Before(period.End) {
			continue
		}
		samples = append(samples, sources.HourlySample{Hour: hour, Value: *point.CarbonIntensity})
	}
	return samples, nil
}

func (s *source) get(ctx context.Context, path, zone string, out any) error {
	if s.token == "" {
		return domain.NewSourceError(domain.ErrMissingCredential, sourceName,
			fmt.Errorf("no ElectricityMaps token configured"))
	}

	u := fmt.Sprintf("%s%s?zone=%s", s.baseURL, path, url.QueryEscape(zone))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("auth-token", s.token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return domain.NewSourceError(domain.ErrSourceUnavailable, sourceName, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return domain.NewSourceError(domain.ErrMissingCredential, sourceName,
			fmt.Errorf("%s returned %d", path, resp.StatusCode))
	case resp.StatusCode == http.StatusTooManyRequests:
		return domain.NewSourceError(domain.ErrRateLimited, sourceName,
			fmt.Errorf("%s returned 429", path))
	case resp.StatusCode != http.StatusOK:
		return domain.NewSourceError(domain.ErrSourceUnavailable, sourceName,
			fmt.Errorf("%s returned %d", path, resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.NewSourceError(domain.ErrSourceUnavailable, sourceName, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return domain.NewSourceError(domain.ErrMalformedResponse, sourceName,
			fmt.Errorf("decoding %s: %w", path, err))
	}
	return nil
}
