// Package cloudwatch implements the hourly utilization source over
// CloudWatch metrics. Detailed per-instance CPU data is retained for roughly
// 15 days; requests are clamped to that horizon.
package cloudwatch

import (
	"context"
	"fmt"
	"time"

	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/models/domain"
	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/services/sources"
	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/store/cache"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

const sourceName = "cloudwatch"

type MetricsAPI interface {
	GetMetricData(ctx context.Context, params *cloudwatch.GetMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.GetMetricDataOutput, error)
}

type source struct {
	client MetricsAPI
	store  cache.Store
	ttl    time.Duration
}

func New(client MetricsAPI, store cache.Store, ttl time.Duration) sources.UtilizationSource {
	if ttl == 0 {
		ttl = sources.TTLUtilization
	}
	return &source{client: client, store: store, ttl: ttl}
}

func NewFromConfig(cfg aws.Config, store cache.Store) sources.UtilizationSource {
	return New(cloudwatch.NewFromConfig(cfg), store, sources.TTLUtilization)
}

// GetHourlyUtilization returns hour-aligned average CPUUtilization samples
// for one instance. Hours without a sample are simply missing from the
// result; the aggregator decides whether interpolation is permitted. A
// series served past its TTL after a fetch failure reports stale.
func (s *source) GetHourlyUtilization(
	ctx context.Context,
	resourceID string,
	period domain.TimePeriod,
) ([]sources.HourlySample, bool, error) {
	clamped := clampToRetention(period)

	key := fmt.Sprintf("cpu_%s_%d_%d", resourceID, clamped.Start.Unix(), clamped.End.Unix())
	samples, res, err := cache.GetOrFetchAs(ctx, s.store, sourceName, key, s.ttl, cache.ClassSecondary,
		func(ctx context.Context) ([]sources.HourlySample, error) {
			return s.fetchSamples(ctx, resourceID, clamped)
		})
	return samples, res.Stale, err
}

func (s *source) fetchSamples(
	ctx context.Context,
	resourceID string,
	period domain.TimePeriod,
) ([]sources.HourlySample, error) {
	input := &cloudwatch.GetMetricDataInput{
		StartTime: aws.Time(period.Start),
		EndTime:   aws.Time(period.End),
		MetricDataQueries: []types.MetricDataQuery{
			{
				Id: aws.String("cpu"),
				MetricStat: &types.MetricStat{
					Metric: &types.Metric{
						Namespace:  aws.String("AWS/EC2"),
						MetricName: aws.String("CPUUtilization"),
						Dimensions: []types.Dimension{
							{Name: aws.String("InstanceId"), Value: aws.String(resourceID)},
						},
					},
					Period: aws.Int32(3600),
					Stat:   aws.String("Average"),
				},
			},
		},
	}

	result, err := s.client.GetMetricData(ctx, input)
	if err != nil {
		return nil, domain.NewSourceError(domain.ErrSourceUnavailable, sourceName,
			fmt.Errorf("GetMetricData for %s: %w", resourceID, err))
	}

	var samples []sources.HourlySample
	for _, r := range result.MetricDataResults {
		if len(r.Timestamps) != len(r.Values) {
			return nil, domain.NewSourceError(domain.ErrMalformedResponse, sourceName,
				fmt.Errorf("timestamp/value length mismatch for %s", resourceID))
		}
		for i, ts := range r.Timestamps {
			samples = append(samples, sources.HourlySample{
				Hour:  ts.UTC().Truncate(time.Hour),
				Value: r.Values[i],
			})
		}
	}
	return samples, nil
}

func clampToRetention(period domain.TimePeriod) domain.TimePeriod {
	horizon := time.Now().UTC().AddDate(0, 0, -sources.UtilizationRetentionDays)
	if period.Start.Before(horizon) {
		period.Start = horizon
	}
	return period
}
