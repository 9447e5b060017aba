// Package awsce implements the aggregate billing source over AWS Cost
// Explorer. Cost Explorer only reports category-level totals, with a
// reporting lag of roughly 24 hours; per-resource spend does not exist here.
package awsce

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/models/domain"
	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/services/sources"
	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/store/cache"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
)

const (
	sourceName = "aws_cost_explorer"
	ec2Service = "Amazon Elastic Compute Cloud - Compute"
	dateLayout = "2006-01-02"
)

type CostExplorerAPI interface {
	GetCostAndUsage(ctx context.Context, params *costexplorer.GetCostAndUsageInput, optFns ...func(*costexplorer.Options)) (*costexplorer.GetCostAndUsageOutput, error)
}

type source struct {
	client CostExplorerAPI
	store  cache.Store
	ttl    time.Duration
}

func New(client CostExplorerAPI, store cache.Store, ttl time.Duration) sources.BillingSource {
	if ttl == 0 {
		ttl = sources.TTLBilling
	}
	return &source{client: client, store: store, ttl: ttl}
}

func NewFromConfig(cfg aws.Config, store cache.Store) sources.BillingSource {
	return New(costexplorer.NewFromConfig(cfg), store, sources.TTLBilling)
}

// GetCategoryTotals returns the billed EC2 compute total per instance type
// for the period, credits and refunds excluded. Billing feeds cost
// allocation directly, so it is primary data: a failed fetch is an absent
// result, never a stale one.
func (s *source) GetCategoryTotals(ctx context.Context, period domain.TimePeriod) ([]sources.CategoryTotal, error) {
	key := fmt.Sprintf("totals_%s_%s", period.Start.Format(dateLayout), period.End.Format(dateLayout))

	totals, _, err := cache.GetOrFetchAs(ctx, s.store, sourceName, key, s.ttl, cache.ClassPrimary,
		func(ctx context.Context) ([]sources.CategoryTotal, error) {
			return s.fetchTotals(ctx, period)
		})
	return totals, err
}

func (s *source) fetchTotals(ctx context.Context, period domain.TimePeriod) ([]sources.CategoryTotal, error) {
	input := &costexplorer.GetCostAndUsageInput{
		TimePeriod: &types.DateInterval{
			Start: aws.String(period.Start.Format(dateLayout)),
			End:   aws.String(period.End.Format(dateLayout)),
		},
		Granularity: types.GranularityDaily,
		Metrics:     []string{"UnblendedCost"},
		Filter: &types.Expression{
			And: []types.Expression{
				{
					Dimensions: &types.DimensionValues{
						Key:    types.DimensionService,
						Values: []string{ec2Service},
					},
				},
				{
					Not: &types.Expression{
						Dimensions: &types.DimensionValues{
							Key:    types.DimensionRecordType,
							Values: []string{"Credit", "Refund"},
						},
					},
				},
			},
		},
		GroupBy: []types.GroupDefinition{
			{
				Type: types.GroupDefinitionTypeDimension,
				Key:  aws.String("INSTANCE_TYPE"),
			},
		},
	}

	result, err := s.client.GetCostAndUsage(ctx, input)
	if err != nil {
		return nil, domain.NewSourceError(domain.ErrSourceUnavailable, sourceName,
			fmt.Errorf("GetCostAndUsage: %w", err))
	}

	return s.sumByCategory(result)
}

func (s *source) sumByCategory(result *costexplorer.GetCostAndUsageOutput) ([]sources.CategoryTotal, error) {
	amounts := make(map[string]float64)
	currencies := make(map[string]string)

	for _, byTime := range result.ResultsByTime {
		for _, group := range byTime.Groups {
			if len(group.Keys) == 0 {
				return nil, domain.NewSourceError(domain.ErrMalformedResponse, sourceName,
					fmt.Errorf("cost group without keys"))
			}
			category := group.Keys[0]

			metric, ok := group.Metrics["UnblendedCost"]
			if !ok || metric.Amount == nil || metric.Unit == nil {
				return nil, domain.NewSourceError(domain.ErrMalformedResponse, sourceName,
					fmt.Errorf("cost group %q missing UnblendedCost", category))
			}

			amount, err := strconv.ParseFloat(*metric.Amount, 64)
			if err != nil {
				return nil, domain.NewSourceError(domain.ErrMalformedResponse, sourceName,
					fmt.Errorf("unparseable amount %q for %q: %w", *metric.Amount, category, err))
			}

			amounts[category] += amount
			currencies[category] = *metric.Unit
		}
	}

	totals := make([]sources.CategoryTotal, 0, len(amounts))
	for category, amount := range amounts {
		totals = append(totals, sources.CategoryTotal{
			Category: category,
			Amount:   amount,
			Currency: currencies[category],
		})
	}
	return totals, nil
}
