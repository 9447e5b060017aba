package awsce

import (
	"context"
	"testing"
	"time"

	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/models/domain"
	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/services/sources"
	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/store/cache"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCostExplorerAPI struct{ mock.Mock }

func (m *MockCostExplorerAPI) GetCostAndUsage(ctx context.Context, params *costexplorer.GetCostAndUsageInput, optFns ...func(*costexplorer.Options)) (*costexplorer.GetCostAndUsageOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*costexplorer.GetCostAndUsageOutput), args.Error(1)
}

func newBillingSource(t *testing.T, client CostExplorerAPI) sources.BillingSource {
	t.Helper()
	store, err := cache.NewFileStore(t.TempDir())
	require.NoError(t, err)
	return New(client, store, time.Hour)
}

func costGroup(category, amount string) types.Group {
	return types.Group{
		Keys: []string{category},
		Metrics: map[string]types.MetricValue{
			"UnblendedCost": {Amount: aws.String(amount), Unit: aws.String("USD")},
		},
	}
}

func TestGetCategoryTotals(t *testing.T) {
	ctx := context.Background()
	period := domain.TimePeriod{
		Start: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC),
	}

	t.Run("sums daily groups per instance type", func(t *testing.T) {
		client := &MockCostExplorerAPI{}
		client.On("GetCostAndUsage", mock.Anything, mock.Anything).Return(&costexplorer.GetCostAndUsageOutput{
			ResultsByTime: []types.ResultByTime{
				{Groups: []types.Group{costGroup("t3.medium", "1.20"), costGroup("m5.large", "3.00")}},
				{Groups: []types.Group{costGroup("t3.medium", "1.30")}},
			},
		}, nil)

		totals, err := newBillingSource(t, client).GetCategoryTotals(ctx, period)
		require.NoError(t, err)

		require.Len(t, totals, 2)
		byCategory := make(map[string]sources.CategoryTotal)
		for _, total := range totals {
			byCategory[total.Category] = total
		}
		assert.InDelta(t, 2.5, byCategory["t3.medium"].Amount, 1e-9)
		assert.InDelta(t, 3.0, byCategory["m5.large"].Amount, 1e-9)
		assert.Equal(t, "USD", byCategory["t3.medium"].Currency)
	})

	t.Run("requests daily EC2 costs excluding credits and refunds", func(t *testing.T) {
		client := &MockCostExplorerAPI{}
		client.On("GetCostAndUsage", mock.Anything, mock.MatchedBy(func(input *costexplorer.GetCostAndUsageInput) bool {
			return input.Granularity == types.GranularityDaily &&
				*input.TimePeriod.Start == "2025-06-01" &&
				*input.TimePeriod.End == "2025-06-08" &&
				len(input.Filter.And) == 2
		})).Return(&costexplorer.GetCostAndUsageOutput{}, nil)

		_, err := newBillingSource(t, client).GetCategoryTotals(ctx, period)
		require.NoError(t, err)
		client.AssertExpectations(t)
	})

	t.Run("API failure is surfaced as unavailable, never stale", func(t *testing.T) {
		client := &MockCostExplorerAPI{}
		client.On("GetCostAndUsage", mock.Anything, mock.Anything).Return(nil, assert.AnError)

		totals, err := newBillingSource(t, client).GetCategoryTotals(ctx, period)

		assert.Nil(t, totals)
		assert.Equal(t, domain.ErrSourceUnavailable, domain.KindOf(err))
	})

	t.Run("group without keys is malformed", func(t *testing.T) {
		client := &MockCostExplorerAPI{}
		client.On("GetCostAndUsage", mock.Anything, mock.Anything).Return(&costexplorer.GetCostAndUsageOutput{
			ResultsByTime: []types.ResultByTime{
				{Groups: []types.Group{{Metrics: map[string]types.MetricValue{}}}},
			},
		}, nil)

		_, err := newBillingSource(t, client).GetCategoryTotals(ctx, period)
		assert.Equal(t, domain.ErrMalformedResponse, domain.KindOf(err))
	})

	t.Run("unparseable amount is malformed", func(t *testing.T) {
		client := &MockCostExplorerAPI{}
		client.On("GetCostAndUsage", mock.Anything, mock.Anything).Return(&costexplorer.GetCostAndUsageOutput{
			ResultsByTime: []types.ResultByTime{
				{Groups: []types.Group{costGroup("t3.medium", "not-a-number")}},
			},
		}, nil)

		_, err := newBillingSource(t, client).GetCategoryTotals(ctx, period)
		assert.Equal(t, domain.ErrMalformedResponse, domain.KindOf(err))
	})

	t.Run("second call inside the TTL hits the cache", func(t *testing.T) {
		client := &MockCostExplorerAPI{}
		client.On("GetCostAndUsage", mock.Anything, mock.Anything).Return(&costexplorer.GetCostAndUsageOutput{
			ResultsByTime: []types.ResultByTime{
				{Groups: []types.Group{costGroup("t3.medium", "1.00")}},
			},
		}, nil).Once()

		src := newBillingSource(t, client)
		_, err := src.GetCategoryTotals(ctx, period)
		require.NoError(t, err)
		totals, err := src.GetCategoryTotals(ctx, period)
		require.NoError(t, err)

		require.Len(t, totals, 1)
		client.AssertExpectations(t)
	})
}
