package client

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/finops-sentinel/pkg/resilience"
)

type mockCostExplorer struct{ mock.Mock }

func (m *mockCostExplorer) GetCostAndUsage(ctx context.Context, params *costexplorer.GetCostAndUsageInput, optFns ...func(*costexplorer.Options)) (*costexplorer.GetCostAndUsageOutput, error) {
	// the fetcher reuses the input across pages
	token := aws.ToString(params.NextPageToken)
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*costexplorer.GetCostAndUsageOutput), args.Error(1)
}

func ceGroup(service, amount string) types.Group {
	return types.Group{
		Keys: []string{service},
		Metrics: map[string]types.MetricValue{
			"UnblendedCost": {Amount: aws.String(amount), Unit: aws.String("USD")},
		},
	}
}

func TestAWSCostFetcher_FetchDailyCosts(t *testing.T) {
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)

	t.Run("follows page tokens", func(t *testing.T) {
		ce := new(mockCostExplorer)
		ce.On("GetCostAndUsage", mock.Anything, "").Return(&costexplorer.GetCostAndUsageOutput{
			ResultsByTime: []types.ResultByTime{{
				TimePeriod: &types.DateInterval{Start: aws.String("2024-03-01"), End: aws.String("2024-03-02")},
				Groups:     []types.Group{ceGroup("Amazon Elastic Compute Cloud - Compute", "42.5"), ceGroup("Tax", "n/a")},
			}},
			NextPageToken: aws.String("page-2"),
		}, nil).Once()
		ce.On("GetCostAndUsage", mock.Anything, "page-2").Return(&costexplorer.GetCostAndUsageOutput{
			ResultsByTime: []types.ResultByTime{{
				TimePeriod: &types.DateInterval{Start: aws.String("2024-03-02"), End: aws.String("2024-03-03")},
				Groups:     []types.Group{ceGroup("Amazon Simple Storage Service", "3")},
			}},
		}, nil).Once()

		rows, err := NewAWSCostFetcherWithClient(ce).FetchDailyCosts(context.Background(), "123456789012", from, until)

		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, "123456789012", rows[0].SubscriptionID)
		assert.Equal(t, "Amazon Elastic Compute Cloud - Compute", rows[0].ServiceName)
		assert.Equal(t, 42.5, rows[0].Amount)
		assert.Equal(t, "USD", rows[0].Currency)
		assert.Equal(t, from, rows[0].Date)
		assert.Equal(t, "Tax", rows[1].ServiceName)
		assert.True(t, math.IsNaN(rows[1].Amount))
		assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), rows[2].Date)
		ce.AssertExpectations(t)
	})

	t.Run("throttling stays retryable", func(t *testing.T) {
		ce := new(mockCostExplorer)
		ce.On("GetCostAndUsage", mock.Anything, "").
			Return(nil, &smithy.GenericAPIError{Code: "ThrottlingException", Message: "Rate exceeded"})

		_, err := NewAWSCostFetcherWithClient(ce).FetchDailyCosts(context.Background(), "123456789012", from, until)

		require.Error(t, err)
		assert.Equal(t, resilience.FailureRateLimited, resilience.Classify(err).Class)
	})
}

func TestCostRows_MissingAmounts(t *testing.T) {
	rows := costRows("123456789012", []types.ResultByTime{{
		TimePeriod: &types.DateInterval{Start: aws.String("2024-03-01")},
		Groups: []types.Group{
			{Keys: []string{"AWS Lambda"}},
			{Keys: []string{"Amazon Route 53"}, Metrics: map[string]types.MetricValue{"UnblendedCost": {}}},
		},
	}})

	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.True(t, math.IsNaN(row.Amount), row.ServiceName)
	}
}
