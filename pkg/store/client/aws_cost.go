package client

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer/types"

	"github.com/de-tools/finops-sentinel/pkg/models/domain"
)

const ceDateLayout = "2006-01-02"

type CostAndUsageAPI interface {
	GetCostAndUsage(ctx context.Context, params *costexplorer.GetCostAndUsageInput, optFns ...func(*costexplorer.Options)) (*costexplorer.GetCostAndUsageOutput, error)
}

// AWSCostFetcher reads daily unblended cost per service from Cost Explorer. The subscription id
// is the linked account id.
type AWSCostFetcher struct {
	client CostAndUsageAPI
}

func NewAWSCostFetcher(cfg aws.Config) *AWSCostFetcher {
	return &AWSCostFetcher{client: costexplorer.NewFromConfig(cfg)}
}

func NewAWSCostFetcherWithClient(client CostAndUsageAPI) *AWSCostFetcher {
	return &AWSCostFetcher{client: client}
}

func (f *AWSCostFetcher) FetchDailyCosts(ctx context.Context, accountID string, from, until time.Time) ([]domain.CostRow, error) {
	input := &costexplorer.GetCostAndUsageInput{
		TimePeriod: &types.DateInterval{
			Start: aws.String(from.UTC().Format(ceDateLayout)),
			End:   aws.String(until.UTC().Format(ceDateLayout)),
		},
		Granularity: types.GranularityDaily,
		Metrics:     []string{"UnblendedCost"},
		Filter: &types.Expression{
			And: []types.Expression{
				{
					Dimensions: &types.DimensionValues{
						Key:    types.DimensionLinkedAccount,
						Values: []string{accountID},
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
				Key:  aws.String("SERVICE"),
			},
		},
	}

	var rows []domain.CostRow
	for {
		out, err := f.client.GetCostAndUsage(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to get cost and usage for %s: %w", accountID, err)
		}
		rows = append(rows, costRows(accountID, out.ResultsByTime)...)

		if out.NextPageToken == nil || *out.NextPageToken == "" {
			return rows, nil
		}
		input.NextPageToken = out.NextPageToken
	}
}

func costRows(accountID string, results []types.ResultByTime) []domain.CostRow {
	var rows []domain.CostRow
	for _, result := range results {
		var day time.Time
		if result.TimePeriod != nil && result.TimePeriod.Start != nil {
			day, _ = time.Parse(ceDateLayout, *result.TimePeriod.Start)
		}

		for _, group := range result.Groups {
			// a missing or unparsable amount stays a NaN row, dropped by the aggregator with a warning
			amount := math.NaN()
			metric, ok := group.Metrics["UnblendedCost"]
			if ok && metric.Amount != nil {
				if v, err := strconv.ParseFloat(*metric.Amount, 64); err == nil {
					amount = v
				}
			}

			var service string
			if len(group.Keys) > 0 {
				service = group.Keys[0]
			}
			rows = append(rows, domain.CostRow{
				SubscriptionID: accountID,
				ServiceName:    service,
				Date:           day,
				Amount:         amount,
				Currency:       aws.ToString(metric.Unit),
			})
		}
	}
	return rows
}
