package client

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/costmanagement/armcostmanagement"
	"github.com/rs/zerolog"

	"github.com/de-tools/finops-sentinel/pkg/models/domain"
)

// maxCostPages bounds how many next links one query follows.
const maxCostPages = 50

// UsageQuerier runs a Cost Management query and fetches the pages behind its next links.
type UsageQuerier interface {
	Usage(ctx context.Context, scope string, parameters armcostmanagement.QueryDefinition, options *armcostmanagement.QueryClientUsageOptions) (armcostmanagement.QueryClientUsageResponse, error)
	NextUsagePage(ctx context.Context, nextLink string, parameters armcostmanagement.QueryDefinition) (armcostmanagement.QueryResult, error)
}

// armUsageClient adds next-link paging to the generated query client, which only returns the first page.
type armUsageClient struct {
	*armcostmanagement.QueryClient
	pipeline runtime.Pipeline
}

func (c *armUsageClient) NextUsagePage(ctx context.Context, nextLink string, parameters armcostmanagement.QueryDefinition) (armcostmanagement.QueryResult, error) {
	req, err := runtime.NewRequest(ctx, http.MethodPost, nextLink)
	if err != nil {
		return armcostmanagement.QueryResult{}, err
	}
	req.Raw().Header["Accept"] = []string{"application/json"}
	if err := runtime.MarshalAsJSON(req, parameters); err != nil {
		return armcostmanagement.QueryResult{}, err
	}

	resp, err := c.pipeline.Do(req)
	if err != nil {
		return armcostmanagement.QueryResult{}, err
	}
	if !runtime.HasStatusCode(resp, http.StatusOK) {
		return armcostmanagement.QueryResult{}, runtime.NewResponseError(resp)
	}

	var result armcostmanagement.QueryResult
	if err := runtime.UnmarshalAsJSON(resp, &result); err != nil {
		return armcostmanagement.QueryResult{}, err
	}
	return result, nil
}

type AzureCostFetcher struct {
	client UsageQuerier
}

func NewAzureCostFetcher(cred azcore.TokenCredential) (*AzureCostFetcher, error) {
	query, err := armcostmanagement.NewQueryClient(cred, armOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to create cost management client: %w", err)
	}
	pl, err := arm.NewClient("armcostmanagement", "v1.1.1", cred, armOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to create cost management pipeline: %w", err)
	}
	return &AzureCostFetcher{client: &armUsageClient{QueryClient: query, pipeline: pl.Pipeline()}}, nil
}

func NewAzureCostFetcherWithClient(client UsageQuerier) *AzureCostFetcher {
	return &AzureCostFetcher{client: client}
}

// FetchDailyCosts returns the actual cost of [from, to) grouped by day and service. Every page of
// the result is read; a result that keeps paging past maxCostPages is an error, never a partial list.
func (f *AzureCostFetcher) FetchDailyCosts(ctx context.Context, subscriptionID string, from, until time.Time) ([]domain.CostRow, error) {
	scope := fmt.Sprintf("/subscriptions/%s", subscriptionID)
	params := dailyCostQuery(from, until.Add(-time.Second))

	resp, err := f.client.Usage(ctx, scope, params, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query costs for %s: %w", subscriptionID, err)
	}

	var rows []domain.CostRow
	page := resp.QueryResult
	seen := make(map[string]struct{})
	for pages := 1; ; pages++ {
		if page.Properties == nil {
			return rows, nil
		}
		decoded, err := decodeCostRows(subscriptionID, page.Properties)
		if err != nil {
			return nil, err
		}
		rows = append(rows, decoded...)

		next := deref(page.Properties.NextLink)
		if next == "" {
			return rows, nil
		}
		if _, dup := seen[next]; dup {
			return nil, fmt.Errorf("cost query for %s repeated next link after %d pages", subscriptionID, pages)
		}
		if pages == maxCostPages {
			return nil, fmt.Errorf("cost query for %s still paging after %d pages", subscriptionID, pages)
		}
		seen[next] = struct{}{}

		zerolog.Ctx(ctx).Debug().
			Str("subscription_id", subscriptionID).
			Int("page", pages+1).
			Msg("following cost query next link")
		page, err = f.client.NextUsagePage(ctx, next, params)
		if err != nil {
			return nil, fmt.Errorf("failed to query cost page %d for %s: %w", pages+1, subscriptionID, err)
		}
	}
}

func decodeCostRows(subscriptionID string, props *armcostmanagement.QueryProperties) ([]domain.CostRow, error) {
	cols := columnIndex(props.Columns)
	costCol := cols.first("Cost", "PreTaxCost", "CostUSD")
	dateCol := cols.first("UsageDate")
	serviceCol := cols.first("ServiceName")
	groupCol := cols.first("ResourceGroupName", "ResourceGroup")
	currencyCol := cols.first("Currency")
	if costCol < 0 || dateCol < 0 || serviceCol < 0 {
		return nil, fmt.Errorf("cost query for %s returned unexpected columns %v", subscriptionID, cols.names)
	}

	rows := make([]domain.CostRow, 0, len(props.Rows))
	for _, row := range props.Rows {
		rows = append(rows, domain.CostRow{
			SubscriptionID: subscriptionID,
			ServiceName:    stringAt(row, serviceCol),
			ResourceGroup:  stringAt(row, groupCol),
			Date:           usageDate(valueAt(row, dateCol)),
			Amount:         floatAt(row, costCol),
			Currency:       stringAt(row, currencyCol),
		})
	}
	return rows, nil
}

func dailyCostQuery(start, end time.Time) armcostmanagement.QueryDefinition {
	return armcostmanagement.QueryDefinition{
		Type:      to.Ptr(armcostmanagement.ExportTypeActualCost),
		Timeframe: to.Ptr(armcostmanagement.TimeframeTypeCustom),
		TimePeriod: &armcostmanagement.QueryTimePeriod{
			From: to.Ptr(start.UTC()),
			To:   to.Ptr(end.UTC()),
		},
		Dataset: &armcostmanagement.QueryDataset{
			Granularity: to.Ptr(armcostmanagement.GranularityTypeDaily),
			Aggregation: map[string]*armcostmanagement.QueryAggregation{
				"totalCost": {
					Name:     to.Ptr("Cost"),
					Function: to.Ptr(armcostmanagement.FunctionTypeSum),
				},
			},
			Grouping: []*armcostmanagement.QueryGrouping{
				{Type: to.Ptr(armcostmanagement.QueryColumnTypeDimension), Name: to.Ptr("ServiceName")},
			},
		},
	}
}

type columns struct {
	names []string
	index map[string]int
}

func columnIndex(cols []*armcostmanagement.QueryColumn) columns {
	c := columns{index: make(map[string]int, len(cols))}
	for i, col := range cols {
		if col == nil || col.Name == nil {
			c.names = append(c.names, "")
			continue
		}
		c.names = append(c.names, *col.Name)
		c.index[strings.ToLower(*col.Name)] = i
	}
	return c
}

func (c columns) first(names ...string) int {
	for _, n := range names {
		if i, ok := c.index[strings.ToLower(n)]; ok {
			return i
		}
	}
	return -1
}

func valueAt(row []any, i int) any {
	if i < 0 || i >= len(row) {
		return nil
	}
	return row[i]
}

func stringAt(row []any, i int) string {
	switch v := valueAt(row, i).(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// floatAt returns NaN for a missing or unparsable cost so the aggregator drops the row with a warning.
func floatAt(row []any, i int) float64 {
	switch v := valueAt(row, i).(type) {
	case float64:
		return v
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

// usageDate decodes the UsageDate column, a yyyymmdd number or an RFC 3339 string. Unknown
// forms yield the zero time, which the aggregator drops with a warning.
func usageDate(v any) time.Time {
	switch d := v.(type) {
	case float64:
		t, err := time.Parse("20060102", strconv.FormatInt(int64(d), 10))
		if err != nil {
			return time.Time{}
		}
		return t
	case string:
		for _, layout := range []string{"20060102", time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, d); err == nil {
				return t.UTC()
			}
		}
	}
	return time.Time{}
}
