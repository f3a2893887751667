package client

import (
	"context"
	"errors"
	"io"
	"math"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/costmanagement/armcostmanagement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/finops-sentinel/pkg/resilience"
)

type mockUsageQuerier struct{ mock.Mock }

func (m *mockUsageQuerier) Usage(ctx context.Context, scope string, parameters armcostmanagement.QueryDefinition, options *armcostmanagement.QueryClientUsageOptions) (armcostmanagement.QueryClientUsageResponse, error) {
	args := m.Called(ctx, scope, parameters, options)
	return args.Get(0).(armcostmanagement.QueryClientUsageResponse), args.Error(1)
}

func (m *mockUsageQuerier) NextUsagePage(ctx context.Context, nextLink string, parameters armcostmanagement.QueryDefinition) (armcostmanagement.QueryResult, error) {
	args := m.Called(ctx, nextLink)
	return args.Get(0).(armcostmanagement.QueryResult), args.Error(1)
}

func usageResponse(columns []string, rows ...[]any) armcostmanagement.QueryClientUsageResponse {
	cols := make([]*armcostmanagement.QueryColumn, 0, len(columns))
	for _, c := range columns {
		cols = append(cols, &armcostmanagement.QueryColumn{Name: to.Ptr(c)})
	}
	return armcostmanagement.QueryClientUsageResponse{
		QueryResult: armcostmanagement.QueryResult{
			Properties: &armcostmanagement.QueryProperties{Columns: cols, Rows: rows},
		},
	}
}

func withNextLink(resp armcostmanagement.QueryClientUsageResponse, link string) armcostmanagement.QueryClientUsageResponse {
	resp.Properties.NextLink = to.Ptr(link)
	return resp
}

func TestAzureCostFetcher_FetchDailyCosts(t *testing.T) {
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)

	t.Run("decodes rows by column name", func(t *testing.T) {
		querier := new(mockUsageQuerier)
		querier.On("Usage", mock.Anything, "/subscriptions/sub-1", mock.Anything, (*armcostmanagement.QueryClientUsageOptions)(nil)).
			Return(usageResponse(
				[]string{"Cost", "UsageDate", "ServiceName", "ResourceGroupName", "Currency"},
				[]any{123.45, float64(20240301), "Virtual Machines", "rg-prod", "USD"},
				[]any{"6.5", "2024-03-02T00:00:00Z", "Storage", nil, "USD"},
			), nil)

		rows, err := NewAzureCostFetcherWithClient(querier).FetchDailyCosts(context.Background(), "sub-1", from, until)

		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "sub-1", rows[0].SubscriptionID)
		assert.Equal(t, "Virtual Machines", rows[0].ServiceName)
		assert.Equal(t, "rg-prod", rows[0].ResourceGroup)
		assert.Equal(t, from, rows[0].Date)
		assert.Equal(t, 123.45, rows[0].Amount)
		assert.Equal(t, 6.5, rows[1].Amount)
		assert.Equal(t, "", rows[1].ResourceGroup)
		assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), rows[1].Date)

		params := querier.Calls[0].Arguments.Get(2).(armcostmanagement.QueryDefinition)
		assert.Equal(t, armcostmanagement.GranularityTypeDaily, *params.Dataset.Granularity)
		assert.Equal(t, from, *params.TimePeriod.From)
		assert.Equal(t, until.Add(-time.Second), *params.TimePeriod.To)
		require.Len(t, params.Dataset.Grouping, 1)
		assert.Equal(t, "ServiceName", *params.Dataset.Grouping[0].Name)
	})

	t.Run("follows next links until the last page", func(t *testing.T) {
		cols := []string{"Cost", "UsageDate", "ServiceName"}
		querier := new(mockUsageQuerier)
		querier.On("Usage", mock.Anything, "/subscriptions/sub-1", mock.Anything, mock.Anything).
			Return(withNextLink(usageResponse(cols, []any{10.0, float64(20240301), "VM"}), "https://management.example.test/page-2"), nil)
		querier.On("NextUsagePage", mock.Anything, "https://management.example.test/page-2").
			Return(withNextLink(usageResponse(cols, []any{11.0, float64(20240302), "VM"}), "https://management.example.test/page-3").QueryResult, nil)
		querier.On("NextUsagePage", mock.Anything, "https://management.example.test/page-3").
			Return(usageResponse(cols, []any{12.0, float64(20240303), "VM"}).QueryResult, nil)

		rows, err := NewAzureCostFetcherWithClient(querier).FetchDailyCosts(context.Background(), "sub-1", from, until)

		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, 12.0, rows[2].Amount)
		querier.AssertExpectations(t)
	})

	t.Run("a failing page fails the whole fetch", func(t *testing.T) {
		cols := []string{"Cost", "UsageDate", "ServiceName"}
		querier := new(mockUsageQuerier)
		querier.On("Usage", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(withNextLink(usageResponse(cols, []any{10.0, float64(20240301), "VM"}), "https://management.example.test/page-2"), nil)
		querier.On("NextUsagePage", mock.Anything, mock.Anything).
			Return(armcostmanagement.QueryResult{}, &azcore.ResponseError{StatusCode: http.StatusServiceUnavailable})

		rows, err := NewAzureCostFetcherWithClient(querier).FetchDailyCosts(context.Background(), "sub-1", from, until)

		assert.Nil(t, rows)
		assert.ErrorContains(t, err, "cost page 2")
		assert.Equal(t, resilience.FailureServer, resilience.Classify(err).Class)
	})

	t.Run("a repeated next link is an error", func(t *testing.T) {
		cols := []string{"Cost", "UsageDate", "ServiceName"}
		loop := "https://management.example.test/page-2"
		querier := new(mockUsageQuerier)
		querier.On("Usage", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(withNextLink(usageResponse(cols, []any{10.0, float64(20240301), "VM"}), loop), nil)
		querier.On("NextUsagePage", mock.Anything, loop).
			Return(withNextLink(usageResponse(cols, []any{11.0, float64(20240302), "VM"}), loop).QueryResult, nil)

		_, err := NewAzureCostFetcherWithClient(querier).FetchDailyCosts(context.Background(), "sub-1", from, until)

		assert.ErrorContains(t, err, "repeated next link")
	})

	t.Run("unreadable costs decode as NaN", func(t *testing.T) {
		querier := new(mockUsageQuerier)
		querier.On("Usage", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(usageResponse([]string{"Cost", "UsageDate", "ServiceName"},
				[]any{"n/a", float64(20240301), "VM"},
				[]any{nil, float64(20240302), "VM"},
			), nil)

		rows, err := NewAzureCostFetcherWithClient(querier).FetchDailyCosts(context.Background(), "sub-1", from, until)

		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.True(t, math.IsNaN(rows[0].Amount))
		assert.True(t, math.IsNaN(rows[1].Amount))
	})

	t.Run("undecodable dates become zero", func(t *testing.T) {
		querier := new(mockUsageQuerier)
		querier.On("Usage", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(usageResponse([]string{"PreTaxCost", "UsageDate", "ServiceName"}, []any{1.0, "yesterday", "VM"}), nil)

		rows, err := NewAzureCostFetcherWithClient(querier).FetchDailyCosts(context.Background(), "sub-1", from, until)

		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.True(t, rows[0].Date.IsZero())
	})

	t.Run("rejects unexpected columns", func(t *testing.T) {
		querier := new(mockUsageQuerier)
		querier.On("Usage", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(usageResponse([]string{"Foo"}), nil)

		_, err := NewAzureCostFetcherWithClient(querier).FetchDailyCosts(context.Background(), "sub-1", from, until)

		assert.ErrorContains(t, err, "unexpected columns")
	})

	t.Run("keeps the response error classifiable", func(t *testing.T) {
		querier := new(mockUsageQuerier)
		querier.On("Usage", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(armcostmanagement.QueryClientUsageResponse{}, &azcore.ResponseError{StatusCode: http.StatusTooManyRequests})

		_, err := NewAzureCostFetcherWithClient(querier).FetchDailyCosts(context.Background(), "sub-1", from, until)

		var respErr *azcore.ResponseError
		require.True(t, errors.As(err, &respErr))
		assert.Equal(t, resilience.FailureRateLimited, resilience.Classify(err).Class)
	})
}

type jsonTransport struct {
	status int
	body   string
	req    *http.Request
}

func (j *jsonTransport) Do(req *http.Request) (*http.Response, error) {
	j.req = req
	return &http.Response{
		StatusCode: j.status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(j.body)),
		Request:    req,
	}, nil
}

func TestArmUsageClient_NextUsagePage(t *testing.T) {
	pipelineFor := func(transport policy.Transporter) runtime.Pipeline {
		return runtime.NewPipeline("finops-sentinel", "test", runtime.PipelineOptions{},
			&policy.ClientOptions{Transport: transport, Retry: policy.RetryOptions{MaxRetries: -1}})
	}
	params := dailyCostQuery(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC))

	t.Run("posts the query to the next link", func(t *testing.T) {
		transport := &jsonTransport{status: http.StatusOK, body: `{"properties":{` +
			`"columns":[{"name":"Cost","type":"Number"},{"name":"UsageDate","type":"Number"},{"name":"ServiceName","type":"String"}],` +
			`"rows":[[4.5,20240302,"Storage"]]}}`}
		c := &armUsageClient{pipeline: pipelineFor(transport)}

		page, err := c.NextUsagePage(context.Background(), "https://management.example.test/query?$skiptoken=abc", params)

		require.NoError(t, err)
		require.NotNil(t, transport.req)
		assert.Equal(t, http.MethodPost, transport.req.Method)
		assert.Equal(t, "abc", transport.req.URL.Query().Get("$skiptoken"))
		require.NotNil(t, page.Properties)
		rows, err := decodeCostRows("sub-1", page.Properties)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, 4.5, rows[0].Amount)
		assert.Equal(t, "Storage", rows[0].ServiceName)
	})

	t.Run("non-200 responses stay classifiable", func(t *testing.T) {
		transport := &jsonTransport{status: http.StatusTooManyRequests, body: `{"error":{"code":"429"}}`}
		c := &armUsageClient{pipeline: pipelineFor(transport)}

		_, err := c.NextUsagePage(context.Background(), "https://management.example.test/query?$skiptoken=abc", params)

		var respErr *azcore.ResponseError
		require.True(t, errors.As(err, &respErr))
		assert.Equal(t, http.StatusTooManyRequests, respErr.StatusCode)
	})
}
