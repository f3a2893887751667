package finops

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/finops-sentinel/pkg/apperr"
	"github.com/de-tools/finops-sentinel/pkg/models/api"
	"github.com/de-tools/finops-sentinel/pkg/models/domain"
	"github.com/de-tools/finops-sentinel/pkg/resilience"
	"github.com/de-tools/finops-sentinel/pkg/services/cost"
	"github.com/de-tools/finops-sentinel/pkg/services/governance"
	"github.com/de-tools/finops-sentinel/pkg/services/summary"
	"github.com/de-tools/finops-sentinel/pkg/services/waste"
)

type mockAnomalyService struct {
	mock.Mock
}

func (m *mockAnomalyService) DetectAcross(ctx context.Context, subscriptionIDs []string, threshold float64) (cost.Report, error) {
	args := m.Called(ctx, subscriptionIDs, threshold)
	return args.Get(0).(cost.Report), args.Error(1)
}

type mockWasteService struct {
	mock.Mock
}

func (m *mockWasteService) AuditTenants(ctx context.Context, tenantIDs []string) (waste.Report, error) {
	args := m.Called(ctx, tenantIDs)
	return args.Get(0).(waste.Report), args.Error(1)
}

type mockGovernanceService struct {
	mock.Mock
}

func (m *mockGovernanceService) Advise(ctx context.Context, subscriptionIDs []string, minRiskScore int) (governance.AdviceReport, error) {
	args := m.Called(ctx, subscriptionIDs, minRiskScore)
	return args.Get(0).(governance.AdviceReport), args.Error(1)
}

func (m *mockGovernanceService) ReviewCostActions(
	ctx context.Context,
	subscriptionIDs []string,
	frameworks []string,
) (governance.ReviewReport, error) {
	args := m.Called(ctx, subscriptionIDs, frameworks)
	return args.Get(0).(governance.ReviewReport), args.Error(1)
}

type mockBudgetService struct {
	mock.Mock
}

func (m *mockBudgetService) Estimate(
	resources []domain.DeclaredResource,
	budgetLimit float64,
	region string,
) (domain.BudgetResult, error) {
	args := m.Called(resources, budgetLimit, region)
	return args.Get(0).(domain.BudgetResult), args.Error(1)
}

type mockSummaryService struct {
	mock.Mock
}

func (m *mockSummaryService) Generate(ctx context.Context, req summary.Request) (summary.Summary, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(summary.Summary), args.Error(1)
}

type mocks struct {
	anomalies  *mockAnomalyService
	waste      *mockWasteService
	governance *mockGovernanceService
	budget     *mockBudgetService
	summary    *mockSummaryService
}

func setupHandler() (*Handler, mocks) {
	m := mocks{
		anomalies:  new(mockAnomalyService),
		waste:      new(mockWasteService),
		governance: new(mockGovernanceService),
		budget:     new(mockBudgetService),
		summary:    new(mockSummaryService),
	}
	h := NewHandler(m.anomalies, m.waste, m.governance, m.budget, m.summary, Defaults{
		SubscriptionIDs: []string{"sub-1", "sub-2"},
		TenantIDs:       []string{"contoso"},
		Threshold:       1.5,
		MinRiskScore:    5,
		Frameworks:      []string{"ISO27001", "NIA"},
	})
	return h, m
}

func post(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
}

func TestDetectAnomalies(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(*mockAnomalyService)
		expectedStatus int
		expectedKind   string
	}{
		{
			name: "defaults fill empty request",
			body: "",
			setupMock: func(m *mockAnomalyService) {
				m.On("DetectAcross", mock.Anything, []string{"sub-1", "sub-2"}, 1.5).Return(cost.Report{
					Threshold: 1.5,
					Detection: cost.Detection{
						Anomalies:        []domain.Anomaly{{SubscriptionID: "sub-1", ServiceName: "Storage", ExcessAmount: 120}},
						TotalExcessSpend: 120,
						SeriesAnalyzed:   4,
					},
					Statuses: []domain.BranchStatus{{Target: "sub-1", State: domain.BranchOK}},
				}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "explicit subscriptions and threshold",
			body: `{"subscription_ids":["sub-9"],"threshold":2}`,
			setupMock: func(m *mockAnomalyService) {
				m.On("DetectAcross", mock.Anything, []string{"sub-9"}, 2.0).Return(cost.Report{Threshold: 2}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "invalid threshold",
			body: `{"threshold":0.5}`,
			setupMock: func(m *mockAnomalyService) {
				m.On("DetectAcross", mock.Anything, mock.Anything, 0.5).
					Return(cost.Report{}, apperr.InvalidArgument("cost.detect", "threshold 0.5 must be >= 1"))
			},
			expectedStatus: http.StatusBadRequest,
			expectedKind:   "invalid_argument",
		},
		{
			name: "all subscriptions failed",
			body: `{}`,
			setupMock: func(m *mockAnomalyService) {
				m.On("DetectAcross", mock.Anything, mock.Anything, 1.5).
					Return(cost.Report{}, apperr.Unavailable("cost.detect_across", errors.New("timeout")))
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedKind:   "unavailable",
		},
		{
			name:           "malformed body",
			body:           `{"threshold":`,
			setupMock:      func(m *mockAnomalyService) {},
			expectedStatus: http.StatusBadRequest,
			expectedKind:   "invalid_argument",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, m := setupHandler()
			tt.setupMock(m.anomalies)
			rec := httptest.NewRecorder()

			h.DetectAnomalies(rec, post(tt.body))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			if tt.expectedKind != "" {
				var response api.Error
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
				assert.Equal(t, tt.expectedKind, response.Kind)
			}
			m.anomalies.AssertExpectations(t)
		})
	}
}

func TestDetectAnomalies_ResponseBody(t *testing.T) {
	h, m := setupHandler()
	m.anomalies.On("DetectAcross", mock.Anything, mock.Anything, 1.5).Return(cost.Report{
		Threshold: 1.5,
		Detection: cost.Detection{
			Anomalies:        []domain.Anomaly{{SubscriptionID: "sub-1", ServiceName: "Storage", ExcessAmount: 120}},
			TotalExcessSpend: 120,
		},
		Statuses: []domain.BranchStatus{
			{Target: "sub-1", State: domain.BranchOK},
			{Target: "sub-2", State: domain.BranchFailed, ErrorKind: apperr.KindUnauthorized, Error: "forbidden"},
		},
	}, nil)
	rec := httptest.NewRecorder()

	h.DetectAnomalies(rec, post(""))

	var response api.AnomalyReport
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.Equal(t, 1, response.TotalAnomalies)
	assert.Equal(t, 120.0, response.TotalExcessSpend)
	require.Len(t, response.Subscriptions, 2)
	assert.Equal(t, "unauthorized", response.Subscriptions[1].ErrorKind)
}

func TestAuditWaste(t *testing.T) {
	h, m := setupHandler()
	m.waste.On("AuditTenants", mock.Anything, []string{"contoso"}).Return(waste.Report{
		Audits: []domain.TenantAudit{{
			TenantID:     "contoso",
			Findings:     []domain.WasteFinding{{Resource: domain.ResourceRecord{ID: "d1", Kind: domain.ResourceKindDisk}, EstimatedMonthlyCost: 19.71}},
			MonthlyTotal: 19.71,
		}},
		MonthlyTotal: 19.71,
	}, nil)
	rec := httptest.NewRecorder()

	h.AuditWaste(rec, post(`{}`))

	assert.Equal(t, http.StatusOK, rec.Code)
	var response api.WasteReport
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.Equal(t, 1, response.TotalFindings)
	assert.Equal(t, 236.52, response.TotalAnnualSavings)
	m.waste.AssertExpectations(t)
}

func TestEstimateBudget(t *testing.T) {
	h, m := setupHandler()
	resources := []domain.DeclaredResource{{Name: "ip", ResourceType: domain.ResourceTypePublicIP, SKU: "Standard"}}
	m.budget.On("Estimate", resources, 10.0, "eastus").Return(domain.BudgetResult{
		Region:               "eastus",
		BudgetLimit:          10,
		EstimatedMonthlyCost: 3.65,
		EstimatedAnnualCost:  43.8,
		WithinBudget:         true,
		Breakdown:            map[string]float64{domain.ResourceTypePublicIP: 3.65},
		ResourcesAnalyzed:    1,
		ResourcesPriced:      1,
	}, nil)
	rec := httptest.NewRecorder()

	body := `{"resources":[{"name":"ip","type":"Microsoft.Network/publicIPAddresses","sku":"Standard"}],` +
		`"budget_limit":10,"region":"eastus"}`
	h.EstimateBudget(rec, post(body))

	assert.Equal(t, http.StatusOK, rec.Code)
	var response api.BudgetReport
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.True(t, response.WithinBudget)
	assert.Equal(t, 3.65, response.EstimatedMonthlyCost)
	assert.Equal(t, []string{}, response.Warnings)
	m.budget.AssertExpectations(t)
}

func TestGovernanceEndpoints(t *testing.T) {
	t.Run("advice uses default min risk score", func(t *testing.T) {
		h, m := setupHandler()
		m.governance.On("Advise", mock.Anything, []string{"sub-1", "sub-2"}, 5).Return(governance.AdviceReport{
			ScoringResult: governance.ScoringResult{
				MinRiskScore:    5,
				Recommendations: []domain.ScoredRecommendation{{Recommendation: domain.Recommendation{ID: "r1"}, RiskScore: 9}},
				Summary:         governance.Summary{Total: 1, HighRisk: 1, PotentialMonthlySavings: 10},
			},
		}, nil)
		rec := httptest.NewRecorder()

		h.Advise(rec, post(`{}`))

		assert.Equal(t, http.StatusOK, rec.Code)
		var response api.AdviceReport
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, 1, response.Summary.HighRisk)
		assert.Equal(t, 120.0, response.Summary.PotentialAnnualSavings)
		m.governance.AssertExpectations(t)
	})

	t.Run("review uses default frameworks", func(t *testing.T) {
		h, m := setupHandler()
		m.governance.On("ReviewCostActions", mock.Anything, []string{"sub-3"}, []string{"ISO27001", "NIA"}).
			Return(governance.ReviewReport{}, apperr.Unauthorized("governance.review", errors.New("401")))
		rec := httptest.NewRecorder()

		h.ReviewCostActions(rec, post(`{"subscription_ids":["sub-3"]}`))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		m.governance.AssertExpectations(t)
	})
}

func TestSummarize(t *testing.T) {
	t.Run("builds request from defaults", func(t *testing.T) {
		h, m := setupHandler()
		expected := summary.Request{
			SubscriptionIDs:   []string{"sub-1", "sub-2"},
			TenantIDs:         []string{"contoso"},
			Threshold:         1.5,
			MinRiskScore:      5,
			IncludeAnomalies:  true,
			IncludeWaste:      false,
			IncludeGovernance: true,
			Period:            summary.PeriodAnnual,
		}
		m.summary.On("Generate", mock.Anything, expected).Return(summary.Summary{
			Period:  summary.PeriodAnnual,
			Metrics: summary.Metrics{TotalSavingsPotential: 2400, ThreeYearProjection: 7200},
		}, nil)
		rec := httptest.NewRecorder()

		h.Summarize(rec, post(`{"period":"Annual","include_waste":false}`))

		assert.Equal(t, http.StatusOK, rec.Code)
		var response api.Summary
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, "annual", response.Period)
		assert.Equal(t, 7200.0, response.Metrics.ThreeYearProjection)
		m.summary.AssertExpectations(t)
	})

	t.Run("rejects unknown period", func(t *testing.T) {
		h, m := setupHandler()
		rec := httptest.NewRecorder()

		h.Summarize(rec, post(`{"period":"weekly"}`))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		m.summary.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
	})
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{apperr.InvalidArgument("op", "bad"), http.StatusBadRequest},
		{apperr.Unauthorized("op", errors.New("denied")), http.StatusUnauthorized},
		{apperr.Unavailable("op", errors.New("down")), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			ctx := resilience.WithCorrelationID(context.Background(), "corr-1")
			rec := httptest.NewRecorder()

			writeError(ctx, rec, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			var response api.Error
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
			assert.Equal(t, "corr-1", response.CorrelationID)
		})
	}
}
