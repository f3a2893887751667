package finops

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/de-tools/finops-sentinel/pkg/adapters"
	"github.com/de-tools/finops-sentinel/pkg/apperr"
	"github.com/de-tools/finops-sentinel/pkg/models/api"
	"github.com/de-tools/finops-sentinel/pkg/models/domain"
	"github.com/de-tools/finops-sentinel/pkg/resilience"
	"github.com/de-tools/finops-sentinel/pkg/services/cost"
	"github.com/de-tools/finops-sentinel/pkg/services/governance"
	"github.com/de-tools/finops-sentinel/pkg/services/summary"
	"github.com/de-tools/finops-sentinel/pkg/services/waste"
)

const maxBodyBytes = 1 << 20

type AnomalyService interface {
	DetectAcross(ctx context.Context, subscriptionIDs []string, threshold float64) (cost.Report, error)
}

type WasteService interface {
	AuditTenants(ctx context.Context, tenantIDs []string) (waste.Report, error)
}

type GovernanceService interface {
	Advise(ctx context.Context, subscriptionIDs []string, minRiskScore int) (governance.AdviceReport, error)
	ReviewCostActions(ctx context.Context, subscriptionIDs []string, frameworks []string) (governance.ReviewReport, error)
}

type BudgetService interface {
	Estimate(resources []domain.DeclaredResource, budgetLimit float64, region string) (domain.BudgetResult, error)
}

type SummaryService interface {
	Generate(ctx context.Context, req summary.Request) (summary.Summary, error)
}

// Defaults fill the fields a request leaves empty.
type Defaults struct {
	SubscriptionIDs []string
	TenantIDs       []string
	Threshold       float64
	MinRiskScore    int
	Frameworks      []string
}

type Handler struct {
	anomalies  AnomalyService
	waste      WasteService
	governance GovernanceService
	budget     BudgetService
	summary    SummaryService
	defaults   Defaults
}

func NewHandler(
	anomalies AnomalyService,
	wasteSvc WasteService,
	governanceSvc GovernanceService,
	budgetSvc BudgetService,
	summarySvc SummaryService,
	defaults Defaults,
) *Handler {
	return &Handler{
		anomalies:  anomalies,
		waste:      wasteSvc,
		governance: governanceSvc,
		budget:     budgetSvc,
		summary:    summarySvc,
		defaults:   defaults,
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) DetectAnomalies(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req api.AnomalyRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Threshold == 0 {
		req.Threshold = h.defaults.Threshold
	}

	report, err := h.anomalies.DetectAcross(ctx, orDefault(req.SubscriptionIDs, h.defaults.SubscriptionIDs), req.Threshold)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, adapters.MapAnomalyReportDomainToApi(report))
}

func (h *Handler) AuditWaste(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req api.WasteRequest
	if !decode(w, r, &req) {
		return
	}

	report, err := h.waste.AuditTenants(ctx, orDefault(req.TenantIDs, h.defaults.TenantIDs))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, adapters.MapWasteReportDomainToApi(report))
}

func (h *Handler) EstimateBudget(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req api.BudgetRequest
	if !decode(w, r, &req) {
		return
	}

	result, err := h.budget.Estimate(adapters.MapDeclaredResourcesApiToDomain(req.Resources), req.BudgetLimit, req.Region)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, adapters.MapBudgetResultDomainToApi(result))
}

func (h *Handler) Advise(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req api.AdviceRequest
	if !decode(w, r, &req) {
		return
	}
	if req.MinRiskScore == 0 {
		req.MinRiskScore = h.defaults.MinRiskScore
	}

	report, err := h.governance.Advise(ctx, orDefault(req.SubscriptionIDs, h.defaults.SubscriptionIDs), req.MinRiskScore)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, adapters.MapAdviceReportDomainToApi(report))
}

func (h *Handler) ReviewCostActions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req api.ReviewRequest
	if !decode(w, r, &req) {
		return
	}

	report, err := h.governance.ReviewCostActions(
		ctx,
		orDefault(req.SubscriptionIDs, h.defaults.SubscriptionIDs),
		orDefault(req.Frameworks, h.defaults.Frameworks),
	)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, adapters.MapReviewReportDomainToApi(report))
}

func (h *Handler) Summarize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req api.SummaryRequest
	if !decode(w, r, &req) {
		return
	}

	period, err := summary.ParsePeriod(req.Period)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	sreq := summary.DefaultRequest()
	sreq.SubscriptionIDs = orDefault(req.SubscriptionIDs, h.defaults.SubscriptionIDs)
	sreq.TenantIDs = orDefault(req.TenantIDs, h.defaults.TenantIDs)
	sreq.Period = period
	if h.defaults.Threshold != 0 {
		sreq.Threshold = h.defaults.Threshold
	}
	if h.defaults.MinRiskScore != 0 {
		sreq.MinRiskScore = h.defaults.MinRiskScore
	}
	sreq.IncludeAnomalies = flag(req.IncludeAnomalies, true)
	sreq.IncludeWaste = flag(req.IncludeWaste, true)
	sreq.IncludeGovernance = flag(req.IncludeGovernance, true)

	out, err := h.summary.Generate(ctx, sreq)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, adapters.MapSummaryDomainToApi(out))
}

// decode reads a JSON body. An empty body leaves v untouched.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	writeError(r.Context(), w, apperr.InvalidArgument("http.decode", "malformed request body: %v", err))
	return false
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(ctx).Error().
			Err(err).
			Msg("failed to encode response")
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	status := statusOf(kind)
	msg := resilience.Redact(err.Error())

	logger := zerolog.Ctx(ctx)
	if status >= http.StatusInternalServerError {
		logger.Error().Str("kind", kind.String()).Str("error", msg).Msg("request failed")
	} else {
		logger.Warn().Str("kind", kind.String()).Str("error", msg).Msg("request rejected")
	}

	writeJSON(ctx, w, status, api.Error{
		Kind:          kind.String(),
		Message:       msg,
		CorrelationID: resilience.CorrelationID(ctx),
	})
}

func statusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindInvalidArgument:
		return http.StatusBadRequest
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func orDefault(v, def []string) []string {
	if len(v) == 0 {
		return def
	}
	return v
}

func flag(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
