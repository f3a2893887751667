package waste

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/de-tools/finops-sentinel/pkg/apperr"
	"github.com/de-tools/finops-sentinel/pkg/models/domain"
	"github.com/de-tools/finops-sentinel/pkg/resilience"
	"github.com/de-tools/finops-sentinel/pkg/store/pricing"
)

// InventoryFetcher lists the disks and public IPs of one tenant.
type InventoryFetcher interface {
	FetchInventory(ctx context.Context, tenantID string) (domain.TenantInventory, error)
}

// Report aggregates the audits of every tenant that answered.
type Report struct {
	Audits       []domain.TenantAudit
	MonthlyTotal float64
	Statuses     []domain.BranchStatus
	Warnings     []domain.Warning
}

func (r Report) FindingCount() int {
	n := 0
	for _, a := range r.Audits {
		n += len(a.Findings)
	}
	return n
}

type Service struct {
	fetcher  InventoryFetcher
	prices   pricing.Store
	layer    *resilience.Layer
	settings Settings
}

func NewService(fetcher InventoryFetcher, prices pricing.Store, layer *resilience.Layer, settings Settings) *Service {
	return &Service{
		fetcher:  fetcher,
		prices:   prices,
		layer:    layer,
		settings: settings,
	}
}

// AuditTenants fetches every tenant inventory concurrently and audits the tenants that answered.
func (s *Service) AuditTenants(ctx context.Context, tenantIDs []string) (Report, error) {
	if len(tenantIDs) == 0 {
		return Report{}, apperr.InvalidArgument("waste.audit_tenants", "at least one tenant is required")
	}
	if s.settings.PublicIPGracePeriod < 0 || s.settings.DefaultDiskPrice < 0 || s.settings.DefaultPublicIPPrice < 0 {
		return Report{}, apperr.InvalidArgument("waste.audit_tenants", "grace period and default prices must not be negative")
	}

	logger := zerolog.Ctx(ctx)
	logger.Info().Int("tenants", len(tenantIDs)).Msg("auditing tenants for idle resources")

	branches := resilience.FanOut(ctx, s.layer, "waste.fetch_inventory", tenantIDs, s.fetcher.FetchInventory)

	var report Report
	var errs []error
	total := decimal.Zero
	for _, b := range branches {
		report.Statuses = append(report.Statuses, b.Status())
		if b.Err != nil {
			errs = append(errs, b.Err)
			logger.Warn().
				Str("tenant_id", b.Target).
				Str("correlation_id", b.CorrelationID).
				Str("error", resilience.Redact(b.Err.Error())).
				Msg("tenant inventory fetch failed")
			continue
		}

		inv := b.Value
		if inv.TenantID == "" {
			inv.TenantID = b.Target
		}
		audit := Audit(inv, s.prices, s.settings)
		report.Audits = append(report.Audits, audit)
		report.Warnings = append(report.Warnings, audit.Warnings...)
		total = total.Add(decimal.NewFromFloat(audit.MonthlyTotal))
	}
	report.MonthlyTotal = total.Round(2).InexactFloat64()

	if len(errs) == len(branches) {
		return report, apperr.Unavailable("waste.audit_tenants", fmt.Errorf("all %d tenants failed: %w", len(errs), errors.Join(errs...)))
	}

	logger.Info().
		Int("findings", report.FindingCount()).
		Float64("monthly_total", report.MonthlyTotal).
		Msg("waste audit completed")
	return report, nil
}
