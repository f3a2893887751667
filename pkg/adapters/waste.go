package adapters

import (
	"github.com/de-tools/finops-sentinel/pkg/models/api"
	"github.com/de-tools/finops-sentinel/pkg/models/domain"
	"github.com/de-tools/finops-sentinel/pkg/services/waste"
)

func MapWasteFindingDomainToApi(f domain.WasteFinding) api.WasteFinding {
	return api.WasteFinding{
		ResourceID:       f.Resource.ID,
		Name:             f.Resource.Name,
		Kind:             string(f.Resource.Kind),
		SubscriptionID:   f.Resource.SubscriptionID,
		ResourceGroup:    f.Resource.ResourceGroup,
		SKU:              f.Resource.SKU,
		SizeGB:           f.Resource.SizeGB,
		Region:           f.Resource.Region,
		MonthlyCost:      f.EstimatedMonthlyCost,
		PricingEstimated: f.PricingEstimated,
	}
}

func MapWasteFindingsDomainToApi(fs []domain.WasteFinding) []api.WasteFinding {
	res := make([]api.WasteFinding, 0, len(fs))
	for _, f := range fs {
		res = append(res, MapWasteFindingDomainToApi(f))
	}
	return res
}

func MapTenantAuditDomainToApi(a domain.TenantAudit) api.TenantAudit {
	res := api.TenantAudit{
		TenantID:            a.TenantID,
		ResourcesScanned:    a.ResourceCount,
		UnattachedDisks:     []api.WasteFinding{},
		IdlePublicIPs:       []api.WasteFinding{},
		TotalMonthlySavings: a.MonthlyTotal,
		TotalAnnualSavings:  annual(a.MonthlyTotal),
		Warnings:            MapWarningsDomainToApi(a.Warnings),
	}
	for _, f := range a.Findings {
		switch f.Resource.Kind {
		case domain.ResourceKindDisk:
			res.UnattachedDisks = append(res.UnattachedDisks, MapWasteFindingDomainToApi(f))
		case domain.ResourceKindPublicIP:
			res.IdlePublicIPs = append(res.IdlePublicIPs, MapWasteFindingDomainToApi(f))
		}
	}
	return res
}

func MapWasteReportDomainToApi(r waste.Report) api.WasteReport {
	res := api.WasteReport{
		TenantsAudited:      len(r.Audits),
		TotalFindings:       r.FindingCount(),
		TotalMonthlySavings: r.MonthlyTotal,
		TotalAnnualSavings:  annual(r.MonthlyTotal),
		Tenants:             make([]api.TenantAudit, 0, len(r.Audits)),
		Statuses:            MapBranchStatusesDomainToApi(r.Statuses),
		Warnings:            MapWarningsDomainToApi(r.Warnings),
	}
	for _, a := range r.Audits {
		res.Tenants = append(res.Tenants, MapTenantAuditDomainToApi(a))
	}
	return res
}
