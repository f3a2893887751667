package adapters

import (
	"maps"

	"github.com/de-tools/finops-sentinel/pkg/models/api"
	"github.com/de-tools/finops-sentinel/pkg/models/domain"
)

func MapDeclaredResourcesApiToDomain(rs []api.DeclaredResource) []domain.DeclaredResource {
	res := make([]domain.DeclaredResource, 0, len(rs))
	for _, r := range rs {
		res = append(res, domain.DeclaredResource{
			Name:         r.Name,
			ResourceType: r.ResourceType,
			SKU:          r.SKU,
			SizeGB:       r.SizeGB,
			Quantity:     r.Quantity,
		})
	}
	return res
}

func MapBudgetResultDomainToApi(r domain.BudgetResult) api.BudgetReport {
	res := api.BudgetReport{
		Region:               r.Region,
		BudgetLimit:          r.BudgetLimit,
		EstimatedMonthlyCost: r.EstimatedMonthlyCost,
		EstimatedAnnualCost:  r.EstimatedAnnualCost,
		WithinBudget:         r.WithinBudget,
		Warnings:             append([]string{}, r.Warnings...),
		Breakdown:            maps.Clone(r.Breakdown),
		Items:                make([]api.BudgetItem, 0, len(r.Items)),
		ResourcesAnalyzed:    r.ResourcesAnalyzed,
		ResourcesPriced:      r.ResourcesPriced,
	}
	if res.Breakdown == nil {
		res.Breakdown = map[string]float64{}
	}
	for _, it := range r.Items {
		res.Items = append(res.Items, api.BudgetItem{
			Name:         it.Name,
			ResourceType: it.ResourceType,
			SKU:          it.SKU,
			MonthlyCost:  it.MonthlyCost,
		})
	}
	return res
}
