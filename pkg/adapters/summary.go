package adapters

import (
	"github.com/de-tools/finops-sentinel/pkg/models/api"
	"github.com/de-tools/finops-sentinel/pkg/services/summary"
)

func MapSummaryDomainToApi(s summary.Summary) api.Summary {
	m := s.Metrics
	return api.Summary{
		GeneratedAt: s.GeneratedAt,
		Period:      string(s.Period),
		Sections:    append([]string{}, s.Sections...),
		Metrics: api.SummaryMetrics{
			TotalSavingsPotential: m.TotalSavingsPotential,
			ThreeYearProjection:   m.ThreeYearProjection,
			ExcessSpend:           m.ExcessSpend,
			WasteMonthly:          m.WasteMonthly,
			GovernanceSavings:     m.GovernanceSavings,
			AnomalyCount:          m.AnomalyCount,
			WastefulResources:     m.WastefulResourceCount,
			UnattachedDisks:       m.UnattachedDisks,
			IdlePublicIPs:         m.IdlePublicIPs,
			HighRiskItems:         m.HighRiskItems,
			MediumRiskItems:       m.MediumRiskItems,
		},
		TopAnomalies: MapAnomaliesDomainToApi(s.TopAnomalies),
		TopWaste:     MapWasteFindingsDomainToApi(s.TopWaste),
		TopRisks:     MapScoredRecommendationsDomainToApi(s.TopRisks),
		Statuses:     MapBranchStatusesDomainToApi(s.Statuses),
		Warnings:     MapWarningsDomainToApi(s.Warnings),
	}
}
