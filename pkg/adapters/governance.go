package adapters

import (
	"github.com/de-tools/finops-sentinel/pkg/models/api"
	"github.com/de-tools/finops-sentinel/pkg/models/domain"
	"github.com/de-tools/finops-sentinel/pkg/services/governance"
)

func MapScoredRecommendationDomainToApi(r domain.ScoredRecommendation) api.ScoredRecommendation {
	return api.ScoredRecommendation{
		ID:                   r.ID,
		SubscriptionID:       r.SubscriptionID,
		Title:                r.Title,
		Description:          r.Description,
		Category:             r.Category,
		Impact:               r.Impact,
		ImpactedResource:     r.ImpactedResource,
		RiskScore:            r.RiskScore,
		RiskFactors:          r.RiskFactors,
		Requirements:         r.Requirements,
		MatchedRules:         r.MatchedRules,
		RemediationSteps:     r.RemediationSteps,
		EstimatedEffortHours: r.EstimatedEffortHours,
		EstimatedCost:        r.EstimatedCostImpact,
	}
}

func MapScoredRecommendationsDomainToApi(rs []domain.ScoredRecommendation) []api.ScoredRecommendation {
	res := make([]api.ScoredRecommendation, 0, len(rs))
	for _, r := range rs {
		res = append(res, MapScoredRecommendationDomainToApi(r))
	}
	return res
}

func MapAdviceReportDomainToApi(r governance.AdviceReport) api.AdviceReport {
	return api.AdviceReport{
		MinRiskScore: r.MinRiskScore,
		Summary: api.GovernanceSummary{
			Total:                   r.Summary.Total,
			HighRisk:                r.Summary.HighRisk,
			MediumRisk:              r.Summary.MediumRisk,
			LowRisk:                 r.Summary.LowRisk,
			PotentialMonthlySavings: r.Summary.PotentialMonthlySavings,
			PotentialAnnualSavings:  annual(r.Summary.PotentialMonthlySavings),
			EstimatedEffortHours:    r.Summary.EstimatedEffortHours,
		},
		Recommendations: MapScoredRecommendationsDomainToApi(r.Recommendations),
		Subscriptions:   MapBranchStatusesDomainToApi(r.Statuses),
		Warnings:        MapWarningsDomainToApi(r.Warnings),
	}
}

func MapComplianceFlagDomainToApi(f domain.ComplianceFlag) api.ComplianceFlag {
	return api.ComplianceFlag{
		RuleID:             f.RuleID,
		Severity:           MapSeverityDomainToApi(f.Severity),
		FrameworksImpacted: f.FrameworksImpacted,
		Controls:           f.Controls,
		Requirement:        f.Requirement,
		Warning:            f.Warning,
		ActionRequired:     f.ActionRequired,
	}
}

func mapReviewedRecommendation(r domain.Recommendation) api.ReviewedRecommendation {
	return api.ReviewedRecommendation{
		ID:               r.ID,
		SubscriptionID:   r.SubscriptionID,
		Title:            r.Title,
		Category:         r.Category,
		ImpactedResource: r.ImpactedResource,
		PotentialSavings: r.PotentialSavings,
	}
}

func MapFlaggedRecommendationDomainToApi(r domain.FlaggedRecommendation) api.ReviewedRecommendation {
	res := mapReviewedRecommendation(r.Recommendation)
	res.MaxSeverity = MapSeverityDomainToApi(r.MaxSeverity)
	res.FrameworksImpacted = r.FrameworksImpacted
	res.ActionRequired = r.ActionRequired
	res.RequiresApproval = r.RequiresApproval
	for _, f := range r.Flags {
		res.Flags = append(res.Flags, MapComplianceFlagDomainToApi(f))
	}
	return res
}

func MapReviewReportDomainToApi(r governance.ReviewReport) api.ReviewReport {
	res := api.ReviewReport{
		Frameworks: r.Frameworks,
		Summary: api.ReviewSummary{
			Total:            r.Summary.Total,
			Safe:             r.Summary.Safe,
			Flagged:          r.Summary.Flagged,
			RequiresApproval: r.Summary.RequiresApproval,
		},
		Safe:          make([]api.ReviewedRecommendation, 0, len(r.Safe)),
		Flagged:       make([]api.ReviewedRecommendation, 0, len(r.Flagged)),
		Subscriptions: MapBranchStatusesDomainToApi(r.Statuses),
		Warnings:      MapWarningsDomainToApi(r.Warnings),
	}
	for _, s := range r.Safe {
		res.Safe = append(res.Safe, mapReviewedRecommendation(s))
	}
	for _, f := range r.Flagged {
		res.Flagged = append(res.Flagged, MapFlaggedRecommendationDomainToApi(f))
	}
	return res
}
