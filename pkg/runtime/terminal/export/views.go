package export

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/de-tools/finops-sentinel/pkg/models/api"
)

const currencyUSD = "USD"

func AnomalyView(r api.AnomalyReport) Report {
	details := make([]Detail, 0, len(r.Anomalies))
	for _, a := range r.Anomalies {
		details = append(details, Detail{
			Name:        a.SubscriptionID + "/" + a.ServiceName,
			Value:       Money(a.ActualCost),
			Unit:        fmt.Sprintf("+%.1f%%", a.VariancePercent),
			Description: fmt.Sprintf("%s baseline %s, excess %s", a.Date.Format("2006-01-02"), Money(a.BaselineCost), Money(a.ExcessAmount)),
		})
	}
	return Report{
		Title:       "Cost Anomalies",
		Period:      &r.Period,
		Currency:    currencyUSD,
		TotalLabel:  "Excess Spend",
		TotalAmount: r.TotalExcessSpend,
		Sections: []Section{
			{
				Title: "Summary",
				Summary: []Metric{
					{"Threshold", strconv.FormatFloat(r.Threshold, 'f', -1, 64) + "x"},
					{"Series Analyzed", strconv.Itoa(r.SeriesAnalyzed)},
					{"Series Skipped", strconv.Itoa(len(r.Skipped))},
					{"Anomalies Found", strconv.Itoa(r.TotalAnomalies)},
				},
				Details: details,
				Advice:  "Investigate these services for unexpected scaling or configuration changes.",
			},
			statusSection("Subscriptions", r.Subscriptions),
		},
		Warnings: r.Warnings,
	}
}

func WasteView(r api.WasteReport) Report {
	sections := []Section{{
		Title: "Summary",
		Summary: []Metric{
			{"Tenants Audited", strconv.Itoa(r.TenantsAudited)},
			{"Wasteful Resources", strconv.Itoa(r.TotalFindings)},
			{"Annual Savings Potential", "$" + Money(r.TotalAnnualSavings)},
		},
	}}
	warnings := append([]api.Warning{}, r.Warnings...)
	for _, t := range r.Tenants {
		var details []Detail
		for _, f := range append(append([]api.WasteFinding{}, t.UnattachedDisks...), t.IdlePublicIPs...) {
			details = append(details, findingDetail(f))
		}
		sections = append(sections, Section{
			Title: "Tenant " + t.TenantID,
			Summary: []Metric{
				{"Resources Scanned", strconv.Itoa(t.ResourcesScanned)},
				{"Unattached Disks", strconv.Itoa(len(t.UnattachedDisks))},
				{"Idle Public IPs", strconv.Itoa(len(t.IdlePublicIPs))},
				{"Monthly Savings", "$" + Money(t.TotalMonthlySavings)},
			},
			Details: details,
			Advice:  "Delete or archive these unattached resources to realize immediate savings.",
		})
		warnings = append(warnings, t.Warnings...)
	}
	sections = append(sections, statusSection("Tenants", r.Statuses))

	return Report{
		Title:       "Resource Waste Audit",
		Currency:    currencyUSD,
		TotalLabel:  "Monthly Savings Potential",
		TotalAmount: r.TotalMonthlySavings,
		Sections:    sections,
		Warnings:    warnings,
	}
}

func findingDetail(f api.WasteFinding) Detail {
	unit := f.Kind
	if f.SizeGB > 0 {
		unit = strconv.Itoa(f.SizeGB) + "GB"
	}
	desc := strings.TrimSpace(f.SKU + " " + f.Region)
	if f.PricingEstimated {
		desc += " (estimated price)"
	}
	return Detail{Name: f.Name, Value: Money(f.MonthlyCost), Unit: unit, Description: desc}
}

func BudgetView(r api.BudgetReport) Report {
	status := "WITHIN BUDGET"
	if !r.WithinBudget {
		status = "BUDGET EXCEEDED"
	}
	details := make([]Detail, 0, len(r.Items))
	for _, it := range r.Items {
		details = append(details, Detail{Name: it.Name, Value: Money(it.MonthlyCost), Unit: "month", Description: it.ResourceType + " " + it.SKU})
	}
	warnings := make([]api.Warning, 0, len(r.Warnings))
	for _, w := range r.Warnings {
		warnings = append(warnings, api.Warning{Kind: "budget", Subject: r.Region, Message: w})
	}
	return Report{
		Title:       "Budget Estimate",
		Currency:    currencyUSD,
		TotalLabel:  "Estimated Monthly Cost",
		TotalAmount: r.EstimatedMonthlyCost,
		Sections: []Section{{
			Title: "Summary",
			Summary: []Metric{
				{"Status", status},
				{"Region", r.Region},
				{"Budget Limit", "$" + Money(r.BudgetLimit)},
				{"Estimated Annual Cost", "$" + Money(r.EstimatedAnnualCost)},
				{"Resources Priced", fmt.Sprintf("%d/%d", r.ResourcesPriced, r.ResourcesAnalyzed)},
			},
			Details: details,
		}},
		Warnings: warnings,
	}
}

func AdviceView(r api.AdviceReport) Report {
	details := make([]Detail, 0, len(r.Recommendations))
	for _, rec := range r.Recommendations {
		details = append(details, riskDetail(rec))
	}
	s := r.Summary
	return Report{
		Title:       "Governance Risk Assessment",
		Currency:    currencyUSD,
		TotalLabel:  "Potential Monthly Savings",
		TotalAmount: s.PotentialMonthlySavings,
		Sections: []Section{
			{
				Title: "Summary",
				Summary: []Metric{
					{"Minimum Risk Score", strconv.Itoa(r.MinRiskScore)},
					{"Recommendations", strconv.Itoa(s.Total)},
					{"High Risk", strconv.Itoa(s.HighRisk)},
					{"Medium Risk", strconv.Itoa(s.MediumRisk)},
					{"Low Risk", strconv.Itoa(s.LowRisk)},
					{"Estimated Effort", strconv.FormatFloat(s.EstimatedEffortHours, 'f', -1, 64) + "h"},
				},
				Details: details,
				Advice:  "Prioritize high-risk items to maintain compliance and security posture.",
			},
			statusSection("Subscriptions", r.Subscriptions),
		},
		Warnings: r.Warnings,
	}
}

func riskDetail(rec api.ScoredRecommendation) Detail {
	return Detail{
		Name:        rec.Title,
		Value:       fmt.Sprintf("Risk %d/10", rec.RiskScore),
		Unit:        strconv.FormatFloat(rec.EstimatedEffortHours, 'f', -1, 64) + "h",
		Description: rec.Category + ": " + strings.Join(rec.RiskFactors, ", "),
	}
}

func ReviewView(r api.ReviewReport) Report {
	flagged := make([]Detail, 0, len(r.Flagged))
	var total float64
	for _, f := range r.Flagged {
		unit := string(f.MaxSeverity)
		if f.RequiresApproval {
			unit += "*"
		}
		flagged = append(flagged, Detail{
			Name:        f.Title,
			Value:       Money(f.PotentialSavings),
			Unit:        unit,
			Description: strings.Join(f.FrameworksImpacted, ", ") + ": " + f.ActionRequired,
		})
		total += f.PotentialSavings
	}
	safe := make([]Detail, 0, len(r.Safe))
	for _, s := range r.Safe {
		safe = append(safe, Detail{Name: s.Title, Value: Money(s.PotentialSavings), Unit: "safe", Description: s.ImpactedResource})
		total += s.PotentialSavings
	}
	return Report{
		Title:       "Compliance Review of Cost Actions",
		Currency:    currencyUSD,
		TotalLabel:  "Savings Under Review",
		TotalAmount: total,
		Sections: []Section{
			{
				Title: "Summary",
				Summary: []Metric{
					{"Frameworks", strings.Join(r.Frameworks, ", ")},
					{"Reviewed", strconv.Itoa(r.Summary.Total)},
					{"Safe", strconv.Itoa(r.Summary.Safe)},
					{"Flagged", strconv.Itoa(r.Summary.Flagged)},
					{"Requires Approval", strconv.Itoa(r.Summary.RequiresApproval)},
				},
			},
			{Title: "Flagged", Details: flagged, Advice: "Items marked * require approval and must never be applied automatically."},
			{Title: "Safe to Apply", Details: safe},
			statusSection("Subscriptions", r.Subscriptions),
		},
		Warnings: r.Warnings,
	}
}

func SummaryView(s api.Summary) Report {
	period := titleCase(s.Period)
	m := s.Metrics
	sections := []Section{}

	for _, name := range s.Sections {
		switch name {
		case "anomalies":
			details := make([]Detail, 0, len(s.TopAnomalies))
			for _, a := range s.TopAnomalies {
				details = append(details, Detail{
					Name:        a.ServiceName,
					Value:       Money(a.ActualCost),
					Unit:        fmt.Sprintf("+%.1f%%", a.VariancePercent),
					Description: a.SubscriptionID,
				})
			}
			sections = append(sections, Section{
				Title: "Cost Anomalies Detected",
				Summary: []Metric{
					{"Anomalies Found", strconv.Itoa(m.AnomalyCount)},
					{"Excess Spend", "$" + Money(m.ExcessSpend)},
				},
				Details: details,
				Advice:  "Investigate these services for unexpected scaling or configuration changes.",
			})
		case "waste":
			details := make([]Detail, 0, len(s.TopWaste))
			for _, f := range s.TopWaste {
				details = append(details, findingDetail(f))
			}
			sections = append(sections, Section{
				Title: "Wasteful Resources Identified",
				Summary: []Metric{
					{"Monthly Savings Potential", "$" + Money(m.WasteMonthly)},
					{"Unattached Disks", strconv.Itoa(m.UnattachedDisks)},
					{"Idle Public IPs", strconv.Itoa(m.IdlePublicIPs)},
				},
				Details: details,
				Advice:  "Delete or archive these unattached resources to realize immediate savings.",
			})
		case "governance":
			details := make([]Detail, 0, len(s.TopRisks))
			for _, r := range s.TopRisks {
				details = append(details, riskDetail(r))
			}
			sections = append(sections, Section{
				Title: "Security & Compliance Risks",
				Summary: []Metric{
					{"High-Risk Items", strconv.Itoa(m.HighRiskItems)},
					{"Medium-Risk Items", strconv.Itoa(m.MediumRiskItems)},
					{"Compliance Savings", "$" + Money(m.GovernanceSavings) + "/month"},
				},
				Details: details,
				Advice:  "Prioritize high-risk items to maintain compliance and security posture.",
			})
		}
	}

	sections = append(sections, Section{
		Title: "Total ROI Opportunity",
		Summary: []Metric{
			{period + " Savings", "$" + Money(m.TotalSavingsPotential)},
			{"3-Year Projection", "$" + Money(m.ThreeYearProjection)},
		},
	}, statusSection("Sources", s.Statuses))

	return Report{
		Title:       "FinOps ROI Report (" + period + ")",
		Currency:    currencyUSD,
		TotalLabel:  period + " Savings Potential",
		TotalAmount: m.TotalSavingsPotential,
		Sections:    sections,
		Warnings:    s.Warnings,
	}
}

func statusSection(title string, statuses []api.BranchStatus) Section {
	sec := Section{Title: title}
	for _, st := range statuses {
		desc := st.CorrelationID
		if st.Error != "" {
			desc = st.ErrorKind + ": " + st.Error
		}
		sec.Details = append(sec.Details, Detail{Name: st.Target, Value: st.State, Description: desc})
	}
	return sec
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
