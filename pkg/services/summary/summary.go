package summary

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/de-tools/finops-sentinel/pkg/apperr"
	"github.com/de-tools/finops-sentinel/pkg/models/domain"
	"github.com/de-tools/finops-sentinel/pkg/resilience"
	"github.com/de-tools/finops-sentinel/pkg/services/cost"
	"github.com/de-tools/finops-sentinel/pkg/services/governance"
	"github.com/de-tools/finops-sentinel/pkg/services/waste"
)

type Period string

const (
	PeriodMonthly Period = "monthly"
	PeriodAnnual  Period = "annual"

	// TopN bounds the detail tables of a summary.
	TopN = 5

	projectionMonths = 36
)

func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case PeriodMonthly, PeriodAnnual:
		return p, nil
	case "":
		return PeriodMonthly, nil
	default:
		return "", apperr.InvalidArgument("summary.period", "period %q must be %q or %q", s, PeriodMonthly, PeriodAnnual)
	}
}

// Multiplier converts monthly figures into figures for the period.
func (p Period) Multiplier() int64 {
	if p == PeriodAnnual {
		return 12
	}
	return 1
}

// Inputs holds the section reports to combine. A nil section is left out of the summary.
type Inputs struct {
	Anomalies  *cost.Report
	Waste      *waste.Report
	Governance *governance.AdviceReport
}

type Metrics struct {
	// Monthly contributions per section.
	ExcessSpend       float64
	WasteMonthly      float64
	GovernanceSavings float64

	// TotalSavingsPotential is the sum of the contributions scaled to the period.
	TotalSavingsPotential float64
	ThreeYearProjection   float64

	AnomalyCount          int
	UnattachedDisks       int
	IdlePublicIPs         int
	WastefulResourceCount int
	HighRiskItems         int
	MediumRiskItems       int
}

type Summary struct {
	GeneratedAt  time.Time
	Period       Period
	Sections     []string
	Metrics      Metrics
	TopAnomalies []domain.Anomaly
	TopWaste     []domain.WasteFinding
	TopRisks     []domain.ScoredRecommendation
	Statuses     []domain.BranchStatus
	Warnings     []domain.Warning
}

func (s Summary) Includes(section string) bool {
	for _, v := range s.Sections {
		if v == section {
			return true
		}
	}
	return false
}

const (
	SectionAnomalies  = "anomalies"
	SectionWaste      = "waste"
	SectionGovernance = "governance"
)

// Compose combines the section reports into executive metrics for the period.
func Compose(in Inputs, period Period, now time.Time) (Summary, error) {
	if period != PeriodMonthly && period != PeriodAnnual {
		return Summary{}, apperr.InvalidArgument("summary.compose", "period %q must be %q or %q", period, PeriodMonthly, PeriodAnnual)
	}

	out := Summary{GeneratedAt: now.UTC(), Period: period}
	monthly := decimal.Zero

	if r := in.Anomalies; r != nil {
		out.Sections = append(out.Sections, SectionAnomalies)
		excess := decimal.NewFromFloat(r.TotalExcessSpend)
		monthly = monthly.Add(excess)
		out.Metrics.ExcessSpend = excess.Round(2).InexactFloat64()
		out.Metrics.AnomalyCount = len(r.Anomalies)
		out.TopAnomalies = head(r.Anomalies, TopN)
		out.Statuses = append(out.Statuses, r.Statuses...)
		out.Warnings = append(out.Warnings, r.Warnings...)
	}

	if r := in.Waste; r != nil {
		out.Sections = append(out.Sections, SectionWaste)
		wasted := decimal.NewFromFloat(r.MonthlyTotal)
		monthly = monthly.Add(wasted)
		out.Metrics.WasteMonthly = wasted.Round(2).InexactFloat64()

		var findings []domain.WasteFinding
		for _, a := range r.Audits {
			for _, f := range a.Findings {
				switch f.Resource.Kind {
				case domain.ResourceKindDisk:
					out.Metrics.UnattachedDisks++
				case domain.ResourceKindPublicIP:
					out.Metrics.IdlePublicIPs++
				}
				findings = append(findings, f)
			}
		}
		out.Metrics.WastefulResourceCount = len(findings)
		sort.SliceStable(findings, func(i, j int) bool {
			if findings[i].EstimatedMonthlyCost != findings[j].EstimatedMonthlyCost {
				return findings[i].EstimatedMonthlyCost > findings[j].EstimatedMonthlyCost
			}
			return findings[i].Resource.ID < findings[j].Resource.ID
		})
		out.TopWaste = head(findings, TopN)
		out.Statuses = append(out.Statuses, r.Statuses...)
		out.Warnings = append(out.Warnings, r.Warnings...)
	}

	if r := in.Governance; r != nil {
		out.Sections = append(out.Sections, SectionGovernance)
		savings := decimal.NewFromFloat(r.Summary.PotentialMonthlySavings)
		monthly = monthly.Add(savings)
		out.Metrics.GovernanceSavings = savings.Round(2).InexactFloat64()
		out.Metrics.HighRiskItems = r.Summary.HighRisk
		out.Metrics.MediumRiskItems = r.Summary.MediumRisk
		out.TopRisks = head(r.Recommendations, TopN)
		out.Statuses = append(out.Statuses, r.Statuses...)
		out.Warnings = append(out.Warnings, r.Warnings...)
	}

	out.Metrics.TotalSavingsPotential = monthly.Mul(decimal.NewFromInt(period.Multiplier())).Round(2).InexactFloat64()
	out.Metrics.ThreeYearProjection = monthly.Mul(decimal.NewFromInt(projectionMonths)).Round(2).InexactFloat64()
	return out, nil
}

func head[T any](items []T, n int) []T {
	if len(items) <= n {
		return append([]T(nil), items...)
	}
	return append([]T(nil), items[:n]...)
}

func sectionWarning(section string, err error) domain.Warning {
	return domain.PartialData(section, "section omitted: "+resilience.Redact(err.Error()))
}
