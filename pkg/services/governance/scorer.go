package governance

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/de-tools/finops-sentinel/pkg/apperr"
	"github.com/de-tools/finops-sentinel/pkg/models/domain"
)

const (
	MinRiskScore = 1
	MaxRiskScore = 10

	highRiskFrom   = 7
	mediumRiskFrom = 4

	defaultImpact      = "Medium"
	defaultEffortHours = 2
	defaultRemediation = "Review the advisor recommendation details in the cloud portal"
)

type Summary struct {
	Total                   int
	HighRisk                int
	MediumRisk              int
	LowRisk                 int
	PotentialMonthlySavings float64
	EstimatedEffortHours    float64
}

type ScoringResult struct {
	// Recommendations at or above MinRiskScore, ordered by risk, then cost impact, then id.
	Recommendations []domain.ScoredRecommendation
	Summary         Summary
	MinRiskScore    int
	Skipped         int
	Warnings        []domain.Warning
}

type Scorer struct {
	rules Rules
}

func NewScorer(rules Rules) *Scorer {
	return &Scorer{rules: rules}
}

// Score rates every well-formed recommendation and keeps those scoring at least minRiskScore.
func (s *Scorer) Score(recs []domain.Recommendation, minRiskScore int) (ScoringResult, error) {
	if minRiskScore < MinRiskScore || minRiskScore > MaxRiskScore {
		return ScoringResult{}, apperr.InvalidArgument("governance.score",
			"min risk score %d outside [%d, %d]", minRiskScore, MinRiskScore, MaxRiskScore)
	}

	result := ScoringResult{MinRiskScore: minRiskScore}
	for _, rec := range recs {
		if problem := recommendationProblem(rec); problem != "" {
			result.Skipped++
			result.Warnings = append(result.Warnings, domain.PartialData(refOf(rec), "skipped recommendation: "+problem))
			continue
		}

		scored := s.ScoreOne(rec)
		if scored.RiskScore < minRiskScore {
			continue
		}
		result.Recommendations = append(result.Recommendations, scored)
	}

	sort.SliceStable(result.Recommendations, func(i, j int) bool {
		a, b := result.Recommendations[i], result.Recommendations[j]
		if a.RiskScore != b.RiskScore {
			return a.RiskScore > b.RiskScore
		}
		if a.EstimatedCostImpact != b.EstimatedCostImpact {
			return a.EstimatedCostImpact > b.EstimatedCostImpact
		}
		return a.ID < b.ID
	})
	result.Summary = summarize(result.Recommendations)
	return result, nil
}

// ScoreOne applies the category base score and every matching modifier once, clamped to [1, 10].
func (s *Scorer) ScoreOne(rec domain.Recommendation) domain.ScoredRecommendation {
	category := s.rules.category(rec.Category)
	text := rec.Text()

	score := category.Base
	var controls, requirements, matched []string
	for _, m := range s.rules.Modifiers {
		if !m.matches(rec, text) {
			continue
		}
		score += m.Delta
		matched = append(matched, m.ID)
		controls = append(controls, m.Controls...)
		requirements = append(requirements, m.Requirements...)
	}

	impact := rec.Impact
	if impact == "" {
		impact = defaultImpact
	}
	effort, ok := category.Effort[impact]
	if !ok {
		effort = defaultEffortHours
	}

	steps := []string{defaultRemediation}
	if d := strings.TrimSpace(rec.Description); d != "" {
		steps = []string{d}
	}

	return domain.ScoredRecommendation{
		Recommendation:       rec,
		RiskScore:            max(MinRiskScore, min(MaxRiskScore, score)),
		RiskFactors:          sortedSet(controls),
		Requirements:         sortedSet(requirements),
		MatchedRules:         matched,
		RemediationSteps:     steps,
		EstimatedEffortHours: effort,
		EstimatedCostImpact:  rec.PotentialSavings,
	}
}

func summarize(recs []domain.ScoredRecommendation) Summary {
	summary := Summary{Total: len(recs)}
	savings := decimal.Zero
	for _, r := range recs {
		switch {
		case r.RiskScore >= highRiskFrom:
			summary.HighRisk++
		case r.RiskScore >= mediumRiskFrom:
			summary.MediumRisk++
		default:
			summary.LowRisk++
		}
		savings = savings.Add(decimal.NewFromFloat(r.EstimatedCostImpact))
		summary.EstimatedEffortHours += r.EstimatedEffortHours
	}
	summary.PotentialMonthlySavings = savings.Round(2).InexactFloat64()
	return summary
}

func recommendationProblem(rec domain.Recommendation) string {
	switch {
	case strings.TrimSpace(rec.Title) == "" && strings.TrimSpace(rec.Description) == "":
		return "no title or description"
	case strings.TrimSpace(rec.Category) == "":
		return "no category"
	case rec.PotentialSavings < 0:
		return fmt.Sprintf("negative potential savings %.2f", rec.PotentialSavings)
	}
	return ""
}

func refOf(rec domain.Recommendation) string {
	if rec.ID != "" {
		return rec.ID
	}
	if rec.Title != "" {
		return rec.Title
	}
	return "unidentified recommendation"
}

func sortedSet(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	out := slices.Clone(items)
	slices.Sort(out)
	return slices.Compact(out)
}
