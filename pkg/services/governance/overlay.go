package governance

import (
	"slices"
	"strings"

	"github.com/de-tools/finops-sentinel/pkg/apperr"
	"github.com/de-tools/finops-sentinel/pkg/models/domain"
)

const unclassifiedRuleID = "unclassified"

var actions = map[domain.Severity]string{
	domain.SeverityCritical: "STOP: Do not implement without compliance officer approval. May violate regulatory requirements.",
	domain.SeverityHigh:     "REVIEW: Requires security/compliance team review before implementation. May impact critical controls.",
	domain.SeverityMedium:   "ASSESS: Review impact on compliance controls. Document justification if proceeding.",
	domain.SeverityLow:      "MONITOR: Minimal compliance impact. Proceed with standard change management.",
}

// ActionFor returns the required action for a flag of the given severity.
func ActionFor(s domain.Severity) string {
	if a, ok := actions[s]; ok {
		return a
	}
	return actions[domain.SeverityMedium]
}

type OverlaySummary struct {
	Total            int
	Safe             int
	Flagged          int
	RequiresApproval int
}

// OverlayResult partitions the input: every recommendation lands in exactly one of Safe and Flagged.
type OverlayResult struct {
	Safe       []domain.Recommendation
	Flagged    []domain.FlaggedRecommendation
	Frameworks []string
	Summary    OverlaySummary
	Warnings   []domain.Warning
}

type Overlay struct {
	rules Rules
}

func NewOverlay(rules Rules) *Overlay {
	return &Overlay{rules: rules}
}

// Apply checks cost-saving recommendations against the compliance rules of the selected
// frameworks (every known framework when none is named). Naming only unknown frameworks is an
// error rather than an empty rule set.
func (o *Overlay) Apply(recs []domain.Recommendation, frameworks []string) (OverlayResult, error) {
	var result OverlayResult
	enabled, err := o.resolve(frameworks, &result)
	if err != nil {
		return OverlayResult{}, err
	}

	for _, rec := range recs {
		flags := o.flags(rec, enabled)
		if len(flags) == 0 {
			result.Safe = append(result.Safe, rec)
			continue
		}

		flagged := domain.FlaggedRecommendation{Recommendation: rec, Flags: flags, MaxSeverity: domain.SeverityLow}
		for _, f := range flags {
			flagged.MaxSeverity = max(flagged.MaxSeverity, f.Severity)
			flagged.FrameworksImpacted = append(flagged.FrameworksImpacted, f.FrameworksImpacted...)
		}
		flagged.FrameworksImpacted = sortedSet(flagged.FrameworksImpacted)
		flagged.ActionRequired = ActionFor(flagged.MaxSeverity)
		flagged.RequiresApproval = flagged.MaxSeverity == domain.SeverityCritical
		if flagged.RequiresApproval {
			result.Summary.RequiresApproval++
		}
		result.Flagged = append(result.Flagged, flagged)
	}

	result.Summary.Total = len(recs)
	result.Summary.Safe = len(result.Safe)
	result.Summary.Flagged = len(result.Flagged)
	return result, nil
}

// CheckFrameworks fails when frameworks names only unknown frameworks.
func (o *Overlay) CheckFrameworks(frameworks []string) error {
	_, err := o.resolve(frameworks, &OverlayResult{})
	return err
}

func (o *Overlay) resolve(frameworks []string, result *OverlayResult) (map[string]struct{}, error) {
	enabled := o.enabled(frameworks, result)
	if len(enabled) == 0 && len(o.rules.Compliance) > 0 {
		return nil, apperr.InvalidArgument("governance.overlay", "no known framework in %v", frameworks)
	}
	return enabled, nil
}

func (o *Overlay) enabled(frameworks []string, result *OverlayResult) map[string]struct{} {
	known := o.rules.Frameworks()
	enabled := make(map[string]struct{})
	if len(frameworks) == 0 {
		for _, f := range known {
			enabled[f] = struct{}{}
		}
		result.Frameworks = known
		return enabled
	}

	for _, requested := range frameworks {
		idx := slices.IndexFunc(known, func(k string) bool { return strings.EqualFold(k, strings.TrimSpace(requested)) })
		if idx < 0 {
			result.Warnings = append(result.Warnings, domain.PartialData(requested, "unknown compliance framework ignored"))
			continue
		}
		if _, ok := enabled[known[idx]]; !ok {
			enabled[known[idx]] = struct{}{}
			result.Frameworks = append(result.Frameworks, known[idx])
		}
	}
	return enabled
}

func (o *Overlay) flags(rec domain.Recommendation, enabled map[string]struct{}) []domain.ComplianceFlag {
	text := strings.TrimSpace(rec.Text())
	if text == "" {
		// nothing to match against; do not pass it as safe
		return []domain.ComplianceFlag{{
			RecommendationRef: refOf(rec),
			RuleID:            unclassifiedRuleID,
			Severity:          domain.SeverityMedium,
			Warning:           "recommendation has no title, description or resource type; compliance impact unknown",
			ActionRequired:    ActionFor(domain.SeverityMedium),
		}}
	}

	var flags []domain.ComplianceFlag
	for _, rule := range o.rules.Compliance {
		if _, ok := enabled[rule.Framework]; !ok {
			continue
		}
		if !rule.matches(rec, text) {
			continue
		}
		flags = append(flags, domain.ComplianceFlag{
			RecommendationRef:  refOf(rec),
			RuleID:             rule.ID,
			Severity:           rule.Severity,
			FrameworksImpacted: []string{rule.Framework},
			Controls:           rule.Controls,
			Requirement:        rule.Requirement,
			Warning:            rule.Warning,
			ActionRequired:     ActionFor(rule.Severity),
		})
	}
	return flags
}
