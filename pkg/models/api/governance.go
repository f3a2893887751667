package api

type AdviceRequest struct {
	SubscriptionIDs []string `json:"subscription_ids"`
	MinRiskScore    int      `json:"min_risk_score"`
}

type ReviewRequest struct {
	SubscriptionIDs []string `json:"subscription_ids"`
	Frameworks      []string `json:"frameworks"`
}

type ScoredRecommendation struct {
	ID                   string   `json:"id"`
	SubscriptionID       string   `json:"subscription_id"`
	Title                string   `json:"title"`
	Description          string   `json:"description"`
	Category             string   `json:"category"`
	Impact               string   `json:"impact"`
	ImpactedResource     string   `json:"impacted_resource"`
	RiskScore            int      `json:"risk_score"`
	RiskFactors          []string `json:"risk_factors"`
	Requirements         []string `json:"requirements,omitempty"`
	MatchedRules         []string `json:"matched_rules"`
	RemediationSteps     []string `json:"remediation_steps"`
	EstimatedEffortHours float64  `json:"estimated_effort_hours"`
	EstimatedCost        float64  `json:"estimated_cost"`
}

type GovernanceSummary struct {
	Total                   int     `json:"total_recommendations"`
	HighRisk                int     `json:"high_risk_count"`
	MediumRisk              int     `json:"medium_risk_count"`
	LowRisk                 int     `json:"low_risk_count"`
	PotentialMonthlySavings float64 `json:"potential_monthly_savings"`
	PotentialAnnualSavings  float64 `json:"potential_annual_savings"`
	EstimatedEffortHours    float64 `json:"estimated_effort_hours"`
}

type AdviceReport struct {
	MinRiskScore    int                    `json:"min_risk_score"`
	Summary         GovernanceSummary      `json:"summary"`
	Recommendations []ScoredRecommendation `json:"recommendations"`
	Subscriptions   []BranchStatus         `json:"subscriptions"`
	Warnings        []Warning              `json:"warnings,omitempty"`
}

type ComplianceFlag struct {
	RuleID             string   `json:"rule_id"`
	Severity           Severity `json:"severity"`
	FrameworksImpacted []string `json:"frameworks_impacted"`
	Controls           []string `json:"controls"`
	Requirement        string   `json:"requirement"`
	Warning            string   `json:"warning"`
	ActionRequired     string   `json:"action_required"`
}

type ReviewedRecommendation struct {
	ID                 string           `json:"id"`
	SubscriptionID     string           `json:"subscription_id"`
	Title              string           `json:"title"`
	Category           string           `json:"category"`
	ImpactedResource   string           `json:"impacted_resource"`
	PotentialSavings   float64          `json:"potential_savings"`
	MaxSeverity        Severity         `json:"max_severity,omitempty"`
	FrameworksImpacted []string         `json:"frameworks_impacted,omitempty"`
	ActionRequired     string           `json:"action_required,omitempty"`
	RequiresApproval   bool             `json:"requires_approval"`
	Flags              []ComplianceFlag `json:"compliance_flags,omitempty"`
}

type ReviewSummary struct {
	Total            int `json:"total"`
	Safe             int `json:"safe"`
	Flagged          int `json:"flagged"`
	RequiresApproval int `json:"requires_approval"`
}

type ReviewReport struct {
	Frameworks    []string                 `json:"frameworks"`
	Summary       ReviewSummary            `json:"summary"`
	Safe          []ReviewedRecommendation `json:"safe_recommendations"`
	Flagged       []ReviewedRecommendation `json:"flagged_recommendations"`
	Subscriptions []BranchStatus           `json:"subscriptions"`
	Warnings      []Warning                `json:"warnings,omitempty"`
}
