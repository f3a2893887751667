package domain

type Recommendation struct {
	ID               string
	SubscriptionID   string
	Title            string
	Description      string
	Category         string // Security, Cost, Performance, HighAvailability, OperationalExcellence
	Impact           string // High, Medium, Low
	ImpactedResource string
	ResourceType     string
	Tags             map[string]string
	PotentialSavings float64 // monthly, provider currency
}

// Text is the lower-cased searchable text used by keyword rules.
func (r Recommendation) Text() string {
	return lower(r.Title + " " + r.Description + " " + r.ResourceType)
}

type ScoredRecommendation struct {
	Recommendation
	RiskScore            int
	RiskFactors          []string // control identifiers
	Requirements         []string // regulatory requirements touched by the matched rules
	MatchedRules         []string
	RemediationSteps     []string
	EstimatedEffortHours float64
	EstimatedCostImpact  float64
}

type ComplianceFlag struct {
	RecommendationRef  string
	RuleID             string
	Severity           Severity
	FrameworksImpacted []string
	Controls           []string
	Requirement        string
	Warning            string
	ActionRequired     string
}

type FlaggedRecommendation struct {
	Recommendation
	Flags              []ComplianceFlag
	MaxSeverity        Severity
	FrameworksImpacted []string
	ActionRequired     string
	// RequiresApproval is set for CRITICAL flags. Callers must never auto-apply these.
	RequiresApproval bool
}
