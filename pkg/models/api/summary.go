package api

import "time"

type SummaryRequest struct {
	SubscriptionIDs   []string `json:"subscription_ids"`
	TenantIDs         []string `json:"tenant_ids"`
	Period            string   `json:"period"`
	IncludeAnomalies  *bool    `json:"include_anomalies,omitempty"`
	IncludeWaste      *bool    `json:"include_waste,omitempty"`
	IncludeGovernance *bool    `json:"include_governance,omitempty"`
}

type SummaryMetrics struct {
	TotalSavingsPotential float64 `json:"total_savings_potential"`
	ThreeYearProjection   float64 `json:"three_year_projection"`
	ExcessSpend           float64 `json:"excess_spend"`
	WasteMonthly          float64 `json:"waste_monthly_savings"`
	GovernanceSavings     float64 `json:"governance_monthly_savings"`
	AnomalyCount          int     `json:"anomaly_count"`
	WastefulResources     int     `json:"wasteful_resources_count"`
	UnattachedDisks       int     `json:"unattached_disks"`
	IdlePublicIPs         int     `json:"idle_public_ips"`
	HighRiskItems         int     `json:"high_risk_items"`
	MediumRiskItems       int     `json:"medium_risk_items"`
}

type Summary struct {
	GeneratedAt  time.Time              `json:"generated_at"`
	Period       string                 `json:"period"`
	Sections     []string               `json:"sections"`
	Metrics      SummaryMetrics         `json:"summary_metrics"`
	TopAnomalies []Anomaly              `json:"top_anomalies"`
	TopWaste     []WasteFinding         `json:"top_waste"`
	TopRisks     []ScoredRecommendation `json:"top_risks"`
	Statuses     []BranchStatus         `json:"statuses"`
	Warnings     []Warning              `json:"warnings,omitempty"`
}
