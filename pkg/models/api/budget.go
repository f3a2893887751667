package api

type DeclaredResource struct {
	Name         string `json:"name"`
	ResourceType string `json:"type"`
	SKU          string `json:"sku"`
	SizeGB       int    `json:"size_gb,omitempty"`
	Quantity     int    `json:"quantity,omitempty"`
}

type BudgetRequest struct {
	Resources   []DeclaredResource `json:"resources"`
	BudgetLimit float64            `json:"budget_limit"`
	Region      string             `json:"region,omitempty"`
}

type BudgetItem struct {
	Name         string  `json:"name"`
	ResourceType string  `json:"type"`
	SKU          string  `json:"sku"`
	MonthlyCost  float64 `json:"monthly_cost"`
}

type BudgetReport struct {
	Region               string             `json:"region"`
	BudgetLimit          float64            `json:"budget_limit"`
	EstimatedMonthlyCost float64            `json:"estimated_monthly_cost"`
	EstimatedAnnualCost  float64            `json:"estimated_annual_cost"`
	WithinBudget         bool               `json:"within_budget"`
	Warnings             []string           `json:"warnings"`
	Breakdown            map[string]float64 `json:"cost_breakdown"`
	Items                []BudgetItem       `json:"items"`
	ResourcesAnalyzed    int                `json:"resources_analyzed"`
	ResourcesPriced      int                `json:"resources_priced"`
}
