package domain

// DeclaredResource is one entry of an already-extracted deployment resource list.
type DeclaredResource struct {
	Name         string
	ResourceType string
	SKU          string
	SizeGB       int
	Quantity     int
}

type BudgetItem struct {
	Name         string
	ResourceType string
	SKU          string
	MonthlyCost  float64
}

type BudgetResult struct {
	Region               string
	BudgetLimit          float64
	EstimatedMonthlyCost float64
	EstimatedAnnualCost  float64
	WithinBudget         bool
	Warnings             []string
	Breakdown            map[string]float64 // resource type -> monthly cost
	Items                []BudgetItem
	ResourcesAnalyzed    int
	ResourcesPriced      int
}
