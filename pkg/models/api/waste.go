package api

type WasteRequest struct {
	TenantIDs []string `json:"tenant_ids"`
}

type WasteFinding struct {
	ResourceID       string  `json:"resource_id"`
	Name             string  `json:"name"`
	Kind             string  `json:"kind"`
	SubscriptionID   string  `json:"subscription_id,omitempty"`
	ResourceGroup    string  `json:"resource_group,omitempty"`
	SKU              string  `json:"sku,omitempty"`
	SizeGB           int     `json:"size_gb,omitempty"`
	Region           string  `json:"region,omitempty"`
	MonthlyCost      float64 `json:"monthly_cost"`
	PricingEstimated bool    `json:"pricing_estimated"`
}

type TenantAudit struct {
	TenantID            string         `json:"tenant_id"`
	ResourcesScanned    int            `json:"resources_scanned"`
	UnattachedDisks     []WasteFinding `json:"unattached_disks"`
	IdlePublicIPs       []WasteFinding `json:"idle_public_ips"`
	TotalMonthlySavings float64        `json:"total_monthly_savings"`
	TotalAnnualSavings  float64        `json:"total_annual_savings"`
	Warnings            []Warning      `json:"warnings,omitempty"`
}

type WasteReport struct {
	TenantsAudited      int            `json:"tenants_audited"`
	TotalFindings       int            `json:"total_findings"`
	TotalMonthlySavings float64        `json:"total_monthly_savings"`
	TotalAnnualSavings  float64        `json:"total_annual_savings"`
	Tenants             []TenantAudit  `json:"tenant_results"`
	Statuses            []BranchStatus `json:"tenants"`
	Warnings            []Warning      `json:"warnings,omitempty"`
}
