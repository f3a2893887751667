package budget

import (
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/de-tools/finops-sentinel/pkg/apperr"
	"github.com/de-tools/finops-sentinel/pkg/models/domain"
	"github.com/de-tools/finops-sentinel/pkg/store/pricing"
)

type Settings struct {
	// DefaultRegion is used when the caller names no region (default: eastus)
	DefaultRegion string `mapstructure:"default_region"`
	// PremiumCeiling flags any resource whose monthly unit price exceeds it (default: 50)
	PremiumCeiling float64 `mapstructure:"premium_ceiling"`
	// PremiumPercentile flags resources priced above this percentile of their type, 0 disables (default: 0.9)
	PremiumPercentile float64 `mapstructure:"premium_percentile"`
	// DefaultDiskSizeGB sizes disks declared without a size (default: 128)
	DefaultDiskSizeGB int `mapstructure:"default_disk_size_gb"`
	// DefaultStorageGB sizes per-GB resources declared without a size (default: 100)
	DefaultStorageGB int `mapstructure:"default_storage_gb"`
}

func DefaultSettings() Settings {
	return Settings{
		DefaultRegion:     "eastus",
		PremiumCeiling:    50,
		PremiumPercentile: 0.9,
		DefaultDiskSizeGB: 128,
		DefaultStorageGB:  100,
	}
}

func (s Settings) Validate() error {
	if s.PremiumCeiling < 0 || math.IsNaN(s.PremiumCeiling) {
		return apperr.InvalidArgument("budget.settings", "premium ceiling must not be negative")
	}
	if s.PremiumPercentile < 0 || s.PremiumPercentile > 1 {
		return apperr.InvalidArgument("budget.settings", "premium percentile must be within [0, 1], got %.2f", s.PremiumPercentile)
	}
	return nil
}

// Validate prices a declared resource list and compares the monthly total with budgetLimit.
// Resources that cannot be priced are excluded with a warning. Premium warnings are raised
// whether or not the total fits the budget; an exceeded budget is always the first warning.
func Validate(
	resources []domain.DeclaredResource,
	budgetLimit float64,
	region string,
	prices pricing.Store,
	settings Settings,
) (domain.BudgetResult, error) {
	if math.IsNaN(budgetLimit) || math.IsInf(budgetLimit, 0) || budgetLimit < 0 {
		return domain.BudgetResult{}, apperr.InvalidArgument("budget.validate", "budget limit %.2f must be a non-negative amount", budgetLimit)
	}
	if err := settings.Validate(); err != nil {
		return domain.BudgetResult{}, err
	}
	if prices == nil {
		return domain.BudgetResult{}, apperr.InvalidArgument("budget.validate", "a price table is required")
	}
	if region == "" {
		region = settings.DefaultRegion
	}

	result := domain.BudgetResult{
		Region:            region,
		BudgetLimit:       budgetLimit,
		Breakdown:         make(map[string]float64),
		ResourcesAnalyzed: len(resources),
	}

	total := decimal.Zero
	breakdown := make(map[string]decimal.Decimal)
	var warnings []string

	for _, res := range resources {
		name := res.Name
		if name == "" {
			name = "unnamed"
		}
		if res.ResourceType == "" || res.SKU == "" {
			warnings = append(warnings, fmt.Sprintf("%s: missing resource type or sku; excluded from estimate", name))
			continue
		}
		if res.Quantity < 0 || res.SizeGB < 0 {
			warnings = append(warnings, fmt.Sprintf("%s: negative quantity or size; excluded from estimate", name))
			continue
		}

		quote, ok := prices.Quote(res.ResourceType, res.SKU, region, sizeOf(res, settings))
		if !ok {
			warnings = append(warnings, fmt.Sprintf("no pricing data for %s (%s/%s); excluded from estimate", name, res.ResourceType, res.SKU))
			continue
		}

		// an omitted quantity means one instance
		quantity := res.Quantity
		if quantity == 0 {
			quantity = 1
		}
		cost := quote.Monthly.Mul(decimal.NewFromInt(int64(quantity)))

		total = total.Add(cost)
		breakdown[res.ResourceType] = breakdown[res.ResourceType].Add(cost)
		result.Items = append(result.Items, domain.BudgetItem{
			Name:         name,
			ResourceType: res.ResourceType,
			SKU:          res.SKU,
			MonthlyCost:  cost.Round(2).InexactFloat64(),
		})
		result.ResourcesPriced++

		if isPremium(quote, res.ResourceType, region, prices, settings) {
			warnings = append(warnings, fmt.Sprintf(
				"%s: high-cost SKU %s at $%s/mo; consider a smaller or Standard SKU for non-production",
				name, res.SKU, quote.Monthly.StringFixed(2),
			))
		}
	}

	total = total.Round(2)
	limit := decimal.NewFromFloat(budgetLimit)
	result.EstimatedMonthlyCost = total.InexactFloat64()
	result.EstimatedAnnualCost = total.Mul(decimal.NewFromInt(12)).Round(2).InexactFloat64()
	result.WithinBudget = total.LessThanOrEqual(limit)
	for resourceType, cost := range breakdown {
		result.Breakdown[resourceType] = cost.Round(2).InexactFloat64()
	}
	sort.SliceStable(result.Items, func(i, j int) bool {
		return result.Items[i].MonthlyCost > result.Items[j].MonthlyCost
	})

	if !result.WithinBudget {
		warnings = append([]string{fmt.Sprintf(
			"BUDGET EXCEEDED: estimated cost $%s exceeds budget $%s",
			total.StringFixed(2), limit.StringFixed(2),
		)}, warnings...)
	}
	result.Warnings = warnings
	return result, nil
}

func sizeOf(res domain.DeclaredResource, settings Settings) int {
	if res.SizeGB > 0 {
		return res.SizeGB
	}
	switch res.ResourceType {
	case domain.ResourceTypeDisk:
		return settings.DefaultDiskSizeGB
	case domain.ResourceTypeStorageAccount, domain.ResourceTypeEBSVolume:
		return settings.DefaultStorageGB
	}
	return 0
}

// isPremium compares the price of one unit against the absolute ceiling and the percentile of
// its resource type.
func isPremium(q pricing.Quote, resourceType, region string, prices pricing.Store, settings Settings) bool {
	if settings.PremiumCeiling > 0 && q.Monthly.GreaterThan(decimal.NewFromFloat(settings.PremiumCeiling)) {
		return true
	}
	if settings.PremiumPercentile <= 0 {
		return false
	}
	threshold, ok := prices.Percentile(resourceType, region, settings.PremiumPercentile)
	return ok && q.UnitPrice.GreaterThan(threshold)
}

// Estimator binds a price table and settings for repeated estimates.
type Estimator struct {
	prices   pricing.Store
	settings Settings
}

func NewEstimator(prices pricing.Store, settings Settings) *Estimator {
	return &Estimator{prices: prices, settings: settings}
}

func (e *Estimator) Estimate(resources []domain.DeclaredResource, budgetLimit float64, region string) (domain.BudgetResult, error) {
	return Validate(resources, budgetLimit, region, e.prices, e.settings)
}
