package budget

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/finops-sentinel/pkg/apperr"
	"github.com/de-tools/finops-sentinel/pkg/models/domain"
	"github.com/de-tools/finops-sentinel/pkg/store/pricing"
)

func defaultPrices(t *testing.T, extra ...domain.PriceEntry) pricing.Store {
	t.Helper()
	s, warnings := pricing.NewStore(append(pricing.DefaultEntries(), extra...))
	require.Empty(t, warnings)
	return s
}

func TestValidate(t *testing.T) {
	t.Run("over budget with premium sku", func(t *testing.T) {
		prices := defaultPrices(t, domain.PriceEntry{
			ResourceType: domain.ResourceTypeVirtualMachine,
			SKU:          "Standard_M64s",
			MonthlyPrice: 1300,
		})
		resources := []domain.DeclaredResource{
			{Name: "sap-hana", ResourceType: domain.ResourceTypeVirtualMachine, SKU: "Standard_M64s", Quantity: 4},
		}

		result, err := Validate(resources, 5000, "eastus", prices, DefaultSettings())

		require.NoError(t, err)
		assert.Equal(t, 5200.0, result.EstimatedMonthlyCost)
		assert.Equal(t, 62400.0, result.EstimatedAnnualCost)
		assert.False(t, result.WithinBudget)
		require.Len(t, result.Warnings, 2)
		assert.Equal(t, "BUDGET EXCEEDED: estimated cost $5200.00 exceeds budget $5000.00", result.Warnings[0])
		assert.Contains(t, result.Warnings[1], "sap-hana: high-cost SKU Standard_M64s")
	})

	t.Run("premium warning is independent of the budget", func(t *testing.T) {
		resources := []domain.DeclaredResource{
			{Name: "data-disk", ResourceType: domain.ResourceTypeDisk, SKU: "Premium_LRS", SizeGB: 1024},
		}

		result, err := Validate(resources, 1000, "eastus", defaultPrices(t), DefaultSettings())

		require.NoError(t, err)
		assert.True(t, result.WithinBudget)
		assert.Equal(t, 157.70, result.EstimatedMonthlyCost)
		require.Len(t, result.Warnings, 1)
		assert.True(t, strings.HasPrefix(result.Warnings[0], "data-disk: high-cost SKU Premium_LRS at $157.70/mo"))
	})

	t.Run("unresolved resources are excluded with a warning", func(t *testing.T) {
		resources := []domain.DeclaredResource{
			{Name: "web", ResourceType: domain.ResourceTypeVirtualMachine, SKU: "Standard_B2s"},
			{Name: "cache", ResourceType: "Microsoft.Cache/redis", SKU: "C1"},
			{Name: "broken", ResourceType: domain.ResourceTypeVirtualMachine},
		}

		result, err := Validate(resources, 100, "eastus", defaultPrices(t), DefaultSettings())

		require.NoError(t, err)
		assert.Equal(t, 30.37, result.EstimatedMonthlyCost)
		assert.Equal(t, 3, result.ResourcesAnalyzed)
		assert.Equal(t, 1, result.ResourcesPriced)
		assert.Equal(t, []string{
			"no pricing data for cache (Microsoft.Cache/redis/C1); excluded from estimate",
			"broken: missing resource type or sku; excluded from estimate",
		}, result.Warnings)
	})

	t.Run("negative quantities are excluded with a warning", func(t *testing.T) {
		resources := []domain.DeclaredResource{
			{Name: "web", ResourceType: domain.ResourceTypeVirtualMachine, SKU: "Standard_B2s"},
			{Name: "fleet", ResourceType: domain.ResourceTypeVirtualMachine, SKU: "Standard_B2s", Quantity: -3},
		}

		result, err := Validate(resources, 100, "eastus", defaultPrices(t), DefaultSettings())

		require.NoError(t, err)
		assert.Equal(t, 30.37, result.EstimatedMonthlyCost)
		assert.Equal(t, 2, result.ResourcesAnalyzed)
		assert.Equal(t, 1, result.ResourcesPriced)
		assert.Equal(t, []string{"fleet: negative quantity or size; excluded from estimate"}, result.Warnings)
	})

	t.Run("breakdown groups by resource type", func(t *testing.T) {
		resources := []domain.DeclaredResource{
			{Name: "vm-1", ResourceType: domain.ResourceTypeVirtualMachine, SKU: "Standard_B1s", Quantity: 2},
			{Name: "vm-2", ResourceType: domain.ResourceTypeVirtualMachine, SKU: "Standard_B2s"},
			{Name: "os-disk", ResourceType: domain.ResourceTypeDisk, SKU: "Standard_LRS"},
			{Name: "logs", ResourceType: domain.ResourceTypeStorageAccount, SKU: "Standard_GRS"},
			{Name: "ip", ResourceType: domain.ResourceTypePublicIP, SKU: "Standard"},
		}

		result, err := Validate(resources, 100, "", defaultPrices(t), DefaultSettings())

		require.NoError(t, err)
		assert.Equal(t, "eastus", result.Region)
		assert.Equal(t, map[string]float64{
			domain.ResourceTypeVirtualMachine: 45.55,
			domain.ResourceTypeDisk:           6.14,
			domain.ResourceTypeStorageAccount: 3.68,
			domain.ResourceTypePublicIP:       3.65,
		}, result.Breakdown)
		assert.Equal(t, 59.02, result.EstimatedMonthlyCost)
		assert.True(t, result.WithinBudget)
		assert.Empty(t, result.Warnings)
		assert.Equal(t, "vm-2", result.Items[0].Name)
	})

	t.Run("exact budget is within budget", func(t *testing.T) {
		resources := []domain.DeclaredResource{{Name: "vm", ResourceType: domain.ResourceTypeVirtualMachine, SKU: "Standard_B1s"}}

		result, err := Validate(resources, 7.59, "eastus", defaultPrices(t), DefaultSettings())

		require.NoError(t, err)
		assert.True(t, result.WithinBudget)
	})

	t.Run("percentile policy", func(t *testing.T) {
		settings := DefaultSettings()
		settings.PremiumCeiling = 0
		settings.PremiumPercentile = 0.5
		resources := []domain.DeclaredResource{
			{Name: "small", ResourceType: domain.ResourceTypeVirtualMachine, SKU: "Standard_B1s"},
			{Name: "large", ResourceType: domain.ResourceTypeVirtualMachine, SKU: "Standard_D8s_v3"},
		}

		result, err := Validate(resources, 1000, "eastus", defaultPrices(t), settings)

		require.NoError(t, err)
		require.Len(t, result.Warnings, 1)
		assert.True(t, strings.HasPrefix(result.Warnings[0], "large:"))
	})

	t.Run("rejects invalid budgets", func(t *testing.T) {
		for _, limit := range []float64{-1, math.NaN(), math.Inf(1)} {
			_, err := Validate(nil, limit, "eastus", defaultPrices(t), DefaultSettings())
			assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
		}
	})

	t.Run("rejects invalid settings", func(t *testing.T) {
		settings := DefaultSettings()
		settings.PremiumPercentile = 1.5
		_, err := Validate(nil, 10, "eastus", defaultPrices(t), settings)
		assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
	})
}

func TestEstimator(t *testing.T) {
	e := NewEstimator(defaultPrices(t), DefaultSettings())

	result, err := e.Estimate([]domain.DeclaredResource{
		{Name: "ip", ResourceType: domain.ResourceTypePublicIP, SKU: "Standard"},
	}, 10, "")

	require.NoError(t, err)
	assert.Equal(t, 3.65, result.EstimatedMonthlyCost)
	assert.Equal(t, "eastus", result.Region)
	assert.True(t, result.WithinBudget)
}
