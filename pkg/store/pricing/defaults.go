package pricing

import "github.com/de-tools/finops-sentinel/pkg/models/domain"

// Monthly list prices (USD, pay-as-you-go) used when no price sheet is configured.
var (
	vmPrices = map[string]float64{
		"Standard_B1s":    7.59,
		"Standard_B2s":    30.37,
		"Standard_D2s_v3": 96.36,
		"Standard_D4s_v3": 192.72,
		"Standard_D8s_v3": 385.44,
		"Standard_E2s_v3": 109.50,
		"Standard_E4s_v3": 219.00,
	}

	diskTiers = map[string][]struct {
		sizeGB int
		price  float64
	}{
		"Standard_LRS": {{32, 1.54}, {64, 3.07}, {128, 6.14}, {256, 12.29}, {512, 24.58}, {1024, 49.15}},
		"Premium_LRS":  {{32, 4.81}, {64, 9.62}, {128, 19.71}, {256, 39.42}, {512, 78.85}, {1024, 157.70}},
	}

	storagePerGB = map[string]float64{
		"Standard_LRS": 0.0184,
		"Standard_GRS": 0.0368,
		"Premium_LRS":  0.15,
	}

	ebsPerGB = map[string]float64{
		"gp2": 0.10,
		"gp3": 0.08,
		"io1": 0.125,
		"st1": 0.045,
		"sc1": 0.015,
	}
)

const (
	// DefaultDiskPrice is the fallback for disks whose sku or size has no price (Standard_LRS 128GB).
	DefaultDiskPrice = 6.14
	// DefaultPublicIPPrice is the fallback for public IPs (static, per month).
	DefaultPublicIPPrice = 3.65
)

// DefaultEntries returns the built-in price table.
func DefaultEntries() []domain.PriceEntry {
	var entries []domain.PriceEntry
	add := func(resourceType, sku string, sizeGB int, price float64, unit string) {
		entries = append(entries, domain.PriceEntry{
			ResourceType: resourceType,
			SKU:          sku,
			SizeGB:       sizeGB,
			MonthlyPrice: price,
			Unit:         unit,
			Currency:     "USD",
		})
	}

	for sku, price := range vmPrices {
		add(domain.ResourceTypeVirtualMachine, sku, 0, price, domain.PriceUnitMonth)
	}
	for sku, tiers := range diskTiers {
		for _, tier := range tiers {
			add(domain.ResourceTypeDisk, sku, tier.sizeGB, tier.price, domain.PriceUnitMonth)
		}
	}
	for sku, price := range storagePerGB {
		add(domain.ResourceTypeStorageAccount, sku, 0, price, domain.PriceUnitGBMonth)
	}
	for sku, price := range ebsPerGB {
		add(domain.ResourceTypeEBSVolume, sku, 0, price, domain.PriceUnitGBMonth)
	}
	add(domain.ResourceTypePublicIP, "Basic", 0, DefaultPublicIPPrice, domain.PriceUnitMonth)
	add(domain.ResourceTypePublicIP, "Standard", 0, DefaultPublicIPPrice, domain.PriceUnitMonth)
	add(domain.ResourceTypeElasticIP, "standard", 0, DefaultPublicIPPrice, domain.PriceUnitMonth)

	return entries
}
