package pricing

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/de-tools/finops-sentinel/pkg/models/domain"
)

// Quote is a resolved price for one unit of a resource.
type Quote struct {
	Entry domain.PriceEntry
	// UnitPrice is the listed price per Entry.Unit
	UnitPrice decimal.Decimal
	// Monthly is the monthly cost of one resource at the requested size
	Monthly decimal.Decimal
}

type Store interface {
	// Quote resolves the monthly price of a resource. Size-tiered SKUs resolve to the smallest
	// tier that fits sizeGB, or the largest tier when none does. Regional entries win over
	// region-agnostic ones.
	Quote(resourceType, sku, region string, sizeGB int) (Quote, bool)
	// Percentile returns the p-th percentile (nearest rank) of the unit prices listed for a resource type.
	Percentile(resourceType, region string, p float64) (decimal.Decimal, bool)
	Entries() []domain.PriceEntry
}

type priceKey struct {
	resourceType string
	sku          string
}

func keyOf(resourceType, sku string) priceKey {
	return priceKey{resourceType: strings.ToLower(resourceType), sku: strings.ToLower(sku)}
}

type pricingStore struct {
	bySKU  map[priceKey][]domain.PriceEntry
	byType map[string][]domain.PriceEntry
	all    []domain.PriceEntry
}

// NewStore indexes entries. Invalid entries are skipped with a warning; an entry repeating the
// (type, sku, size, region) of an earlier one replaces it.
func NewStore(entries []domain.PriceEntry) (Store, []domain.Warning) {
	var warnings []domain.Warning
	type identity struct {
		key    priceKey
		size   int
		region string
	}
	index := make(map[identity]int)
	var kept []domain.PriceEntry

	for _, e := range entries {
		if problem := entryProblem(e); problem != "" {
			warnings = append(warnings, domain.PartialData(
				e.ResourceType+"/"+e.SKU,
				"skipped price entry: "+problem,
			))
			continue
		}
		if e.Unit == "" {
			e.Unit = domain.PriceUnitMonth
		}
		if e.Currency == "" {
			e.Currency = "USD"
		}

		id := identity{key: keyOf(e.ResourceType, e.SKU), size: e.SizeGB, region: strings.ToLower(e.Region)}
		if i, ok := index[id]; ok {
			kept[i] = e
			continue
		}
		index[id] = len(kept)
		kept = append(kept, e)
	}

	s := &pricingStore{
		bySKU:  make(map[priceKey][]domain.PriceEntry),
		byType: make(map[string][]domain.PriceEntry),
		all:    kept,
	}
	for _, e := range kept {
		k := keyOf(e.ResourceType, e.SKU)
		s.bySKU[k] = append(s.bySKU[k], e)
		s.byType[k.resourceType] = append(s.byType[k.resourceType], e)
	}
	for _, tiers := range s.bySKU {
		sort.SliceStable(tiers, func(i, j int) bool { return tiers[i].SizeGB < tiers[j].SizeGB })
	}
	return s, warnings
}

func entryProblem(e domain.PriceEntry) string {
	switch {
	case e.ResourceType == "":
		return "missing resource type"
	case e.SKU == "":
		return "missing sku"
	case math.IsNaN(e.MonthlyPrice) || math.IsInf(e.MonthlyPrice, 0) || e.MonthlyPrice < 0:
		return fmt.Sprintf("invalid price %v", e.MonthlyPrice)
	case e.SizeGB < 0:
		return fmt.Sprintf("invalid size %d", e.SizeGB)
	case e.Unit != "" && e.Unit != domain.PriceUnitMonth && e.Unit != domain.PriceUnitGBMonth:
		return fmt.Sprintf("unsupported unit %q", e.Unit)
	}
	return ""
}

func (s *pricingStore) Quote(resourceType, sku, region string, sizeGB int) (Quote, bool) {
	candidates := inRegion(s.bySKU[keyOf(resourceType, sku)], region)
	if len(candidates) == 0 {
		return Quote{}, false
	}

	var tiered, flat []domain.PriceEntry
	for _, e := range candidates {
		if e.SizeGB > 0 {
			tiered = append(tiered, e)
		} else {
			flat = append(flat, e)
		}
	}

	var entry domain.PriceEntry
	switch {
	case len(tiered) > 0 && sizeGB > 0:
		entry = tiered[len(tiered)-1]
		for _, e := range tiered {
			if e.SizeGB >= sizeGB {
				entry = e
				break
			}
		}
	case len(flat) > 0:
		entry = flat[0]
	default:
		return Quote{}, false
	}

	unit := decimal.NewFromFloat(entry.MonthlyPrice)
	monthly := unit
	if entry.Unit == domain.PriceUnitGBMonth {
		if sizeGB <= 0 {
			return Quote{}, false
		}
		monthly = unit.Mul(decimal.NewFromInt(int64(sizeGB)))
	}
	return Quote{Entry: entry, UnitPrice: unit, Monthly: monthly}, true
}

func (s *pricingStore) Percentile(resourceType, region string, p float64) (decimal.Decimal, bool) {
	if p <= 0 || p > 1 {
		return decimal.Zero, false
	}
	entries := inRegion(s.byType[strings.ToLower(resourceType)], region)
	if len(entries) == 0 {
		return decimal.Zero, false
	}

	prices := make([]decimal.Decimal, 0, len(entries))
	for _, e := range entries {
		prices = append(prices, decimal.NewFromFloat(e.MonthlyPrice))
	}
	sort.Slice(prices, func(i, j int) bool { return prices[i].LessThan(prices[j]) })

	rank := int(math.Ceil(p*float64(len(prices)))) - 1
	rank = max(0, min(rank, len(prices)-1))
	return prices[rank], true
}

func (s *pricingStore) Entries() []domain.PriceEntry {
	return append([]domain.PriceEntry(nil), s.all...)
}

// inRegion keeps the entries of region, falling back to region-agnostic entries.
func inRegion(entries []domain.PriceEntry, region string) []domain.PriceEntry {
	var regional, global []domain.PriceEntry
	for _, e := range entries {
		switch {
		case e.Region == "":
			global = append(global, e)
		case region != "" && strings.EqualFold(e.Region, region):
			regional = append(regional, e)
		}
	}
	if len(regional) > 0 {
		return regional
	}
	return global
}
