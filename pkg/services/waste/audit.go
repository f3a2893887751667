package waste

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/de-tools/finops-sentinel/pkg/models/domain"
	"github.com/de-tools/finops-sentinel/pkg/store/pricing"
)

// Settings configure which idle resources count as waste and how unpriced ones are costed.
type Settings struct {
	// PublicIPGracePeriod is how long an unassociated public IP may stay idle before it is reported (default: 0)
	PublicIPGracePeriod time.Duration `mapstructure:"public_ip_grace_period"`
	// DefaultDiskPrice prices disks whose sku or size is missing from the price table (default: 6.14)
	DefaultDiskPrice float64 `mapstructure:"default_disk_price"`
	// DefaultPublicIPPrice prices public IPs whose sku is missing from the price table (default: 3.65)
	DefaultPublicIPPrice float64 `mapstructure:"default_public_ip_price"`
}

func DefaultSettings() Settings {
	return Settings{
		PublicIPGracePeriod:  0,
		DefaultDiskPrice:     pricing.DefaultDiskPrice,
		DefaultPublicIPPrice: pricing.DefaultPublicIPPrice,
	}
}

// Audit reports the unattached disks and idle public IPs of one tenant with their monthly cost.
// Findings are ordered by cost (highest first), then resource id.
func Audit(inv domain.TenantInventory, prices pricing.Store, settings Settings) domain.TenantAudit {
	audit := domain.TenantAudit{
		TenantID:      inv.TenantID,
		ResourceCount: len(inv.Resources),
	}
	observedAt := inv.ObservedAt
	if observedAt.IsZero() {
		observedAt = time.Now().UTC()
	}

	total := decimal.Zero
	for _, res := range inv.Resources {
		if res.ID == "" || !res.Kind.Valid() {
			audit.Warnings = append(audit.Warnings, domain.PartialData(
				describe(res),
				fmt.Sprintf("skipped malformed resource record (id %q, kind %q)", res.ID, res.Kind),
			))
			continue
		}
		if !isWaste(res, observedAt, settings) {
			continue
		}

		monthly, estimated := price(res, prices, settings)
		if estimated {
			audit.Warnings = append(audit.Warnings, domain.PartialData(
				res.ID,
				fmt.Sprintf("no price for %s %s (%dGB); using default %s/month", res.Kind, res.SKU, res.SizeGB, monthly.StringFixed(2)),
			))
		}

		monthly = monthly.Round(2)
		total = total.Add(monthly)
		audit.Findings = append(audit.Findings, domain.WasteFinding{
			TenantID:             inv.TenantID,
			Resource:             res,
			EstimatedMonthlyCost: monthly.InexactFloat64(),
			PricingEstimated:     estimated,
		})
	}

	sort.SliceStable(audit.Findings, func(i, j int) bool {
		a, b := audit.Findings[i], audit.Findings[j]
		if a.EstimatedMonthlyCost != b.EstimatedMonthlyCost {
			return a.EstimatedMonthlyCost > b.EstimatedMonthlyCost
		}
		return a.Resource.ID < b.Resource.ID
	})
	audit.MonthlyTotal = total.InexactFloat64()
	return audit
}

func isWaste(res domain.ResourceRecord, observedAt time.Time, settings Settings) bool {
	if res.Attached {
		return false
	}
	if res.Kind == domain.ResourceKindDisk {
		return true
	}

	// an unknown idle start counts as idle since this observation
	idleSince := observedAt
	if res.IdleSince != nil {
		idleSince = *res.IdleSince
	}
	return observedAt.Sub(idleSince) >= settings.PublicIPGracePeriod
}

func price(res domain.ResourceRecord, prices pricing.Store, settings Settings) (decimal.Decimal, bool) {
	if prices != nil {
		if q, ok := prices.Quote(resourceType(res), res.SKU, res.Region, res.SizeGB); ok {
			return q.Monthly, false
		}
	}
	if res.Kind == domain.ResourceKindDisk {
		return decimal.NewFromFloat(settings.DefaultDiskPrice), true
	}
	return decimal.NewFromFloat(settings.DefaultPublicIPPrice), true
}

func resourceType(res domain.ResourceRecord) string {
	if res.ResourceType != "" {
		return res.ResourceType
	}
	if res.Kind == domain.ResourceKindDisk {
		return domain.ResourceTypeDisk
	}
	return domain.ResourceTypePublicIP
}

func describe(res domain.ResourceRecord) string {
	if res.Name != "" {
		return res.Name
	}
	if res.ID != "" {
		return res.ID
	}
	return "unnamed resource"
}
