package domain

import "time"

type ResourceKind string

const (
	ResourceKindDisk     ResourceKind = "disk"
	ResourceKindPublicIP ResourceKind = "public_ip"
)

func (k ResourceKind) Valid() bool {
	return k == ResourceKindDisk || k == ResourceKindPublicIP
}

// ResourceRecord is a provider-neutral inventory entry.
type ResourceRecord struct {
	ID             string
	Name           string
	Kind           ResourceKind
	ResourceType   string // provider type, e.g. Microsoft.Compute/disks or AWS::EC2::Volume
	TenantID       string
	SubscriptionID string
	ResourceGroup  string
	SKU            string // Premium_LRS, gp3, Standard
	SizeGB         int
	Tier           string // P10, Regional
	Attached       bool   // disk attached to a VM, IP bound to a NIC / LB / NAT
	Region         string
	CreatedAt      time.Time
	IdleSince      *time.Time // first observation without a binding, nil when unknown
	Tags           map[string]string
}

type TenantInventory struct {
	TenantID   string
	ObservedAt time.Time
	Resources  []ResourceRecord
}

type WasteFinding struct {
	TenantID             string
	Resource             ResourceRecord
	EstimatedMonthlyCost float64
	PricingEstimated     bool
}

type TenantAudit struct {
	TenantID      string
	Findings      []WasteFinding
	MonthlyTotal  float64
	ResourceCount int
	Warnings      []Warning
}
