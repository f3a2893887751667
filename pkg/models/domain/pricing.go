package domain

const (
	ResourceTypeVirtualMachine = "Microsoft.Compute/virtualMachines"
	ResourceTypeDisk           = "Microsoft.Compute/disks"
	ResourceTypePublicIP       = "Microsoft.Network/publicIPAddresses"
	ResourceTypeStorageAccount = "Microsoft.Storage/storageAccounts"
	ResourceTypeEBSVolume      = "AWS::EC2::Volume"
	ResourceTypeElasticIP      = "AWS::EC2::EIP"
)

const (
	PriceUnitMonth   = "month"
	PriceUnitGBMonth = "GB-month"
)

// PriceEntry is one row of the price table. SizeGB 0 means the price is not size-tiered;
// an empty Region applies to every region.
type PriceEntry struct {
	ResourceType string
	SKU          string
	SizeGB       int
	Region       string
	MonthlyPrice float64
	Unit         string
	Currency     string
}
