package client

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/de-tools/finops-sentinel/pkg/models/domain"
)

// ElasticIPSKU is the price table sku of an Elastic IP address.
const ElasticIPSKU = "standard"

type EC2API interface {
	ec2.DescribeVolumesAPIClient
	DescribeAddresses(ctx context.Context, params *ec2.DescribeAddressesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeAddressesOutput, error)
}

// AWSInventoryFetcher lists the EBS volumes and Elastic IPs of the accounts it knows. The tenant
// id is the profile tenant.
type AWSInventoryFetcher struct {
	clients map[string]EC2API
	regions map[string]string
	now     func() time.Time
}

func NewAWSInventoryFetcher() *AWSInventoryFetcher {
	return &AWSInventoryFetcher{
		clients: make(map[string]EC2API),
		regions: make(map[string]string),
		now:     time.Now,
	}
}

func (f *AWSInventoryFetcher) Add(tenantID, region string, client EC2API) {
	f.clients[tenantID] = client
	f.regions[tenantID] = region
}

func (f *AWSInventoryFetcher) AddConfig(tenantID string, cfg aws.Config) {
	f.Add(tenantID, cfg.Region, ec2.NewFromConfig(cfg))
}

func (f *AWSInventoryFetcher) FetchInventory(ctx context.Context, tenantID string) (domain.TenantInventory, error) {
	client, ok := f.clients[tenantID]
	if !ok {
		return domain.TenantInventory{}, fmt.Errorf("account %s is not configured", tenantID)
	}
	region := f.regions[tenantID]

	inv := domain.TenantInventory{TenantID: tenantID, ObservedAt: f.now().UTC()}

	pager := ec2.NewDescribeVolumesPaginator(client, &ec2.DescribeVolumesInput{})
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return domain.TenantInventory{}, fmt.Errorf("failed to describe volumes of %s: %w", tenantID, err)
		}
		for _, v := range page.Volumes {
			inv.Resources = append(inv.Resources, volumeRecord(tenantID, region, v))
		}
	}

	addrs, err := client.DescribeAddresses(ctx, &ec2.DescribeAddressesInput{})
	if err != nil {
		return domain.TenantInventory{}, fmt.Errorf("failed to describe addresses of %s: %w", tenantID, err)
	}
	for _, a := range addrs.Addresses {
		inv.Resources = append(inv.Resources, addressRecord(tenantID, region, a))
	}
	return inv, nil
}

func volumeRecord(tenantID, region string, v types.Volume) domain.ResourceRecord {
	rec := domain.ResourceRecord{
		ID:             aws.ToString(v.VolumeId),
		Name:           ec2Name(v.Tags, aws.ToString(v.VolumeId)),
		Kind:           domain.ResourceKindDisk,
		ResourceType:   domain.ResourceTypeEBSVolume,
		TenantID:       tenantID,
		SubscriptionID: tenantID,
		SKU:            string(v.VolumeType),
		SizeGB:         int(aws.ToInt32(v.Size)),
		Attached:       v.State != types.VolumeStateAvailable,
		Region:         region,
		Tags:           ec2Tags(v.Tags),
	}
	if v.CreateTime != nil {
		rec.CreatedAt = v.CreateTime.UTC()
	}
	return rec
}

func addressRecord(tenantID, region string, a types.Address) domain.ResourceRecord {
	id := aws.ToString(a.AllocationId)
	if id == "" {
		id = aws.ToString(a.PublicIp)
	}
	return domain.ResourceRecord{
		ID:             id,
		Name:           ec2Name(a.Tags, aws.ToString(a.PublicIp)),
		Kind:           domain.ResourceKindPublicIP,
		ResourceType:   domain.ResourceTypeElasticIP,
		TenantID:       tenantID,
		SubscriptionID: tenantID,
		SKU:            ElasticIPSKU,
		Attached:       a.AssociationId != nil,
		Region:         region,
		Tags:           ec2Tags(a.Tags),
	}
}

func ec2Tags(tags []types.Tag) map[string]string {
	if len(tags) == 0 {
		return nil
	}
	out := make(map[string]string, len(tags))
	for _, t := range tags {
		out[aws.ToString(t.Key)] = aws.ToString(t.Value)
	}
	return out
}

func ec2Name(tags []types.Tag, fallback string) string {
	for _, t := range tags {
		if aws.ToString(t.Key) == "Name" && aws.ToString(t.Value) != "" {
			return aws.ToString(t.Value)
		}
	}
	return fallback
}
