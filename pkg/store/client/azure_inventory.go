package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute/v5"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork/v5"

	"github.com/de-tools/finops-sentinel/pkg/models/domain"
)

type DiskLister interface {
	NewListPager(options *armcompute.DisksClientListOptions) *runtime.Pager[armcompute.DisksClientListResponse]
}

type PublicIPLister interface {
	NewListAllPager(options *armnetwork.PublicIPAddressesClientListAllOptions) *runtime.Pager[armnetwork.PublicIPAddressesClientListAllResponse]
}

// InventoryClients returns the listers of one subscription.
type InventoryClients func(subscriptionID string) (DiskLister, PublicIPLister, error)

func ARMInventoryClients(cred azcore.TokenCredential) InventoryClients {
	return func(subscriptionID string) (DiskLister, PublicIPLister, error) {
		disks, err := armcompute.NewDisksClient(subscriptionID, cred, armOptions())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create disks client: %w", err)
		}
		ips, err := armnetwork.NewPublicIPAddressesClient(subscriptionID, cred, armOptions())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create public IP client: %w", err)
		}
		return disks, ips, nil
	}
}

// AzureInventoryFetcher lists the managed disks and public IPs of every subscription of a tenant.
type AzureInventoryFetcher struct {
	subscriptions map[string][]string
	clients       InventoryClients
	now           func() time.Time
}

func NewAzureInventoryFetcher(subscriptions map[string][]string, clients InventoryClients) *AzureInventoryFetcher {
	return &AzureInventoryFetcher{
		subscriptions: subscriptions,
		clients:       clients,
		now:           time.Now,
	}
}

func (f *AzureInventoryFetcher) FetchInventory(ctx context.Context, tenantID string) (domain.TenantInventory, error) {
	subs, ok := f.subscriptions[tenantID]
	if !ok || len(subs) == 0 {
		return domain.TenantInventory{}, fmt.Errorf("tenant %s has no subscriptions configured", tenantID)
	}

	inv := domain.TenantInventory{TenantID: tenantID, ObservedAt: f.now().UTC()}
	for _, sub := range subs {
		disks, ips, err := f.clients(sub)
		if err != nil {
			return domain.TenantInventory{}, err
		}

		diskRecords, err := listDisks(ctx, tenantID, sub, disks)
		if err != nil {
			return domain.TenantInventory{}, err
		}
		ipRecords, err := listPublicIPs(ctx, tenantID, sub, ips)
		if err != nil {
			return domain.TenantInventory{}, err
		}
		inv.Resources = append(inv.Resources, diskRecords...)
		inv.Resources = append(inv.Resources, ipRecords...)
	}
	return inv, nil
}

// Records whose state is missing count as attached, so they are never reported as waste.
func listDisks(ctx context.Context, tenantID, subscriptionID string, client DiskLister) ([]domain.ResourceRecord, error) {
	var records []domain.ResourceRecord

	pager := client.NewListPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list disks of %s: %w", subscriptionID, err)
		}

		for _, disk := range page.Value {
			if disk == nil || disk.ID == nil {
				continue
			}
			rec := domain.ResourceRecord{
				ID:             *disk.ID,
				Name:           deref(disk.Name),
				Kind:           domain.ResourceKindDisk,
				ResourceType:   domain.ResourceTypeDisk,
				TenantID:       tenantID,
				SubscriptionID: subscriptionID,
				ResourceGroup:  resourceGroupOf(*disk.ID),
				Region:         deref(disk.Location),
				Tags:           tagsOf(disk.Tags),
				Attached:       true,
			}
			if disk.SKU != nil && disk.SKU.Name != nil {
				rec.SKU = string(*disk.SKU.Name)
			}
			if p := disk.Properties; p != nil {
				if p.DiskSizeGB != nil {
					rec.SizeGB = int(*p.DiskSizeGB)
				}
				rec.Tier = deref(p.Tier)
				if p.TimeCreated != nil {
					rec.CreatedAt = p.TimeCreated.UTC()
				}
				rec.Attached = p.DiskState == nil || *p.DiskState != armcompute.DiskStateUnattached
			}
			records = append(records, rec)
		}
	}
	return records, nil
}

func listPublicIPs(ctx context.Context, tenantID, subscriptionID string, client PublicIPLister) ([]domain.ResourceRecord, error) {
	var records []domain.ResourceRecord

	pager := client.NewListAllPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list public IPs of %s: %w", subscriptionID, err)
		}

		for _, ip := range page.Value {
			if ip == nil || ip.ID == nil {
				continue
			}
			rec := domain.ResourceRecord{
				ID:             *ip.ID,
				Name:           deref(ip.Name),
				Kind:           domain.ResourceKindPublicIP,
				ResourceType:   domain.ResourceTypePublicIP,
				TenantID:       tenantID,
				SubscriptionID: subscriptionID,
				ResourceGroup:  resourceGroupOf(*ip.ID),
				Region:         deref(ip.Location),
				Tags:           tagsOf(ip.Tags),
				Attached:       true,
			}
			if ip.SKU != nil {
				if ip.SKU.Name != nil {
					rec.SKU = string(*ip.SKU.Name)
				}
				if ip.SKU.Tier != nil {
					rec.Tier = string(*ip.SKU.Tier)
				}
			}
			if p := ip.Properties; p != nil {
				rec.Attached = p.IPConfiguration != nil || p.NatGateway != nil
			}
			records = append(records, rec)
		}
	}
	return records, nil
}

func resourceGroupOf(resourceID string) string {
	parts := strings.Split(resourceID, "/")
	for i, part := range parts {
		if strings.EqualFold(part, "resourceGroups") && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	return ""
}

func tagsOf(tags map[string]*string) map[string]string {
	if len(tags) == 0 {
		return nil
	}
	out := make(map[string]string, len(tags))
	for k, v := range tags {
		out[k] = deref(v)
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
