package client

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/advisor/armadvisor"

	"github.com/de-tools/finops-sentinel/pkg/models/domain"
)

type RecommendationLister interface {
	NewListPager(options *armadvisor.RecommendationsClientListOptions) *runtime.Pager[armadvisor.RecommendationsClientListResponse]
}

// AdvisorClients returns the advisor lister of one subscription.
type AdvisorClients func(subscriptionID string) (RecommendationLister, error)

func ARMAdvisorClients(cred azcore.TokenCredential) AdvisorClients {
	return func(subscriptionID string) (RecommendationLister, error) {
		client, err := armadvisor.NewRecommendationsClient(subscriptionID, cred, armOptions())
		if err != nil {
			return nil, fmt.Errorf("failed to create advisor client: %w", err)
		}
		return client, nil
	}
}

type AzureAdvisorFetcher struct {
	clients AdvisorClients
}

func NewAzureAdvisorFetcher(clients AdvisorClients) *AzureAdvisorFetcher {
	return &AzureAdvisorFetcher{clients: clients}
}

func (f *AzureAdvisorFetcher) FetchRecommendations(ctx context.Context, subscriptionID string) ([]domain.Recommendation, error) {
	client, err := f.clients(subscriptionID)
	if err != nil {
		return nil, err
	}

	var recs []domain.Recommendation
	pager := client.NewListPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list advisor recommendations of %s: %w", subscriptionID, err)
		}
		for _, r := range page.Value {
			if r == nil || r.ID == nil {
				continue
			}
			recs = append(recs, recommendationOf(subscriptionID, r))
		}
	}
	return recs, nil
}

func recommendationOf(subscriptionID string, r *armadvisor.ResourceRecommendationBase) domain.Recommendation {
	rec := domain.Recommendation{
		ID:             *r.ID,
		SubscriptionID: subscriptionID,
	}
	p := r.Properties
	if p == nil {
		return rec
	}

	if p.Category != nil {
		rec.Category = string(*p.Category)
	}
	if p.Impact != nil {
		rec.Impact = string(*p.Impact)
	}
	if p.ShortDescription != nil {
		rec.Title = deref(p.ShortDescription.Problem)
		rec.Description = deref(p.ShortDescription.Solution)
	}
	rec.ImpactedResource = deref(p.ImpactedValue)
	rec.ResourceType = deref(p.ImpactedField)
	if p.ResourceMetadata != nil && p.ResourceMetadata.ResourceID != nil {
		rec.ImpactedResource = *p.ResourceMetadata.ResourceID
	}
	rec.PotentialSavings = savingsOf(p.ExtendedProperties)
	return rec
}

// savingsOf reads the monthly savingsAmount advisor attaches to cost recommendations.
func savingsOf(props map[string]*string) float64 {
	v, ok := props["savingsAmount"]
	if !ok || v == nil {
		return 0
	}
	f, err := strconv.ParseFloat(*v, 64)
	if err != nil {
		return 0
	}
	return f
}
