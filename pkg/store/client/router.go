package client

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/de-tools/finops-sentinel/pkg/apperr"
	"github.com/de-tools/finops-sentinel/pkg/models/domain"
	"github.com/de-tools/finops-sentinel/pkg/services/cost"
)

type inventoryFetcher interface {
	FetchInventory(ctx context.Context, tenantID string) (domain.TenantInventory, error)
}

type recommendationFetcher interface {
	FetchRecommendations(ctx context.Context, subscriptionID string) ([]domain.Recommendation, error)
}

// RegisterCostFetchers registers the Azure and AWS cost fetcher factories.
func RegisterCostFetchers(ctx context.Context, reg cost.Registry) error {
	err := reg.Register(domain.ProfileTypeAzure, func(p domain.ConfigProfile) (cost.Fetcher, error) {
		cred, err := NewAzureCredential(p)
		if err != nil {
			return nil, err
		}
		return NewAzureCostFetcher(cred)
	})
	if err != nil {
		return err
	}

	return reg.Register(domain.ProfileTypeAWS, func(p domain.ConfigProfile) (cost.Fetcher, error) {
		cfg, err := LoadAWSConfig(ctx, p)
		if err != nil {
			return nil, err
		}
		return NewAWSCostFetcher(cfg), nil
	})
}

// Router dispatches each subscription or tenant id to the clients of the profile that owns it.
type Router struct {
	costs       map[string]cost.Fetcher
	inventories map[string]inventoryFetcher
	advisors    map[string]recommendationFetcher
}

func NewRouter() *Router {
	return &Router{
		costs:       make(map[string]cost.Fetcher),
		inventories: make(map[string]inventoryFetcher),
		advisors:    make(map[string]recommendationFetcher),
	}
}

// NewRouterFromProfiles builds the cloud clients of every profile.
func NewRouterFromProfiles(ctx context.Context, profiles []domain.ConfigProfile, reg cost.Registry) (*Router, error) {
	logger := zerolog.Ctx(ctx)
	r := NewRouter()

	for _, p := range profiles {
		fetcher, err := reg.Create(p)
		if err != nil {
			return nil, fmt.Errorf("profile %s: %w", p.Name, err)
		}
		if err := r.AddCostFetcher(fetcher, p.Subscriptions...); err != nil {
			return nil, err
		}

		switch p.Type {
		case domain.ProfileTypeAzure:
			cred, err := NewAzureCredential(p)
			if err != nil {
				return nil, fmt.Errorf("profile %s: %w", p.Name, err)
			}
			inv := NewAzureInventoryFetcher(map[string][]string{p.Tenant(): p.Subscriptions}, ARMInventoryClients(cred))
			if err := r.AddInventoryFetcher(p.Tenant(), inv); err != nil {
				return nil, err
			}
			if err := r.AddAdvisor(NewAzureAdvisorFetcher(ARMAdvisorClients(cred)), p.Subscriptions...); err != nil {
				return nil, err
			}
		case domain.ProfileTypeAWS:
			cfg, err := LoadAWSConfig(ctx, p)
			if err != nil {
				return nil, fmt.Errorf("profile %s: %w", p.Name, err)
			}
			inv := NewAWSInventoryFetcher()
			inv.AddConfig(p.Tenant(), cfg)
			if err := r.AddInventoryFetcher(p.Tenant(), inv); err != nil {
				return nil, err
			}
		}

		logger.Debug().
			Str("profile", p.String()).
			Int("subscriptions", len(p.Subscriptions)).
			Msg("cloud clients configured")
	}
	return r, nil
}

func (r *Router) AddCostFetcher(f cost.Fetcher, subscriptionIDs ...string) error {
	return add(r.costs, "subscription", f, subscriptionIDs)
}

func (r *Router) AddInventoryFetcher(tenantID string, f inventoryFetcher) error {
	return add(r.inventories, "tenant", f, []string{tenantID})
}

func (r *Router) AddAdvisor(f recommendationFetcher, subscriptionIDs ...string) error {
	return add(r.advisors, "subscription", f, subscriptionIDs)
}

func add[F any](m map[string]F, what string, f F, ids []string) error {
	for _, id := range ids {
		if id == "" {
			return apperr.InvalidArgument("client.router", "empty %s id", what)
		}
		if _, exists := m[id]; exists {
			return apperr.InvalidArgument("client.router", "%s %s is configured in more than one profile", what, id)
		}
		m[id] = f
	}
	return nil
}

func (r *Router) SubscriptionIDs() []string {
	return sortedKeys(r.costs)
}

func (r *Router) TenantIDs() []string {
	return sortedKeys(r.inventories)
}

func (r *Router) FetchDailyCosts(ctx context.Context, subscriptionID string, from, until time.Time) ([]domain.CostRow, error) {
	f, ok := r.costs[subscriptionID]
	if !ok {
		return nil, apperr.InvalidArgument("client.fetch_daily_costs", "subscription %s is not configured", subscriptionID)
	}
	return f.FetchDailyCosts(ctx, subscriptionID, from, until)
}

func (r *Router) FetchInventory(ctx context.Context, tenantID string) (domain.TenantInventory, error) {
	f, ok := r.inventories[tenantID]
	if !ok {
		return domain.TenantInventory{}, apperr.InvalidArgument("client.fetch_inventory", "tenant %s is not configured", tenantID)
	}
	return f.FetchInventory(ctx, tenantID)
}

func (r *Router) FetchRecommendations(ctx context.Context, subscriptionID string) ([]domain.Recommendation, error) {
	f, ok := r.advisors[subscriptionID]
	if !ok {
		return nil, apperr.InvalidArgument("client.fetch_recommendations", "subscription %s has no advisor configured", subscriptionID)
	}
	return f.FetchRecommendations(ctx, subscriptionID)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
