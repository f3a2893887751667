package cost

import (
	"fmt"
	"slices"
	"sync"

	"github.com/de-tools/finops-sentinel/pkg/models/domain"
)

// FetcherFactory builds a Fetcher for a configured cloud profile
type FetcherFactory func(profile domain.ConfigProfile) (Fetcher, error)

// Registry maps profile types to fetcher factories
type Registry interface {
	// Register adds a new factory for a profile type
	Register(profileType domain.ProfileType, factory FetcherFactory) error
	// Create instantiates a fetcher for the given profile
	Create(profile domain.ConfigProfile) (Fetcher, error)
	// ListProviders returns the registered profile types
	ListProviders() []domain.ProfileType
}

type registry struct {
	mu        sync.RWMutex
	factories map[domain.ProfileType]FetcherFactory
}

func NewRegistry() Registry {
	return &registry{
		factories: make(map[domain.ProfileType]FetcherFactory),
	}
}

func (r *registry) Register(profileType domain.ProfileType, factory FetcherFactory) error {
	if profileType == "" {
		return fmt.Errorf("profile type cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("factory cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[profileType]; exists {
		return fmt.Errorf("profile type %q is already registered", profileType)
	}

	r.factories[profileType] = factory
	return nil
}

func (r *registry) Create(profile domain.ConfigProfile) (Fetcher, error) {
	r.mu.RLock()
	factory, exists := r.factories[profile.Type]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("profile type %q is not registered", profile.Type)
	}

	return factory(profile)
}

func (r *registry) ListProviders() []domain.ProfileType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	providers := make([]domain.ProfileType, 0, len(r.factories))
	for p := range r.factories {
		providers = append(providers, p)
	}
	slices.Sort(providers)
	return providers
}
