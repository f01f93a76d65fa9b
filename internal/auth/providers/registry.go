package providers

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrProviderExists is returned when attempting to register a provider type more than once.
var ErrProviderExists = errors.New("provider registry: provider already registered")

// Registry maintains the catalogue of authentication providers exposed by the portal.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry constructs an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// Register adds a provider to the registry, enforcing uniqueness by provider type.
func (r *Registry) Register(p Provider) error {
	if p == nil {
		return errors.New("provider registry: provider is required")
	}

	providerType := strings.ToLower(strings.TrimSpace(p.Metadata().Type))
	if providerType == "" {
		return errors.New("provider registry: metadata type is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[providerType]; exists {
		return fmt.Errorf("%w: %s", ErrProviderExists, providerType)
	}

	r.providers[providerType] = p
	return nil
}

// Lookup retrieves the provider registered for the given type, if any.
func (r *Registry) Lookup(providerType string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[strings.ToLower(strings.TrimSpace(providerType))]
	return p, ok
}

// Metadata returns all registered provider metadata ordered by their configured order and display name.
func (r *Registry) Metadata() []Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]Metadata, 0, len(r.providers))
	for _, p := range r.providers {
		items = append(items, p.Metadata())
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Order == items[j].Order {
			return items[i].DisplayName < items[j].DisplayName
		}
		return items[i].Order < items[j].Order
	})

	return items
}
