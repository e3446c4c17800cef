package core

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/rubiojr/omnibox/pkg/log"
)

// Global registry for provider self-registration
var globalRegistry = &Registry{
	prototypes: make(map[string]Prototype),
}

// Index is an immutable prefix → provider lookup table.
// A new Index is built on every registry rebuild and swapped in atomically,
// so readers never observe a half-built table.
type Index struct {
	byPrefix  map[string]Provider
	prefixes  []string
	providers []Provider
	assigned  map[string][]string
	conflicts []PrefixConflict
}

// Conflicts returns the prefix claims dropped while building the index.
func (idx *Index) Conflicts() []PrefixConflict {
	if idx == nil {
		return nil
	}
	return append([]PrefixConflict(nil), idx.conflicts...)
}

// Lookup returns the provider owning prefix, or nil.
func (idx *Index) Lookup(prefix string) Provider {
	if idx == nil {
		return nil
	}
	return idx.byPrefix[prefix]
}

// Prefixes returns every active prefix, longest first.
func (idx *Index) Prefixes() []string {
	if idx == nil {
		return nil
	}
	return append([]string(nil), idx.prefixes...)
}

// Providers returns the indexed providers in registration order.
func (idx *Index) Providers() []Provider {
	if idx == nil {
		return nil
	}
	return append([]Provider(nil), idx.providers...)
}

// PrefixesFor returns the prefixes a provider actually owns after conflict resolution.
func (idx *Index) PrefixesFor(providerID string) []string {
	if idx == nil {
		return nil
	}
	return append([]string(nil), idx.assigned[providerID]...)
}

// Len returns the number of active prefixes.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.prefixes)
}

// Registry holds provider prototypes, the configured provider instances and
// the current prefix index.
type Registry struct {
	prototypes map[string]Prototype
	providers  []Provider
	config     PrefixConfig
	index      atomic.Pointer[Index]
	mu         sync.RWMutex
}

func NewRegistry() *Registry {
	r := &Registry{
		prototypes: make(map[string]Prototype),
	}
	r.index.Store(buildIndex(nil, nil))
	return r
}

// RegisterProviderPrototype allows providers to register themselves during init()
func RegisterProviderPrototype(name string, prototype Prototype) {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	globalRegistry.prototypes[name] = prototype
}

// GetGlobalRegistry returns a new registry seeded with all self-registered prototypes
func GetGlobalRegistry() *Registry {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	registry := NewRegistry()
	for name, prototype := range globalRegistry.prototypes {
		registry.prototypes[name] = prototype
	}
	return registry
}

func (r *Registry) RegisterPrototype(name string, prototype Prototype) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.prototypes[name]; exists {
		return fmt.Errorf("provider prototype %s already registered", name)
	}

	r.prototypes[name] = prototype
	return nil
}

// Prototypes returns the registered prototype names, sorted.
func (r *Registry) Prototypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.prototypes))
	for name := range r.prototypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetPrototype returns the prototype registered under name.
func (r *Registry) GetPrototype(name string) (Prototype, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.prototypes[name]
	return p, ok
}

// CreateProvider builds a provider instance from the prototype factoryType.
// It does not add the instance to the index; collect instances and call Replace.
func (r *Registry) CreateProvider(instanceName string, factoryType string, config interface{}, env *Env) (Provider, error) {
	r.mu.RLock()
	prototype, exists := r.prototypes[factoryType]
	r.mu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("provider prototype %s not found", factoryType)
	}

	if validator, ok := config.(interface{ Validate() error }); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config for provider %s: %w", instanceName, err)
		}
	}

	provider, err := prototype.Factory(instanceName, config, env)
	if err != nil {
		return nil, fmt.Errorf("creating provider %s: %w", instanceName, err)
	}
	return provider, nil
}

// Replace swaps the full provider set and rebuilds the index.
// The slice order is the registration order used for conflict resolution.
func (r *Registry) Replace(providers []Provider) []PrefixConflict {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.providers = append([]Provider(nil), providers...)
	return r.rebuildLocked()
}

// UpdatePrefixConfig replaces the prefix configuration and rebuilds the index.
func (r *Registry) UpdatePrefixConfig(cfg PrefixConfig) []PrefixConflict {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.config = cfg.Clone()
	return r.rebuildLocked()
}

// PrefixConfig returns a copy of the current prefix configuration.
func (r *Registry) PrefixConfig() PrefixConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.config.Clone()
}

func (r *Registry) rebuildLocked() []PrefixConflict {
	idx := buildIndex(r.providers, r.config)
	r.index.Store(idx)

	conflicts := idx.conflicts
	logger := log.ForService("registry")
	for _, c := range conflicts {
		logger.Warnf("%s", c)
	}
	logger.Debugf("index rebuilt: %d providers, %d prefixes", len(idx.providers), len(idx.prefixes))
	return conflicts
}

// FindByPrefix returns the provider owning prefix in the current index, or nil.
func (r *Registry) FindByPrefix(prefix string) Provider {
	return r.index.Load().Lookup(prefix)
}

// AllProviders returns the providers in registration order.
func (r *Registry) AllProviders() []Provider {
	return r.index.Load().Providers()
}

// GetProvider returns the provider with the given ID.
func (r *Registry) GetProvider(id string) (Provider, error) {
	for _, p := range r.AllProviders() {
		if p.Descriptor().ID == id {
			return p, nil
		}
	}
	return nil, fmt.Errorf("provider %s not found", id)
}

// Snapshot returns the current index. The returned value never changes.
func (r *Registry) Snapshot() *Index {
	return r.index.Load()
}

// buildIndex is a pure function of the provider list and prefix configuration.
// Providers are visited in order; the first claim of a prefix wins.
func buildIndex(providers []Provider, cfg PrefixConfig) *Index {
	idx := &Index{
		byPrefix:  make(map[string]Provider),
		providers: append([]Provider(nil), providers...),
		assigned:  make(map[string][]string),
	}
	owners := make(map[string]string)

	for _, p := range providers {
		desc := p.Descriptor()
		prefixes, configured := cfg[desc.ID]
		if !configured {
			prefixes = []string{desc.DefaultPrefix}
		}
		for _, prefix := range prefixes {
			if err := ValidatePrefix(prefix); err != nil {
				idx.conflicts = append(idx.conflicts, PrefixConflict{
					Prefix:     prefix,
					ProviderID: desc.ID,
					Reason:     err.Error(),
				})
				continue
			}
			if owner, taken := owners[prefix]; taken {
				if owner == desc.ID {
					continue
				}
				idx.conflicts = append(idx.conflicts, PrefixConflict{
					Prefix:     prefix,
					ProviderID: desc.ID,
					Owner:      owner,
					Reason:     "duplicate prefix",
				})
				continue
			}
			owners[prefix] = desc.ID
			idx.byPrefix[prefix] = p
			idx.assigned[desc.ID] = append(idx.assigned[desc.ID], prefix)
			idx.prefixes = append(idx.prefixes, prefix)
		}
	}

	sort.SliceStable(idx.prefixes, func(i, j int) bool {
		if len(idx.prefixes[i]) != len(idx.prefixes[j]) {
			return len(idx.prefixes[i]) > len(idx.prefixes[j])
		}
		return idx.prefixes[i] < idx.prefixes[j]
	})
	return idx
}
