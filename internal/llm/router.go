package llm

import (
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog/log"
)

// Router resolves a provider name to a registered Provider. The configured
// default wins when no name is given; if it has no credentials the first
// configured provider by name is used instead.
type Router struct {
	mu        sync.RWMutex
	providers map[string]Provider
	preferred string
}

func NewRouter(defaultProvider string) *Router {
	return &Router{
		providers: make(map[string]Provider),
		preferred: defaultProvider,
	}
}

// RegisterProvider adds or replaces a provider under its Name
func (r *Router) RegisterProvider(provider Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[provider.Name()] = provider
}

// GetProvider returns the named provider. An explicit name never falls back.
func (r *Router) GetProvider(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if name == "" {
		return r.fallback()
	}

	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, name)
	}
	if !p.IsConfigured() {
		return nil, fmt.Errorf("%w: %s", ErrNotConfigured, name)
	}
	return p, nil
}

// fallback must be called with mu held
func (r *Router) fallback() (Provider, error) {
	if p, ok := r.providers[r.preferred]; ok && p.IsConfigured() {
		return p, nil
	}

	configured := r.configured()
	if len(configured) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotConfigured, r.preferred)
	}

	log.Debug().
		Str("preferred", r.preferred).
		Str("using", configured[0]).
		Msg("Default LLM provider unavailable, falling back")
	return r.providers[configured[0]], nil
}

func (r *Router) configured() []string {
	var names []string
	for name, p := range r.providers {
		if p.IsConfigured() {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// ListProviders returns the names of providers that have credentials
func (r *Router) ListProviders() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.configured()
}

// DefaultProvider is the name an unqualified completion resolves to, or ""
// when nothing is configured
func (r *Router) DefaultProvider() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, err := r.fallback()
	if err != nil {
		return ""
	}
	return p.Name()
}

// ProviderInfo describes one provider for the providers listing
type ProviderInfo struct {
	Name         string   `json:"name"`
	Models       []string `json:"models"`
	DefaultModel string   `json:"default_model"`
	Default      bool     `json:"default"`
	Configured   bool     `json:"configured"`
}

// GetProvidersInfo lists every registered provider sorted by name
func (r *Router) GetProvidersInfo() []ProviderInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	active := ""
	if p, err := r.fallback(); err == nil {
		active = p.Name()
	}

	infos := make([]ProviderInfo, 0, len(r.providers))
	for name, p := range r.providers {
		infos = append(infos, ProviderInfo{
			Name:         name,
			Models:       p.AvailableModels(),
			DefaultModel: p.DefaultModel(),
			Default:      name == active,
			Configured:   p.IsConfigured(),
		})
	}
	slices.SortFunc(infos, func(a, b ProviderInfo) int {
		if a.Name < b.Name {
			return -1
		}
		if a.Name > b.Name {
			return 1
		}
		return 0
	})
	return infos
}
