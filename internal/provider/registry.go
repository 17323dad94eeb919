package provider

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Registry holds the registered providers and an index from model type
// to the providers able to serve it. The first provider registered for
// a model becomes its default until SetDefault overrides it.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	byModel   map[ModelType][]string
	defaults  map[ModelType]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
		byModel:   make(map[ModelType][]string),
		defaults:  make(map[ModelType]string),
	}
}

// Register adds a provider and indexes its supported models. Registering
// the same name again replaces the previous instance without disturbing
// the model index or defaults.
func (r *Registry) Register(p Provider) error {
	info := p.Info()
	if info.Name == "" {
		return fmt.Errorf("provider name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.providers[info.Name] = p
	for _, model := range p.SupportedModels() {
		if !containsName(r.byModel[model], info.Name) {
			r.byModel[model] = append(r.byModel[model], info.Name)
		}
		if _, ok := r.defaults[model]; !ok {
			r.defaults[model] = info.Name
		}
	}
	return nil
}

// Unregister removes a provider. Models it was the default for fall back
// to the next provider in priority order, or drop out of the index when
// no provider remains.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.providers, name)
	for model, names := range r.byModel {
		kept := names[:0]
		for _, n := range names {
			if n != name {
				kept = append(kept, n)
			}
		}
		if len(kept) == 0 {
			delete(r.byModel, model)
			delete(r.defaults, model)
			continue
		}
		r.byModel[model] = kept
		if r.defaults[model] == name {
			r.defaults[model] = kept[0]
		}
	}
}

// Get returns a provider by name.
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	if !ok {
		return nil, &ErrProviderNotFound{Name: name}
	}
	return p, nil
}

// List returns the registered providers' info, sorted by name.
func (r *Registry) List() []ProviderInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]ProviderInfo, 0, len(r.providers))
	for _, p := range r.providers {
		infos = append(infos, p.Info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// ProvidersFor returns the names of the providers serving a model, in
// priority order.
func (r *Registry) ProvidersFor(model ModelType) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.byModel[model]))
	copy(names, r.byModel[model])
	return names
}

// DefaultProvider returns the default provider name for a model.
func (r *Registry) DefaultProvider(model ModelType) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	name, ok := r.defaults[model]
	return name, ok
}

// SetDefault makes the named provider the default for a model. The
// provider must exist and carry a fetcher for the model.
func (r *Registry) SetDefault(model ModelType, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.providers[name]
	if !ok {
		return &ErrProviderNotFound{Name: name}
	}
	if p.Fetcher(model) == nil {
		return &ErrModelNotSupported{Provider: name, Model: model}
	}
	r.defaults[model] = name
	return nil
}

// ModelCoverage maps every indexed model to the providers serving it.
func (r *Registry) ModelCoverage() map[ModelType][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	coverage := make(map[ModelType][]string, len(r.byModel))
	for model, names := range r.byModel {
		cp := make([]string, len(names))
		copy(cp, names)
		coverage[model] = cp
	}
	return coverage
}

// Fetch retrieves a model through the provider named in params, or the
// model's default provider when none is named. Required parameters are
// validated before the fetcher runs.
func (r *Registry) Fetch(ctx context.Context, model ModelType, params QueryParams) (*FetchResult, error) {
	name, fetcher, err := r.resolve(model, params[ParamProvider])
	if err != nil {
		return nil, err
	}
	if err := ValidateParams(params, fetcher.RequiredParams()); err != nil {
		return nil, err
	}

	result, err := fetcher.Fetch(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("provider %q fetch %s: %w", name, model, err)
	}

	result.Provider = name
	result.Model = model
	if result.FetchedAt.IsZero() {
		result.FetchedAt = time.Now()
	}
	return result, nil
}

// FetchWithFallback tries the preferred provider first, then every other
// provider serving the model, in priority order.
func (r *Registry) FetchWithFallback(ctx context.Context, model ModelType, params QueryParams) (*FetchResult, error) {
	result, err := r.Fetch(ctx, model, params)
	if err == nil {
		return result, nil
	}

	preferred := params[ParamProvider]
	for _, name := range r.ProvidersFor(model) {
		if name == preferred {
			continue
		}
		retry := make(QueryParams, len(params))
		for k, v := range params {
			retry[k] = v
		}
		retry[ParamProvider] = name

		if result, err = r.Fetch(ctx, model, retry); err == nil {
			return result, nil
		}
	}
	return nil, fmt.Errorf("all providers failed for model %s: %w", model, err)
}

// resolve looks up the provider and fetcher serving a model.
func (r *Registry) resolve(model ModelType, name string) (string, Fetcher, error) {
	r.mu.RLock()
	if name == "" {
		name = r.defaults[model]
	}
	p, ok := r.providers[name]
	r.mu.RUnlock()

	if !ok || name == "" {
		return "", nil, &ErrProviderNotFound{Name: name}
	}
	fetcher := p.Fetcher(model)
	if fetcher == nil {
		return "", nil, &ErrModelNotSupported{Provider: name, Model: model}
	}
	return name, fetcher, nil
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// global is the process-wide registry the CLI registers into.
var global = NewRegistry()

// Global returns the process-wide registry.
func Global() *Registry {
	return global
}
