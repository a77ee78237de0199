package llm

import (
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
)

// Registry holds the configured providers and resolves per-request
// overrides. An unknown override never fails a request: it logs a warning
// and falls back to the default provider.
type Registry struct {
	mu          sync.RWMutex
	providers   map[string]Provider
	defaultName string
	logger      *logrus.Logger
}

// NewRegistry creates an empty registry with the given default provider name.
func NewRegistry(defaultName string, logger *logrus.Logger) *Registry {
	if logger == nil {
		logger = logrus.New()
	}
	return &Registry{
		providers:   make(map[string]Provider),
		defaultName: defaultName,
		logger:      logger,
	}
}

// Register adds a provider under its own name.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// Get returns the named provider, or an error if it is not registered.
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("llm provider %q is not registered", name)
	}
	return p, nil
}

// Default returns the default provider.
func (r *Registry) Default() (Provider, error) {
	return r.Get(r.defaultName)
}

// Resolve returns the provider for an optional per-request override. An
// empty override selects the default; an unknown override logs a warning
// and also selects the default.
func (r *Registry) Resolve(override string) (Provider, error) {
	if override == "" {
		return r.Default()
	}

	p, err := r.Get(override)
	if err != nil {
		r.logger.WithFields(logrus.Fields{
			"requested": override,
			"fallback":  r.defaultName,
		}).Warn("Unknown LLM provider requested, using default")
		return r.Default()
	}
	return p, nil
}

// Available returns the registered provider names, sorted.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks that the registry can serve requests.
func (r *Registry) Validate() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.providers) == 0 {
		return fmt.Errorf("no llm providers registered")
	}
	if _, ok := r.providers[r.defaultName]; !ok {
		return fmt.Errorf("default llm provider %q is not registered", r.defaultName)
	}
	return nil
}
