package strategy

import (
	"sync"

	"github.com/tradeforge-lab/tradeforge/internal/version"
	"github.com/tradeforge-lab/tradeforge/pkg/errors"
)

// Factory builds a fresh strategy instance from parameters. Each matrix
// cell gets its own instance so indicator state never leaks between runs.
type Factory func(params Params) (Strategy, error)

// Registry manages the closed set of available strategies.
type Registry interface {
	Register(name string, factory Factory) error
	Create(name string, params Params) (Strategy, error)
	List() []string
}

type registry struct {
	factories map[string]Factory
	mu        sync.RWMutex
}

// NewRegistry creates an empty strategy registry.
func NewRegistry() Registry {
	return &registry{
		factories: make(map[string]Factory),
	}
}

// NewDefaultRegistry creates a registry with all built-in strategies.
func NewDefaultRegistry() Registry {
	r := NewRegistry()
	// Registration of built-ins cannot fail on an empty registry.
	_ = r.Register(StrategyNameBuyAndHold, NewBuyAndHold)
	_ = r.Register(StrategyNameMACrossover, NewMACrossover)
	_ = r.Register(StrategyNameRSIReversion, NewRSIReversion)

	return r
}

// Register adds a strategy factory to the registry.
func (r *registry) Register(name string, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return errors.Newf(errors.ErrCodeStrategyAlreadyExists, "strategy %q already registered", name)
	}

	r.factories[name] = factory

	return nil
}

// Create builds a fresh instance of the named strategy and checks that its
// declared API version is compatible with the engine's.
func (r *registry) Create(name string, params Params) (Strategy, error) {
	r.mu.RLock()
	factory, exists := r.factories[name]
	r.mu.RUnlock()

	if !exists {
		return nil, errors.Newf(errors.ErrCodeStrategyNotFound, "strategy %q not registered", name)
	}

	s, err := factory(params)
	if err != nil {
		return nil, err
	}

	if err := version.CheckCompatibility(APIVersion, s.Version()); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeVersionMismatch, err, "strategy %q is not compatible", name)
	}

	return s, nil
}

// List returns the names of all registered strategies.
func (r *registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}

	return names
}
