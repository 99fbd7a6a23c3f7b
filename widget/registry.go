package widget

import (
	"fmt"
	"sync"
)

// AdapterRegistry manages all vendor adapter implementations
type AdapterRegistry struct {
	adapters map[string]AdapterFactory
	mu       sync.RWMutex
}

// NewAdapterRegistry creates a new adapter registry
func NewAdapterRegistry() *AdapterRegistry {
	return &AdapterRegistry{
		adapters: make(map[string]AdapterFactory),
	}
}

// Register adds a vendor adapter factory to the registry
func (r *AdapterRegistry) Register(name string, factory AdapterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[name] = factory
}

// Get retrieves a vendor adapter factory by name
func (r *AdapterRegistry) Get(name string) (AdapterFactory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, exists := r.adapters[name]
	if !exists {
		return nil, fmt.Errorf("widget vendor '%s' is not registered", name)
	}

	return factory, nil
}

// CreateAdapter creates a new instance of a vendor adapter
func (r *AdapterRegistry) CreateAdapter(name string) (Adapter, error) {
	factory, err := r.Get(name)
	if err != nil {
		return nil, err
	}

	return factory(), nil
}

// GetVendorNames returns a list of all registered vendor names
func (r *AdapterRegistry) GetVendorNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}

	return names
}

// DefaultRegistry is the global default adapter registry
var DefaultRegistry = NewAdapterRegistry()

// Register registers a vendor adapter with the default registry
func Register(name string, factory AdapterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get retrieves a vendor adapter factory from the default registry
func Get(name string) (AdapterFactory, error) {
	return DefaultRegistry.Get(name)
}

// CreateAdapter creates a vendor adapter instance from the default registry
func CreateAdapter(name string) (Adapter, error) {
	return DefaultRegistry.CreateAdapter(name)
}
