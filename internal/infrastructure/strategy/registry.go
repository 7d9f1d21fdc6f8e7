// Package strategy holds the named warehouse orderings used to pick a
// fulfillment place, and the registry that resolves them from configuration.
package strategy

import (
	"fmt"
	"sort"
	"sync"

	"github.com/retailops/backend/internal/domain/inventory"
	"github.com/retailops/backend/internal/domain/shared"
)

// ComparatorRegistry manages warehouse comparator registrations
type ComparatorRegistry struct {
	mu          sync.RWMutex
	comparators map[string]inventory.WarehouseComparator
	defaultName string
}

// NewComparatorRegistry creates an empty registry
func NewComparatorRegistry() *ComparatorRegistry {
	return &ComparatorRegistry{
		comparators: make(map[string]inventory.WarehouseComparator),
	}
}

// Register adds a comparator under its name
func (r *ComparatorRegistry) Register(c inventory.WarehouseComparator) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := c.Name()
	if _, exists := r.comparators[name]; exists {
		return fmt.Errorf("%w: comparator '%s' already registered", shared.ErrAlreadyExists, name)
	}
	r.comparators[name] = c
	return nil
}

// Get returns a comparator by name, or the default if name is empty
func (r *ComparatorRegistry) Get(name string) (inventory.WarehouseComparator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if name == "" {
		name = r.defaultName
		if name == "" {
			return nil, fmt.Errorf("%w: no default comparator set", shared.ErrNotFound)
		}
	}

	c, exists := r.comparators[name]
	if !exists {
		return nil, fmt.Errorf("%w: comparator '%s' not found", shared.ErrNotFound, name)
	}
	return c, nil
}

// GetOrDefault returns a comparator by name, or the default if not found
func (r *ComparatorRegistry) GetOrDefault(name string) inventory.WarehouseComparator {
	c, err := r.Get(name)
	if err != nil {
		c, _ = r.Get("")
	}
	return c
}

// List returns all registered comparator names
func (r *ComparatorRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.comparators))
	for name := range r.comparators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Unregister removes a comparator. The default cannot be removed.
func (r *ComparatorRegistry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.comparators[name]; !exists {
		return fmt.Errorf("%w: comparator '%s' not found", shared.ErrNotFound, name)
	}
	if r.defaultName == name {
		return fmt.Errorf("%w: cannot unregister default comparator '%s'", shared.ErrInvalidInput, name)
	}
	delete(r.comparators, name)
	return nil
}

// SetDefault sets the comparator used when no name is given
func (r *ComparatorRegistry) SetDefault(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.comparators[name]; !exists {
		return fmt.Errorf("%w: comparator '%s' not found", shared.ErrNotFound, name)
	}
	r.defaultName = name
	return nil
}

// Default returns the default comparator name
func (r *ComparatorRegistry) Default() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultName
}
