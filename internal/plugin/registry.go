// Package plugin holds the registry of source-type variants and shared
// behavior useful to any variant implementation.
package plugin

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Thulrus/ParallaxIndex/internal/domain"
)

// Registry maps plugin IDs to implementations. Registration happens during
// startup wiring; lookups happen on every cycle and API call.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]domain.Plugin
}

func NewRegistry() *Registry {
	return &Registry{plugins: make(map[string]domain.Plugin)}
}

// Register adds a plugin under its definition ID. Registering the same ID
// twice is a wiring bug and fails loudly.
func (r *Registry) Register(p domain.Plugin) error {
	id := p.Definition().ID
	if id == "" {
		return fmt.Errorf("plugin has empty ID")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.plugins[id]; exists {
		return fmt.Errorf("plugin %q already registered", id)
	}
	r.plugins[id] = p
	return nil
}

func (r *Registry) Get(id string) (domain.Plugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.plugins[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrPluginNotFound, id)
	}
	return p, nil
}

// Definitions returns all registered plugin definitions sorted by ID.
func (r *Registry) Definitions() []domain.Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]domain.Definition, 0, len(r.plugins))
	for _, p := range r.plugins {
		defs = append(defs, p.Definition())
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })
	return defs
}
