// Package plugin defines the content-plugin capability and its registry.
//
// A plugin fetches external data and renders zero or more messages. Plugins
// are registered once at startup under a stable string id; the runner resolves
// jobs against the registry and treats unknown ids as job failures.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"pushbrief/internal/push"
)

// ErrUnknownPlugin is returned by Registry.Get for unregistered ids.
var ErrUnknownPlugin = errors.New("unknown plugin id")

// Plugin is a content plugin: given an execution context, produce messages.
//
// Run should validate its own slice of ctx.PluginConfig up front (see Decode)
// and fail with a specific error rather than a generic type error deep in
// processing. Errors abort the whole job; the runner isolates them.
type Plugin interface {
	ID() string
	Run(ctx context.Context, pc push.Context) ([]push.Message, error)
}

// Registry maps plugin ids to implementations. Assembled once at startup;
// safe for concurrent reads afterwards.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]Plugin
}

func NewRegistry() *Registry {
	return &Registry{plugins: map[string]Plugin{}}
}

// Register adds plugins to the registry. A duplicate or empty id is a
// programming error and panics (registration happens in main, before any
// job runs).
func (r *Registry) Register(ps ...Plugin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range ps {
		if p == nil {
			continue
		}
		id := p.ID()
		if id == "" {
			panic("plugin: registered plugin with empty id")
		}
		if _, dup := r.plugins[id]; dup {
			panic(fmt.Sprintf("plugin: duplicate plugin id %q", id))
		}
		r.plugins[id] = p
	}
}

// Get resolves a plugin by id.
func (r *Registry) Get(id string) (Plugin, error) {
	r.mu.RLock()
	p, ok := r.plugins[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlugin, id)
	}
	return p, nil
}

// Has reports whether id is registered. Used by config validation.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	_, ok := r.plugins[id]
	r.mu.RUnlock()
	return ok
}

// IDs returns the registered ids, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.plugins))
	for id := range r.plugins {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Strings(ids)
	return ids
}
