// Package module provides the binary backends that turn a discovered
// plugin descriptor into a live plugin: builtin factories compiled into
// the host and WASM modules shipped alongside the manifest.
package module

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/mosaicfw/mosaic/internal/domain/plugin"
)

// Factory constructs one builtin plugin instance.
type Factory func() plugin.Plugin

// BuiltinLoader serves plugins compiled into the host binary, keyed by
// manifest id. It backs every descriptor with an empty module field.
type BuiltinLoader struct {
	mu        sync.Mutex
	factories map[string]Factory
}

// NewBuiltinLoader creates an empty builtin backend.
func NewBuiltinLoader() *BuiltinLoader {
	return &BuiltinLoader{factories: make(map[string]Factory)}
}

// Register associates a factory with a plugin id. Later registrations
// for the same id replace earlier ones.
func (b *BuiltinLoader) Register(id string, factory Factory) {
	if id == "" || factory == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.factories[id] = factory
}

// Manifests returns the descriptor of every registered builtin plugin,
// sorted by id. Each descriptor comes from a fresh factory instance.
func (b *BuiltinLoader) Manifests() []plugin.Manifest {
	b.mu.Lock()
	factories := make([]Factory, 0, len(b.factories))
	for _, id := range b.idsLocked() {
		factories = append(factories, b.factories[id])
	}
	b.mu.Unlock()

	out := make([]plugin.Manifest, 0, len(factories))
	for _, factory := range factories {
		out = append(out, factory().Metadata())
	}
	return out
}

// IDs returns the registered builtin plugin ids, sorted.
func (b *BuiltinLoader) IDs() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.idsLocked()
}

func (b *BuiltinLoader) idsLocked() []string {
	ids := make([]string, 0, len(b.factories))
	for id := range b.factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Open constructs the builtin plugin for a descriptor.
func (b *BuiltinLoader) Open(_ context.Context, _ string, m plugin.Manifest) (plugin.Plugin, io.Closer, error) {
	if !m.IsBuiltin() {
		return nil, nil, fmt.Errorf("plugin %s declares a binary module", m.ID)
	}

	b.mu.Lock()
	factory, ok := b.factories[m.ID]
	b.mu.Unlock()
	if !ok {
		return nil, nil, fmt.Errorf("no builtin plugin registered for %s", m.ID)
	}

	return factory(), nil, nil
}

var _ plugin.BinaryLoader = (*BuiltinLoader)(nil)

// Dispatcher routes descriptors to the builtin or binary backend based
// on whether the manifest names a module file.
type Dispatcher struct {
	builtin plugin.BinaryLoader
	binary  plugin.BinaryLoader
}

// NewDispatcher creates a routing backend. Either side may be nil; a
// descriptor routed to a nil side fails to load.
func NewDispatcher(builtin, binary plugin.BinaryLoader) *Dispatcher {
	return &Dispatcher{builtin: builtin, binary: binary}
}

// Open routes to the backend matching the descriptor.
func (d *Dispatcher) Open(ctx context.Context, dir string, m plugin.Manifest) (plugin.Plugin, io.Closer, error) {
	backend := d.binary
	if m.IsBuiltin() {
		backend = d.builtin
	}
	if backend == nil {
		return nil, nil, fmt.Errorf("no backend available for plugin %s", m.ID)
	}
	return backend.Open(ctx, dir, m)
}

var _ plugin.BinaryLoader = (*Dispatcher)(nil)
