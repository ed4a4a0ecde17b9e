package plugin

import (
	"context"
	"io"

	"github.com/mosaicfw/mosaic/internal/domain/capability"
)

// Plugin is the contract every loaded module satisfies. The host drives
// it through initialize, start, and stop; Metadata returns the manifest
// the module was built against.
type Plugin interface {
	// Initialize prepares the plugin. It receives the capability
	// registry to resolve dependencies registered by earlier plugins or
	// the host, and to register its own capabilities.
	Initialize(reg *capability.Registry) error

	// Start activates the plugin: register UI routes and menu entries,
	// publish initial state, begin producing events.
	Start() error

	// Stop halts the plugin. Best-effort; a stop failure is logged but
	// does not block stopping siblings.
	Stop() error

	// Metadata returns the plugin's manifest.
	Metadata() Manifest
}

// BinaryLoader opens one plugin binary and produces its live object.
// Implementations live in the module package (builtin factory table,
// WASM modules); the closer releases the binary handle at unload.
type BinaryLoader interface {
	// Open loads the binary described by the manifest, resolves its
	// entry factory, and instantiates the plugin object. dir is the
	// directory the manifest was discovered in.
	Open(ctx context.Context, dir string, m Manifest) (Plugin, io.Closer, error)
}

// Discoverer finds candidate plugins across the configured search paths.
type Discoverer interface {
	Discover(ctx context.Context) (*DiscoveryResult, error)
}
