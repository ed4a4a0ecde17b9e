package plugin

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for programmatic error handling.
var (
	// ErrManifestNotFound indicates no manifest document in a candidate
	// directory.
	ErrManifestNotFound = errors.New("plugin manifest not found")
	// ErrAlreadyLoaded indicates a load attempt for an id that already
	// has a live instance.
	ErrAlreadyLoaded = errors.New("plugin already loaded")
	// ErrNotDiscovered indicates an operation on an unknown plugin id.
	ErrNotDiscovered = errors.New("plugin not discovered")
)

// DescriptorError indicates a malformed manifest. The offending plugin is
// excluded from the load plan; discovery of siblings continues.
type DescriptorError struct {
	Field  string
	Reason string
	// Index locates the entry for list fields; -1 or 0 with a scalar
	// field means the field itself.
	Index int
}

func (e *DescriptorError) Error() string {
	if e.Field == "requires" {
		return fmt.Sprintf("invalid manifest field %q[%d]: %s", e.Field, e.Index, e.Reason)
	}
	return fmt.Sprintf("invalid manifest field %q: %s", e.Field, e.Reason)
}

// IsDescriptorError returns true if the error is a manifest validation
// failure.
func IsDescriptorError(err error) bool {
	var descErr *DescriptorError
	return errors.As(err, &descErr)
}

// DependencyError indicates a dependency cycle or a requirement no
// provider declares. Only the affected subgraph fails.
type DependencyError struct {
	PluginID string
	// Missing is the unsatisfiable capability id, empty for cycles.
	Missing string
	// Cycle lists the plugin ids of the dependency cycle, empty when a
	// provider is missing.
	Cycle []string
}

func (e *DependencyError) Error() string {
	if len(e.Cycle) > 0 {
		return fmt.Sprintf("plugin %s: dependency cycle: %s", e.PluginID, strings.Join(e.Cycle, " -> "))
	}
	if e.Missing != "" {
		return fmt.Sprintf("plugin %s: no provider for required capability %q", e.PluginID, e.Missing)
	}
	return fmt.Sprintf("plugin %s: unresolvable dependencies", e.PluginID)
}

// IsDependencyError returns true if the error is an ordering failure.
func IsDependencyError(err error) bool {
	var depErr *DependencyError
	return errors.As(err, &depErr)
}

// LoadError indicates the plugin binary could not be opened or linked.
type LoadError struct {
	PluginID string
	Path     string
	Err      error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading plugin %s from %s: %v", e.PluginID, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// IsLoadError returns true if the error is a binary load failure.
func IsLoadError(err error) bool {
	var loadErr *LoadError
	return errors.As(err, &loadErr)
}

// HookError indicates a plugin's initialize, start, or stop hook
// reported failure. The plugin transitions to Failed and its partial
// registrations are revoked; siblings are unaffected.
type HookError struct {
	PluginID string
	Hook     string
	Err      error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("plugin %s: %s hook failed: %v", e.PluginID, e.Hook, e.Err)
}

func (e *HookError) Unwrap() error {
	return e.Err
}

// IsHookError returns true if the error is a lifecycle hook failure.
func IsHookError(err error) bool {
	var hookErr *HookError
	return errors.As(err, &hookErr)
}

// DiscoveryError records a failure for a single candidate during
// discovery. Discovery of other candidates continues.
type DiscoveryError struct {
	Path string
	Err  error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discovering plugin at %s: %v", e.Path, e.Err)
}

func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// Record is one accumulated per-plugin failure surfaced to the host.
type Record struct {
	PluginID string
	Err      error
}

func (r Record) String() string {
	return fmt.Sprintf("%s: %v", r.PluginID, r.Err)
}
