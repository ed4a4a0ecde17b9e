// Package capability provides the process-wide registry mapping capability
// identities to their sole live provider, plus the abstract capability
// contracts plugins consume and implement.
package capability

import (
	"sort"
	"strings"
	"sync"

	"golang.org/x/mod/semver"
)

// HostOwner is the owner id used for registrations made by the host
// itself rather than by a plugin.
const HostOwner = "host"

// ChangeKind describes what happened to a registration.
type ChangeKind string

const (
	// ChangeRegistered means a provider was added.
	ChangeRegistered ChangeKind = "registered"
	// ChangeRevoked means a provider was removed.
	ChangeRevoked ChangeKind = "revoked"
)

// Change is delivered to observers after a registry mutation.
type Change struct {
	Kind  ChangeKind
	ID    string
	Owner string
}

// Registration is one live registry entry.
type Registration struct {
	// ID is the capability interface identity (e.g. "mosaic.menu").
	ID string
	// Version is the provider's API version (semver).
	Version string
	// Provider is the concrete implementation.
	Provider any
	// Owner is the plugin id (or HostOwner) the entry is attributed to.
	Owner string
}

// Registry is the process-wide capability table. It is owned by the host
// and outlives every plugin; plugin instance records keep only the keys
// needed to revoke their own entries.
type Registry struct {
	mu        sync.Mutex
	entries   map[string]Registration
	observers []func(Change)
}

// NewRegistry creates an empty capability registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]Registration),
	}
}

// Register stores a provider for a capability identity. At most one
// provider per identity may be live at a time: a second registration is
// rejected with a ConflictError, never overwritten.
func (r *Registry) Register(id, version string, provider any, owner string) error {
	if id == "" {
		return ErrEmptyCapabilityID
	}
	if provider == nil {
		return ErrNilProvider
	}

	r.mu.Lock()
	if existing, ok := r.entries[id]; ok {
		r.mu.Unlock()
		return &ConflictError{ID: id, Owner: existing.Owner}
	}
	r.entries[id] = Registration{ID: id, Version: version, Provider: provider, Owner: owner}
	observers := r.observers
	r.mu.Unlock()

	notify(observers, Change{Kind: ChangeRegistered, ID: id, Owner: owner})
	return nil
}

// Resolve returns the sole current provider for an identity.
func (r *Registry) Resolve(id string) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[id]
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	return entry.Provider, nil
}

// ResolveVersion returns the provider for an identity if its registered
// version meets the given minimum. A provider that is present but too old
// resolves to a VersionError so the caller can fail just its own startup.
func (r *Registry) ResolveVersion(id, minVersion string) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[id]
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	if minVersion != "" && !meetsMinimum(entry.Version, minVersion) {
		return nil, &VersionError{ID: id, Have: entry.Version, Want: minVersion}
	}
	return entry.Provider, nil
}

// Lookup returns the full registration for an identity.
func (r *Registry) Lookup(id string) (Registration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[id]
	return entry, ok
}

// RevokeAll removes every entry attributed to the given owner. Revoking
// an owner with no entries is a no-op, not an error. Returns the ids that
// were removed.
func (r *Registry) RevokeAll(owner string) []string {
	r.mu.Lock()
	var removed []string
	for id, entry := range r.entries {
		if entry.Owner == owner {
			delete(r.entries, id)
			removed = append(removed, id)
		}
	}
	sort.Strings(removed)
	observers := r.observers
	r.mu.Unlock()

	for _, id := range removed {
		notify(observers, Change{Kind: ChangeRevoked, ID: id, Owner: owner})
	}
	return removed
}

// List returns a snapshot of all registrations, sorted by id. The
// snapshot is copied under the lock; mutating it does not affect the
// registry.
func (r *Registry) List() []Registration {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Registration, 0, len(r.entries))
	for _, entry := range r.entries {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Count returns the number of live registrations.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Observe adds a change observer. Observers are invoked after the
// mutation completes, outside the registry lock.
func (r *Registry) Observe(fn func(Change)) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, fn)
}

func notify(observers []func(Change), c Change) {
	for _, fn := range observers {
		fn(c)
	}
}

// meetsMinimum reports whether have >= want under semver ordering.
// Versions may omit the leading "v".
func meetsMinimum(have, want string) bool {
	h := normalizeVersion(have)
	w := normalizeVersion(want)
	if !semver.IsValid(h) || !semver.IsValid(w) {
		return false
	}
	return semver.Compare(h, w) >= 0
}

func normalizeVersion(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return v
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}
