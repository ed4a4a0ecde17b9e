package plugin

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mosaicfw/mosaic/internal/domain/capability"
)

// Hooks are optional observation points for lifecycle progress. The host
// wires them to its log and error notification channel.
type Hooks struct {
	OnDiscovered  func(id string)
	OnLoaded      func(id string)
	OnInitialized func(id string)
	OnStarted     func(id string)
	OnStopped     func(id string)
	OnUnloaded    func(id string)
	// OnError receives every per-plugin failure record as it happens.
	OnError func(id string, err error)
}

// Manager discovers candidate modules, builds an ordered load plan from
// their descriptors, and drives every instance through its lifecycle
// state machine, isolating per-plugin failures.
//
// The manager is single-threaded: discovery, load, initialize, and start
// are sequential calls driven by the host's main goroutine. It provides
// no timeout for a hung plugin hook; a plugin that never returns from
// initialize stalls host startup.
type Manager struct {
	registry   *capability.Registry
	discoverer Discoverer
	binaries   BinaryLoader
	logger     *slog.Logger
	hooks      Hooks

	instances map[string]*Instance
	// discovered preserves discovery order for the load phase.
	discovered []string
	// planOrder is the resolved initialization order.
	planOrder []string
	// startOrder records the plugins that actually started, in order;
	// teardown walks it backwards.
	startOrder []string

	records []Record
}

// Option configures a Manager.
type Option func(*Manager)

// WithDiscoverer sets the plugin discoverer.
func WithDiscoverer(d Discoverer) Option {
	return func(m *Manager) { m.discoverer = d }
}

// WithBinaryLoader sets the binary module backend.
func WithBinaryLoader(b BinaryLoader) Option {
	return func(m *Manager) { m.binaries = b }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithHooks sets the lifecycle observation hooks.
func WithHooks(h Hooks) Option {
	return func(m *Manager) { m.hooks = h }
}

// NewManager creates a lifecycle manager over the given capability
// registry.
func NewManager(registry *capability.Registry, opts ...Option) *Manager {
	m := &Manager{
		registry:  registry,
		logger:    slog.Default(),
		instances: make(map[string]*Instance),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// DiscoverAll scans the search paths and creates one Discovered instance
// per unique plugin id. Returns the number of new candidates.
func (m *Manager) DiscoverAll(ctx context.Context) (int, error) {
	if m.discoverer == nil {
		return 0, fmt.Errorf("no discoverer configured")
	}

	result, err := m.discoverer.Discover(ctx)
	if err != nil {
		return 0, fmt.Errorf("discovering plugins: %w", err)
	}

	for _, derr := range result.Errors {
		m.logger.Warn("plugin discovery error", "path", derr.Path, "error", derr.Err)
		m.record("", &derr)
	}

	count := 0
	for _, d := range result.Plugins {
		if _, exists := m.instances[d.Manifest.ID]; exists {
			// Re-discovery of a resident id keeps the existing instance.
			continue
		}
		inst, err := newInstance(d)
		if err != nil {
			m.record(d.Manifest.ID, err)
			continue
		}
		m.instances[d.Manifest.ID] = inst
		m.discovered = append(m.discovered, d.Manifest.ID)
		count++
		m.logger.Debug("discovered plugin", "id", d.Manifest.ID, "version", d.Manifest.Version, "dir", d.Dir)
		if m.hooks.OnDiscovered != nil {
			m.hooks.OnDiscovered(d.Manifest.ID)
		}
	}

	return count, nil
}

// LoadAll opens the binary of every Discovered plugin. A single load
// failure moves that plugin to Failed and the batch continues; returns
// true iff at least one plugin loaded.
func (m *Manager) LoadAll(ctx context.Context) bool {
	if m.binaries == nil {
		m.logger.Error("no binary loader configured")
		return false
	}

	loaded := 0
	for _, id := range m.discovered {
		if m.instances[id].State() != StateDiscovered {
			continue
		}
		if err := m.LoadOne(ctx, id); err != nil {
			continue
		}
		loaded++
		m.logger.Debug("loaded plugin", "id", id)
	}

	return loaded > 0
}

// LoadOne opens the binary of one Discovered plugin by id. Used by
// hosts that stage plugins individually instead of in a batch.
func (m *Manager) LoadOne(ctx context.Context, id string) error {
	inst, ok := m.instances[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotDiscovered, id)
	}
	if inst.State() != StateDiscovered {
		return fmt.Errorf("%w: %s", ErrAlreadyLoaded, id)
	}
	if m.binaries == nil {
		return fmt.Errorf("no binary loader configured")
	}

	p, handle, err := m.binaries.Open(ctx, inst.dir, inst.descriptor)
	if err != nil {
		loadErr := &LoadError{PluginID: id, Path: inst.dir, Err: err}
		m.fail(inst, loadErr)
		return loadErr
	}

	inst.plugin = p
	inst.handle = handle
	inst.send(eventLoad)
	if m.hooks.OnLoaded != nil {
		m.hooks.OnLoaded(id)
	}
	return nil
}

// InitializeAll resolves the load plan over every Loaded plugin and
// invokes initialize hooks in plan order. Ordering failures and hook
// failures are scoped to the plugin that caused them. Returns true iff
// at least one plugin initialized.
func (m *Manager) InitializeAll(_ context.Context) bool {
	manifests := make([]Manifest, 0, len(m.discovered))
	for _, id := range m.discovered {
		if inst := m.instances[id]; inst.State() == StateLoaded {
			manifests = append(manifests, inst.descriptor)
		}
	}

	hostProvided := make(map[string]bool)
	for _, reg := range m.registry.List() {
		hostProvided[reg.ID] = true
	}

	plan := Resolve(manifests, hostProvided)
	for _, failure := range plan.Failed {
		m.fail(m.instances[failure.PluginID], failure.Err)
	}
	m.planOrder = plan.Order

	initialized := 0
	for _, id := range plan.Order {
		inst := m.instances[id]
		if m.initializeOne(inst) {
			initialized++
		}
	}

	return initialized > 0
}

// initializeOne runs the pre-resolution check and the initialize hook
// for a single instance.
func (m *Manager) initializeOne(inst *Instance) bool {
	id := inst.ID()

	// An unmet version minimum, or a provider that failed its own
	// initialization, fails this plugin only.
	for _, req := range inst.descriptor.Requires {
		if _, err := m.registry.ResolveVersion(req.ID, req.Min); err != nil {
			m.fail(inst, err)
			return false
		}
	}

	if err := inst.plugin.Initialize(m.registry); err != nil {
		hookErr := &HookError{PluginID: id, Hook: "initialize", Err: err}
		m.registry.RevokeAll(id)
		m.fail(inst, hookErr)
		return false
	}

	inst.send(eventInit)
	m.logger.Debug("initialized plugin", "id", id)
	if m.hooks.OnInitialized != nil {
		m.hooks.OnInitialized(id)
	}
	return true
}

// StartAll invokes the start hook of every Initialized plugin in plan
// order. A start failure immediately revokes the plugin's capability
// registrations. Returns true iff at least one plugin started.
func (m *Manager) StartAll(_ context.Context) bool {
	started := 0
	for _, id := range m.planOrder {
		inst := m.instances[id]
		if inst.State() != StateInitialized {
			continue
		}

		if err := inst.plugin.Start(); err != nil {
			hookErr := &HookError{PluginID: id, Hook: "start", Err: err}
			m.registry.RevokeAll(id)
			m.fail(inst, hookErr)
			continue
		}

		inst.send(eventStart)
		m.startOrder = append(m.startOrder, id)
		started++
		m.logger.Info("started plugin", "id", id, "version", inst.descriptor.Version)
		if m.hooks.OnStarted != nil {
			m.hooks.OnStarted(id)
		}
	}

	return started > 0
}

// StopAll invokes stop hooks in exact reverse start order. Stop is
// best-effort: a failure is recorded and the teardown continues.
func (m *Manager) StopAll() {
	for i := len(m.startOrder) - 1; i >= 0; i-- {
		id := m.startOrder[i]
		inst := m.instances[id]
		if inst.State() != StateStarted {
			continue
		}

		if err := inst.plugin.Stop(); err != nil {
			hookErr := &HookError{PluginID: id, Hook: "stop", Err: err}
			m.registry.RevokeAll(id)
			m.fail(inst, hookErr)
			continue
		}

		inst.send(eventStop)
		m.logger.Debug("stopped plugin", "id", id)
		if m.hooks.OnStopped != nil {
			m.hooks.OnStopped(id)
		}
	}
}

// UnloadAll revokes every plugin's capability registrations and releases
// the binary handles, in strict reverse of the start order so that no
// plugin is unloaded while a later-started dependent is still resident.
// Plugins that never started unload afterwards in reverse plan order.
func (m *Manager) UnloadAll() {
	for i := len(m.startOrder) - 1; i >= 0; i-- {
		m.unloadOne(m.startOrder[i])
	}
	for i := len(m.planOrder) - 1; i >= 0; i-- {
		m.unloadOne(m.planOrder[i])
	}
	m.startOrder = nil
	m.planOrder = nil
}

func (m *Manager) unloadOne(id string) {
	inst, ok := m.instances[id]
	if !ok {
		return
	}
	switch inst.State() {
	case StateLoaded, StateInitialized, StateStopped:
	default:
		return
	}

	m.registry.RevokeAll(id)
	if inst.handle != nil {
		if err := inst.handle.Close(); err != nil {
			m.logger.Warn("closing plugin binary", "id", id, "error", err)
		}
		inst.handle = nil
	}
	inst.plugin = nil
	inst.send(eventUnload)
	m.logger.Debug("unloaded plugin", "id", id)
	if m.hooks.OnUnloaded != nil {
		m.hooks.OnUnloaded(id)
	}
}

// Instance returns the resident instance for an id.
func (m *Manager) Instance(id string) (*Instance, bool) {
	inst, ok := m.instances[id]
	return inst, ok
}

// Instances returns every resident instance in discovery order.
func (m *Manager) Instances() []*Instance {
	out := make([]*Instance, 0, len(m.discovered))
	for _, id := range m.discovered {
		out = append(out, m.instances[id])
	}
	return out
}

// StartOrder returns a copy of the order plugins actually started in.
func (m *Manager) StartOrder() []string {
	out := make([]string, len(m.startOrder))
	copy(out, m.startOrder)
	return out
}

// Errors returns the accumulated per-plugin failure records.
func (m *Manager) Errors() []Record {
	out := make([]Record, len(m.records))
	copy(out, m.records)
	return out
}

// UIModuleURIs aggregates the UI bundle identifiers of every started
// plugin, in start order.
func (m *Manager) UIModuleURIs() []string {
	var uris []string
	for _, id := range m.startOrder {
		uris = append(uris, m.instances[id].descriptor.UIModules...)
	}
	return uris
}

// fail moves an instance to Failed, records the cause, and releases its
// binary handle so a failed module does not stay resident until the
// whole runtime closes.
func (m *Manager) fail(inst *Instance, err error) {
	id := inst.ID()
	inst.fail(err)
	m.record(id, err)

	if inst.handle != nil {
		if cerr := inst.handle.Close(); cerr != nil {
			m.logger.Warn("closing plugin binary", "id", id, "error", cerr)
		}
		inst.handle = nil
	}
	inst.plugin = nil
}

func (m *Manager) record(id string, err error) {
	m.records = append(m.records, Record{PluginID: id, Err: err})
	if m.hooks.OnError != nil {
		m.hooks.OnError(id, err)
	}
}
