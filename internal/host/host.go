// Package host assembles the application root: configuration, the
// capability registry with the built-in providers, and the plugin
// lifecycle manager with its binary backends.
package host

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/mosaicfw/mosaic/internal/domain/capability"
	"github.com/mosaicfw/mosaic/internal/domain/eventbus"
	"github.com/mosaicfw/mosaic/internal/domain/menu"
	"github.com/mosaicfw/mosaic/internal/domain/module"
	"github.com/mosaicfw/mosaic/internal/domain/nav"
	"github.com/mosaicfw/mosaic/internal/domain/plugin"
	"github.com/mosaicfw/mosaic/internal/domain/settings"
	"github.com/mosaicfw/mosaic/internal/domain/theme"
	"github.com/mosaicfw/mosaic/internal/plugins/reports"
	"github.com/mosaicfw/mosaic/internal/plugins/rules"
)

// Host is the application root. It owns the capability registry, the
// built-in service providers, and the plugin lifecycle manager; every
// other object hangs off it and is torn down by Close in reverse order
// of construction.
type Host struct {
	cfg    Config
	logger *slog.Logger

	registry *capability.Registry
	menu     *menu.Service
	nav      *nav.Service
	bus      *eventbus.Bus
	settings *settings.Store
	theme    *theme.Service

	wasm    *module.WasmLoader
	manager *plugin.Manager

	started bool
}

// New builds the host: services constructed, capabilities registered,
// backends wired. No plugin runs until Start.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Host, error) {
	if logger == nil {
		logger = slog.Default()
	}

	h := &Host{
		cfg:      cfg,
		logger:   logger,
		registry: capability.NewRegistry(),
		menu:     menu.NewService(),
		nav:      nav.NewService(),
		bus:      eventbus.NewBus(),
		theme:    theme.NewService(cfg.Theme.Themes, cfg.Theme.Active),
	}

	settingsPath := filepath.Join(dataDir(cfg), "settings.yaml")
	store, err := settings.Open(settingsPath)
	if err != nil {
		return nil, fmt.Errorf("opening settings: %w", err)
	}
	h.settings = store

	if err := h.registerHostCapabilities(); err != nil {
		return nil, err
	}

	wasmLoader, err := module.NewWasmLoader(ctx, logger)
	if err != nil {
		return nil, fmt.Errorf("creating wasm backend: %w", err)
	}
	h.wasm = wasmLoader

	builtins := module.NewBuiltinLoader()
	builtins.Register(rules.PluginID, rules.New)
	builtins.Register(reports.PluginID, reports.New)

	h.manager = plugin.NewManager(h.registry,
		plugin.WithDiscoverer(h.newDiscoverer(builtins)),
		plugin.WithBinaryLoader(module.NewDispatcher(builtins, wasmLoader)),
		plugin.WithLogger(logger),
	)
	return h, nil
}

// registerHostCapabilities publishes the built-in providers under their
// capability identities, all owned by the host.
func (h *Host) registerHostCapabilities() error {
	providers := []struct {
		id       string
		provider any
	}{
		{capability.NavigationID, capability.Navigation(h.nav)},
		{capability.MenuID, capability.Menu(h.menu)},
		{capability.SettingsID, capability.Settings(h.settings)},
		{capability.ThemeID, capability.Theme(h.theme)},
		{capability.EventBusID, capability.EventBus(h.bus)},
		{capability.LoggerID, capability.Logger(&slogAdapter{base: h.logger})},
	}
	for _, p := range providers {
		if err := h.registry.Register(p.id, capability.APIVersion, p.provider, capability.HostOwner); err != nil {
			return fmt.Errorf("registering %s: %w", p.id, err)
		}
	}
	return nil
}

// newDiscoverer composes builtin plugin descriptors with filesystem
// discovery over the resolved search paths, filtering out plugins the
// configuration disables.
func (h *Host) newDiscoverer(builtins *module.BuiltinLoader) plugin.Discoverer {
	var builtin []plugin.Discovered
	for _, m := range builtins.Manifests() {
		builtin = append(builtin, plugin.Discovered{Manifest: m})
	}

	return &filteredDiscoverer{
		builtin:  builtin,
		disk:     plugin.NewLoader(PluginSearchPaths(&h.cfg)...),
		disabled: h.cfg.IsDisabled,
	}
}

// Start drives every discovered plugin to its running state. Per-plugin
// failures are isolated; the host comes up with whatever subset made it.
func (h *Host) Start(ctx context.Context) error {
	count, err := h.manager.DiscoverAll(ctx)
	if err != nil {
		return err
	}
	h.logger.Info("plugin discovery complete", "count", count)

	h.manager.LoadAll(ctx)
	h.manager.InitializeAll(ctx)
	h.manager.StartAll(ctx)
	h.started = true

	h.logger.Debug("ui import paths", "paths", UISearchPaths())

	for _, record := range h.manager.Errors() {
		h.logger.Warn("plugin failure", "plugin", record.PluginID, "error", record.Err)
	}
	return nil
}

// AttachPresenter binds the display surface to navigation. Plugins may
// already have registered routes and navigated; the active page is
// replayed onto the new surface.
func (h *Host) AttachPresenter(p nav.Presenter) {
	h.nav.Attach(p)
}

// Close tears the host down: plugins stop and unload in reverse start
// order, settings persist, and the wasm runtime is released.
func (h *Host) Close() error {
	if h.started {
		h.manager.StopAll()
		h.manager.UnloadAll()
		h.started = false
	}

	var firstErr error
	if err := h.settings.Save(); err != nil {
		firstErr = err
	}
	if err := h.wasm.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// Registry returns the capability registry.
func (h *Host) Registry() *capability.Registry { return h.registry }

// Manager returns the plugin lifecycle manager.
func (h *Host) Manager() *plugin.Manager { return h.manager }

// Menu returns the host menu service.
func (h *Host) Menu() *menu.Service { return h.menu }

// Navigation returns the host navigation service.
func (h *Host) Navigation() *nav.Service { return h.nav }

// UIModuleURIs aggregates the UI bundles of every started plugin.
func (h *Host) UIModuleURIs() []string { return h.manager.UIModuleURIs() }

// UIImportPaths resolves the directories a UI shell should add to its
// module import path before loading the bundles in UIModuleURIs.
func (h *Host) UIImportPaths() []string { return UISearchPaths() }

func dataDir(cfg Config) string {
	if cfg.App.DataDir != "" {
		return cfg.App.DataDir
	}
	return filepath.Join(SDKRoot(), "data")
}

// filteredDiscoverer merges builtin descriptors with filesystem
// discovery and drops disabled ids. Builtin descriptors come first, so
// a disk plugin cannot shadow a builtin id.
type filteredDiscoverer struct {
	builtin  []plugin.Discovered
	disk     plugin.Discoverer
	disabled func(id string) bool
}

func (d *filteredDiscoverer) Discover(ctx context.Context) (*plugin.DiscoveryResult, error) {
	diskResult, err := d.disk.Discover(ctx)
	if err != nil {
		return nil, err
	}

	merged := &plugin.DiscoveryResult{Errors: diskResult.Errors}
	seen := make(map[string]bool)
	for _, candidate := range append(append([]plugin.Discovered{}, d.builtin...), diskResult.Plugins...) {
		id := candidate.Manifest.ID
		if seen[id] || d.disabled(id) {
			continue
		}
		seen[id] = true
		merged.Plugins = append(merged.Plugins, candidate)
	}
	return merged, nil
}
