// Package rules is a builtin plugin providing the business rule engine
// capability, plus its menu and navigation contributions.
package rules

import (
	"fmt"
	"sync"

	"github.com/mosaicfw/mosaic/internal/domain/capability"
	"github.com/mosaicfw/mosaic/internal/domain/plugin"
	"github.com/mosaicfw/mosaic/internal/domain/safety"
)

// PluginID is the rules plugin identity.
const PluginID = "com.biiz.rules"

// EngineID is the capability identity the plugin provides.
const EngineID = "biiz.rules.engine"

// TopicChanged is published whenever the rule set changes. The payload
// is a map with "count" and "ruleId".
const TopicChanged = "rules.changed"

// Engine is the rule store capability other plugins consume. Rules are
// opaque boundary values owned by the engine; every rule crossing the
// interface is deep-copied.
type Engine interface {
	// AddRule stores a rule and returns its assigned id.
	AddRule(rule safety.Value) string
	// Rule returns a stored rule by id.
	Rule(id string) (safety.Value, bool)
	// Rules returns all stored rules in insertion order.
	Rules() []safety.Value
	// RemoveRule deletes a rule by id.
	RemoveRule(id string) bool
}

// engine is the in-memory Engine implementation.
type engine struct {
	mu    sync.Mutex
	next  int
	order []string
	rules map[string]safety.Value
	bus   capability.EventBus
}

func newEngine(bus capability.EventBus) *engine {
	return &engine{rules: make(map[string]safety.Value), bus: bus}
}

func (e *engine) AddRule(rule safety.Value) string {
	e.mu.Lock()
	e.next++
	id := fmt.Sprintf("rule-%d", e.next)
	e.rules[id] = safety.DeepCopy(rule)
	e.order = append(e.order, id)
	count := len(e.rules)
	e.mu.Unlock()

	e.announce(id, count)
	return id
}

func (e *engine) Rule(id string) (safety.Value, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rule, ok := e.rules[id]
	if !ok {
		return safety.Null(), false
	}
	return safety.DeepCopy(rule), true
}

func (e *engine) Rules() []safety.Value {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]safety.Value, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, safety.DeepCopy(e.rules[id]))
	}
	return out
}

func (e *engine) RemoveRule(id string) bool {
	e.mu.Lock()
	if _, ok := e.rules[id]; !ok {
		e.mu.Unlock()
		return false
	}
	delete(e.rules, id)
	for i, existing := range e.order {
		if existing == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	count := len(e.rules)
	e.mu.Unlock()

	e.announce(id, count)
	return true
}

func (e *engine) announce(id string, count int) {
	if e.bus == nil {
		return
	}
	e.bus.Publish(TopicChanged, safety.Map(map[string]safety.Value{
		"ruleId": safety.String(id),
		"count":  safety.Int(int64(count)),
	}))
}

// Plugin is the rules plugin's lifecycle implementation.
type Plugin struct {
	engine *engine
	menu   capability.Menu
	nav    capability.Navigation
	bus    capability.EventBus
	logger capability.Logger
}

// New constructs the plugin for the builtin loader.
func New() plugin.Plugin {
	return &Plugin{}
}

var _ plugin.Plugin = (*Plugin)(nil)

// Metadata returns the plugin descriptor matching its manifest.
func (p *Plugin) Metadata() plugin.Manifest {
	return plugin.Manifest{
		ID:          PluginID,
		Name:        "Business Rules",
		Version:     "1.0.0",
		Description: "Rule definition and evaluation",
		Vendor:      "Biiz",
		Provides:    []string{EngineID},
		Requires: []plugin.Requirement{
			{ID: capability.MenuID, Min: "1.0"},
			{ID: capability.NavigationID, Min: "1.0"},
			{ID: capability.EventBusID, Min: "1.0"},
		},
		UIModules: []string{"qrc:/rules/RulesPage.qml"},
	}
}

// Initialize resolves host capabilities and registers the rule engine.
func (p *Plugin) Initialize(reg *capability.Registry) error {
	var err error
	if p.menu, err = capability.ResolveAs[capability.Menu](reg, capability.MenuID); err != nil {
		return err
	}
	if p.nav, err = capability.ResolveAs[capability.Navigation](reg, capability.NavigationID); err != nil {
		return err
	}
	if p.bus, err = capability.ResolveAs[capability.EventBus](reg, capability.EventBusID); err != nil {
		return err
	}
	// The logger is optional; the plugin stays silent without one.
	p.logger, _ = capability.ResolveAs[capability.Logger](reg, capability.LoggerID)

	p.engine = newEngine(p.bus)
	return reg.Register(EngineID, "1.0.0", Engine(p.engine), PluginID)
}

// Start contributes the plugin's menu entry and page route.
func (p *Plugin) Start() error {
	p.nav.RegisterRoute("/rules", "qrc:/rules/RulesPage.qml")
	p.menu.RegisterItem(capability.MenuItem{
		ID:       PluginID + ".main",
		Label:    "Rules",
		Icon:     "rule",
		Route:    "/rules",
		Group:    "Tools",
		Order:    10,
		Enabled:  true,
		PluginID: PluginID,
	})
	if p.logger != nil {
		p.logger.Info("rules", "rules plugin started")
	}
	return nil
}

// Stop withdraws the plugin's UI contributions and subscriptions.
func (p *Plugin) Stop() error {
	p.menu.UnregisterPluginItems(PluginID)
	p.bus.UnsubscribeOwner(PluginID)
	if p.logger != nil {
		p.logger.Info("rules", "rules plugin stopped")
	}
	return nil
}
