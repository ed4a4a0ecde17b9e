// Package reports is a builtin plugin that generates summaries over the
// rule engine capability and tracks rule churn on its menu badge.
package reports

import (
	"fmt"
	"sync"
	"time"

	"github.com/mosaicfw/mosaic/internal/domain/capability"
	"github.com/mosaicfw/mosaic/internal/domain/plugin"
	"github.com/mosaicfw/mosaic/internal/domain/safety"
	"github.com/mosaicfw/mosaic/internal/plugins/rules"
)

// PluginID is the reports plugin identity.
const PluginID = "com.biiz.reports"

// GeneratorID is the capability identity the plugin provides.
const GeneratorID = "biiz.reports.generator"

// TopicGenerated is published after every report run. The payload is a
// map with "reportId" and "ruleCount".
const TopicGenerated = "reports.generated"

// Generator is the report capability other modules consume.
type Generator interface {
	// Generate produces a report over the current rule set and returns
	// it as a boundary value.
	Generate() safety.Value
	// LastReport returns the most recent report, if any.
	LastReport() (safety.Value, bool)
}

type generator struct {
	mu     sync.Mutex
	next   int
	last   safety.Value
	hasOne bool

	engine rules.Engine
	bus    capability.EventBus
	now    func() time.Time
}

func (g *generator) Generate() safety.Value {
	ruleSet := g.engine.Rules()

	g.mu.Lock()
	g.next++
	id := fmt.Sprintf("report-%d", g.next)
	report := safety.Map(map[string]safety.Value{
		"id":          safety.String(id),
		"generatedAt": safety.String(g.now().UTC().Format(time.RFC3339)),
		"ruleCount":   safety.Int(int64(len(ruleSet))),
		"rules":       safety.List(ruleSet...),
	})
	g.last = safety.DeepCopy(report)
	g.hasOne = true
	g.mu.Unlock()

	if g.bus != nil {
		g.bus.Publish(TopicGenerated, safety.Map(map[string]safety.Value{
			"reportId":  safety.String(id),
			"ruleCount": safety.Int(int64(len(ruleSet))),
		}))
	}
	return report
}

func (g *generator) LastReport() (safety.Value, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.hasOne {
		return safety.Null(), false
	}
	return safety.DeepCopy(g.last), true
}

// Plugin is the reports plugin's lifecycle implementation.
type Plugin struct {
	generator *generator
	menu      capability.Menu
	nav       capability.Navigation
	bus       capability.EventBus
	logger    capability.Logger
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
		Name:        "Reports",
		Version:     "1.0.0",
		Description: "Summaries over the business rule set",
		Vendor:      "Biiz",
		Provides:    []string{GeneratorID},
		Requires: []plugin.Requirement{
			{ID: rules.EngineID, Min: "1.0"},
			{ID: capability.MenuID, Min: "1.0"},
			{ID: capability.NavigationID, Min: "1.0"},
			{ID: capability.EventBusID, Min: "1.0"},
		},
		UIModules: []string{"qrc:/reports/ReportsPage.qml"},
	}
}

// Initialize resolves host capabilities, binds the rule engine, and
// registers the report generator.
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
	p.logger, _ = capability.ResolveAs[capability.Logger](reg, capability.LoggerID)

	engine, err := capability.ResolveVersionAs[rules.Engine](reg, rules.EngineID, "1.0")
	if err != nil {
		return err
	}

	p.generator = &generator{engine: engine, bus: p.bus, now: time.Now}
	return reg.Register(GeneratorID, "1.0.0", Generator(p.generator), PluginID)
}

// Start contributes the plugin's UI entries and starts tracking rule
// churn on the menu badge.
func (p *Plugin) Start() error {
	p.nav.RegisterRoute("/reports", "qrc:/reports/ReportsPage.qml")
	p.menu.RegisterItem(capability.MenuItem{
		ID:       PluginID + ".main",
		Label:    "Reports",
		Icon:     "description",
		Route:    "/reports",
		Group:    "Tools",
		Order:    20,
		Enabled:  true,
		PluginID: PluginID,
	})

	p.bus.Subscribe(rules.TopicChanged, PluginID, func(payload safety.Value) {
		count := payload.Map["count"].Int
		badge := ""
		if count > 0 {
			badge = fmt.Sprintf("%d", count)
		}
		p.menu.SetBadge(PluginID+".main", badge)
	})

	if p.logger != nil {
		p.logger.Info("reports", "reports plugin started")
	}
	return nil
}

// Stop withdraws the plugin's UI contributions and subscriptions.
func (p *Plugin) Stop() error {
	p.menu.UnregisterPluginItems(PluginID)
	p.bus.UnsubscribeOwner(PluginID)
	if p.logger != nil {
		p.logger.Info("reports", "reports plugin stopped")
	}
	return nil
}
