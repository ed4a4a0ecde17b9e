package capability

import (
	"github.com/mosaicfw/mosaic/internal/domain/safety"
)

// Capability interface identities. Each is the key under which exactly
// one provider may be registered.
const (
	NavigationID = "mosaic.navigation"
	MenuID       = "mosaic.menu"
	SettingsID   = "mosaic.settings"
	ThemeID      = "mosaic.theme"
	EventBusID   = "mosaic.eventbus"
	LoggerID     = "mosaic.logger"
)

// APIVersion is the contract version the host's built-in providers
// implement. A plugin declaring a higher minimum fails resolution for
// that plugin only.
const APIVersion = "1.0.0"

// MenuItem is the menu payload exchanged across the module boundary.
// Every text field is defensively copied by the menu provider; no field
// may alias storage owned by a different module's heap.
type MenuItem struct {
	// ID is the primary key inside the menu collection.
	ID string
	// Label is the display text.
	Label string
	// Icon names or inlines the item's icon.
	Icon string
	// Route is the navigation pattern activated by the item.
	Route string
	// Group buckets items; groups sort ascending.
	Group string
	// Order sorts items within a group, ascending.
	Order int
	// Enabled toggles interactivity.
	Enabled bool
	// Badge is a short status annotation (e.g. a count).
	Badge string
	// PluginID attributes the item to its registering module.
	PluginID string
}

// Clone rebuilds the item with freshly allocated text fields.
func (m MenuItem) Clone() MenuItem {
	return MenuItem{
		ID:       safety.CopyString(m.ID),
		Label:    safety.CopyString(m.Label),
		Icon:     safety.CopyString(m.Icon),
		Route:    safety.CopyString(m.Route),
		Group:    safety.CopyString(m.Group),
		Order:    m.Order,
		Enabled:  m.Enabled,
		Badge:    safety.CopyString(m.Badge),
		PluginID: safety.CopyString(m.PluginID),
	}
}

// Route maps a navigation pattern to a page target.
type Route struct {
	Pattern string
	PageURL string
}

// Clone rebuilds the route with freshly allocated text fields.
func (r Route) Clone() Route {
	return Route{
		Pattern: safety.CopyString(r.Pattern),
		PageURL: safety.CopyString(r.PageURL),
	}
}

// Navigation is the route registry capability. The page-display layer
// that consumes it is outside this subsystem; providers only track
// pattern-to-target mappings and the current route.
type Navigation interface {
	// RegisterRoute maps a pattern to a page target. The first
	// registration of a pattern wins.
	RegisterRoute(pattern, pageURL string)
	// PageURL returns the target for a pattern, or false if none matches.
	PageURL(pattern string) (string, bool)
	// CurrentRoute returns the active pattern.
	CurrentRoute() string
	// SetCurrentRoute activates a pattern, notifying observers when the
	// route actually changes.
	SetCurrentRoute(pattern string)
	// OnNavigate adds an observer for route changes.
	OnNavigate(fn func(route string))
}

// Menu is the menu collection capability.
//
// UpdateItem accepts partial fields keyed by "label", "icon", "route",
// "group", "order", "enabled", "badge". The key for the display text is
// "label"; a "title" key is ignored.
type Menu interface {
	// RegisterItem adds an item. Empty or duplicate ids are rejected and
	// leave the collection unmodified.
	RegisterItem(item MenuItem) bool
	// UnregisterItem removes an item by id.
	UnregisterItem(id string)
	// UnregisterPluginItems removes every item registered by a plugin.
	UnregisterPluginItems(pluginID string)
	// UpdateItem applies partial field updates to an item.
	UpdateItem(id string, updates map[string]safety.Value) bool
	// SetBadge updates just the badge text of an item.
	SetBadge(id, badge string)
	// SetEnabled updates just the enabled flag of an item.
	SetEnabled(id string, enabled bool)
	// Items returns the full ordered collection.
	Items() []MenuItem
	// ItemsInGroup returns the ordered items of one group.
	ItemsInGroup(group string) []MenuItem
	// Groups returns the distinct non-empty group names, sorted.
	Groups() []string
	// Count returns the number of items.
	Count() int
	// OnChange adds an observer invoked after every mutation.
	OnChange(fn func())
}

// Settings is the persistent key/value capability.
type Settings interface {
	// Get returns the stored value for a key.
	Get(key string) (safety.Value, bool)
	// Set stores a value under a key.
	Set(key string, value safety.Value)
	// Keys returns all stored keys, sorted.
	Keys() []string
	// Save persists the current values.
	Save() error
}

// Theme is the theming capability: a named set of design tokens.
type Theme interface {
	// ActiveTheme returns the current theme name.
	ActiveTheme() string
	// SetActiveTheme switches themes, notifying observers on change.
	SetActiveTheme(name string) bool
	// Token returns one token of the active theme.
	Token(name string) (string, bool)
	// Tokens returns a snapshot of all tokens of the active theme.
	Tokens() map[string]string
	// OnChange adds an observer for theme switches.
	OnChange(fn func(name string))
}

// EventBus is the publish/subscribe capability connecting capabilities
// without direct references.
type EventBus interface {
	// Publish delivers a payload to every subscriber of a topic. The
	// payload is deep-copied per subscriber.
	Publish(topic string, payload safety.Value)
	// Subscribe registers a handler for a topic, attributed to an owner
	// for bulk removal. Returns the subscription id.
	Subscribe(topic, owner string, handler func(payload safety.Value)) string
	// Unsubscribe removes one subscription by id.
	Unsubscribe(id string)
	// UnsubscribeOwner removes every subscription attributed to an owner.
	UnsubscribeOwner(owner string)
}

// Logger is the structured logging capability handed to plugins. The
// formatting behind it belongs to the host.
type Logger interface {
	Debug(tag, msg string, args ...any)
	Info(tag, msg string, args ...any)
	Warn(tag, msg string, args ...any)
	Error(tag, msg string, args ...any)
}
