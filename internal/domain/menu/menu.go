// Package menu provides the host's menu collection: an ordered registry
// of menu items contributed by plugins and the host shell.
package menu

import (
	"sort"
	"sync"

	"github.com/mosaicfw/mosaic/internal/domain/capability"
	"github.com/mosaicfw/mosaic/internal/domain/safety"
)

// Service is the host's menu provider. Items are kept in presentation
// order: group ascending, then order ascending, then label ascending.
// Every item crossing the boundary is deep-copied in both directions.
type Service struct {
	mu        sync.Mutex
	items     []capability.MenuItem
	index     map[string]int
	observers []func()
}

// NewService creates an empty menu collection.
func NewService() *Service {
	return &Service{index: make(map[string]int)}
}

var _ capability.Menu = (*Service)(nil)

// RegisterItem adds an item to the collection. An empty id or an id that
// is already present is rejected and leaves the collection unmodified.
func (s *Service) RegisterItem(item capability.MenuItem) bool {
	if item.ID == "" {
		return false
	}

	s.mu.Lock()
	if _, exists := s.index[item.ID]; exists {
		s.mu.Unlock()
		return false
	}
	s.items = append(s.items, item.Clone())
	s.resort()
	observers := s.observers
	s.mu.Unlock()

	notify(observers)
	return true
}

// UnregisterItem removes an item by id. Unknown ids are a no-op.
func (s *Service) UnregisterItem(id string) {
	s.mu.Lock()
	pos, exists := s.index[id]
	if !exists {
		s.mu.Unlock()
		return
	}
	s.items = append(s.items[:pos], s.items[pos+1:]...)
	s.resort()
	observers := s.observers
	s.mu.Unlock()

	notify(observers)
}

// UnregisterPluginItems removes every item attributed to a plugin.
func (s *Service) UnregisterPluginItems(pluginID string) {
	s.mu.Lock()
	kept := s.items[:0]
	removed := 0
	for _, item := range s.items {
		if item.PluginID == pluginID {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	if removed == 0 {
		s.mu.Unlock()
		return
	}
	s.items = kept
	s.resort()
	observers := s.observers
	s.mu.Unlock()

	notify(observers)
}

// UpdateItem applies partial field updates to an item. Recognized keys
// are "label", "icon", "route", "group", "order", "enabled", and
// "badge"; anything else, including "title", is ignored. Returns false
// when no item has the id.
func (s *Service) UpdateItem(id string, updates map[string]safety.Value) bool {
	s.mu.Lock()
	pos, exists := s.index[id]
	if !exists {
		s.mu.Unlock()
		return false
	}

	item := &s.items[pos]
	for key, value := range updates {
		switch key {
		case "label":
			item.Label = safety.CopyString(value.Str)
		case "icon":
			item.Icon = safety.CopyString(value.Str)
		case "route":
			item.Route = safety.CopyString(value.Str)
		case "group":
			item.Group = safety.CopyString(value.Str)
		case "order":
			item.Order = int(value.Int)
		case "enabled":
			item.Enabled = value.Bool
		case "badge":
			item.Badge = safety.CopyString(value.Str)
		}
	}
	s.resort()
	observers := s.observers
	s.mu.Unlock()

	notify(observers)
	return true
}

// SetBadge updates just the badge text of an item.
func (s *Service) SetBadge(id, badge string) {
	s.setField(id, func(item *capability.MenuItem) {
		item.Badge = safety.CopyString(badge)
	})
}

// SetEnabled updates just the enabled flag of an item.
func (s *Service) SetEnabled(id string, enabled bool) {
	s.setField(id, func(item *capability.MenuItem) {
		item.Enabled = enabled
	})
}

func (s *Service) setField(id string, apply func(*capability.MenuItem)) {
	s.mu.Lock()
	pos, exists := s.index[id]
	if !exists {
		s.mu.Unlock()
		return
	}
	apply(&s.items[pos])
	observers := s.observers
	s.mu.Unlock()

	notify(observers)
}

// Items returns a deep-copied snapshot of the full ordered collection.
func (s *Service) Items() []capability.MenuItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]capability.MenuItem, len(s.items))
	for i, item := range s.items {
		out[i] = item.Clone()
	}
	return out
}

// ItemsInGroup returns a deep-copied snapshot of one group's items, in
// presentation order.
func (s *Service) ItemsInGroup(group string) []capability.MenuItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]capability.MenuItem, 0)
	for _, item := range s.items {
		if item.Group == group {
			out = append(out, item.Clone())
		}
	}
	return out
}

// Groups returns the distinct non-empty group names, sorted.
func (s *Service) Groups() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool)
	var groups []string
	for _, item := range s.items {
		if item.Group != "" && !seen[item.Group] {
			seen[item.Group] = true
			groups = append(groups, item.Group)
		}
	}
	sort.Strings(groups)
	return groups
}

// Count returns the number of items in the collection.
func (s *Service) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// OnChange adds an observer invoked after every mutation, outside the
// collection lock.
func (s *Service) OnChange(fn func()) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// resort reorders the collection and rebuilds the id index. Caller holds
// the lock.
func (s *Service) resort() {
	sort.SliceStable(s.items, func(i, j int) bool {
		a, b := s.items[i], s.items[j]
		if a.Group != b.Group {
			return a.Group < b.Group
		}
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		return a.Label < b.Label
	})
	for id := range s.index {
		delete(s.index, id)
	}
	for i, item := range s.items {
		s.index[item.ID] = i
	}
}

func notify(observers []func()) {
	for _, fn := range observers {
		fn()
	}
}
