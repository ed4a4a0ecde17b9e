// Package nav provides the host's route registry: pattern-to-page
// mappings, the active route, and change notification.
package nav

import (
	"sync"

	"github.com/mosaicfw/mosaic/internal/domain/capability"
	"github.com/mosaicfw/mosaic/internal/domain/safety"
)

// Presenter is the display layer the navigation service drives. It is
// bound after construction so the service can accept registrations
// before any presentation surface exists.
type Presenter interface {
	// ShowPage displays the page target of the newly active route.
	ShowPage(pageURL string)
}

// Service is the host's navigation provider. It is built detached and
// bound to a presenter later with Attach; registrations and route
// changes made before attachment are preserved and replayed.
type Service struct {
	mu        sync.Mutex
	routes    map[string]string
	current   string
	presenter Presenter
	observers []func(route string)
}

// NewService creates a navigation service with no routes and no
// presenter.
func NewService() *Service {
	return &Service{routes: make(map[string]string)}
}

var _ capability.Navigation = (*Service)(nil)

// Attach binds the presentation surface. If a route is already active,
// its page is pushed to the presenter immediately.
func (s *Service) Attach(p Presenter) {
	s.mu.Lock()
	s.presenter = p
	current := s.current
	pageURL, known := s.routes[current]
	s.mu.Unlock()

	if p != nil && current != "" && known {
		p.ShowPage(pageURL)
	}
}

// RegisterRoute maps a pattern to a page target. The first registration
// of a pattern wins; later ones are ignored, matching the duplicate
// rules of the registry and the menu.
func (s *Service) RegisterRoute(pattern, pageURL string) {
	if pattern == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.routes[pattern]; exists {
		return
	}
	s.routes[safety.CopyString(pattern)] = safety.CopyString(pageURL)
}

// PageURL returns the page target for a pattern.
func (s *Service) PageURL(pattern string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pageURL, ok := s.routes[pattern]
	return safety.CopyString(pageURL), ok
}

// CurrentRoute returns the active pattern.
func (s *Service) CurrentRoute() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// SetCurrentRoute activates a pattern. Setting the already-active
// pattern is a no-op: no observer fires and no page is pushed.
func (s *Service) SetCurrentRoute(pattern string) {
	s.mu.Lock()
	if pattern == s.current {
		s.mu.Unlock()
		return
	}
	s.current = safety.CopyString(pattern)
	pageURL, known := s.routes[pattern]
	presenter := s.presenter
	observers := s.observers
	s.mu.Unlock()

	if presenter != nil && known {
		presenter.ShowPage(pageURL)
	}
	for _, fn := range observers {
		fn(pattern)
	}
}

// Routes returns a snapshot of all registered routes.
func (s *Service) Routes() []capability.Route {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]capability.Route, 0, len(s.routes))
	for pattern, pageURL := range s.routes {
		out = append(out, capability.Route{Pattern: pattern, PageURL: pageURL}.Clone())
	}
	return out
}

// OnNavigate adds an observer for route changes, invoked outside the
// service lock.
func (s *Service) OnNavigate(fn func(route string)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}
