// Package theme provides the host's theming capability: named sets of
// design tokens with an active selection.
package theme

import (
	"sort"
	"sync"

	"github.com/mosaicfw/mosaic/internal/domain/capability"
	"github.com/mosaicfw/mosaic/internal/domain/safety"
)

// Service is the host's theme provider. Token sets are copied on
// registration and snapshotted on read; switching to an unknown theme
// is rejected, leaving the active theme untouched.
type Service struct {
	mu        sync.Mutex
	themes    map[string]map[string]string
	active    string
	observers []func(name string)
}

// NewService creates a theme service with the given initial themes and
// active selection. The active name must be one of the registered
// themes; callers typically seed from host configuration.
func NewService(themes map[string]map[string]string, active string) *Service {
	s := &Service{themes: make(map[string]map[string]string)}
	for name, tokens := range themes {
		s.themes[name] = copyTokens(tokens)
	}
	if _, ok := s.themes[active]; ok {
		s.active = active
	}
	return s
}

var _ capability.Theme = (*Service)(nil)

// RegisterTheme adds or replaces a named token set. Registering the
// active theme's name updates the tokens in place without a switch
// notification.
func (s *Service) RegisterTheme(name string, tokens map[string]string) {
	if name == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.themes[name] = copyTokens(tokens)
}

// ActiveTheme returns the current theme name.
func (s *Service) ActiveTheme() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// SetActiveTheme switches themes. Switching to an unregistered name
// returns false; switching to the already-active theme succeeds without
// notifying observers.
func (s *Service) SetActiveTheme(name string) bool {
	s.mu.Lock()
	if _, ok := s.themes[name]; !ok {
		s.mu.Unlock()
		return false
	}
	if name == s.active {
		s.mu.Unlock()
		return true
	}
	s.active = name
	observers := s.observers
	s.mu.Unlock()

	for _, fn := range observers {
		fn(name)
	}
	return true
}

// ThemeNames returns the registered theme names, sorted.
func (s *Service) ThemeNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.themes))
	for name := range s.themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Token returns one token of the active theme.
func (s *Service) Token(name string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok := s.themes[s.active][name]
	return safety.CopyString(value), ok
}

// Tokens returns a snapshot of all tokens of the active theme. The
// snapshot is never nil; mutating it does not affect the service.
func (s *Service) Tokens() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyTokens(s.themes[s.active])
}

// OnChange adds an observer for theme switches, invoked outside the
// service lock.
func (s *Service) OnChange(fn func(name string)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

func copyTokens(tokens map[string]string) map[string]string {
	out := make(map[string]string, len(tokens))
	for name, value := range tokens {
		out[safety.CopyString(name)] = safety.CopyString(value)
	}
	return out
}
