package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testThemes() map[string]map[string]string {
	return map[string]map[string]string{
		"light": {"bg": "#ffffff", "fg": "#000000"},
		"dark":  {"bg": "#101010", "fg": "#e0e0e0"},
	}
}

func TestNewServiceActiveSelection(t *testing.T) {
	s := NewService(testThemes(), "dark")
	assert.Equal(t, "dark", s.ActiveTheme())

	// An unknown initial name leaves no active theme.
	s = NewService(testThemes(), "sepia")
	assert.Empty(t, s.ActiveTheme())
}

func TestTokenLookup(t *testing.T) {
	s := NewService(testThemes(), "light")

	bg, ok := s.Token("bg")
	require.True(t, ok)
	assert.Equal(t, "#ffffff", bg)

	_, ok = s.Token("accent")
	assert.False(t, ok)
}

func TestSetActiveTheme(t *testing.T) {
	s := NewService(testThemes(), "light")
	var switches []string
	s.OnChange(func(name string) { switches = append(switches, name) })

	assert.True(t, s.SetActiveTheme("dark"))
	assert.True(t, s.SetActiveTheme("dark"))
	assert.False(t, s.SetActiveTheme("sepia"))

	// Only the actual switch notified; the no-op repeat and the rejected
	// name did not.
	assert.Equal(t, []string{"dark"}, switches)
	assert.Equal(t, "dark", s.ActiveTheme())

	bg, _ := s.Token("bg")
	assert.Equal(t, "#101010", bg)
}

func TestTokensSnapshotIsolated(t *testing.T) {
	s := NewService(testThemes(), "light")

	tokens := s.Tokens()
	tokens["bg"] = "mutated"

	fresh, _ := s.Token("bg")
	assert.Equal(t, "#ffffff", fresh)
}

func TestRegisterTheme(t *testing.T) {
	s := NewService(testThemes(), "light")
	s.RegisterTheme("sepia", map[string]string{"bg": "#f4ecd8"})

	assert.Equal(t, []string{"dark", "light", "sepia"}, s.ThemeNames())
	require.True(t, s.SetActiveTheme("sepia"))

	bg, _ := s.Token("bg")
	assert.Equal(t, "#f4ecd8", bg)
}

func TestRegisteredTokensIsolatedFromCaller(t *testing.T) {
	source := map[string]string{"bg": "#123456"}
	s := NewService(map[string]map[string]string{"only": source}, "only")

	source["bg"] = "mutated"
	bg, _ := s.Token("bg")
	assert.Equal(t, "#123456", bg)
}
