package host

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config is the host's TOML configuration document.
type Config struct {
	App     AppConfig     `toml:"app"`
	Plugins PluginsConfig `toml:"plugins"`
	Theme   ThemeConfig   `toml:"theme"`
}

// AppConfig names the application and its writable data directory.
type AppConfig struct {
	Name    string `toml:"name"`
	DataDir string `toml:"data_dir"`
}

// PluginsConfig lists plugin search paths and disabled plugin ids.
type PluginsConfig struct {
	Paths    []string `toml:"paths"`
	Disabled []string `toml:"disabled"`
}

// ThemeConfig selects the active theme and defines token sets.
type ThemeConfig struct {
	Active string                       `toml:"active"`
	Themes map[string]map[string]string `toml:"themes"`
}

// DefaultConfig returns the built-in configuration: the two stock
// themes and no extra plugin paths.
func DefaultConfig() Config {
	return Config{
		App: AppConfig{Name: "mosaic"},
		Theme: ThemeConfig{
			Active: "light",
			Themes: map[string]map[string]string{
				"light": {
					"background": "#ffffff",
					"foreground": "#1a1a1a",
					"accent":     "#2563eb",
				},
				"dark": {
					"background": "#111827",
					"foreground": "#e5e7eb",
					"accent":     "#60a5fa",
				},
			},
		},
	}
}

// LoadConfig reads a TOML document over the defaults. A missing file
// yields the defaults unchanged.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// IsDisabled reports whether a plugin id is disabled by configuration.
func (c *Config) IsDisabled(id string) bool {
	for _, disabled := range c.Plugins.Disabled {
		if disabled == id {
			return true
		}
	}
	return false
}
