package host

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "mosaic.toml"))
	require.NoError(t, err)
	assert.Equal(t, "mosaic", cfg.App.Name)
	assert.Equal(t, "light", cfg.Theme.Active)
}

func TestLoadConfigOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mosaic.toml")
	doc := `
[app]
name = "biiz-suite"
data_dir = "/var/lib/biiz"

[plugins]
paths = ["/opt/biiz/plugins"]
disabled = ["com.biiz.reports"]

[theme]
active = "dark"
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "biiz-suite", cfg.App.Name)
	assert.Equal(t, []string{"/opt/biiz/plugins"}, cfg.Plugins.Paths)
	assert.Equal(t, "dark", cfg.Theme.Active)
	// The stock theme definitions survive an overlay that only switches
	// the active name.
	assert.Contains(t, cfg.Theme.Themes, "dark")

	assert.True(t, cfg.IsDisabled("com.biiz.reports"))
	assert.False(t, cfg.IsDisabled("com.biiz.rules"))
}

func TestLoadConfigMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mosaic.toml")
	require.NoError(t, os.WriteFile(path, []byte("[app\nname="), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestPluginSearchPathOrder(t *testing.T) {
	override := filepath.Join(t.TempDir(), "override")
	configured := filepath.Join(t.TempDir(), "configured")
	t.Setenv(EnvSDKRoot, t.TempDir())
	t.Setenv(EnvPluginPath, override+string(os.PathListSeparator)+override)

	cfg := DefaultConfig()
	cfg.Plugins.Paths = []string{configured}

	paths := PluginSearchPaths(&cfg)
	require.Len(t, paths, 3)
	assert.Equal(t, override, paths[0])
	assert.Equal(t, configured, paths[1])
	assert.Equal(t, filepath.Join(os.Getenv(EnvSDKRoot), "plugins"), paths[2])
}

func TestSDKRootOverride(t *testing.T) {
	t.Setenv(EnvSDKRoot, "/opt/mosaic")
	assert.Equal(t, "/opt/mosaic", SDKRoot())
}

func TestUISearchPaths(t *testing.T) {
	t.Setenv(EnvSDKRoot, "/opt/mosaic")
	t.Setenv(EnvUIPath, "/custom/ui")
	assert.Equal(t, []string{"/custom/ui", filepath.Join("/opt/mosaic", "ui")}, UISearchPaths())
}
