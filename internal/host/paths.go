package host

import (
	"os"
	"path/filepath"
	"strings"
)

// Environment variables overriding path resolution. Path list variables
// use the platform list separator.
const (
	EnvSDKRoot    = "MOSAIC_SDK_ROOT"
	EnvPluginPath = "MOSAIC_PLUGIN_PATH"
	EnvUIPath     = "MOSAIC_UI_PATH"
)

// SDKRoot resolves the installation root: the override variable when
// set, otherwise the directory containing the running executable.
func SDKRoot() string {
	if root := os.Getenv(EnvSDKRoot); root != "" {
		return root
	}
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// PluginSearchPaths resolves the ordered plugin search paths. Override
// paths from the environment come first, then configured paths, then
// the installation default. Earlier paths win on duplicate plugin ids.
func PluginSearchPaths(cfg *Config) []string {
	var paths []string
	paths = append(paths, splitPathList(os.Getenv(EnvPluginPath))...)
	paths = append(paths, cfg.Plugins.Paths...)
	paths = append(paths, filepath.Join(SDKRoot(), "plugins"))
	return dedupPaths(paths)
}

// UISearchPaths resolves the ordered UI bundle search paths.
func UISearchPaths() []string {
	var paths []string
	paths = append(paths, splitPathList(os.Getenv(EnvUIPath))...)
	paths = append(paths, filepath.Join(SDKRoot(), "ui"))
	return dedupPaths(paths)
}

func splitPathList(list string) []string {
	if list == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(list, string(os.PathListSeparator)) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func dedupPaths(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := paths[:0]
	for _, p := range paths {
		clean := filepath.Clean(p)
		if seen[clean] {
			continue
		}
		seen[clean] = true
		out = append(out, clean)
	}
	return out
}
