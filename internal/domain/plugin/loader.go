package plugin

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Manifest file names probed inside each candidate directory, in order.
var manifestNames = []string{"plugin.yaml", "plugin.json"}

const (
	// maxManifestSize limits manifest file size (256KB).
	maxManifestSize int64 = 256 * 1024
)

// Discovered is one candidate found during discovery: its parsed
// descriptor and the directory it came from.
type Discovered struct {
	Manifest Manifest
	// Dir is the plugin directory containing the manifest.
	Dir string
	// ManifestPath is the manifest document that was parsed.
	ManifestPath string
}

// DiscoveryResult captures both successful candidates and per-candidate
// errors. One failed manifest never aborts discovery of siblings.
type DiscoveryResult struct {
	Plugins []Discovered
	Errors  []DiscoveryError
}

// HasErrors returns true if any candidate failed discovery.
func (r *DiscoveryResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// Loader scans ordered search paths for plugin directories. Paths are
// scanned in priority order: development/override paths come before the
// default SDK path, so when the same plugin id appears in several paths
// the earliest path wins.
type Loader struct {
	// SearchPaths are the directories to scan, highest priority first.
	SearchPaths []string
}

// NewLoader creates a loader over the given search paths.
func NewLoader(searchPaths ...string) *Loader {
	return &Loader{SearchPaths: searchPaths}
}

// Discover finds all plugins across the search paths. Duplicate ids keep
// the candidate from the earliest path; later duplicates are silently
// superseded. The context can be used for cancellation.
func (l *Loader) Discover(ctx context.Context) (*DiscoveryResult, error) {
	result := &DiscoveryResult{
		Plugins: make([]Discovered, 0),
		Errors:  make([]DiscoveryError, 0),
	}
	seen := make(map[string]bool)

	for _, searchPath := range l.SearchPaths {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		found, errs := l.discoverInPath(searchPath)
		result.Errors = append(result.Errors, errs...)
		for _, d := range found {
			if seen[d.Manifest.ID] {
				continue
			}
			seen[d.Manifest.ID] = true
			result.Plugins = append(result.Plugins, d)
		}
	}

	return result, nil
}

// discoverInPath scans a single directory for plugin subdirectories.
func (l *Loader) discoverInPath(searchPath string) ([]Discovered, []DiscoveryError) {
	entries, err := os.ReadDir(searchPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // absent search path is not an error
		}
		return nil, []DiscoveryError{{Path: searchPath, Err: err}}
	}

	found := make([]Discovered, 0, len(entries))
	var errs []DiscoveryError

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(searchPath, entry.Name())
		d, err := l.LoadFromDir(dir)
		if errors.Is(err, ErrManifestNotFound) {
			continue // not a plugin directory
		}
		if err != nil {
			errs = append(errs, DiscoveryError{Path: dir, Err: err})
			continue
		}
		found = append(found, *d)
	}

	return found, errs
}

// LoadFromDir parses the manifest of a single plugin directory.
func (l *Loader) LoadFromDir(dir string) (*Discovered, error) {
	manifestPath, err := findManifest(dir)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("checking manifest: %w", err)
	}
	if info.Size() > maxManifestSize {
		return nil, fmt.Errorf("manifest size %d exceeds limit of %d bytes", info.Size(), maxManifestSize)
	}

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	m, err := ParseManifest(data)
	if err != nil {
		return nil, err
	}

	return &Discovered{
		Manifest:     *m,
		Dir:          dir,
		ManifestPath: manifestPath,
	}, nil
}

func findManifest(dir string) (string, error) {
	for _, name := range manifestNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", ErrManifestNotFound
}

// Ensure Loader implements Discoverer.
var _ Discoverer = (*Loader)(nil)
