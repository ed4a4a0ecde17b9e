// Package plugin provides plugin discovery, descriptor parsing, lifecycle
// management, and load-plan resolution for the mosaic host.
package plugin

import (
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mosaicfw/mosaic/internal/domain/safety"
)

// Requirement is one declared dependency of a plugin: a capability
// identity and the minimum provider version that satisfies it.
type Requirement struct {
	// Type distinguishes requirement kinds; "capability" (the default)
	// and the legacy alias "service" are accepted.
	Type string `yaml:"type,omitempty" json:"type,omitempty"`
	// ID is the required capability identity.
	ID string `yaml:"id" json:"id"`
	// Min is the minimum acceptable provider version (semver, >=).
	Min string `yaml:"min,omitempty" json:"min,omitempty"`
}

// Manifest is the parsed descriptor of one discoverable plugin. It is
// immutable once parsed and owned by the lifecycle manager for the
// plugin's entire resident lifetime.
type Manifest struct {
	// ID is the globally unique plugin identity (e.g. "com.biiz.rules").
	ID string `yaml:"id" json:"id"`
	// Name is the human-readable plugin name.
	Name string `yaml:"name,omitempty" json:"name,omitempty"`
	// Version is the plugin's semantic version.
	Version string `yaml:"version" json:"version"`
	// Description briefly describes the plugin.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	// Vendor identifies the publisher.
	Vendor string `yaml:"vendor,omitempty" json:"vendor,omitempty"`
	// Requires lists capability dependencies in declaration order.
	Requires []Requirement `yaml:"requires,omitempty" json:"requires,omitempty"`
	// Provides lists the capability identities this plugin registers.
	Provides []string `yaml:"provides,omitempty" json:"provides,omitempty"`
	// UIModules lists UI bundle identifiers shipped with the plugin.
	UIModules []string `yaml:"uiModules,omitempty" json:"uiModules,omitempty"`
	// Priority orders plugins with no dependency relation; lower loads
	// earlier.
	Priority int `yaml:"priority,omitempty" json:"priority,omitempty"`
	// Module is the path of the plugin's binary module, relative to the
	// manifest. Empty for builtin plugins compiled into the host.
	Module string `yaml:"module,omitempty" json:"module,omitempty"`
	// Checksum is the SHA256 hash of the binary module.
	Checksum string `yaml:"checksum,omitempty" json:"checksum,omitempty"`
}

// IsBuiltin returns true when the plugin is compiled into the host
// rather than shipped as a separate binary module.
func (m *Manifest) IsBuiltin() bool {
	return m.Module == ""
}

// Clone returns a deep copy of the manifest with no shared backing
// storage, suitable for handing across a module boundary.
func (m Manifest) Clone() Manifest {
	clone := Manifest{
		ID:          safety.CopyString(m.ID),
		Name:        safety.CopyString(m.Name),
		Version:     safety.CopyString(m.Version),
		Description: safety.CopyString(m.Description),
		Vendor:      safety.CopyString(m.Vendor),
		Priority:    m.Priority,
		Module:      safety.CopyString(m.Module),
		Checksum:    safety.CopyString(m.Checksum),
	}
	if m.Requires != nil {
		clone.Requires = make([]Requirement, len(m.Requires))
		for i, req := range m.Requires {
			clone.Requires[i] = Requirement{
				Type: safety.CopyString(req.Type),
				ID:   safety.CopyString(req.ID),
				Min:  safety.CopyString(req.Min),
			}
		}
	}
	clone.Provides = safety.CopyStrings(m.Provides)
	clone.UIModules = safety.CopyStrings(m.UIModules)
	return clone
}

// semverRegex matches semantic version strings, with optional prerelease
// and build metadata. Partial versions like "1.0" are also accepted
// because requirement minimums commonly omit the patch component.
var semverRegex = regexp.MustCompile(`^(0|[1-9]\d*)(\.(0|[1-9]\d*)){0,2}` +
	`(?:-((?:0|[1-9]\d*|\d*[a-zA-Z-][0-9a-zA-Z-]*)(?:\.(?:0|[1-9]\d*|\d*[a-zA-Z-][0-9a-zA-Z-]*))*))?` +
	`(?:\+([0-9a-zA-Z-]+(?:\.[0-9a-zA-Z-]+)*))?$`)

// validVersion reports whether v is acceptable as a version string.
func validVersion(v string) bool {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	return semverRegex.MatchString(v)
}

// ParseManifest parses a manifest document. YAML is the primary format;
// JSON documents parse through the same path since every JSON manifest
// is also valid YAML.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, &DescriptorError{Field: "document", Reason: err.Error()}
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks required fields, naming the first missing or invalid
// one. A failed validation excludes the plugin from the load plan but
// never aborts discovery of its siblings.
func (m *Manifest) Validate() error {
	if m.ID == "" {
		return &DescriptorError{Field: "id", Reason: "required"}
	}
	if m.Version == "" {
		return &DescriptorError{Field: "version", Reason: "required"}
	}
	if !validVersion(m.Version) {
		return &DescriptorError{Field: "version", Reason: "not a semantic version: " + m.Version}
	}
	for i, req := range m.Requires {
		if req.ID == "" {
			return &DescriptorError{Field: "requires", Reason: "entry missing id", Index: i}
		}
		if req.Min != "" && !validVersion(req.Min) {
			return &DescriptorError{Field: "requires", Reason: "invalid min version for " + req.ID, Index: i}
		}
	}
	if m.Module != "" && m.Checksum == "" {
		return &DescriptorError{Field: "checksum", Reason: "required when module is set"}
	}
	return nil
}
