package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseManifestYAML(t *testing.T) {
	data := []byte(`
id: com.biiz.rules
name: Rules
version: 1.2.0
vendor: Biiz
priority: 10
requires:
  - id: mosaic.menu
    min: "1.0"
  - type: service
    id: mosaic.navigation
provides:
  - biiz.rules.engine
uiModules:
  - qrc:/rules/main
`)

	m, err := ParseManifest(data)
	require.NoError(t, err)

	assert.Equal(t, "com.biiz.rules", m.ID)
	assert.Equal(t, "1.2.0", m.Version)
	assert.Equal(t, 10, m.Priority)
	require.Len(t, m.Requires, 2)
	assert.Equal(t, "mosaic.menu", m.Requires[0].ID)
	assert.Equal(t, "1.0", m.Requires[0].Min)
	assert.Equal(t, []string{"biiz.rules.engine"}, m.Provides)
	assert.True(t, m.IsBuiltin())
}

func TestParseManifestJSON(t *testing.T) {
	// JSON descriptors parse through the YAML path unchanged.
	data := []byte(`{"id":"com.biiz.reports","version":"0.9.1","module":"reports.wasm","checksum":"abc123"}`)

	m, err := ParseManifest(data)
	require.NoError(t, err)

	assert.Equal(t, "com.biiz.reports", m.ID)
	assert.Equal(t, "reports.wasm", m.Module)
	assert.False(t, m.IsBuiltin())
}

func TestManifestValidate(t *testing.T) {
	tests := []struct {
		name     string
		manifest Manifest
		field    string
	}{
		{
			name:     "missing id",
			manifest: Manifest{Version: "1.0.0"},
			field:    "id",
		},
		{
			name:     "missing version",
			manifest: Manifest{ID: "p"},
			field:    "version",
		},
		{
			name:     "malformed version",
			manifest: Manifest{ID: "p", Version: "one.two"},
			field:    "version",
		},
		{
			name: "requirement without id",
			manifest: Manifest{
				ID: "p", Version: "1.0.0",
				Requires: []Requirement{{Min: "1.0"}},
			},
			field: "requires",
		},
		{
			name: "requirement with bad minimum",
			manifest: Manifest{
				ID: "p", Version: "1.0.0",
				Requires: []Requirement{{ID: "cap", Min: "latest"}},
			},
			field: "requires",
		},
		{
			name:     "module without checksum",
			manifest: Manifest{ID: "p", Version: "1.0.0", Module: "p.wasm"},
			field:    "checksum",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.manifest.Validate()
			require.Error(t, err)

			var descErr *DescriptorError
			require.ErrorAs(t, err, &descErr)
			assert.Equal(t, tt.field, descErr.Field)
		})
	}
}

func TestManifestValidateAcceptsPartialVersions(t *testing.T) {
	m := Manifest{
		ID: "p", Version: "1.0",
		Requires: []Requirement{{ID: "cap", Min: "2"}},
	}
	assert.NoError(t, m.Validate())
}

func TestManifestClone(t *testing.T) {
	orig := Manifest{
		ID:        "p",
		Version:   "1.0.0",
		Requires:  []Requirement{{ID: "cap", Min: "1.0"}},
		Provides:  []string{"cap.other"},
		UIModules: []string{"qrc:/p/main"},
	}

	clone := orig.Clone()
	clone.Requires[0].ID = "mutated"
	clone.Provides[0] = "mutated"
	clone.UIModules[0] = "mutated"

	assert.Equal(t, "cap", orig.Requires[0].ID)
	assert.Equal(t, "cap.other", orig.Provides[0])
	assert.Equal(t, "qrc:/p/main", orig.UIModules[0])
}
