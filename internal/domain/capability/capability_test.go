package capability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct{ name string }

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	err := r.Register("mosaic.menu", "1.0.0", &fakeProvider{name: "menu"}, HostOwner)
	require.NoError(t, err)

	assert.Equal(t, 1, r.Count())
}

func TestRegistry_Register_EmptyID(t *testing.T) {
	r := NewRegistry()
	err := r.Register("", "1.0.0", &fakeProvider{}, HostOwner)
	assert.ErrorIs(t, err, ErrEmptyCapabilityID)
}

func TestRegistry_Register_NilProvider(t *testing.T) {
	r := NewRegistry()
	err := r.Register("mosaic.menu", "1.0.0", nil, HostOwner)
	assert.ErrorIs(t, err, ErrNilProvider)
}

func TestRegistry_Register_DuplicateKeepsFirst(t *testing.T) {
	r := NewRegistry()

	first := &fakeProvider{name: "first"}
	second := &fakeProvider{name: "second"}

	require.NoError(t, r.Register("mosaic.menu", "1.0.0", first, HostOwner))

	err := r.Register("mosaic.menu", "2.0.0", second, "com.example.late")
	require.Error(t, err)
	assert.True(t, IsConflict(err))

	got, err := r.Resolve("mosaic.menu")
	require.NoError(t, err)
	assert.Same(t, first, got)
}

func TestRegistry_Resolve_NotFound(t *testing.T) {
	r := NewRegistry()
	_, err := r.Resolve("mosaic.missing")
	assert.True(t, IsNotFound(err))
}

func TestRegistry_ResolveVersion(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("mosaic.nav", "1.4.0", &fakeProvider{}, HostOwner))

	tests := []struct {
		name    string
		min     string
		wantErr bool
	}{
		{"no minimum", "", false},
		{"met exactly", "1.4.0", false},
		{"met with headroom", "1.0", false},
		{"not met", "2.0.0", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.ResolveVersion("mosaic.nav", tt.min)
			if tt.wantErr {
				assert.True(t, IsVersionError(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRegistry_RevokeAll(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("a", "1.0.0", &fakeProvider{}, "com.example.one"))
	require.NoError(t, r.Register("b", "1.0.0", &fakeProvider{}, "com.example.one"))
	require.NoError(t, r.Register("c", "1.0.0", &fakeProvider{}, "com.example.two"))

	removed := r.RevokeAll("com.example.one")
	assert.Equal(t, []string{"a", "b"}, removed)
	assert.Equal(t, 1, r.Count())

	_, err := r.Resolve("c")
	assert.NoError(t, err)
}

func TestRegistry_RevokeAll_NoEntries(t *testing.T) {
	r := NewRegistry()
	removed := r.RevokeAll("com.example.ghost")
	assert.Empty(t, removed)
	assert.Equal(t, 0, r.Count())
}

func TestRegistry_Observe(t *testing.T) {
	r := NewRegistry()

	var changes []Change
	r.Observe(func(c Change) { changes = append(changes, c) })

	require.NoError(t, r.Register("a", "1.0.0", &fakeProvider{}, "com.example.one"))
	r.RevokeAll("com.example.one")

	require.Len(t, changes, 2)
	assert.Equal(t, ChangeRegistered, changes[0].Kind)
	assert.Equal(t, ChangeRevoked, changes[1].Kind)
	assert.Equal(t, "a", changes[1].ID)
}

func TestRegistry_ListSnapshot(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("b", "1.0.0", &fakeProvider{}, HostOwner))
	require.NoError(t, r.Register("a", "1.0.0", &fakeProvider{}, HostOwner))

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, "b", list[1].ID)
}

func TestResolveAs(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("mosaic.fake", "1.0.0", &fakeProvider{name: "p"}, HostOwner))

	got, err := ResolveAs[*fakeProvider](r, "mosaic.fake")
	require.NoError(t, err)
	assert.Equal(t, "p", got.name)

	_, err = ResolveAs[Menu](r, "mosaic.fake")
	assert.ErrorContains(t, err, "unexpected type")

	_, err = ResolveAs[*fakeProvider](r, "mosaic.missing")
	assert.True(t, IsNotFound(err))
}

func TestResolveVersionAs(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("mosaic.fake", "1.0.0", &fakeProvider{}, HostOwner))

	_, err := ResolveVersionAs[*fakeProvider](r, "mosaic.fake", "1.0")
	assert.NoError(t, err)

	_, err = ResolveVersionAs[*fakeProvider](r, "mosaic.fake", "2.0")
	assert.True(t, IsVersionError(err))
}

func TestMenuItem_Clone(t *testing.T) {
	item := MenuItem{ID: "orders", Label: "Orders", Group: "Business", Order: 10, Enabled: true}
	clone := item.Clone()
	assert.Equal(t, item, clone)
}
