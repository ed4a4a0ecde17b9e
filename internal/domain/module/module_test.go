package module

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero/api"

	"github.com/mosaicfw/mosaic/internal/domain/capability"
	"github.com/mosaicfw/mosaic/internal/domain/plugin"
)

type nopPlugin struct{ id string }

func (p *nopPlugin) Initialize(*capability.Registry) error { return nil }
func (p *nopPlugin) Start() error                          { return nil }
func (p *nopPlugin) Stop() error                           { return nil }
func (p *nopPlugin) Metadata() plugin.Manifest {
	return plugin.Manifest{ID: p.id, Version: "1.0.0"}
}

func TestBuiltinLoaderOpen(t *testing.T) {
	loader := NewBuiltinLoader()
	loader.Register("com.biiz.rules", func() plugin.Plugin { return &nopPlugin{id: "com.biiz.rules"} })

	p, handle, err := loader.Open(context.Background(), "", plugin.Manifest{ID: "com.biiz.rules", Version: "1.0.0"})
	require.NoError(t, err)
	assert.Nil(t, handle)
	assert.Equal(t, "com.biiz.rules", p.Metadata().ID)
}

func TestBuiltinLoaderUnknownID(t *testing.T) {
	loader := NewBuiltinLoader()
	_, _, err := loader.Open(context.Background(), "", plugin.Manifest{ID: "nope", Version: "1.0.0"})
	assert.ErrorContains(t, err, "no builtin plugin")
}

func TestBuiltinLoaderRejectsBinaryDescriptor(t *testing.T) {
	loader := NewBuiltinLoader()
	m := plugin.Manifest{ID: "p", Version: "1.0.0", Module: "p.wasm", Checksum: "abc"}
	_, _, err := loader.Open(context.Background(), "", m)
	assert.Error(t, err)
}

func TestBuiltinLoaderIDs(t *testing.T) {
	loader := NewBuiltinLoader()
	loader.Register("b", func() plugin.Plugin { return &nopPlugin{id: "b"} })
	loader.Register("a", func() plugin.Plugin { return &nopPlugin{id: "a"} })
	assert.Equal(t, []string{"a", "b"}, loader.IDs())
}

// routeRecorder records which backend the dispatcher picked.
type routeRecorder struct{ opened []string }

func (r *routeRecorder) Open(_ context.Context, _ string, m plugin.Manifest) (plugin.Plugin, io.Closer, error) {
	r.opened = append(r.opened, m.ID)
	return &nopPlugin{id: m.ID}, nil, nil
}

func TestDispatcherRoutes(t *testing.T) {
	builtin := &routeRecorder{}
	binary := &routeRecorder{}
	d := NewDispatcher(builtin, binary)

	_, _, err := d.Open(context.Background(), "", plugin.Manifest{ID: "built", Version: "1.0.0"})
	require.NoError(t, err)
	_, _, err = d.Open(context.Background(), "", plugin.Manifest{ID: "shipped", Version: "1.0.0", Module: "m.wasm", Checksum: "x"})
	require.NoError(t, err)

	assert.Equal(t, []string{"built"}, builtin.opened)
	assert.Equal(t, []string{"shipped"}, binary.opened)
}

func TestDispatcherNilBackend(t *testing.T) {
	d := NewDispatcher(NewBuiltinLoader(), nil)
	_, _, err := d.Open(context.Background(), "", plugin.Manifest{ID: "p", Version: "1.0.0", Module: "m.wasm", Checksum: "x"})
	assert.ErrorContains(t, err, "no backend")
}

func TestVerifyChecksum(t *testing.T) {
	data := []byte("module bytes")
	sum := sha256.Sum256(data)
	digest := hex.EncodeToString(sum[:])

	assert.NoError(t, VerifyChecksum("m.wasm", data, digest))
	assert.NoError(t, VerifyChecksum("m.wasm", data, strings.ToUpper(digest)))

	err := VerifyChecksum("m.wasm", data, strings.Repeat("0", 64))
	require.Error(t, err)
	var checksumErr *ChecksumError
	require.ErrorAs(t, err, &checksumErr)
	assert.Equal(t, digest, checksumErr.Got)
}

func TestWasmLoaderChecksumMismatch(t *testing.T) {
	ctx := context.Background()
	loader, err := NewWasmLoader(ctx, nil)
	require.NoError(t, err)
	defer func() { _ = loader.Close() }()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "p.wasm"), []byte("not really wasm"), 0o644))

	m := plugin.Manifest{ID: "p", Version: "1.0.0", Module: "p.wasm", Checksum: strings.Repeat("0", 64)}
	_, _, err = loader.Open(ctx, dir, m)

	var checksumErr *ChecksumError
	assert.True(t, errors.As(err, &checksumErr))
}

func TestWasmLoaderMissingModuleFile(t *testing.T) {
	ctx := context.Background()
	loader, err := NewWasmLoader(ctx, nil)
	require.NoError(t, err)
	defer func() { _ = loader.Close() }()

	m := plugin.Manifest{ID: "p", Version: "1.0.0", Module: "gone.wasm", Checksum: "x"}
	_, _, err = loader.Open(ctx, t.TempDir(), m)
	assert.ErrorContains(t, err, "reading module")
}

// memModule stubs just the memory access readString needs; every other
// api.Module method panics through the embedded nil interface.
type memModule struct {
	api.Module
	mem api.Memory
}

func (m memModule) Memory() api.Memory { return m.mem }

type fixedMemory struct {
	api.Memory
	data []byte
}

func (f fixedMemory) Read(offset, count uint32) ([]byte, bool) {
	if uint64(offset)+uint64(count) > uint64(len(f.data)) {
		return nil, false
	}
	return f.data[offset : offset+count], true
}

func TestReadString(t *testing.T) {
	m := memModule{mem: fixedMemory{data: []byte("xxhello")}}

	assert.Equal(t, "hello", readString(m, 2, 5))
	assert.Equal(t, "", readString(m, 0, 0))

	// An out-of-range pointer from a plugin must not panic the host.
	assert.Equal(t, "", readString(m, 5, 100))
}

func TestWasmLoaderClosedRuntime(t *testing.T) {
	ctx := context.Background()
	loader, err := NewWasmLoader(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, loader.Close())
	require.NoError(t, loader.Close())

	m := plugin.Manifest{ID: "p", Version: "1.0.0", Module: "p.wasm", Checksum: "x"}
	_, _, err = loader.Open(ctx, t.TempDir(), m)
	assert.ErrorContains(t, err, "closed")
}
