package module

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/mosaicfw/mosaic/internal/domain/capability"
	"github.com/mosaicfw/mosaic/internal/domain/plugin"
)

// Exported symbols a WASM plugin module must or may provide. Init is
// mandatory; start and stop default to no-ops when absent.
const (
	wasmInitSymbol  = "mosaic_init"
	wasmStartSymbol = "mosaic_start"
	wasmStopSymbol  = "mosaic_stop"
)

// ChecksumError reports a binary module whose contents do not match the
// checksum pinned in its manifest.
type ChecksumError struct {
	Path string
	Want string
	Got  string
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum mismatch for %s: manifest pins %s, module is %s", e.Path, e.Want, e.Got)
}

// WasmLoader serves plugins shipped as WebAssembly modules, executed in
// a shared wazero runtime. The runtime outlives every module instance
// and is released by Close.
type WasmLoader struct {
	runtime wazero.Runtime
	logger  *slog.Logger

	mu     sync.Mutex
	closed bool
}

// NewWasmLoader creates the shared runtime, instantiates WASI, and
// installs the mosaic host module that exposes host logging to plugins.
func NewWasmLoader(ctx context.Context, logger *slog.Logger) (*WasmLoader, error) {
	if logger == nil {
		logger = slog.Default()
	}

	cfg := wazero.NewRuntimeConfig().
		WithCloseOnContextDone(true)
	r := wazero.NewRuntimeWithConfig(ctx, cfg)

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, r); err != nil {
		_ = r.Close(ctx)
		return nil, fmt.Errorf("instantiating WASI: %w", err)
	}

	l := &WasmLoader{runtime: r, logger: logger}
	if err := l.installHostModule(ctx); err != nil {
		_ = r.Close(ctx)
		return nil, fmt.Errorf("installing host module: %w", err)
	}
	return l, nil
}

// Open reads, verifies, compiles, and instantiates the plugin's binary
// module, then resolves its lifecycle exports.
func (l *WasmLoader) Open(ctx context.Context, dir string, m plugin.Manifest) (plugin.Plugin, io.Closer, error) {
	if m.IsBuiltin() {
		return nil, nil, fmt.Errorf("plugin %s declares no binary module", m.ID)
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil, nil, fmt.Errorf("wasm runtime is closed")
	}
	l.mu.Unlock()

	path := filepath.Join(dir, m.Module)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading module: %w", err)
	}
	if err := VerifyChecksum(path, data, m.Checksum); err != nil {
		return nil, nil, err
	}

	compiled, err := l.runtime.CompileModule(ctx, data)
	if err != nil {
		return nil, nil, fmt.Errorf("compiling module: %w", err)
	}

	modConfig := wazero.NewModuleConfig().
		WithName(m.ID).
		WithStartFunctions("_initialize")
	instance, err := l.runtime.InstantiateModule(ctx, compiled, modConfig)
	if err != nil {
		_ = compiled.Close(ctx)
		return nil, nil, fmt.Errorf("instantiating module: %w", err)
	}

	if instance.ExportedFunction(wasmInitSymbol) == nil {
		_ = instance.Close(ctx)
		_ = compiled.Close(ctx)
		return nil, nil, fmt.Errorf("module exports no %s", wasmInitSymbol)
	}

	p := &wasmPlugin{manifest: m, instance: instance}
	closer := closerFunc(func() error {
		err := instance.Close(context.Background())
		_ = compiled.Close(context.Background())
		return err
	})
	return p, closer, nil
}

// Close releases the shared runtime and every module still resident in
// it.
func (l *WasmLoader) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	return l.runtime.Close(context.Background())
}

// installHostModule exposes host logging to plugin modules under the
// "mosaic" import namespace.
func (l *WasmLoader) installHostModule(ctx context.Context) error {
	builder := l.runtime.NewHostModuleBuilder("mosaic")

	builder.NewFunctionBuilder().
		WithFunc(func(_ context.Context, m api.Module, ptr, length uint32) {
			l.logger.Info(readString(m, ptr, length), "plugin", m.Name())
		}).
		Export("log_info")

	builder.NewFunctionBuilder().
		WithFunc(func(_ context.Context, m api.Module, ptr, length uint32) {
			l.logger.Warn(readString(m, ptr, length), "plugin", m.Name())
		}).
		Export("log_warn")

	builder.NewFunctionBuilder().
		WithFunc(func(_ context.Context, m api.Module, ptr, length uint32) {
			l.logger.Error(readString(m, ptr, length), "plugin", m.Name())
		}).
		Export("log_error")

	_, err := builder.Instantiate(ctx)
	return err
}

// readString copies a (ptr, length) string out of the module's linear
// memory. An out-of-range read yields an empty string rather than a
// panic in a host log call.
func readString(m api.Module, ptr, length uint32) string {
	buf, ok := m.Memory().Read(ptr, length)
	if !ok {
		return ""
	}
	return string(buf)
}

var _ plugin.BinaryLoader = (*WasmLoader)(nil)

// VerifyChecksum checks module bytes against the SHA256 hex digest the
// manifest pins. The comparison is case-insensitive.
func VerifyChecksum(path string, data []byte, want string) error {
	sum := sha256.Sum256(data)
	got := hex.EncodeToString(sum[:])
	if !strings.EqualFold(got, want) {
		return &ChecksumError{Path: path, Want: strings.ToLower(want), Got: got}
	}
	return nil
}

// wasmPlugin adapts an instantiated WASM module to the plugin lifecycle
// contract. The capability registry is not projected into the module;
// WASM plugins interact with the host through the mosaic import
// namespace instead.
type wasmPlugin struct {
	manifest plugin.Manifest
	instance api.Module
}

var _ plugin.Plugin = (*wasmPlugin)(nil)

func (p *wasmPlugin) Initialize(_ *capability.Registry) error {
	return p.call(wasmInitSymbol, true)
}

func (p *wasmPlugin) Start() error {
	return p.call(wasmStartSymbol, false)
}

func (p *wasmPlugin) Stop() error {
	return p.call(wasmStopSymbol, false)
}

func (p *wasmPlugin) Metadata() plugin.Manifest {
	return p.manifest.Clone()
}

// call invokes an exported lifecycle function. A nonzero return value is
// treated as a hook failure.
func (p *wasmPlugin) call(symbol string, required bool) error {
	fn := p.instance.ExportedFunction(symbol)
	if fn == nil {
		if required {
			return fmt.Errorf("module exports no %s", symbol)
		}
		return nil
	}

	results, err := fn.Call(context.Background())
	if err != nil {
		return fmt.Errorf("calling %s: %w", symbol, err)
	}
	if len(results) > 0 && results[0] != 0 {
		return fmt.Errorf("%s returned code %d", symbol, results[0])
	}
	return nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
