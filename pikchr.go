package pikchr

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/pikchr-community/pikchr-go/internal/engine"
	"github.com/pikchr-community/pikchr-go/internal/wasm"
)

// Flag bits accepted by the engine, mirroring pikchr.h.
const (
	// FlagPlaintextErrors makes the engine report diagnostics as plain text
	// instead of HTML error markup. The high-level Render path always sets
	// it, since diagnostics are parsed into typed errors here.
	FlagPlaintextErrors uint32 = 0x0001

	// FlagDarkMode renders with inverted colors.
	FlagDarkMode uint32 = 0x0002
)

// flagMask is the engine's documented flag set; anything outside it is
// rejected before the call, since the engine does no bounds checking.
const flagMask = FlagPlaintextErrors | FlagDarkMode

// Status classifies a render result.
type Status int

const (
	// StatusClean means SVG holds diagram markup.
	StatusClean Status = iota

	// StatusErrorMarkup means the engine rendered diagnostic text into its
	// output instead of failing the call; SVG holds that diagnostic markup.
	// Only RenderRaw returns this.
	StatusErrorMarkup
)

func (s Status) String() string {
	switch s {
	case StatusClean:
		return "clean"
	case StatusErrorMarkup:
		return "error-markup"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Result is one rendered diagram. SVG is an owned copy; nothing references
// engine memory after the call returns.
type Result struct {
	SVG    []byte
	Width  int
	Height int
	Status Status
}

// Renderer renders pikchr diagram source to SVG through the vendored
// engine. It is safe for concurrent use; concurrency is bounded by the
// instance pool size (WithPoolSize).
type Renderer struct {
	logger  *zap.Logger
	runtime *wasm.Runtime
	pool    chan *wasm.Instance

	closeOnce sync.Once
	closeErr  error
}

// New creates a Renderer, locating the engine artifact via WithEnginePath,
// the PIKCHR_WASM environment variable, or the in-repo engine directory.
func New(ctx context.Context, opts ...RendererOption) (*Renderer, error) {
	cfg := defaultRendererConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	path, err := engine.Locate(cfg.enginePath)
	if err != nil {
		return nil, err
	}

	return newRenderer(ctx, &cfg, &wasm.FileModuleSource{Path: path})
}

// NewFromModule creates a Renderer from engine Wasm bytes the caller
// provides, for binaries that embed the artifact.
func NewFromModule(ctx context.Context, name string, wasmBytes []byte, opts ...RendererOption) (*Renderer, error) {
	cfg := defaultRendererConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return newRenderer(ctx, &cfg, &wasm.MemoryModuleSource{ModuleName: name, Data: wasmBytes})
}

func newRenderer(ctx context.Context, cfg *rendererConfig, source wasm.ModuleSource) (*Renderer, error) {
	runtime, err := wasm.NewRuntime(ctx, cfg.logger, &wasm.RuntimeConfig{
		MemoryPages:  cfg.memoryPages,
		DebugEnabled: cfg.debug,
		CacheDir:     cfg.cacheDir,
	})
	if err != nil {
		return nil, err
	}

	loader := wasm.NewModuleLoader(runtime, cfg.logger)
	module, err := loader.LoadModule(ctx, source)
	if err != nil {
		_ = runtime.Close(ctx)
		return nil, err
	}

	manager := wasm.NewInstanceManager(runtime, cfg.logger)
	pool := make(chan *wasm.Instance, cfg.poolSize)
	for range cfg.poolSize {
		inst, err := manager.Instantiate(ctx, &wasm.InstanceConfig{ModuleName: module.Name})
		if err != nil {
			_ = runtime.Close(ctx)
			return nil, err
		}
		pool <- inst
	}

	return &Renderer{
		logger:  cfg.logger,
		runtime: runtime,
		pool:    pool,
	}, nil
}

// Render renders pikchr source to SVG.
//
// Diagnostics are returned as a *Error with the offending line and column;
// boundary failures surface as InvalidInputError, AllocationFailedError or
// EncodingError. The call is deterministic: identical input and options
// produce identical output.
func (r *Renderer) Render(ctx context.Context, source string, opts ...Option) (*Result, error) {
	o := defaultRenderOptions()
	o.apply(opts)
	if err := validateInput(source, &o); err != nil {
		return nil, err
	}

	raw, err := r.call(ctx, source, &o, o.flags|FlagPlaintextErrors)
	if err != nil {
		return nil, err
	}

	if !utf8.Valid(raw.Data) {
		return nil, &EncodingError{Raw: raw.Data}
	}

	if raw.Width < 0 {
		return nil, ParseDiagnostic(string(raw.Data))
	}

	return &Result{
		SVG:    raw.Data,
		Width:  int(raw.Width),
		Height: int(raw.Height),
		Status: StatusClean,
	}, nil
}

// RenderString is Render returning the SVG as a string.
func (r *Renderer) RenderString(ctx context.Context, source string, opts ...Option) (string, error) {
	res, err := r.Render(ctx, source, opts...)
	if err != nil {
		return "", err
	}
	return string(res.SVG), nil
}

// RenderRaw renders without translating diagnostics: when the engine
// reports an error it returns the rendered diagnostic markup with
// StatusErrorMarkup instead of a *Error, and the flags are passed through
// as given (so HTML error markup is possible). Width and Height are -1 in
// that case, per the engine's convention.
func (r *Renderer) RenderRaw(ctx context.Context, source string, opts ...Option) (*Result, error) {
	o := defaultRenderOptions()
	o.apply(opts)
	if err := validateInput(source, &o); err != nil {
		return nil, err
	}

	raw, err := r.call(ctx, source, &o, o.flags)
	if err != nil {
		return nil, err
	}

	status := StatusClean
	if raw.Width < 0 {
		status = StatusErrorMarkup
	}

	return &Result{
		SVG:    raw.Data,
		Width:  int(raw.Width),
		Height: int(raw.Height),
		Status: status,
	}, nil
}

// Close releases the engine instances and the runtime. Idempotent.
func (r *Renderer) Close(ctx context.Context) error {
	r.closeOnce.Do(func() {
		r.closeErr = r.runtime.Close(ctx)
	})
	return r.closeErr
}

func (r *Renderer) call(ctx context.Context, source string, o *renderOptions, flags uint32) (*wasm.RawResult, error) {
	var inst *wasm.Instance
	select {
	case inst = <-r.pool:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { r.pool <- inst }()

	raw, err := inst.Call(ctx, source, o.classAttr(), flags, int32(o.width), int32(o.height))
	if err != nil {
		return nil, translateBoundaryError(err)
	}
	return raw, nil
}

func validateInput(source string, o *renderOptions) error {
	if i := strings.IndexByte(source, 0); i >= 0 {
		return &InvalidInputError{
			Field:   "source",
			Message: fmt.Sprintf("embedded NUL byte at index %d", i),
		}
	}
	if class := o.classAttr(); strings.IndexByte(class, 0) >= 0 {
		return &InvalidInputError{
			Field:   "class",
			Message: "embedded NUL byte",
		}
	}
	if extra := o.flags &^ flagMask; extra != 0 {
		return &InvalidInputError{
			Field:   "flags",
			Message: fmt.Sprintf("unknown flag bits 0x%04x", extra),
		}
	}
	if o.width < 0 || o.height < 0 {
		return &InvalidInputError{
			Field:   "dimensions",
			Message: fmt.Sprintf("negative size %dx%d", o.width, o.height),
		}
	}
	return nil
}

// translateBoundaryError maps boundary-internal errors onto the public
// taxonomy. No sentinel or internal error type leaks past here.
func translateBoundaryError(err error) error {
	var strErr *wasm.InvalidStringError
	if errors.As(err, &strErr) {
		return &InvalidInputError{
			Field:   strErr.Name,
			Message: fmt.Sprintf("embedded NUL byte at index %d", strErr.Index),
		}
	}

	var nullErr *wasm.NullOutputError
	if errors.As(err, &nullErr) {
		return &AllocationFailedError{}
	}

	var allocErr *wasm.AllocationError
	if errors.As(err, &allocErr) {
		return &AllocationFailedError{Err: allocErr}
	}

	return fmt.Errorf("render failed: %w", err)
}
