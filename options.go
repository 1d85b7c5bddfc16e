package pikchr

import (
	"strings"

	"go.uber.org/zap"
)

// DefaultClass is the CSS class emitted on the root SVG element unless
// overridden with WithClass.
const DefaultClass = "pikchr"

// Option configures a single render call.
type Option func(*renderOptions)

type renderOptions struct {
	flags   uint32
	width   int
	height  int
	class   string
	classes []string
}

func defaultRenderOptions() renderOptions {
	return renderOptions{class: DefaultClass}
}

func (o *renderOptions) apply(opts []Option) {
	for _, opt := range opts {
		opt(o)
	}
}

// classAttr joins the base class with any appended classes, matching what
// the engine writes into the SVG class attribute.
func (o *renderOptions) classAttr() string {
	if len(o.classes) == 0 {
		return o.class
	}
	return o.class + " " + strings.Join(o.classes, " ")
}

// WithDarkMode renders with the engine's dark-mode palette.
func WithDarkMode() Option {
	return func(o *renderOptions) {
		o.flags |= FlagDarkMode
	}
}

// WithFlags ORs raw engine flag bits into the call. Bits outside the
// documented flag set are rejected at render time.
func WithFlags(flags uint32) Option {
	return func(o *renderOptions) {
		o.flags |= flags
	}
}

// WithWidth requests a target width in pixels. Zero (the default) lets the
// engine size the output.
func WithWidth(px int) Option {
	return func(o *renderOptions) {
		o.width = px
	}
}

// WithHeight requests a target height in pixels. Zero (the default) lets
// the engine size the output.
func WithHeight(px int) Option {
	return func(o *renderOptions) {
		o.height = px
	}
}

// WithClass replaces the class attribute value. See WithClasses to append
// instead.
func WithClass(name string) Option {
	return func(o *renderOptions) {
		o.class = name
	}
}

// WithClasses appends class names after the base class.
func WithClasses(names ...string) Option {
	return func(o *renderOptions) {
		o.classes = append(o.classes, names...)
	}
}

// RendererOption configures a Renderer at construction time.
type RendererOption func(*rendererConfig)

type rendererConfig struct {
	logger      *zap.Logger
	enginePath  string
	memoryPages uint32
	cacheDir    string
	poolSize    int
	debug       bool
}

func defaultRendererConfig() rendererConfig {
	return rendererConfig{
		logger:      zap.NewNop(),
		memoryPages: 256,
		poolSize:    1,
	}
}

// WithLogger attaches a logger; the default discards everything.
func WithLogger(logger *zap.Logger) RendererOption {
	return func(c *rendererConfig) {
		c.logger = logger
	}
}

// WithEnginePath points at the engine Wasm artifact explicitly instead of
// locating it via PIKCHR_WASM or the in-repo engine directory.
func WithEnginePath(path string) RendererOption {
	return func(c *rendererConfig) {
		c.enginePath = path
	}
}

// WithMemoryPages caps the engine's linear memory (64KB pages).
func WithMemoryPages(pages uint32) RendererOption {
	return func(c *rendererConfig) {
		c.memoryPages = pages
	}
}

// WithCacheDir enables wazero's on-disk compilation cache.
func WithCacheDir(dir string) RendererOption {
	return func(c *rendererConfig) {
		c.cacheDir = dir
	}
}

// WithPoolSize sets how many engine instances back the Renderer. Each
// instance serializes its calls, so the pool size bounds render
// concurrency.
func WithPoolSize(n int) RendererOption {
	return func(c *rendererConfig) {
		if n > 0 {
			c.poolSize = n
		}
	}
}

// WithDebugInfo keeps DWARF debug info for engine stack traces.
func WithDebugInfo() RendererOption {
	return func(c *rendererConfig) {
		c.debug = true
	}
}
