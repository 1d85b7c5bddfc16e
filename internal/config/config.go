package config

import (
	"github.com/spf13/viper"
)

// Config is the CLI/runtime configuration.
type Config struct {
	LogLevel string       `mapstructure:"log_level"`
	Engine   EngineConfig `mapstructure:"engine"`
	Render   RenderConfig `mapstructure:"render"`
}

// EngineConfig holds engine artifact and Wasm runtime settings.
type EngineConfig struct {
	// Path to the engine Wasm artifact. Empty means locate it via
	// PIKCHR_WASM or the in-repo engine directory.
	Path string `mapstructure:"path"`
	// Memory limit for the engine (in pages, 64KB each).
	MemoryPages uint32 `mapstructure:"memory_pages"`
	// Compilation cache directory. Empty disables the on-disk cache.
	CacheDir string `mapstructure:"cache_dir"`
	// Number of engine instances kept for concurrent rendering.
	PoolSize int `mapstructure:"pool_size"`
	// Keep DWARF debug info for engine stack traces.
	Debug bool `mapstructure:"debug"`
}

// RenderConfig holds default render options.
type RenderConfig struct {
	// CSS class attribute emitted on the root SVG element.
	Class string `mapstructure:"class"`
	// Render with the engine's dark-mode palette.
	DarkMode bool `mapstructure:"dark_mode"`
}

// Load reads configuration from an optional YAML file over the defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("log_level", "info")

	v.SetDefault("engine.path", "")
	v.SetDefault("engine.memory_pages", 256) // 16MB
	v.SetDefault("engine.cache_dir", "")
	v.SetDefault("engine.pool_size", 1)
	v.SetDefault("engine.debug", false)

	v.SetDefault("render.class", "pikchr")
	v.SetDefault("render.dark_mode", false)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
