package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	pikchr "github.com/pikchr-community/pikchr-go"
	"github.com/pikchr-community/pikchr-go/internal/config"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "", "Path to configuration file")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	enginePath := flag.String("engine", "", "Path to the engine Wasm artifact")
	class := flag.String("class", "", "CSS class for the root SVG element")
	dark := flag.Bool("dark", false, "Render with the dark-mode palette")
	width := flag.Int("width", 0, "Target width in pixels (0 = auto)")
	height := flag.Int("height", 0, "Target height in pixels (0 = auto)")
	output := flag.String("o", "", "Output file (default stdout)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("pikchr %s (commit %s, built %s)\n", version, commit, date)
		return
	}

	// Initialize logger
	var logger *zap.Logger
	if *logLevel == "debug" {
		logger, _ = zap.NewDevelopment()
	} else {
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Flags override the config file.
	if *enginePath != "" {
		cfg.Engine.Path = *enginePath
	}
	if *class != "" {
		cfg.Render.Class = *class
	}
	if *dark {
		cfg.Render.DarkMode = true
	}

	source, name, err := readSource(flag.Args())
	if err != nil {
		logger.Fatal("Failed to read input", zap.Error(err))
	}

	ctx := context.Background()

	renderer, err := pikchr.New(ctx,
		pikchr.WithLogger(logger),
		pikchr.WithEnginePath(cfg.Engine.Path),
		pikchr.WithMemoryPages(cfg.Engine.MemoryPages),
		pikchr.WithCacheDir(cfg.Engine.CacheDir),
		pikchr.WithPoolSize(cfg.Engine.PoolSize),
	)
	if err != nil {
		logger.Fatal("Failed to initialize engine", zap.Error(err))
	}
	defer renderer.Close(ctx)

	opts := []pikchr.Option{
		pikchr.WithClass(cfg.Render.Class),
		pikchr.WithWidth(*width),
		pikchr.WithHeight(*height),
	}
	if cfg.Render.DarkMode {
		opts = append(opts, pikchr.WithDarkMode())
	}

	res, err := renderer.Render(ctx, source, opts...)
	if err != nil {
		var diagErr *pikchr.Error
		if errors.As(err, &diagErr) {
			fmt.Fprintf(os.Stderr, "%s: %s\n%s", name, diagErr, diagErr.Output)
			os.Exit(1)
		}
		logger.Fatal("Render failed", zap.Error(err))
	}

	if err := writeOutput(*output, res.SVG); err != nil {
		logger.Fatal("Failed to write output", zap.Error(err))
	}

	logger.Debug("Rendered diagram",
		zap.String("input", name),
		zap.Int("width", res.Width),
		zap.Int("height", res.Height),
		zap.Int("svg_bytes", len(res.SVG)),
	)
}

// readSource reads diagram source from the file argument, or stdin when no
// argument is given.
func readSource(args []string) (string, string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), "stdin", err
	}
	data, err := os.ReadFile(args[0])
	return string(data), args[0], err
}

func writeOutput(path string, svg []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(svg)
		return err
	}
	return os.WriteFile(path, svg, 0644)
}
