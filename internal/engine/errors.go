package engine

import (
	"fmt"
)

// ManifestNotFoundError occurs when manifest.yaml is not found in a directory.
type ManifestNotFoundError struct {
	Path string
	Err  error
}

func (e *ManifestNotFoundError) Error() string {
	return fmt.Sprintf("engine manifest not found at '%s': %v", e.Path, e.Err)
}

func (e *ManifestNotFoundError) Unwrap() error {
	return e.Err
}

// ManifestParseError occurs when manifest.yaml cannot be parsed as valid YAML.
type ManifestParseError struct {
	Path string
	Err  error
}

func (e *ManifestParseError) Error() string {
	return fmt.Sprintf("failed to parse engine manifest at '%s': %v", e.Path, e.Err)
}

func (e *ManifestParseError) Unwrap() error {
	return e.Err
}

// ManifestValidationError occurs when manifest.yaml fails validation.
type ManifestValidationError struct {
	Path    string
	Field   string
	Message string
}

func (e *ManifestValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("engine manifest validation failed at '%s': %s (field: %s)",
			e.Path, e.Message, e.Field)
	}
	return fmt.Sprintf("engine manifest validation failed at '%s': %s", e.Path, e.Message)
}

// ArtifactNotFoundError occurs when the Wasm artifact cannot be located. The
// artifact is built from the vendored source rather than checked in; see the
// README for the wasi-sdk build step.
type ArtifactNotFoundError struct {
	ManifestPath string
	WasmFile     string
	Searched     []string
}

func (e *ArtifactNotFoundError) Error() string {
	if len(e.Searched) > 0 {
		return fmt.Sprintf("engine artifact not found (searched: %v); build it from the vendored source first", e.Searched)
	}
	return fmt.Sprintf("engine artifact '%s' referenced by '%s' not found; build it from the vendored source first",
		e.WasmFile, e.ManifestPath)
}

// ChecksumMismatchError occurs when the artifact on disk does not match the
// manifest's pinned checksum.
type ChecksumMismatchError struct {
	Path string
	Want string
	Got  string
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("engine artifact '%s' checksum mismatch: want %s, got %s",
		e.Path, e.Want, e.Got)
}
