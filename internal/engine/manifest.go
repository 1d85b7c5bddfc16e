// Package engine describes the vendored pikchr engine artifact: the WASI
// build of the upstream C source, pinned to a specific upstream check-in.
package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ManifestFileName is the manifest file looked up inside an engine directory.
const ManifestFileName = "manifest.yaml"

// Manifest pins the vendored engine build.
type Manifest struct {
	Name     string   `yaml:"name"`
	Version  string   `yaml:"version"`
	Upstream Upstream `yaml:"upstream"`
	Wasm     Artifact `yaml:"wasm"`

	// Internal fields
	dir string // Directory containing manifest
}

// Upstream identifies the exact source checkout the artifact was built from.
// Consumers must build against the same check-in to preserve bit-exact
// output.
type Upstream struct {
	URL    string `yaml:"url"`
	Commit string `yaml:"commit"`
}

// Artifact describes the Wasm build of the engine.
type Artifact struct {
	File   string `yaml:"file"`
	SHA256 string `yaml:"sha256"`
}

// ParseManifest reads and parses manifest.yaml from a directory.
func ParseManifest(dir string) (*Manifest, error) {
	manifestPath := filepath.Join(dir, ManifestFileName)

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, &ManifestNotFoundError{
			Path: manifestPath,
			Err:  err,
		}
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, &ManifestParseError{
			Path: manifestPath,
			Err:  err,
		}
	}

	m.dir = dir

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return &m, nil
}

// Validate checks manifest fields. It does not require the artifact itself
// to be present; that is VerifyArtifact's job, since the Wasm build is
// produced separately from the checked-in manifest.
func (m *Manifest) Validate() error {
	if m.Name == "" {
		return &ManifestValidationError{
			Path:    m.Path(),
			Field:   "name",
			Message: "name is required",
		}
	}

	if m.Version == "" {
		return &ManifestValidationError{
			Path:    m.Path(),
			Field:   "version",
			Message: "version is required",
		}
	}

	if m.Upstream.URL == "" {
		return &ManifestValidationError{
			Path:    m.Path(),
			Field:   "upstream.url",
			Message: "upstream.url is required",
		}
	}

	if m.Upstream.Commit == "" {
		return &ManifestValidationError{
			Path:    m.Path(),
			Field:   "upstream.commit",
			Message: "upstream.commit is required to pin the vendored source",
		}
	}

	if m.Wasm.File == "" {
		return &ManifestValidationError{
			Path:    m.Path(),
			Field:   "wasm.file",
			Message: "wasm.file is required",
		}
	}

	return nil
}

// VerifyArtifact checks that the Wasm artifact exists and, when the manifest
// carries a checksum, that its contents match.
func (m *Manifest) VerifyArtifact() error {
	wasmPath := m.WasmPath()

	data, err := os.ReadFile(wasmPath)
	if err != nil {
		if os.IsNotExist(err) {
			return &ArtifactNotFoundError{
				ManifestPath: m.Path(),
				WasmFile:     m.Wasm.File,
			}
		}
		return err
	}

	if m.Wasm.SHA256 != "" {
		sum := sha256.Sum256(data)
		got := hex.EncodeToString(sum[:])
		if got != m.Wasm.SHA256 {
			return &ChecksumMismatchError{
				Path: wasmPath,
				Want: m.Wasm.SHA256,
				Got:  got,
			}
		}
	}

	return nil
}

// Path returns the manifest file path.
func (m *Manifest) Path() string {
	return filepath.Join(m.dir, ManifestFileName)
}

// WasmPath returns the absolute path to the Wasm artifact.
func (m *Manifest) WasmPath() string {
	return filepath.Join(m.dir, m.Wasm.File)
}

// Dir returns the directory containing the manifest.
func (m *Manifest) Dir() string {
	return m.dir
}
