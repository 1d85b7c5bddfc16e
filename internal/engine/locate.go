package engine

import (
	"os"
	"path/filepath"
)

// EnvWasmPath overrides artifact location when set.
const EnvWasmPath = "PIKCHR_WASM"

// DefaultDir is the in-repo engine directory holding manifest.yaml and, once
// built, the artifact next to it.
const DefaultDir = "engine"

// Locate resolves the path of the engine artifact. Resolution order:
// an explicit path (config or flag), the PIKCHR_WASM environment variable,
// then the manifest in the default engine directory.
func Locate(explicit string) (string, error) {
	var searched []string

	for _, candidate := range []string{explicit, os.Getenv(EnvWasmPath)} {
		if candidate == "" {
			continue
		}
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		searched = append(searched, candidate)
	}

	if m, err := ParseManifest(DefaultDir); err == nil {
		wasmPath := m.WasmPath()
		if err := m.VerifyArtifact(); err == nil {
			return wasmPath, nil
		}
		searched = append(searched, wasmPath)
	} else {
		searched = append(searched, filepath.Join(DefaultDir, ManifestFileName))
	}

	return "", &ArtifactNotFoundError{Searched: searched}
}
