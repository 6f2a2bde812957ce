// Package cache stores rendered SVG artifacts keyed by their inputs.
//
// Rendering a large revision graph through Graphviz is the slowest step of
// one-shot rendering, and the editor tends to request the same flow with the
// same highlights repeatedly. Entries are plain .svg files so they can be
// opened directly.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
)

// appName names the cache directory.
const appName = "revgraph"

// Cache stores rendered artifacts.
type Cache interface {
	// Get returns the artifact stored under key and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key.
	Set(ctx context.Context, key string, data []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

// RenderKey derives the cache key of an SVG rendering. The order of selected
// does not matter.
func RenderKey(dot string, selected []string, color string) string {
	sorted := slices.Clone(selected)
	slices.Sort(sorted)
	data, _ := json.Marshal([]any{dot, sorted, color})
	return "svg:" + Hash(data)
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Dir returns the cache directory using the XDG standard (~/.cache/revgraph/).
func Dir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
